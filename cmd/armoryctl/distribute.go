package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/app"
	"github.com/cory-johannsen/armory/internal/game/distribution"
	"github.com/cory-johannsen/armory/internal/game/item"
	"github.com/cory-johannsen/armory/internal/game/settlement"
	"github.com/cory-johannsen/armory/internal/storage/postgres"
)

func newDistributeCmd(opts *rootOptions) *cobra.Command {
	var (
		persist  bool
		soldiers bool
	)
	cmd := &cobra.Command{
		Use:   "distribute <scenario.yaml>",
		Short: "Run a distribution scenario",
		Long:  `Distribute each scenario party's armory to its roster, spawn the soldiers and, when the scenario describes a battle, settle recovered and looted equipment.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			sc, err := app.LoadScenario(args[0])
			if err != nil {
				return err
			}
			e, err := loadEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer e.close()

			res, err := app.RunScenario(ctx, sc, app.ScenarioDeps{
				Content:  e.content,
				Registry: e.registry,
				Scorer:   e.scorer,
				Filter:   e.filter,
				Logger:   e.logger,
			})
			if err != nil {
				return err
			}
			printDistribution(cmd.OutOrStdout(), sc.Parties, res, soldiers)

			if !persist {
				return nil
			}
			if err := app.PersistAll(ctx, e.backend.Store, e.registry); err != nil {
				return err
			}
			if res.Settlement != nil && e.backend.Settlements != nil {
				if err := recordSettlements(ctx, e.backend.Settlements, res, e.logger); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "persisted %d armories to %s\n", len(e.registry.PartyIDs()), e.backend.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&persist, "persist", false, "save the resulting armories (and settlements on postgres)")
	cmd.Flags().BoolVar(&soldiers, "soldiers", false, "print every soldier's loadout")
	return cmd
}

func recordSettlements(ctx context.Context, repo *postgres.SettlementRepository, res *app.ScenarioResult, logger *zap.Logger) error {
	byParty := make(map[string]settlement.PartySummary, len(res.Settlement.Parties))
	for _, ps := range res.Settlement.Parties {
		byParty[ps.PartyID] = ps
	}
	for _, rec := range res.Records {
		ps, ok := byParty[rec.PartyID]
		if !ok {
			continue
		}
		if err := repo.Record(ctx, rec, ps); err != nil {
			return err
		}
	}
	logger.Info("settlements recorded", zap.Int("records", len(res.Records)))
	return nil
}

func printDistribution(w io.Writer, parties []string, res *app.ScenarioResult, soldiers bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, partyID := range parties {
		d := res.Distributors[partyID]
		sum := d.Summary()
		st := d.Stats()
		fmt.Fprintf(tw, "party %s (run %s): %d soldiers, %d items, %d mounted, %d unarmed\n",
			partyID, sum.RunID, st.Soldiers, sum.Units, st.Mounted, st.Unarmed)
		for _, pc := range sum.ByPass {
			if pc.Units > 0 {
				fmt.Fprintf(tw, "  %s\t%d\n", pc.Pass, pc.Units)
			}
		}
		if soldiers {
			printSoldiers(tw, d)
		}
	}
	if res.Settlement != nil {
		fmt.Fprintln(tw, "settlement:")
		fmt.Fprintln(tw, "  party\toutcome\tcredited\tblacklisted\tforfeited")
		for _, ps := range res.Settlement.Parties {
			fmt.Fprintf(tw, "  %s\t%s\t%d\t%d\t%d\n", ps.PartyID, ps.Outcome, ps.Credited, ps.Blacklisted, ps.Forfeited)
		}
	}
	_ = tw.Flush()
}

func printSoldiers(w io.Writer, d *distribution.Distributor) {
	for _, a := range d.Assignments() {
		slots := a.Equipment.Map()
		names := make([]string, 0, len(slots))
		for s := range slots {
			names = append(names, s)
		}
		sort.Slice(names, func(i, j int) bool {
			si, _ := item.ParseSlot(names[i])
			sj, _ := item.ParseSlot(names[j])
			return si < sj
		})
		parts := make([]string, 0, len(names))
		for _, s := range names {
			parts = append(parts, s+"="+slots[s])
		}
		fmt.Fprintf(w, "    #%d\t%s\t%s\n", a.Index, a.Troop.ID, strings.Join(parts, " "))
	}
}
