package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/armory/internal/game/armory"
)

func newArmoryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "armory",
		Short: "Inspect party armories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show [party]...",
		Short: "Print stored armories; with no party, print every party",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			e, err := loadEnv(ctx, opts)
			if err != nil {
				return err
			}
			defer e.close()

			parties := args
			if len(parties) == 0 {
				parties = e.registry.PartyIDs()
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, partyID := range parties {
				a, err := e.registry.Lookup(partyID)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "party %s: %d units, %d identities\n", partyID, a.Total(), a.Len())
				fmt.Fprintln(tw, "  item\ttype\ttier\tvalue\tcount")
				a.Each(func(en armory.Entry) bool {
					typ := "?"
					if d, ok := e.content.Catalog.Resolve(en.Identity); ok {
						typ = string(d.Type)
					}
					fmt.Fprintf(tw, "  %s\t%s\t%d\t%.0f\t%d\n",
						en.Identity, typ, e.scorer.Tier(en.Identity), e.scorer.Value(en.Identity), en.Count)
					return true
				})
			}
			return tw.Flush()
		},
	})
	return cmd
}
