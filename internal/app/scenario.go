package app

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/blacklist"
	"github.com/cory-johannsen/armory/internal/game/dice"
	"github.com/cory-johannsen/armory/internal/game/distribution"
	"github.com/cory-johannsen/armory/internal/game/item"
	"github.com/cory-johannsen/armory/internal/game/settlement"
)

// Scenario is a battle rehearsal: which parties fight, how the battle ends and
// how many soldiers each party loses.
type Scenario struct {
	Parties []string `yaml:"parties"`
	Siege   bool     `yaml:"siege"`
	// Seed makes the unarmed rescue pass reproducible; 0 uses crypto/rand.
	Seed   uint64          `yaml:"seed"`
	Battle *ScenarioBattle `yaml:"battle"`
}

// ScenarioBattle describes the battle outcome. Parties absent from Sides do
// not take part in settlement.
type ScenarioBattle struct {
	Sides      map[string]string `yaml:"sides"`
	Outcomes   map[string]string `yaml:"outcomes"`
	Casualties map[string]int    `yaml:"casualties"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %q: %w", path, err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario document.
//
// Postcondition: the returned scenario names at least one party, and every
// battle outcome parses.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	if len(sc.Parties) == 0 {
		return nil, fmt.Errorf("scenario: parties must not be empty")
	}
	if sc.Battle != nil {
		for side, o := range sc.Battle.Outcomes {
			if _, err := settlement.ParseOutcome(o); err != nil {
				return nil, fmt.Errorf("scenario: side %q: %w", side, err)
			}
		}
		for party, n := range sc.Battle.Casualties {
			if n < 0 {
				return nil, fmt.Errorf("scenario: casualties of %q must be >= 0", party)
			}
		}
	}
	return &sc, nil
}

// ScenarioResult is the outcome of RunScenario.
type ScenarioResult struct {
	Distributors map[string]*distribution.Distributor
	Records      []*settlement.Record
	Settlement   *settlement.Summary
}

// ScenarioDeps are the collaborators RunScenario needs.
type ScenarioDeps struct {
	Content  *Content
	Registry *armory.Registry
	Scorer   item.Scorer
	Filter   *blacklist.Filter
	Logger   *zap.Logger
}

// RunScenario distributes equipment to every scenario party, spawns all of
// their soldiers and, when a battle is configured, settles it. Fallen
// soldiers' gear is recovered by their own party and looted by the first
// party of each opposing side; survivors return their gear.
//
// Precondition: every scenario party has a roster in deps.Content.
// Postcondition: deps.Registry reflects spawning, returns and settlement.
func RunScenario(ctx context.Context, sc *Scenario, deps ScenarioDeps) (*ScenarioResult, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	configs := make([]distribution.Config, 0, len(sc.Parties))
	for i, partyID := range sc.Parties {
		roster := deps.Content.Rosters.Roster(partyID)
		if roster == nil {
			return nil, fmt.Errorf("scenario: party %q has no roster", partyID)
		}
		var src dice.Source
		if sc.Seed != 0 {
			src = dice.NewSeededSource(sc.Seed + uint64(i))
		}
		configs = append(configs, distribution.Config{
			PartyID: partyID,
			Roster:  roster,
			Armory:  deps.Registry.Get(partyID),
			Catalog: deps.Content.Catalog,
			Scorer:  deps.Scorer,
			Source:  src,
			Siege:   sc.Siege,
			Logger:  logger,
		})
	}
	dists, err := distribution.DistributeAll(ctx, configs)
	if err != nil {
		return nil, err
	}
	res := &ScenarioResult{Distributors: dists}
	if sc.Battle == nil {
		for _, d := range dists {
			for _, a := range d.Assignments() {
				d.Spawn(a.Index)
			}
		}
		return res, nil
	}

	battle := settlement.NewBattle()
	for _, partyID := range sc.Parties {
		if side, ok := sc.Battle.Sides[partyID]; ok {
			battle.Party(partyID, settlement.Side(side))
		}
	}
	for _, partyID := range sc.Parties {
		d := dists[partyID]
		fallen := sc.Battle.Casualties[partyID]
		own, fights := sc.Battle.Sides[partyID]
		looter := opposingParty(sc, partyID)
		for _, a := range d.Assignments() {
			eq, _ := d.Spawn(a.Index)
			if fallen == 0 || !fights {
				for s := item.Slot(0); s < item.NumSlots; s++ {
					d.ReturnItem(a.Index, s)
				}
				continue
			}
			fallen--
			rec := battle.Party(partyID, settlement.Side(own))
			for _, id := range eq.Items() {
				rec.RecordRecovered(id, 1)
				if looter != "" {
					battle.Party(looter, settlement.Side(sc.Battle.Sides[looter])).RecordLooted(id, 1)
				}
			}
		}
	}

	outcomes := make(map[settlement.Side]settlement.Outcome, len(sc.Battle.Outcomes))
	for side, o := range sc.Battle.Outcomes {
		outcomes[settlement.Side(side)], _ = settlement.ParseOutcome(o)
	}
	res.Records = battle.Records()
	sum := settlement.Settle(res.Records, outcomes, deps.Registry, deps.Content.Catalog, deps.Filter, logger)
	res.Settlement = &sum
	return res, nil
}

// opposingParty returns the first scenario party, in ID order, on a different
// side than partyID, or "".
func opposingParty(sc *Scenario, partyID string) string {
	own, ok := sc.Battle.Sides[partyID]
	if !ok {
		return ""
	}
	ids := append([]string(nil), sc.Parties...)
	sort.Strings(ids)
	for _, id := range ids {
		if side, ok := sc.Battle.Sides[id]; ok && side != own {
			return id
		}
	}
	return ""
}
