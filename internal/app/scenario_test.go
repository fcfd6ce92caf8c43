package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/armory/internal/app"
	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/blacklist"
	"github.com/cory-johannsen/armory/internal/game/settlement"
	"github.com/cory-johannsen/armory/internal/storage/memory"
)

func TestParseScenario(t *testing.T) {
	sc, err := app.ParseScenario([]byte(`
parties: [north, steppe]
seed: 3
battle:
  sides: {north: defender, steppe: attacker}
  outcomes: {defender: victor}
  casualties: {north: 1}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"north", "steppe"}, sc.Parties)
	assert.Equal(t, uint64(3), sc.Seed)
	require.NotNil(t, sc.Battle)
	assert.Equal(t, 1, sc.Battle.Casualties["north"])
}

func TestParseScenario_Errors(t *testing.T) {
	cases := map[string]string{
		"no parties":        `siege: true`,
		"bad outcome":       "parties: [a]\nbattle:\n  outcomes: {x: triumphant}\n",
		"negative casualty": "parties: [a]\nbattle:\n  casualties: {a: -1}\n",
		"invalid yaml":      "parties: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := app.ParseScenario([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestLoadScenario_BundledScenario(t *testing.T) {
	sc, err := app.LoadScenario(filepath.Join("..", "..", "content", "scenarios", "border_skirmish.yaml"))
	require.NoError(t, err)
	assert.Len(t, sc.Parties, 2)
}

func newDeps(t *testing.T) app.ScenarioDeps {
	t.Helper()
	c := loadContent(t)
	reg, err := app.RestoreRegistry(context.Background(), memory.NewArmoryStore(), c.Parties, nil)
	require.NoError(t, err)
	return app.ScenarioDeps{Content: c, Registry: reg, Filter: blacklist.Empty()}
}

func totals(reg *armory.Registry) map[string]int {
	out := make(map[string]int)
	for _, id := range reg.PartyIDs() {
		out[id] = reg.Get(id).Total()
	}
	return out
}

func TestRunScenario_SpawnDebitsAssignedUnits(t *testing.T) {
	deps := newDeps(t)
	before := totals(deps.Registry)

	res, err := app.RunScenario(context.Background(), &app.Scenario{Parties: []string{"north", "steppe"}, Seed: 11}, deps)
	require.NoError(t, err)
	assert.Nil(t, res.Settlement)

	for _, partyID := range []string{"north", "steppe"} {
		units := res.Distributors[partyID].Summary().Units
		assert.Positive(t, units)
		assert.Equal(t, before[partyID]-units, deps.Registry.Get(partyID).Total(), partyID)
	}
}

func TestRunScenario_NoCasualtiesReturnsEverything(t *testing.T) {
	deps := newDeps(t)
	before := totals(deps.Registry)

	res, err := app.RunScenario(context.Background(), &app.Scenario{
		Parties: []string{"north", "steppe"},
		Seed:    5,
		Battle: &app.ScenarioBattle{
			Sides:    map[string]string{"north": "defender", "steppe": "attacker"},
			Outcomes: map[string]string{"defender": "victor", "attacker": "defeated"},
		},
	}, deps)
	require.NoError(t, err)
	require.NotNil(t, res.Settlement)
	assert.Equal(t, 0, res.Settlement.Credited())
	assert.Equal(t, before, totals(deps.Registry))
}

func TestRunScenario_VictorRecoversAndLoots(t *testing.T) {
	deps := newDeps(t)
	before := totals(deps.Registry)

	res, err := app.RunScenario(context.Background(), &app.Scenario{
		Parties: []string{"north", "steppe"},
		Seed:    5,
		Battle: &app.ScenarioBattle{
			Sides:      map[string]string{"north": "defender", "steppe": "attacker"},
			Outcomes:   map[string]string{"defender": "victor", "attacker": "defeated"},
			Casualties: map[string]int{"north": 3, "steppe": 4},
		},
	}, deps)
	require.NoError(t, err)
	require.NotNil(t, res.Settlement)
	require.Len(t, res.Records, 2)

	byParty := make(map[string]settlement.PartySummary)
	for _, ps := range res.Settlement.Parties {
		byParty[ps.PartyID] = ps
	}
	north, steppe := byParty["north"], byParty["steppe"]
	assert.Equal(t, settlement.Victor, north.Outcome)
	assert.Equal(t, settlement.Defeated, steppe.Outcome)
	assert.Equal(t, 0, steppe.Credited)
	assert.Positive(t, steppe.Forfeited)
	assert.Positive(t, north.Credited)

	assert.Greater(t, deps.Registry.Get("north").Total(), before["north"])
	assert.Less(t, deps.Registry.Get("steppe").Total(), before["steppe"])
}

func TestRunScenario_UnknownParty(t *testing.T) {
	deps := newDeps(t)
	_, err := app.RunScenario(context.Background(), &app.Scenario{Parties: []string{"atlantis"}}, deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no roster")
}
