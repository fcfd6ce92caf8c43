package troop_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/armory/internal/game/item"
	"github.com/cory-johannsen/armory/internal/game/troop"
)

const knightYAML = `
id: vlandian_knight
name: Vlandian Knight
culture: vlandia
tier: 5
level: 26
skills:
  polearm: 120
equipment:
  weapon0: lance
  weapon1: arming_sword@fine
  head: great_helm
  horse: destrier
`

func TestLoadTemplateFromBytes_ParsesReference(t *testing.T) {
	tmpl, err := troop.LoadTemplateFromBytes([]byte(knightYAML))
	require.NoError(t, err)
	ref := tmpl.Reference()
	assert.Equal(t, item.Of("lance"), ref.Get(item.SlotWeapon0))
	assert.Equal(t, item.Identity{ItemID: "arming_sword", ModifierID: "fine"}, ref.Get(item.SlotWeapon1))
	assert.Equal(t, item.Of("destrier"), ref.Get(item.SlotHorse))
	assert.True(t, tmpl.IsMounted())
	assert.Equal(t, 120, tmpl.Skill("polearm"))
	assert.Equal(t, 0, tmpl.Skill("bow"))
}

func TestTemplate_Validate_UnknownSlot(t *testing.T) {
	_, err := troop.LoadTemplateFromBytes([]byte("id: x\nname: X\nlevel: 1\nequipment:\n  pocket: coin\n"))
	assert.ErrorContains(t, err, "unknown equipment slot")
}

func TestTemplate_Validate_RejectsZeroLevel(t *testing.T) {
	_, err := troop.LoadTemplateFromBytes([]byte("id: x\nname: X\n"))
	assert.ErrorContains(t, err, "level")
}

func TestElement_Needing(t *testing.T) {
	tmpl := &troop.Template{ID: "a", Name: "A", Level: 1}
	assert.Equal(t, 3, troop.Element{Troop: tmpl, Count: 5, Wounded: 2}.Needing())
	assert.Equal(t, 0, troop.Element{Troop: tmpl, Count: 1, Wounded: 4}.Needing())
	hero := &troop.Template{ID: "h", Name: "H", Level: 1, Hero: true}
	assert.Equal(t, 0, troop.Element{Troop: hero, Count: 1}.Needing())
	assert.Equal(t, 0, troop.Element{Count: 3}.Needing())
}

func TestLoadParties_ResolvesTroops(t *testing.T) {
	dir := t.TempDir()
	troopDir := filepath.Join(dir, "troops")
	partyDir := filepath.Join(dir, "parties")
	require.NoError(t, os.MkdirAll(troopDir, 0755))
	require.NoError(t, os.MkdirAll(partyDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(troopDir, "knight.yaml"), []byte(knightYAML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(partyDir, "host.yaml"), []byte(`
id: host
roster:
  - troop: vlandian_knight
    count: 4
    wounded: 1
armory:
  - item: lance
    count: 3
  - item: lance
    modifier: fine
    count: 1
`), 0644))

	templates, err := troop.LoadTemplates(troopDir)
	require.NoError(t, err)
	parties, err := troop.LoadParties(partyDir, templates)
	require.NoError(t, err)
	require.Len(t, parties, 1)

	p := parties[0]
	assert.Equal(t, "host", p.ID)
	require.Len(t, p.Roster, 1)
	assert.Equal(t, 3, p.Roster[0].Needing())
	require.Len(t, p.Armory, 2)
	assert.Equal(t, "fine", p.Armory[1].ModifierID)

	rosters := troop.RostersOf(parties)
	assert.Len(t, rosters.Roster("host"), 1)
	assert.Nil(t, rosters.Roster("other"))
}

func TestParseParty_UnknownTroop(t *testing.T) {
	_, err := troop.ParseParty([]byte("id: p\nroster:\n  - troop: ghost\n    count: 1\n"), map[string]*troop.Template{})
	assert.ErrorContains(t, err, "unknown troop")
}
