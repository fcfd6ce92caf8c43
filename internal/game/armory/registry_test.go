package armory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/armory/internal/game/armory"
)

func TestRegistry_GetCreatesOnce(t *testing.T) {
	r := armory.NewRegistry(nil)
	a := r.Get("bandits")
	a.Store(sword, 1)
	assert.Same(t, a, r.Get("bandits"))
	assert.Equal(t, []string{"bandits"}, r.PartyIDs())
}

func TestRegistry_Lookup_Missing(t *testing.T) {
	r := armory.NewRegistry(nil)
	_, err := r.Lookup("ghosts")
	assert.ErrorIs(t, err, armory.ErrPartyNotFound)
}

func TestRegistry_Player(t *testing.T) {
	r := armory.NewRegistry(nil)
	assert.Equal(t, armory.PlayerPartyID, r.Player().Owner())
}

func TestRegistry_SnapshotRestore(t *testing.T) {
	r := armory.NewRegistry(nil)
	r.Get("a").Store(sword, 2)
	r.Get("b").Store(helmet, 1)

	snap := r.Snapshot()
	r2 := armory.NewRegistry(nil)
	r2.Restore(snap)

	assert.Equal(t, []string{"a", "b"}, r2.PartyIDs())
	assert.Equal(t, 2, r2.Get("a").GetAmount(sword))
	assert.Equal(t, 1, r2.Get("b").GetAmount(helmet))
}

func TestRegistry_Remove(t *testing.T) {
	r := armory.NewRegistry(nil)
	r.Get("a").Store(sword, 2)
	entries := r.Remove("a")
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Count)
	assert.Empty(t, r.PartyIDs())
	assert.Nil(t, r.Remove("a"))
}
