package armory_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/item"
)

var (
	sword     = item.Of("sword")
	fineSword = item.Identity{ItemID: "sword", ModifierID: "fine"}
	helmet    = item.Of("helmet")
)

func TestArmory_StoreAndQuery(t *testing.T) {
	a := armory.New("p1", nil)
	require.True(t, a.Store(sword, 3))
	require.True(t, a.Store(fineSword, 2))
	require.True(t, a.Store(sword, -1))

	assert.Equal(t, 2, a.GetAmount(sword))
	assert.Equal(t, 2, a.GetAmount(fineSword))
	assert.Equal(t, 4, a.GetAmountForItem("sword"))
	assert.Equal(t, 0, a.GetAmount(helmet))
	assert.Equal(t, 4, a.Total())
}

func TestArmory_Underflow_NoOpAndLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	a := armory.New("p1", zap.New(core))
	a.Store(sword, 1)

	assert.False(t, a.Store(sword, -2))
	assert.Equal(t, 1, a.GetAmount(sword))
	assert.False(t, a.Store(helmet, -1))
	assert.Equal(t, 0, a.GetAmount(helmet))

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "p1", entry.ContextMap()["party"])
	assert.Equal(t, int64(1), entry.ContextMap()["have"])
}

func TestArmory_Store_EmptyIdentityRejected(t *testing.T) {
	a := armory.New("p1", nil)
	assert.False(t, a.Store(item.Identity{}, 5))
	assert.Equal(t, 0, a.Total())
}

func TestArmory_TryTake(t *testing.T) {
	a := armory.New("p1", nil)
	a.Store(sword, 2)
	assert.True(t, a.TryTake(sword, 2))
	assert.False(t, a.TryTake(sword, 1))
	assert.False(t, a.TryTake(helmet, 1))
	assert.False(t, a.TryTake(sword, 0))
	assert.Equal(t, 0, a.GetAmount(sword))
}

func TestArmory_TryTake_ConcurrentNeverOversells(t *testing.T) {
	a := armory.New("p1", nil)
	a.Store(sword, 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	taken := 0
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if a.TryTake(sword, 1) {
					mu.Lock()
					taken++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, taken)
	assert.Equal(t, 0, a.GetAmount(sword))
}

func TestArmory_Rebuild_DropsZeroEntriesKeepsOrder(t *testing.T) {
	a := armory.New("p1", nil)
	a.Store(sword, 1)
	a.Store(helmet, 1)
	a.Store(fineSword, 1)
	a.Store(helmet, -1)
	a.Rebuild()

	entries := a.ToEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, sword, entries[0].Identity)
	assert.Equal(t, fineSword, entries[1].Identity)

	a.Store(helmet, 4)
	assert.Equal(t, 4, a.GetAmount(helmet))
	assert.Equal(t, helmet, a.ToEntries()[2].Identity)
}

func TestArmory_FromEntries_SumsDuplicatesSkipsInvalid(t *testing.T) {
	a := armory.FromEntries("p1", []armory.Entry{
		{Identity: sword, Count: 2},
		{Identity: sword, Count: 3},
		{Identity: helmet, Count: -1},
		{Identity: item.Identity{}, Count: 9},
	}, nil)
	assert.Equal(t, 5, a.GetAmount(sword))
	assert.Equal(t, 0, a.GetAmount(helmet))
	assert.Equal(t, 1, a.Len())
}

func TestArmory_CloneIsIndependent(t *testing.T) {
	a := armory.New("p1", nil)
	a.Store(sword, 2)
	c := a.Clone()
	c.Store(sword, -2)
	assert.Equal(t, 2, a.GetAmount(sword))
	assert.Equal(t, 0, c.GetAmount(sword))
	assert.Equal(t, "p1", c.Owner())
}

func TestArmory_Each_StopsEarly(t *testing.T) {
	a := armory.New("p1", nil)
	a.Store(sword, 1)
	a.Store(helmet, 1)
	seen := 0
	a.Each(func(armory.Entry) bool {
		seen++
		return false
	})
	assert.Equal(t, 1, seen)
}

func drawIdentity(t *rapid.T, label string) item.Identity {
	return item.Identity{
		ItemID:     rapid.SampledFrom([]string{"sword", "helmet", "horse", "bow"}).Draw(t, label+"_item"),
		ModifierID: rapid.SampledFrom([]string{"", "fine", "rusty"}).Draw(t, label+"_mod"),
	}
}

func TestProperty_Armory_NeverNegativeAndConserves(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := armory.New("p", nil)
		model := make(map[item.Identity]int)
		ops := rapid.IntRange(1, 60).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			id := drawIdentity(t, "id")
			delta := rapid.IntRange(-5, 5).Draw(t, "delta")
			if a.Store(id, delta) {
				model[id] += delta
			}
			if rapid.Bool().Draw(t, "rebuild") {
				a.Rebuild()
			}
		}
		for _, e := range a.ToEntries() {
			if e.Count < 0 {
				t.Fatalf("negative count %d for %v", e.Count, e.Identity)
			}
		}
		for id, want := range model {
			if want < 0 {
				t.Fatalf("model went negative for %v", id)
			}
			if got := a.GetAmount(id); got != want {
				t.Fatalf("GetAmount(%v) = %d, want %d", id, got, want)
			}
		}
	})
}

func TestProperty_Armory_EntriesRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := armory.New("p", nil)
		n := rapid.IntRange(0, 30).Draw(t, "n")
		for i := 0; i < n; i++ {
			a.Store(drawIdentity(t, "id"), rapid.IntRange(-3, 6).Draw(t, "delta"))
		}
		b := armory.FromEntries("p", a.ToEntries(), nil)
		if a.Total() != b.Total() {
			t.Fatalf("total %d != %d", a.Total(), b.Total())
		}
		for _, e := range a.ToEntries() {
			if got := b.GetAmount(e.Identity); got != e.Count {
				t.Fatalf("round trip %v: got %d want %d", e.Identity, got, e.Count)
			}
		}
	})
}
