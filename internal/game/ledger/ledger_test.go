package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/blacklist"
	"github.com/cory-johannsen/armory/internal/game/item"
	"github.com/cory-johannsen/armory/internal/game/ledger"
	"github.com/cory-johannsen/armory/internal/game/troop"
)

func testCatalog(t testing.TB) *item.Catalog {
	t.Helper()
	cat := item.NewCatalog()
	for _, d := range []*item.Def{
		{ID: "helm", Name: "Great Helm", Type: item.TypeHeadArmor, Tier: 3, Value: 300, Kind: item.Armor{Slot: item.ArmorHead, ArmorValue: 20}},
		{ID: "cap", Name: "Leather Cap", Type: item.TypeHeadArmor, Tier: 1, Value: 40, Kind: item.Armor{Slot: item.ArmorHead, ArmorValue: 4}},
		{ID: "coif", Name: "Mail Coif", Type: item.TypeHeadArmor, Tier: 1, Value: 90, Kind: item.Armor{Slot: item.ArmorHead, ArmorValue: 9}},
		{ID: "sword", Name: "Arming Sword", Type: item.TypeOneHanded, Tier: 2, Value: 200, Kind: item.Weapon{Class: item.ClassOneHandedSword}},
		{ID: "crown", Name: "Golden Crown", Type: item.TypeHeadArmor, Tier: 6, Value: 90000, Kind: item.Armor{Slot: item.ArmorHead}},
	} {
		require.NoError(t, cat.Register(d))
	}
	return cat
}

func footman(n, wounded int, slots map[item.Slot]string) troop.Element {
	tmpl := &troop.Template{ID: "footman", Name: "Footman", Tier: 2, Level: 8}
	var ref item.Equipment
	for s, id := range slots {
		ref.Set(s, item.Of(id))
	}
	tmpl.SetReference(ref)
	return troop.Element{Troop: tmpl, Count: n, Wounded: wounded}
}

func TestCaps_Cap(t *testing.T) {
	caps := ledger.Caps{Default: 10, ByType: map[item.ItemType]int{item.TypeHeadArmor: 3, item.TypeCape: 0}}
	assert.Equal(t, 3, caps.Cap(item.TypeHeadArmor))
	assert.Equal(t, 0, caps.Cap(item.TypeCape))
	assert.Equal(t, 10, caps.Cap(item.TypeBow))
}

func TestCollect_RemovesLowestFirst(t *testing.T) {
	cat := testCatalog(t)
	a := armory.New("north", nil)
	a.Store(item.Of("helm"), 2)
	a.Store(item.Of("coif"), 2)
	a.Store(item.Of("cap"), 2)
	a.Store(item.Of("sword"), 9)

	removed := ledger.Collect(a, cat, item.CatalogScorer{Catalog: cat}, ledger.Caps{ByType: map[item.ItemType]int{item.TypeHeadArmor: 3}})

	assert.Equal(t, []armory.Entry{
		{Identity: item.Of("cap"), Count: 2},
		{Identity: item.Of("coif"), Count: 1},
	}, removed)
	assert.Equal(t, 2, a.GetAmount(item.Of("helm")))
	assert.Equal(t, 1, a.GetAmount(item.Of("coif")))
	assert.Equal(t, 9, a.GetAmount(item.Of("sword")), "uncapped type untouched")
}

func TestDemand_SumsUnwoundedPerIdentity(t *testing.T) {
	roster := []troop.Element{
		footman(5, 2, map[item.Slot]string{item.SlotHead: "helm", item.SlotWeapon0: "sword"}),
		footman(4, 0, map[item.Slot]string{item.SlotWeapon0: "sword", item.SlotWeapon1: "sword"}),
	}
	assert.Equal(t, []armory.Entry{
		{Identity: item.Of("sword"), Count: 11},
		{Identity: item.Of("helm"), Count: 3},
	}, ledger.Demand(roster))
}

func TestReplenish_TopsUpWithinCapSkippingBlacklist(t *testing.T) {
	cat := testCatalog(t)
	a := armory.New("north", nil)
	a.Store(item.Of("cap"), 1)
	a.Store(item.Of("sword"), 1)
	roster := []troop.Element{
		footman(3, 0, map[item.Slot]string{item.SlotWeapon0: "sword", item.SlotHead: "crown"}),
		footman(5, 0, map[item.Slot]string{item.SlotHead: "helm"}),
	}
	filter := blacklist.New(blacklist.Document{Names: []string{"Golden Crown"}}, nil)

	added := ledger.Replenish(a, roster, cat, filter, ledger.Caps{ByType: map[item.ItemType]int{item.TypeHeadArmor: 4}})

	assert.Equal(t, []armory.Entry{
		{Identity: item.Of("sword"), Count: 2},
		{Identity: item.Of("helm"), Count: 3},
	}, added)
	assert.Equal(t, 0, a.GetAmount(item.Of("crown")))
	assert.Equal(t, 3, a.GetAmount(item.Of("helm")))
}

func TestReplenish_NoShortfallNoChange(t *testing.T) {
	cat := testCatalog(t)
	a := armory.New("north", nil)
	a.Store(item.Of("sword"), 5)
	added := ledger.Replenish(a, []troop.Element{footman(3, 1, map[item.Slot]string{item.SlotWeapon0: "sword"})}, cat, nil, ledger.Caps{})
	assert.Empty(t, added)
	assert.Equal(t, 5, a.GetAmount(item.Of("sword")))
}

func TestProperty_CollectHonoursCaps(t *testing.T) {
	cat := testCatalog(t)
	scorer := item.CatalogScorer{Catalog: cat}
	rapid.Check(t, func(t *rapid.T) {
		a := armory.New("p", nil)
		for _, id := range cat.IDs() {
			a.Store(item.Of(id), rapid.IntRange(0, 20).Draw(t, id))
		}
		before := a.Total()
		limit := rapid.IntRange(1, 30).Draw(t, "cap")
		removed := ledger.Collect(a, cat, scorer, ledger.Caps{Default: limit})

		head := 0
		for _, id := range []string{"helm", "cap", "coif", "crown"} {
			head += a.GetAmount(item.Of(id))
		}
		if head > limit {
			t.Fatalf("head armor total %d exceeds cap %d", head, limit)
		}
		if got := a.GetAmount(item.Of("sword")); got > limit {
			t.Fatalf("sword total %d exceeds cap %d", got, limit)
		}
		n := 0
		for _, e := range removed {
			n += e.Count
		}
		if a.Total()+n != before {
			t.Fatalf("collect lost units: before=%d after=%d removed=%d", before, a.Total(), n)
		}
	})
}

type memStore struct {
	mu    sync.Mutex
	saved map[string][]armory.Entry
	err   error
}

func (m *memStore) Save(_ context.Context, partyID string, entries []armory.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = make(map[string][]armory.Entry)
	}
	m.saved[partyID] = entries
	return nil
}

func (m *memStore) get(partyID string) []armory.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved[partyID]
}

func TestLedger_TickReplenishesCollectsAndSaves(t *testing.T) {
	cat := testCatalog(t)
	reg := armory.NewRegistry(nil)
	reg.Get("north").Store(item.Of("cap"), 6)
	reg.Get("idle").Store(item.Of("cap"), 6)
	store := &memStore{}

	l := ledger.New(ledger.Config{
		Interval: time.Hour,
		Registry: reg,
		Rosters:  troop.Rosters{"north": {footman(2, 0, map[item.Slot]string{item.SlotHead: "helm"})}},
		Catalog:  cat,
		Caps:     ledger.Caps{ByType: map[item.ItemType]int{item.TypeHeadArmor: 4}},
		Store:    store,
	})
	reports := l.Tick(context.Background())

	require.Len(t, reports, 1)
	assert.Equal(t, "north", reports[0].PartyID)
	assert.True(t, reports[0].Changed())
	north := reg.Get("north")
	assert.Equal(t, 0, north.GetAmount(item.Of("helm")), "head armor already over cap")
	assert.Equal(t, 4, north.GetAmount(item.Of("cap")))
	assert.Equal(t, 6, reg.Get("idle").GetAmount(item.Of("cap")), "parties without a roster are skipped")
	assert.Equal(t, []armory.Entry{{Identity: item.Of("cap"), Count: 4}}, store.get("north"))
}

func TestLedger_SaveErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	reg := armory.NewRegistry(nil)
	l := ledger.New(ledger.Config{
		Interval: time.Hour,
		Registry: reg,
		Rosters:  troop.Rosters{"north": {footman(1, 0, map[item.Slot]string{item.SlotWeapon0: "sword"})}},
		Catalog:  testCatalog(t),
		Store:    &memStore{err: errors.New("disk full")},
		Logger:   zap.New(core),
	})
	reg.Get("north")
	l.Tick(context.Background())

	assert.Equal(t, 1, reg.Get("north").GetAmount(item.Of("sword")))
	require.Equal(t, 1, logs.FilterMessage("ledger: saving armory failed").Len())
}

func TestLedger_StartTicksUntilCancelled(t *testing.T) {
	reg := armory.NewRegistry(nil)
	reg.Get("north")
	store := &memStore{}
	l := ledger.New(ledger.Config{
		Interval: 10 * time.Millisecond,
		Registry: reg,
		Rosters:  troop.Rosters{"north": {footman(1, 0, map[item.Slot]string{item.SlotWeapon0: "sword"})}},
		Catalog:  testCatalog(t),
		Store:    store,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l.Start(ctx)

	require.Eventually(t, func() bool { return store.get("north") != nil }, time.Second, 10*time.Millisecond)
	cancel()
}

func TestLedger_NewPanicsOnBadInterval(t *testing.T) {
	assert.Panics(t, func() { ledger.New(ledger.Config{}) })
}

func TestLedger_RunReturnsOnCancel(t *testing.T) {
	l := ledger.New(ledger.Config{
		Interval: time.Hour,
		Registry: armory.NewRegistry(nil),
		Rosters:  troop.Rosters{},
		Catalog:  testCatalog(t),
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, l.Run(ctx), context.Canceled)
}
