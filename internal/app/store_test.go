package app_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/armory/internal/app"
	"github.com/cory-johannsen/armory/internal/config"
	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/item"
	"github.com/cory-johannsen/armory/internal/game/troop"
	"github.com/cory-johannsen/armory/internal/storage/memory"
)

func TestOpenStore_Memory(t *testing.T) {
	b, err := app.OpenStore(context.Background(), config.Config{Storage: config.StorageConfig{Backend: config.BackendMemory}}, nil)
	require.NoError(t, err)
	defer b.Close()
	assert.IsType(t, &memory.ArmoryStore{}, b.Store)
	assert.Nil(t, b.Settlements)
	assert.Nil(t, b.Watch)
}

func TestOpenStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	b, err := app.OpenStore(ctx, config.Config{
		Storage: config.StorageConfig{Backend: config.BackendRedis},
		Redis:   config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "t"},
	}, nil)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Store.Save(ctx, "north", []armory.Entry{{Identity: item.Of("lance"), Count: 2}}))
	assert.True(t, mr.Exists("t:armory:north"))
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, err := app.OpenStore(context.Background(), config.Config{Storage: config.StorageConfig{Backend: "tape"}}, nil)
	require.Error(t, err)
}

func TestRestoreRegistry_StoredWinsOverPartyFile(t *testing.T) {
	ctx := context.Background()
	store := memory.NewArmoryStore()
	require.NoError(t, store.Save(ctx, "north", []armory.Entry{{Identity: item.Of("spear"), Count: 1}}))
	parties := []*troop.Party{
		{ID: "north", Armory: []armory.Entry{{Identity: item.Of("lance"), Count: 5}}},
		{ID: "steppe", Armory: []armory.Entry{{Identity: item.Of("horn_bow"), Count: 3}}},
	}

	reg, err := app.RestoreRegistry(ctx, store, parties, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"north", "steppe"}, reg.PartyIDs())
	assert.Equal(t, 1, reg.Get("north").GetAmount(item.Of("spear")))
	assert.Equal(t, 0, reg.Get("north").GetAmount(item.Of("lance")))
	assert.Equal(t, 3, reg.Get("steppe").GetAmount(item.Of("horn_bow")))
}

func TestPersistAll(t *testing.T) {
	ctx := context.Background()
	store := memory.NewArmoryStore()
	reg := armory.NewRegistry(nil)
	reg.Get("north").Store(item.Of("lance"), 2)
	reg.Get("steppe").Store(item.Of("arrows"), 9)

	require.NoError(t, app.PersistAll(ctx, store, reg))
	all, err := store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]armory.Entry{
		"north":  {{Identity: item.Of("lance"), Count: 2}},
		"steppe": {{Identity: item.Of("arrows"), Count: 9}},
	}, all)
}
