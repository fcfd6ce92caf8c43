package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/config"
	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/troop"
	"github.com/cory-johannsen/armory/internal/storage/memory"
	"github.com/cory-johannsen/armory/internal/storage/postgres"
	redisstore "github.com/cory-johannsen/armory/internal/storage/redis"
)

// ArmoryStore is the persistence contract every storage backend satisfies.
type ArmoryStore interface {
	Save(ctx context.Context, partyID string, entries []armory.Entry) error
	Load(ctx context.Context, partyID string) ([]armory.Entry, error)
	LoadAll(ctx context.Context) (map[string][]armory.Entry, error)
	Delete(ctx context.Context, partyID string) error
}

var (
	_ ArmoryStore = (*memory.ArmoryStore)(nil)
	_ ArmoryStore = (*postgres.ArmoryRepository)(nil)
	_ ArmoryStore = (*redisstore.ArmoryStore)(nil)
)

// Backend is an opened storage backend.
type Backend struct {
	Name  string
	Store ArmoryStore
	// Settlements is non-nil only on postgres, the one backend that keeps
	// settlement history.
	Settlements *postgres.SettlementRepository
	// Watch, when non-nil, health-checks the connection until ctx is cancelled.
	Watch func(ctx context.Context) error
	close func()
}

// Close releases the backend's connection.
func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

const (
	healthInterval = 30 * time.Second
	healthTimeout  = 5 * time.Second
)

// OpenStore connects the storage backend selected by cfg.Storage.
//
// Postcondition: on nil error the caller must Close the returned Backend.
func OpenStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Backend{Name: cfg.Storage.Backend}
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		b.Store, b.Settlements, b.close = pool.Armories(), pool.Settlements(), pool.Close
		b.Watch = func(ctx context.Context) error {
			return pool.Watch(ctx, healthInterval, healthTimeout, logger)
		}
		logger.Info("armory store connected", zap.String("backend", b.Name), zap.String("host", cfg.Database.Host))
	case config.BackendRedis:
		client, err := redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		b.Store = redisstore.NewArmoryStore(client, cfg.Redis.KeyPrefix)
		b.close = func() { _ = client.Close() }
		logger.Info("armory store connected", zap.String("backend", b.Name), zap.String("addr", cfg.Redis.Addr))
	case config.BackendMemory:
		b.Store = memory.NewArmoryStore()
		logger.Info("armory store connected", zap.String("backend", b.Name))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return b, nil
}

// RestoreRegistry builds the armory registry from store. Parties that have no
// stored armory are seeded from their party file.
//
// Postcondition: every party in parties and every stored party has an armory.
func RestoreRegistry(ctx context.Context, store ArmoryStore, parties []*troop.Party, logger *zap.Logger) (*armory.Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	snap, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("restoring armories: %w", err)
	}
	reg := armory.NewRegistry(logger)
	reg.Restore(snap)
	seeded := 0
	for _, p := range parties {
		if _, ok := snap[p.ID]; ok {
			continue
		}
		reg.Get(p.ID).Reset(p.Armory)
		seeded++
	}
	logger.Info("armories restored",
		zap.Int("stored", len(snap)),
		zap.Int("seeded", seeded),
	)
	return reg, nil
}

// PersistAll saves every armory in reg to store and returns the first error.
func PersistAll(ctx context.Context, store ArmoryStore, reg *armory.Registry) error {
	for partyID, entries := range reg.Snapshot() {
		if err := store.Save(ctx, partyID, entries); err != nil {
			return fmt.Errorf("persisting armory %q: %w", partyID, err)
		}
	}
	return nil
}
