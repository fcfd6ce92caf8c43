// Package testutil starts throwaway PostgreSQL instances for storage tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/armory/internal/config"
	"github.com/cory-johannsen/armory/internal/storage/postgres"
)

// DefaultImage is the PostgreSQL image used unless ARMORY_TEST_POSTGRES_IMAGE
// names another.
const DefaultImage = "postgres:16-alpine"

// PostgresContainer is a running PostgreSQL container with a connected pool.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

type options struct {
	image   string
	migrate bool
}

// Option customises NewPostgresContainer.
type Option func(*options)

// WithImage overrides the container image.
func WithImage(image string) Option {
	return func(o *options) { o.image = image }
}

// Migrated applies the embedded armory schema through golang-migrate once the
// database accepts connections.
func Migrated() Option {
	return func(o *options) { o.migrate = true }
}

// NewPostgresContainer starts PostgreSQL and connects a Pool to it. The
// container is terminated when the test ends.
//
// Postcondition: returns a connected container, or skips the test under
// -short or when no container runtime is reachable.
func NewPostgresContainer(t *testing.T, opts ...Option) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	o := options{image: DefaultImage}
	if img := os.Getenv("ARMORY_TEST_POSTGRES_IMAGE"); img != "" {
		o.image = img
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx := context.Background()
	start := time.Now()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        o.image,
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "armory",
				"POSTGRES_PASSWORD": "armory",
				"POSTGRES_DB":       "armory_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("postgres container unavailable: %v [%s]", err, time.Since(start))
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dbCfg := containerConfig(ctx, t, container)
	if o.migrate {
		if err := postgres.MigrateUp(dbCfg.DSN()); err != nil {
			t.Fatalf("migrating test database: %v", err)
		}
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}
	t.Cleanup(pool.Close)
	t.Logf("postgres %s ready (migrated=%v) [%s]", o.image, o.migrate, time.Since(start))

	return &PostgresContainer{
		container: container,
		Pool:      pool,
		RawPool:   pool.DB(),
		Config:    dbCfg,
	}
}

func containerConfig(ctx context.Context, t *testing.T, c testcontainers.Container) config.DatabaseConfig {
	t.Helper()
	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}
	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}
	return config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "armory",
		Password:        "armory",
		Name:            "armory_test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}
}

// NewPool starts a migrated PostgreSQL container and returns its raw pool.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	return NewPostgresContainer(t, Migrated()).RawPool
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return pc.Config.DSN()
}
