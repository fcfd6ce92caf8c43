// Command migrate applies or rolls back the armory schema on the configured
// PostgreSQL database.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/config"
	"github.com/cory-johannsen/armory/internal/observability"
	"github.com/cory-johannsen/armory/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	direction := flag.String("direction", "up", "up, down or version")
	steps := flag.Int("steps", 0, "number of steps (0 = all)")
	flag.Parse()

	if err := run(*configPath, *direction, *steps); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(configPath, direction string, steps int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Storage.Backend != config.BackendPostgres {
		return fmt.Errorf("storage backend is %q, migrations only apply to %q", cfg.Storage.Backend, config.BackendPostgres)
	}
	logger, err := observability.NewLogger(cfg.Logging, "migrate")
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	m, err := postgres.NewMigrator(cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer m.Close()

	switch direction {
	case "up":
		err = migrateBy(m, steps, m.Up)
	case "down":
		err = migrateBy(m, -steps, m.Down)
	case "version":
	default:
		return fmt.Errorf("invalid direction %q", direction)
	}
	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		return fmt.Errorf("migrating %s: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("reading schema version: %w", verr)
	}
	logger.Info("schema migration finished",
		zap.String("direction", direction),
		zap.String("database", cfg.Database.Name),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
		zap.Bool("changed", !noChange && direction != "version"),
	)
	return nil
}

// migrateBy runs n steps when n is non-zero and all otherwise.
func migrateBy(m *migrate.Migrate, n int, all func() error) error {
	if n != 0 {
		return m.Steps(n)
	}
	return all()
}
