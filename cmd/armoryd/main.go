// Package main provides the armory daemon: it restores every party armory
// from storage, runs the campaign-time ledger loop, and persists the armories
// on shutdown.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/app"
	"github.com/cory-johannsen/armory/internal/config"
	"github.com/cory-johannsen/armory/internal/game/ledger"
	"github.com/cory-johannsen/armory/internal/observability"
	"github.com/cory-johannsen/armory/internal/server"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, "armoryd")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	content, err := app.LoadContent(cfg.Content, observability.Component(logger, "content"))
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}

	scorer, closeScorer, err := app.NewScorer(cfg.Scripting, content.Catalog, observability.Component(logger, "scripting"))
	if err != nil {
		logger.Fatal("loading scorer", zap.Error(err))
	}
	defer closeScorer()

	filter := app.LoadBlacklist(cfg.Blacklist, observability.Component(logger, "blacklist"))
	logger.Info("blacklist loaded", zap.Int("entries", filter.Size()))

	caps, err := app.Caps(cfg.Ledger)
	if err != nil {
		logger.Fatal("parsing ledger caps", zap.Error(err))
	}

	backend, err := app.OpenStore(ctx, cfg, observability.Component(logger, "storage"))
	if err != nil {
		logger.Fatal("opening armory store", zap.Error(err))
	}

	registry, err := app.RestoreRegistry(ctx, backend.Store, content.Parties, observability.Component(logger, "armory"))
	if err != nil {
		logger.Fatal("restoring armories", zap.Error(err))
	}

	led := ledger.New(ledger.Config{
		Interval: cfg.Ledger.Interval,
		Registry: registry,
		Rosters:  content.Rosters,
		Catalog:  content.Catalog,
		Scorer:   scorer,
		Filter:   filter,
		Caps:     caps,
		Store:    backend.Store,
		Logger:   observability.Component(logger, "ledger"),
	})

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	stopped := make(chan struct{})
	lifecycle.Add("armory-store", &server.FuncService{
		StartFn: func() error {
			<-stopped
			return nil
		},
		StopFn: func() {
			saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := app.PersistAll(saveCtx, backend.Store, registry); err != nil {
				logger.Error("persisting armories on shutdown", zap.Error(err))
			} else {
				logger.Info("armories persisted", zap.Int("parties", len(registry.PartyIDs())))
			}
			backend.Close()
			close(stopped)
		},
	})

	if backend.Watch != nil {
		lifecycle.Add("storage-health", &server.LoopService{Run: backend.Watch})
	}

	lifecycle.Add("ledger", &server.LoopService{Run: led.Run})

	logger.Info("armory daemon initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("storage", cfg.Storage.Backend),
		zap.Duration("ledger_interval", cfg.Ledger.Interval),
		zap.Int("parties", len(registry.PartyIDs())),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
