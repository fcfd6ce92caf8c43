package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/app"
	"github.com/cory-johannsen/armory/internal/config"
	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/blacklist"
	"github.com/cory-johannsen/armory/internal/game/item"
	"github.com/cory-johannsen/armory/internal/observability"
)

// env is the assembled state every subcommand works against.
type env struct {
	cfg      config.Config
	logger   *zap.Logger
	content  *app.Content
	scorer   item.Scorer
	filter   *blacklist.Filter
	backend  *app.Backend
	registry *armory.Registry
	closers  []func()
}

func loadEnv(ctx context.Context, opts *rootOptions) (*env, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, "armoryctl")
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	e := &env{cfg: cfg, logger: logger}

	if e.content, err = app.LoadContent(cfg.Content, observability.Component(logger, "content")); err != nil {
		return nil, err
	}
	scorer, closeScorer, err := app.NewScorer(cfg.Scripting, e.content.Catalog, observability.Component(logger, "scripting"))
	if err != nil {
		return nil, err
	}
	e.scorer = scorer
	e.closers = append(e.closers, closeScorer)
	e.filter = app.LoadBlacklist(cfg.Blacklist, observability.Component(logger, "blacklist"))

	backend, err := app.OpenStore(ctx, cfg, observability.Component(logger, "storage"))
	if err != nil {
		e.close()
		return nil, err
	}
	e.backend = backend
	e.closers = append(e.closers, backend.Close)

	if e.registry, err = app.RestoreRegistry(ctx, backend.Store, e.content.Parties, observability.Component(logger, "armory")); err != nil {
		e.close()
		return nil, err
	}
	return e, nil
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	_ = e.logger.Sync()
}
