// Package app assembles the armory components from configuration. It is
// shared by the daemon and the command-line tool.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/config"
	"github.com/cory-johannsen/armory/internal/game/blacklist"
	"github.com/cory-johannsen/armory/internal/game/item"
	"github.com/cory-johannsen/armory/internal/game/ledger"
	"github.com/cory-johannsen/armory/internal/game/troop"
	"github.com/cory-johannsen/armory/internal/scripting"
)

// Content is the loaded static game data.
type Content struct {
	Catalog   *item.Catalog
	Templates map[string]*troop.Template
	Parties   []*troop.Party
	Rosters   troop.Rosters
}

// LoadContent reads the item catalog, troop templates and party files named
// by cfg.
//
// Postcondition: returns fully resolved content or the first loader error.
func LoadContent(cfg config.ContentConfig, logger *zap.Logger) (*Content, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()
	cat, err := item.LoadCatalog(cfg.ItemsDir)
	if err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	templates, err := troop.LoadTemplates(cfg.TroopsDir)
	if err != nil {
		return nil, fmt.Errorf("loading troops: %w", err)
	}
	parties, err := troop.LoadParties(cfg.PartiesDir, templates)
	if err != nil {
		return nil, fmt.Errorf("loading parties: %w", err)
	}
	logger.Info("content loaded",
		zap.Int("items", cat.Len()),
		zap.Int("troops", len(templates)),
		zap.Int("parties", len(parties)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Content{
		Catalog:   cat,
		Templates: templates,
		Parties:   parties,
		Rosters:   troop.RostersOf(parties),
	}, nil
}

// NewScorer returns the memoized scoring oracle for cat: the Lua score script
// when cfg names one, otherwise the catalog scorer. The returned func releases
// the Lua VM and is never nil.
func NewScorer(cfg config.ScriptingConfig, cat *item.Catalog, logger *zap.Logger) (item.Scorer, func(), error) {
	base := item.CatalogScorer{Catalog: cat}
	if cfg.ScoreScript == "" {
		return item.NewMemoScorer(base), func() {}, nil
	}
	s, err := scripting.NewScorer(cfg.ScoreScript, cfg.InstructionLimit, cat, base, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("loading score script: %w", err)
	}
	return item.NewMemoScorer(s), s.Close, nil
}

// LoadBlacklist loads the blacklist filter named by cfg. It never fails; see
// blacklist.Load.
func LoadBlacklist(cfg config.BlacklistConfig, logger *zap.Logger) *blacklist.Filter {
	return blacklist.Load(cfg.Path, cfg.ExamplePath, logger)
}

// Caps converts the ledger configuration into stockpile caps. Unknown item
// type names are rejected.
func Caps(cfg config.LedgerConfig) (ledger.Caps, error) {
	caps := ledger.Caps{Default: cfg.DefaultCap, ByType: make(map[item.ItemType]int, len(cfg.Caps))}
	for name, n := range cfg.Caps {
		t := item.ItemType(name)
		if !item.ValidType(t) {
			return ledger.Caps{}, fmt.Errorf("ledger.caps: unknown item type %q", name)
		}
		if n < 0 {
			return ledger.Caps{}, fmt.Errorf("ledger.caps.%s: must be >= 0", name)
		}
		caps.ByType[t] = n
	}
	return caps, nil
}
