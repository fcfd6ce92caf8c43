package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/blacklist"
	"github.com/cory-johannsen/armory/internal/game/item"
	"github.com/cory-johannsen/armory/internal/game/troop"
)

// RosterProvider supplies the current roster of a party.
type RosterProvider interface {
	Roster(partyID string) []troop.Element
}

// Store persists a party's armory after the ledger changed it.
type Store interface {
	Save(ctx context.Context, partyID string, entries []armory.Entry) error
}

// Config holds a Ledger's collaborators.
type Config struct {
	Interval time.Duration
	Registry *armory.Registry
	Rosters  RosterProvider
	Catalog  *item.Catalog
	// Scorer ranks surplus for collection; nil uses item.CatalogScorer.
	Scorer item.Scorer
	// Filter rejects replenishment candidates; nil passes everything.
	Filter *blacklist.Filter
	Caps   Caps
	// Store is optional; when set, changed armories are saved after each tick.
	Store  Store
	Logger *zap.Logger
}

// Report describes what one tick did to one party's armory.
type Report struct {
	PartyID string
	Added   []armory.Entry
	Removed []armory.Entry
}

// Changed reports whether the tick modified the armory.
func (r Report) Changed() bool { return len(r.Added) > 0 || len(r.Removed) > 0 }

// Ledger periodically replenishes and collects every party armory.
type Ledger struct {
	cfg    Config
	logger *zap.Logger
}

// New returns a Ledger for cfg.
//
// Precondition: cfg.Interval must be > 0; Registry, Rosters and Catalog must be non-nil.
func New(cfg Config) *Ledger {
	if cfg.Interval <= 0 {
		panic("ledger.New: interval must be > 0")
	}
	if cfg.Scorer == nil {
		cfg.Scorer = item.NewMemoScorer(item.CatalogScorer{Catalog: cfg.Catalog})
	}
	if cfg.Filter == nil {
		cfg.Filter = blacklist.Empty()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{cfg: cfg, logger: logger}
}

// Tick runs Replenish then Collect on every registered party that has a
// roster, compacts the armory, and saves it when it changed.
//
// Postcondition: returns one Report per party visited, in party ID order.
func (l *Ledger) Tick(ctx context.Context) []Report {
	var reports []Report
	for _, partyID := range l.cfg.Registry.PartyIDs() {
		roster := l.cfg.Rosters.Roster(partyID)
		if len(roster) == 0 {
			continue
		}
		a := l.cfg.Registry.Get(partyID)
		r := Report{PartyID: partyID}
		r.Added = Replenish(a, roster, l.cfg.Catalog, l.cfg.Filter, l.cfg.Caps)
		r.Removed = Collect(a, l.cfg.Catalog, l.cfg.Scorer, l.cfg.Caps)
		a.Rebuild()
		reports = append(reports, r)
		if !r.Changed() {
			continue
		}
		l.logger.Info("ledger adjusted armory",
			zap.String("party", partyID),
			zap.Int("added", sumCounts(r.Added)),
			zap.Int("removed", sumCounts(r.Removed)),
			zap.Int("total", a.Total()),
		)
		if l.cfg.Store != nil {
			if err := l.cfg.Store.Save(ctx, partyID, a.ToEntries()); err != nil {
				l.logger.Error("ledger: saving armory failed",
					zap.String("party", partyID),
					zap.Error(err),
				)
			}
		}
	}
	return reports
}

// Start begins the tick loop on a new goroutine. Runs until ctx is cancelled.
//
// Postcondition: Tick is invoked once per interval.
func (l *Ledger) Start(ctx context.Context) {
	go func() { _ = l.Run(ctx) }()
}

// Run ticks once per interval on the calling goroutine until ctx is cancelled,
// then returns ctx.Err().
func (l *Ledger) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick(ctx)
		}
	}
}

func sumCounts(entries []armory.Entry) int {
	n := 0
	for _, e := range entries {
		n += e.Count
	}
	return n
}
