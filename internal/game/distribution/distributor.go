// Package distribution assigns armory stock to the soldiers of a party at
// battle start. A Distributor runs a fixed, sequential pipeline of allocation
// passes over a private working copy of the party's armory; every assignment
// decrements that copy immediately, so later passes and later soldiers always
// see the true remaining stock.
package distribution

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/dice"
	"github.com/cory-johannsen/armory/internal/game/item"
	"github.com/cory-johannsen/armory/internal/game/troop"
)

// ErrAlreadyRun is returned when Run is called a second time.
var ErrAlreadyRun = errors.New("distribution: pipeline already run")

// Config holds the inputs of one party's distribution run.
type Config struct {
	// PartyID identifies the party; it must be non-empty.
	PartyID string
	// Roster lists the party's troops; heroes and wounded are skipped.
	Roster []troop.Element
	// Armory is the party's persistent armory. It is snapshotted at New and
	// only modified afterwards through Spawn and ReturnItem.
	Armory *armory.Armory
	// Catalog resolves item definitions.
	Catalog *item.Catalog
	// Scorer ranks identities; nil uses a memoized CatalogScorer.
	Scorer item.Scorer
	// Source breaks random choices; nil uses crypto/rand.
	Source dice.Source
	// Siege disables the horse and harness assignment.
	Siege bool
	// Logger receives run diagnostics; nil disables logging.
	Logger *zap.Logger
}

// Validate reports missing required inputs.
func (c *Config) Validate() error {
	var errs []error
	if c.PartyID == "" {
		errs = append(errs, errors.New("party id must not be empty"))
	}
	if c.Armory == nil {
		errs = append(errs, errors.New("armory must not be nil"))
	}
	if c.Catalog == nil {
		errs = append(errs, errors.New("catalog must not be nil"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("distribution: invalid config: %v", errors.Join(errs...))
	}
	return nil
}

// Summary describes the outcome of a run.
type Summary struct {
	RunID    string
	PartyID  string
	Soldiers int
	// Units is the total number of items assigned.
	Units int
	// ByPass counts items assigned per pass name, in pipeline order.
	ByPass  []PassCount
	Elapsed time.Duration
}

// PassCount is the number of items one pass assigned.
type PassCount struct {
	Pass  string
	Units int
}

// Distributor owns one party's allocation pipeline.
type Distributor struct {
	runID      string
	partyID    string
	persistent *armory.Armory
	stock      *armory.Armory
	catalog    *item.Catalog
	scorer     item.Scorer
	src        dice.Source
	siege      bool
	logger     *zap.Logger

	soldiers []*Assignment
	byIndex  map[int]*Assignment
	pairs    []HorseAndHarness

	ran      bool
	finished bool
	summary  Summary

	mu      sync.Mutex
	spawned map[int]*spawnRecord
}

type spawnRecord struct {
	equipment item.Equipment
	returned  [item.NumSlots]bool
}

// New builds the soldier list and the horse pairing for cfg.
//
// Soldiers are ordered by (tier, level) descending, ties broken by roster order.
//
// Precondition: cfg passes Validate.
// Postcondition: Assignments() holds one empty Assignment per soldier needing equipment.
func New(cfg Config) (*Distributor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	scorer := cfg.Scorer
	if scorer == nil {
		scorer = item.NewMemoScorer(item.CatalogScorer{Catalog: cfg.Catalog})
	}
	src := cfg.Source
	if src == nil {
		src = dice.NewCryptoSource()
	}
	runID := uuid.New().String()

	d := &Distributor{
		runID:      runID,
		partyID:    cfg.PartyID,
		persistent: cfg.Armory,
		stock:      cfg.Armory.Clone(),
		catalog:    cfg.Catalog,
		scorer:     scorer,
		src:        src,
		siege:      cfg.Siege,
		logger:     logger.With(zap.String("party", cfg.PartyID), zap.String("run_id", runID)),
		byIndex:    make(map[int]*Assignment),
		spawned:    make(map[int]*spawnRecord),
	}

	index := 0
	for _, el := range cfg.Roster {
		for i := 0; i < el.Needing(); i++ {
			a := newAssignment(index, el.Troop, cfg.Catalog)
			d.soldiers = append(d.soldiers, a)
			d.byIndex[index] = a
			index++
		}
	}
	sort.SliceStable(d.soldiers, func(i, j int) bool {
		ti, tj := d.soldiers[i].Troop, d.soldiers[j].Troop
		if ti.Tier != tj.Tier {
			return ti.Tier > tj.Tier
		}
		return ti.Level > tj.Level
	})

	if !cfg.Siege {
		d.pairs = PairHorses(d.stock, cfg.Catalog, scorer)
	}
	return d, nil
}

// RunID returns the unique ID of this distribution run.
func (d *Distributor) RunID() string { return d.runID }

// PartyID returns the party the distributor serves.
func (d *Distributor) PartyID() string { return d.partyID }

// Assignments returns the soldiers in priority order.
func (d *Distributor) Assignments() []*Assignment { return d.soldiers }

// Assignment returns the soldier with the given ordinal index.
func (d *Distributor) Assignment(index int) (*Assignment, bool) {
	a, ok := d.byIndex[index]
	return a, ok
}

// HorsePairs returns the mount pairing computed at construction.
func (d *Distributor) HorsePairs() []HorseAndHarness { return d.pairs }

// Remaining returns the amount of id left in the working stock.
func (d *Distributor) Remaining(id item.Identity) int { return d.stock.GetAmount(id) }

// Summary returns the outcome of the last Run.
func (d *Distributor) Summary() Summary { return d.summary }

// Run executes the allocation pipeline. Passes run strictly in order; a
// cancelled ctx stops the pipeline between passes and leaves the assignments
// made so far in place.
//
// Postcondition: on nil error every pass has run exactly once.
func (d *Distributor) Run(ctx context.Context) error {
	if d.ran {
		return ErrAlreadyRun
	}
	d.ran = true
	defer func() {
		d.mu.Lock()
		d.finished = true
		d.mu.Unlock()
	}()
	start := time.Now()
	d.summary = Summary{RunID: d.runID, PartyID: d.partyID, Soldiers: len(d.soldiers)}

	for _, p := range d.pipeline() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("distribution: party %q stopped before %s: %w", d.partyID, p.name, err)
		}
		n := p.run()
		d.summary.ByPass = append(d.summary.ByPass, PassCount{Pass: p.name, Units: n})
		d.summary.Units += n
		d.logger.Debug("distribution pass complete",
			zap.String("pass", p.name),
			zap.Int("units", n),
		)
	}
	d.summary.Elapsed = time.Since(start)

	d.logger.Info("distribution complete",
		zap.Int("soldiers", d.summary.Soldiers),
		zap.Int("units", d.summary.Units),
		zap.Bool("siege", d.siege),
		zap.Duration("elapsed", d.summary.Elapsed),
	)
	return nil
}

// Spawn debits the persistent armory for the soldier's final equipment and
// returns it for the spawn sink. Calling Spawn again for the same soldier
// returns the same equipment without debiting again. Items that can no longer
// be debited are dropped from the returned equipment.
//
// Postcondition: returns false iff index names no soldier or Run has not
// returned yet; in that case nothing is debited or recorded.
func (d *Distributor) Spawn(index int) (item.Equipment, bool) {
	a, ok := d.byIndex[index]
	if !ok {
		return item.Equipment{}, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.finished {
		return item.Equipment{}, false
	}
	if rec, ok := d.spawned[index]; ok {
		return rec.equipment, true
	}
	rec := &spawnRecord{equipment: a.Equipment}
	for s := item.Slot(0); s < item.NumSlots; s++ {
		id := rec.equipment.Get(s)
		if id.IsEmpty() {
			continue
		}
		if !d.persistent.Store(id, -1) {
			d.logger.Warn("distribution: spawn could not debit item, dropping it",
				zap.Int("soldier", index),
				zap.String("slot", s.String()),
				zap.String("item", id.String()),
			)
			rec.equipment.Set(s, item.Identity{})
		}
	}
	d.spawned[index] = rec
	return rec.equipment, true
}

// ReturnItem credits the persistent armory with the item a spawned soldier
// held in slot, e.g. when it is recovered after the soldier falls. Each
// (soldier, slot) is credited at most once.
//
// Postcondition: returns true iff a unit was credited by this call.
func (d *Distributor) ReturnItem(index int, slot item.Slot) bool {
	if slot < 0 || slot >= item.NumSlots {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	rec, ok := d.spawned[index]
	if !ok || rec.returned[slot] {
		return false
	}
	id := rec.equipment.Get(slot)
	if id.IsEmpty() {
		return false
	}
	rec.returned[slot] = true
	return d.persistent.Store(id, 1)
}

// Stats summarises the current assignments per equipment slot.
type Stats struct {
	Soldiers int
	// BySlot counts soldiers holding an item in each slot.
	BySlot  map[string]int
	Unarmed int
	Mounted int
}

// Stats returns per-slot assignment counts for logging and inspection.
func (d *Distributor) Stats() Stats {
	st := Stats{Soldiers: len(d.soldiers), BySlot: make(map[string]int, item.NumSlots)}
	for _, a := range d.soldiers {
		for s := item.Slot(0); s < item.NumSlots; s++ {
			if !a.Equipment.IsEmpty(s) {
				st.BySlot[s.String()]++
			}
		}
		if a.IsUnarmed() {
			st.Unarmed++
		}
		if a.IsMounted() {
			st.Mounted++
		}
	}
	return st
}
