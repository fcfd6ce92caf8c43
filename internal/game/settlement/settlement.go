// Package settlement returns recovered and looted equipment to party armories
// when a battle ends.
package settlement

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/blacklist"
	"github.com/cory-johannsen/armory/internal/game/item"
)

// Side identifies one side of a battle ("attacker", "defender").
type Side string

// Outcome is a side's result in a battle.
type Outcome int

const (
	// Unresolved is a battle that ended without a winner (retreat, abort).
	Unresolved Outcome = iota
	// Victor won the battle.
	Victor
	// Defeated lost the battle.
	Defeated
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Victor:
		return "victor"
	case Defeated:
		return "defeated"
	default:
		return "unresolved"
	}
}

// ParseOutcome converts a name produced by String back into an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "victor":
		return Victor, nil
	case "defeated":
		return Defeated, nil
	case "unresolved", "":
		return Unresolved, nil
	}
	return Unresolved, fmt.Errorf("settlement: unknown outcome %q", s)
}

// Record is one party's scratch bookkeeping for a single battle.
//
// Invariant: Recovered and Looted never hold negative counts.
type Record struct {
	ID      uuid.UUID
	PartyID string
	Side    Side
	// Recovered holds items taken back from the party's own fallen.
	Recovered *armory.Armory
	// Looted holds items taken from enemy fallen.
	Looted *armory.Armory

	settled atomic.Bool
}

// NewRecord returns an empty record for partyID fighting on side.
func NewRecord(partyID string, side Side) *Record {
	return &Record{
		ID:        uuid.New(),
		PartyID:   partyID,
		Side:      side,
		Recovered: armory.New(partyID, nil),
		Looted:    armory.New(partyID, nil),
	}
}

// RecordRecovered adds n units of id recovered from the party's own fallen.
func (r *Record) RecordRecovered(id item.Identity, n int) {
	if n > 0 {
		r.Recovered.Store(id, n)
	}
}

// RecordLooted adds n units of id looted from the enemy.
func (r *Record) RecordLooted(id item.Identity, n int) {
	if n > 0 {
		r.Looted.Store(id, n)
	}
}

// Battle collects the records of every party in one battle.
type Battle struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewBattle returns an empty Battle.
func NewBattle() *Battle {
	return &Battle{records: make(map[string]*Record)}
}

// Party returns the record for partyID, creating it on side if absent.
func (b *Battle) Party(partyID string, side Side) *Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.records[partyID]
	if !ok {
		r = NewRecord(partyID, side)
		b.records[partyID] = r
	}
	return r
}

// Records returns all records ordered by party ID.
func (b *Battle) Records() []*Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Record, 0, len(b.records))
	for _, r := range b.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PartyID < out[j].PartyID })
	return out
}

// PartySummary is the settlement result of one party.
type PartySummary struct {
	PartyID string
	Outcome Outcome
	// Credited is the number of units added to the party's armory.
	Credited int
	// Blacklisted is the number of units refused by the blacklist.
	Blacklisted int
	// Forfeited is the number of units lost to the outcome.
	Forfeited int
}

// Summary is the settlement result of a battle.
type Summary struct {
	Parties []PartySummary
}

// Credited returns the total number of units credited across parties.
func (s Summary) Credited() int {
	n := 0
	for _, p := range s.Parties {
		n += p.Credited
	}
	return n
}

// Settle credits each record's items to its party armory in registry
// according to the outcome of the record's side: a victor keeps recovered and
// looted items, an unresolved side keeps only recovered items, and a defeated
// side keeps nothing. Sides absent from outcomes, or mapped to a value other
// than the three outcomes, are unresolved. Every credited identity must pass
// filter. Settle may be called concurrently with overlapping records.
//
// Postcondition: a record is settled at most once; later calls skip it.
func Settle(records []*Record, outcomes map[Side]Outcome, registry *armory.Registry, cat *item.Catalog, filter *blacklist.Filter, logger *zap.Logger) Summary {
	if logger == nil {
		logger = zap.NewNop()
	}
	if filter == nil {
		filter = blacklist.Empty()
	}
	var sum Summary
	for _, r := range records {
		if !r.settled.CompareAndSwap(false, true) {
			logger.Warn("settlement: record already settled, skipping",
				zap.String("party", r.PartyID),
				zap.String("record_id", r.ID.String()),
			)
			continue
		}
		outcome := outcomes[r.Side]
		switch outcome {
		case Victor, Unresolved, Defeated:
		default:
			logger.Warn("settlement: unknown outcome, treating side as unresolved",
				zap.String("party", r.PartyID),
				zap.String("side", string(r.Side)),
				zap.Int("outcome", int(outcome)),
			)
			outcome = Unresolved
		}
		ps := PartySummary{PartyID: r.PartyID, Outcome: outcome}
		var keep, lose []*armory.Armory
		switch outcome {
		case Victor:
			keep = []*armory.Armory{r.Recovered, r.Looted}
		case Unresolved:
			keep, lose = []*armory.Armory{r.Recovered}, []*armory.Armory{r.Looted}
		case Defeated:
			lose = []*armory.Armory{r.Recovered, r.Looted}
		}
		for _, ms := range lose {
			ps.Forfeited += ms.Total()
		}
		if len(keep) > 0 {
			target := registry.Get(r.PartyID)
			for _, ms := range keep {
				ms.Each(func(e armory.Entry) bool {
					if !filter.TestIdentity(cat, e.Identity) {
						ps.Blacklisted += e.Count
						return true
					}
					if target.Store(e.Identity, e.Count) {
						ps.Credited += e.Count
					}
					return true
				})
			}
		}
		logger.Info("battle settled for party",
			zap.String("party", r.PartyID),
			zap.String("record_id", r.ID.String()),
			zap.String("side", string(r.Side)),
			zap.Stringer("outcome", outcome),
			zap.Int("credited", ps.Credited),
			zap.Int("blacklisted", ps.Blacklisted),
			zap.Int("forfeited", ps.Forfeited),
		)
		sum.Parties = append(sum.Parties, ps)
	}
	return sum
}
