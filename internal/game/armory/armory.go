// Package armory provides the per-party equipment stockpile: a concurrent,
// insertion-ordered multiset of item identities, and the Registry that owns
// one stockpile per party.
package armory

import (
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/armory/internal/game/item"
)

// Entry is one (identity, count) pair of the flat persistence form.
type Entry struct {
	item.Identity `yaml:",inline"`
	Count         int `yaml:"count" json:"count"`
}

// Armory maps equipment identities to non-negative counts.
//
// Invariant: no count is ever negative. Entries whose count reaches zero stay
// in place until Rebuild; iteration order is insertion order.
//
// Armory is safe for concurrent use. A distributor run owns its working copy
// exclusively; concurrent readers (inspection, UI) take the read lock.
type Armory struct {
	mu      sync.RWMutex
	owner   string
	logger  *zap.Logger
	index   map[item.Identity]int
	entries []Entry
}

// New returns an empty Armory owned by owner. A nil logger disables logging.
//
// Postcondition: Total() == 0.
func New(owner string, logger *zap.Logger) *Armory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Armory{
		owner:  owner,
		logger: logger,
		index:  make(map[item.Identity]int),
	}
}

// FromEntries builds an Armory from a flat entry list. Duplicate identities
// are summed; empty identities and non-positive counts are skipped.
//
// Postcondition: GetAmount(id) equals the sum of positive counts for id in entries.
func FromEntries(owner string, entries []Entry, logger *zap.Logger) *Armory {
	a := New(owner, logger)
	for _, e := range entries {
		if e.IsEmpty() || e.Count <= 0 {
			continue
		}
		a.storeLocked(e.Identity, e.Count)
	}
	return a
}

// Owner returns the party ID the armory belongs to.
func (a *Armory) Owner() string { return a.owner }

// Store adds count units of id; a negative count withdraws. A withdrawal that
// would leave a negative count is ignored and logged.
//
// Postcondition: returns true iff the count of id changed by exactly count.
func (a *Armory) Store(id item.Identity, count int) bool {
	if id.IsEmpty() {
		a.logger.Warn("armory: store with empty identity ignored",
			zap.String("party", a.owner),
			zap.Int("delta", count),
		)
		return false
	}
	if count == 0 {
		return true
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	have := a.amountLocked(id)
	if have+count < 0 {
		a.logger.Warn("armory: withdrawal exceeds stock, ignored",
			zap.String("party", a.owner),
			zap.String("item", id.ItemID),
			zap.String("modifier", id.ModifierID),
			zap.Int("have", have),
			zap.Int("delta", count),
		)
		return false
	}
	a.storeLocked(id, count)
	return true
}

// TryTake atomically withdraws n units of id if at least n are present.
//
// Precondition: n > 0.
// Postcondition: returns true iff n units were withdrawn; on false the armory is unchanged.
func (a *Armory) TryTake(id item.Identity, n int) bool {
	if n <= 0 || id.IsEmpty() {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	i, ok := a.index[id]
	if !ok || a.entries[i].Count < n {
		return false
	}
	a.entries[i].Count -= n
	return true
}

func (a *Armory) storeLocked(id item.Identity, count int) {
	if i, ok := a.index[id]; ok {
		a.entries[i].Count += count
		return
	}
	if count <= 0 {
		return
	}
	a.index[id] = len(a.entries)
	a.entries = append(a.entries, Entry{Identity: id, Count: count})
}

func (a *Armory) amountLocked(id item.Identity) int {
	if i, ok := a.index[id]; ok {
		return a.entries[i].Count
	}
	return 0
}

// GetAmount returns the count of id.
func (a *Armory) GetAmount(id item.Identity) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.amountLocked(id)
}

// GetAmountForItem returns the count of itemID summed across all modifiers.
func (a *Armory) GetAmountForItem(itemID string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	total := 0
	for _, e := range a.entries {
		if e.ItemID == itemID {
			total += e.Count
		}
	}
	return total
}

// Total returns the number of units held across all identities.
func (a *Armory) Total() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	total := 0
	for _, e := range a.entries {
		total += e.Count
	}
	return total
}

// Len returns the number of identities with a positive count.
func (a *Armory) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := 0
	for _, e := range a.entries {
		if e.Count > 0 {
			n++
		}
	}
	return n
}

// Rebuild drops zero-count entries, preserving the order of the survivors.
//
// Postcondition: every retained entry has Count > 0; all counts are unchanged.
func (a *Armory) Rebuild() {
	a.mu.Lock()
	defer a.mu.Unlock()
	kept := a.entries[:0]
	for _, e := range a.entries {
		if e.Count > 0 {
			kept = append(kept, e)
		}
	}
	// Clear the tail so dropped identities are not retained by the backing array.
	for i := len(kept); i < len(a.entries); i++ {
		a.entries[i] = Entry{}
	}
	a.entries = kept
	a.index = make(map[item.Identity]int, len(kept))
	for i, e := range kept {
		a.index[e.Identity] = i
	}
}

// ToEntries returns the positive entries in iteration order.
//
// Postcondition: FromEntries(owner, a.ToEntries(), nil) has identical counts to a.
func (a *Armory) ToEntries() []Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Entry, 0, len(a.entries))
	for _, e := range a.entries {
		if e.Count > 0 {
			out = append(out, e)
		}
	}
	return out
}

// Each calls fn for every positive entry in iteration order until fn returns
// false. fn runs on a snapshot and may mutate the armory.
func (a *Armory) Each(fn func(Entry) bool) {
	for _, e := range a.ToEntries() {
		if !fn(e) {
			return
		}
	}
}

// Clone returns an independent copy with the same owner, logger and order.
func (a *Armory) Clone() *Armory {
	return FromEntries(a.owner, a.ToEntries(), a.logger)
}

// Reset replaces the contents of the armory with entries.
func (a *Armory) Reset(entries []Entry) {
	fresh := FromEntries(a.owner, entries, nil)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.index = fresh.index
	a.entries = fresh.entries
}
