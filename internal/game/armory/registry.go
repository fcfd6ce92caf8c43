package armory

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// PlayerPartyID is the distinguished party ID of the player's army armory.
const PlayerPartyID = "player"

// ErrPartyNotFound is returned when a lookup names a party with no armory.
var ErrPartyNotFound = errors.New("armory: party not found")

// Registry owns one Armory per party for the lifetime of a campaign session.
// It is safe for concurrent use; different parties' armories are independent.
type Registry struct {
	mu      sync.RWMutex
	parties map[string]*Armory
	logger  *zap.Logger
}

// NewRegistry returns an empty Registry. A nil logger disables logging.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		parties: make(map[string]*Armory),
		logger:  logger,
	}
}

// Get returns partyID's armory, creating an empty one on first use.
//
// Precondition: partyID must be non-empty.
// Postcondition: subsequent Lookup(partyID) returns the same Armory.
func (r *Registry) Get(partyID string) *Armory {
	r.mu.RLock()
	a, ok := r.parties[partyID]
	r.mu.RUnlock()
	if ok {
		return a
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.parties[partyID]; ok {
		return a
	}
	a = New(partyID, r.logger)
	r.parties[partyID] = a
	return a
}

// Player returns the player's army armory.
func (r *Registry) Player() *Armory { return r.Get(PlayerPartyID) }

// Lookup returns partyID's armory or ErrPartyNotFound.
func (r *Registry) Lookup(partyID string) (*Armory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.parties[partyID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPartyNotFound, partyID)
	}
	return a, nil
}

// Remove discards partyID's armory, e.g. when the party is destroyed.
//
// Postcondition: returns the removed armory's final entries (nil if absent).
func (r *Registry) Remove(partyID string) []Entry {
	r.mu.Lock()
	a, ok := r.parties[partyID]
	delete(r.parties, partyID)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return a.ToEntries()
}

// PartyIDs returns the registered party IDs in sorted order.
func (r *Registry) PartyIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.parties))
	for id := range r.parties {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns the flat entries of every party's armory.
func (r *Registry) Snapshot() map[string][]Entry {
	out := make(map[string][]Entry)
	for _, id := range r.PartyIDs() {
		a, err := r.Lookup(id)
		if err != nil {
			continue
		}
		out[id] = a.ToEntries()
	}
	return out
}

// Restore loads every party in snap, replacing existing contents.
func (r *Registry) Restore(snap map[string][]Entry) {
	for partyID, entries := range snap {
		r.Get(partyID).Reset(entries)
	}
}

// RebuildAll compacts every party's armory.
func (r *Registry) RebuildAll() {
	for _, id := range r.PartyIDs() {
		if a, err := r.Lookup(id); err == nil {
			a.Rebuild()
		}
	}
}
