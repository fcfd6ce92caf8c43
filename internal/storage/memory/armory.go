// Package memory provides a process-local armory store for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/cory-johannsen/armory/internal/game/armory"
)

// ArmoryStore keeps saved armories in a map. Contents are lost on exit.
type ArmoryStore struct {
	mu      sync.RWMutex
	parties map[string][]armory.Entry
}

// NewArmoryStore returns an empty ArmoryStore.
func NewArmoryStore() *ArmoryStore {
	return &ArmoryStore{parties: make(map[string][]armory.Entry)}
}

// Save replaces partyID's stored armory with a copy of the positive entries.
func (s *ArmoryStore) Save(_ context.Context, partyID string, entries []armory.Entry) error {
	kept := make([]armory.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Count > 0 && !e.IsEmpty() {
			kept = append(kept, e)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parties[partyID] = kept
	return nil
}

// Load returns a copy of partyID's stored entries.
func (s *ArmoryStore) Load(_ context.Context, partyID string) ([]armory.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]armory.Entry{}, s.parties[partyID]...), nil
}

// LoadAll returns a copy of every stored armory keyed by party ID.
func (s *ArmoryStore) LoadAll(_ context.Context) (map[string][]armory.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]armory.Entry, len(s.parties))
	for id, entries := range s.parties {
		out[id] = append([]armory.Entry{}, entries...)
	}
	return out, nil
}

// Delete removes partyID's stored armory.
func (s *ArmoryStore) Delete(_ context.Context, partyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.parties, partyID)
	return nil
}
