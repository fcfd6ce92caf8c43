// Package redis provides a Redis-backed armory store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/armory/internal/config"
	"github.com/cory-johannsen/armory/internal/game/armory"
)

const defaultKeyPrefix = "armory"

// NewClient connects to the Redis server described by cfg and verifies the
// connection with a PING.
//
// Postcondition: returns a live client or a non-nil error.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// ArmoryStore persists party armories as JSON documents, one key per party.
// A set key tracks every stored party for LoadAll.
type ArmoryStore struct {
	client goredis.UniversalClient
	prefix string
}

// NewArmoryStore creates an ArmoryStore. An empty prefix defaults to "armory".
//
// Precondition: client must be non-nil.
func NewArmoryStore(client goredis.UniversalClient, prefix string) *ArmoryStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &ArmoryStore{client: client, prefix: prefix}
}

// Key returns the Redis key holding partyID's armory.
func (s *ArmoryStore) Key(partyID string) string {
	return fmt.Sprintf("%s:armory:%s", s.prefix, partyID)
}

func (s *ArmoryStore) partiesKey() string {
	return s.prefix + ":armory_parties"
}

// Save replaces partyID's stored armory with the positive entries, in order.
//
// Precondition: partyID must be non-empty.
func (s *ArmoryStore) Save(ctx context.Context, partyID string, entries []armory.Entry) error {
	if partyID == "" {
		return errors.New("redis: party id must not be empty")
	}
	kept := make([]armory.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Count > 0 && !e.IsEmpty() {
			kept = append(kept, e)
		}
	}
	data, err := json.Marshal(kept)
	if err != nil {
		return fmt.Errorf("encoding armory %q: %w", partyID, err)
	}
	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.Key(partyID), data, 0)
		p.SAdd(ctx, s.partiesKey(), partyID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving armory %q: %w", partyID, err)
	}
	return nil
}

// Load returns partyID's stored entries. An unknown party yields an empty slice.
func (s *ArmoryStore) Load(ctx context.Context, partyID string) ([]armory.Entry, error) {
	raw, err := s.client.Get(ctx, s.Key(partyID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return []armory.Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading armory %q: %w", partyID, err)
	}
	entries := make([]armory.Entry, 0)
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding armory %q: %w", partyID, err)
	}
	return entries, nil
}

// LoadAll returns every stored armory keyed by party ID.
func (s *ArmoryStore) LoadAll(ctx context.Context) (map[string][]armory.Entry, error) {
	parties, err := s.client.SMembers(ctx, s.partiesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("listing armories: %w", err)
	}
	sort.Strings(parties)
	out := make(map[string][]armory.Entry, len(parties))
	for _, partyID := range parties {
		entries, err := s.Load(ctx, partyID)
		if err != nil {
			return nil, err
		}
		out[partyID] = entries
	}
	return out, nil
}

// Delete removes partyID's stored armory.
func (s *ArmoryStore) Delete(ctx context.Context, partyID string) error {
	_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, s.Key(partyID))
		p.SRem(ctx, s.partiesKey(), partyID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting armory %q: %w", partyID, err)
	}
	return nil
}
