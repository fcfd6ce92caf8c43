package distribution

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DistributeAll builds and runs one Distributor per config concurrently and
// waits for every pipeline to finish before returning.
//
// Precondition: each config names a distinct party; each owns a distinct Armory.
// Postcondition: on nil error the result holds a completed Distributor per party.
func DistributeAll(ctx context.Context, configs []Config) (map[string]*Distributor, error) {
	seen := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		if seen[cfg.PartyID] {
			return nil, fmt.Errorf("distribution: duplicate party %q", cfg.PartyID)
		}
		seen[cfg.PartyID] = true
	}

	var mu sync.Mutex
	out := make(map[string]*Distributor, len(configs))
	g, gctx := errgroup.WithContext(ctx)
	for _, cfg := range configs {
		g.Go(func() error {
			d, err := New(cfg)
			if err != nil {
				return fmt.Errorf("party %q: %w", cfg.PartyID, err)
			}
			if err := d.Run(gctx); err != nil {
				return err
			}
			mu.Lock()
			out[cfg.PartyID] = d
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
