package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/armory/internal/game/armory"
	"github.com/cory-johannsen/armory/internal/game/item"
)

// ArmoryRepository persists party armories as ordered (identity, count) rows.
type ArmoryRepository struct {
	db *pgxpool.Pool
}

// NewArmoryRepository creates an ArmoryRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewArmoryRepository(db *pgxpool.Pool) *ArmoryRepository {
	return &ArmoryRepository{db: db}
}

// Save replaces partyID's stored armory with entries. Non-positive entries
// are skipped; entry order is preserved.
//
// Precondition: partyID must be non-empty.
// Postcondition: Load(partyID) returns the positive entries in order, or an error
// leaves the previous contents in place.
func (r *ArmoryRepository) Save(ctx context.Context, partyID string, entries []armory.Entry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning armory save: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM armory_entries WHERE party_id = $1`, partyID); err != nil {
		return fmt.Errorf("clearing armory %q: %w", partyID, err)
	}

	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		if e.Count <= 0 || e.IsEmpty() {
			continue
		}
		rows = append(rows, []any{partyID, e.ItemID, e.ModifierID, int32(e.Count), int32(len(rows))})
	}
	if len(rows) > 0 {
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"armory_entries"},
			[]string{"party_id", "item_id", "modifier_id", "count", "position"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("writing armory %q: %w", partyID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing armory %q: %w", partyID, err)
	}
	return nil
}

// Load returns partyID's stored entries in saved order. An unknown party
// yields an empty slice.
func (r *ArmoryRepository) Load(ctx context.Context, partyID string) ([]armory.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT item_id, modifier_id, count
		FROM armory_entries WHERE party_id = $1 ORDER BY position ASC`,
		partyID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading armory %q: %w", partyID, err)
	}
	defer rows.Close()

	entries := make([]armory.Entry, 0)
	for rows.Next() {
		var e armory.Entry
		if err := rows.Scan(&e.ItemID, &e.ModifierID, &e.Count); err != nil {
			return nil, fmt.Errorf("scanning armory row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LoadAll returns every stored armory keyed by party ID.
func (r *ArmoryRepository) LoadAll(ctx context.Context) (map[string][]armory.Entry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT party_id, item_id, modifier_id, count
		FROM armory_entries ORDER BY party_id ASC, position ASC`)
	if err != nil {
		return nil, fmt.Errorf("loading armories: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]armory.Entry)
	for rows.Next() {
		var (
			partyID string
			id      item.Identity
			count   int
		)
		if err := rows.Scan(&partyID, &id.ItemID, &id.ModifierID, &count); err != nil {
			return nil, fmt.Errorf("scanning armory row: %w", err)
		}
		out[partyID] = append(out[partyID], armory.Entry{Identity: id, Count: count})
	}
	return out, rows.Err()
}

// Delete removes partyID's stored armory.
func (r *ArmoryRepository) Delete(ctx context.Context, partyID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM armory_entries WHERE party_id = $1`, partyID); err != nil {
		return fmt.Errorf("deleting armory %q: %w", partyID, err)
	}
	return nil
}
