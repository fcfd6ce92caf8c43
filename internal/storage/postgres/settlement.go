package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/armory/internal/game/settlement"
)

// SettlementEntry is one stored settlement outcome.
type SettlementEntry struct {
	RecordID  uuid.UUID
	PartyID   string
	Side      settlement.Side
	Summary   settlement.PartySummary
	SettledAt time.Time
}

// SettlementRepository records battle settlement history.
type SettlementRepository struct {
	db *pgxpool.Pool
}

// NewSettlementRepository creates a SettlementRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewSettlementRepository(db *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// Record stores the outcome of rec. Recording the same record twice is a no-op.
//
// Precondition: rec must be non-nil and sum.PartyID must equal rec.PartyID.
func (r *SettlementRepository) Record(ctx context.Context, rec *settlement.Record, sum settlement.PartySummary) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO settlements (record_id, party_id, side, outcome, credited, blacklisted, forfeited)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (record_id) DO NOTHING`,
		rec.ID, rec.PartyID, string(rec.Side), sum.Outcome.String(),
		sum.Credited, sum.Blacklisted, sum.Forfeited,
	)
	if err != nil {
		return fmt.Errorf("recording settlement %s: %w", rec.ID, err)
	}
	return nil
}

// ListByParty returns partyID's settlements, newest first, up to limit rows.
//
// Precondition: limit must be > 0.
func (r *SettlementRepository) ListByParty(ctx context.Context, partyID string, limit int) ([]SettlementEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT record_id, party_id, side, outcome, credited, blacklisted, forfeited, settled_at
		FROM settlements WHERE party_id = $1
		ORDER BY settled_at DESC LIMIT $2`,
		partyID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing settlements: %w", err)
	}
	defer rows.Close()

	out := make([]SettlementEntry, 0)
	for rows.Next() {
		var (
			e       SettlementEntry
			side    string
			outcome string
		)
		if err := rows.Scan(&e.RecordID, &e.PartyID, &side, &outcome,
			&e.Summary.Credited, &e.Summary.Blacklisted, &e.Summary.Forfeited, &e.SettledAt); err != nil {
			return nil, fmt.Errorf("scanning settlement row: %w", err)
		}
		e.Side = settlement.Side(side)
		e.Summary.PartyID = e.PartyID
		if e.Summary.Outcome, err = settlement.ParseOutcome(outcome); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
