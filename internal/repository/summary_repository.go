package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark1ns0n/country-days-backend/internal/models"
)

// SummaryRepository persists the single summary snapshot consumed by
// out-of-process widget surfaces.
type SummaryRepository struct {
	db *sql.DB
}

// NewSummaryRepository creates a new summary repository
func NewSummaryRepository(db *sql.DB) *SummaryRepository {
	return &SummaryRepository{db: db}
}

// SaveSummary replaces the persisted snapshot.
func (r *SummaryRepository) SaveSummary(ctx context.Context, summary models.YearSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO summary_snapshots (id, payload, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(payload), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}
	return nil
}

// FetchSummary returns the persisted snapshot, or nil if none has been
// computed yet.
func (r *SummaryRepository) FetchSummary(ctx context.Context) (*models.YearSummary, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM summary_snapshots WHERE id = 1`).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch summary: %w", err)
	}

	var summary models.YearSummary
	if err := json.Unmarshal([]byte(payload), &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	return &summary, nil
}
