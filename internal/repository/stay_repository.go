package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mark1ns0n/country-days-backend/internal/dateutil"
	"github.com/mark1ns0n/country-days-backend/internal/models"
)

// StayRepository handles database operations for stay intervals
type StayRepository struct {
	db *sql.DB
}

// NewStayRepository creates a new stay repository
func NewStayRepository(db *sql.DB) *StayRepository {
	return &StayRepository{db: db}
}

const intervalColumns = `id, country_code, entry_at, exit_at, source, confidence, created_at, updated_at`

func scanInterval(scanner interface{ Scan(...interface{}) error }) (*models.StayInterval, error) {
	var (
		iv        models.StayInterval
		entryAt   int64
		exitAt    sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	err := scanner.Scan(&iv.ID, &iv.CountryCode, &entryAt, &exitAt, &iv.Source, &iv.Confidence, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	iv.EntryAt = time.Unix(entryAt, 0).UTC()
	if exitAt.Valid {
		t := time.Unix(exitAt.Int64, 0).UTC()
		iv.ExitAt = &t
	}
	iv.CreatedAt = time.Unix(createdAt, 0).UTC()
	iv.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &iv, nil
}

// FetchOpenInterval returns the interval with no exit time, or nil.
func (r *StayRepository) FetchOpenInterval(ctx context.Context) (*models.StayInterval, error) {
	query := `SELECT ` + intervalColumns + ` FROM stay_intervals
		WHERE exit_at IS NULL ORDER BY entry_at DESC LIMIT 1`

	iv, err := scanInterval(r.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch open interval: %w", err)
	}
	return iv, nil
}

// FetchIntervals returns all intervals overlapping the range, entry
// time ascending. Open intervals overlap any range that is not
// entirely before their entry.
func (r *StayRepository) FetchIntervals(ctx context.Context, rng dateutil.Range) ([]models.StayInterval, error) {
	query := `SELECT ` + intervalColumns + ` FROM stay_intervals
		WHERE entry_at <= ? AND (exit_at IS NULL OR exit_at >= ?)
		ORDER BY entry_at ASC`

	rows, err := r.db.QueryContext(ctx, query, rng.Upper.Unix(), rng.Lower.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query intervals: %w", err)
	}
	defer rows.Close()

	var intervals []models.StayInterval
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		intervals = append(intervals, *iv)
	}
	return intervals, rows.Err()
}

// GetIntervals retrieves intervals with filtering and pagination
func (r *StayRepository) GetIntervals(ctx context.Context, filter models.IntervalFilter) ([]models.StayInterval, int64, error) {
	var conditions []string
	var args []interface{}

	if filter.From > 0 {
		conditions = append(conditions, "(exit_at IS NULL OR exit_at >= ?)")
		args = append(args, filter.From)
	}
	if filter.To > 0 {
		conditions = append(conditions, "entry_at <= ?")
		args = append(args, filter.To)
	}
	if filter.CountryCode != "" {
		conditions = append(conditions, "country_code = ?")
		args = append(args, strings.ToUpper(filter.CountryCode))
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.MinConfidence > 0 {
		conditions = append(conditions, "confidence >= ?")
		args = append(args, filter.MinConfidence)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stay_intervals"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count intervals: %w", err)
	}

	filter.NormalizePagination()
	offset := (filter.Page - 1) * filter.PageSize

	query := `SELECT ` + intervalColumns + ` FROM stay_intervals` + where +
		` ORDER BY entry_at ASC LIMIT ? OFFSET ?`
	args = append(args, filter.PageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query intervals: %w", err)
	}
	defer rows.Close()

	var intervals []models.StayInterval
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan interval: %w", err)
		}
		intervals = append(intervals, *iv)
	}
	return intervals, total, rows.Err()
}

// InsertInterval creates a new interval. A nil exitAt opens it; the
// partial unique index rejects a second open interval.
func (r *StayRepository) InsertInterval(ctx context.Context, countryCode string, entryAt time.Time, exitAt *time.Time, source string, confidence float64) (*models.StayInterval, error) {
	now := time.Now().UTC()
	iv := &models.StayInterval{
		ID:          uuid.NewString(),
		CountryCode: strings.ToUpper(countryCode),
		EntryAt:     entryAt.UTC(),
		Source:      source,
		Confidence:  confidence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var exitUnix interface{}
	if exitAt != nil {
		t := exitAt.UTC()
		iv.ExitAt = &t
		exitUnix = t.Unix()
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO stay_intervals
		(id, country_code, entry_at, exit_at, source, confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		iv.ID, iv.CountryCode, iv.EntryAt.Unix(), exitUnix, iv.Source, iv.Confidence,
		iv.CreatedAt.Unix(), iv.UpdatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert interval: %w", err)
	}
	return iv, nil
}

// CloseInterval sets an interval's exit time and bumps updated_at.
// Entry time and country are never rewritten.
func (r *StayRepository) CloseInterval(ctx context.Context, id string, exitAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE stay_intervals SET exit_at = ?, updated_at = ? WHERE id = ? AND exit_at IS NULL`,
		exitAt.UTC().Unix(), time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to close interval: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check close result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to close interval %s: not found or already closed", id)
	}
	return nil
}

// TouchInterval bumps an interval's updated_at bookkeeping timestamp.
func (r *StayRepository) TouchInterval(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE stay_intervals SET updated_at = ? WHERE id = ?`, at.UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to touch interval: %w", err)
	}
	return nil
}

// LatestClosedInterval returns the most recently closed interval, or
// nil if none exists. Used by the reconciliation pass.
func (r *StayRepository) LatestClosedInterval(ctx context.Context) (*models.StayInterval, error) {
	query := `SELECT ` + intervalColumns + ` FROM stay_intervals
		WHERE exit_at IS NOT NULL ORDER BY exit_at DESC LIMIT 1`

	iv, err := scanInterval(r.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest closed interval: %w", err)
	}
	return iv, nil
}
