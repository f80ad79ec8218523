package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mark1ns0n/country-days-backend/internal/models"
)

// LogRepository handles the append-only observation audit trail
type LogRepository struct {
	db *sql.DB
}

// NewLogRepository creates a new log repository
func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// AppendLog records one observation outcome. Rows are never updated or
// deleted.
func (r *LogRepository) AppendLog(ctx context.Context, entry models.LocationEventLog) (*models.LocationEventLog, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	var candidate, note interface{}
	if entry.CountryCodeCandidate != "" {
		candidate = entry.CountryCodeCandidate
	}
	if entry.Note != "" {
		note = entry.Note
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO location_event_logs
		(id, timestamp, latitude, longitude, source, country_code_candidate, accepted, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.Unix(), entry.Latitude, entry.Longitude,
		entry.Source, candidate, entry.Accepted, note)
	if err != nil {
		return nil, fmt.Errorf("failed to append log: %w", err)
	}
	return &entry, nil
}

// FetchRecentLogs returns the newest log entries first, capped at limit.
func (r *LogRepository) FetchRecentLogs(ctx context.Context, limit int) ([]models.LocationEventLog, error) {
	if limit < 1 {
		limit = 200
	}
	if limit > 1000 {
		limit = 1000
	}

	rows, err := r.db.QueryContext(ctx, `SELECT
		id, timestamp, latitude, longitude, source, country_code_candidate, accepted, note
		FROM location_event_logs ORDER BY timestamp DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer rows.Close()

	var logs []models.LocationEventLog
	for rows.Next() {
		var (
			entry     models.LocationEventLog
			ts        int64
			candidate sql.NullString
			note      sql.NullString
		)
		err := rows.Scan(&entry.ID, &ts, &entry.Latitude, &entry.Longitude,
			&entry.Source, &candidate, &entry.Accepted, &note)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		entry.Timestamp = time.Unix(ts, 0).UTC()
		entry.CountryCodeCandidate = candidate.String
		entry.Note = note.String
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// LatestAcceptedFix returns the most recent accepted log entry, or nil.
// The distance-based switch confirmer compares new fixes against it.
func (r *LogRepository) LatestAcceptedFix(ctx context.Context) (*models.LocationEventLog, error) {
	row := r.db.QueryRowContext(ctx, `SELECT
		id, timestamp, latitude, longitude, source, country_code_candidate, accepted, note
		FROM location_event_logs WHERE accepted = 1 ORDER BY timestamp DESC LIMIT 1`)

	var (
		entry     models.LocationEventLog
		ts        int64
		candidate sql.NullString
		note      sql.NullString
	)
	err := row.Scan(&entry.ID, &ts, &entry.Latitude, &entry.Longitude,
		&entry.Source, &candidate, &entry.Accepted, &note)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest accepted fix: %w", err)
	}
	entry.Timestamp = time.Unix(ts, 0).UTC()
	entry.CountryCodeCandidate = candidate.String
	entry.Note = note.String
	return &entry, nil
}
