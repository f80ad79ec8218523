package database

import (
	"database/sql"
	"fmt"
	"log"
	"sort"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered schema history. Timestamps are stored as
// Unix seconds; exit_at is NULL while an interval is open. The partial
// unique index on stay_intervals backs the single-open-interval
// invariant at the storage level.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_stay_intervals",
		SQL: `
			CREATE TABLE IF NOT EXISTS stay_intervals (
				id TEXT PRIMARY KEY,
				country_code TEXT NOT NULL,
				entry_at INTEGER NOT NULL,
				exit_at INTEGER,
				source TEXT NOT NULL DEFAULT '',
				confidence REAL NOT NULL DEFAULT 0,
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL,
				CHECK (exit_at IS NULL OR exit_at >= entry_at)
			);
			CREATE INDEX IF NOT EXISTS idx_stay_intervals_entry_at ON stay_intervals(entry_at);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_stay_intervals_single_open
				ON stay_intervals((1)) WHERE exit_at IS NULL;
		`,
	},
	{
		Version: 2,
		Name:    "create_location_event_logs",
		SQL: `
			CREATE TABLE IF NOT EXISTS location_event_logs (
				id TEXT PRIMARY KEY,
				timestamp INTEGER NOT NULL,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				source TEXT NOT NULL DEFAULT '',
				country_code_candidate TEXT,
				accepted INTEGER NOT NULL DEFAULT 0,
				note TEXT
			);
			CREATE INDEX IF NOT EXISTS idx_location_event_logs_timestamp
				ON location_event_logs(timestamp DESC);
		`,
	},
	{
		Version: 3,
		Name:    "create_summary_snapshots",
		SQL: `
			CREATE TABLE IF NOT EXISTS summary_snapshots (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				payload TEXT NOT NULL,
				updated_at INTEGER NOT NULL
			);
		`,
	},
}

// InitMigrationsTable creates the migrations tracking table
func InitMigrationsTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns the set of applied migration versions
func GetAppliedMigrations(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

func applyMigration(db *sql.DB, migration Migration) error {
	return Transaction(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(migration.SQL); err != nil {
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}
		if _, err := tx.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)",
			migration.Version, migration.Name); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}
		return nil
	})
}

// RunMigrations applies all pending migrations in version order.
func RunMigrations(db *sql.DB) error {
	if err := InitMigrationsTable(db); err != nil {
		return err
	}

	applied, err := GetAppliedMigrations(db)
	if err != nil {
		return err
	}

	pending := make([]Migration, 0, len(migrations))
	for _, m := range migrations {
		if !applied[m.Version] {
			pending = append(pending, m)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for _, m := range pending {
		if err := applyMigration(db, m); err != nil {
			return err
		}
		log.Printf("Applied migration %d: %s", m.Version, m.Name)
	}

	return nil
}
