package db

import (
	"database/sql"
	"fmt"

	"gatenav/internal/logger"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite database at path and runs migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	// Missing table on a fresh database leaves version at 0.
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS config (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS sectors (
				id   INTEGER PRIMARY KEY,
				name TEXT NOT NULL DEFAULT '',
				q    INTEGER NOT NULL,
				r    INTEGER NOT NULL,
				x    REAL NOT NULL,
				y    REAL NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_sectors_name ON sectors(name);

			CREATE TABLE IF NOT EXISTS gates (
				id             INTEGER PRIMARY KEY,
				sector_id      INTEGER NOT NULL REFERENCES sectors(id),
				x              REAL NOT NULL,
				y              REAL NOT NULL,
				dest_sector_id INTEGER NOT NULL REFERENCES sectors(id),
				dest_gate_id   INTEGER NOT NULL,
				seq            INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_gates_sector ON gates(sector_id);

			CREATE TABLE IF NOT EXISTS asteroid_fields (
				sector_id INTEGER PRIMARY KEY REFERENCES sectors(id),
				ware      TEXT NOT NULL,
				ore       INTEGER NOT NULL,
				asteroids INTEGER NOT NULL
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	if version < 2 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS search_history (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp    TEXT NOT NULL,
				kind         TEXT NOT NULL,
				from_sector  INTEGER NOT NULL,
				to_sector    INTEGER NOT NULL DEFAULT 0,
				result_count INTEGER NOT NULL,
				cost         INTEGER NOT NULL DEFAULT 0,
				duration_ms  INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_search_history_ts ON search_history(timestamp);

			INSERT OR IGNORE INTO schema_version (version) VALUES (2);
		`)
		if err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
		logger.Info("DB", "Applied migration v2 (search history)")
	}

	return nil
}
