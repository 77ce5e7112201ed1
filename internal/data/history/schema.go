package history

import (
	"database/sql"
	"fmt"
	"time"
)

const SchemaVersion = 1

// Snapshot summarizes one scan run.
type Snapshot struct {
	ScanID            string
	Timestamp         time.Time
	Driver            string
	DeepScan          bool
	ForceLoad         bool
	Seeds             int
	Visited           int
	ReferencesDropped int
	ResolveFailures   int
	ForceLoadFailures int
	Results           int
	Duration          time.Duration
	Modules           []string
}

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS scans (
  scan_id TEXT PRIMARY KEY,
  ts_utc TEXT NOT NULL,
  ts_unix_nano INTEGER NOT NULL,
  driver TEXT NOT NULL,
  deep_scan INTEGER NOT NULL DEFAULT 0,
  force_load INTEGER NOT NULL DEFAULT 0,
  seed_count INTEGER NOT NULL,
  visited_count INTEGER NOT NULL,
  dropped_ref_count INTEGER NOT NULL DEFAULT 0,
  resolve_failure_count INTEGER NOT NULL DEFAULT 0,
  force_load_failure_count INTEGER NOT NULL DEFAULT 0,
  result_count INTEGER NOT NULL,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  created_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
CREATE TABLE IF NOT EXISTS scan_modules (
  scan_id TEXT NOT NULL REFERENCES scans(scan_id) ON DELETE CASCADE,
  position INTEGER NOT NULL,
  module TEXT NOT NULL,
  PRIMARY KEY (scan_id, position)
);
CREATE INDEX IF NOT EXISTS idx_scans_ts ON scans(ts_unix_nano);
`,
	},
}

func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at_utc TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
);
`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema_migrations version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}

	return nil
}
