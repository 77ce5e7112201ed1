// Package history records one row per scan run: when it ran, what it counted
// and which modules it returned. The reference graph is never stored.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode rescans.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveScan(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(snapshot.ScanID) == "" {
		return fmt.Errorf("scan id must not be empty")
	}
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}

	return s.withRetry("save scan", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.Exec(`
INSERT INTO scans (
  scan_id, ts_utc, ts_unix_nano, driver, deep_scan, force_load, seed_count, visited_count,
  dropped_ref_count, resolve_failure_count, force_load_failure_count, result_count, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
			snapshot.ScanID,
			snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
			snapshot.Timestamp.UnixNano(),
			snapshot.Driver,
			boolInt(snapshot.DeepScan),
			boolInt(snapshot.ForceLoad),
			snapshot.Seeds,
			snapshot.Visited,
			snapshot.ReferencesDropped,
			snapshot.ResolveFailures,
			snapshot.ForceLoadFailures,
			snapshot.Results,
			snapshot.Duration.Milliseconds(),
		); err != nil {
			return err
		}
		for i, m := range snapshot.Modules {
			if _, err := tx.Exec(`INSERT INTO scan_modules (scan_id, position, module) VALUES (?, ?, ?)`, snapshot.ScanID, i, m); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// LoadScans returns the most recent scans, newest first. limit <= 0 returns
// every scan.
func (s *Store) LoadScans(limit int) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT
  scan_id, ts_unix_nano, driver, deep_scan, force_load, seed_count, visited_count,
  dropped_ref_count, resolve_failure_count, force_load_failure_count, result_count, duration_ms
FROM scans
ORDER BY ts_unix_nano DESC, scan_id DESC
`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var rows *sql.Rows
	err := s.withRetry("load scans", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			tsNano     int64
			deep       int
			force      int
			durationMS int64
			snapshot   Snapshot
		)
		if err := rows.Scan(
			&snapshot.ScanID,
			&tsNano,
			&snapshot.Driver,
			&deep,
			&force,
			&snapshot.Seeds,
			&snapshot.Visited,
			&snapshot.ReferencesDropped,
			&snapshot.ResolveFailures,
			&snapshot.ForceLoadFailures,
			&snapshot.Results,
			&durationMS,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		snapshot.Timestamp = time.Unix(0, tsNano).UTC()
		snapshot.DeepScan = deep != 0
		snapshot.ForceLoad = force != 0
		snapshot.Duration = time.Duration(durationMS) * time.Millisecond
		snapshots = append(snapshots, snapshot)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	for i := range snapshots {
		mods, err := s.loadModules(snapshots[i].ScanID)
		if err != nil {
			return nil, err
		}
		snapshots[i].Modules = mods
	}
	return snapshots, nil
}

func (s *Store) loadModules(scanID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT module FROM scan_modules WHERE scan_id = ? ORDER BY position ASC`, scanID)
	if err != nil {
		return nil, fmt.Errorf("query scan modules: %w", err)
	}
	defer rows.Close()

	var mods []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan module row: %w", err)
		}
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
