// Package catalog is a sqlite-backed module registry. The catalog records
// which modules exist, what they reference, and which ones the host has
// loaded, so several processes can share one registry file.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"modscan/internal/engine/module"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
	metaEntry   = "entry"
)

// Record is one module to import.
type Record struct {
	Module module.Module
	Loaded bool
}

type Catalog struct {
	path   string
	db     *sql.DB
	mu     sync.Mutex
	logger *slog.Logger
}

var (
	_ module.Registry      = (*Catalog)(nil)
	_ module.EntryProvider = (*Catalog)(nil)
)

func Open(path string, busyTimeout time.Duration, logger *slog.Logger) (*Catalog, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("catalog path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("catalog path %q is a directory, expected file", cleanPath)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite catalog %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite catalog %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize catalog schema %q: %w", cleanPath, err)
	}

	return &Catalog{path: cleanPath, db: db, logger: logger}, nil
}

func (c *Catalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Catalog) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Import upserts modules and replaces their reference lists. Loaded records
// are marked loaded; records imported as not loaded keep their current state.
func (c *Catalog) Import(records ...Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.withRetry("import modules", func() error {
		tx, err := c.db.Begin()
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		for _, rec := range records {
			name := strings.TrimSpace(rec.Module.Name)
			if name == "" {
				continue
			}
			key := module.Key(name)
			if _, err := tx.Exec(`
INSERT INTO modules (key, name) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET name=excluded.name, updated_at_utc=CURRENT_TIMESTAMP
`, key, name); err != nil {
				return err
			}
			if _, err := tx.Exec(`DELETE FROM module_refs WHERE module_key = ?`, key); err != nil {
				return err
			}
			for i, ref := range rec.Module.Refs {
				if _, err := tx.Exec(`INSERT INTO module_refs (module_key, position, ref) VALUES (?, ?, ?)`, key, i, ref); err != nil {
					return err
				}
			}
			if rec.Loaded {
				if err := markLoaded(tx, key); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	})
}

// SetEntry records the module that started the host.
func (c *Catalog) SetEntry(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.lookup(c.db, module.Key(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return module.NotFound(id)
		}
		return err
	}
	return c.withRetry("set entry", func() error {
		_, err := c.db.Exec(`
INSERT INTO catalog_meta (name, value) VALUES (?, ?)
ON CONFLICT(name) DO UPDATE SET value=excluded.value
`, metaEntry, module.Key(id))
		return err
	})
}

func (c *Catalog) Entry() (module.Handle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var key string
	if err := c.db.QueryRow(`SELECT value FROM catalog_meta WHERE name = ?`, metaEntry).Scan(&key); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			c.logger.Warn("read catalog entry failed", "path", c.path, "error", err)
		}
		return nil, false
	}
	m, err := c.lookup(c.db, key)
	if err != nil {
		return nil, false
	}
	return m, true
}

// Loaded lists loaded modules in load order. Read failures are logged and
// produce an empty snapshot.
func (c *Catalog) Loaded() []module.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []string
	err := c.withRetry("list loaded modules", func() error {
		keys = keys[:0]
		rows, err := c.db.Query(`SELECT key FROM modules WHERE loaded = 1 ORDER BY load_seq ASC, key ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var key string
			if err := rows.Scan(&key); err != nil {
				return err
			}
			keys = append(keys, key)
		}
		return rows.Err()
	})
	if err != nil {
		c.logger.Warn("list loaded modules failed", "path", c.path, "error", err)
		return nil
	}

	out := make([]module.Handle, 0, len(keys))
	for _, key := range keys {
		m, err := c.lookup(c.db, key)
		if err != nil {
			c.logger.Warn("read loaded module failed", "path", c.path, "key", key, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out
}

// Load resolves id and marks it loaded. Loading a loaded module changes
// nothing.
func (c *Catalog) Load(id string) (module.Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := module.Key(id)
	var m module.Module
	err := c.withRetry("load module", func() error {
		tx, err := c.db.Begin()
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		m, err = c.lookup(tx, key)
		if err != nil {
			return err
		}
		if err := markLoaded(tx, key); err != nil {
			return err
		}
		return tx.Commit()
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, module.NotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Modules lists the whole catalog ordered by name.
func (c *Catalog) Modules() ([]module.Module, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.Query(`SELECT key FROM modules ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan module row: %w", err)
		}
		keys = append(keys, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate module rows: %w", err)
	}

	out := make([]module.Module, 0, len(keys))
	for _, key := range keys {
		m, err := c.lookup(c.db, key)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Ping checks the database is reachable.
func (c *Catalog) Ping() error {
	return c.db.Ping()
}

type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

func (c *Catalog) lookup(q queryer, key string) (module.Module, error) {
	var m module.Module
	if err := q.QueryRow(`SELECT name FROM modules WHERE key = ?`, key).Scan(&m.Name); err != nil {
		return module.Module{}, err
	}

	rows, err := q.Query(`SELECT ref FROM module_refs WHERE module_key = ? ORDER BY position ASC`, key)
	if err != nil {
		return module.Module{}, fmt.Errorf("query references of %q: %w", m.Name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return module.Module{}, fmt.Errorf("scan reference row: %w", err)
		}
		m.Refs = append(m.Refs, ref)
	}
	if err := rows.Err(); err != nil {
		return module.Module{}, fmt.Errorf("iterate reference rows: %w", err)
	}
	return m, nil
}

func markLoaded(tx *sql.Tx, key string) error {
	_, err := tx.Exec(`
UPDATE modules
SET loaded = 1,
    load_seq = (SELECT COALESCE(MAX(load_seq), 0) + 1 FROM modules)
WHERE key = ? AND loaded = 0
`, key)
	return err
}

func (c *Catalog) withRetry(op string, fn func() error) error {
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
