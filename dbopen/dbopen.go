// Package dbopen provides a single function to open an SQLite database with
// sane pragmas applied via EXEC (driver-agnostic).
//
// wikiread opens two kinds of databases: writable scratch databases in tests,
// and pre-built read-only tile stores shipped as a single immutable file. The
// read-only path skips the write-oriented pragmas (WAL, foreign keys) and
// instead enforces PRAGMA query_only.
//
// Usage:
//
//	import _ "modernc.org/sqlite"
//	db, err := dbopen.Open("tiles.mbtiles", dbopen.WithReadOnly())
//
// In tests:
//
//	db := dbopen.OpenMemory(t)
package dbopen

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"testing"
)

type config struct {
	driver      string
	busyTimeout int
	cacheSize   int
	readOnly    bool
	immutable   bool
	mkdirAll    bool
	schemas     []string
	ping        bool
}

func defaults() config {
	return config{
		driver:      "sqlite",
		busyTimeout: 10_000,
		ping:        true,
	}
}

// Option customises Open behaviour.
type Option func(*config)

// WithDriver sets the database/sql driver name. Default: "sqlite".
func WithDriver(name string) Option { return func(c *config) { c.driver = name } }

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithCacheSize sets PRAGMA cache_size. 0 (default) keeps the SQLite default.
// Negative values are KiB (e.g. -64000 = 64 MB).
func WithCacheSize(pages int) Option { return func(c *config) { c.cacheSize = pages } }

// WithReadOnly opens the database in read-only mode (mode=ro) and enforces
// PRAGMA query_only. The file must exist.
func WithReadOnly() Option { return func(c *config) { c.readOnly = true } }

// WithImmutable marks the file as immutable (immutable=1), letting SQLite
// skip all locking. Only safe when nothing can modify the file while open.
// Implies WithReadOnly.
func WithImmutable() Option {
	return func(c *config) {
		c.readOnly = true
		c.immutable = true
	}
}

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// WithSchema queues inline SQL to execute after pragmas are applied.
func WithSchema(s string) Option { return func(c *config) { c.schemas = append(c.schemas, s) } }

// WithoutPing skips the db.Ping() verification after opening.
func WithoutPing() Option { return func(c *config) { c.ping = false } }

// Open opens an SQLite database at path. The caller must blank-import the
// appropriate driver before calling Open:
//
//	import _ "modernc.org/sqlite"
func Open(path string, opts ...Option) (*sql.DB, error) {
	cfg := defaults()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.readOnly && path != ":memory:" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("dbopen: stat: %w", err)
		}
	}

	if cfg.mkdirAll && path != ":memory:" && !cfg.readOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("dbopen: mkdir: %w", err)
		}
	}

	db, err := sql.Open(cfg.driver, dsn(path, &cfg))
	if err != nil {
		return nil, fmt.Errorf("dbopen: open: %w", err)
	}

	if err := applyPragmas(db, &cfg); err != nil {
		db.Close()
		return nil, err
	}

	for _, s := range cfg.schemas {
		if _, err := db.Exec(s); err != nil {
			db.Close()
			return nil, fmt.Errorf("dbopen: exec schema: %w", err)
		}
	}

	if cfg.ping {
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("dbopen: ping: %w", err)
		}
	}

	return db, nil
}

// OpenMemory opens an in-memory SQLite database for testing.
// It sets MaxOpenConns(1) to ensure all queries hit the same in-memory
// database (each connection to ":memory:" creates a separate database).
// It registers t.Cleanup to close the database automatically.
func OpenMemory(t testing.TB, opts ...Option) *sql.DB {
	t.Helper()
	db, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("dbopen.OpenMemory: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func dsn(path string, cfg *config) string {
	if path == ":memory:" {
		return path
	}
	if !cfg.readOnly {
		return path
	}
	q := url.Values{}
	q.Set("mode", "ro")
	if cfg.immutable {
		q.Set("immutable", "1")
	}
	return "file:" + path + "?" + q.Encode()
}

func applyPragmas(db *sql.DB, cfg *config) error {
	var pragmas []string
	if cfg.readOnly {
		pragmas = []string{
			"PRAGMA query_only = ON",
			fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		}
	} else {
		pragmas = []string{
			"PRAGMA foreign_keys = ON",
			"PRAGMA journal_mode = WAL",
			fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
			"PRAGMA synchronous = NORMAL",
		}
	}

	if cfg.cacheSize != 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA cache_size = %d", cfg.cacheSize))
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("dbopen: %s: %w", p, err)
		}
	}
	return nil
}
