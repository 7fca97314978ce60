// Package tiles implements the offline map tile store: a read-only SQLite
// tile table fronted by a bounded in-memory LRU cache, plus the coordinate
// transforms between the renderer's XYZ addressing, the store's native TMS
// rows, and the wiki's in-game planar coordinates.
//
// The backing file is a pre-built artifact; nothing in this package writes
// to it. *sql.DB serialises concurrent readers internally, so GetTile and
// Metadata are safe to call from any number of goroutines.
package tiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/wikiread/dbopen"
)

// Config configures a tile store handle.
type Config struct {
	// CacheMaxBytes bounds the total bytes held by the in-memory cache.
	// Default: 32 MiB.
	CacheMaxBytes int64
	// CacheMaxEntries bounds the number of cached tiles. Default: 512.
	CacheMaxEntries int
	// Logger receives degraded-read warnings. Default: slog.Default().
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.CacheMaxBytes <= 0 {
		c.CacheMaxBytes = 32 << 20
	}
	if c.CacheMaxEntries <= 0 {
		c.CacheMaxEntries = 512
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Store is a read-only tile store. All methods are safe for concurrent use.
type Store struct {
	db     *sql.DB
	cache  *lruCache
	meta   Metadata
	logger *slog.Logger
}

// Open opens the tile store at path. It fails if the file is missing, is not
// an SQLite database, or does not answer a trivial metadata query — an
// unopenable store means offline maps are unavailable, so the error is fatal
// for this handle rather than retried.
func Open(path string, cfg Config) (*Store, error) {
	cfg.defaults()

	db, err := dbopen.Open(path, dbopen.WithImmutable())
	if err != nil {
		return nil, fmt.Errorf("tiles: open %s: %w", path, err)
	}

	meta, err := readMetadata(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		cache:  newLRUCache(cfg.CacheMaxBytes, cfg.CacheMaxEntries),
		meta:   meta,
		logger: cfg.Logger,
	}, nil
}

// GetTile returns the tile blob at the given XYZ address, or nil if the tile
// is not present. Sparse tile sets are normal at the edges of a bounded map,
// so absence is not an error. Read errors after a successful open degrade to
// nil as well: one bad read must not crash a pan/zoom session.
func (s *Store) GetTile(ctx context.Context, zoom, column, row int) []byte {
	if zoom < 0 || row < 0 || column < 0 || row >= 1<<zoom || column >= 1<<zoom {
		return nil
	}

	addr := Address{Zoom: zoom, Column: column, Row: row}
	if data, ok := s.cache.get(addr); ok {
		return data
	}

	// The XYZ→TMS flip happens exactly once, here at the store boundary.
	// The cache key above is the pre-flip address.
	nativeRow := XYZToTMSRow(zoom, row)

	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT tile_data FROM tiles
		WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`,
		zoom, column, nativeRow).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		s.logger.Warn("tiles: degraded read",
			"zoom", zoom, "column", column, "row", row, "error", err)
		return nil
	}

	s.cache.put(addr, data)
	return data
}

// Metadata returns the store metadata parsed at open time.
func (s *Store) Metadata() Metadata {
	return s.meta
}

// Stats returns a snapshot of cache occupancy and hit/miss counters.
func (s *Store) Stats() CacheStats {
	return s.cache.stats()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
