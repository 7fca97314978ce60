package tiles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hazyhaar/wikiread/dbopen"
	_ "modernc.org/sqlite"
)

const fixtureSchema = `
CREATE TABLE metadata (name TEXT, value TEXT);
CREATE TABLE tiles (
	zoom_level INTEGER,
	tile_column INTEGER,
	tile_row INTEGER,
	tile_data BLOB
);
CREATE UNIQUE INDEX tile_index ON tiles (zoom_level, tile_column, tile_row);
`

type fixtureTile struct {
	zoom, col, tmsRow int
	data              []byte
}

// writeFixture builds a minimal tile store file. Rows are given in the
// store's native TMS convention, as a real pre-built artifact would be.
func writeFixture(t *testing.T, meta map[string]string, tiles []fixtureTile) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.mbtiles")

	db, err := dbopen.Open(path, dbopen.WithSchema(fixtureSchema))
	if err != nil {
		t.Fatalf("fixture open: %v", err)
	}
	defer db.Close()

	for k, v := range meta {
		if _, err := db.Exec(`INSERT INTO metadata (name, value) VALUES (?, ?)`, k, v); err != nil {
			t.Fatalf("fixture metadata: %v", err)
		}
	}
	for _, tile := range tiles {
		if _, err := db.Exec(`
			INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data)
			VALUES (?, ?, ?, ?)`,
			tile.zoom, tile.col, tile.tmsRow, tile.data); err != nil {
			t.Fatalf("fixture tile: %v", err)
		}
	}
	return path
}

func defaultMeta() map[string]string {
	return map[string]string{
		"bounds":  "-180.0,-85.05,180.0,85.05",
		"minzoom": "2",
		"maxzoom": "7",
		"format":  "png",
	}
}

func TestOpen_Metadata(t *testing.T) {
	path := writeFixture(t, defaultMeta(), nil)

	s, err := Open(path, Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	m := s.Metadata()
	if m.MinZoom != 2 || m.MaxZoom != 7 {
		t.Errorf("zoom range: got %d..%d, want 2..7", m.MinZoom, m.MaxZoom)
	}
	if m.Bounds.MinLon != -180 || m.Bounds.MaxLon != 180 {
		t.Errorf("lon bounds: got %v..%v", m.Bounds.MinLon, m.Bounds.MaxLon)
	}
	if m.Bounds.MinLat != -85.05 || m.Bounds.MaxLat != 85.05 {
		t.Errorf("lat bounds: got %v..%v", m.Bounds.MinLat, m.Bounds.MaxLat)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.mbtiles"), Config{})
	if err == nil {
		t.Fatal("expected error for missing store file")
	}
}

func TestOpen_NotATileStore(t *testing.T) {
	// WHAT: An SQLite file without the metadata table fails the open probe.
	// WHY: Open failures must be construction-time fatal, not per-call.
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := dbopen.Open(path)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	db.Close()

	_, err = Open(path, Config{})
	if !errors.Is(err, ErrBadStore) {
		t.Fatalf("error: got %v, want ErrBadStore", err)
	}
}

func TestOpen_MalformedBounds(t *testing.T) {
	meta := defaultMeta()
	meta["bounds"] = "not,a,bounding"
	path := writeFixture(t, meta, nil)

	_, err := Open(path, Config{})
	if !errors.Is(err, ErrBadMetadata) {
		t.Fatalf("error: got %v, want ErrBadMetadata", err)
	}
}

func TestGetTile_RowFlip(t *testing.T) {
	// WHAT: A tile stored at TMS row r is served at XYZ row (2^z-1)-r.
	// WHY: The flip must happen exactly once, at the store boundary.
	blob := []byte("tile-bytes")
	path := writeFixture(t, defaultMeta(), []fixtureTile{
		{zoom: 3, col: 2, tmsRow: 6, data: blob}, // XYZ row 1
	})

	s, err := Open(path, Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if got := s.GetTile(ctx, 3, 2, 1); !bytes.Equal(got, blob) {
		t.Fatalf("GetTile(3,2,1): got %q, want %q", got, blob)
	}
	// The native row is not addressable as an XYZ row unless it flips back.
	if got := s.GetTile(ctx, 3, 2, 6); got != nil {
		t.Fatalf("GetTile(3,2,6): got %q, want nil", got)
	}
}

func TestGetTile_SparseReturnsNil(t *testing.T) {
	path := writeFixture(t, defaultMeta(), []fixtureTile{
		{zoom: 2, col: 0, tmsRow: 0, data: []byte("x")},
	})

	s, err := Open(path, Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if got := s.GetTile(ctx, 2, 3, 0); got != nil {
		t.Fatalf("absent tile: got %v, want nil", got)
	}
	// Out-of-range addresses are also absence, never a panic.
	if got := s.GetTile(ctx, 2, 0, 4); got != nil {
		t.Fatalf("row beyond 2^z: got %v, want nil", got)
	}
	if got := s.GetTile(ctx, 2, -1, 0); got != nil {
		t.Fatalf("negative column: got %v, want nil", got)
	}
}

func TestGetTile_CacheHitSurvivesClosedDB(t *testing.T) {
	// WHAT: A cached tile is served without touching the database.
	// WHY: Cache hits must bypass the persistent lookup entirely.
	blob := []byte("cached")
	path := writeFixture(t, defaultMeta(), []fixtureTile{
		{zoom: 1, col: 0, tmsRow: 1, data: blob}, // XYZ row 0
	})

	s, err := Open(path, Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ctx := context.Background()
	if got := s.GetTile(ctx, 1, 0, 0); !bytes.Equal(got, blob) {
		t.Fatalf("first read: got %q", got)
	}

	s.db.Close()

	if got := s.GetTile(ctx, 1, 0, 0); !bytes.Equal(got, blob) {
		t.Fatalf("cache hit after close: got %q", got)
	}
	// Uncached lookups degrade to nil instead of erroring.
	if got := s.GetTile(ctx, 1, 1, 0); got != nil {
		t.Fatalf("degraded read: got %v, want nil", got)
	}

	st := s.Stats()
	if st.Hits == 0 {
		t.Errorf("stats: expected at least one hit, got %+v", st)
	}
}

func TestGetTile_Concurrent(t *testing.T) {
	var fixtures []fixtureTile
	for col := range 8 {
		for tmsRow := range 8 {
			fixtures = append(fixtures, fixtureTile{
				zoom: 3, col: col, tmsRow: tmsRow,
				data: fmt.Appendf(nil, "t-%d-%d", col, tmsRow),
			})
		}
	}
	path := writeFixture(t, defaultMeta(), fixtures)

	s, err := Open(path, Config{CacheMaxBytes: 1 << 10, CacheMaxEntries: 16})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := range 100 {
				col := (g + i) % 8
				row := i % 8
				want := fmt.Appendf(nil, "t-%d-%d", col, XYZToTMSRow(3, row))
				if got := s.GetTile(ctx, 3, col, row); !bytes.Equal(got, want) {
					t.Errorf("GetTile(3,%d,%d): got %q, want %q", col, row, got, want)
					return
				}
			}
		}(g)
	}
	wg.Wait()
}
