package tiles

import (
	"fmt"
	"strconv"
	"strings"

	"database/sql"
)

// BoundingBox is the geographic extent covered by a tile store.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Metadata is the store-level metadata, parsed once per open and cached for
// the lifetime of the handle.
type Metadata struct {
	Bounds  BoundingBox `json:"bounds"`
	MinZoom int         `json:"min_zoom"`
	MaxZoom int         `json:"max_zoom"`
}

// readMetadata loads the flat key-value metadata table. The query doubles as
// the open-time integrity probe: a file that cannot answer it is not a tile
// store. Keys beyond bounds/minzoom/maxzoom are ignored; a present but
// unparsable value is a construction-time error.
func readMetadata(db *sql.DB) (Metadata, error) {
	rows, err := db.Query(`SELECT name, value FROM metadata`)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrBadStore, err)
	}
	defer rows.Close()

	var meta Metadata
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, fmt.Errorf("%w: %v", ErrBadStore, err)
		}
		switch name {
		case "bounds":
			box, err := parseBounds(value)
			if err != nil {
				return Metadata{}, err
			}
			meta.Bounds = box
		case "minzoom":
			z, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return Metadata{}, fmt.Errorf("%w: minzoom %q", ErrBadMetadata, value)
			}
			meta.MinZoom = z
		case "maxzoom":
			z, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return Metadata{}, fmt.Errorf("%w: maxzoom %q", ErrBadMetadata, value)
			}
			meta.MaxZoom = z
		}
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrBadStore, err)
	}
	return meta, nil
}

// parseBounds parses the conventional "minLon,minLat,maxLon,maxLat" CSV.
func parseBounds(value string) (BoundingBox, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("%w: bounds %q", ErrBadMetadata, value)
	}
	var f [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("%w: bounds %q", ErrBadMetadata, value)
		}
		f[i] = v
	}
	return BoundingBox{MinLon: f[0], MinLat: f[1], MaxLon: f[2], MaxLat: f[3]}, nil
}
