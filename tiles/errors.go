package tiles

import "errors"

// ErrBadStore is returned by Open when the backing file exists but fails the
// integrity probe (not an SQLite file, or missing the tile/metadata tables).
var ErrBadStore = errors.New("tiles: store failed integrity check")

// ErrBadMetadata is returned by Open when the metadata table is present but
// its bounds or zoom entries cannot be parsed.
var ErrBadMetadata = errors.New("tiles: malformed store metadata")
