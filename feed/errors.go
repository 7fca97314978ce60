package feed

import "errors"

// ErrInvalidURL is returned when the configured wiki base URL cannot be parsed.
var ErrInvalidURL = errors.New("feed: invalid wiki base URL")

// ErrFetch is returned when the homepage request fails or returns a non-2xx.
var ErrFetch = errors.New("feed: homepage fetch failed")

// ErrDecoding is returned when the response body is not valid UTF-8.
var ErrDecoding = errors.New("feed: homepage body is not valid UTF-8")
