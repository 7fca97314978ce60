package search

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Transient upstream failures are distinguished from contract breaks so the
// caller can choose a retry-vs-give-up policy; this package never retries.
var (
	// ErrNetwork covers connection-level failures (refused, reset, DNS).
	ErrNetwork = errors.New("search: network unavailable")
	// ErrTimeout is returned when the request exceeds its deadline.
	ErrTimeout = errors.New("search: request timed out")
	// ErrRateLimited is returned on an upstream 429.
	ErrRateLimited = errors.New("search: rate limited by upstream")
	// ErrServer is returned on an upstream 5xx.
	ErrServer = errors.New("search: upstream server error")
	// ErrMalformed is returned when the response violates the expected
	// schema — a contract break with upstream, not a transient condition.
	ErrMalformed = errors.New("search: malformed upstream response")
)

// classifyTransport maps a transport-level error from http.Client.Do onto
// the package taxonomy.
func classifyTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// classifyStatus maps a non-2xx upstream status onto the package taxonomy.
func classifyStatus(status int) error {
	switch {
	case status == 429:
		return fmt.Errorf("%w (http %d)", ErrRateLimited, status)
	case status >= 500:
		return fmt.Errorf("%w (http %d)", ErrServer, status)
	default:
		return fmt.Errorf("%w: unexpected http %d", ErrMalformed, status)
	}
}
