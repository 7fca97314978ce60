// Package kit provides transport-agnostic plumbing for the wikiread service:
// the Endpoint abstraction, request-scoped context keys, and MCP tool
// registration. HTTP handlers and MCP tools both terminate in an Endpoint,
// so business logic never sees the transport.
package kit

import "context"

// Endpoint is a transport-agnostic request handler.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour.
type Middleware func(Endpoint) Endpoint

// Chain composes middleware left to right: the first middleware is the
// outermost wrapper.
func Chain(mw ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mw) - 1; i >= 0; i-- {
			next = mw[i](next)
		}
		return next
	}
}
