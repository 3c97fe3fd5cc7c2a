// Package kit holds the transport-neutral plumbing shared by the shell's
// command surfaces. Commands are written once as Endpoints; the HTTP and
// MCP layers decode their own wire formats and call the same Endpoint.
package kit

import "context"

// Endpoint is a transport-neutral command handler.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour.
type Middleware func(Endpoint) Endpoint

// Chain composes middleware left-to-right: the first middleware is the
// outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
