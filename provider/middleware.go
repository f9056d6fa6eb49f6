package provider

import "context"

// Delivery is one call on its way to an adapter, either live or replayed
// from the ready queue.
type Delivery struct {
	// ID correlates the call across log lines; queued calls keep the id
	// they were given when buffered.
	ID       string
	Provider string
	Call     Call
	Replayed bool
}

// Handler delivers a call to an adapter.
type Handler func(ctx context.Context, d Delivery)

// Middleware wraps a Handler with cross-cutting behaviour (logging, metrics,
// tracing). It runs for live and replayed calls alike.
type Middleware func(next Handler) Handler

// Chain composes multiple middlewares into one. Middlewares are applied
// in order: the first middleware is outermost (executes first on the
// way in, last on the way out).
//
// Chain(a, b, c)(h) is equivalent to a(b(c(h))).
func Chain(middlewares ...Middleware) Middleware {
	return func(inner Handler) Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			inner = middlewares[i](inner)
		}
		return inner
	}
}
