// Package provider is the base abstraction for analytics vendor adapters.
//
// An adapter implements Provider, usually by embedding Base and overriding
// the operations its vendor supports. New wraps an adapter in an Instance
// which resolves its options, runs Initialize, and buffers Identify, Track,
// Pageview and Alias calls until the adapter fires its Ready token. On ready
// the buffered calls are replayed in order exactly once, the instance flips
// to StateReady, and later calls go straight to the adapter.
//
// # Options
//
// Raw configuration may be a map or, for adapters that declare a Key, a bare
// string which is wrapped as {Key: value}. Caller values are layered over
// the adapter's Defaults. Anything else is an INVALID_OPTIONS error.
//
// # Middleware
//
// Middleware wraps call delivery for both live and replayed calls:
//
//	inst, err := provider.New(ctx, adapter, opts, nil, provider.WithMiddleware(
//	    provider.WithLogging(log),
//	    provider.WithMetrics(metrics),
//	    provider.WithTracing("analytics"),
//	))
//
// # Registry
//
//	reg := provider.NewRegistry()
//	reg.Register("Vero", vero.Factory)
//	adapter, err := reg.Create("vero", provider.Env{Window: win, Loader: loader, Host: host})
package provider
