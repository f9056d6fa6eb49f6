package provider

import (
	"context"
)

// Traits are user attributes passed to Identify.
type Traits map[string]any

// Properties are event attributes passed to Track.
type Properties map[string]any

// Provider is the capability set every analytics adapter implements.
// Adapters embed Base and override the operations their vendor supports.
type Provider interface {
	// Name returns the vendor name, e.g. "Optimizely".
	Name() string
	// Key names the option a bare string configuration is wrapped under.
	// An empty key means bare strings are rejected.
	Key() string
	// Defaults returns the vendor's default options.
	Defaults() Options
	// Initialize performs the vendor's synchronous setup and arranges for
	// ready.Done to be called once the vendor can accept calls.
	Initialize(ctx context.Context, opts Options, ready *Ready) error

	Identify(ctx context.Context, userID string, traits Traits)
	Track(ctx context.Context, event string, props Properties)
	Pageview(ctx context.Context, url string)
	Alias(ctx context.Context, to, from string)
}

// Base supplies the default behaviour of a Provider: no options key, no
// defaults, ready immediately, and no-op generic operations.
type Base struct{}

func (Base) Key() string { return "" }

func (Base) Defaults() Options { return Options{} }

// Initialize reports ready straight away.
func (Base) Initialize(_ context.Context, _ Options, ready *Ready) error {
	ready.Done()
	return nil
}

func (Base) Identify(context.Context, string, Traits) {}

func (Base) Track(context.Context, string, Properties) {}

func (Base) Pageview(context.Context, string) {}

func (Base) Alias(context.Context, string, string) {}
