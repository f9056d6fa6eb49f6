package provider

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/kbukum/analyticskit/errors"
	"github.com/kbukum/analyticskit/page"
)

// Host is the dispatcher surface an adapter may call back into.
type Host interface {
	// Identify fans an identify call out to every provider.
	Identify(ctx context.Context, userID string, traits Traits)
	// Ready runs fn once every provider is ready.
	Ready(fn func())
}

// Env carries the collaborators a Factory wires into an adapter.
type Env struct {
	Window page.Window
	Loader page.Loader
	Host   Host
}

// Factory creates an adapter bound to env.
type Factory func(env Env) Provider

type registration struct {
	name    string
	factory Factory
}

// Registry manages named adapter factories. Names match ignoring case and
// punctuation, so "Customer.io", "customerio" and "customer_io" are one name.
// Config keys cannot carry dots, which viper reads as nesting.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]registration
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]registration),
	}
}

// Register registers a named factory, replacing any factory with the same name.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[normalizeName(name)] = registration{name: name, factory: factory}
}

// Lookup returns the registered spelling of name and its factory.
func (r *Registry) Lookup(name string) (string, Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.factories[normalizeName(name)]
	return reg.name, reg.factory, ok
}

// Create builds the named adapter with env.
func (r *Registry) Create(name string, env Env) (Provider, error) {
	_, factory, ok := r.Lookup(name)
	if !ok {
		return nil, errors.NotRegistered(name)
	}
	return factory(env), nil
}

// List returns sorted names of all registered factories.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for _, reg := range r.factories {
		names = append(names, reg.name)
	}
	sort.Strings(names)
	return names
}

func normalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '-', '_', ' ':
			return -1
		}
		return unicode.ToLower(r)
	}, name)
}

// NopHost ignores callbacks. It serves adapters used without a dispatcher.
type NopHost struct{}

func (NopHost) Identify(context.Context, string, Traits) {}

// Ready runs fn immediately.
func (NopHost) Ready(fn func()) { fn() }
