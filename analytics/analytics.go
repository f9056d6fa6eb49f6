package analytics

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/kbukum/analyticskit/errors"
	"github.com/kbukum/analyticskit/logger"
	"github.com/kbukum/analyticskit/observability"
	"github.com/kbukum/analyticskit/page"
	"github.com/kbukum/analyticskit/provider"
	"github.com/kbukum/analyticskit/providers"
	"github.com/kbukum/analyticskit/util"
)

// Option configures an Analytics dispatcher.
type Option func(*Analytics)

// WithLogger overrides the dispatcher logger.
func WithLogger(log *logger.Logger) Option {
	return func(a *Analytics) { a.log = log }
}

// WithMetrics records dispatcher operations, queue depth and replays.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(a *Analytics) { a.metrics = metrics }
}

// WithMiddleware wraps every call delivered to a provider.
func WithMiddleware(mw ...provider.Middleware) Option {
	return func(a *Analytics) { a.middleware = append(a.middleware, mw...) }
}

// WithServiceName sets the service name used on spans, metrics and health.
func WithServiceName(name string) Option {
	return func(a *Analytics) { a.serviceName = name }
}

// User is the visitor the dispatcher remembers across Identify calls.
type User struct {
	ID     string
	Traits provider.Traits
}

// Analytics fans generic calls out to every configured provider. Each
// provider buffers calls until its vendor is ready, so callers never wait.
type Analytics struct {
	registry    *provider.Registry
	window      page.Window
	loader      page.Loader
	log         *logger.Logger
	metrics     *observability.Metrics
	middleware  []provider.Middleware
	serviceName string
	closers     []func(context.Context) error

	mu sync.Mutex
	// initialized is set while an Initialize is running or once it succeeded.
	initialized bool
	committed   bool
	// gen identifies the current Initialize attempt; ready signals from a
	// failed attempt are ignored.
	gen        int
	instances  []*provider.Instance
	readyCount int
	allReady   bool
	readyFns   []func()
	user       User
}

// New creates a dispatcher. A nil registry defaults to the bundled
// adapters, a nil window to an in-memory window and a nil loader to one
// that loads nothing.
func New(reg *provider.Registry, window page.Window, loader page.Loader, opts ...Option) *Analytics {
	a := &Analytics{
		registry:    reg,
		window:      window,
		loader:      loader,
		log:         logger.Get("analytics"),
		serviceName: "analytics",
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.registry == nil {
		a.registry = providers.NewRegistry()
	}
	if a.window == nil {
		a.window = page.NewMemoryWindow()
	}
	if a.loader == nil {
		a.loader = page.NopLoader{}
	}
	return a
}

// Window returns the global namespace shared with vendor scripts.
func (a *Analytics) Window() page.Window { return a.window }

// Loader returns the script loader.
func (a *Analytics) Loader() page.Loader { return a.loader }

// Instances returns the configured providers in initialization order.
func (a *Analytics) Instances() []*provider.Instance {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*provider.Instance(nil), a.instances...)
}

// Initialize constructs one provider per settings entry, in name order.
// Values are the providers' raw options: a map, or a bare string for
// providers with an options key.
//
// It can succeed only once. Any failure (an unknown name, a name configured
// twice, invalid options, a failing vendor setup) fails the whole call and
// no provider is kept.
func (a *Analytics) Initialize(ctx context.Context, settings map[string]any) error {
	oc := observability.NewOperationContext(a.serviceName, "initialize", "", a.metrics)
	ctx, span := oc.StartSpanForOperation(ctx, observability.SpanDispatch)

	a.mu.Lock()
	if a.initialized {
		a.mu.Unlock()
		err := errors.AlreadyInitialized("analytics")
		oc.EndOperation(ctx, span, "error", err)
		return err
	}
	a.initialized = true
	a.gen++
	gen := a.gen
	a.mu.Unlock()

	host := &batchHost{analytics: a}
	instances, err := a.build(ctx, gen, host, settings)
	if err != nil {
		a.mu.Lock()
		a.initialized = false
		a.gen++
		a.readyCount = 0
		a.mu.Unlock()

		a.metrics.RecordError(ctx, "initialize", "analytics")
		a.log.WithContext(ctx).Error("analytics initialize failed", logger.Fields(logger.FieldError, err.Error()))
		oc.EndOperation(ctx, span, "error", err)
		return err
	}

	a.mu.Lock()
	a.instances = instances
	a.committed = true
	a.readyFns = append(a.readyFns, host.commit()...)
	fns := a.takeReadyLocked()
	a.mu.Unlock()

	a.log.Info("analytics initialized", logger.Fields("providers", len(instances)))
	oc.EndOperation(ctx, span, "ok", nil)
	runAll(fns)
	return nil
}

func (a *Analytics) build(ctx context.Context, gen int, host provider.Host, settings map[string]any) ([]*provider.Instance, error) {
	names := util.SortedKeys(settings)

	factories := make([]provider.Factory, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		display, factory, ok := a.registry.Lookup(name)
		if !ok {
			return nil, errors.NotRegistered(name)
		}
		if prev, dup := seen[display]; dup {
			return nil, errors.InvalidConfig(fmt.Sprintf("provider %s configured twice (%q and %q)", display, prev, name))
		}
		seen[display] = name
		factories = append(factories, factory)
	}

	env := provider.Env{Window: a.window, Loader: a.loader, Host: host}
	opts := []provider.Option{
		provider.WithMiddleware(a.middleware...),
		provider.WithQueueMetrics(a.metrics),
	}
	onReady := func() { a.instanceReady(gen) }

	// Options are checked for every entry before any vendor setup runs.
	adapters := make([]provider.Provider, 0, len(names))
	for n, factory := range factories {
		p := factory(env)
		if _, err := provider.CheckOptions(p, settings[names[n]]); err != nil {
			a.log.Warn("invalid provider options", logger.Fields(logger.FieldProvider, p.Name(), logger.FieldError, err.Error()))
			return nil, err
		}
		adapters = append(adapters, p)
	}

	instances := make([]*provider.Instance, 0, len(names))
	for n, p := range adapters {
		inst, err := provider.New(ctx, p, settings[names[n]], onReady, opts...)
		if err != nil {
			return nil, err
		}
		fields := logger.Fields(logger.FieldProvider, inst.Name(), logger.FieldState, inst.State().String())
		if key := p.Key(); key != "" {
			fields[key] = util.MaskSecret(inst.Options().String(key), 4)
		}
		a.log.Debug("provider configured", fields)
		instances = append(instances, inst)
	}
	return instances, nil
}

// instanceReady counts one provider of attempt gen as ready.
func (a *Analytics) instanceReady(gen int) {
	a.mu.Lock()
	if gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.readyCount++
	fns := a.takeReadyLocked()
	a.mu.Unlock()
	runAll(fns)
}

// takeReadyLocked returns the pending ready callbacks once every provider
// is ready. Must be called with mu held.
func (a *Analytics) takeReadyLocked() []func() {
	if !a.committed || a.allReady || a.readyCount < len(a.instances) {
		return nil
	}
	a.allReady = true
	a.log.Debug("all providers ready", logger.Fields("providers", len(a.instances)))
	fns := a.readyFns
	a.readyFns = nil
	return fns
}

// Ready runs fn once every configured provider is ready: immediately if
// they already are, otherwise when the last one signals. Callbacks
// registered before Initialize wait for it.
func (a *Analytics) Ready(fn func()) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	if a.allReady {
		a.mu.Unlock()
		fn()
		return
	}
	a.readyFns = append(a.readyFns, fn)
	a.mu.Unlock()
}

// IsReady reports whether every configured provider is ready.
func (a *Analytics) IsReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allReady
}

// Close waits for in-flight script loads and flushes telemetry.
func (a *Analytics) Close(ctx context.Context) error {
	var errs []error
	if c, ok := a.loader.(provider.Closeable); ok {
		if err := c.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close loader: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}

func runAll(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

// batchHost is the Host handed to adapters during one Initialize. Ready
// callbacks registered before the attempt commits are held back so a
// failed attempt leaves nothing behind.
type batchHost struct {
	analytics *Analytics

	mu        sync.Mutex
	committed bool
	readyFns  []func()
}

func (h *batchHost) Identify(ctx context.Context, userID string, traits provider.Traits) {
	h.analytics.Identify(ctx, userID, traits)
}

func (h *batchHost) Ready(fn func()) {
	h.mu.Lock()
	if h.committed {
		h.mu.Unlock()
		h.analytics.Ready(fn)
		return
	}
	h.readyFns = append(h.readyFns, fn)
	h.mu.Unlock()
}

func (h *batchHost) commit() []func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.committed = true
	fns := h.readyFns
	h.readyFns = nil
	return fns
}
