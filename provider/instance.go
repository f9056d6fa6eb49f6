package provider

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/analyticskit/errors"
	"github.com/kbukum/analyticskit/logger"
	"github.com/kbukum/analyticskit/observability"
)

type queuedCall struct {
	id       string
	call     Call
	queuedAt time.Time
}

// Option configures an Instance.
type Option func(*instanceOptions)

type instanceOptions struct {
	middleware []Middleware
	log        *logger.Logger
	metrics    *observability.Metrics
}

// WithMiddleware wraps call delivery with mw, outermost first.
func WithMiddleware(mw ...Middleware) Option {
	return func(o *instanceOptions) { o.middleware = append(o.middleware, mw...) }
}

// WithLogger overrides the instance logger.
func WithLogger(log *logger.Logger) Option {
	return func(o *instanceOptions) { o.log = log }
}

// WithQueueMetrics records queue depth and replay counts on metrics.
func WithQueueMetrics(metrics *observability.Metrics) Option {
	return func(o *instanceOptions) { o.metrics = metrics }
}

// Instance is a configured provider. Calls made before the vendor reports
// ready are buffered and replayed in order exactly once when it does.
type Instance struct {
	provider Provider
	options  Options
	onReady  func()
	handler  Handler
	ready    *Ready
	log      *logger.Logger
	metrics  *observability.Metrics
	// replayCtx carries values (trace, logger fields) from construction
	// into the replay, which may run long after New returns.
	replayCtx context.Context

	mu      sync.Mutex
	state   State
	queue   []queuedCall
	closed  bool
	readyAt time.Time
}

// New resolves raw options for p, runs p.Initialize and returns the
// instance. onReady, if set, runs after the buffered calls are replayed.
//
// Option resolution and Initialize failures are configuration errors and no
// instance is returned.
func New(ctx context.Context, p Provider, raw any, onReady func(), opts ...Option) (*Instance, error) {
	o := instanceOptions{log: logger.Get("provider")}
	for _, opt := range opts {
		opt(&o)
	}

	inst := &Instance{
		provider:  p,
		onReady:   onReady,
		log:       o.log.WithFields(logger.Fields(logger.FieldProvider, p.Name())),
		metrics:   o.metrics,
		replayCtx: context.WithoutCancel(ctx),
		state:     StateConstructing,
	}

	options, err := ResolveOptions(p, raw)
	if err != nil {
		inst.log.Warn("invalid provider options", logger.Fields(logger.FieldError, err.Error()))
		return nil, err
	}
	inst.options = options
	inst.handler = Chain(o.middleware...)(inst.deliver)
	inst.ready = NewReady(inst.dequeue)

	inst.mu.Lock()
	inst.state = StateInitializing
	inst.mu.Unlock()

	if err := p.Initialize(ctx, options.Clone(), inst.ready); err != nil {
		inst.mu.Lock()
		inst.closed = true
		inst.mu.Unlock()
		inst.log.WithContext(ctx).Error("provider initialize failed", logger.Fields(logger.FieldError, err.Error()))

		if appErr, ok := errors.AsAppError(err); ok && appErr.Code == errors.ErrCodeInvalidOptions {
			return nil, appErr
		}
		return nil, errors.InitializeFailed(p.Name(), err)
	}

	inst.log.Debug("provider initialized", logger.Fields(logger.FieldState, inst.State().String()))
	return inst, nil
}

// Name returns the provider name.
func (i *Instance) Name() string { return i.provider.Name() }

// Provider returns the wrapped adapter.
func (i *Instance) Provider() Provider { return i.provider }

// Options returns a copy of the resolved options.
func (i *Instance) Options() Options { return i.options.Clone() }

// State returns the current lifecycle state.
func (i *Instance) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// IsReady reports whether the vendor signalled ready and the queue drained.
func (i *Instance) IsReady() bool { return i.State() == StateReady }

// ReadyAt returns when the instance became ready, or the zero time.
func (i *Instance) ReadyAt() time.Time {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.readyAt
}

// QueueDepth returns the number of buffered calls.
func (i *Instance) QueueDepth() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.queue)
}

// Pending returns the buffered calls in FIFO order.
func (i *Instance) Pending() []Call {
	i.mu.Lock()
	defer i.mu.Unlock()
	calls := make([]Call, len(i.queue))
	for n, q := range i.queue {
		calls[n] = q.call
	}
	return calls
}

// Identify forwards or buffers an identify call.
func (i *Instance) Identify(ctx context.Context, userID string, traits Traits) {
	i.Dispatch(ctx, Identify{UserID: userID, Traits: traits})
}

// Track forwards or buffers a track call.
func (i *Instance) Track(ctx context.Context, event string, props Properties) {
	i.Dispatch(ctx, Track{Event: event, Properties: props})
}

// Pageview forwards or buffers a pageview call.
func (i *Instance) Pageview(ctx context.Context, url string) {
	i.Dispatch(ctx, Pageview{URL: url})
}

// Alias forwards or buffers an alias call.
func (i *Instance) Alias(ctx context.Context, to, from string) {
	i.Dispatch(ctx, Alias{To: to, From: from})
}

// Dispatch delivers call now if the instance is ready, otherwise appends it
// to the queue. Calls issued while a replay is running are queued too and
// replayed after the ones already buffered.
func (i *Instance) Dispatch(ctx context.Context, call Call) {
	id := uuid.NewString()

	i.mu.Lock()
	if i.closed {
		i.mu.Unlock()
		return
	}
	if i.state != StateReady {
		i.queue = append(i.queue, queuedCall{id: id, call: call, queuedAt: time.Now()})
		depth := len(i.queue)
		i.mu.Unlock()

		i.metrics.RecordQueued(ctx, i.Name(), 1)
		i.log.Debug("call queued", logger.Fields(
			logger.FieldMethod, string(call.Method()),
			logger.FieldCallID, id,
			logger.FieldQueueDepth, depth,
		))
		return
	}
	i.mu.Unlock()

	i.handler(ctx, Delivery{ID: id, Provider: i.Name(), Call: call})
}

// Ready returns the instance's ready token. Firing it again is a no-op.
func (i *Instance) Ready() *Ready { return i.ready }

func (i *Instance) deliver(ctx context.Context, d Delivery) {
	Apply(ctx, i.provider, d.Call)
}

// dequeue replays buffered calls in order, flips the state to ready and runs
// onReady. The lock is released while calls run so adapters may issue new
// calls; those land in the queue and are drained by the next pass.
func (i *Instance) dequeue() {
	ctx, span := observability.StartSpan(i.replayCtx, observability.SpanProviderReplay)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrProvider, i.Name())

	replayed := 0
	var oldest time.Time
	for {
		i.mu.Lock()
		if i.closed {
			i.mu.Unlock()
			return
		}
		if len(i.queue) == 0 {
			i.state = StateReady
			i.queue = nil
			i.readyAt = time.Now()
			i.mu.Unlock()
			break
		}
		batch := i.queue
		i.queue = nil
		i.mu.Unlock()

		if oldest.IsZero() {
			oldest = batch[0].queuedAt
		}
		i.metrics.RecordQueued(ctx, i.Name(), -int64(len(batch)))
		for _, q := range batch {
			i.handler(ctx, Delivery{ID: q.id, Provider: i.Name(), Call: q.call, Replayed: true})
		}
		replayed += len(batch)
	}

	i.metrics.RecordReplay(ctx, i.Name(), replayed)
	observability.SetSpanAttribute(ctx, observability.AttrQueueDepth, replayed)
	fields := logger.Fields("replayed", replayed)
	if !oldest.IsZero() {
		fields["waited_ms"] = time.Since(oldest).Milliseconds()
	}
	i.log.Info("provider ready", fields)

	if i.onReady != nil {
		i.onReady()
	}
}
