package provider_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/analyticskit/logger"
	"github.com/kbukum/analyticskit/observability"
	"github.com/kbukum/analyticskit/provider"
)

// deferredProvider captures its ready token instead of firing it.
type deferredProvider struct {
	provider.Base
	ready  *provider.Ready
	events []string
}

func (p *deferredProvider) Name() string { return "Deferred" }

func (p *deferredProvider) Initialize(_ context.Context, _ provider.Options, ready *provider.Ready) error {
	p.ready = ready
	return nil
}

func (p *deferredProvider) Track(_ context.Context, event string, _ provider.Properties) {
	p.events = append(p.events, event)
}

func newDeferred(t *testing.T, opts ...provider.Option) (*provider.Instance, *deferredProvider) {
	t.Helper()
	p := &deferredProvider{}
	inst, err := provider.New(context.Background(), p, map[string]any{}, nil, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return inst, p
}

// --- Chain tests ---

func TestChain_Empty(t *testing.T) {
	called := false
	h := provider.Chain()(func(context.Context, provider.Delivery) { called = true })
	h(context.Background(), provider.Delivery{Call: provider.Track{Event: "e"}})
	if !called {
		t.Fatal("expected inner handler to run")
	}
}

func TestChain_Order(t *testing.T) {
	// First middleware is outermost.
	var order []string
	mw := func(tag string) provider.Middleware {
		return func(next provider.Handler) provider.Handler {
			return func(ctx context.Context, d provider.Delivery) {
				order = append(order, tag+":before")
				next(ctx, d)
				order = append(order, tag+":after")
			}
		}
	}

	h := provider.Chain(mw("A"), mw("B"), mw("C"))(func(context.Context, provider.Delivery) {
		order = append(order, "handler")
	})
	h(context.Background(), provider.Delivery{Call: provider.Track{Event: "e"}})

	expected := []string{"A:before", "B:before", "C:before", "handler", "C:after", "B:after", "A:after"}
	if len(order) != len(expected) {
		t.Fatalf("expected %d entries, got %d: %v", len(expected), len(order), order)
	}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("order[%d] = %q, want %q", i, order[i], v)
		}
	}
}

func TestMiddlewareSeesReplayedCalls(t *testing.T) {
	var deliveries []provider.Delivery
	capture := func(next provider.Handler) provider.Handler {
		return func(ctx context.Context, d provider.Delivery) {
			deliveries = append(deliveries, d)
			next(ctx, d)
		}
	}

	inst, p := newDeferred(t, provider.WithMiddleware(capture))
	ctx := context.Background()
	inst.Track(ctx, "queued", nil)
	if len(deliveries) != 0 {
		t.Fatalf("expected no delivery before ready, got %d", len(deliveries))
	}

	p.ready.Done()
	inst.Track(ctx, "live", nil)

	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
	}
	if !deliveries[0].Replayed || deliveries[1].Replayed {
		t.Errorf("expected first replayed and second live, got %+v", deliveries)
	}
	if deliveries[0].ID == "" || deliveries[0].ID == deliveries[1].ID {
		t.Errorf("expected distinct call ids, got %q and %q", deliveries[0].ID, deliveries[1].ID)
	}
	if deliveries[0].Provider != "Deferred" {
		t.Errorf("expected provider Deferred, got %q", deliveries[0].Provider)
	}
	if len(p.events) != 2 || p.events[0] != "queued" {
		t.Errorf("unexpected adapter events %v", p.events)
	}
}

// --- WithLogging ---

func TestWithLogging_WritesDelivery(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug", "test")

	inst, p := newDeferred(t, provider.WithMiddleware(provider.WithLogging(log)))
	p.ready.Done()
	inst.Track(context.Background(), "Signup", nil)

	out := buf.String()
	if !strings.Contains(out, "provider call delivered") {
		t.Errorf("expected delivery log, got %q", out)
	}
	if !strings.Contains(out, `"method":"track"`) {
		t.Errorf("expected method field, got %q", out)
	}
	if !strings.Contains(out, `"provider":"Deferred"`) {
		t.Errorf("expected provider field, got %q", out)
	}
}

func TestWithLogging_SilentAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info", "test")

	inst, p := newDeferred(t, provider.WithMiddleware(provider.WithLogging(log)))
	p.ready.Done()
	inst.Track(context.Background(), "Signup", nil)

	if strings.Contains(buf.String(), "provider call delivered") {
		t.Errorf("expected no debug output at info level, got %q", buf.String())
	}
}

// --- WithMetrics ---

func TestWithMetrics_CountsByMode(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	inst, p := newDeferred(t,
		provider.WithMiddleware(provider.WithMetrics(metrics)),
		provider.WithQueueMetrics(metrics),
	)
	ctx := context.Background()
	inst.Track(ctx, "a", nil)
	inst.Track(ctx, "b", nil)
	p.ready.Done()
	inst.Track(ctx, "c", nil)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}

	byMode := map[string]int64{}
	var queueDepth, replayed int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			data, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range data.DataPoints {
				switch m.Name {
				case observability.MetricCallTotal:
					mode, _ := dp.Attributes.Value("mode")
					byMode[mode.AsString()] += dp.Value
				case observability.MetricQueueDepth:
					queueDepth += dp.Value
				case observability.MetricReplayTotal:
					replayed += dp.Value
				}
			}
		}
	}

	if byMode[observability.ModeReplay] != 2 {
		t.Errorf("expected 2 replayed calls, got %d", byMode[observability.ModeReplay])
	}
	if byMode[observability.ModeLive] != 1 {
		t.Errorf("expected 1 live call, got %d", byMode[observability.ModeLive])
	}
	if queueDepth != 0 {
		t.Errorf("expected queue depth back to 0, got %d", queueDepth)
	}
	if replayed != 2 {
		t.Errorf("expected replay total 2, got %d", replayed)
	}
}

func TestWithMetrics_NilMetrics(t *testing.T) {
	inst, p := newDeferred(t, provider.WithMiddleware(provider.WithMetrics(nil)))
	p.ready.Done()
	inst.Track(context.Background(), "a", nil)
	if len(p.events) != 1 {
		t.Errorf("expected delivery with nil metrics, got %v", p.events)
	}
}

// --- WithTracing ---

func TestWithTracing_SpanName(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer tp.Shutdown(context.Background())
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	inst, p := newDeferred(t, provider.WithMiddleware(provider.WithTracing("analytics")))
	p.ready.Done()
	inst.Track(context.Background(), "a", nil)

	var found bool
	for _, s := range exporter.GetSpans() {
		if s.Name == "analytics.Deferred.track" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected span analytics.Deferred.track, got %v", exporter.GetSpans().Snapshots())
	}
}
