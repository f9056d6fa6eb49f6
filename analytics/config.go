package analytics

import (
	"context"
	"fmt"

	"github.com/kbukum/analyticskit/config"
	"github.com/kbukum/analyticskit/logger"
	"github.com/kbukum/analyticskit/observability"
	"github.com/kbukum/analyticskit/page"
	"github.com/kbukum/analyticskit/provider"
	"github.com/kbukum/analyticskit/providers"
)

// NewFromConfig builds a dispatcher from cfg and initializes the providers
// it lists. cfg should already have defaults applied and be validated, as
// config.Load does.
//
// The page section picks a JavaScript runtime or an in-memory window and
// whether vendor scripts are fetched. With telemetry enabled, traces and
// metrics are exported over OTLP; Close flushes them.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Analytics, error) {
	logger.Init(&cfg.Logging)
	log := logger.Get("analytics")

	var closers []func(context.Context) error
	if cfg.Telemetry.Enabled {
		tp, err := observability.InitTracer(ctx, &observability.TracerConfig{
			ServiceName:    cfg.Name,
			ServiceVersion: cfg.Version,
			Environment:    cfg.Environment,
			Endpoint:       cfg.Telemetry.Endpoint,
			Insecure:       cfg.Telemetry.Insecure,
			SampleRate:     cfg.Telemetry.SampleRate,
		})
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		closers = append(closers, tp.Shutdown)

		mp, err := observability.InitMeter(ctx, &observability.MeterConfig{
			ServiceName:    cfg.Name,
			ServiceVersion: cfg.Version,
			Environment:    cfg.Environment,
			Endpoint:       cfg.Telemetry.Endpoint,
			Insecure:       cfg.Telemetry.Insecure,
			Interval:       cfg.Telemetry.Interval,
		})
		if err != nil {
			_ = tp.Shutdown(ctx)
			return nil, fmt.Errorf("init meter: %w", err)
		}
		closers = append(closers, mp.Shutdown)
	}

	metrics, err := observability.NewMetrics(observability.Meter(cfg.Name))
	if err != nil {
		return nil, fmt.Errorf("create metrics: %w", err)
	}

	var (
		window page.Window
		runner page.ScriptRunner
	)
	if cfg.Page.Runtime {
		rw := page.NewRuntimeWindow(cfg.Page.Timeout)
		window, runner = rw, rw
	} else {
		window = page.NewMemoryWindow()
	}

	var loader page.Loader
	if cfg.Page.LoadScripts {
		loader = page.NewHTTPLoader(page.HTTPLoaderConfig{
			Scheme:    cfg.Page.Scheme,
			Timeout:   cfg.Page.Timeout,
			UserAgent: cfg.Page.UserAgent,
			Metrics:   metrics,
		}, runner)
	} else {
		loader = page.NewRecordingLoader(cfg.Page.Scheme)
	}

	base := []Option{
		WithServiceName(cfg.Name),
		WithLogger(log),
		WithMetrics(metrics),
		WithMiddleware(
			provider.WithTracing(cfg.Name),
			provider.WithLogging(logger.Get("provider")),
			provider.WithMetrics(metrics),
		),
	}
	a := New(providers.NewRegistry(), window, loader, append(base, opts...)...)
	a.closers = closers

	if err := a.Initialize(ctx, cfg.Providers); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	log.Info("analytics ready to dispatch", logger.Fields(
		"providers", len(cfg.Providers),
		"runtime", cfg.Page.Runtime,
		"load_scripts", cfg.Page.LoadScripts,
	))
	return a, nil
}
