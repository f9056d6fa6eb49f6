// Package observability provides OpenTelemetry tracing, metrics and health
// reporting for analytics providers and the dispatcher.
//
// Tracing:
//
//	cfg := observability.DefaultTracerConfig("analytics")
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanProviderReplay)
//	defer span.End()
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter("analytics"))
//	metrics.RecordCall(ctx, "Vero", "track", observability.ModeReplay, duration)
//
// Health Checks:
//
//	health := observability.NewServiceHealth("analytics", "1.0.0")
//	health.AddComponent(instance.CheckHealth(ctx))
package observability
