package provider

import (
	"context"
	"time"

	"github.com/kbukum/analyticskit/observability"
)

// WithMetrics returns a Middleware that records each delivered call on the
// analytics.call.total and analytics.call.duration instruments.
func WithMetrics(metrics *observability.Metrics) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, d Delivery) {
			start := time.Now()
			next(ctx, d)

			mode := observability.ModeLive
			if d.Replayed {
				mode = observability.ModeReplay
			}
			metrics.RecordCall(ctx, d.Provider, string(d.Call.Method()), mode, time.Since(start))
		}
	}
}
