package provider

import (
	"context"
	"time"

	"github.com/kbukum/analyticskit/logger"
)

// WithLogging returns a Middleware that logs each delivered call at debug level.
// Logs: provider name, method, call id, whether it was replayed, and duration.
func WithLogging(log *logger.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, d Delivery) {
			start := time.Now()
			next(ctx, d)

			log.WithContext(ctx).Debug("provider call delivered", map[string]interface{}{
				logger.FieldProvider: d.Provider,
				logger.FieldMethod:   string(d.Call.Method()),
				logger.FieldCallID:   d.ID,
				"replayed":           d.Replayed,
				logger.FieldDuration: time.Since(start).Milliseconds(),
			})
		}
	}
}
