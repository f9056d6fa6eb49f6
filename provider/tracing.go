package provider

import (
	"context"

	"github.com/kbukum/analyticskit/observability"
)

// WithTracing returns a Middleware that creates an OpenTelemetry span
// around each delivered call. The span name is "{serviceName}.{provider}.{method}".
func WithTracing(serviceName string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, d Delivery) {
			method := string(d.Call.Method())
			ctx, span := observability.StartSpan(ctx, serviceName+"."+d.Provider+"."+method)
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrServiceName, serviceName)
			observability.SetSpanAttribute(ctx, observability.AttrProvider, d.Provider)
			observability.SetSpanAttribute(ctx, observability.AttrMethod, method)
			observability.SetSpanAttribute(ctx, observability.AttrCallID, d.ID)
			observability.SetSpanAttribute(ctx, "analytics.replayed", d.Replayed)

			next(ctx, d)
		}
	}
}
