package analytics

import (
	"context"

	"github.com/kbukum/analyticskit/observability"
	"github.com/kbukum/analyticskit/version"
)

// Health reports every provider's health. The service is degraded while any
// provider is still waiting for its vendor, and before Initialize.
func (a *Analytics) Health(ctx context.Context) *observability.ServiceHealth {
	sh := observability.NewServiceHealth(a.serviceName, version.Short())

	a.mu.Lock()
	committed := a.committed
	a.mu.Unlock()
	if !committed {
		sh.AddComponent(observability.Health{
			Name:    "analytics",
			Status:  observability.HealthStatusDegraded,
			Message: "not initialized",
		})
		return sh
	}

	for _, inst := range a.Instances() {
		sh.AddComponent(inst.CheckHealth(ctx))
	}
	return sh
}
