package provider

import (
	"context"
	"strconv"
	"time"

	"github.com/kbukum/analyticskit/observability"
)

// State is the lifecycle state of an Instance. It only moves forward.
type State int

const (
	// StateConstructing covers option resolution, before Initialize runs.
	StateConstructing State = iota
	// StateInitializing means Initialize has run and calls are buffered.
	StateInitializing
	// StateReady means buffered calls were replayed and calls go straight through.
	StateReady
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConstructing:
		return "constructing"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// CheckHealth reports the instance as up when ready and degraded while it is
// still buffering calls.
func (i *Instance) CheckHealth(_ context.Context) observability.Health {
	i.mu.Lock()
	state, depth, closed, readyAt := i.state, len(i.queue), i.closed, i.readyAt
	i.mu.Unlock()

	h := observability.Health{
		Name: i.provider.Name(),
		Details: map[string]string{
			"state":       state.String(),
			"queue_depth": strconv.Itoa(depth),
		},
	}
	switch {
	case closed:
		h.Status = observability.HealthStatusDown
		h.Message = "initialize failed"
	case state == StateReady:
		h.Status = observability.HealthStatusUp
		h.Details["ready_since"] = readyAt.UTC().Format(time.RFC3339)
	default:
		h.Status = observability.HealthStatusDegraded
		h.Message = "waiting for vendor ready"
	}
	return h
}
