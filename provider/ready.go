package provider

import (
	"sync"
	"sync/atomic"
)

// Ready is a one-shot signal an adapter fires when its vendor is ready.
// Only the first Done has an effect; it may be called from any goroutine.
type Ready struct {
	once  sync.Once
	fired atomic.Bool
	fn    func()
}

// NewReady returns a Ready that runs fn on the first Done.
func NewReady(fn func()) *Ready {
	return &Ready{fn: fn}
}

// Done fires the signal. Calls after the first are no-ops.
func (r *Ready) Done() {
	r.once.Do(func() {
		r.fired.Store(true)
		if r.fn != nil {
			r.fn()
		}
	})
}

// Fired reports whether Done has been called.
func (r *Ready) Fired() bool {
	return r.fired.Load()
}
