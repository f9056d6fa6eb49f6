// Package providers wires the bundled vendor adapters into a registry.
package providers

import (
	"github.com/kbukum/analyticskit/provider"
	"github.com/kbukum/analyticskit/providers/customerio"
	"github.com/kbukum/analyticskit/providers/optimizely"
	"github.com/kbukum/analyticskit/providers/quantcast"
	"github.com/kbukum/analyticskit/providers/usercycle"
	"github.com/kbukum/analyticskit/providers/vero"
)

// RegisterDefaults registers every bundled adapter under its vendor name.
func RegisterDefaults(reg *provider.Registry) {
	reg.Register(optimizely.Name, optimizely.Factory)
	reg.Register(quantcast.Name, quantcast.Factory)
	reg.Register(usercycle.Name, usercycle.Factory)
	reg.Register(customerio.Name, customerio.Factory)
	reg.Register(vero.Name, vero.Factory)
}

// NewRegistry returns a registry holding every bundled adapter.
func NewRegistry() *provider.Registry {
	reg := provider.NewRegistry()
	RegisterDefaults(reg)
	return reg
}
