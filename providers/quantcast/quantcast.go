// Package quantcast adapts the Quantcast asynchronous tag.
package quantcast

import (
	"context"

	"github.com/kbukum/analyticskit/page"
	"github.com/kbukum/analyticskit/provider"
)

// Name is the registry name of the adapter.
const Name = "Quantcast"

const queueName = "_qevents"

// Script is the Quantcast tag, served from different hosts per scheme.
var Script = page.Source{
	HTTP:  "http://edge.quantserve.com/quant.js",
	HTTPS: "https://secure.quantserve.com/quant.js",
}

// Options configures the adapter.
type Options struct {
	PCode string `mapstructure:"pCode" validate:"required"`
}

// Provider is the Quantcast adapter. It only records the page view the tag
// itself reports; generic calls are no-ops.
type Provider struct {
	provider.Base
	window page.Window
	loader page.Loader
}

// New creates a Quantcast adapter bound to env.
func New(env provider.Env) *Provider {
	p := &Provider{window: env.Window, loader: env.Loader}
	if p.window == nil {
		p.window = page.NewMemoryWindow()
	}
	if p.loader == nil {
		p.loader = page.NopLoader{}
	}
	return p
}

// Factory is the provider.Factory for Quantcast.
func Factory(env provider.Env) provider.Provider { return New(env) }

func (p *Provider) Name() string { return Name }

func (p *Provider) Key() string { return "pCode" }

func (p *Provider) Defaults() provider.Options {
	return provider.Options{"pCode": nil}
}

func (p *Provider) ValidateOptions(opts provider.Options) error {
	_, err := provider.DecodeOptions[Options](Name, opts)
	return err
}

func (p *Provider) Initialize(ctx context.Context, opts provider.Options, ready *provider.Ready) error {
	o, err := provider.DecodeOptions[Options](Name, opts)
	if err != nil {
		return err
	}

	p.window.Queue(queueName).Push(map[string]any{"qacct": o.PCode})
	p.loader.Load(ctx, Script)
	ready.Done()
	return nil
}
