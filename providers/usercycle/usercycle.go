// Package usercycle adapts the USERcycle JavaScript API.
package usercycle

import (
	"context"

	"github.com/kbukum/analyticskit/logger"
	"github.com/kbukum/analyticskit/page"
	"github.com/kbukum/analyticskit/provider"
	"github.com/kbukum/analyticskit/util"
)

// Name is the registry name of the adapter.
const Name = "USERcycle"

const queueName = "_uc"

// Script is the USERcycle tracker.
var Script = page.Source{URL: "//api.usercycle.com/javascripts/track.js"}

// Options configures the adapter.
type Options struct {
	Key string `mapstructure:"key" validate:"required"`
}

// Provider is the USERcycle adapter.
type Provider struct {
	provider.Base
	window page.Window
	loader page.Loader
	log    *logger.Logger
}

// New creates a USERcycle adapter bound to env.
func New(env provider.Env) *Provider {
	p := &Provider{
		window: env.Window,
		loader: env.Loader,
		log:    logger.Get("provider").WithFields(logger.Fields(logger.FieldProvider, Name)),
	}
	if p.window == nil {
		p.window = page.NewMemoryWindow()
	}
	if p.loader == nil {
		p.loader = page.NopLoader{}
	}
	return p
}

// Factory is the provider.Factory for USERcycle.
func Factory(env provider.Env) provider.Provider { return New(env) }

func (p *Provider) Name() string { return Name }

func (p *Provider) Key() string { return "key" }

func (p *Provider) Defaults() provider.Options {
	return provider.Options{"key": nil}
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

	p.window.Queue(queueName).Push([]any{"_key", o.Key})
	p.loader.Load(ctx, Script)
	ready.Done()
	return nil
}

// Identify pushes a uid command. Anonymous identifies are dropped.
func (p *Provider) Identify(_ context.Context, userID string, traits provider.Traits) {
	if userID == "" {
		p.log.Debug("identify without user id ignored")
		return
	}
	p.window.Queue(queueName).Push([]any{"uid", userID, copyTraits(traits)})
}

func (p *Provider) Track(_ context.Context, event string, props provider.Properties) {
	var out provider.Properties
	if props != nil {
		out = provider.Properties(util.CopyMap(props))
	}
	p.window.Queue(queueName).Push([]any{"action", event, out})
}

func copyTraits(t provider.Traits) provider.Traits {
	if t == nil {
		return nil
	}
	return provider.Traits(util.CopyMap(t))
}
