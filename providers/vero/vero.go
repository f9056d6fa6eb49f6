// Package vero adapts the Vero tracker.
package vero

import (
	"context"

	"github.com/spf13/cast"

	"github.com/kbukum/analyticskit/logger"
	"github.com/kbukum/analyticskit/page"
	"github.com/kbukum/analyticskit/provider"
	"github.com/kbukum/analyticskit/util"
	"github.com/kbukum/analyticskit/validation"
)

// Name is the registry name of the adapter.
const Name = "Vero"

const queueName = "_veroq"

// Script is the Vero tracker.
var Script = page.Source{URL: "//www.getvero.com/assets/m.js"}

// Options configures the adapter.
type Options struct {
	APIKey string `mapstructure:"apiKey" validate:"required"`
}

// Provider is the Vero adapter.
type Provider struct {
	provider.Base
	window page.Window
	loader page.Loader
	log    *logger.Logger
}

// New creates a Vero adapter bound to env.
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

// Factory is the provider.Factory for Vero.
func Factory(env provider.Env) provider.Provider { return New(env) }

func (p *Provider) Name() string { return Name }

func (p *Provider) Key() string { return "apiKey" }

func (p *Provider) Defaults() provider.Options {
	return provider.Options{"apiKey": nil}
}

// ValidateOptions checks opts without touching the page.
func (p *Provider) ValidateOptions(opts provider.Options) error {
	_, err := provider.DecodeOptions[Options](Name, opts)
	return err
}

func (p *Provider) Initialize(ctx context.Context, opts provider.Options, ready *provider.Ready) error {
	o, err := provider.DecodeOptions[Options](Name, opts)
	if err != nil {
		return err
	}

	p.window.Queue(queueName).Push([]any{"init", map[string]any{"api_key": o.APIKey}})
	p.loader.Load(ctx, Script)
	ready.Done()
	return nil
}

// Identify pushes a user command. Vero needs both a user id and an email.
func (p *Provider) Identify(_ context.Context, userID string, traits provider.Traits) {
	email := cast.ToString(traits["email"])
	if err := validation.New().
		Required("userId", userID).
		Required("email", email).
		Validate(); err != nil {
		p.log.Debug("identify ignored", logger.Fields(logger.FieldError, err.Error()))
		return
	}

	user := util.CopyMap(traits)
	user["id"] = userID
	p.window.Queue(queueName).Push([]any{"user", user})
}

func (p *Provider) Track(_ context.Context, event string, props provider.Properties) {
	var out provider.Properties
	if props != nil {
		out = provider.Properties(util.CopyMap(props))
	}
	p.window.Queue(queueName).Push([]any{"track", event, out})
}
