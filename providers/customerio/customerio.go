// Package customerio adapts the Customer.io tracker.
package customerio

import (
	"context"

	"github.com/spf13/cast"

	"github.com/kbukum/analyticskit/logger"
	"github.com/kbukum/analyticskit/page"
	"github.com/kbukum/analyticskit/provider"
	"github.com/kbukum/analyticskit/util"
)

// Name is the registry name of the adapter.
const Name = "Customer.io"

const (
	queueName = "_cio"
	scriptURL = "https://assets.customer.io/assets/track.js"
)

// Options configures the adapter.
type Options struct {
	SiteID string `mapstructure:"siteId" validate:"required"`
}

// Provider is the Customer.io adapter.
type Provider struct {
	provider.Base
	window page.Window
	loader page.Loader
	log    *logger.Logger
}

// New creates a Customer.io adapter bound to env.
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

// Factory is the provider.Factory for Customer.io.
func Factory(env provider.Env) provider.Provider { return New(env) }

func (p *Provider) Name() string { return Name }

func (p *Provider) Key() string { return "siteId" }

func (p *Provider) Defaults() provider.Options {
	return provider.Options{"siteId": nil}
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

	p.window.Queue(queueName)
	p.loader.Load(ctx, page.Source{
		URL: scriptURL,
		Attributes: map[string]string{
			"id":           "cio-tracker",
			"data-site-id": o.SiteID,
		},
	})
	ready.Done()
	return nil
}

// Identify sends the customer with its traits. A created trait is sent as
// created_at in unix seconds.
func (p *Provider) Identify(_ context.Context, userID string, traits provider.Traits) {
	if userID == "" {
		p.log.Debug("identify without user id ignored")
		return
	}

	customer := util.CopyMap(traits)
	customer["id"] = userID
	if created, ok := customer["created"]; ok {
		if t, err := cast.ToTimeE(created); err == nil {
			delete(customer, "created")
			customer["created_at"] = t.Unix()
		} else {
			p.log.Debug("created trait is not a time, sent unchanged", logger.Fields(logger.FieldUserID, userID))
		}
	}
	p.window.Queue(queueName).Push([]any{"identify", customer})
}

func (p *Provider) Track(_ context.Context, event string, props provider.Properties) {
	var out provider.Properties
	if props != nil {
		out = provider.Properties(util.CopyMap(props))
	}
	p.window.Queue(queueName).Push([]any{"track", event, out})
}
