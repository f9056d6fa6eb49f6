// Package optimizely adapts Optimizely's page snippet. The snippet is
// expected on the page already, so the adapter is ready as soon as it is
// initialized.
package optimizely

import (
	"context"

	"github.com/spf13/cast"

	"github.com/kbukum/analyticskit/logger"
	"github.com/kbukum/analyticskit/page"
	"github.com/kbukum/analyticskit/provider"
	"github.com/kbukum/analyticskit/util"
)

// Name is the registry name of the adapter.
const Name = "Optimizely"

const (
	queueName      = "optimizely"
	variationsPath = "optimizely.data.state.variationNamesMap"
	experimentPath = "optimizely.data.experiments"
)

// Options configures the adapter.
type Options struct {
	// Scrape sends the visitor's experiment variations as traits to every
	// provider once all of them are ready.
	Scrape bool `mapstructure:"scrape"`
	// Track forwards track calls to Optimizely.
	Track bool `mapstructure:"track"`
}

// Provider is the Optimizely adapter.
type Provider struct {
	provider.Base
	window page.Window
	host   provider.Host
	log    *logger.Logger
	opts   Options
}

// New creates an Optimizely adapter bound to env.
func New(env provider.Env) *Provider {
	p := &Provider{
		window: env.Window,
		host:   env.Host,
		log:    logger.Get("provider").WithFields(logger.Fields(logger.FieldProvider, Name)),
	}
	if p.window == nil {
		p.window = page.NewMemoryWindow()
	}
	if p.host == nil {
		p.host = provider.NopHost{}
	}
	return p
}

// Factory is the provider.Factory for Optimizely.
func Factory(env provider.Env) provider.Provider { return New(env) }

func (p *Provider) Name() string { return Name }

func (p *Provider) Defaults() provider.Options {
	return provider.Options{"scrape": false, "track": true}
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
	p.opts = o

	p.window.Queue(queueName)
	ready.Done()

	if o.Scrape {
		scrapeCtx := context.WithoutCancel(ctx)
		p.host.Ready(func() { p.Scrape(scrapeCtx) })
	}
	return nil
}

// Track pushes a trackEvent command. Revenue is sent in cents.
func (p *Provider) Track(_ context.Context, event string, props provider.Properties) {
	if !p.opts.Track {
		return
	}

	var out provider.Properties
	if props != nil {
		out = provider.Properties(util.CopyMap(props))
		if rev, ok := out["revenue"]; ok && truthy(rev) {
			if cents, ok := toCents(rev); ok {
				out["revenue"] = cents
			} else {
				p.log.Debug("revenue is not numeric, sent unchanged", logger.Fields(logger.FieldEvent, event))
			}
		}
	}
	p.window.Queue(queueName).Push([]any{"trackEvent", event, out})
}

// Scrape reads the visitor's active experiments from the Optimizely data
// object and identifies the visitor with one trait per experiment, keyed by
// experiment name with the variation name as value.
func (p *Provider) Scrape(ctx context.Context) {
	raw, ok := p.window.Value(variationsPath)
	if !ok {
		return
	}
	variations, err := cast.ToStringMapStringE(raw)
	if err != nil {
		p.log.Warn("unexpected variation map", logger.Fields(logger.FieldError, err.Error()))
		return
	}
	rawExperiments, _ := p.window.Value(experimentPath)
	experiments := cast.ToStringMap(rawExperiments)

	traits := provider.Traits{}
	for _, id := range util.SortedKeys(variations) {
		exp := cast.ToStringMap(experiments[id])
		name := cast.ToString(exp["name"])
		if name == "" {
			p.log.Warn("unknown experiment", logger.Fields("experiment_id", id))
			continue
		}
		traits[name] = variations[id]
	}

	p.log.Debug("scraped experiments", logger.Fields("experiments", len(traits)))
	p.host.Identify(ctx, "", traits)
}

// toCents multiplies a revenue amount by 100, keeping integer kinds integral.
func toCents(v any) (any, bool) {
	switch n := v.(type) {
	case int:
		return n * 100, true
	case int32:
		return n * 100, true
	case int64:
		return n * 100, true
	case uint:
		return n * 100, true
	case uint32:
		return n * 100, true
	case uint64:
		return n * 100, true
	case float32:
		return n * 100, true
	case float64:
		return n * 100, true
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return v, false
	}
	return f * 100, true
}

// truthy mirrors how a page script treats a revenue value: zero, empty and
// false amounts are left alone.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return true
	}
	return f != 0
}
