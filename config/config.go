package config

import (
	"fmt"
	"time"

	"github.com/kbukum/analyticskit/errors"
	"github.com/kbukum/analyticskit/util"
	"github.com/kbukum/analyticskit/validation"
	"github.com/kbukum/analyticskit/version"
)

// Config is the analytics dispatcher configuration.
//
//	name: storefront
//	environment: production
//	page:
//	  scheme: https
//	  runtime: true
//	  load_scripts: true
//	telemetry:
//	  enabled: true
//	  endpoint: otel-collector:4318
//	providers:
//	  Optimizely:
//	    scrape: true
//	  Quantcast: p-xxxx
//	  Vero:
//	    apiKey: k-xxxx
//	  customerio: site-xxxx
//
// Provider names are matched ignoring case and punctuation; write
// "customerio" for Customer.io since viper reads dots as nesting.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Page          PageConfig      `yaml:"page" mapstructure:"page"`
	Telemetry     TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	// Providers maps a registered provider name to its raw options: a map,
	// or a bare string for providers that declare an options key.
	Providers map[string]any `yaml:"providers" mapstructure:"providers"`
}

// PageConfig selects how the vendor global namespace and script loading
// are realised.
type PageConfig struct {
	// Scheme is the page protocol used to pick between http/https script variants.
	Scheme string `yaml:"scheme" mapstructure:"scheme" validate:"oneof=http https"`
	// Runtime backs the window with a JavaScript runtime instead of an in-memory recorder.
	Runtime bool `yaml:"runtime" mapstructure:"runtime"`
	// LoadScripts fetches vendor scripts over HTTP. When false loads are only recorded.
	LoadScripts bool `yaml:"load_scripts" mapstructure:"load_scripts"`
	// Timeout bounds a single script fetch.
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
	UserAgent string        `yaml:"user_agent" mapstructure:"user_agent"`
}

// TelemetryConfig configures OTLP export of traces and metrics.
type TelemetryConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults applies default values to the configuration.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.Name = util.Coalesce(c.Name, "analytics")

	c.Page.Scheme = util.Coalesce(c.Page.Scheme, "https")
	if c.Page.Timeout == 0 {
		c.Page.Timeout = 10 * time.Second
	}
	c.Page.UserAgent = util.Coalesce(c.Page.UserAgent, version.UserAgent())

	if c.Telemetry.Enabled {
		c.Telemetry.Endpoint = util.Coalesce(c.Telemetry.Endpoint, "localhost:4318")
		if c.Telemetry.SampleRate == 0 {
			c.Telemetry.SampleRate = 1.0
		}
	}
	if c.Telemetry.Interval == 0 {
		c.Telemetry.Interval = 15 * time.Second
	}

	if c.Providers == nil {
		c.Providers = map[string]any{}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return errors.InvalidConfig(err.Error()).WithCause(err)
	}
	if err := validation.Validate(c); err != nil {
		return errors.InvalidConfig(err.Error()).WithCause(err)
	}

	v := validation.New()
	for _, name := range util.SortedKeys(c.Providers) {
		switch c.Providers[name].(type) {
		case map[string]any, string:
		default:
			v.AddError("providers."+name, fmt.Sprintf("must be a map or a string (got %T)", c.Providers[name]))
		}
	}
	if appErr := v.Validate(); appErr != nil {
		return errors.InvalidConfig(appErr.Message).WithCause(appErr)
	}
	return nil
}

// Load reads configuration for serviceName from config.yml, .env and the
// environment, applies defaults and validates the result.
func Load(serviceName string, opts ...LoaderOption) (*Config, error) {
	var cfg Config
	if err := LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, errors.InvalidConfig(err.Error()).WithCause(err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
