// Package config provides configuration loading and validation for the
// analytics dispatcher.
//
// It uses Viper to load config.yml from standard locations, godotenv to load
// .env files, and binds environment variables so that e.g.
// TELEMETRY_ENDPOINT overrides telemetry.endpoint.
//
// # Usage
//
//	cfg, err := config.Load("storefront")
//	if err != nil {
//	    return err
//	}
//	dispatcher, err := analytics.NewFromConfig(ctx, cfg)
package config
