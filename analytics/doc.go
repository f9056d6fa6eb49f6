// Package analytics is the dispatcher applications talk to. It configures
// one provider per vendor and fans Identify, Track, Pageview and Alias out to
// all of them. Calls made before a vendor is ready are buffered by that
// provider and replayed in order once it is.
//
// # Usage
//
//	a := analytics.New(nil, window, loader)
//	if err := a.Initialize(ctx, map[string]any{
//	    "Quantcast": "p-xxxx",
//	    "Vero":      map[string]any{"apiKey": "k-xxxx"},
//	}); err != nil {
//	    return err
//	}
//	a.Ready(func() { log.Info("all vendors ready") })
//	a.Identify(ctx, "u-42", provider.Traits{"email": "ada@example.com"})
//	a.Track(ctx, "Signed Up", provider.Properties{"plan": "pro"})
//
// From configuration:
//
//	cfg, err := config.Load("storefront")
//	a, err := analytics.NewFromConfig(ctx, cfg)
//	defer a.Close(ctx)
package analytics
