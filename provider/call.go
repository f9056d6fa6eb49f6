package provider

import "context"

// Method names a generic analytics operation.
type Method string

const (
	MethodIdentify Method = "identify"
	MethodTrack    Method = "track"
	MethodPageview Method = "pageview"
	MethodAlias    Method = "alias"
)

// Call is a generic operation captured for delivery to a Provider. The set of
// calls is closed: Identify, Track, Pageview and Alias.
type Call interface {
	Method() Method
	apply(ctx context.Context, p Provider)
}

// Identify associates the current user with an id and traits.
type Identify struct {
	UserID string
	Traits Traits
}

func (Identify) Method() Method { return MethodIdentify }

func (c Identify) apply(ctx context.Context, p Provider) { p.Identify(ctx, c.UserID, c.Traits) }

// Track records a named event.
type Track struct {
	Event      string
	Properties Properties
}

func (Track) Method() Method { return MethodTrack }

func (c Track) apply(ctx context.Context, p Provider) { p.Track(ctx, c.Event, c.Properties) }

// Pageview records a page view.
type Pageview struct {
	URL string
}

func (Pageview) Method() Method { return MethodPageview }

func (c Pageview) apply(ctx context.Context, p Provider) { p.Pageview(ctx, c.URL) }

// Alias links two user ids.
type Alias struct {
	To   string
	From string
}

func (Alias) Method() Method { return MethodAlias }

func (c Alias) apply(ctx context.Context, p Provider) { p.Alias(ctx, c.To, c.From) }

// Apply delivers c to p.
func Apply(ctx context.Context, p Provider, c Call) {
	c.apply(ctx, p)
}
