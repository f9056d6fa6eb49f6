package analytics

import (
	"context"
	"maps"

	"github.com/kbukum/analyticskit/logger"
	"github.com/kbukum/analyticskit/observability"
	"github.com/kbukum/analyticskit/provider"
	"github.com/kbukum/analyticskit/util"
)

// Identify identifies the visitor with every provider. An empty userID
// keeps the remembered user; traits are merged into the remembered traits
// and the merged set is sent. Traits gathered anonymously carry over to the
// first user id; identifying a different user starts from empty traits.
func (a *Analytics) Identify(ctx context.Context, userID string, traits provider.Traits) {
	a.mu.Lock()
	switch {
	case userID == "":
		userID = a.user.ID
	case a.user.ID != "" && userID != a.user.ID:
		a.user = User{ID: userID}
	default:
		a.user.ID = userID
	}
	if a.user.Traits == nil {
		a.user.Traits = provider.Traits{}
	}
	maps.Copy(a.user.Traits, traits)
	merged := provider.Traits(util.CopyMap(a.user.Traits))
	a.mu.Unlock()

	a.dispatch(ctx, userID, provider.Identify{UserID: userID, Traits: merged})
}

// Track records event with every provider.
func (a *Analytics) Track(ctx context.Context, event string, props provider.Properties) {
	var snapshot provider.Properties
	if props != nil {
		snapshot = provider.Properties(util.CopyMap(props))
	}
	a.dispatch(ctx, a.userID(), provider.Track{Event: event, Properties: snapshot})
}

// Pageview records a page view with every provider.
func (a *Analytics) Pageview(ctx context.Context, url string) {
	a.dispatch(ctx, a.userID(), provider.Pageview{URL: url})
}

// Alias links the from id to the to id with every provider.
func (a *Analytics) Alias(ctx context.Context, to, from string) {
	a.dispatch(ctx, a.userID(), provider.Alias{To: to, From: from})
}

// User returns a copy of the remembered user.
func (a *Analytics) User() User {
	a.mu.Lock()
	defer a.mu.Unlock()
	u := User{ID: a.user.ID}
	if a.user.Traits != nil {
		u.Traits = provider.Traits(util.CopyMap(a.user.Traits))
	}
	return u
}

func (a *Analytics) userID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user.ID
}

// Reset forgets the remembered user.
func (a *Analytics) Reset() {
	a.mu.Lock()
	a.user = User{}
	a.mu.Unlock()
}

func (a *Analytics) dispatch(ctx context.Context, userID string, call provider.Call) {
	method := string(call.Method())
	oc := observability.NewOperationContext(a.serviceName, method, userID, a.metrics)
	ctx, span := oc.StartSpanForOperation(ctx, observability.SpanDispatch)

	instances := a.Instances()
	if len(instances) == 0 {
		a.log.Debug("no providers configured, call dropped", logger.Fields(logger.FieldMethod, method))
		oc.EndOperation(ctx, span, "dropped", nil)
		return
	}
	for _, inst := range instances {
		inst.Dispatch(ctx, call)
	}
	oc.EndOperation(ctx, span, "ok", nil)
}
