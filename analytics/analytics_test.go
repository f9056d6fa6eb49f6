package analytics

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/analyticskit/errors"
	"github.com/kbukum/analyticskit/observability"
	"github.com/kbukum/analyticskit/page"
	"github.com/kbukum/analyticskit/provider"
	"github.com/kbukum/analyticskit/providers"
)

// slowProvider becomes ready only when the test fires its token.
type slowProvider struct {
	provider.Base
	mu     sync.Mutex
	ready  *provider.Ready
	events []string
}

func (p *slowProvider) Name() string { return "Slow" }

func (p *slowProvider) Initialize(_ context.Context, _ provider.Options, ready *provider.Ready) error {
	p.ready = ready
	return nil
}

func (p *slowProvider) Track(_ context.Context, event string, _ provider.Properties) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *slowProvider) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

func newDispatcher(t *testing.T) (*Analytics, *page.MemoryWindow, *page.RecordingLoader) {
	t.Helper()
	window := page.NewMemoryWindow()
	loader := page.NewRecordingLoader("https")
	return New(providers.NewRegistry(), window, loader), window, loader
}

func TestInitializeBundledProviders(t *testing.T) {
	a, window, loader := newDispatcher(t)
	readyCalls := 0
	a.Ready(func() { readyCalls++ })

	err := a.Initialize(context.Background(), map[string]any{
		"Vero":       map[string]any{"apiKey": "k-1"},
		"Quantcast":  "p-1",
		"Optimizely": map[string]any{},
	})
	require.NoError(t, err)

	var names []string
	for _, inst := range a.Instances() {
		names = append(names, inst.Name())
	}
	assert.Equal(t, []string{"Optimizely", "Quantcast", "Vero"}, names)
	assert.True(t, a.IsReady())
	assert.Equal(t, 1, readyCalls)
	assert.Equal(t, []string{
		"https://secure.quantserve.com/quant.js",
		"https://www.getvero.com/assets/m.js",
	}, loader.URLs())
	assert.True(t, window.Has("optimizely"))
}

func TestInitializeUnknownProvider(t *testing.T) {
	a, _, loader := newDispatcher(t)

	err := a.Initialize(context.Background(), map[string]any{"Quantcast": "p-1", "Mixpanel": "x"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotRegistered))
	assert.Empty(t, a.Instances())
	assert.Empty(t, loader.URLs(), "no provider is constructed when a name is unknown")

	require.NoError(t, a.Initialize(context.Background(), map[string]any{"Quantcast": "p-1"}))
	assert.Len(t, a.Instances(), 1)
}

func TestInitializeTwice(t *testing.T) {
	a, _, _ := newDispatcher(t)
	require.NoError(t, a.Initialize(context.Background(), map[string]any{}))

	err := a.Initialize(context.Background(), map[string]any{"Quantcast": "p-1"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAlreadyInitialized))
}

func TestInitializeInvalidOptionsCommitsNothing(t *testing.T) {
	a, _, _ := newDispatcher(t)

	err := a.Initialize(context.Background(), map[string]any{
		"Optimizely": map[string]any{},
		"Vero":       42,
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidOptions))
	assert.Empty(t, a.Instances())
	assert.False(t, a.IsReady())
}

func TestInitializeRejectedOptionsLeaveNoVendorSetup(t *testing.T) {
	a, window, loader := newDispatcher(t)
	ctx := context.Background()

	err := a.Initialize(ctx, map[string]any{"Quantcast": "p-1", "Vero": 42})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidOptions))
	assert.Empty(t, window.Commands("_qevents"))
	assert.Empty(t, loader.URLs())

	err = a.Initialize(ctx, map[string]any{"Quantcast": "p-1", "Vero": map[string]any{}})
	require.Error(t, err, "typed validation runs before any setup")
	assert.Empty(t, window.Commands("_qevents"))
	assert.Empty(t, loader.URLs())

	require.NoError(t, a.Initialize(ctx, map[string]any{"Quantcast": "p-1", "Vero": "k"}))
	assert.Equal(t, []any{map[string]any{"qacct": "p-1"}}, window.Commands("_qevents"))
	assert.Len(t, window.Commands("_veroq"), 1)
	assert.Equal(t, []string{
		"https://secure.quantserve.com/quant.js",
		"https://www.getvero.com/assets/m.js",
	}, loader.URLs())
}

func TestInitializeDuplicateProvider(t *testing.T) {
	a, _, _ := newDispatcher(t)

	err := a.Initialize(context.Background(), map[string]any{"vero": "a", "Vero": "b"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
}

func TestReadyWaitsForEveryProvider(t *testing.T) {
	slow := &slowProvider{}
	reg := providers.NewRegistry()
	reg.Register("Slow", func(provider.Env) provider.Provider { return slow })
	a := New(reg, nil, nil)
	ctx := context.Background()

	readyCalls := 0
	a.Ready(func() { readyCalls++ })
	require.NoError(t, a.Initialize(ctx, map[string]any{"Slow": map[string]any{}, "Optimizely": map[string]any{}}))
	assert.Equal(t, 0, readyCalls)
	assert.False(t, a.IsReady())

	a.Track(ctx, "first", nil)
	a.Track(ctx, "second", nil)
	assert.Empty(t, slow.Events())

	h := a.Health(ctx)
	assert.Equal(t, observability.HealthStatusDegraded, h.Status)

	slow.ready.Done()
	assert.Equal(t, 1, readyCalls)
	assert.True(t, a.IsReady())
	assert.Equal(t, []string{"first", "second"}, slow.Events())

	a.Ready(func() { readyCalls++ })
	assert.Equal(t, 2, readyCalls, "Ready after all providers are ready runs at once")

	h = a.Health(ctx)
	assert.Equal(t, observability.HealthStatusUp, h.Status)
	assert.Len(t, h.Components, 2)
}

func TestHealthBeforeInitialize(t *testing.T) {
	a, _, _ := newDispatcher(t)

	h := a.Health(context.Background())
	assert.Equal(t, observability.HealthStatusDegraded, h.Status)
	assert.Equal(t, "analytics", h.Service)
}

func TestCallsBeforeInitializeAreDropped(t *testing.T) {
	a, window, _ := newDispatcher(t)
	ctx := context.Background()

	a.Track(ctx, "early", nil)
	require.NoError(t, a.Initialize(ctx, map[string]any{"Vero": "k"}))

	assert.Len(t, window.Commands("_veroq"), 1, "only the init command")
}

func TestIdentifyRemembersUser(t *testing.T) {
	a, window, _ := newDispatcher(t)
	ctx := context.Background()
	require.NoError(t, a.Initialize(ctx, map[string]any{"Vero": "k"}))

	a.Identify(ctx, "", provider.Traits{"email": "ada@example.com"})
	assert.Len(t, window.Commands("_veroq"), 1, "Vero needs a user id")

	a.Identify(ctx, "u1", provider.Traits{"name": "Ada"})
	cmds := window.Commands("_veroq")
	require.Len(t, cmds, 2)
	assert.Equal(t, []any{"user", map[string]any{"id": "u1", "email": "ada@example.com", "name": "Ada"}}, cmds[1])

	a.Identify(ctx, "", provider.Traits{"plan": "pro"})
	cmds = window.Commands("_veroq")
	require.Len(t, cmds, 3)
	assert.Equal(t, []any{"user", map[string]any{"id": "u1", "email": "ada@example.com", "name": "Ada", "plan": "pro"}}, cmds[2])

	u := a.User()
	assert.Equal(t, "u1", u.ID)
	u.Traits["name"] = "changed"
	assert.Equal(t, "Ada", a.User().Traits["name"], "User returns a copy")
}

func TestIdentifyDifferentUserDropsTraits(t *testing.T) {
	a, _, _ := newDispatcher(t)
	ctx := context.Background()

	a.Identify(ctx, "u1", provider.Traits{"email": "a@example.com"})
	a.Identify(ctx, "u2", provider.Traits{"name": "Bo"})

	assert.Equal(t, User{ID: "u2", Traits: provider.Traits{"name": "Bo"}}, a.User())
}

func TestReset(t *testing.T) {
	a, _, _ := newDispatcher(t)
	a.Identify(context.Background(), "u1", provider.Traits{"email": "a@example.com"})

	a.Reset()

	assert.Equal(t, User{}, a.User())
}

func TestTrackSnapshotsProperties(t *testing.T) {
	slow := &slowProvider{}
	reg := provider.NewRegistry()
	reg.Register("Slow", func(provider.Env) provider.Provider { return slow })
	a := New(reg, nil, nil)
	ctx := context.Background()
	require.NoError(t, a.Initialize(ctx, map[string]any{"Slow": map[string]any{}}))

	props := provider.Properties{"plan": "pro"}
	a.Track(ctx, "Signup", props)
	props["plan"] = "changed"

	pending := a.Instances()[0].Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, provider.Properties{"plan": "pro"}, pending[0].(provider.Track).Properties)
}

func TestOptimizelyScrapeIdentifiesEveryProvider(t *testing.T) {
	a, window, _ := newDispatcher(t)
	window.Set("optimizely", map[string]any{
		"data": map[string]any{
			"state":       map[string]any{"variationNamesMap": map[string]any{"1": "Variant B"}},
			"experiments": map[string]any{"1": map[string]any{"name": "Pricing page"}},
		},
	})
	ctx := context.Background()

	require.NoError(t, a.Initialize(ctx, map[string]any{
		"Optimizely": map[string]any{"scrape": true},
		"USERcycle":  "uc-1",
	}))
	assert.Equal(t, provider.Traits{"Pricing page": "Variant B"}, a.User().Traits)

	a.Identify(ctx, "u1", nil)
	cmds := window.Commands("_uc")
	require.Len(t, cmds, 2)
	assert.Equal(t, []any{"uid", "u1", provider.Traits{"Pricing page": "Variant B"}}, cmds[1])
}

type failingProvider struct{ provider.Base }

func (failingProvider) Name() string { return "Unreachable" }

func (failingProvider) Initialize(context.Context, provider.Options, *provider.Ready) error {
	return stderrors.New("vendor unavailable")
}

func TestFailedInitializeDropsAdapterReadyCallbacks(t *testing.T) {
	window := page.NewMemoryWindow()
	reg := providers.NewRegistry()
	reg.Register("Unreachable", func(provider.Env) provider.Provider { return failingProvider{} })
	a := New(reg, window, page.NewRecordingLoader("https"))
	window.Set("optimizely", map[string]any{
		"data": map[string]any{
			"state":       map[string]any{"variationNamesMap": map[string]any{"1": "A"}},
			"experiments": map[string]any{"1": map[string]any{"name": "Exp"}},
		},
	})
	ctx := context.Background()

	err := a.Initialize(ctx, map[string]any{
		"Optimizely":  map[string]any{"scrape": true},
		"Unreachable": map[string]any{},
	})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInitializeFailed))

	require.NoError(t, a.Initialize(ctx, map[string]any{}))
	assert.True(t, a.IsReady())
	assert.Empty(t, a.User().Traits, "scrape from the failed attempt must not run")
}

func TestCloseWithoutCloseableLoader(t *testing.T) {
	a, _, _ := newDispatcher(t)
	assert.NoError(t, a.Close(context.Background()))
}

func TestCloseWaitsForLoader(t *testing.T) {
	loader := page.NewHTTPLoader(page.HTTPLoaderConfig{}, nil)
	a := New(nil, nil, loader)
	assert.NoError(t, a.Close(context.Background()))
}
