package page

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestSourceResolve(t *testing.T) {
	quantcast := Source{
		HTTP:  "http://edge.quantserve.com/quant.js",
		HTTPS: "https://secure.quantserve.com/quant.js",
	}
	usercycle := Source{URL: "//api.usercycle.com/javascripts/track.js"}
	absolute := Source{URL: "https://assets.customer.io/assets/track.js"}

	tests := []struct {
		name   string
		src    Source
		scheme string
		want   string
	}{
		{"variant http", quantcast, "http", "http://edge.quantserve.com/quant.js"},
		{"variant https", quantcast, "https", "https://secure.quantserve.com/quant.js"},
		{"protocol relative http", usercycle, "http", "http://api.usercycle.com/javascripts/track.js"},
		{"protocol relative https", usercycle, "https", "https://api.usercycle.com/javascripts/track.js"},
		{"unknown scheme falls back to https", usercycle, "", "https://api.usercycle.com/javascripts/track.js"},
		{"absolute untouched", absolute, "http", "https://assets.customer.io/assets/track.js"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.src.Resolve(tc.scheme); got != tc.want {
				t.Errorf("Resolve(%q) = %q, want %q", tc.scheme, got, tc.want)
			}
		})
	}
}

func TestRecordingLoader(t *testing.T) {
	l := NewRecordingLoader("http")
	l.Load(context.Background(), Source{URL: "//www.getvero.com/assets/m.js"})
	l.Load(context.Background(), Source{
		URL:        "https://assets.customer.io/assets/track.js",
		Attributes: map[string]string{"id": "cio-tracker", "data-site-id": "s1"},
	})

	want := []string{"http://www.getvero.com/assets/m.js", "https://assets.customer.io/assets/track.js"}
	if got := l.URLs(); !reflect.DeepEqual(got, want) {
		t.Errorf("URLs() = %v, want %v", got, want)
	}
	if got := l.Loads()[1].Source.Attributes["data-site-id"]; got != "s1" {
		t.Errorf("expected attributes recorded, got %q", got)
	}
}

func TestNopLoader(t *testing.T) {
	// Should not panic
	NopLoader{}.Load(context.Background(), Source{URL: "//x"})
}

type recordingRunner struct {
	name, src string
	err       error
}

func (r *recordingRunner) Eval(name, src string) error {
	r.name, r.src = name, src
	return r.err
}

func TestHTTPLoaderFetchesAndEvaluates(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("window.loaded = true;"))
	}))
	defer srv.Close()

	win := NewRuntimeWindow(time.Second)
	l := NewHTTPLoader(HTTPLoaderConfig{Scheme: "http", UserAgent: "analyticskit/test"}, win)
	l.Load(context.Background(), Source{URL: srv.URL + "/track.js"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if v, ok := win.Value("loaded"); !ok || v != true {
		t.Errorf("expected script evaluated into window, got %v", v)
	}
	if gotUA != "analyticskit/test" {
		t.Errorf("expected user agent header, got %q", gotUA)
	}
}

func TestHTTPLoaderFailureIsNotSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	runner := &recordingRunner{}
	l := NewHTTPLoader(HTTPLoaderConfig{Scheme: "https", Client: srv.Client()}, runner)
	l.Load(context.Background(), Source{URL: srv.URL + "/missing.js"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if runner.name != "" {
		t.Errorf("expected failed fetch not to be evaluated, got %q", runner.name)
	}
}

func TestHTTPLoaderLoadReturnsImmediately(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	l := NewHTTPLoader(HTTPLoaderConfig{}, nil)
	start := time.Now()
	l.Load(context.Background(), Source{URL: srv.URL})
	if time.Since(start) > time.Second {
		t.Error("expected Load to be fire-and-forget")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Close(ctx); err == nil {
		t.Error("expected Close to report the context deadline while a load is in flight")
	}
}

func TestHTTPLoaderRejectsOversizedScript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat(" ", maxScriptSize+1)))
	}))
	defer srv.Close()

	runner := &recordingRunner{}
	l := NewHTTPLoader(HTTPLoaderConfig{}, runner)
	err := l.fetch(context.Background(), srv.URL+"/big.js")
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected oversize error, got %v", err)
	}
	if runner.name != "" {
		t.Errorf("expected oversized script not to be evaluated, got %q", runner.name)
	}
}

func TestHTTPLoaderAcceptsScriptAtLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat(" ", maxScriptSize)))
	}))
	defer srv.Close()

	runner := &recordingRunner{}
	l := NewHTTPLoader(HTTPLoaderConfig{}, runner)
	if err := l.fetch(context.Background(), srv.URL+"/edge.js"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runner.src) != maxScriptSize {
		t.Errorf("expected full script evaluated, got %d bytes", len(runner.src))
	}
}

func TestHTTPLoaderLoadAfterCloseIsNoop(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	l := NewHTTPLoader(HTTPLoaderConfig{}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	l.Load(context.Background(), Source{URL: srv.URL + "/late.js"})
	if err := l.Close(ctx); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if n := hits.Load(); n != 0 {
		t.Errorf("expected no fetch after Close, got %d", n)
	}
}
