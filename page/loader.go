package page

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/analyticskit/logger"
	"github.com/kbukum/analyticskit/observability"
)

// maxScriptSize bounds how much of a vendor script is read.
const maxScriptSize = 5 << 20

// Source describes a vendor script. URL may be protocol-relative ("//host/x.js").
// HTTP and HTTPS, when set, override URL for the matching page scheme.
type Source struct {
	URL        string
	HTTP       string
	HTTPS      string
	Attributes map[string]string
}

// Resolve returns the concrete URL for a page served over scheme.
func (s Source) Resolve(scheme string) string {
	switch scheme {
	case "http":
		if s.HTTP != "" {
			return s.HTTP
		}
	default:
		scheme = "https"
		if s.HTTPS != "" {
			return s.HTTPS
		}
	}
	if strings.HasPrefix(s.URL, "//") {
		return scheme + ":" + s.URL
	}
	return s.URL
}

// Loader fetches vendor scripts. Load is fire-and-forget: it never reports
// failure to the caller.
type Loader interface {
	Load(ctx context.Context, src Source)
}

// ScriptRunner evaluates a fetched script, e.g. a RuntimeWindow.
type ScriptRunner interface {
	Eval(name, src string) error
}

// NopLoader ignores every load.
type NopLoader struct{}

func (NopLoader) Load(context.Context, Source) {}

// LoadRecord is one load observed by a RecordingLoader.
type LoadRecord struct {
	Source Source
	URL    string
}

// RecordingLoader records loads without fetching anything.
type RecordingLoader struct {
	mu     sync.Mutex
	scheme string
	loads  []LoadRecord
}

// NewRecordingLoader creates a RecordingLoader resolving URLs for scheme.
func NewRecordingLoader(scheme string) *RecordingLoader {
	return &RecordingLoader{scheme: scheme}
}

func (l *RecordingLoader) Load(_ context.Context, src Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads = append(l.loads, LoadRecord{Source: src, URL: src.Resolve(l.scheme)})
}

// Loads returns a copy of the recorded loads.
func (l *RecordingLoader) Loads() []LoadRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LoadRecord, len(l.loads))
	copy(out, l.loads)
	return out
}

// URLs returns the resolved URLs of the recorded loads.
func (l *RecordingLoader) URLs() []string {
	loads := l.Loads()
	urls := make([]string, len(loads))
	for i, rec := range loads {
		urls[i] = rec.URL
	}
	return urls
}

// HTTPLoaderConfig configures an HTTPLoader.
type HTTPLoaderConfig struct {
	// Scheme of the hosting page, "http" or "https".
	Scheme    string
	Timeout   time.Duration
	UserAgent string
	// Client overrides the HTTP client. Timeout is ignored when set.
	Client  *http.Client
	Metrics *observability.Metrics
}

// HTTPLoader fetches scripts over HTTP in background goroutines and hands
// them to a ScriptRunner. Failures are logged and counted, never returned.
type HTTPLoader struct {
	client    *http.Client
	scheme    string
	userAgent string
	runner    ScriptRunner
	metrics   *observability.Metrics
	log       *logger.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewHTTPLoader creates an HTTPLoader. runner may be nil, in which case
// scripts are fetched and discarded.
func NewHTTPLoader(cfg HTTPLoaderConfig, runner ScriptRunner) *HTTPLoader {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return &HTTPLoader{
		client:    client,
		scheme:    scheme,
		userAgent: cfg.UserAgent,
		runner:    runner,
		metrics:   cfg.Metrics,
		log:       logger.Get("page"),
	}
}

// Load starts fetching src and returns immediately.
func (l *HTTPLoader) Load(ctx context.Context, src Source) {
	url := src.Resolve(l.scheme)
	if url == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.log.Debug("loader closed, script skipped", logger.Fields(logger.FieldScript, url))
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		if err := l.fetch(ctx, url); err != nil {
			l.metrics.RecordError(ctx, "load", "page")
			l.log.WithContext(ctx).Warn("script load failed", logger.Fields(
				logger.FieldScript, url,
				logger.FieldError, err.Error(),
			))
			return
		}
		l.log.Debug("script loaded", logger.Fields(logger.FieldScript, url))
	}()
}

func (l *HTTPLoader) fetch(ctx context.Context, url string) error {
	ctx, span := observability.StartSpan(ctx, observability.SpanScriptLoad)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrScriptURL, url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	if l.userAgent != "" {
		req.Header.Set("User-Agent", l.userAgent)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("unexpected status %d", resp.StatusCode)
		observability.SetSpanError(ctx, err)
		return err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptSize+1))
	if err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	if len(body) > maxScriptSize {
		err := fmt.Errorf("script exceeds %d bytes", maxScriptSize)
		observability.SetSpanError(ctx, err)
		return err
	}
	if l.runner == nil {
		return nil
	}
	if err := l.runner.Eval(url, string(body)); err != nil {
		observability.SetSpanError(ctx, err)
		return err
	}
	return nil
}

// Close stops accepting loads and waits for in-flight ones or until ctx is
// done.
func (l *HTTPLoader) Close(ctx context.Context) error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
