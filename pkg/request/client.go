package request

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"wikiroam/pkg/cache"
	"wikiroam/pkg/config"
	"wikiroam/pkg/logging"
	"wikiroam/pkg/tracker"
	"wikiroam/pkg/version"
)

// ErrMaxRetries is returned when every attempt hit a retryable failure.
var ErrMaxRetries = errors.New("max retries exceeded")

// StatusError is returned for non-retryable HTTP error responses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api error: status %d", e.Code)
}

// ClientConfig tunes the HTTP client.
type ClientConfig struct {
	Retries   int
	Timeout   time.Duration
	BaseDelay time.Duration
	MaxDelay  time.Duration
	CacheTTL  time.Duration // 0 means cached responses never expire
	Gap       time.Duration // pause between two requests to the same provider
	Contact   string
}

// NewClientConfig maps the file configuration onto ClientConfig.
func NewClientConfig(rc config.RequestConfig, contact string) ClientConfig {
	return ClientConfig{
		Retries:   rc.Retries,
		Timeout:   rc.Timeout.Std(),
		BaseDelay: rc.Backoff.BaseDelay.Std(),
		MaxDelay:  rc.Backoff.MaxDelay.Std(),
		CacheTTL:  rc.CacheTTL.Std(),
		Gap:       100 * time.Millisecond,
		Contact:   contact,
	}
}

// UserAgent builds the identifying header the Wikimedia API etiquette asks for.
func UserAgent(contact string) string {
	if contact == "" {
		return fmt.Sprintf("wikiroam/%s", version.Version)
	}
	return fmt.Sprintf("wikiroam/%s (%s)", version.Version, contact)
}

// Client handles HTTP requests with queuing, caching, and tracking.
// Requests to the same provider run one at a time.
type Client struct {
	httpClient *http.Client
	cache      cache.Cacher
	tracker    *tracker.Tracker
	backoff    *ProviderBackoff
	cfg        ClientConfig
	userAgent  string
	now        func() time.Time

	// Queues per provider
	queues map[string]chan job
	mu     sync.Mutex
}

type job struct {
	req      *http.Request
	cacheKey string
	respChan chan jobResult
}

type jobResult struct {
	body []byte
	err  error
}

// New creates a new Client. c may be nil to disable the persistent cache.
func New(c cache.Cacher, t *tracker.Tracker, cfg ClientConfig) *Client {
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if t == nil {
		t = tracker.New()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      c,
		tracker:    t,
		backoff:    NewProviderBackoff(cfg.BaseDelay, cfg.MaxDelay),
		cfg:        cfg,
		userAgent:  UserAgent(cfg.Contact),
		now:        time.Now,
		queues:     make(map[string]chan job),
	}
}

// Tracker exposes the request statistics.
func (c *Client) Tracker() *tracker.Tracker {
	return c.tracker
}

// Get performs a GET request. When cacheKey is set, a fresh cached response
// is returned without touching the network, and an expired one is served if
// the network request fails.
func (c *Client) Get(ctx context.Context, u, cacheKey string) ([]byte, error) {
	parsedURL, err := url.Parse(u)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	provider := normalizeProvider(parsedURL.Host)

	var stale []byte
	if cacheKey != "" && c.cache != nil {
		if val, storedAt, hit := c.cache.GetCache(ctx, cacheKey); hit {
			if c.cfg.CacheTTL <= 0 || c.now().Sub(storedAt) < c.cfg.CacheTTL {
				c.tracker.TrackCacheHit(provider)
				slog.Debug("Cache Hit", "provider", provider, "key", cacheKey)
				return val, nil
			}
			stale = val
		}
		c.tracker.TrackCacheMiss(provider)
		slog.Debug("Cache Miss", "provider", provider, "key", cacheKey, "expired", stale != nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	respChan := make(chan jobResult, 1)
	c.dispatch(provider, job{req: req, cacheKey: cacheKey, respChan: respChan})

	var res jobResult
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-respChan:
	}

	if res.err != nil && stale != nil && ctx.Err() == nil {
		c.tracker.TrackStaleServed(provider)
		slog.Warn("Serving expired cache entry", "provider", provider, "key", cacheKey, "error", res.err)
		return stale, nil
	}
	return res.body, res.err
}

// normalizeProvider groups hosts into rate-limit domains. Each language
// edition of the encyclopedia gets its own queue.
func normalizeProvider(host string) string {
	h := strings.ToLower(host)
	if i := strings.LastIndexByte(h, ':'); i >= 0 && !strings.Contains(h[i:], "]") {
		h = h[:i]
	}
	if lang, ok := strings.CutSuffix(h, ".wikipedia.org"); ok {
		lang = strings.TrimSuffix(lang, ".m")
		return "wikipedia:" + lang
	}
	if h == "wikipedia.org" || strings.HasSuffix(h, ".wikimedia.org") {
		return "wikimedia"
	}
	return h
}

// dispatch sends the job to the provider's queue, creating the queue/worker if needed.
func (c *Client) dispatch(provider string, j job) {
	c.mu.Lock()
	q, ok := c.queues[provider]
	if !ok {
		q = make(chan job, 100)
		c.queues[provider] = q
		go c.worker(provider, q)
	}
	c.mu.Unlock()

	// Blocks while the queue is full, throttling the caller
	select {
	case q <- j:
	case <-j.req.Context().Done():
		j.respChan <- jobResult{err: j.req.Context().Err()}
	}
}

// worker processes requests for a specific provider sequentially.
func (c *Client) worker(provider string, q <-chan job) {
	for j := range q {
		ctx := j.req.Context()
		if ctx.Err() != nil {
			logging.Trace(slog.Default(), "Job dropped from queue", "provider", provider, "error", ctx.Err())
			j.respChan <- jobResult{err: ctx.Err()}
			continue
		}

		if err := c.backoff.Wait(ctx, provider); err != nil {
			j.respChan <- jobResult{err: err}
			continue
		}

		j.req.Header.Set("User-Agent", c.userAgent)
		j.req.Header.Set("Accept", "application/json")

		start := time.Now()
		body, err := c.executeWithBackoff(j.req)
		logging.RequestLogger.Info("request",
			"provider", provider,
			"url", j.req.URL.String(),
			"duration", time.Since(start),
			"bytes", len(body),
			"error", err,
		)

		switch {
		case err == nil:
			c.tracker.TrackAPISuccess(provider)
			c.backoff.RecordSuccess(provider)
			if j.cacheKey != "" && c.cache != nil {
				if err := c.cache.SetCache(context.Background(), j.cacheKey, body); err != nil {
					slog.Error("Failed to cache response", "url", j.req.URL, "error", err)
				}
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// caller went away, not the provider's fault
		default:
			c.tracker.TrackAPIFailure(provider)
			c.backoff.RecordFailure(provider)
		}

		j.respChan <- jobResult{body: body, err: err}

		if c.cfg.Gap > 0 {
			time.Sleep(c.cfg.Gap)
		}
	}
}

// executeWithBackoff attempts the request, retrying network errors, 429 and 5xx.
func (c *Client) executeWithBackoff(req *http.Request) ([]byte, error) {
	ctx := req.Context()

	for attempt := 0; attempt < c.cfg.Retries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt > 0 {
			select {
			case <-time.After(c.backoff.calculateDelay(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		slog.Debug("Network Request", "host", req.URL.Host, "path", req.URL.Path, "attempt", attempt+1)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Request failed, retrying", "host", req.URL.Host, "attempt", attempt+1, "error", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			slog.Warn("API Backoff", "status", resp.StatusCode, "host", req.URL.Host, "attempt", attempt+1)
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, &StatusError{Code: resp.StatusCode, URL: req.URL.String()}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read error: %w", err)
		}
		return body, nil
	}

	return nil, ErrMaxRetries
}
