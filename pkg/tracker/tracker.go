package tracker

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// Tracker counts request outcomes per provider (e.g. "wikipedia:en").
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*counters
}

type counters struct {
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	staleServed atomic.Int64
	apiSuccess  atomic.Int64
	apiFailures atomic.Int64
	apiEmpty    atomic.Int64
}

// ProviderStats is a point-in-time copy of one provider's counters.
type ProviderStats struct {
	CacheHits   int64
	CacheMisses int64
	StaleServed int64
	APISuccess  int64
	APIFailures int64
	APIEmpty    int64
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*counters),
	}
}

func (t *Tracker) get(provider string) *counters {
	t.mu.RLock()
	c, ok := t.stats[provider]
	t.mu.RUnlock()
	if ok {
		return c
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok = t.stats[provider]; ok {
		return c
	}
	c = &counters{}
	t.stats[provider] = c
	return c
}

func (t *Tracker) TrackCacheHit(provider string)   { t.get(provider).cacheHits.Add(1) }
func (t *Tracker) TrackCacheMiss(provider string)  { t.get(provider).cacheMisses.Add(1) }
func (t *Tracker) TrackAPISuccess(provider string) { t.get(provider).apiSuccess.Add(1) }
func (t *Tracker) TrackAPIFailure(provider string) { t.get(provider).apiFailures.Add(1) }

// TrackStaleServed records a fallback to an expired cache entry after the API failed.
func (t *Tracker) TrackStaleServed(provider string) { t.get(provider).staleServed.Add(1) }

// TrackAPIEmpty records a successful call that returned no results.
func (t *Tracker) TrackAPIEmpty(provider string) { t.get(provider).apiEmpty.Add(1) }

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]ProviderStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]ProviderStats, len(t.stats))
	for k, c := range t.stats {
		result[k] = ProviderStats{
			CacheHits:   c.cacheHits.Load(),
			CacheMisses: c.cacheMisses.Load(),
			StaleServed: c.staleServed.Load(),
			APISuccess:  c.apiSuccess.Load(),
			APIFailures: c.apiFailures.Load(),
			APIEmpty:    c.apiEmpty.Load(),
		}
	}
	return result
}

// LogSummary writes one line per provider, sorted by name.
func (t *Tracker) LogSummary(logger *slog.Logger) {
	snap := t.Snapshot()
	names := make([]string, 0, len(snap))
	for k := range snap {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		s := snap[name]
		logger.Info("Request stats",
			"provider", name,
			"cache_hits", s.CacheHits,
			"cache_misses", s.CacheMisses,
			"stale_served", s.StaleServed,
			"api_success", s.APISuccess,
			"api_failures", s.APIFailures,
			"api_empty", s.APIEmpty,
		)
	}
}
