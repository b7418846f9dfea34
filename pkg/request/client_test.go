package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikiroam/pkg/db"
	"wikiroam/pkg/store"
)

func testConfig() ClientConfig {
	return ClientConfig{
		Retries:   3,
		Timeout:   5 * time.Second,
		BaseDelay: 5 * time.Millisecond,
		MaxDelay:  20 * time.Millisecond,
		CacheTTL:  time.Hour,
		Contact:   "test@example.org",
	}
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "client_test.db"))
	require.NoError(t, err)
	s := store.NewSQLiteStore(d)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// memCache is an in-memory Cacher with controllable timestamps.
type memCache struct {
	mu      sync.Mutex
	vals    map[string][]byte
	storeAt map[string]time.Time
}

func newMemCache() *memCache {
	return &memCache{vals: map[string][]byte{}, storeAt: map[string]time.Time{}}
}

func (m *memCache) GetCache(_ context.Context, key string) ([]byte, time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vals[key]
	return v, m.storeAt[key], ok
}

func (m *memCache) SetCache(_ context.Context, key string, val []byte) error {
	m.put(key, val, time.Now())
	return nil
}

func (m *memCache) put(key string, val []byte, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vals[key] = val
	m.storeAt[key] = at
}

func TestGet_Sequential(t *testing.T) {
	var conc, total int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&conc, 1)
		defer atomic.AddInt32(&conc, -1)
		atomic.AddInt32(&total, 1)

		if current > 1 {
			t.Errorf("Concurrency detected! Expected sequential.")
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte("ok"))
	}))
	defer svr.Close()

	client := New(newTestStore(t), nil, testConfig())

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Get(context.Background(), svr.URL, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(3), atomic.LoadInt32(&total))
}

func TestGet_Retry(t *testing.T) {
	var attempts int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("success"))
	}))
	defer svr.Close()

	client := New(nil, nil, testConfig())

	body, err := client.Get(context.Background(), svr.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "success", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestGet_ClientErrorNotRetried(t *testing.T) {
	var attempts int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer svr.Close()

	client := New(nil, nil, testConfig())
	_, err := client.Get(context.Background(), svr.URL, "")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestGet_UserAgent(t *testing.T) {
	var ua atomic.Value
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("{}"))
	}))
	defer svr.Close()

	client := New(nil, nil, testConfig())
	_, err := client.Get(context.Background(), svr.URL, "")
	require.NoError(t, err)

	got := ua.Load().(string)
	assert.True(t, strings.HasPrefix(got, "wikiroam/"), got)
	assert.Contains(t, got, "test@example.org")
}

func TestGet_Cache(t *testing.T) {
	var hits int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("fresh"))
	}))
	defer svr.Close()

	tests := []struct {
		name       string
		seed       []byte
		seedAge    time.Duration
		wantBody   string
		wantHits   int32
		wantCached bool
	}{
		{name: "Miss_FetchesAndStores", wantBody: "fresh", wantHits: 1, wantCached: true},
		{name: "FreshHit_NoNetwork", seed: []byte("cached"), seedAge: time.Minute, wantBody: "cached", wantHits: 0},
		{name: "Expired_Refetches", seed: []byte("old"), seedAge: 2 * time.Hour, wantBody: "fresh", wantHits: 1, wantCached: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			atomic.StoreInt32(&hits, 0)
			mc := newMemCache()
			if tt.seed != nil {
				mc.put("k", tt.seed, time.Now().Add(-tt.seedAge))
			}
			client := New(mc, nil, testConfig())

			body, err := client.Get(context.Background(), svr.URL, "k")
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, string(body))
			assert.Equal(t, tt.wantHits, atomic.LoadInt32(&hits))
			if tt.wantCached {
				v, _, ok := mc.GetCache(context.Background(), "k")
				require.True(t, ok)
				assert.Equal(t, "fresh", string(v))
			}
		})
	}
}

func TestGet_StaleOnError(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer svr.Close()

	mc := newMemCache()
	mc.put("k", []byte("old but useful"), time.Now().Add(-48*time.Hour))

	cfg := testConfig()
	cfg.Retries = 2
	client := New(mc, nil, cfg)

	body, err := client.Get(context.Background(), svr.URL, "k")
	require.NoError(t, err)
	assert.Equal(t, "old but useful", string(body))

	stats := client.Tracker().Snapshot()["127.0.0.1"]
	assert.Equal(t, int64(1), stats.StaleServed)
	assert.Equal(t, int64(1), stats.APIFailures)
	assert.Equal(t, int64(1), stats.CacheMisses)

	_, err = client.Get(context.Background(), svr.URL, "no-such-key")
	assert.ErrorIs(t, err, ErrMaxRetries)
}

func TestGet_CancelledWhileQueued(t *testing.T) {
	release := make(chan struct{})
	var served int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&served, 1)
		<-release
		_, _ = w.Write([]byte("ok"))
	}))
	defer svr.Close()

	client := New(nil, nil, testConfig())

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		_, _ = client.Get(context.Background(), svr.URL, "")
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&served) == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := client.Get(ctx, svr.URL+"/second", "")
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled Get did not return")
	}

	close(release)
	<-firstDone
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&served), "cancelled job must not reach the server")
}

func TestGet_PersistentStore(t *testing.T) {
	var hits int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"query":{}}`))
	}))
	defer svr.Close()

	st := newTestStore(t)
	client := New(st, nil, testConfig())

	for i := 0; i < 2; i++ {
		body, err := client.Get(context.Background(), svr.URL, "wp:en:detail:1")
		require.NoError(t, err)
		assert.Equal(t, `{"query":{}}`, string(body))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
