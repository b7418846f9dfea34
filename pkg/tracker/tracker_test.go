package tracker

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestTracker(t *testing.T) {
	tr := New()
	provider := "wikipedia:en"

	if stats := tr.Snapshot(); len(stats) != 0 {
		t.Errorf("Expected empty stats, got %d", len(stats))
	}

	tr.TrackCacheHit(provider)
	tr.TrackCacheMiss(provider)
	tr.TrackStaleServed(provider)
	tr.TrackAPISuccess(provider)
	tr.TrackAPIFailure(provider)
	tr.TrackAPIEmpty(provider)

	pStats, ok := tr.Snapshot()[provider]
	if !ok {
		t.Fatalf("Expected stats for provider %s", provider)
	}

	want := ProviderStats{CacheHits: 1, CacheMisses: 1, StaleServed: 1, APISuccess: 1, APIFailures: 1, APIEmpty: 1}
	if pStats != want {
		t.Errorf("got %+v, want %+v", pStats, want)
	}
}

func TestTrackerConcurrent(t *testing.T) {
	tr := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				tr.TrackCacheHit("wikipedia:de")
			}
		}()
	}
	wg.Wait()

	if got := tr.Snapshot()["wikipedia:de"].CacheHits; got != 1000 {
		t.Errorf("Expected 1000 cache hits, got %d", got)
	}
}

func TestLogSummary(t *testing.T) {
	tr := New()
	tr.TrackAPISuccess("wikipedia:fr")
	tr.TrackAPIFailure("wikipedia:de")

	var buf bytes.Buffer
	tr.LogSummary(slog.New(slog.NewTextHandler(&buf, nil)))

	out := buf.String()
	de := strings.Index(out, "provider=wikipedia:de")
	fr := strings.Index(out, "provider=wikipedia:fr")
	if de < 0 || fr < 0 {
		t.Fatalf("missing provider lines in %q", out)
	}
	if de > fr {
		t.Errorf("providers should be sorted, got %q", out)
	}
}
