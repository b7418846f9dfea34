package probe

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	probes := []Probe{
		{Name: "ok", Check: func(ctx context.Context) error { return nil }, Critical: true},
		{Name: "minor", Check: func(ctx context.Context) error { return errors.New("minor issue") }},
	}

	results := Run(context.Background(), probes, 0)

	require.Len(t, results, 2)
	assert.True(t, results[0].Passed())
	assert.EqualError(t, results[1].Error, "minor issue")
	assert.Equal(t, "minor", results[1].Probe.Name)
}

func TestRun_TimeoutBoundsEachCheck(t *testing.T) {
	slow := Probe{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	start := time.Now()
	results := Run(context.Background(), []Probe{slow}, 20*time.Millisecond)

	assert.ErrorIs(t, results[0].Error, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRun_CancelledContextSkipsChecks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	results := Run(ctx, []Probe{{Name: "never", Check: func(context.Context) error {
		called = true
		return nil
	}}}, time.Second)

	assert.False(t, called)
	assert.ErrorIs(t, results[0].Error, context.Canceled)
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		wantErr string
	}{
		{
			name:    "all pass",
			results: []Result{{Probe: Probe{Name: "P1", Critical: true}}},
		},
		{
			name:    "critical failure",
			results: []Result{{Probe: Probe{Name: "P1", Critical: true}, Error: errors.New("fail")}},
			wantErr: "P1: fail",
		},
		{
			name:    "non-critical failure",
			results: []Result{{Probe: Probe{Name: "P1"}, Error: errors.New("fail")}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Analyze(tt.results)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	Report(&buf, []Result{
		{Probe: Probe{Name: "database", Critical: true}, Duration: 3 * time.Millisecond},
		{Probe: Probe{Name: "encyclopedia", Critical: true}, Error: errors.New("timeout")},
		{Probe: Probe{Name: "themes"}, Error: errors.New("no themes")},
	})

	out := buf.String()
	assert.Contains(t, out, "[PASS] database")
	assert.Contains(t, out, "[FAIL] encyclopedia")
	assert.Contains(t, out, "timeout")
	assert.Contains(t, out, "[WARN] themes")
}
