// Package probe runs the self checks behind "wikiroam doctor".
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// DefaultTimeout bounds a single check unless Run is given another one.
const DefaultTimeout = 5 * time.Second

// CheckFunc performs one check and returns nil if it passes.
type CheckFunc func(ctx context.Context) error

// Probe is a single named check.
type Probe struct {
	Name     string
	Check    CheckFunc
	Critical bool // a failure makes Analyze return an error
}

// Result holds the outcome of a single probe.
type Result struct {
	Probe    Probe
	Error    error
	Duration time.Duration
}

// Passed reports whether the check succeeded.
func (r Result) Passed() bool { return r.Error == nil }

// Run executes the probes in order, each bounded by timeout. A cancelled
// ctx fails the remaining probes without running them.
func Run(ctx context.Context, probes []Probe, timeout time.Duration) []Result {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	results := make([]Result, len(probes))

	for i, p := range probes {
		if err := ctx.Err(); err != nil {
			results[i] = Result{Probe: p, Error: err}
			continue
		}

		start := time.Now()
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		err := p.Check(checkCtx)
		cancel()

		results[i] = Result{
			Probe:    p,
			Error:    err,
			Duration: time.Since(start),
		}
	}

	return results
}

// Analyze logs every result and joins the errors of failed critical probes.
func Analyze(results []Result) error {
	var criticalErrors []error

	for _, r := range results {
		if r.Passed() {
			slog.Info("Check passed", "probe", r.Probe.Name, "duration", r.Duration.Round(time.Millisecond))
			continue
		}
		slog.Error("Check failed", "probe", r.Probe.Name, "critical", r.Probe.Critical, "error", r.Error)
		if r.Probe.Critical {
			criticalErrors = append(criticalErrors, fmt.Errorf("%s: %w", r.Probe.Name, r.Error))
		}
	}

	return errors.Join(criticalErrors...)
}

// Report writes one line per result.
func Report(w io.Writer, results []Result) {
	for _, r := range results {
		status := "PASS"
		switch {
		case r.Passed():
		case r.Probe.Critical:
			status = "FAIL"
		default:
			status = "WARN"
		}
		fmt.Fprintf(w, "[%s] %-14s %6v", status, r.Probe.Name, r.Duration.Round(time.Millisecond))
		if r.Error != nil {
			fmt.Fprintf(w, "  %v", r.Error)
		}
		fmt.Fprintln(w)
	}
}
