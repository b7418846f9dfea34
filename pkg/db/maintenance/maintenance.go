package maintenance

import (
	"context"
	"log/slog"
	"time"

	"wikiroam/pkg/db"
)

// Run executes the startup housekeeping: response cache pruning and a
// planner statistics refresh. Failures are logged; startup is never blocked.
func Run(ctx context.Context, d *db.DB, cacheMaxAge time.Duration) {
	slog.Info("Starting database maintenance...")

	if cacheMaxAge > 0 {
		n, err := d.PruneCache(ctx, cacheMaxAge)
		if err != nil {
			slog.Error("Cache pruning failed", "error", err)
		} else {
			slog.Info("Cache pruning completed", "removed", n, "max_age", cacheMaxAge)
		}
	}

	if _, err := d.ExecContext(ctx, "PRAGMA optimize;"); err != nil {
		slog.Warn("PRAGMA optimize failed", "error", err)
	}
}
