package worker

import (
	"context"
	"log/slog"
	"time"
)

// runEvery calls tick immediately and then on every interval until ctx is done.
func runEvery(ctx context.Context, name string, interval time.Duration, tick func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := tick(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("worker tick failed", "worker", name, "error", err.Error())
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
