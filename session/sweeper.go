package session

import (
	"context"
	"log/slog"
	"time"
)

// minSweepInterval keeps the ticker from spinning on tiny ttls.
const minSweepInterval = time.Second

// StartSweeper runs a goroutine that expires idle sessions every interval
// until ctx is cancelled.
func StartSweeper(ctx context.Context, m *Manager, interval time.Duration, log *slog.Logger) {
	go sweepLoop(ctx, m, interval, log)
}

func sweepLoop(ctx context.Context, m *Manager, interval time.Duration, log *slog.Logger) {
	if interval < minSweepInterval {
		interval = minSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("session sweeper stopped")
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Debug("expired idle sessions", "count", n, "remaining", m.Len())
			}
		}
	}
}
