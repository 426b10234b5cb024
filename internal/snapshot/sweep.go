package snapshot

import (
	"context"
	"time"

	"parley/pkg/logger"
	"parley/pkg/telemetry"
)

// Sweeper drops typing facts older than ttlMillis.
type Sweeper interface {
	Sweep(ttlMillis int64) int
}

// RunSweeper sweeps every interval until ctx is cancelled.
func RunSweeper(ctx context.Context, s Sweeper, ttl, interval time.Duration) {
	if interval <= 0 {
		interval = ttl / 5
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	logger.Debug("typing_sweeper_started", "ttl", ttl.String(), "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(ttl.Milliseconds()); n > 0 {
				telemetry.TypingSwept.Add(float64(n))
				logger.Debug("typing_swept", "removed", n)
			}
		}
	}
}
