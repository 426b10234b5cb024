// Package snapshot runs the background loops of the server: the cron-driven
// flush of dirty conversations to the backend and the typing sweep.
package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"parley/pkg/logger"
	"parley/pkg/telemetry"
	"parley/pkg/timeutil"
)

// Flusher persists pending changes and reports how many conversations
// were written.
type Flusher interface {
	SaveDirty() (int, error)
}

// Scheduler flushes a Flusher on a cron schedule.
type Scheduler struct {
	cron    string
	flusher Flusher

	mu      sync.Mutex
	running bool

	// nextTick is replaced in tests.
	nextTick func(expr string, after time.Time) (time.Time, error)
	retry    time.Duration
}

func NewScheduler(cron string, f Flusher) *Scheduler {
	return &Scheduler{
		cron:    cron,
		flusher: f,
		nextTick: func(expr string, after time.Time) (time.Time, error) {
			return gronx.NextTickAfter(expr, after, false)
		},
		retry: 30 * time.Second,
	}
}

// Start runs the schedule until ctx is cancelled. The returned function
// stops the loop and waits for an in-flight flush to finish.
func (s *Scheduler) Start(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	logger.Info("snapshot_enabled", "cron", s.cron)
	go func() {
		defer close(done)
		s.loop(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		next, err := s.nextTick(s.cron, timeutil.Now())
		if err != nil {
			logger.Error("snapshot_nexttick_failed", "cron", s.cron, "error", err)
			if !sleep(ctx, s.retry) {
				return
			}
			continue
		}

		if wait := next.Sub(timeutil.Now()); wait > 0 {
			if !sleep(ctx, wait) {
				return
			}
		}
		if _, err := s.RunOnce(); err != nil {
			logger.Error("snapshot_run_error", "error", err)
		}
	}
}

// RunOnce flushes immediately. A call that overlaps a running flush is
// skipped and reports zero.
func (s *Scheduler) RunOnce() (int, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Debug("snapshot_run_skipped")
		telemetry.SnapshotRuns.WithLabelValues("skipped").Inc()
		return 0, nil
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	tr := telemetry.Track("snapshot.flush")
	defer tr.Finish()

	n, err := s.flusher.SaveDirty()
	telemetry.SnapshotSaved.Add(float64(n))
	if err != nil {
		telemetry.SnapshotRuns.WithLabelValues("error").Inc()
		return n, fmt.Errorf("snapshot flush: %w", err)
	}
	telemetry.SnapshotRuns.WithLabelValues("ok").Inc()
	if n > 0 {
		logger.Info("snapshot_run_complete", "saved", n)
	}
	return n, nil
}

// sleep waits for d or ctx, reporting false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
