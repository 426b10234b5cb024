package app

import (
	"context"
	"errors"
	"fmt"

	"parley/pkg/logger"
	"parley/pkg/telemetry"
)

// Shutdown stops the server and background loops, flushes dirty
// conversations when configured to, and closes the backend. Calling it
// more than once is a no-op.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.shutOnce.Do(func() { err = a.shutdown(ctx) })
	return err
}

func (a *App) shutdown(ctx context.Context) error {
	logger.Info("shutdown_requested")
	var errs []error

	if a.srvFast != nil {
		a.serving.Store(false)
		done := make(chan error, 1)
		go func() { done <- a.srvFast.Shutdown() }()
		select {
		case err := <-done:
			if err != nil {
				logger.Error("http_shutdown_error", "error", err)
				errs = append(errs, err)
			}
		case <-ctx.Done():
			logger.Warn("http_shutdown_timeout")
			errs = append(errs, ctx.Err())
		}
	}

	if a.stopSnapshot != nil {
		a.stopSnapshot()
	}
	if a.sweepCancel != nil {
		a.sweepCancel()
		a.sweepWG.Wait()
	}
	if a.sensor != nil {
		a.sensor.Stop()
	}
	if a.unwatch != nil {
		a.unwatch()
	}

	if a.eff.Config.Snapshot.ShouldFlushOnShutdown() {
		n, err := a.store.SaveDirty()
		if err != nil {
			logger.Error("shutdown_flush_failed", "saved", n, "error", err)
			errs = append(errs, fmt.Errorf("flush on shutdown: %w", err))
		} else {
			logger.Info("shutdown_flushed", "saved", n)
		}
	}

	if err := a.backend.Close(); err != nil {
		logger.Error("backend_close_error", "error", err)
		errs = append(errs, err)
	}
	telemetry.Close()
	telemetry.SetSources(telemetry.Sources{})

	err := errors.Join(errs...)
	if err == nil {
		logger.Info("shutdown_complete")
	}
	return err
}
