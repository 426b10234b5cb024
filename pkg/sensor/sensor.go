// Package sensor samples disk usage of the database volume and heap usage
// of the process. Crossing a high watermark raises an alert that is held
// until the reading stays low for the recovery window.
package sensor

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"parley/pkg/logger"
	"parley/pkg/telemetry"
	"parley/pkg/timeutil"
)

// ErrDiskPressure is reported by Healthy while the disk alert is raised.
var ErrDiskPressure = errors.New("disk usage above high watermark")

type MonitorConfig struct {
	// Path is any path on the volume to watch.
	Path           string
	PollInterval   time.Duration
	DiskHighPct    int
	DiskLowPct     int
	MemHighPct     int
	RecoveryWindow time.Duration
}

// Reading is one sample, in percent.
type Reading struct {
	DiskUsedPct float64 `json:"disk_used_pct"`
	HeapUsedPct float64 `json:"heap_used_pct"`
}

type Status struct {
	Reading
	DiskAlert bool      `json:"disk_alert"`
	MemAlert  bool      `json:"mem_alert"`
	SampledAt time.Time `json:"sampled_at"`
}

// Probe takes a sample for the volume holding path.
type Probe func(path string) (Reading, error)

type Sensor struct {
	config MonitorConfig
	clock  timeutil.Clock
	probe  Probe

	mu            sync.Mutex
	status        Status
	lastDiskAlert time.Time
	lastMemAlert  time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type Option func(*Sensor)

func WithClock(c timeutil.Clock) Option { return func(s *Sensor) { s.clock = c } }

// WithProbe replaces the statfs and runtime based sampler.
func WithProbe(p Probe) Option { return func(s *Sensor) { s.probe = p } }

func New(config MonitorConfig, opts ...Option) *Sensor {
	if config.Path == "" {
		config.Path = "."
	}
	s := &Sensor{
		config: config,
		clock:  timeutil.System,
		probe:  ReadHardware,
		stopCh: make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start samples once and then polls until Stop.
func (s *Sensor) Start() {
	s.Check()
	s.wg.Add(1)
	go s.run()
}

func (s *Sensor) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Sensor) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Check()
		case <-s.stopCh:
			return
		}
	}
}

// Check takes a sample and updates the alerts. A failed probe leaves the
// previous status in place.
func (s *Sensor) Check() Status {
	r, err := s.probe(s.config.Path)
	if err != nil {
		logger.Warn("sensor_probe_failed", "path", s.config.Path, "error", err)
		return s.Status()
	}
	now := s.clock.Now()
	telemetry.DiskUsedPercent.Set(r.DiskUsedPct)
	telemetry.HeapUsedPercent.Set(r.HeapUsedPct)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Reading = r
	s.status.SampledAt = now

	cfg := s.config
	switch {
	case r.DiskUsedPct > float64(cfg.DiskHighPct):
		if !s.status.DiskAlert {
			logger.Warn("disk_usage_high", "used_pct", r.DiskUsedPct, "threshold_pct", cfg.DiskHighPct)
			telemetry.ResourceAlerts.WithLabelValues("disk").Inc()
			s.status.DiskAlert = true
		}
		s.lastDiskAlert = now
	case r.DiskUsedPct < float64(cfg.DiskLowPct) && s.status.DiskAlert:
		if now.Sub(s.lastDiskAlert) >= cfg.RecoveryWindow {
			logger.Info("disk_usage_recovered", "used_pct", r.DiskUsedPct, "low_pct", cfg.DiskLowPct)
			s.status.DiskAlert = false
		}
	}

	switch {
	case r.HeapUsedPct > float64(cfg.MemHighPct):
		if !s.status.MemAlert {
			logger.Warn("memory_usage_high", "used_pct", r.HeapUsedPct, "threshold_pct", cfg.MemHighPct)
			telemetry.ResourceAlerts.WithLabelValues("memory").Inc()
			s.status.MemAlert = true
		}
		s.lastMemAlert = now
	case s.status.MemAlert:
		if now.Sub(s.lastMemAlert) >= cfg.RecoveryWindow {
			logger.Info("memory_usage_recovered", "used_pct", r.HeapUsedPct)
			s.status.MemAlert = false
		}
	}
	return s.status
}

func (s *Sensor) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Healthy returns ErrDiskPressure while the disk alert is raised. Memory
// alerts are only logged.
func (s *Sensor) Healthy() error {
	st := s.Status()
	if st.DiskAlert {
		return fmt.Errorf("%w: %.1f%% used", ErrDiskPressure, st.DiskUsedPct)
	}
	return nil
}

// ReadHardware samples the filesystem holding path and the Go heap.
func ReadHardware(path string) (Reading, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Reading{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	var r Reading
	available := stat.Bavail * uint64(stat.Bsize)
	total := stat.Blocks * uint64(stat.Bsize)
	if total > 0 {
		r.DiskUsedPct = float64(total-available) / float64(total) * 100
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	if m.HeapSys > 0 {
		r.HeapUsedPct = float64(m.HeapInuse) / float64(m.HeapSys) * 100
	}
	return r, nil
}
