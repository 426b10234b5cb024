package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort         = 8080
	defaultBackend      = BackendPebble
	defaultRateRPS      = 200
	defaultRateBurst    = 400
	defaultMaxBodySize  = 1 << 20 // 1 MiB
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second

	// snapshot defaults: flush every minute
	defaultSnapshotCron = "* * * * *"

	// presence defaults
	defaultPresenceTTL   = 10 * time.Second
	defaultSweepInterval = 2 * time.Second

	// telemetry defaults
	defaultTelemetryDir           = "telemetry"
	defaultTelemetrySlow          = 200 * time.Millisecond
	defaultTelemetryBufferSize    = 64 * 1024
	defaultTelemetryFileMaxSize   = 40 * 1024 * 1024 // 40MB
	defaultTelemetryFlushInterval = 2 * time.Second
	defaultTelemetryQueueCapacity = 2048

	// sensor defaults
	defaultSensorPoll     = 10 * time.Second
	defaultDiskHighPct    = 95
	defaultDiskLowPct     = 90
	defaultMemHighPct     = 95
	defaultRecoveryWindow = time.Minute
)

const (
	BackendPebble = "pebble"
	BackendMemory = "memory"
)

// Addr returns the HTTP server address as host:port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	port := c.Server.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset tunable.
func (c *Config) ApplyDefaults() {
	if c.Server.Backend == "" {
		c.Server.Backend = defaultBackend
	}
	if c.Server.RateLimit.RPS <= 0 {
		c.Server.RateLimit.RPS = defaultRateRPS
	}
	if c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = defaultRateBurst
	}
	if c.Server.MaxBodySize.Int64() <= 0 {
		c.Server.MaxBodySize = SizeBytes(defaultMaxBodySize)
	}
	if c.Server.ReadTimeout.Duration() <= 0 {
		c.Server.ReadTimeout = Duration(defaultReadTimeout)
	}
	if c.Server.WriteTimeout.Duration() <= 0 {
		c.Server.WriteTimeout = Duration(defaultWriteTimeout)
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Snapshot.Cron == "" {
		c.Snapshot.Cron = defaultSnapshotCron
	}

	if c.Presence.TTL.Duration() <= 0 {
		c.Presence.TTL = Duration(defaultPresenceTTL)
	}
	if c.Presence.SweepInterval.Duration() <= 0 {
		c.Presence.SweepInterval = Duration(defaultSweepInterval)
	}

	t := &c.Telemetry
	if t.Dir == "" {
		t.Dir = defaultTelemetryDir
	}
	if t.SlowThreshold.Duration() <= 0 {
		t.SlowThreshold = Duration(defaultTelemetrySlow)
	}
	if t.BufferSize.Int64() <= 0 {
		t.BufferSize = SizeBytes(defaultTelemetryBufferSize)
	}
	if t.FileMaxSize.Int64() <= 0 {
		t.FileMaxSize = SizeBytes(defaultTelemetryFileMaxSize)
	}
	if t.FlushInterval.Duration() <= 0 {
		t.FlushInterval = Duration(defaultTelemetryFlushInterval)
	}
	if t.QueueCapacity <= 0 {
		t.QueueCapacity = defaultTelemetryQueueCapacity
	}

	sn := &c.Sensor
	if sn.PollInterval.Duration() <= 0 {
		sn.PollInterval = Duration(defaultSensorPoll)
	}
	if sn.DiskHighPct <= 0 {
		sn.DiskHighPct = defaultDiskHighPct
	}
	if sn.DiskLowPct <= 0 {
		sn.DiskLowPct = min(defaultDiskLowPct, sn.DiskHighPct)
	}
	if sn.MemHighPct <= 0 {
		sn.MemHighPct = defaultMemHighPct
	}
	if sn.RecoveryWindow.Duration() <= 0 {
		sn.RecoveryWindow = Duration(defaultRecoveryWindow)
	}
}

// ResolveConfigPath returns the config file path, preferring flag, then env.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("PARLEY_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
