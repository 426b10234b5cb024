package config

import (
	"fmt"
	"os"

	"github.com/adhocore/gronx"
)

// set defaults, fail fast on critical errors
func ValidateConfig(eff EffectiveConfigResult) error {
	cfg := eff.Config
	if cfg == nil {
		return fmt.Errorf("effective config is nil")
	}
	cfg.ApplyDefaults()

	switch cfg.Server.Backend {
	case BackendPebble:
		if eff.DBPath == "" {
			return fmt.Errorf("database path is empty: set --db flag, PARLEY_DB_PATH env, or server.db_path in config")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown server.backend %q: want %q or %q", cfg.Server.Backend, BackendPebble, BackendMemory)
	}

	// TLS cert/key presence check if one is set
	cert := cfg.Server.TLS.CertFile
	key := cfg.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	if cfg.Snapshot.IsEnabled() {
		if !gronx.New().IsValid(cfg.Snapshot.Cron) {
			return fmt.Errorf("invalid snapshot.cron: not a valid cron expression: %q", cfg.Snapshot.Cron)
		}
	}

	if cfg.Presence.SweepInterval.Duration() > cfg.Presence.TTL.Duration() {
		return fmt.Errorf("presence.sweep_interval (%s) must not exceed presence.ttl (%s)", cfg.Presence.SweepInterval, cfg.Presence.TTL)
	}

	sn := cfg.Sensor
	if sn.DiskHighPct > 100 || sn.MemHighPct > 100 {
		return fmt.Errorf("sensor thresholds are percentages: disk_high_pct=%d mem_high_pct=%d", sn.DiskHighPct, sn.MemHighPct)
	}
	if sn.DiskLowPct > sn.DiskHighPct {
		return fmt.Errorf("sensor.disk_low_pct (%d) must not exceed sensor.disk_high_pct (%d)", sn.DiskLowPct, sn.DiskHighPct)
	}
	return nil
}
