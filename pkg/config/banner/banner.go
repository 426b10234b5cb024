package banner

import (
	"fmt"
	"io"
	"os"

	"parley/pkg/config"
)

const banner = `
 ____   _    ____  _     _______   __
|  _ \ / \  |  _ \| |   | ____\ \ / /
| |_) / _ \ | |_) | |   |  _|  \ V /
|  __/ ___ \|  _ <| |___| |___  | |
|_| /_/   \_\_| \_\_____|_____| |_|
`

// PrintWithEff prints the banner to stdout.
func PrintWithEff(eff config.EffectiveConfigResult, version string) {
	Print(os.Stdout, eff, version)
}

// Print writes the startup banner and a short readiness checklist.
func Print(w io.Writer, eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Fprint(w, banner)
	fmt.Fprintln(w, "== Config =====================================================")
	fmt.Fprintf(w, "Listen:   %s\n", addr)
	if version != "" {
		fmt.Fprintf(w, "Version:  %s\n", version)
	}
	fmt.Fprintf(w, "Config:   %s\n", src)

	fmt.Fprintln(w, "\n== Production? =================================================")
	cfg := eff.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	switch cfg.Server.Backend {
	case config.BackendMemory:
		fmt.Fprintln(w, "- Storage: memory (nothing survives a restart)")
	default:
		if eff.DBPath != "" {
			fmt.Fprintf(w, "- Storage: pebble at %s\n", eff.DBPath)
		} else {
			fmt.Fprintln(w, "- Storage: pebble, path not set (use --db or PARLEY_DB_PATH)")
		}
	}

	if cfg.Server.TLS.CertFile != "" {
		fmt.Fprintln(w, "- TLS: enabled")
	} else {
		fmt.Fprintln(w, "- TLS: disabled (terminate TLS in front of parley)")
	}

	if cfg.Snapshot.IsEnabled() {
		fmt.Fprintf(w, "- Snapshots: enabled (cron=%s)\n", cfg.Snapshot.Cron)
	} else {
		fmt.Fprintln(w, "- Snapshots: disabled (changes are saved only on shutdown)")
	}

	fmt.Fprintf(w, "- Typing TTL: %s, swept every %s\n", cfg.Presence.TTL, cfg.Presence.SweepInterval)
	fmt.Fprintf(w, "- Rate limit: %.0f rps, burst %d\n", cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
	fmt.Fprintln(w)
}
