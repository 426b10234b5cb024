package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
)

// holds parsed command-line flag values and which were set
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// holds the result of LoadEffectiveConfig
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "flags", "config", or "env"
}

// parses command-line flags; only addr, db and config are accepted
func ParseConfigFlags(args []string) (Flags, error) {
	set := flag.NewFlagSet("parley", flag.ContinueOnError)
	addrPtr := set.String("addr", ":8080", "HTTP listen address")
	dbPtr := set.String("db", "./.database", "Pebble DB path")
	cfgPtr := set.String("config", "./config.yaml", "Path to config file")
	if err := set.Parse(args); err != nil {
		return Flags{}, err
	}

	// record which flags were set explicitly
	setFlags := make(map[string]bool)
	set.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}, nil
}

// loads config from file, returns config, found bool, and error
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := LoadConfigFile(cfgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// loads PARLEY_* environment variables into a new Config; reports whether any was set
func ParseConfigEnvs() (*Config, bool) {
	envs := map[string]string{
		"ADDR":           os.Getenv("PARLEY_ADDR"),
		"SERVER_ADDRESS": os.Getenv("PARLEY_SERVER_ADDRESS"),
		"SERVER_PORT":    os.Getenv("PARLEY_SERVER_PORT"),
		"DB_PATH":        os.Getenv("PARLEY_DB_PATH"),
		"BACKEND":        os.Getenv("PARLEY_BACKEND"),
		"TLS_CERT":       os.Getenv("PARLEY_TLS_CERT"),
		"TLS_KEY":        os.Getenv("PARLEY_TLS_KEY"),
		"RATE_RPS":       os.Getenv("PARLEY_RATE_RPS"),
		"RATE_BURST":     os.Getenv("PARLEY_RATE_BURST"),
		"MAX_BODY_SIZE":  os.Getenv("PARLEY_MAX_BODY_SIZE"),

		// logging
		"LOG_LEVEL": os.Getenv("PARLEY_LOG_LEVEL"),

		// snapshots
		"SNAPSHOT_ENABLED":           os.Getenv("PARLEY_SNAPSHOT_ENABLED"),
		"SNAPSHOT_CRON":              os.Getenv("PARLEY_SNAPSHOT_CRON"),
		"SNAPSHOT_FLUSH_ON_SHUTDOWN": os.Getenv("PARLEY_SNAPSHOT_FLUSH_ON_SHUTDOWN"),

		// presence
		"PRESENCE_TTL":            os.Getenv("PARLEY_PRESENCE_TTL"),
		"PRESENCE_SWEEP_INTERVAL": os.Getenv("PARLEY_PRESENCE_SWEEP_INTERVAL"),

		// telemetry
		"TELEMETRY_ENABLED":        os.Getenv("PARLEY_TELEMETRY_ENABLED"),
		"TELEMETRY_DIR":            os.Getenv("PARLEY_TELEMETRY_DIR"),
		"TELEMETRY_SLOW_THRESHOLD": os.Getenv("PARLEY_TELEMETRY_SLOW_THRESHOLD"),

		// sensor
		"SENSOR_ENABLED":       os.Getenv("PARLEY_SENSOR_ENABLED"),
		"SENSOR_POLL_INTERVAL": os.Getenv("PARLEY_SENSOR_POLL_INTERVAL"),
		"SENSOR_DISK_HIGH_PCT": os.Getenv("PARLEY_SENSOR_DISK_HIGH_PCT"),
		"SENSOR_DISK_LOW_PCT":  os.Getenv("PARLEY_SENSOR_DISK_LOW_PCT"),
	}

	envUsed := false
	for _, v := range envs {
		if v != "" {
			envUsed = true
			break
		}
	}
	envCfg := &Config{}

	parseBool := func(v string) bool {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes":
			return true
		default:
			return false
		}
	}
	parseDuration := func(v string) Duration {
		d, _ := ParseDuration(v)
		return d
	}

	if v := envs["ADDR"]; v != "" {
		if h, p, err := net.SplitHostPort(v); err == nil {
			envCfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				envCfg.Server.Port = pi
			}
		} else {
			envCfg.Server.Address = v
		}
	} else {
		if host := envs["SERVER_ADDRESS"]; host != "" {
			envCfg.Server.Address = host
		}
		if port := envs["SERVER_PORT"]; port != "" {
			if pi, err := strconv.Atoi(port); err == nil {
				envCfg.Server.Port = pi
			}
		}
	}
	if v := envs["DB_PATH"]; v != "" {
		envCfg.Server.DBPath = v
	}
	if v := envs["BACKEND"]; v != "" {
		envCfg.Server.Backend = strings.ToLower(strings.TrimSpace(v))
	}
	if c := envs["TLS_CERT"]; c != "" {
		envCfg.Server.TLS.CertFile = c
	}
	if k := envs["TLS_KEY"]; k != "" {
		envCfg.Server.TLS.KeyFile = k
	}
	if v := envs["RATE_RPS"]; v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			envCfg.Server.RateLimit.RPS = f
		}
	}
	if v := envs["RATE_BURST"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Server.RateLimit.Burst = n
		}
	}
	if v := envs["MAX_BODY_SIZE"]; v != "" {
		if s, err := ParseSizeBytes(v); err == nil {
			envCfg.Server.MaxBodySize = s
		}
	}

	if v := envs["LOG_LEVEL"]; v != "" {
		envCfg.Logging.Level = strings.TrimSpace(v)
	}

	if v := envs["SNAPSHOT_ENABLED"]; v != "" {
		b := parseBool(v)
		envCfg.Snapshot.Enabled = &b
	}
	if v := envs["SNAPSHOT_CRON"]; v != "" {
		envCfg.Snapshot.Cron = v
	}
	if v := envs["SNAPSHOT_FLUSH_ON_SHUTDOWN"]; v != "" {
		b := parseBool(v)
		envCfg.Snapshot.FlushOnShutdown = &b
	}

	if v := envs["PRESENCE_TTL"]; v != "" {
		envCfg.Presence.TTL = parseDuration(v)
	}
	if v := envs["PRESENCE_SWEEP_INTERVAL"]; v != "" {
		envCfg.Presence.SweepInterval = parseDuration(v)
	}

	if v := envs["TELEMETRY_ENABLED"]; v != "" {
		envCfg.Telemetry.Enabled = parseBool(v)
	}
	if v := envs["TELEMETRY_DIR"]; v != "" {
		envCfg.Telemetry.Dir = v
	}
	if v := envs["TELEMETRY_SLOW_THRESHOLD"]; v != "" {
		envCfg.Telemetry.SlowThreshold = parseDuration(v)
	}

	if v := envs["SENSOR_ENABLED"]; v != "" {
		b := parseBool(v)
		envCfg.Sensor.Enabled = &b
	}
	if v := envs["SENSOR_POLL_INTERVAL"]; v != "" {
		envCfg.Sensor.PollInterval = parseDuration(v)
	}
	if v := envs["SENSOR_DISK_HIGH_PCT"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Sensor.DiskHighPct = n
		}
	}
	if v := envs["SENSOR_DISK_LOW_PCT"]; v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			envCfg.Sensor.DiskLowPct = n
		}
	}
	return envCfg, envUsed
}

// decides which single source to use (flags, config file, or env) and
// returns the effective config plus resolved addr and dbPath. if --config
// is set, only the config file is used; otherwise flags if set (addr/db
// only, the rest comes from the file or env); else config file if present;
// else env
func LoadEffectiveConfig(flags Flags, fileCfg *Config, fileExists bool, envCfg *Config) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult
	if fileCfg == nil {
		fileCfg = &Config{}
	}
	if envCfg == nil {
		envCfg = &Config{}
	}

	if flags.Set["config"] {
		if !fileExists {
			return res, fmt.Errorf("config file %s not found", flags.Config)
		}
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.DBPath = fileCfg.Server.DBPath
		res.Source = "config"
		return res, nil
	}

	if flags.Set["addr"] || flags.Set["db"] {
		base := envCfg
		if fileExists {
			base = fileCfg
		}
		out := *base
		addr := flags.Addr
		if !flags.Set["addr"] {
			addr = base.Addr()
		}
		dbPath := flags.DB
		if !flags.Set["db"] {
			if p := strings.TrimSpace(base.Server.DBPath); p != "" {
				dbPath = p
			}
		}
		out.Server.Address, out.Server.Port = splitAddr(addr)
		out.Server.DBPath = dbPath
		res.Config = &out
		res.Addr = addr
		res.DBPath = dbPath
		res.Source = "flags"
		return res, nil
	}

	if fileExists {
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.DBPath = fileCfg.Server.DBPath
		res.Source = "config"
		return res, nil
	}
	res.Config = envCfg
	res.Addr = envCfg.Addr()
	res.DBPath = envCfg.Server.DBPath
	res.Source = "env"
	return res, nil
}

// splits host:port, tolerating a bare host
func splitAddr(a string) (string, int) {
	h, p, err := net.SplitHostPort(a)
	if err != nil {
		return a, 0
	}
	pi, _ := strconv.Atoi(p)
	return h, pi
}
