package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/valyala/fasthttp"

	"parley/internal/snapshot"
	"parley/pkg/config"
	"parley/pkg/directory"
	"parley/pkg/logger"
	"parley/pkg/presence"
	"parley/pkg/search"
	"parley/pkg/sensor"
	"parley/pkg/state"
	"parley/pkg/store"
	"parley/pkg/store/kv"
	"parley/pkg/telemetry"
)

// App groups server state and components.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	backend   kv.Backend
	store     *store.Store
	dir       *directory.Directory
	presence  *presence.Tracker
	search    *search.Engine
	scheduler *snapshot.Scheduler
	sensor    *sensor.Sensor // nil when disabled

	stopSnapshot func()
	sweepCancel  context.CancelFunc
	unwatch      func()
	sweepWG      sync.WaitGroup

	srvFast   *fasthttp.Server
	listening chan struct{}
	addr      atomic.Value // string, set once listening
	serving   atomic.Bool
	shutOnce  sync.Once
}

// New opens the backend, loads persisted conversations and display names
// and builds the core components. It does not start the HTTP server or the
// background loops; Run does.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	if eff.Config == nil {
		return nil, fmt.Errorf("effective config is nil")
	}
	cfg := eff.Config
	cfg.ApplyDefaults()

	backend, err := openBackend(eff)
	if err != nil {
		return nil, err
	}

	st := store.New(store.WithBackend(backend))
	if err := st.LoadAll(); err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("load conversations: %w", err)
	}
	dir := directory.FromBackend(backend)
	if err := dir.Load(); err != nil {
		_ = backend.Close()
		return nil, err
	}
	pres := presence.New()
	unwatch := pres.Subscribe(func(cid string) {
		telemetry.TypingChanges.Inc()
		logger.Debug("typing_changed", "conversation", cid)
	})

	telemetry.SetSources(telemetry.Sources{
		Conversations: func() int { return st.Stats().Conversations },
		Messages:      func() int { return st.Stats().Messages },
		Dirty:         func() int { return st.Stats().Dirty },
		Typing:        pres.Len,
	})
	if cfg.Telemetry.Enabled {
		if err := telemetry.Init(telemetryOptions(eff)); err != nil {
			unwatch()
			_ = backend.Close()
			return nil, fmt.Errorf("init telemetry: %w", err)
		}
	}

	stats := st.Stats()
	logger.LogConfigSummary("storage_summary", []string{
		fmt.Sprintf("backend: %s", cfg.Server.Backend),
		fmt.Sprintf("conversations: %s", humanize.Comma(int64(stats.Conversations))),
		fmt.Sprintf("messages: %s", humanize.Comma(int64(stats.Messages))),
		fmt.Sprintf("max_body_size: %s", cfg.Server.MaxBodySize),
	})

	var sn *sensor.Sensor
	if cfg.Sensor.IsEnabled() {
		sn = sensor.New(sensorConfig(eff))
	}

	return &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		backend:   backend,
		store:     st,
		dir:       dir,
		presence:  pres,
		search:    search.NewEngine(st),
		scheduler: snapshot.NewScheduler(cfg.Snapshot.Cron, st),
		sensor:    sn,
		unwatch:   unwatch,
		listening: make(chan struct{}),
	}, nil
}

func openBackend(eff config.EffectiveConfigResult) (kv.Backend, error) {
	if eff.Config.Server.Backend == config.BackendMemory {
		logger.Warn("memory_backend_selected", "msg", "data is lost on restart")
		return kv.NewMemory(), nil
	}
	path := state.StorePath(eff.DBPath)
	db, err := kv.OpenPebble(path, kv.PebbleOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", path, err)
	}
	return db, nil
}

// telemetryOptions places a relative trace dir under the state directory.
func telemetryOptions(eff config.EffectiveConfigResult) telemetry.Options {
	t := eff.Config.Telemetry
	dir := t.Dir
	if !filepath.IsAbs(dir) && eff.DBPath != "" {
		dir = filepath.Join(state.PathsFor(eff.DBPath).State, dir)
	}
	return telemetry.Options{
		Dir:           dir,
		BufferSize:    int(t.BufferSize.Int64()),
		QueueCapacity: t.QueueCapacity,
		FlushInterval: t.FlushInterval.Duration(),
		MaxFileSize:   t.FileMaxSize.Int64(),
		SlowThreshold: t.SlowThreshold.Duration(),
	}
}

// sensorConfig watches the volume holding the database, or the working
// directory for the memory backend.
func sensorConfig(eff config.EffectiveConfigResult) sensor.MonitorConfig {
	s := eff.Config.Sensor
	path := "."
	if eff.DBPath != "" && eff.Config.Server.Backend != config.BackendMemory {
		path = state.StorePath(eff.DBPath)
	}
	return sensor.MonitorConfig{
		Path:           path,
		PollInterval:   s.PollInterval.Duration(),
		DiskHighPct:    s.DiskHighPct,
		DiskLowPct:     s.DiskLowPct,
		MemHighPct:     s.MemHighPct,
		RecoveryWindow: s.RecoveryWindow.Duration(),
	}
}

// Run starts the background loops and the HTTP server and blocks until ctx
// is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()
	cfg := a.eff.Config

	if cfg.Snapshot.IsEnabled() {
		a.stopSnapshot = a.scheduler.Start(ctx)
	} else {
		logger.Info("snapshot_disabled")
	}

	if a.sensor != nil {
		a.sensor.Start()
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	a.sweepCancel = cancel
	a.sweepWG.Add(1)
	go func() {
		defer a.sweepWG.Done()
		snapshot.RunSweeper(sweepCtx, a.presence, cfg.Presence.TTL.Duration(), cfg.Presence.SweepInterval.Duration())
	}()

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Addr is the bound listen address once the server is up.
func (a *App) Addr() string {
	s, _ := a.addr.Load().(string)
	return s
}

// Listening is closed once the HTTP listener is bound.
func (a *App) Listening() <-chan struct{} { return a.listening }
