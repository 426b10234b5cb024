package app

import (
	"errors"
	"net"

	"github.com/valyala/fasthttp"

	"parley/pkg/api"
	"parley/pkg/config/banner"
)

var errNotServing = errors.New("server not serving")

func (a *App) printBanner() {
	ver := a.version
	if a.commit != "" && a.commit != "none" {
		ver += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		ver += " @ " + a.buildDate
	}
	banner.PrintWithEff(a.eff, ver)
}

func (a *App) ready() error {
	if !a.serving.Load() {
		return errNotServing
	}
	if a.sensor != nil {
		return a.sensor.Healthy()
	}
	return nil
}

func (a *App) handler() fasthttp.RequestHandler {
	cfg := a.eff.Config
	h := api.New(api.Deps{
		Store:     a.store,
		Directory: a.dir,
		Presence:  a.presence,
		Search:    a.search,
		Snapshot:  a.scheduler.RunOnce,
		Ready:     a.ready,
		Sensor:    a.sensor,
		Version:   a.version,
	})
	return h.Handler(api.MiddlewareConfig{
		RPS:   cfg.Server.RateLimit.RPS,
		Burst: cfg.Server.RateLimit.Burst,
	})
}

// startHTTP binds the listener and serves in the background. Bind errors
// and serve errors are delivered on the returned channel.
func (a *App) startHTTP() <-chan error {
	cfg := a.eff.Config
	const readBufferSize = 64 * 1024

	a.srvFast = &fasthttp.Server{
		Name:               "parley",
		Handler:            a.handler(),
		ReadBufferSize:     readBufferSize,
		MaxRequestBodySize: int(cfg.Server.MaxBodySize.Int64()),
		ReadTimeout:        cfg.Server.ReadTimeout.Duration(),
		WriteTimeout:       cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:        2 * cfg.Server.ReadTimeout.Duration(),
	}

	errCh := make(chan error, 1)
	addr := a.eff.Addr
	if addr == "" {
		addr = cfg.Addr()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		errCh <- err
		return errCh
	}
	a.addr.Store(ln.Addr().String())
	a.serving.Store(true)
	close(a.listening)

	go func() {
		var err error
		if cert, key := cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile; cert != "" {
			err = a.srvFast.ServeTLS(ln, cert, key)
		} else {
			err = a.srvFast.Serve(ln)
		}
		a.serving.Store(false)
		if err != nil {
			errCh <- err
		}
	}()
	return errCh
}
