package api

import (
	"strconv"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"parley/pkg/api/router"
	"parley/pkg/logger"
	"parley/pkg/telemetry"
	"parley/pkg/timeutil"
)

// MiddlewareConfig controls the request middleware. RPS <= 0 disables rate
// limiting.
type MiddlewareConfig struct {
	RPS   float64
	Burst int
}

// Middleware logs each request, applies the per-caller rate limit and
// counts responses by status code. Health probes bypass the limiter.
func Middleware(cfg MiddlewareConfig) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	var limiters *limiterPool
	if cfg.RPS > 0 {
		limiters = &limiterPool{rps: cfg.RPS, burst: cfg.Burst}
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			logger.LogRequestFast(ctx)
			defer func() {
				telemetry.HTTPRequests.WithLabelValues(string(ctx.Method()), strconv.Itoa(ctx.Response.StatusCode())).Inc()
			}()

			if limiters != nil && !probePath(ctx) && !limiters.Allow(limiterKey(ctx)) {
				telemetry.RateLimited.Inc()
				router.WriteJSONError(ctx, fasthttp.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next(ctx)
		}
	}
}

func probePath(ctx *fasthttp.RequestCtx) bool {
	switch string(ctx.Path()) {
	case "/healthz", "/readyz":
		return true
	}
	return false
}

// limiterKey buckets callers by identity, falling back to the client IP.
func limiterKey(ctx *fasthttp.RequestCtx) string {
	if id := router.Header(ctx, router.HeaderUserID); id != "" {
		return "user:" + id
	}
	return "ip:" + router.ClientIP(ctx)
}

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// limiterPool hands out one token bucket per key. Buckets idle for longer
// than ttl are dropped on the next access after cleanupPeriod.
type limiterPool struct {
	mu          sync.Mutex
	m           map[string]*limiterEntry
	rps         float64
	burst       int
	ttl         time.Duration
	lastCleanup time.Time
}

const (
	limiterTTL           = 10 * time.Minute
	limiterCleanupPeriod = time.Minute
)

func (p *limiterPool) get(key string) *rate.Limiter {
	now := timeutil.Now()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.m == nil {
		p.m = make(map[string]*limiterEntry)
		p.lastCleanup = now
	}
	if p.ttl == 0 {
		p.ttl = limiterTTL
	}
	if now.Sub(p.lastCleanup) >= limiterCleanupPeriod {
		cutoff := now.Add(-p.ttl)
		for k, e := range p.m {
			if e.lastSeen.Before(cutoff) {
				delete(p.m, k)
			}
		}
		p.lastCleanup = now
	}
	if e, ok := p.m[key]; ok {
		e.lastSeen = now
		return e.l
	}
	burst := p.burst
	if burst <= 0 {
		burst = 1
	}
	l := rate.NewLimiter(rate.Limit(p.rps), burst)
	p.m[key] = &limiterEntry{l: l, lastSeen: now}
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}
