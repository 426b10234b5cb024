package api

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"parley/pkg/api/docs"
	"parley/pkg/api/router"
)

var (
	heapAlloc = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "parley_heap_alloc_bytes",
			Help: "Current heap allocation in bytes.",
		},
		func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.HeapAlloc)
		},
	)

	gcPauseTotal = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "parley_gc_pause_total_ns",
			Help: "Total GC pause time in nanoseconds.",
		},
		func() float64 {
			var stats runtime.MemStats
			runtime.ReadMemStats(&stats)
			return float64(stats.PauseTotalNs)
		},
	)
)

func init() {
	prometheus.MustRegister(heapAlloc)
	prometheus.MustRegister(gcPauseTotal)
}

// wrapHTTPHandler adapts a net/http handler to fasthttp.
func wrapHTTPHandler(h http.Handler) fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(h)
}

// RegisterRoutes wires every endpoint onto r.
func (a *API) RegisterRoutes(r *router.Router) {
	r.GET("/healthz", a.Healthz)
	r.GET("/readyz", a.Readyz)

	// conversations
	r.GET("/v1/conversations", a.ListConversations)
	r.PUT("/v1/conversations/{cid}", a.SetDisplayName)

	// messages
	r.POST("/v1/conversations/{cid}/messages", a.SendMessage)
	r.GET("/v1/conversations/{cid}/messages", a.ListMessages)
	r.GET("/v1/conversations/{cid}/groups", a.ListGroups)
	r.GET("/v1/conversations/{cid}/pinned", a.ListPinned)
	r.GET("/v1/conversations/{cid}/messages/{id}", a.GetMessage)
	r.PUT("/v1/conversations/{cid}/messages/{id}", a.EditMessage)
	r.DELETE("/v1/conversations/{cid}/messages/{id}", a.DeleteMessage)

	// threads
	r.POST("/v1/conversations/{cid}/messages/{id}/replies", a.Reply)
	r.GET("/v1/conversations/{cid}/messages/{id}/replies", a.ListReplies)

	// reactions, flags, polls
	r.POST("/v1/conversations/{cid}/messages/{id}/reactions", a.AddReaction)
	r.DELETE("/v1/conversations/{cid}/messages/{id}/reactions", a.RemoveReaction)
	r.POST("/v1/conversations/{cid}/messages/{id}/pin", a.flag(a.store.Pin))
	r.DELETE("/v1/conversations/{cid}/messages/{id}/pin", a.flag(a.store.Unpin))
	r.POST("/v1/conversations/{cid}/messages/{id}/bookmark", a.flag(a.store.Bookmark))
	r.DELETE("/v1/conversations/{cid}/messages/{id}/bookmark", a.flag(a.store.Unbookmark))
	r.POST("/v1/conversations/{cid}/messages/{id}/votes", a.Vote)
	r.DELETE("/v1/conversations/{cid}/messages/{id}/votes", a.RetractVote)

	// presence
	r.POST("/v1/conversations/{cid}/typing", a.StartTyping)
	r.DELETE("/v1/conversations/{cid}/typing", a.StopTyping)
	r.GET("/v1/conversations/{cid}/typing", a.ListTyping)

	r.GET("/v1/search", a.Search)

	// admin
	r.GET("/admin/metrics", wrapHTTPHandler(promhttp.Handler()))
	r.GET("/admin/stats", a.Stats)
	r.POST("/admin/snapshot", a.Snapshot)

	// api docs
	r.GET(docs.DocumentPath, wrapHTTPHandler(docs.DocumentHandler()))
	r.GET("/docs", func(ctx *fasthttp.RequestCtx) {
		ctx.Redirect("/docs/index.html", fasthttp.StatusMovedPermanently)
	})
	r.GET("/docs/{file}", wrapHTTPHandler(docs.UI()))
}

// Handler returns the routed handler wrapped with mw.
func (a *API) Handler(mw MiddlewareConfig) fasthttp.RequestHandler {
	r := router.New()
	a.RegisterRoutes(r)
	r.NotFound(func(ctx *fasthttp.RequestCtx) {
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, "not found")
	})
	return Middleware(mw)(r.Handler)
}
