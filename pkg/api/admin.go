package api

import (
	"github.com/valyala/fasthttp"

	"parley/pkg/api/router"
	"parley/pkg/logger"
	"parley/pkg/sensor"
)

func (a *API) Healthz(ctx *fasthttp.RequestCtx) {
	_ = router.WriteJSON(ctx, map[string]string{"status": "ok"})
}

func (a *API) Readyz(ctx *fasthttp.RequestCtx) {
	if a.ready != nil {
		if err := a.ready(); err != nil {
			router.WriteJSONStatus(ctx, fasthttp.StatusServiceUnavailable, map[string]string{"status": "not ready", "error": err.Error()})
			return
		}
	}
	_ = router.WriteJSON(ctx, map[string]string{"status": "ok", "version": a.version})
}

type statsResponse struct {
	Conversations int `json:"conversations"`
	Messages      int `json:"messages"`
	Dirty         int `json:"dirty"`
	Typing        int `json:"typing"`

	Resources *sensor.Status `json:"resources,omitempty"`
}

func (a *API) Stats(ctx *fasthttp.RequestCtx) {
	st := a.store.Stats()
	resp := statsResponse{
		Conversations: st.Conversations,
		Messages:      st.Messages,
		Dirty:         st.Dirty,
		Typing:        a.presence.Len(),
	}
	if a.sensor != nil {
		rs := a.sensor.Status()
		resp.Resources = &rs
	}
	_ = router.WriteJSON(ctx, resp)
}

// Snapshot flushes dirty conversations on demand.
func (a *API) Snapshot(ctx *fasthttp.RequestCtx) {
	flush := a.snapshot
	if flush == nil {
		flush = a.store.SaveDirty
	}
	n, err := flush()
	if err != nil {
		logger.Error("admin_snapshot_failed", "saved", n, "error", err)
		router.WriteJSONStatus(ctx, fasthttp.StatusInternalServerError, map[string]any{"error": err.Error(), "saved": n})
		return
	}
	logger.Info("admin_snapshot_done", "saved", n)
	_ = router.WriteJSON(ctx, map[string]int{"saved": n})
}
