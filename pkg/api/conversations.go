package api

import (
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"parley/pkg/api/router"
	"parley/pkg/directory"
	"parley/pkg/logger"
	"parley/pkg/models"
	"parley/pkg/search"
	"parley/pkg/telemetry"
)

type displayNameRequest struct {
	DisplayName string `json:"display_name"`
}

type typingResponse struct {
	Typing []models.TypingFact `json:"typing"`
}

type searchResponse struct {
	Query   search.Query          `json:"query"`
	Results []models.SearchResult `json:"results"`
}

// ListConversations returns every conversation the store knows about,
// with its display name when one is set.
func (a *API) ListConversations(ctx *fasthttp.RequestCtx) {
	ids := a.store.Conversations()
	out := make([]directory.Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, directory.Entry{ID: id, DisplayName: a.dir.Name(id)})
	}
	_ = router.WriteJSON(ctx, map[string]any{"conversations": out})
}

func (a *API) SetDisplayName(ctx *fasthttp.RequestCtx) {
	cid, ok := conversationParam(ctx)
	if !ok {
		return
	}
	var req displayNameRequest
	if err := router.DecodeJSON(ctx, &req); err != nil {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "invalid conversation payload")
		return
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		router.WriteJSONError(ctx, fasthttp.StatusBadRequest, "display_name required")
		return
	}
	if err := a.dir.SetName(cid, name); err != nil {
		logger.Error("set_display_name_failed", "conversation", cid, "error", err)
		router.WriteJSONError(ctx, fasthttp.StatusInternalServerError, "failed to save display name")
		return
	}
	_ = router.WriteJSON(ctx, directory.Entry{ID: cid, DisplayName: name})
}

func (a *API) StartTyping(ctx *fasthttp.RequestCtx) {
	cid, ok := conversationParam(ctx)
	if !ok {
		return
	}
	userID, name, ok := router.Caller(ctx)
	if !ok {
		return
	}
	a.presence.StartTyping(userID, name, cid)
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (a *API) StopTyping(ctx *fasthttp.RequestCtx) {
	cid, ok := conversationParam(ctx)
	if !ok {
		return
	}
	userID, _, ok := router.Caller(ctx)
	if !ok {
		return
	}
	a.presence.StopTyping(userID, cid)
	ctx.SetStatusCode(fasthttp.StatusNoContent)
}

func (a *API) ListTyping(ctx *fasthttp.RequestCtx) {
	cid, ok := conversationParam(ctx)
	if !ok {
		return
	}
	_ = router.WriteJSON(ctx, typingResponse{Typing: a.presence.GetTyping(cid)})
}

// Search runs ?q= through the query language.
func (a *API) Search(ctx *fasthttp.RequestCtx) {
	tr := telemetry.Track("api.search")
	defer tr.Finish()

	start := time.Now()
	q := search.ParseQuery(router.Query(ctx, "q"))
	tr.Mark("parse")
	results := a.search.Search(q.FreeText, q.Filter, a.dir.Lookup())
	tr.Mark("evaluate")
	telemetry.SearchQueries.Inc()
	telemetry.SearchDuration.Observe(time.Since(start).Seconds())

	if results == nil {
		results = []models.SearchResult{}
	}
	_ = router.WriteJSON(ctx, searchResponse{Query: q, Results: results})
}
