package router

import (
	"encoding/json"
	"testing"

	"github.com/valyala/fasthttp"
)

func request(method, uri string) *fasthttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	return ctx
}

func TestRouterParams(t *testing.T) {
	r := New()
	var got string
	r.GET("/v1/conversations/{cid}/messages/{id}", func(ctx *fasthttp.RequestCtx) {
		got = PathParam(ctx, "cid") + "/" + PathParam(ctx, "id")
	})
	r.Handler(request("GET", "/v1/conversations/eng/messages/m1"))
	if got != "eng/m1" {
		t.Fatalf("params = %q", got)
	}
}

func TestRouterTrailingSlashAndRoot(t *testing.T) {
	r := New()
	hits := 0
	r.GET("/healthz", func(ctx *fasthttp.RequestCtx) { hits++ })
	r.GET("/", func(ctx *fasthttp.RequestCtx) { hits += 10 })
	r.Handler(request("GET", "/healthz/"))
	r.Handler(request("GET", "/"))
	if hits != 11 {
		t.Fatalf("hits = %d", hits)
	}
}

func TestRouterMethodNotAllowed(t *testing.T) {
	r := New()
	r.GET("/v1/search", func(ctx *fasthttp.RequestCtx) {})
	r.POST("/v1/search", func(ctx *fasthttp.RequestCtx) {})
	ctx := request("DELETE", "/v1/search")
	r.Handler(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	if allow := string(ctx.Response.Header.Peek("Allow")); allow != "GET, POST" {
		t.Fatalf("Allow = %q", allow)
	}
}

func TestRouterNotFound(t *testing.T) {
	r := New()
	r.GET("/a/{x}", func(ctx *fasthttp.RequestCtx) {})
	ctx := request("GET", "/a/b/c")
	r.Handler(ctx)
	if ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}

	r.NotFound(func(ctx *fasthttp.RequestCtx) { WriteJSONError(ctx, fasthttp.StatusNotFound, "not found") })
	ctx = request("GET", "/nope")
	r.Handler(ctx)
	var body map[string]string
	if err := json.Unmarshal(ctx.Response.Body(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "not found" {
		t.Fatalf("body = %v", body)
	}
}

func TestCallerFallsBackToID(t *testing.T) {
	ctx := request("GET", "/")
	ctx.Request.Header.Set(HeaderUserID, "u1")
	id, name, ok := Caller(ctx)
	if !ok || id != "u1" || name != "u1" {
		t.Fatalf("Caller = %q %q %v", id, name, ok)
	}

	ctx = request("GET", "/")
	if _, _, ok := Caller(ctx); ok {
		t.Fatalf("expected missing header to fail")
	}
	if ctx.Response.StatusCode() != fasthttp.StatusUnauthorized {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
}

func TestQueryBool(t *testing.T) {
	for uri, want := range map[string]bool{
		"/x?live=true": true,
		"/x?live=1":    true,
		"/x?live=no":   false,
		"/x":           false,
	} {
		if got := QueryBool(request("GET", uri), "live"); got != want {
			t.Fatalf("%s: got %v", uri, got)
		}
	}
}

func TestRoutesListing(t *testing.T) {
	r := New()
	r.GET("/", func(*fasthttp.RequestCtx) {})
	r.POST("/v1/conversations/{cid}/messages/", func(*fasthttp.RequestCtx) {})
	got := r.Routes()
	want := []string{"GET /", "POST /v1/conversations/{cid}/messages"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("routes = %v", got)
	}
}
