package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"gopkg.in/yaml.v3"

	"parley/pkg/api/docs"
	"parley/pkg/api/router"
	"parley/pkg/store"
)

// Every JSON route must be described in the OpenAPI document.
func TestOpenAPICoversRoutes(t *testing.T) {
	var doc struct {
		Paths map[string]map[string]any `yaml:"paths"`
	}
	require.NoError(t, yaml.Unmarshal(docs.Document, &doc))

	r := router.New()
	New(Deps{Store: store.New()}).RegisterRoutes(r)
	for _, rt := range r.Routes() {
		method, path, _ := strings.Cut(rt, " ")
		if path == docs.DocumentPath || strings.HasPrefix(path, "/docs") {
			continue
		}
		ops, ok := doc.Paths[path]
		if !assert.True(t, ok, "path %s missing", path) {
			continue
		}
		assert.Contains(t, ops, strings.ToLower(method), rt)
	}
}

func TestDocsServed(t *testing.T) {
	h := newHarness(t, MiddlewareConfig{})

	code, body := h.do("GET", "/openapi.yaml", "", nil)
	require.Equal(t, fasthttp.StatusOK, code)
	assert.Equal(t, docs.Document, body)

	code, _ = h.do("GET", "/docs", "", nil)
	assert.Equal(t, fasthttp.StatusMovedPermanently, code)

	code, body = h.do("GET", "/docs/index.html", "", nil)
	require.Equal(t, fasthttp.StatusOK, code)
	assert.Contains(t, string(body), docs.DocumentPath)
}
