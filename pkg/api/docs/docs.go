// Package docs serves the OpenAPI description of the HTTP API and a
// Swagger UI for it.
package docs

import (
	_ "embed"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// DocumentPath is where the OpenAPI document is served.
const DocumentPath = "/openapi.yaml"

//go:embed openapi.yaml
var Document []byte

// UI serves Swagger UI under /docs/, loading the document from DocumentPath.
func UI() http.Handler {
	return httpSwagger.Handler(httpSwagger.URL(DocumentPath))
}

// DocumentHandler serves the embedded document.
func DocumentHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(Document)
	})
}
