package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/Azure/cosmos-explorer-sub003/internal/api/middleware"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/response"
	"github.com/Azure/cosmos-explorer-sub003/internal/offer"
)

// OpenAPIHandler serves the OpenAPI document as JSON. The served document
// carries the running version and the throughput range request validation
// enforces.
type OpenAPIHandler struct {
	rawYAML []byte
	version string

	once sync.Once
	doc  []byte
	err  error
}

// NewOpenAPIHandler creates a handler that renders yamlSpec on first request.
// An empty version keeps the document's own.
func NewOpenAPIHandler(yamlSpec []byte, version string) *OpenAPIHandler {
	return &OpenAPIHandler{rawYAML: yamlSpec, version: version}
}

func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		h.doc, h.err = h.render()
	})

	if h.err != nil {
		slog.ErrorContext(r.Context(), "failed to render OpenAPI spec", "error", h.err)
		requestID := middleware.GetRequestID(r.Context())
		response.Err(w, http.StatusInternalServerError, response.CodeInternal, "Failed to convert OpenAPI spec", requestID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.doc); err != nil {
		slog.Error("failed to write OpenAPI spec response", "error", err)
	}
}

func (h *OpenAPIHandler) render() ([]byte, error) {
	raw, err := yaml.YAMLToJSON(h.rawYAML)
	if err != nil {
		return nil, fmt.Errorf("converting OpenAPI spec: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding OpenAPI spec: %w", err)
	}
	if info, ok := doc["info"].(map[string]any); ok && h.version != "" {
		info["version"] = h.version
	}
	annotateThroughput(doc)
	return json.Marshal(doc)
}

// annotateThroughput sets the accepted range on every integer schema named
// after a throughput field.
func annotateThroughput(node any) {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			if schema, ok := v.(map[string]any); ok && schema["type"] == "integer" {
				switch k {
				case "manualThroughput":
					schema["minimum"] = 1
					schema["maximum"] = offer.MaxThroughput
				case "autoscaleMaxThroughput":
					schema["minimum"] = offer.MinAutoscaleThroughput
					schema["maximum"] = offer.MaxThroughput
					schema["multipleOf"] = offer.MinAutoscaleThroughput
				}
			}
			annotateThroughput(v)
		}
	case []any:
		for _, v := range n {
			annotateThroughput(v)
		}
	}
}
