package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	elementsURI     = "whiteboard://elements"
	cacheStatsURI   = "whiteboard://route-cache"
	routerConfigURI = "whiteboard://router-options"
)

func (s *Server) registerResources() {
	// ── whiteboard://elements ──────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		elementsURI,
		"Current Elements",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(elementsURI, s.routes.Elements())
	})

	// ── whiteboard://route-cache ───────────────────────
	s.mcp.AddResource(mcp.NewResource(
		cacheStatsURI,
		"Route Cache Statistics",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(cacheStatsURI, s.routes.CacheStats())
	})

	// ── whiteboard://router-options ────────────────────
	s.mcp.AddResource(mcp.NewResource(
		routerConfigURI,
		"Router Options",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonResource(routerConfigURI, s.routes.Options())
	})
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
