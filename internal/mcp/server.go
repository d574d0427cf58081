package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"whiteboard/internal/log"
	"whiteboard/internal/service"
)

// Server is the MCP server for the whiteboard router.
// It exposes tools, resources, and prompts so AI agents can lay out
// elements and draw elbow connectors between them.
type Server struct {
	ctx     context.Context
	mcp     *server.MCPServer
	emitter service.EventEmitter
	layout  *LayoutEngine

	routes *service.RouteService
	worker *service.RouteWorker
}

// Deps holds the services the MCP server drives.
type Deps struct {
	Emitter service.EventEmitter
	Routes  *service.RouteService
	// Worker is optional. Without it routes are computed on the
	// request goroutine.
	Worker *service.RouteWorker
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	emitter := deps.Emitter
	if emitter == nil {
		emitter = service.LogEmitter{}
	}
	s := &Server{
		ctx:     ctx,
		emitter: emitter,
		layout:  NewLayoutEngine(),
		routes:  deps.Routes,
		worker:  deps.Worker,
	}

	s.mcp = server.NewMCPServer(
		"whiteboard-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerRouteTools()
	s.registerElementTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	log.Info(ctx, "starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(v bool) *bool { return &v }
