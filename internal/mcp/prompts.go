package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("system_diagram",
		mcp.WithPromptDescription("Lay out a system architecture diagram with shapes and elbow connectors"),
		mcp.WithArgument("systemName",
			mcp.ArgumentDescription("Name of the system to diagram"),
			mcp.RequiredArgument(),
		),
	), s.handleSystemDiagramPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("tidy_connectors",
		mcp.WithPromptDescription("Untangle the connectors of the current page"),
	), s.handleTidyConnectorsPrompt)
}

func (s *Server) handleSystemDiagramPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	systemName := req.Params.Arguments["systemName"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Create a system diagram for: %s", systemName),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Create a system architecture diagram for "%s". Follow these steps:

1. Identify the main components of the system
2. Use add_element to create a rectangle for each component; omit x and y to let the layout engine place it
3. Use arrange_elements to put components of the same tier on one row
4. Use connect_elements to connect related components, showing data flow or dependencies
5. Call get_page_state and check that no connector crosses a component

Use consistent colors: #3b82f6 for service calls, #10b981 for database access, #f59e0b for external traffic.`, systemName),
				},
			},
		},
	}, nil
}

func (s *Server) handleTidyConnectorsPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Untangle connectors",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Tidy the connectors on the current page:

1. Call list_elements and get_page_state to see shapes and connectors
2. Where connectors take long detours, move the shapes closer to their neighbors or use arrange_elements
3. Call reroute_connectors so every connector follows its shapes
4. Check route_cache_stats; if the hit rate is poor after large edits, call clear_elbow_route_cache`,
				},
			},
		},
	}, nil
}
