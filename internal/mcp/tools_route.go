package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"whiteboard/internal/elbow"
	"whiteboard/internal/service"
	"whiteboard/internal/worker"
)

func (s *Server) registerRouteTools() {
	// ── compute_elbow_points ───────────────────────────
	s.mcp.AddTool(mcp.NewTool("compute_elbow_points",
		mcp.WithDescription("Route an elbow connector between two world points against the current elements. Returns points relative to the start as a flat [x0, y0, x1, y1, ...] array."),
		mcp.WithNumber("startX", mcp.Description("Start X in world coordinates"), mcp.Required()),
		mcp.WithNumber("startY", mcp.Description("Start Y in world coordinates"), mcp.Required()),
		mcp.WithNumber("endX", mcp.Description("End X in world coordinates"), mcp.Required()),
		mcp.WithNumber("endY", mcp.Description("End Y in world coordinates"), mcp.Required()),
		mcp.WithString("startBinding", mcp.Description(`JSON binding for the start, e.g. {"elementId":"a","fixedPoint":[1,0.5],"isPrecise":true} (optional)`)),
		mcp.WithString("endBinding", mcp.Description("JSON binding for the end (optional)")),
		mcp.WithNumber("minStubLength", mcp.Description("Minimum straight run out of each shape (optional)")),
		mcp.WithString("connectorId", mcp.Description("Connector being routed; a newer request for the same connector supersedes older ones (optional)")),
	), s.handleComputeElbowPoints)

	// ── compute_elbow_route ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("compute_elbow_route",
		mcp.WithDescription("Low-level router: route between two points with explicit exit directions and obstacle rectangles. Returns absolute points."),
		mcp.WithNumber("startX", mcp.Required()),
		mcp.WithNumber("startY", mcp.Required()),
		mcp.WithNumber("endX", mcp.Required()),
		mcp.WithNumber("endY", mcp.Required()),
		mcp.WithString("startDir", mcp.Description("Exit direction at the start: up, down, left, right"), mcp.Required()),
		mcp.WithString("endDir", mcp.Description("Direction the end is approached from outside its shape: up, down, left, right"), mcp.Required()),
		mcp.WithString("startBox", mcp.Description(`JSON rect {"left","top","width","height"} of the start shape (optional)`)),
		mcp.WithString("endBox", mcp.Description("JSON rect of the end shape (optional)")),
		mcp.WithString("obstacles", mcp.Description("JSON array of obstacle rects (optional)")),
		mcp.WithNumber("minStubLength", mcp.Description("Minimum stub length (optional)")),
	), s.handleComputeElbowRoute)

	// ── simplify_elbow_path ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("simplify_elbow_path",
		mcp.WithDescription("Remove zero-length segments and merge collinear runs of a flat point array"),
		mcp.WithString("points", mcp.Description("JSON flat array [x0, y0, x1, y1, ...]"), mcp.Required()),
	), s.handleSimplifyElbowPath)

	// ── clear_elbow_route_cache ────────────────────────
	s.mcp.AddTool(mcp.NewTool("clear_elbow_route_cache",
		mcp.WithDescription("Drop every cached route"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(false)}),
	), s.handleClearElbowRouteCache)

	// ── route_cache_stats ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("route_cache_stats",
		mcp.WithDescription("Report route cache size, hits, misses and evictions"),
	), s.handleRouteCacheStats)

	// ── get/set_router_options ─────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_router_options",
		mcp.WithDescription("Show the router's tuning options"),
	), s.handleGetRouterOptions)

	s.mcp.AddTool(mcp.NewTool("set_router_options",
		mcp.WithDescription("Change router tuning. Pass a JSON object with any of clearance, stubLength, exitFaceMargin, bendPenalty, relevanceMargin, boundsMargin, cacheSize. Omitted fields keep their current value. Clears the route cache."),
		mcp.WithString("options", mcp.Description("JSON options object"), mcp.Required()),
	), s.handleSetRouterOptions)
}

func (s *Server) handleComputeElbowPoints(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sb, err := optionalBinding(args, "startBinding")
	if err != nil {
		return nil, err
	}
	eb, err := optionalBinding(args, "endBinding")
	if err != nil {
		return nil, err
	}
	p := worker.RouteParams{
		StartWorld:    elbow.Pt(req.GetFloat("startX", 0), req.GetFloat("startY", 0)),
		EndWorld:      elbow.Pt(req.GetFloat("endX", 0), req.GetFloat("endY", 0)),
		StartBinding:  sb,
		EndBinding:    eb,
		MinStubLength: req.GetFloat("minStubLength", 0),
	}

	var pts []float64
	if s.worker != nil {
		key := req.GetString("connectorId", "")
		if key == "" {
			key = uuid.NewString()
		}
		pts, err = s.worker.Compute(ctx, key, p)
		if errors.Is(err, service.ErrSuperseded) {
			return textResult("superseded by a newer request for the same connector"), nil
		}
		if err != nil {
			return nil, fmt.Errorf("compute route: %w", err)
		}
	} else {
		pts = s.routes.ComputePoints(ctx, p)
	}
	return jsonResult(map[string]any{"points": pts})
}

func (s *Server) handleComputeElbowRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sd, err := direction(args, "startDir")
	if err != nil {
		return nil, err
	}
	ed, err := direction(args, "endDir")
	if err != nil {
		return nil, err
	}
	startBox, err := optionalRect(args, "startBox")
	if err != nil {
		return nil, err
	}
	endBox, err := optionalRect(args, "endBox")
	if err != nil {
		return nil, err
	}
	var obstacles []elbow.Rect
	if raw := req.GetString("obstacles", ""); raw != "" {
		if err := parseJSON(raw, &obstacles); err != nil {
			return nil, fmt.Errorf("parse obstacles: %w", err)
		}
	}

	pts := s.routes.ComputeRoute(ctx, service.RouteInput{
		Start:        elbow.Pt(req.GetFloat("startX", 0), req.GetFloat("startY", 0)),
		End:          elbow.Pt(req.GetFloat("endX", 0), req.GetFloat("endY", 0)),
		StartDir:     sd,
		EndDir:       ed,
		StartBox:     startBox,
		EndBox:       endBox,
		MinStub:      req.GetFloat("minStubLength", 0),
		Intermediate: obstacles,
	})
	return jsonResult(map[string]any{"points": pts})
}

func (s *Server) handleSimplifyElbowPath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("points", "")
	if raw == "" {
		return nil, fmt.Errorf("points is required")
	}
	var flat []float64
	if err := parseJSON(raw, &flat); err != nil {
		return nil, fmt.Errorf("parse points: %w", err)
	}
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("points must hold x,y pairs, got %d values", len(flat))
	}
	return jsonResult(map[string]any{"points": elbow.SimplifyFlat(flat)})
}

func (s *Server) handleClearElbowRouteCache(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.routes.ClearCache(ctx)
	if s.worker != nil {
		s.worker.ClearCache(ctx)
	}
	return textResult("Route cache cleared"), nil
}

func (s *Server) handleRouteCacheStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.routes.CacheStats())
}

func (s *Server) handleGetRouterOptions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.routes.Options())
}

func (s *Server) handleSetRouterOptions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("options", "")
	if raw == "" {
		return nil, fmt.Errorf("options is required")
	}
	opts := s.routes.Options()
	if err := parseJSON(raw, &opts); err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}
	if err := s.routes.SetOptions(ctx, opts); err != nil {
		return nil, err
	}
	if s.worker != nil {
		// Restart so the worker's private router picks up the options.
		s.worker.Stop()
		s.worker.Start(s.ctx)
	}
	return jsonResult(s.routes.Options())
}
