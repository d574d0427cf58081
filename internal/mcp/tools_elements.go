package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"whiteboard/internal/domain"
	"whiteboard/internal/service"
)

func (s *Server) registerElementTools() {
	// ── update_elements ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_elements",
		mcp.WithDescription("Replace the element snapshot routes are computed against. Clears the route cache."),
		mcp.WithString("elements", mcp.Description("JSON array of elements [{id, type, x, y, width, height, rotation?, visible?}, ...]"), mcp.Required()),
		mcp.WithBoolean("save", mcp.Description("Also persist the snapshot to the current page (optional)")),
	), s.handleUpdateElements)

	// ── list_elements ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_elements",
		mcp.WithDescription("List the elements of the current snapshot with their IDs, types, and positions"),
	), s.handleListElements)

	// ── add_element ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_element",
		mcp.WithDescription("Add a shape to the snapshot. Without x and y it is placed on a free spot of the grid."),
		mcp.WithString("type", mcp.Description("Element type: rectangle, ellipse, diamond, text, image"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("Width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("Height"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("X position (optional)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional)")),
		mcp.WithNumber("rotation", mcp.Description("Rotation in radians (optional)")),
	), s.handleAddElement)

	// ── arrange_elements ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("arrange_elements",
		mcp.WithDescription("Lay the given elements out in rows so connectors have room between them"),
		mcp.WithString("elementIds", mcp.Description("Comma-separated element IDs"), mcp.Required()),
		mcp.WithNumber("startX", mcp.Description("Left of the first row (optional)")),
		mcp.WithNumber("startY", mcp.Description("Top of the first row (optional)")),
	), s.handleArrangeElements)

	// ── connect_elements ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("connect_elements",
		mcp.WithDescription("Draw an elbow connector between two elements, bound to their facing sides"),
		mcp.WithString("fromId", mcp.Description("Source element ID"), mcp.Required()),
		mcp.WithString("toId", mcp.Description("Target element ID"), mcp.Required()),
		mcp.WithString("color", mcp.Description("Stroke color hex (optional, e.g. #3b82f6)")),
		mcp.WithNumber("strokeWidth", mcp.Description("Stroke width (optional)")),
	), s.handleConnectElements)

	// ── reroute_connectors ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reroute_connectors",
		mcp.WithDescription("Recompute every stored connector of the current page against the current elements"),
	), s.handleRerouteConnectors)

	// ── load_page / page_state ─────────────────────────
	s.mcp.AddTool(mcp.NewTool("load_page",
		mcp.WithDescription("Make a stored page current and load its elements"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
	), s.handleLoadPage)

	s.mcp.AddTool(mcp.NewTool("get_page_state",
		mcp.WithDescription("Return the current page's elements and connectors"),
	), s.handleGetPageState)
}

// ── Handlers ────────────────────────────────────────────────

func (s *Server) handleUpdateElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("elements", "")
	if raw == "" {
		return nil, fmt.Errorf("elements is required")
	}
	var els []domain.Element
	if err := parseJSON(raw, &els); err != nil {
		return nil, fmt.Errorf("parse elements: %w", err)
	}
	for i := range els {
		if els[i].ID == "" {
			els[i].ID = uuid.NewString()
		}
	}
	s.routes.UpdateElements(ctx, els)
	if req.GetBool("save", false) {
		if err := s.routes.SavePage(ctx); err != nil {
			return nil, err
		}
	}
	return textResult(fmt.Sprintf("Snapshot updated with %d element(s)", len(els))), nil
}

func (s *Server) handleListElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	type elementSummary struct {
		ID       string  `json:"id"`
		Type     string  `json:"type"`
		X        float64 `json:"x"`
		Y        float64 `json:"y"`
		Width    float64 `json:"width"`
		Height   float64 `json:"height"`
		Obstacle bool    `json:"obstacle"`
	}
	els := s.routes.Elements()
	summaries := make([]elementSummary, 0, len(els))
	for _, e := range els {
		summaries = append(summaries, elementSummary{
			ID: e.ID, Type: string(e.Type),
			X: e.X, Y: e.Y, Width: e.Width, Height: e.Height,
			Obstacle: e.IsObstacle(),
		})
	}
	return jsonResult(summaries)
}

func (s *Server) handleAddElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := domain.ElementType(req.GetString("type", ""))
	if !typ.Connectable() {
		return nil, fmt.Errorf("type must be one of rectangle, ellipse, diamond, text, image")
	}
	w, h := req.GetFloat("width", 0), req.GetFloat("height", 0)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("width and height must be positive")
	}

	els := s.routes.Elements()
	args := req.GetArguments()
	_, hasX := args["x"]
	_, hasY := args["y"]
	x, y := req.GetFloat("x", 0), req.GetFloat("y", 0)
	if !hasX || !hasY {
		x, y = s.layout.NextPosition(els, w, h)
	}

	el := domain.Element{
		ID:       uuid.NewString(),
		PageID:   s.routes.PageID(),
		Type:     typ,
		X:        x,
		Y:        y,
		Width:    w,
		Height:   h,
		Rotation: req.GetFloat("rotation", 0),
		Visible:  true,
	}
	s.routes.UpdateElements(ctx, append(els, el))
	return jsonResult(el)
}

func (s *Server) handleArrangeElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := requiredString(req.GetArguments(), "elementIds")
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]int)
	for i, id := range strings.Split(raw, ",") {
		wanted[strings.TrimSpace(id)] = i
	}

	els := s.routes.Elements()
	group := make([]domain.Element, len(wanted))
	found := 0
	for _, e := range els {
		if i, ok := wanted[e.ID]; ok {
			group[i] = e
			found++
		}
	}
	if found != len(wanted) {
		return nil, fmt.Errorf("arrange: %d of %d element(s) not found", len(wanted)-found, len(wanted))
	}

	s.layout.ArrangeGroup(group, req.GetFloat("startX", 0), req.GetFloat("startY", 0))
	moved := make(map[string]domain.Element, len(group))
	for _, e := range group {
		moved[e.ID] = e
	}
	for i := range els {
		if m, ok := moved[els[i].ID]; ok {
			els[i] = m
		}
	}
	s.routes.UpdateElements(ctx, els)
	return jsonResult(group)
}

func (s *Server) handleConnectElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	fromID, err := requiredString(args, "fromId")
	if err != nil {
		return nil, err
	}
	toID, err := requiredString(args, "toId")
	if err != nil {
		return nil, err
	}
	c, err := s.routes.Connect(ctx, service.ConnectInput{
		FromID:      fromID,
		ToID:        toID,
		Color:       req.GetString("color", ""),
		StrokeWidth: req.GetFloat("strokeWidth", 0),
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(c)
}

func (s *Server) handleRerouteConnectors(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := s.routes.RerouteConnectors(ctx)
	if err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Rerouted %d connector(s)", n)), nil
}

func (s *Server) handleLoadPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requiredString(req.GetArguments(), "pageId")
	if err != nil {
		return nil, err
	}
	if err := s.routes.LoadPage(ctx, pageID); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Page %s loaded with %d element(s)", pageID, len(s.routes.Elements()))), nil
}

func (s *Server) handleGetPageState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.routes.PageState(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(st)
}
