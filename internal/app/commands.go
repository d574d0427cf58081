package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"cdr.dev/slog"

	"whiteboard/internal/dbclient"
	"whiteboard/internal/domain"
	"whiteboard/internal/log"
	"whiteboard/internal/preview"
	"whiteboard/internal/secret"
	"whiteboard/internal/service"
	"whiteboard/internal/worker"
)

// RouteRequest is the input of the route command: the scene and one
// connector to route through it.
type RouteRequest struct {
	Elements []domain.Element `json:"elements"`
	worker.RouteParams
}

// RouteResponse holds points relative to the start point.
type RouteResponse struct {
	Points []float64 `json:"points"`
}

// Route reads a RouteRequest from r and writes the routed points to w.
func (a *App) Route(ctx context.Context, r io.Reader, w io.Writer) error {
	var req RouteRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("decode route request: %w", err)
	}
	routes, err := service.NewRouteService(a.cfg.Routing, nil, nil, nil, a.emitter)
	if err != nil {
		return err
	}
	routes.UpdateElements(ctx, req.Elements)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(RouteResponse{Points: routes.ComputePoints(ctx, req.RouteParams)})
}

// ServeWorker speaks the worker protocol over r and w.
func (a *App) ServeWorker(ctx context.Context, r io.Reader, w io.Writer) error {
	return worker.Serve(ctx, worker.New(a.cfg.Routing), r, w)
}

// Import loads elements from the configured source into pageID and
// reroutes the page's stored connectors.
func (a *App) Import(ctx context.Context, pageID string) (int, error) {
	if err := a.Startup(ctx, false); err != nil {
		return 0, err
	}
	defer a.Shutdown(context.WithoutCancel(ctx))

	src, err := dbclient.NewSource(a.cfg.Source, secret.Chain{secret.NewEnvStore(), secret.NewKeychainStore()})
	if err != nil {
		return 0, err
	}
	defer src.Close()

	n, err := a.routes.ImportFrom(ctx, src, pageID)
	if err != nil {
		return 0, err
	}
	if _, err := a.routes.RerouteConnectors(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// Render draws a page to a PNG file. When snapshotPath is set the
// elements come from that file instead of the database.
func (a *App) Render(ctx context.Context, pageID, snapshotPath, out string, opts preview.Options) error {
	if snapshotPath != "" {
		a.cfg.Storage.DBPath = ""
		a.cfg.Watch.PageID = ""
	} else {
		a.cfg.Watch.PageID = pageID
	}
	if err := a.Startup(ctx, false); err != nil {
		return err
	}
	defer a.Shutdown(context.WithoutCancel(ctx))

	if snapshotPath != "" {
		els, err := service.ReadSnapshot(snapshotPath)
		if err != nil {
			return err
		}
		a.routes.UpdateElements(ctx, els)
	} else if _, err := a.routes.RerouteConnectors(ctx); err != nil {
		return err
	}

	st, err := a.routes.PageState(ctx)
	if err != nil {
		return err
	}
	if out == "-" {
		return preview.WritePNG(os.Stdout, *st, opts)
	}
	if err := preview.SavePNG(out, *st, opts); err != nil {
		return fmt.Errorf("render %s: %w", out, err)
	}
	log.Info(ctx, "page rendered", slog.F("page", st.PageID), slog.F("out", out),
		slog.F("elements", len(st.Elements)), slog.F("connectors", len(st.Connectors)))
	return nil
}
