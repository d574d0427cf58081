package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"cdr.dev/slog"

	"whiteboard/internal/config"
	"whiteboard/internal/log"
	"whiteboard/internal/service"
	"whiteboard/internal/storage"
)

// App wires storage, the route service and its background helpers
// from a Config. Each CLI command starts only what it needs.
type App struct {
	cfg     config.Config
	emitter service.EventEmitter

	db      *storage.DB
	routes  *service.RouteService
	worker  *service.RouteWorker
	janitor *service.CacheJanitor
	watcher *service.SnapshotWatcher
}

// New creates an App. Nothing is opened until Startup.
func New(cfg config.Config) *App {
	return &App{cfg: cfg, emitter: service.LogEmitter{}}
}

// Routes returns the route service. Valid after Startup.
func (a *App) Routes() *service.RouteService { return a.routes }

// Worker returns the background route worker, or nil when not started.
func (a *App) Worker() *service.RouteWorker { return a.worker }

// Startup opens the database and builds the route service. With
// background set it also starts the route worker, the cache janitor and
// the snapshot watcher.
func (a *App) Startup(ctx context.Context, background bool) error {
	if err := a.openStorage(ctx); err != nil {
		return err
	}

	var (
		routes *service.RouteService
		err    error
	)
	if a.db != nil {
		routes, err = service.NewRouteService(a.cfg.Routing,
			storage.NewElementStore(a.db),
			storage.NewConnectorStore(a.db),
			storage.NewSettingsStore(a.db),
			a.emitter)
	} else {
		routes, err = service.NewRouteService(a.cfg.Routing, nil, nil, nil, a.emitter)
	}
	if err != nil {
		return fmt.Errorf("create route service: %w", err)
	}
	a.routes = routes

	if a.db != nil && a.cfg.Watch.PageID != "" {
		if err := a.routes.LoadPage(ctx, a.cfg.Watch.PageID); err != nil {
			return err
		}
	}

	if !background {
		return nil
	}

	a.worker = service.NewRouteWorker(a.routes, a.cfg.Worker.Timeout, a.cfg.Worker.QueueSize)
	a.worker.Start(ctx)

	a.janitor = service.NewCacheJanitor(a.routes, a.worker, a.cfg.Cache.PurgeSchedule, a.cfg.Cache.StatsSchedule)
	if err := a.janitor.Start(ctx); err != nil {
		return err
	}

	if a.cfg.Watch.SnapshotPath != "" {
		a.watcher = service.NewSnapshotWatcher(a.routes, a.cfg.Watch.SnapshotPath, a.cfg.Watch.Debounce)
		if err := a.watcher.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) openStorage(ctx context.Context) error {
	path := a.cfg.Storage.DBPath
	if path == "" {
		return nil
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := storage.New(path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	a.db = db
	log.Debug(ctx, "database opened", slog.F("path", path))
	return nil
}

// Shutdown stops background helpers, waits for imports and closes the
// database.
func (a *App) Shutdown(ctx context.Context) error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.janitor != nil {
		a.janitor.Stop()
	}
	if a.worker != nil {
		a.worker.Stop()
	}
	if a.routes != nil {
		a.routes.WaitImports(ctx)
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
