package app

import (
	"context"
	"fmt"

	mcpserver "whiteboard/internal/mcp"
)

// ServeMCP runs the routing tools as a standalone MCP server on
// stdin/stdout until the client disconnects.
func (a *App) ServeMCP(ctx context.Context) error {
	if err := a.Startup(ctx, true); err != nil {
		return err
	}
	defer a.Shutdown(context.WithoutCancel(ctx))

	srv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter: a.emitter,
		Routes:  a.routes,
		Worker:  a.worker,
	})
	if err := srv.ServeStdio(ctx); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
