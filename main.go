package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"cdr.dev/slog"
	"github.com/spf13/pflag"

	"whiteboard/internal/app"
	"whiteboard/internal/config"
	"whiteboard/internal/log"
	"whiteboard/internal/preview"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = log.Stderr(ctx)

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	cancel()
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Error(ctx, "whiteboard failed", slog.Error(err))
		log.Sync(ctx)
		os.Exit(1)
	}
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, `Usage:
  whiteboard [flags] <command> [args]

Commands:
  route [request.json]   route one connector; reads stdin when no file or -
  worker                 serve the route worker protocol on stdin/stdout
  mcp                    serve the MCP routing tools on stdin/stdout
  render <out.png>       draw a page (or --snapshot file) to PNG; - for stdout
  import                 load elements from the configured source into --page

Flags:
%s
Set $DEBUG=1 for debug logs.
`, fs.FlagUsages())
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := pflag.NewFlagSet("whiteboard", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", os.Getenv("WHITEBOARD_CONFIG"), "path to a YAML config file")
	dbPath := fs.String("db", "", "SQLite database path (overrides storage.dbPath)")
	pageID := fs.StringP("page", "p", "", "page to load, import into or render (overrides watch.pageId)")
	snapshot := fs.String("snapshot", "", "element snapshot JSON file (overrides watch.snapshotPath)")
	scale := fs.Float64("scale", 1, "render: pixels per world unit")
	padding := fs.Float64("padding", 40, "render: margin around the content in world units")
	fs.Usage = func() { usage(os.Stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Storage.DBPath = *dbPath
	}
	if *pageID != "" {
		cfg.Watch.PageID = *pageID
	}
	if *snapshot != "" {
		cfg.Watch.SnapshotPath = *snapshot
	}

	a := app.New(cfg)
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errors.New("missing command")
	}

	switch cmd, rest := rest[0], rest[1:]; cmd {
	case "route":
		in := stdin
		if len(rest) > 0 && rest[0] != "-" {
			f, err := os.Open(rest[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		return a.Route(ctx, in, stdout)
	case "worker":
		return a.ServeWorker(ctx, stdin, stdout)
	case "mcp":
		return a.ServeMCP(ctx)
	case "render":
		if len(rest) != 1 {
			return errors.New("render: expected exactly one output path")
		}
		opts := preview.DefaultOptions()
		opts.Scale = *scale
		opts.Padding = *padding
		return a.Render(ctx, cfg.Watch.PageID, *snapshot, rest[0], opts)
	case "import":
		n, err := a.Import(ctx, cfg.Watch.PageID)
		if err != nil {
			return err
		}
		log.Info(ctx, "import finished", slog.F("page", cfg.Watch.PageID), slog.F("elements", n))
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}
