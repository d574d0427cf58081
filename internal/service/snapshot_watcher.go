package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cdr.dev/slog"
	"github.com/fsnotify/fsnotify"

	"whiteboard/internal/domain"
	"whiteboard/internal/log"
)

// ─────────────────────────────────────────────────────────────
// SnapshotWatcher — reloads elements when a snapshot file changes
// ─────────────────────────────────────────────────────────────

// SnapshotWatcher feeds the contents of a JSON snapshot file to a
// RouteService. The file holds either an element array or a PageState.
type SnapshotWatcher struct {
	svc      *RouteService
	path     string
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	timer   *time.Timer
}

func NewSnapshotWatcher(svc *RouteService, path string, debounce time.Duration) *SnapshotWatcher {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	return &SnapshotWatcher{svc: svc, path: path, debounce: debounce}
}

// ReadSnapshot decodes a snapshot file.
func ReadSnapshot(path string) ([]domain.Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return DecodeSnapshot(data)
}

// DecodeSnapshot accepts a bare element array or a page state object.
func DecodeSnapshot(data []byte) ([]domain.Element, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var els []domain.Element
		if err := json.Unmarshal(data, &els); err != nil {
			return nil, fmt.Errorf("decode elements: %w", err)
		}
		return els, nil
	}
	var st domain.PageState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode page state: %w", err)
	}
	return st.Elements, nil
}

// LoadNow reads the snapshot file and pushes it to the service.
func (w *SnapshotWatcher) LoadNow(ctx context.Context) error {
	els, err := ReadSnapshot(w.path)
	if err != nil {
		return err
	}
	w.svc.UpdateElements(ctx, els)
	return nil
}

// Start loads the file once, then watches its directory so editors that
// replace the file on save are picked up too.
func (w *SnapshotWatcher) Start(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("snapshot path %q: %w", w.path, err)
	}
	w.path = abs
	if err := w.LoadNow(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir %q: %w", filepath.Dir(abs), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.watcher = watcher
	w.cancel = cancel
	w.mu.Unlock()

	go w.loop(watchCtx, watcher)
	log.Info(ctx, "watching snapshot", slog.F("path", abs))
	return nil
}

func (w *SnapshotWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if abs, _ := filepath.Abs(event.Name); abs != w.path {
				continue
			}
			w.schedule(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn(ctx, "snapshot watcher error", slog.Error(err))
		}
	}
}

func (w *SnapshotWatcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		if ctx.Err() != nil {
			return
		}
		if err := w.LoadNow(ctx); err != nil {
			log.Warn(ctx, "snapshot reload failed", slog.F("path", w.path), slog.Error(err))
			return
		}
		log.Debug(ctx, "snapshot reloaded", slog.F("path", w.path))
	})
}

// Stop tears down the watcher and any pending reload.
func (w *SnapshotWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
}
