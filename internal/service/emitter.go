package service

import (
	"context"
	"sync"

	"cdr.dev/slog"

	"whiteboard/internal/log"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter — decouples services from their transport
// ─────────────────────────────────────────────────────────────

// Events emitted by RouteService.
const (
	EventRouteComputed   = "route:computed"
	EventCacheCleared    = "route:cache-cleared"
	EventElementsUpdated = "elements:updated"
)

// EventEmitter is an interface for emitting events to whoever drives the
// service: the MCP server, the CLI, or a test.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to the context logger at debug level.
type LogEmitter struct{}

func (LogEmitter) Emit(ctx context.Context, event string, data any) {
	log.Debug(ctx, "event", slog.F("event", event), slog.F("data", data))
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
// It is safe for use from watcher goroutines.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Count returns how many times event was emitted.
func (m *MockEmitter) Count(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// Last returns the most recent emission.
func (m *MockEmitter) Last() (EmittedEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Events) == 0 {
		return EmittedEvent{}, false
	}
	return m.Events[len(m.Events)-1], true
}
