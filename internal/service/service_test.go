package service_test

import (
	"context"
	"testing"
	"time"

	"whiteboard/internal/service"
)

// ─────────────────────────────────────────────────────────────
// RunningJobsGuard tests
// ─────────────────────────────────────────────────────────────

func TestRunningGuard_TryLock(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("job-1") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("job-1") {
		t.Fatal("expected second TryLock for same job to fail")
	}
	if !g.TryLock("job-2") {
		t.Fatal("expected TryLock for different job to succeed")
	}
	g.Unlock("job-1")
	g.Unlock("job-2")

	if !g.TryLock("job-1") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("job-1")
}

func TestRunningGuard_WaitAll(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("job-a") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("job-a")
	}()

	select {
	case <-done:
		// success
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != "test:event" {
		t.Errorf("expected 'test:event', got %q", m.Events[0].Event)
	}
}

func TestMockEmitter_LastAndCount(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	if _, ok := m.Last(); ok {
		t.Fatal("expected no last event on empty emitter")
	}

	m.Emit(ctx, service.EventRouteComputed, 2)
	m.Emit(ctx, service.EventCacheCleared, nil)
	m.Emit(ctx, service.EventRouteComputed, 3)

	last, ok := m.Last()
	if !ok || last.Event != service.EventRouteComputed || last.Data != 3 {
		t.Errorf("unexpected last event %+v", last)
	}
	if n := m.Count(service.EventRouteComputed); n != 2 {
		t.Errorf("expected 2 route events, got %d", n)
	}
}

// ─────────────────────────────────────────────────────────────
// SupersedeGuard tests
// ─────────────────────────────────────────────────────────────

func TestSupersedeGuard_NewestWins(t *testing.T) {
	var g service.ExportedSupersedeGuard

	first := g.Begin("conn-1")
	second := g.Begin("conn-1")
	other := g.Begin("conn-2")

	if g.Current("conn-1", first) {
		t.Fatal("expected superseded request to be rejected")
	}
	if !g.Current("conn-1", second) {
		t.Fatal("expected newest request to be accepted")
	}
	if g.Current("conn-1", second) {
		t.Fatal("expected a delivered request to be forgotten")
	}
	if !g.Current("conn-2", other) {
		t.Fatal("expected independent key to be unaffected")
	}
	if g.Current("conn-3", "not-a-number") {
		t.Fatal("expected malformed id to be rejected")
	}
}
