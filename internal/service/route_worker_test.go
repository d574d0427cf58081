package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whiteboard/internal/domain"
	"whiteboard/internal/elbow"
	"whiteboard/internal/worker"
)

func newMemService(t *testing.T) *RouteService {
	t.Helper()
	svc, err := NewRouteService(elbow.DefaultOptions(), nil, nil, nil, &MockEmitter{})
	require.NoError(t, err)
	return svc
}

func TestRouteWorker_AnswersLikeTheService(t *testing.T) {
	svc := newMemService(t)
	ctx := context.Background()
	rw := NewRouteWorker(svc, 5*time.Second, 8)
	rw.Start(ctx)
	defer rw.Stop()

	// The update is queued ahead of the request, so the worker sees it.
	svc.UpdateElements(ctx, []domain.Element{
		{ID: "l", Type: domain.ElementTypeRectangle, X: 0, Y: 0, Width: 60, Height: 60, Visible: true},
		{ID: "m", Type: domain.ElementTypeRectangle, X: 180, Y: -20, Width: 80, Height: 100, Visible: true},
		{ID: "r", Type: domain.ElementTypeRectangle, X: 400, Y: 0, Width: 60, Height: 60, Visible: true},
	})
	sb := elbow.FaceBinding("l", elbow.Right, 0.5)
	eb := elbow.FaceBinding("r", elbow.Left, 0.5)
	p := worker.RouteParams{StartWorld: elbow.Pt(60, 30), EndWorld: elbow.Pt(400, 30), StartBinding: &sb, EndBinding: &eb}

	got, err := rw.Compute(ctx, "c1", p)
	require.NoError(t, err)
	assert.Equal(t, svc.ComputePoints(ctx, p), got)
	assert.Greater(t, len(got), 4, "route must detour around the middle shape")
}

func TestRouteWorker_NotStartedRoutesSynchronously(t *testing.T) {
	svc := newMemService(t)
	rw := NewRouteWorker(svc, 0, 0)
	assert.Equal(t, DefaultWorkerTimeout, rw.timeout)

	got, err := rw.Compute(context.Background(), "c1", worker.RouteParams{StartWorld: elbow.Pt(0, 0), EndWorld: elbow.Pt(200, 0)})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 200, 0}, got)
}

// stalled marks the worker running without a goroutine draining the queue.
func stalled(rw *RouteWorker) {
	rw.mu.Lock()
	rw.running = true
	rw.mu.Unlock()
}

func TestRouteWorker_TimeoutFallsBack(t *testing.T) {
	svc := newMemService(t)
	rw := NewRouteWorker(svc, 10*time.Millisecond, 4)
	stalled(rw)

	start := time.Now()
	got, err := rw.Compute(context.Background(), "c1", worker.RouteParams{StartWorld: elbow.Pt(0, 0), EndWorld: elbow.Pt(0, 120)})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 120}, got)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestRouteWorker_FullQueueFallsBack(t *testing.T) {
	svc := newMemService(t)
	rw := NewRouteWorker(svc, time.Hour, 1)
	stalled(rw)
	rw.jobs <- workerJob{msg: worker.Message{Type: worker.TypeClearCache}}

	got, err := rw.Compute(context.Background(), "c1", worker.RouteParams{StartWorld: elbow.Pt(0, 0), EndWorld: elbow.Pt(50, 0)})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 50, 0}, got)
}

func TestRouteWorker_SupersededResultIsDropped(t *testing.T) {
	svc := newMemService(t)
	rw := NewRouteWorker(svc, 40*time.Millisecond, 4)
	stalled(rw)
	ctx := context.Background()

	older := make(chan error, 1)
	go func() {
		_, err := rw.Compute(ctx, "c1", worker.RouteParams{StartWorld: elbow.Pt(0, 0), EndWorld: elbow.Pt(10, 0)})
		older <- err
	}()
	require.Eventually(t, func() bool { return len(rw.jobs) == 1 }, time.Second, time.Millisecond)

	got, err := rw.Compute(ctx, "c1", worker.RouteParams{StartWorld: elbow.Pt(0, 0), EndWorld: elbow.Pt(20, 0)})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 20, 0}, got)
	assert.True(t, errors.Is(<-older, ErrSuperseded))
}

func TestRouteWorker_ContextCancelled(t *testing.T) {
	svc := newMemService(t)
	rw := NewRouteWorker(svc, time.Hour, 4)
	stalled(rw)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := rw.Compute(ctx, "c1", worker.RouteParams{StartWorld: elbow.Pt(0, 0), EndWorld: elbow.Pt(10, 0)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRouteWorker_StopIsIdempotent(t *testing.T) {
	svc := newMemService(t)
	rw := NewRouteWorker(svc, time.Second, 4)
	rw.Start(context.Background())
	rw.Stop()
	rw.Stop()

	got, err := rw.Compute(context.Background(), "c1", worker.RouteParams{StartWorld: elbow.Pt(0, 0), EndWorld: elbow.Pt(30, 0)})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 30, 0}, got)
}

func TestRouteWorker_RestartDropsStaleUpdates(t *testing.T) {
	svc := newMemService(t)
	ctx := context.Background()
	rw := NewRouteWorker(svc, 5*time.Second, 8)
	rw.Start(ctx)
	rw.Stop()

	// An update that was still queued when the worker stopped.
	rw.jobs <- workerJob{msg: worker.UpdateElements(nil)}
	svc.UpdateElements(ctx, []domain.Element{
		{ID: "l", Type: domain.ElementTypeRectangle, X: 0, Y: 0, Width: 60, Height: 60, Visible: true},
		{ID: "m", Type: domain.ElementTypeRectangle, X: 180, Y: -20, Width: 80, Height: 100, Visible: true},
		{ID: "r", Type: domain.ElementTypeRectangle, X: 400, Y: 0, Width: 60, Height: 60, Visible: true},
	})
	assert.Len(t, rw.jobs, 1, "a stopped worker takes no updates")

	rw.Start(ctx)
	defer rw.Stop()
	svc.mu.RLock()
	assert.Len(t, svc.watchers, 1, "restart must not subscribe twice")
	svc.mu.RUnlock()

	sb := elbow.FaceBinding("l", elbow.Right, 0.5)
	eb := elbow.FaceBinding("r", elbow.Left, 0.5)
	p := worker.RouteParams{StartWorld: elbow.Pt(60, 30), EndWorld: elbow.Pt(400, 30), StartBinding: &sb, EndBinding: &eb}
	got, err := rw.Compute(ctx, "c1", p)
	require.NoError(t, err)
	assert.Equal(t, svc.ComputePoints(ctx, p), got)
	assert.Greater(t, len(got), 4, "worker must route around the current middle shape")
}

func TestRouteWorker_CancelledRequestIsForgotten(t *testing.T) {
	svc := newMemService(t)
	rw := NewRouteWorker(svc, time.Hour, 4)
	stalled(rw)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	_, err := rw.Compute(ctx, "c1", worker.RouteParams{StartWorld: elbow.Pt(0, 0), EndWorld: elbow.Pt(10, 0)})
	require.ErrorIs(t, err, context.Canceled)
	rw.latest.mu.Lock()
	assert.Empty(t, rw.latest.latest)
	rw.latest.mu.Unlock()
}
