package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"cdr.dev/slog"

	"whiteboard/internal/domain"
	"whiteboard/internal/log"
	"whiteboard/internal/worker"
)

// ─────────────────────────────────────────────────────────────
// RouteWorker — off-thread routing with a synchronous fallback
// ─────────────────────────────────────────────────────────────

// DefaultWorkerTimeout is how long Compute waits for the worker before
// routing on the caller's goroutine instead.
const DefaultWorkerTimeout = 50 * time.Millisecond

// ErrSuperseded is returned when a newer request for the same connector
// was issued while this one was in flight.
var ErrSuperseded = errors.New("route request superseded")

type workerJob struct {
	msg   worker.Message
	reply chan []float64
}

// RouteWorker runs a private worker.Worker on its own goroutine. Element
// updates and route requests are applied in the order they were sent.
type RouteWorker struct {
	svc     *RouteService
	timeout time.Duration
	jobs    chan workerJob
	latest  supersedeGuard

	subscribe sync.Once

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRouteWorker creates a worker for svc. Zero values select the defaults.
func NewRouteWorker(svc *RouteService, timeout time.Duration, queueSize int) *RouteWorker {
	if timeout <= 0 {
		timeout = DefaultWorkerTimeout
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &RouteWorker{
		svc:     svc,
		timeout: timeout,
		jobs:    make(chan workerJob, queueSize),
	}
}

// Start launches the worker goroutine seeded with the service snapshot.
// Later snapshot changes are forwarded automatically.
func (rw *RouteWorker) Start(ctx context.Context) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.running {
		return
	}
	rw.subscribe.Do(func() { rw.svc.subscribe(rw.forward) })

	// Anything left from a previous run predates the seed below.
	rw.drainLocked()
	ctx, cancel := context.WithCancel(ctx)
	rw.ctx, rw.cancel = ctx, cancel
	rw.done = make(chan struct{})
	rw.running = true

	w := worker.New(rw.svc.Options())
	w.SetElements(rw.svc.Elements())

	go rw.loop(ctx, w, rw.done)
	log.Debug(ctx, "route worker started", slog.F("timeout", rw.timeout))
}

// Stop terminates the worker goroutine and waits for it to exit. Requests
// still queued are answered by the synchronous fallback.
func (rw *RouteWorker) Stop() {
	rw.mu.Lock()
	if !rw.running {
		rw.mu.Unlock()
		return
	}
	rw.running = false
	rw.cancel()
	done := rw.done
	rw.mu.Unlock()
	<-done

	rw.mu.Lock()
	rw.drainLocked()
	rw.mu.Unlock()
}

// drainLocked drops queued jobs. Callers waiting on a reply fall back to
// synchronous routing when their timer fires.
func (rw *RouteWorker) drainLocked() {
	for {
		select {
		case <-rw.jobs:
		default:
			return
		}
	}
}

// forward passes snapshot changes to the running worker.
func (rw *RouteWorker) forward(els []domain.Element) {
	rw.mu.Lock()
	ctx := rw.ctx
	rw.mu.Unlock()
	if ctx == nil {
		return
	}
	rw.send(ctx, worker.UpdateElements(els), nil)
}

func (rw *RouteWorker) loop(ctx context.Context, w *worker.Worker, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-rw.jobs:
			reply, err := w.Handle(job.msg)
			if err != nil {
				log.Warn(ctx, "route worker message failed", slog.F("type", job.msg.Type), slog.Error(err))
			}
			if job.reply != nil {
				var pts []float64
				if reply != nil {
					pts = reply.Points
				}
				job.reply <- pts
			}
		}
	}
}

// send queues msg without blocking. It reports false when the worker is
// stopped or its queue is full.
func (rw *RouteWorker) send(ctx context.Context, msg worker.Message, reply chan []float64) bool {
	if ctx.Err() != nil {
		return false
	}
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if !rw.running {
		return false
	}
	select {
	case rw.jobs <- workerJob{msg: msg, reply: reply}:
		return true
	default:
		log.Warn(ctx, "route worker queue full", slog.F("type", msg.Type))
		return false
	}
}

// ClearCache asks the worker to drop its route cache.
func (rw *RouteWorker) ClearCache(ctx context.Context) {
	rw.send(ctx, worker.Message{Type: worker.TypeClearCache}, nil)
}

// Compute routes one connector identified by key. If the worker does not
// answer within the timeout the route is computed synchronously. When a
// newer request for key was issued meanwhile, ErrSuperseded is returned
// and the result is discarded.
func (rw *RouteWorker) Compute(ctx context.Context, key string, p worker.RouteParams) ([]float64, error) {
	id := rw.latest.Begin(key)

	reply := make(chan []float64, 1)
	var pts []float64
	if rw.send(ctx, worker.ComputeRoute(id, p), reply) {
		timer := time.NewTimer(rw.timeout)
		defer timer.Stop()
		select {
		case pts = <-reply:
		case <-timer.C:
			log.Warn(ctx, "route worker timed out, routing synchronously",
				slog.F("connector", key), slog.F("timeout", rw.timeout))
			pts = rw.svc.ComputePoints(ctx, p)
		case <-ctx.Done():
			rw.latest.Current(key, id)
			return nil, ctx.Err()
		}
	} else {
		pts = rw.svc.ComputePoints(ctx, p)
	}

	if !rw.latest.Current(key, id) {
		return nil, ErrSuperseded
	}
	return pts, nil
}
