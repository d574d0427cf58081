package service

import (
	"context"
	"strconv"
	"sync"
)

// Exported aliases so _test packages can test the guards.
type (
	ExportedRunningGuard   = runningJobsGuard
	ExportedSupersedeGuard = supersedeGuard
)

// ─────────────────────────────────────────────────────────────
// runningJobsGuard — prevents concurrent execution of the same job
// ─────────────────────────────────────────────────────────────

// runningJobsGuard is a concurrency guard that ensures only one
// instance of a given job ID runs at a time. Imports use the page ID.
type runningJobsGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock attempts to mark jobID as running. Returns false if the job is
// already running.
func (g *runningJobsGuard) TryLock(jobID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[jobID]; ok {
		return false
	}
	g.running[jobID] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock marks the job as no longer running. Must be called after TryLock returns true.
func (g *runningJobsGuard) Unlock(jobID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, jobID)
	g.wg.Done()
}

// WaitAll blocks until all currently running jobs complete or ctx is cancelled.
func (g *runningJobsGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// ─────────────────────────────────────────────────────────────
// supersedeGuard — newest request per connector wins
// ─────────────────────────────────────────────────────────────

// supersedeGuard hands out increasing request IDs per key. A result is
// only delivered if its ID is still the newest for its key; older
// requests run to completion and are dropped.
type supersedeGuard struct {
	mu     sync.Mutex
	seq    uint64
	latest map[string]uint64
}

// Begin registers a new request for key and returns its ID.
func (g *supersedeGuard) Begin(key string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.latest == nil {
		g.latest = make(map[string]uint64)
	}
	g.seq++
	g.latest[key] = g.seq
	return strconv.FormatUint(g.seq, 10)
}

// Current reports whether id is still the newest request for key, and
// forgets the key when it is.
func (g *supersedeGuard) Current(key, id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || g.latest[key] != n {
		return false
	}
	delete(g.latest, key)
	return true
}
