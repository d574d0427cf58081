package service

import (
	"context"
	"fmt"

	"cdr.dev/slog"
	"github.com/robfig/cron/v3"

	"whiteboard/internal/log"
)

// CacheJanitor periodically purges the route cache and logs its counters.
// Empty schedules disable the respective job.
type CacheJanitor struct {
	svc    *RouteService
	worker *RouteWorker
	purge  string
	stats  string
	sched  *cron.Cron
}

// NewCacheJanitor creates a janitor. rw may be nil when no background
// worker is running.
func NewCacheJanitor(svc *RouteService, rw *RouteWorker, purgeSchedule, statsSchedule string) *CacheJanitor {
	return &CacheJanitor{svc: svc, worker: rw, purge: purgeSchedule, stats: statsSchedule}
}

// Start registers the jobs and starts the scheduler.
func (j *CacheJanitor) Start(ctx context.Context) error {
	c := cron.New()
	if j.purge != "" {
		if _, err := c.AddFunc(j.purge, func() { j.Purge(ctx) }); err != nil {
			return fmt.Errorf("cache purge schedule %q: %w", j.purge, err)
		}
	}
	if j.stats != "" {
		if _, err := c.AddFunc(j.stats, func() { j.LogStats(ctx) }); err != nil {
			return fmt.Errorf("cache stats schedule %q: %w", j.stats, err)
		}
	}
	c.Start()
	j.sched = c
	log.Debug(ctx, "cache janitor scheduled", slog.F("purge", j.purge), slog.F("stats", j.stats))
	return nil
}

// Purge clears the service cache and the worker cache.
func (j *CacheJanitor) Purge(ctx context.Context) {
	before := j.svc.CacheStats()
	j.svc.ClearCache(ctx)
	if j.worker != nil {
		j.worker.ClearCache(ctx)
	}
	log.Info(ctx, "route cache purged", slog.F("entries", before.Size))
}

func (j *CacheJanitor) LogStats(ctx context.Context) {
	st := j.svc.CacheStats()
	log.Info(ctx, "route cache stats",
		slog.F("size", st.Size),
		slog.F("capacity", st.Capacity),
		slog.F("hits", st.Hits),
		slog.F("misses", st.Misses),
		slog.F("evictions", st.Evictions),
	)
}

// Stop halts the scheduler and waits for a running job to finish.
func (j *CacheJanitor) Stop() {
	if j.sched != nil {
		<-j.sched.Stop().Done()
		j.sched = nil
	}
}
