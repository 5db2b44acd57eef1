package cron

import (
	"context"
	"log/slog"
	"time"
)

// SessionPruner is the slice of session.Store the cleanup job needs.
// Defined here so the scheduler has no dependency on the session package.
type SessionPruner interface {
	Prune(maxIdle time.Duration) int
}

// SessionCleanupJob removes sessions that have been idle longer than
// MaxIdle. Abandoned interviews otherwise stay in memory forever.
type SessionCleanupJob struct {
	Store        SessionPruner
	MaxIdle      time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/5 * * * *"
}

// Compile-time interface check.
var _ Job = (*SessionCleanupJob)(nil)

// Name implements Job.
func (j *SessionCleanupJob) Name() string { return "session_cleanup" }

// Schedule implements Job.
func (j *SessionCleanupJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/5 * * * *"
}

// Run prunes sessions idle longer than MaxIdle.
func (j *SessionCleanupJob) Run(_ context.Context) error {
	pruned := j.Store.Prune(j.MaxIdle)
	if pruned > 0 {
		j.Logger.Info("cron: pruned idle sessions", "count", pruned, "max_idle", j.MaxIdle)
	}
	return nil
}

// CacheSweeper is the slice of qcache.Cache the sweep job needs.
type CacheSweeper interface {
	Sweep() int
}

// CacheSweepJob drops expired question batches from the cache. Entries
// expire individually on read; the sweep bounds memory for keys that are
// never read again.
type CacheSweepJob struct {
	Cache        CacheSweeper
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/10 * * * *"
}

// Compile-time interface check.
var _ Job = (*CacheSweepJob)(nil)

// Name implements Job.
func (j *CacheSweepJob) Name() string { return "cache_sweep" }

// Schedule implements Job.
func (j *CacheSweepJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/10 * * * *"
}

// Run removes expired cache entries.
func (j *CacheSweepJob) Run(_ context.Context) error {
	removed := j.Cache.Sweep()
	if removed > 0 {
		j.Logger.Info("cron: swept expired question batches", "count", removed)
	}
	return nil
}
