// Package jobs runs the periodic housekeeping tasks.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aggies-attic/internal/config"
	"aggies-attic/internal/logger"
	"aggies-attic/internal/models"

	"github.com/robfig/cron/v3"
)

const (
	jobTimeout  = 2 * time.Minute
	lockTimeout = 5 * time.Second
)

// Warmer refills one public list in the cache.
type Warmer func(ctx context.Context) error

type SyncFailureLister interface {
	ListSyncFailures(ctx context.Context) ([]models.Event, error)
}

// Scheduler runs jobs on a cron. When Locker is set before Start, each
// run first takes a lock named after the job and is skipped if another
// instance holds it.
type Scheduler struct {
	Locker Locker
	cron   *cron.Cron
	log    *logger.Logger
}

// New registers the jobs whose schedule is set. Warmers are skipped when
// none are given, e.g. because the cache is disabled.
func New(cfg config.JobsConfig, warmers []Warmer, failures SyncFailureLister, log *logger.Logger) (*Scheduler, error) {
	s := &Scheduler{cron: cron.New(), log: log}

	if cfg.CacheWarmCron != "" && len(warmers) > 0 {
		if _, err := s.cron.AddFunc(cfg.CacheWarmCron, s.exclusive("cache-warm", func() { s.warm(warmers) })); err != nil {
			return nil, fmt.Errorf("schedule cache warm %q: %w", cfg.CacheWarmCron, err)
		}
		log.Info("JOBS", fmt.Sprintf("cache warm scheduled at %q", cfg.CacheWarmCron))
	}
	if cfg.SyncReportCron != "" && failures != nil {
		if _, err := s.cron.AddFunc(cfg.SyncReportCron, s.exclusive("sync-report", func() { s.reportSyncFailures(failures) })); err != nil {
			return nil, fmt.Errorf("schedule sync report %q: %w", cfg.SyncReportCron, err)
		}
		log.Info("JOBS", fmt.Sprintf("sync report scheduled at %q", cfg.SyncReportCron))
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("JOBS", "stopped before running jobs finished")
	}
}

func (s *Scheduler) exclusive(job string, run func()) func() {
	return func() {
		if s.Locker == nil {
			run()
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
		release, ok, err := s.Locker.TryLock(ctx, job, jobTimeout)
		cancel()
		if err != nil {
			s.log.Warn("JOBS", fmt.Sprintf("%s skipped: %v", job, err))
			return
		}
		if !ok {
			s.log.Debug("JOBS", fmt.Sprintf("%s is running on another instance", job))
			return
		}
		defer release()
		run()
	}
}

func (s *Scheduler) warm(warmers []Warmer) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	for _, w := range warmers {
		if err := w(ctx); err != nil {
			s.log.Warn("JOBS", fmt.Sprintf("cache warm failed: %v", err))
		}
	}
}

// reportSyncFailures logs the events whose last Page sync failed so they
// can be re-saved by an admin.
func (s *Scheduler) reportSyncFailures(failures SyncFailureLister) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	events, err := failures.ListSyncFailures(ctx)
	if err != nil {
		s.log.Error("JOBS", fmt.Sprintf("sync report failed: %v", err))
		return
	}
	if len(events) == 0 {
		s.log.Info("JOBS", "sync report: every event is in sync")
		return
	}
	s.log.Warn("JOBS", SyncReport(events))
}

// SyncReport formats one line per out-of-sync event.
func SyncReport(events []models.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "sync report: %d event(s) failed their last Page sync", len(events))
	for _, e := range events {
		st := e.SyncState()
		fmt.Fprintf(&b, "\n  %s %q: %s", e.ID.Hex(), e.Title, st.LastError)
	}
	return b.String()
}
