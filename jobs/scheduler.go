// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"

	"github.com/danielhkuo/brikick/metrics"
)

// lockTTL bounds how long a crashed runner can keep a job locked.
const lockTTL = 30 * time.Minute

// Runner executes jobs under a lock and records the outcome.
type Runner struct {
	db     *sqlx.DB
	locker Locker
	now    func() time.Time
}

func NewRunner(db *sqlx.DB, locker Locker) *Runner {
	return &Runner{
		db:     db,
		locker: locker,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one pass of j. A job already running elsewhere is skipped
// and reported as such, not as an error.
func (r *Runner) Run(ctx context.Context, j Job) (result string, err error) {
	release, ok, err := r.locker.Acquire(ctx, j.Name, lockTTL)
	if err != nil {
		metrics.JobRuns.WithLabelValues(j.Name, metrics.ResultError).Inc()
		return metrics.ResultError, err
	}
	if !ok {
		slog.Info("job skipped", "job", j.Name, "reason", "locked")
		metrics.JobRuns.WithLabelValues(j.Name, metrics.ResultSkipped).Inc()
		return metrics.ResultSkipped, nil
	}
	defer release()

	start := time.Now()
	slog.Info("job started", "job", j.Name)
	n, err := j.Run(ctx, r.db, r.now())
	elapsed := time.Since(start)
	if err != nil {
		slog.Error("job failed", "job", j.Name, "error", err, "duration_ms", elapsed.Milliseconds())
		metrics.JobRuns.WithLabelValues(j.Name, metrics.ResultError).Inc()
		return metrics.ResultError, err
	}

	slog.Info("job completed",
		"job", j.Name,
		"processed", humanize.Comma(int64(n)),
		"duration_ms", elapsed.Milliseconds())
	metrics.JobRuns.WithLabelValues(j.Name, metrics.ResultOK).Inc()
	return metrics.ResultOK, nil
}

// RunByName runs the named job once.
func (r *Runner) RunByName(ctx context.Context, name string) (string, error) {
	j, ok := Find(name)
	if !ok {
		return "", fmt.Errorf("unknown job %q", name)
	}
	return r.Run(ctx, j)
}

// Scheduler fires jobs on their cron specs.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	jobs   []Job
}

// NewScheduler schedules jobs, taking overrides from schedules keyed by
// job name. An empty override disables the job.
func NewScheduler(runner *Runner, jobs []Job, schedules map[string]string) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		runner: runner,
	}
	for _, j := range jobs {
		if spec, ok := schedules[j.Name]; ok {
			j.Spec = spec
		}
		if j.Spec == "" {
			slog.Info("job disabled", "job", j.Name)
			continue
		}
		if _, err := cron.ParseStandard(j.Spec); err != nil {
			return nil, fmt.Errorf("invalid schedule for %s: %w", j.Name, err)
		}
		s.jobs = append(s.jobs, j)
	}
	return s, nil
}

// Jobs returns the jobs that will be scheduled, with effective specs.
func (s *Scheduler) Jobs() []Job {
	return s.jobs
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits
// for running jobs to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	for _, j := range s.jobs {
		if _, err := s.cron.AddFunc(j.Spec, func() {
			s.runner.Run(ctx, j)
		}); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", j.Name, err)
		}
	}

	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.jobs))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
	return nil
}
