// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/jobs"
	"github.com/danielhkuo/brikick/metrics"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
	"github.com/danielhkuo/brikick/testutil"
)

func TestAllJobsHaveValidSchedules(t *testing.T) {
	seen := make(map[string]bool)
	for _, j := range jobs.All() {
		assert.False(t, seen[j.Name], "duplicate job %s", j.Name)
		seen[j.Name] = true

		_, err := cron.ParseStandard(j.Spec)
		assert.NoError(t, err, "job %s", j.Name)
		assert.NotNil(t, j.Run, "job %s", j.Name)
	}
	assert.Len(t, seen, 7)
	assert.Equal(t, "0 5 * * 1", mustFind(t, jobs.CalculateUserRatings).Spec)
}

func mustFind(t *testing.T, name string) jobs.Job {
	t.Helper()
	j, ok := jobs.Find(name)
	require.True(t, ok, "job %s not registered", name)
	return j
}

func TestNewSchedulerOverrides(t *testing.T) {
	runner := jobs.NewRunner(nil, jobs.NewLocalLocker())

	t.Run("override and disable", func(t *testing.T) {
		s, err := jobs.NewScheduler(runner, jobs.All(), map[string]string{
			jobs.AwardBadges:       "15 6 * * *",
			jobs.EvaluatePenalties: "",
		})
		require.NoError(t, err)

		specs := make(map[string]string)
		for _, j := range s.Jobs() {
			specs[j.Name] = j.Spec
		}
		assert.Equal(t, "15 6 * * *", specs[jobs.AwardBadges])
		assert.NotContains(t, specs, jobs.EvaluatePenalties)
		assert.Len(t, specs, 6)
	})

	t.Run("invalid spec", func(t *testing.T) {
		_, err := jobs.NewScheduler(runner, jobs.All(), map[string]string{jobs.AwardBadges: "every day"})
		assert.Error(t, err)
	})
}

func TestSchedulerStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, err := jobs.NewScheduler(jobs.NewRunner(nil, jobs.NewLocalLocker()), jobs.All(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestRunnerLocking(t *testing.T) {
	ctx := context.Background()
	locker := jobs.NewLocalLocker()
	runner := jobs.NewRunner(nil, locker)

	calls := 0
	job := jobs.Job{Name: "test_job", Spec: "* * * * *", Run: func(context.Context, *sqlx.DB, time.Time) (int, error) {
		calls++
		return 3, nil
	}}

	release, ok, err := locker.Acquire(ctx, job.Name, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	result, err := runner.Run(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, metrics.ResultSkipped, result)
	assert.Zero(t, calls)

	release()

	result, err = runner.Run(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, metrics.ResultOK, result)
	assert.Equal(t, 1, calls)

	// The lock is released after each run.
	_, ok, err = locker.Acquire(ctx, job.Name, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunnerReportsFailure(t *testing.T) {
	boom := errors.New("boom")
	runner := jobs.NewRunner(nil, jobs.NewLocalLocker())

	result, err := runner.Run(context.Background(), jobs.Job{Name: "failing", Run: func(context.Context, *sqlx.DB, time.Time) (int, error) {
		return 0, boom
	}})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, metrics.ResultError, result)
}

func TestRunByNameUnknown(t *testing.T) {
	_, err := jobs.NewRunner(nil, jobs.NewLocalLocker()).RunByName(context.Background(), "no_such_job")
	assert.ErrorContains(t, err, "unknown job")
}

func TestRedisLockerUnreachable(t *testing.T) {
	_, err := jobs.NewRedisLocker("not a url")
	assert.Error(t, err)

	locker, err := jobs.NewRedisLocker("redis://127.0.0.1:1/0")
	require.NoError(t, err)
	defer locker.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, ok, err := locker.Acquire(ctx, "evaluate_penalties", time.Minute)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestEvaluatePenaltiesJob(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	offender := testutil.CreateTestUser(t, conn, "offender")
	clean := testutil.CreateTestUser(t, conn, "clean")

	for i := 0; i < 3; i++ {
		require.NoError(t, store.CreateIssue(ctx, conn, &models.UserIssue{
			ID:        auth.NewID(),
			UserID:    offender.ID,
			IssueType: models.IssueManual,
			Severity:  1,
			CreatedAt: now.Add(-time.Duration(i+1) * time.Hour),
			ExpiresAt: now.AddDate(1, 0, 0),
		}))
	}

	n, err := mustFind(t, jobs.EvaluatePenalties).Run(ctx, conn, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := store.CurrentPenalty(ctx, conn, offender.ID, now)
	require.NoError(t, err)
	assert.Equal(t, models.PenaltyWarning, p.PenaltyType)

	_, err = store.CurrentPenalty(ctx, conn, clean.ID, now)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// A second pass changes nothing.
	n, err = mustFind(t, jobs.EvaluatePenalties).Run(ctx, conn, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTransactionalJobsRunOnEmptyDatabase(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	runner := jobs.NewRunner(conn, jobs.NewLocalLocker())

	for _, name := range jobs.Names() {
		result, err := runner.RunByName(context.Background(), name)
		assert.NoError(t, err, "job %s", name)
		assert.Equal(t, metrics.ResultOK, result, "job %s", name)
	}
}
