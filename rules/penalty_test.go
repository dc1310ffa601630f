// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/rules"
	"github.com/danielhkuo/brikick/store"
	"github.com/danielhkuo/brikick/testutil"
)

func TestDeterminePenalty(t *testing.T) {
	cfg := rules.DefaultPenaltyConfig(time.Now())

	tests := []struct {
		count     int
		wantOK    bool
		wantType  string
		permanent bool
		duration  time.Duration
	}{
		{count: 0, wantOK: false},
		{count: 2, wantOK: false},
		{count: 3, wantOK: true, wantType: models.PenaltyWarning},
		{count: 5, wantOK: true, wantType: models.PenaltyCooldown, duration: 7 * 24 * time.Hour},
		{count: 8, wantOK: true, wantType: models.PenaltySuspension, duration: 30 * 24 * time.Hour},
		{count: 12, wantOK: true, wantType: models.PenaltyBan, permanent: true},
		{count: 40, wantOK: true, wantType: models.PenaltyBan, permanent: true},
	}

	for _, tt := range tests {
		d, ok := rules.DeterminePenalty(tt.count, &cfg)
		assert.Equal(t, tt.wantOK, ok, "count %d", tt.count)
		assert.Equal(t, tt.wantType, d.Type, "count %d", tt.count)
		assert.Equal(t, tt.permanent, d.Permanent, "count %d", tt.count)
		assert.Equal(t, tt.duration, d.Duration, "count %d", tt.count)
	}
}

func TestCanBuyCanSell(t *testing.T) {
	assert.True(t, rules.CanBuy(nil))
	assert.True(t, rules.CanSell(nil))

	penalty := func(kind string) *models.UserPenalty {
		return &models.UserPenalty{PenaltyType: kind, Restrictions: models.NewJSON(rules.RestrictionsFor(kind))}
	}

	assert.True(t, rules.CanBuy(penalty(models.PenaltyWarning)))
	assert.True(t, rules.CanSell(penalty(models.PenaltyWarning)))
	assert.True(t, rules.CanBuy(penalty(models.PenaltyCooldown)))
	assert.False(t, rules.CanSell(penalty(models.PenaltyCooldown)))
	assert.False(t, rules.CanBuy(penalty(models.PenaltySuspension)))
	assert.False(t, rules.CanBuy(penalty(models.PenaltyBan)))
	assert.True(t, rules.RestrictionsFor(models.PenaltyBan).APIDisabled)
}

func TestRestrictionMessage(t *testing.T) {
	now := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	ends := now.Add(6 * 24 * time.Hour)

	assert.Equal(t, "", rules.RestrictionMessage(nil, now))
	assert.Equal(t, "SUSPENSION ends 6 days from now",
		rules.RestrictionMessage(&models.UserPenalty{PenaltyType: models.PenaltySuspension, EndsAt: &ends}, now))
	assert.Equal(t, "BAN in effect with no end date",
		rules.RestrictionMessage(&models.UserPenalty{PenaltyType: models.PenaltyBan}, now))
}

func recordIssues(t *testing.T, q store.Queryer, userID string, n int, now time.Time) *models.UserPenalty {
	t.Helper()
	var last *models.UserPenalty
	for i := 0; i < n; i++ {
		p, err := rules.RecordIssue(context.Background(), q, rules.Issue{
			UserID:   userID,
			Type:     models.IssueManual,
			Severity: 1,
		}, now)
		require.NoError(t, err)
		if p != nil {
			last = p
		}
	}
	return last
}

func TestRecordIssue_Escalates(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	user := testutil.CreateTestUser(t, conn, "repeat-offender")

	assert.Nil(t, recordIssues(t, conn, user.ID, 2, now), "two issues stay below every threshold")

	p := recordIssues(t, conn, user.ID, 1, now)
	require.NotNil(t, p)
	assert.Equal(t, models.PenaltyWarning, p.PenaltyType)
	assert.Equal(t, rules.ReasonAutoThreshold, p.ReasonCode)
	assert.Nil(t, p.EndsAt)

	// A fourth issue calls for another warning, which is not an escalation
	assert.Nil(t, recordIssues(t, conn, user.ID, 1, now))

	p = recordIssues(t, conn, user.ID, 1, now)
	require.NotNil(t, p)
	assert.Equal(t, models.PenaltyCooldown, p.PenaltyType)
	require.NotNil(t, p.EndsAt)

	current, err := rules.CurrentPenalty(ctx, conn, user.ID, now)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, models.PenaltyCooldown, current.PenaltyType)
	assert.False(t, rules.CanSell(current))
	assert.True(t, rules.CanBuy(current))

	count, err := rules.CountActiveIssues(ctx, conn, &models.PenaltyConfig{EvaluationPeriodMonths: 6}, user.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestAppeals(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := testutil.CreateTestUser(t, conn, "appellant")
	other := testutil.CreateTestUser(t, conn, "bystander")
	staff := testutil.CreateTestUser(t, conn, "support")

	p := recordIssues(t, conn, user.ID, 5, now)
	require.NotNil(t, p)

	err := rules.SubmitAppeal(ctx, conn, p.ID, other.ID, "not mine")
	assert.True(t, errors.Is(err, store.ErrNotFound), "appeals on other users' penalties look missing")

	require.NoError(t, rules.SubmitAppeal(ctx, conn, p.ID, user.ID, "The parcels were lost in transit."))

	err = rules.SubmitAppeal(ctx, conn, p.ID, user.ID, "again")
	assert.True(t, errors.Is(err, rules.ErrAppealClosed))

	decided, err := rules.DecideAppeal(ctx, conn, p.ID, true, staff.ID, now)
	require.NoError(t, err)
	require.NotNil(t, decided.AppealStatus)
	assert.Equal(t, models.ReviewApproved, *decided.AppealStatus)

	current, err := rules.CurrentPenalty(ctx, conn, user.ID, now)
	require.NoError(t, err)
	if current != nil {
		assert.NotEqual(t, p.ID, current.ID, "approved appeal lifts the penalty")
	}

	_, err = rules.DecideAppeal(ctx, conn, p.ID, false, staff.ID, now)
	assert.True(t, errors.Is(err, store.ErrNotFound), "an appeal is decided once")
}
