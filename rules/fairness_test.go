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

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/rules"
	"github.com/danielhkuo/brikick/store"
	"github.com/danielhkuo/brikick/testutil"
)

func TestMaxFairShipping(t *testing.T) {
	cfg := rules.DefaultFairnessConfig(time.Now())

	assert.True(t, dec("11.5").Equal(rules.MaxFairShipping(dec("10"), &cfg)))
	assert.True(t, dec("30").Equal(rules.MarkupPercentage(dec("13"), dec("10"))))
	// Ties round to even.
	assert.True(t, dec("0.34").Equal(rules.MaxFairShipping(dec("0.3"), &cfg)))

	assert.NoError(t, rules.ValidateFairShipping(dec("11.50"), dec("11.50")))
	err := rules.ValidateFairShipping(dec("11.51"), dec("11.50"))
	assert.True(t, errors.Is(err, rules.ErrFairShippingViolation))
}

func TestEvaluateShippingCost(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seller := testutil.CreateTestUser(t, conn, "seller")
	s := testutil.CreateTestStore(t, conn, seller.ID, "Brick Haven")

	check := rules.ShippingCheck{
		Origin:      "US",
		Destination: "DE",
		WeightGrams: 400,
		StoreID:     s.ID,
	}

	t.Run("no benchmark", func(t *testing.T) {
		c := check
		c.Charged = dec("99")
		eval, err := rules.EvaluateShippingCost(ctx, conn, c, now)
		require.NoError(t, err)
		assert.True(t, eval.Valid)
		assert.Equal(t, "No benchmark available", eval.Warning)
	})

	require.NoError(t, store.CreateBenchmark(ctx, conn, &models.ShippingBenchmark{
		ID:                 auth.NewID(),
		OriginCountry:      "US",
		DestinationCountry: "DE",
		WeightMinGrams:     0,
		WeightMaxGrams:     1000,
		BenchmarkCost:      dec("10"),
		LastUpdated:        &now,
	}))

	tests := []struct {
		name      string
		charged   string
		valid     bool
		flagType  string
		wantIssue bool
	}{
		{name: "within alert threshold", charged: "12", valid: true},
		{name: "above alert threshold", charged: "13", valid: true, flagType: models.FlagWarning},
		{name: "above auto flag threshold", charged: "20", valid: false, flagType: models.FlagViolation, wantIssue: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := check
			c.Charged = dec(tt.charged)
			eval, err := rules.EvaluateShippingCost(ctx, conn, c, now)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, eval.Valid)

			if tt.flagType == "" {
				assert.Nil(t, eval.Flag)
				return
			}
			require.NotNil(t, eval.Flag)
			assert.Equal(t, tt.flagType, eval.Flag.FlagType)
			assert.Equal(t, models.FlagOpen, eval.Flag.Status)

			if tt.wantIssue {
				assert.Equal(t, rules.CodeShippingCostExcessive, eval.ErrorCode)
				assert.Equal(t, "Shipping cost 100% above benchmark", eval.Message)
				issues, err := store.ListUserIssues(ctx, conn, seller.ID)
				require.NoError(t, err)
				require.Len(t, issues, 1)
				assert.Equal(t, models.IssueShippingViolation, issues[0].IssueType)
			}
		})
	}

	open, err := store.CountOpenFlags(ctx, conn, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, open)
}

func TestEvaluateShippingCostMessageRoundsToEven(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seller := testutil.CreateTestUser(t, conn, "seller")
	s := testutil.CreateTestStore(t, conn, seller.ID, "Brick Haven")
	require.NoError(t, store.CreateBenchmark(ctx, conn, &models.ShippingBenchmark{
		ID:                 auth.NewID(),
		OriginCountry:      "US",
		DestinationCountry: "DE",
		WeightMinGrams:     0,
		WeightMaxGrams:     1000,
		BenchmarkCost:      dec("10"),
		LastUpdated:        &now,
	}))

	eval, err := rules.EvaluateShippingCost(ctx, conn, rules.ShippingCheck{
		Origin:      "US",
		Destination: "DE",
		WeightGrams: 400,
		StoreID:     s.ID,
		Charged:     dec("16.25"),
	}, now)
	require.NoError(t, err)
	assert.False(t, eval.Valid)
	assert.Equal(t, "Shipping cost 62% above benchmark", eval.Message)
}

func TestQuoteFairShipping(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	cfg := rules.DefaultFairnessConfig(now)

	quote, err := rules.QuoteFairShipping(ctx, conn, &cfg, "US", "US", 100, dec("5"))
	require.NoError(t, err)
	assert.Nil(t, quote)

	require.NoError(t, store.CreateBenchmark(ctx, conn, &models.ShippingBenchmark{
		ID:                 auth.NewID(),
		OriginCountry:      "US",
		DestinationCountry: "US",
		WeightMinGrams:     0,
		WeightMaxGrams:     500,
		BenchmarkCost:      dec("4"),
	}))

	quote, err = rules.QuoteFairShipping(ctx, conn, &cfg, "US", "US", 100, dec("5"))
	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.True(t, dec("4.6").Equal(quote.MaxFair))
	assert.False(t, quote.WithinLimit)
}
