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

func TestRiskyBuyer(t *testing.T) {
	s := &models.Store{RequireApprovalForRiskyBuyers: true, RiskThresholdScore: dec("50")}

	assert.False(t, rules.RiskyBuyer(s, nil), "unrated buyers are not held")
	assert.True(t, rules.RiskyBuyer(s, &models.RatingMetrics{OverallScore: dec("49.99")}))
	assert.False(t, rules.RiskyBuyer(s, &models.RatingMetrics{OverallScore: dec("50")}))

	s.RequireApprovalForRiskyBuyers = false
	assert.False(t, rules.RiskyBuyer(s, &models.RatingMetrics{OverallScore: dec("1")}))
}

type heldOrder struct {
	order    models.Order
	lot      models.Lot
	seller   models.User
	approval *models.OrderApproval
}

// setupHeldOrder places a two piece order awaiting approval. The lot is
// left with eight of ten pieces.
func setupHeldOrder(t *testing.T, now time.Time) (*heldOrder, store.Queryer) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()

	seller := testutil.CreateTestUser(t, conn, "seller")
	buyer := testutil.CreateTestUser(t, conn, "buyer")
	s := testutil.CreateTestStore(t, conn, seller.ID, "Brick Haven")
	item := testutil.CreateTestCatalogItem(t, conn, "3001")
	lot := testutil.CreateTestLot(t, conn, s.ID, item.ID, 8, "1.00")

	o := testutil.CreateTestOrder(t, conn, buyer.ID, lot, 2, models.OrderPendingApproval, now)
	a := rules.NewApproval(auth.NewID(), o.ID, &models.RatingMetrics{OverallScore: dec("20")}, now)
	require.NoError(t, store.CreateApproval(ctx, conn, a))

	return &heldOrder{order: o, lot: lot, seller: seller, approval: a}, conn
}

func TestDecideOrderApproval(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("approve", func(t *testing.T) {
		h, conn := setupHeldOrder(t, now)

		a, err := rules.DecideOrderApproval(ctx, conn, h.order.ID, true, h.seller.ID, nil, now)
		require.NoError(t, err)
		assert.Equal(t, models.ReviewApproved, a.Status)

		o, err := store.GetOrder(ctx, conn, h.order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderPending, o.Status)

		_, err = rules.DecideOrderApproval(ctx, conn, h.order.ID, false, h.seller.ID, nil, now)
		assert.True(t, errors.Is(err, rules.ErrApprovalClosed))
	})

	t.Run("decline restocks", func(t *testing.T) {
		h, conn := setupHeldOrder(t, now)

		a, err := rules.DecideOrderApproval(ctx, conn, h.order.ID, false, h.seller.ID, nil, now)
		require.NoError(t, err)
		assert.Equal(t, models.ReviewDeclined, a.Status)

		o, err := store.GetOrder(ctx, conn, h.order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderCancelled, o.Status)

		lot, err := store.GetLot(ctx, conn, h.lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, lot.Quantity)

		history, err := store.ListStatusHistory(ctx, conn, h.order.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, models.OrderPendingApproval, history[0].OldStatus)
		assert.Equal(t, models.OrderCancelled, history[0].NewStatus)
	})
}

func TestAutoCancelUnapprovedOrders(t *testing.T) {
	ctx := context.Background()
	placed := time.Now().UTC().Add(-4 * 24 * time.Hour)
	h, conn := setupHeldOrder(t, placed)

	// Still inside the window
	n, err := rules.AutoCancelUnapprovedOrders(ctx, conn, placed.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	now := placed.Add(rules.ApprovalWindow + time.Minute)
	n, err = rules.AutoCancelUnapprovedOrders(ctx, conn, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	a, err := store.GetApprovalByOrder(ctx, conn, h.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewExpired, a.Status)

	o, err := store.GetOrder(ctx, conn, h.order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, o.Status)

	lot, err := store.GetLot(ctx, conn, h.lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, lot.Quantity)
}

func TestShippingProofDeadlines(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seller := testutil.CreateTestUser(t, conn, "seller")
	buyer := testutil.CreateTestUser(t, conn, "buyer")
	s := testutil.CreateTestStore(t, conn, seller.ID, "Brick Haven")
	item := testutil.CreateTestCatalogItem(t, conn, "3001")
	lot := testutil.CreateTestLot(t, conn, s.ID, item.ID, 10, "1.00")

	o := testutil.CreateTestOrder(t, conn, buyer.ID, lot, 1, models.OrderPending, now.Add(-5*24*time.Hour))
	untracked := models.TrackingNone
	o.TrackingType = &untracked

	shippedAt := now.Add(-3 * 24 * time.Hour)
	rules.SetShippingProofDeadline(&o, &shippedAt, now)
	require.NotNil(t, o.ShippingProofDeadline)
	assert.Equal(t, shippedAt.Add(rules.ShippingProofWindow), *o.ShippingProofDeadline)

	_, err := conn.ExecContext(ctx, conn.Rebind(`UPDATE orders SET tracking_type = ? WHERE id = ?`), untracked, o.ID)
	require.NoError(t, err)
	require.NoError(t, store.MarkShipped(ctx, conn, o.ID, nil, *o.ShippedAt, o.ShippingProofDeadline, now))

	n, err := rules.EnforceShippingProofDeadlines(ctx, conn, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.GetOrder(ctx, conn, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDisputed, got.Status)

	issues, err := store.ListUserIssues(ctx, conn, seller.ID)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 3, issues[0].Severity)

	// Disputed orders are not picked up twice
	n, err = rules.EnforceShippingProofDeadlines(ctx, conn, now)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	t.Run("tracked orders get no deadline", func(t *testing.T) {
		tracked := models.TrackingTracked
		o := models.Order{TrackingType: &tracked}
		rules.SetShippingProofDeadline(&o, nil, now)
		assert.Nil(t, o.ShippingProofDeadline)
	})
}
