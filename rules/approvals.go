// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
)

// ApprovalWindow is how long a seller has to decide on a held order.
const ApprovalWindow = 72 * time.Hour

const (
	riskyBuyerReason    = "Buyer rating below store threshold."
	approvalExpiryText  = "Order approval expired."
	approvalDeclineText = "Order declined by seller."
)

// ErrApprovalClosed is returned when an approval was already decided.
var ErrApprovalClosed = errors.New("approval already decided")

// RiskyBuyer reports whether s must approve orders from a buyer whose
// latest rating is latest. Buyers without a rating are never held.
func RiskyBuyer(s *models.Store, latest *models.RatingMetrics) bool {
	if !s.RequireApprovalForRiskyBuyers || latest == nil {
		return false
	}
	return latest.OverallScore.LessThan(s.RiskThresholdScore)
}

// NewApproval builds the pending approval for a held order.
func NewApproval(id, orderID string, latest *models.RatingMetrics, now time.Time) *models.OrderApproval {
	reason := riskyBuyerReason
	deadline := now.Add(ApprovalWindow)
	a := &models.OrderApproval{
		ID:           id,
		OrderID:      orderID,
		Reason:       &reason,
		Status:       models.ReviewPending,
		AutoCancelAt: &deadline,
		CreatedAt:    now,
	}
	if latest != nil {
		a.BuyerRiskScore.Decimal = latest.OverallScore
		a.BuyerRiskScore.Valid = true
	}
	return a
}

// DecideOrderApproval records the seller's decision on a held order. An
// approved order moves to PENDING; a declined one is cancelled and its
// stock returned.
func DecideOrderApproval(ctx context.Context, q store.Queryer, orderID string, approve bool, deciderID string, notes *string, now time.Time) (*models.OrderApproval, error) {
	a, err := store.GetApprovalByOrder(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	if a.Status != models.ReviewPending {
		return nil, ErrApprovalClosed
	}
	o, err := store.GetOrder(ctx, q, orderID)
	if err != nil {
		return nil, err
	}

	status, orderStatus := models.ReviewApproved, models.OrderPending
	var reason *string
	if !approve {
		status, orderStatus = models.ReviewDeclined, models.OrderCancelled
		text := approvalDeclineText
		reason = &text
	}

	if err := store.DecideApproval(ctx, q, a.ID, status, &deciderID, notes, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrApprovalClosed
		}
		return nil, fmt.Errorf("failed to record decision: %w", err)
	}
	if err := transitionOrder(ctx, q, o, orderStatus, &deciderID, reason, now); err != nil {
		return nil, err
	}
	if !approve {
		if err := restockOrder(ctx, q, o.ID, now); err != nil {
			return nil, err
		}
	}

	return store.GetApprovalByOrder(ctx, q, orderID)
}

// AutoCancelUnapprovedOrders expires approvals left undecided past their
// deadline, cancelling the orders and restocking their lots. It returns
// the number of orders cancelled.
func AutoCancelUnapprovedOrders(ctx context.Context, q store.Queryer, now time.Time) (int, error) {
	expired, err := store.ListExpiredApprovals(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired approvals: %w", err)
	}

	reason := approvalExpiryText
	for _, a := range expired {
		if err := store.DecideApproval(ctx, q, a.ID, models.ReviewExpired, nil, nil, now); err != nil {
			return 0, fmt.Errorf("failed to expire approval %s: %w", a.ID, err)
		}
		o, err := store.GetOrder(ctx, q, a.OrderID)
		if err != nil {
			return 0, fmt.Errorf("failed to load order %s: %w", a.OrderID, err)
		}
		if o.Status != models.OrderPendingApproval {
			continue
		}
		if err := transitionOrder(ctx, q, o, models.OrderCancelled, nil, &reason, now); err != nil {
			return 0, err
		}
		if err := restockOrder(ctx, q, o.ID, now); err != nil {
			return 0, err
		}
		slog.Info("unapproved order cancelled", "order_id", o.ID)
	}

	return len(expired), nil
}

func transitionOrder(ctx context.Context, q store.Queryer, o *models.Order, status string, by, reason *string, now time.Time) error {
	if err := store.UpdateOrderStatus(ctx, q, o.ID, status, now); err != nil {
		return fmt.Errorf("failed to update order %s: %w", o.ID, err)
	}
	if err := store.AddStatusChange(ctx, q, o.ID, o.Status, status, by, reason, now); err != nil {
		return fmt.Errorf("failed to record status change: %w", err)
	}
	o.Status = status
	return nil
}

// restockOrder returns every line of the order to its lot.
func restockOrder(ctx context.Context, q store.Queryer, orderID string, now time.Time) error {
	items, err := store.ListOrderItems(ctx, q, orderID)
	if err != nil {
		return fmt.Errorf("failed to list order items: %w", err)
	}
	for _, it := range items {
		if err := store.AdjustLotQuantity(ctx, q, it.LotID, it.Quantity, now); err != nil {
			return fmt.Errorf("failed to restock lot %s: %w", it.LotID, err)
		}
	}
	return nil
}
