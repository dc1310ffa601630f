// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
)

// ShippingProofWindow is how long a seller has to upload proof of an
// untracked shipment.
const ShippingProofWindow = 48 * time.Hour

const missedProofText = "Shipping proof not provided within deadline."

// SetShippingProofDeadline fills in ShippedAt and ShippingProofDeadline on
// an untracked order. shippedAt wins over the order's existing value, which
// wins over now. Tracked orders are left untouched.
func SetShippingProofDeadline(o *models.Order, shippedAt *time.Time, now time.Time) {
	if o.TrackingType == nil || *o.TrackingType != models.TrackingNone {
		return
	}
	at := now
	switch {
	case shippedAt != nil:
		at = *shippedAt
	case o.ShippedAt != nil:
		at = *o.ShippedAt
	}
	deadline := at.Add(ShippingProofWindow)
	o.ShippedAt = &at
	o.ShippingProofDeadline = &deadline
}

// EnforceShippingProofDeadlines disputes every untracked order whose proof
// deadline passed without an upload, and records an issue against the
// seller. It returns the number of orders disputed.
func EnforceShippingProofDeadlines(ctx context.Context, q store.Queryer, now time.Time) (int, error) {
	orders, err := store.ListOverdueProofOrders(ctx, q, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue orders: %w", err)
	}

	reason := missedProofText
	for _, o := range orders {
		if err := store.UpdateOrderStatus(ctx, q, o.ID, models.OrderDisputed, now); err != nil {
			return 0, fmt.Errorf("failed to dispute order %s: %w", o.ID, err)
		}
		if err := store.AddStatusChange(ctx, q, o.ID, o.Status, models.OrderDisputed, nil, &reason, now); err != nil {
			return 0, err
		}

		s, err := store.GetStore(ctx, q, o.StoreID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to load store: %w", err)
		}
		orderID := o.ID
		description := missedProofText
		_, err = RecordIssue(ctx, q, Issue{
			UserID:         s.UserID,
			Type:           models.IssueShippingViolation,
			Severity:       shippingViolationSeverity,
			RelatedOrderID: &orderID,
			Description:    &description,
		}, now)
		if err != nil {
			return 0, err
		}
	}

	return len(orders), nil
}
