// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"time"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/models"
)

const orderColumns = `id, order_number, buyer_id, store_id, status, items_total, shipping_cost, insurance_cost,
	tax_total, grand_total, store_currency_id, shipping_method_id, shipping_address_snapshot, tracking_type,
	payment_method_id, payment_status, tracking_number, shipped_at, delivered_at, shipping_proof_url,
	shipping_proof_uploaded_at, shipping_proof_deadline, buyer_notes, created_at, updated_at`

func CreateOrder(ctx context.Context, q Queryer, o *models.Order) error {
	return namedExec(ctx, q, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (:id, :order_number, :buyer_id, :store_id, :status, :items_total, :shipping_cost, :insurance_cost,
			:tax_total, :grand_total, :store_currency_id, :shipping_method_id, :shipping_address_snapshot, :tracking_type,
			:payment_method_id, :payment_status, :tracking_number, :shipped_at, :delivered_at, :shipping_proof_url,
			:shipping_proof_uploaded_at, :shipping_proof_deadline, :buyer_notes, :created_at, :updated_at)
	`, o)
}

func GetOrder(ctx context.Context, q Queryer, id string) (*models.Order, error) {
	var o models.Order
	if err := get(ctx, q, &o, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &o, nil
}

const orderSummaryColumns = `id, order_number, status, items_total, grand_total, created_at`

func ListBuyerOrders(ctx context.Context, q Queryer, buyerID string) ([]models.OrderSummary, error) {
	orders := []models.OrderSummary{}
	err := selectAll(ctx, q, &orders, `
		SELECT `+orderSummaryColumns+` FROM orders WHERE buyer_id = ? ORDER BY created_at DESC
	`, buyerID)
	return orders, err
}

func ListStoreOrders(ctx context.Context, q Queryer, storeID string) ([]models.OrderSummary, error) {
	orders := []models.OrderSummary{}
	err := selectAll(ctx, q, &orders, `
		SELECT `+orderSummaryColumns+` FROM orders WHERE store_id = ? ORDER BY created_at DESC
	`, storeID)
	return orders, err
}

// ListStoreOrdersSince returns full orders of a store created in [since, until).
func ListStoreOrdersSince(ctx context.Context, q Queryer, storeID string, since, until time.Time) ([]models.Order, error) {
	orders := []models.Order{}
	err := selectAll(ctx, q, &orders, `
		SELECT `+orderColumns+` FROM orders
		WHERE store_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at
	`, storeID, since, until)
	return orders, err
}

func ListBuyerOrdersSince(ctx context.Context, q Queryer, buyerID string, since, until time.Time) ([]models.Order, error) {
	orders := []models.Order{}
	err := selectAll(ctx, q, &orders, `
		SELECT `+orderColumns+` FROM orders
		WHERE buyer_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at
	`, buyerID, since, until)
	return orders, err
}

// ListBuyerIDs returns every user that has placed an order since the given time.
func ListBuyerIDs(ctx context.Context, q Queryer, since time.Time) ([]string, error) {
	ids := []string{}
	err := selectAll(ctx, q, &ids, `
		SELECT DISTINCT buyer_id FROM orders WHERE created_at >= ? ORDER BY buyer_id
	`, since)
	return ids, err
}

// CountStoreOrders counts the store's orders that were not cancelled.
func CountStoreOrders(ctx context.Context, q Queryer, storeID string) (int, error) {
	var n int
	err := get(ctx, q, &n, `SELECT COUNT(*) FROM orders WHERE store_id = ? AND status <> ?`, storeID, models.OrderCancelled)
	return n, err
}

func UpdateOrderStatus(ctx context.Context, q Queryer, id, status string, now time.Time) error {
	return execAffected(ctx, q, `UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
}

// MarkShipped records shipment details. deadline is nil for tracked shipments.
func MarkShipped(ctx context.Context, q Queryer, id string, tracking *string, shippedAt time.Time, deadline *time.Time, now time.Time) error {
	return execAffected(ctx, q, `
		UPDATE orders
		SET status = ?, tracking_number = ?, shipped_at = ?, shipping_proof_deadline = ?, updated_at = ?
		WHERE id = ?
	`, models.OrderShipped, tracking, shippedAt, deadline, now, id)
}

func MarkDelivered(ctx context.Context, q Queryer, id string, now time.Time) error {
	return execAffected(ctx, q, `
		UPDATE orders SET status = ?, delivered_at = ?, updated_at = ? WHERE id = ?
	`, models.OrderDelivered, now, now, id)
}

func SetShippingProof(ctx context.Context, q Queryer, id, url string, now time.Time) error {
	return execAffected(ctx, q, `
		UPDATE orders SET shipping_proof_url = ?, shipping_proof_uploaded_at = ?, updated_at = ? WHERE id = ?
	`, url, now, now, id)
}

// ListOverdueProofOrders returns untracked orders whose proof deadline has
// passed without a proof upload.
func ListOverdueProofOrders(ctx context.Context, q Queryer, now time.Time) ([]models.Order, error) {
	orders := []models.Order{}
	err := selectAll(ctx, q, &orders, `
		SELECT `+orderColumns+` FROM orders
		WHERE tracking_type = ?
			AND shipping_proof_url IS NULL
			AND shipping_proof_deadline IS NOT NULL
			AND shipping_proof_deadline < ?
			AND status NOT IN (?, ?)
		ORDER BY shipping_proof_deadline
	`, models.TrackingNone, now, models.OrderDisputed, models.OrderCancelled)
	return orders, err
}

const orderItemColumns = `id, order_id, lot_id, item_snapshot, quantity, unit_price, sale_price, line_total`

func CreateOrderItem(ctx context.Context, q Queryer, item *models.OrderItem) error {
	return namedExec(ctx, q, `
		INSERT INTO order_items (`+orderItemColumns+`)
		VALUES (:id, :order_id, :lot_id, :item_snapshot, :quantity, :unit_price, :sale_price, :line_total)
	`, item)
}

func ListOrderItems(ctx context.Context, q Queryer, orderID string) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := selectAll(ctx, q, &items, `
		SELECT `+orderItemColumns+` FROM order_items WHERE order_id = ? ORDER BY id
	`, orderID)
	return items, err
}

// AddStatusChange appends a row to the order's status history.
func AddStatusChange(ctx context.Context, q Queryer, orderID, oldStatus, newStatus string, changedBy, reason *string, now time.Time) error {
	h := models.OrderStatusChange{
		ID:        auth.NewID(),
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
		ChangedBy: changedBy,
		Reason:    reason,
		CreatedAt: now,
	}
	return namedExec(ctx, q, `
		INSERT INTO order_status_history (id, order_id, old_status, new_status, changed_by, reason, created_at)
		VALUES (:id, :order_id, :old_status, :new_status, :changed_by, :reason, :created_at)
	`, &h)
}

func ListStatusHistory(ctx context.Context, q Queryer, orderID string) ([]models.OrderStatusChange, error) {
	history := []models.OrderStatusChange{}
	err := selectAll(ctx, q, &history, `
		SELECT id, order_id, old_status, new_status, changed_by, reason, created_at
		FROM order_status_history WHERE order_id = ? ORDER BY created_at, id
	`, orderID)
	return history, err
}

const approvalColumns = `id, order_id, reason, buyer_risk_score, status, decided_by, decision_notes, decided_at,
	auto_cancel_at, created_at`

func CreateApproval(ctx context.Context, q Queryer, a *models.OrderApproval) error {
	return namedExec(ctx, q, `
		INSERT INTO order_approvals (`+approvalColumns+`)
		VALUES (:id, :order_id, :reason, :buyer_risk_score, :status, :decided_by, :decision_notes, :decided_at,
			:auto_cancel_at, :created_at)
	`, a)
}

func GetApprovalByOrder(ctx context.Context, q Queryer, orderID string) (*models.OrderApproval, error) {
	var a models.OrderApproval
	if err := get(ctx, q, &a, `SELECT `+approvalColumns+` FROM order_approvals WHERE order_id = ?`, orderID); err != nil {
		return nil, err
	}
	return &a, nil
}

// DecideApproval resolves a pending approval. decidedBy is nil for
// automatic decisions.
func DecideApproval(ctx context.Context, q Queryer, id, status string, decidedBy, notes *string, now time.Time) error {
	return execAffected(ctx, q, `
		UPDATE order_approvals
		SET status = ?, decided_by = ?, decision_notes = ?, decided_at = ?
		WHERE id = ? AND status = ?
	`, status, decidedBy, notes, now, id, models.ReviewPending)
}

func ListExpiredApprovals(ctx context.Context, q Queryer, now time.Time) ([]models.OrderApproval, error) {
	approvals := []models.OrderApproval{}
	err := selectAll(ctx, q, &approvals, `
		SELECT `+approvalColumns+` FROM order_approvals
		WHERE status = ? AND auto_cancel_at IS NOT NULL AND auto_cancel_at <= ?
		ORDER BY auto_cancel_at
	`, models.ReviewPending, now)
	return approvals, err
}
