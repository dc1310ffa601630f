// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"

	"github.com/danielhkuo/brikick/models"
)

const draftColumns = `id, cart_store_id, user_id, store_id, status, shipping_address_id, shipping_method_id,
	shipping_cost, insurance_cost, tracking_fee, payment_method_id, payment_currency_id, items_total,
	shipping_total, tax_total, grand_total, quote_snapshot, payment_provider, order_id, created_at,
	updated_at, expires_at`

func CreateDraft(ctx context.Context, q Queryer, d *models.CheckoutDraft) error {
	return namedExec(ctx, q, `
		INSERT INTO checkout_drafts (`+draftColumns+`)
		VALUES (:id, :cart_store_id, :user_id, :store_id, :status, :shipping_address_id, :shipping_method_id,
			:shipping_cost, :insurance_cost, :tracking_fee, :payment_method_id, :payment_currency_id, :items_total,
			:shipping_total, :tax_total, :grand_total, :quote_snapshot, :payment_provider, :order_id, :created_at,
			:updated_at, :expires_at)
	`, d)
}

// GetUserDraft loads a draft owned by the given user.
func GetUserDraft(ctx context.Context, q Queryer, userID, id string) (*models.CheckoutDraft, error) {
	var d models.CheckoutDraft
	err := get(ctx, q, &d, `SELECT `+draftColumns+` FROM checkout_drafts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FindOpenDraft returns the newest uncompleted draft for a cart store.
func FindOpenDraft(ctx context.Context, q Queryer, userID, cartStoreID string) (*models.CheckoutDraft, error) {
	var d models.CheckoutDraft
	err := get(ctx, q, &d, `
		SELECT `+draftColumns+` FROM checkout_drafts
		WHERE user_id = ? AND cart_store_id = ? AND status <> ?
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, cartStoreID, models.DraftCompleted)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDraft writes back every mutable field of the draft.
func UpdateDraft(ctx context.Context, q Queryer, d *models.CheckoutDraft) error {
	res, err := namedExecResult(ctx, q, `
		UPDATE checkout_drafts SET
			status = :status,
			shipping_address_id = :shipping_address_id,
			shipping_method_id = :shipping_method_id,
			shipping_cost = :shipping_cost,
			insurance_cost = :insurance_cost,
			tracking_fee = :tracking_fee,
			payment_method_id = :payment_method_id,
			payment_currency_id = :payment_currency_id,
			items_total = :items_total,
			shipping_total = :shipping_total,
			tax_total = :tax_total,
			grand_total = :grand_total,
			quote_snapshot = :quote_snapshot,
			payment_provider = :payment_provider,
			order_id = :order_id,
			updated_at = :updated_at,
			expires_at = :expires_at
		WHERE id = :id
	`, d)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
