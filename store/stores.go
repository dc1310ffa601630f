// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"

	"github.com/danielhkuo/brikick/models"
)

const storeColumns = `id, user_id, name, slug, country_code, currency_id, feedback_score, status, min_buy_amount,
	instant_checkout_enabled, require_approval_for_risky_buyers, risk_threshold_score, created_at`

func CreateStore(ctx context.Context, q Queryer, s *models.Store) error {
	return namedExec(ctx, q, `
		INSERT INTO stores (`+storeColumns+`)
		VALUES (:id, :user_id, :name, :slug, :country_code, :currency_id, :feedback_score, :status, :min_buy_amount,
			:instant_checkout_enabled, :require_approval_for_risky_buyers, :risk_threshold_score, :created_at)
	`, s)
}

func GetStore(ctx context.Context, q Queryer, id string) (*models.Store, error) {
	return getStoreWhere(ctx, q, "id", id)
}

func GetStoreBySlug(ctx context.Context, q Queryer, slug string) (*models.Store, error) {
	return getStoreWhere(ctx, q, "slug", slug)
}

func GetStoreByOwner(ctx context.Context, q Queryer, userID string) (*models.Store, error) {
	return getStoreWhere(ctx, q, "user_id", userID)
}

func getStoreWhere(ctx context.Context, q Queryer, column, value string) (*models.Store, error) {
	var s models.Store
	if err := get(ctx, q, &s, `SELECT `+storeColumns+` FROM stores WHERE `+column+` = ?`, value); err != nil {
		return nil, err
	}
	return &s, nil
}

func ListStores(ctx context.Context, q Queryer) ([]models.Store, error) {
	stores := []models.Store{}
	err := selectAll(ctx, q, &stores, `SELECT `+storeColumns+` FROM stores ORDER BY created_at`)
	return stores, err
}

const shippingMethodColumns = `id, store_id, name, note, ships_to_countries, cost_type, base_cost, tracking_type,
	insurance_available, min_days, max_days, is_active`

func CreateShippingMethod(ctx context.Context, q Queryer, m *models.ShippingMethod) error {
	return namedExec(ctx, q, `
		INSERT INTO store_shipping_methods (`+shippingMethodColumns+`)
		VALUES (:id, :store_id, :name, :note, :ships_to_countries, :cost_type, :base_cost, :tracking_type,
			:insurance_available, :min_days, :max_days, :is_active)
	`, m)
}

func GetShippingMethod(ctx context.Context, q Queryer, id string) (*models.ShippingMethod, error) {
	var m models.ShippingMethod
	if err := get(ctx, q, &m, `SELECT `+shippingMethodColumns+` FROM store_shipping_methods WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListActiveShippingMethods returns methods that are active or have no
// explicit active flag.
func ListActiveShippingMethods(ctx context.Context, q Queryer, storeID string) ([]models.ShippingMethod, error) {
	methods := []models.ShippingMethod{}
	err := selectAll(ctx, q, &methods, `
		SELECT `+shippingMethodColumns+` FROM store_shipping_methods
		WHERE store_id = ? AND (is_active IS NULL OR is_active = ?)
		ORDER BY name
	`, storeID, true)
	return methods, err
}

const paymentMethodColumns = `id, store_id, method_type, name, is_on_site, is_active`

func CreatePaymentMethod(ctx context.Context, q Queryer, m *models.PaymentMethod) error {
	return namedExec(ctx, q, `
		INSERT INTO store_payment_methods (`+paymentMethodColumns+`)
		VALUES (:id, :store_id, :method_type, :name, :is_on_site, :is_active)
	`, m)
}

func GetPaymentMethod(ctx context.Context, q Queryer, id string) (*models.PaymentMethod, error) {
	var m models.PaymentMethod
	if err := get(ctx, q, &m, `SELECT `+paymentMethodColumns+` FROM store_payment_methods WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &m, nil
}
