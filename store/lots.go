// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/danielhkuo/brikick/models"
)

const lotColumns = `id, store_id, catalog_item_id, color_id, condition, completeness, quantity, bulk_quantity,
	unit_price, sale_percentage, description, status, price_override_request_id, created_at, updated_at`

func CreateLot(ctx context.Context, q Queryer, l *models.Lot) error {
	return namedExec(ctx, q, `
		INSERT INTO lots (`+lotColumns+`)
		VALUES (:id, :store_id, :catalog_item_id, :color_id, :condition, :completeness, :quantity, :bulk_quantity,
			:unit_price, :sale_percentage, :description, :status, :price_override_request_id, :created_at, :updated_at)
	`, l)
}

func GetLot(ctx context.Context, q Queryer, id string) (*models.Lot, error) {
	var l models.Lot
	if err := get(ctx, q, &l, `SELECT `+lotColumns+` FROM lots WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLots returns the lots with the given IDs keyed by ID. Missing IDs are
// simply absent from the map.
func GetLots(ctx context.Context, q Queryer, ids []string) (map[string]models.Lot, error) {
	out := make(map[string]models.Lot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+lotColumns+` FROM lots WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to expand lot ids: %w", err)
	}
	var lots []models.Lot
	if err := selectAll(ctx, q, &lots, query, args...); err != nil {
		return nil, err
	}
	for _, l := range lots {
		out[l.ID] = l
	}
	return out, nil
}

func ListStoreLots(ctx context.Context, q Queryer, storeID string) ([]models.Lot, error) {
	lots := []models.Lot{}
	err := selectAll(ctx, q, &lots, `
		SELECT `+lotColumns+` FROM lots
		WHERE store_id = ? AND status = ?
		ORDER BY created_at
	`, storeID, models.LotAvailable)
	return lots, err
}

func UpdateLotPrice(ctx context.Context, q Queryer, id string, price decimal.Decimal, overrideID *string, now time.Time) error {
	return execAffected(ctx, q, `
		UPDATE lots SET unit_price = ?, price_override_request_id = ?, updated_at = ?
		WHERE id = ?
	`, price, overrideID, now, id)
}

// AdjustLotQuantity adds delta to the lot's stock in one statement, so
// concurrent checkouts cannot both take the last pieces. A lot reaching zero
// is marked SOLD_OUT; a sold-out lot that gets stock back is AVAILABLE again.
// ErrInsufficientStock means the lot holds fewer than -delta pieces.
func AdjustLotQuantity(ctx context.Context, q Queryer, id string, delta int, now time.Time) error {
	err := execAffected(ctx, q, `
		UPDATE lots SET
			quantity = quantity + ?,
			status = CASE
				WHEN quantity + ? = 0 AND status = ? THEN ?
				WHEN quantity + ? > 0 AND status = ? THEN ?
				ELSE status
			END,
			updated_at = ?
		WHERE id = ? AND quantity + ? >= 0
	`, delta,
		delta, models.LotAvailable, models.LotSoldOut,
		delta, models.LotSoldOut, models.LotAvailable,
		now, id, delta)
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	var exists bool
	if err := get(ctx, q, &exists, `SELECT EXISTS (SELECT 1 FROM lots WHERE id = ?)`, id); err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: lot %s", ErrInsufficientStock, id)
	}
	return ErrNotFound
}
