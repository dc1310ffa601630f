// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/brikick/models"
)

const catalogColumns = `id, item_no, item_type, item_seq, name, category_id, year_released, weight_grams, status, created_at`

func ListCatalogItems(ctx context.Context, q Queryer, limit int) ([]models.CatalogItem, error) {
	items := []models.CatalogItem{}
	err := selectAll(ctx, q, &items, `
		SELECT `+catalogColumns+` FROM catalog_items
		ORDER BY item_type, item_no, item_seq
		LIMIT ?
	`, limit)
	return items, err
}

func GetCatalogItem(ctx context.Context, q Queryer, id string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	if err := get(ctx, q, &item, `SELECT `+catalogColumns+` FROM catalog_items WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &item, nil
}

func CreateCatalogItem(ctx context.Context, q Queryer, item *models.CatalogItem) error {
	return namedExec(ctx, q, `
		INSERT INTO catalog_items (`+catalogColumns+`)
		VALUES (:id, :item_no, :item_type, :item_seq, :name, :category_id, :year_released, :weight_grams, :status, :created_at)
	`, item)
}

func CreateColor(ctx context.Context, q Queryer, c *models.Color) error {
	return namedExec(ctx, q, `INSERT INTO colors (id, name, rgb) VALUES (:id, :name, :rgb)`, c)
}

func ColorExists(ctx context.Context, q Queryer, id int64) (bool, error) {
	var n int
	if err := get(ctx, q, &n, `SELECT COUNT(*) FROM colors WHERE id = ?`, id); err != nil {
		return false, err
	}
	return n > 0, nil
}

const priceGuideColumns = `id, catalog_item_id, color_id, condition, avg_price_6m, min_price_6m, max_price_6m,
	sales_count_6m, price_cap, last_calculated_at`

func GetPriceGuide(ctx context.Context, q Queryer, itemID string, colorID int64, condition string) (*models.PriceGuide, error) {
	var g models.PriceGuide
	err := get(ctx, q, &g, `
		SELECT `+priceGuideColumns+` FROM price_guides
		WHERE catalog_item_id = ? AND color_id = ? AND condition = ?
	`, itemID, colorID, condition)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// UpsertPriceGuide writes the guide for its item, color and condition,
// replacing any previous figures.
func UpsertPriceGuide(ctx context.Context, q Queryer, g *models.PriceGuide) error {
	return namedExec(ctx, q, `
		INSERT INTO price_guides (`+priceGuideColumns+`)
		VALUES (:id, :catalog_item_id, :color_id, :condition, :avg_price_6m, :min_price_6m, :max_price_6m,
			:sales_count_6m, :price_cap, :last_calculated_at)
		ON CONFLICT (catalog_item_id, color_id, condition) DO UPDATE SET
			avg_price_6m = excluded.avg_price_6m,
			min_price_6m = excluded.min_price_6m,
			max_price_6m = excluded.max_price_6m,
			sales_count_6m = excluded.sales_count_6m,
			price_cap = excluded.price_cap,
			last_calculated_at = excluded.last_calculated_at
	`, g)
}

// SoldLine is one order line counted towards the price guide.
type SoldLine struct {
	CatalogItemID string              `db:"catalog_item_id"`
	ColorID       int64               `db:"color_id"`
	Condition     string              `db:"condition"`
	Quantity      int                 `db:"quantity"`
	UnitPrice     decimal.Decimal     `db:"unit_price"`
	SalePrice     decimal.NullDecimal `db:"sale_price"`
}

// ListSoldLines returns colored order lines from non-cancelled orders
// placed since the given time.
func ListSoldLines(ctx context.Context, q Queryer, since time.Time) ([]SoldLine, error) {
	lines := []SoldLine{}
	err := selectAll(ctx, q, &lines, `
		SELECT l.catalog_item_id, l.color_id, l.condition, oi.quantity, oi.unit_price, oi.sale_price
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN lots l ON l.id = oi.lot_id
		WHERE o.created_at >= ? AND o.status <> ? AND l.color_id IS NOT NULL
	`, since, models.OrderCancelled)
	return lines, err
}

const overrideColumns = `id, store_id, catalog_item_id, color_id, condition, requested_price, price_cap,
	justification, status, reviewed_by, reviewed_at, review_notes, created_at`

func CreatePriceOverride(ctx context.Context, q Queryer, o *models.PriceOverrideRequest) error {
	return namedExec(ctx, q, `
		INSERT INTO price_override_requests (`+overrideColumns+`)
		VALUES (:id, :store_id, :catalog_item_id, :color_id, :condition, :requested_price, :price_cap,
			:justification, :status, :reviewed_by, :reviewed_at, :review_notes, :created_at)
	`, o)
}

func GetPriceOverride(ctx context.Context, q Queryer, id string) (*models.PriceOverrideRequest, error) {
	var o models.PriceOverrideRequest
	if err := get(ctx, q, &o, `SELECT `+overrideColumns+` FROM price_override_requests WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &o, nil
}

// LatestApprovedOverride returns the most recently reviewed approved
// override for a store, item, color and condition.
func LatestApprovedOverride(ctx context.Context, q Queryer, storeID, itemID string, colorID int64, condition string) (*models.PriceOverrideRequest, error) {
	var o models.PriceOverrideRequest
	err := get(ctx, q, &o, `
		SELECT `+overrideColumns+` FROM price_override_requests
		WHERE store_id = ? AND catalog_item_id = ? AND color_id = ? AND condition = ? AND status = ?
		ORDER BY reviewed_at DESC NULLS LAST, created_at DESC
		LIMIT 1
	`, storeID, itemID, colorID, condition, models.ReviewApproved)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ReviewPriceOverride records a decision on a pending override.
func ReviewPriceOverride(ctx context.Context, q Queryer, id, status, reviewer string, notes *string, now time.Time) error {
	return execAffected(ctx, q, `
		UPDATE price_override_requests
		SET status = ?, reviewed_by = ?, reviewed_at = ?, review_notes = ?
		WHERE id = ? AND status = ?
	`, status, reviewer, now, notes, id, models.ReviewPending)
}
