// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"time"

	"github.com/danielhkuo/brikick/models"
)

func GetFairnessConfig(ctx context.Context, q Queryer) (*models.FairnessConfig, error) {
	var c models.FairnessConfig
	err := get(ctx, q, &c, `
		SELECT id, max_markup_percentage, alert_threshold_percentage, auto_flag_threshold_percentage, updated_at
		FROM shipping_fairness_configs ORDER BY id LIMIT 1
	`)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func SaveFairnessConfig(ctx context.Context, q Queryer, c *models.FairnessConfig) error {
	if c.ID == 0 {
		c.ID = 1
	}
	return namedExec(ctx, q, `
		INSERT INTO shipping_fairness_configs (id, max_markup_percentage, alert_threshold_percentage,
			auto_flag_threshold_percentage, updated_at)
		VALUES (:id, :max_markup_percentage, :alert_threshold_percentage, :auto_flag_threshold_percentage, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			max_markup_percentage = excluded.max_markup_percentage,
			alert_threshold_percentage = excluded.alert_threshold_percentage,
			auto_flag_threshold_percentage = excluded.auto_flag_threshold_percentage,
			updated_at = excluded.updated_at
	`, c)
}

const benchmarkColumns = `id, origin_country, destination_country, weight_min_grams, weight_max_grams,
	benchmark_cost, carrier, last_updated`

func CreateBenchmark(ctx context.Context, q Queryer, b *models.ShippingBenchmark) error {
	return namedExec(ctx, q, `
		INSERT INTO shipping_cost_benchmarks (`+benchmarkColumns+`)
		VALUES (:id, :origin_country, :destination_country, :weight_min_grams, :weight_max_grams,
			:benchmark_cost, :carrier, :last_updated)
	`, b)
}

// FindBenchmark returns the freshest benchmark for a route whose weight
// band contains weightGrams.
func FindBenchmark(ctx context.Context, q Queryer, origin, destination string, weightGrams int) (*models.ShippingBenchmark, error) {
	var b models.ShippingBenchmark
	err := get(ctx, q, &b, `
		SELECT `+benchmarkColumns+` FROM shipping_cost_benchmarks
		WHERE origin_country = ? AND destination_country = ?
			AND weight_min_grams <= ? AND weight_max_grams >= ?
		ORDER BY last_updated DESC NULLS LAST, id DESC
		LIMIT 1
	`, origin, destination, weightGrams, weightGrams)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const flagColumns = `id, store_id, order_id, flag_type, charged_amount, benchmark_amount, markup_percentage,
	status, reviewed_by, reviewed_at, created_at`

func CreateShippingFlag(ctx context.Context, q Queryer, f *models.ShippingFlag) error {
	return namedExec(ctx, q, `
		INSERT INTO shipping_fairness_flags (`+flagColumns+`)
		VALUES (:id, :store_id, :order_id, :flag_type, :charged_amount, :benchmark_amount, :markup_percentage,
			:status, :reviewed_by, :reviewed_at, :created_at)
	`, f)
}

// ListShippingFlags returns flags newest first, optionally filtered by status.
func ListShippingFlags(ctx context.Context, q Queryer, status string) ([]models.ShippingFlag, error) {
	flags := []models.ShippingFlag{}
	if status == "" {
		err := selectAll(ctx, q, &flags, `SELECT `+flagColumns+` FROM shipping_fairness_flags ORDER BY created_at DESC`)
		return flags, err
	}
	err := selectAll(ctx, q, &flags, `
		SELECT `+flagColumns+` FROM shipping_fairness_flags WHERE status = ? ORDER BY created_at DESC
	`, status)
	return flags, err
}

func ReviewShippingFlag(ctx context.Context, q Queryer, id, status, reviewer string, now time.Time) error {
	return execAffected(ctx, q, `
		UPDATE shipping_fairness_flags SET status = ?, reviewed_by = ?, reviewed_at = ?
		WHERE id = ? AND status = ?
	`, status, reviewer, now, id, models.FlagOpen)
}

// CountOpenFlags counts the store's flags still awaiting review.
func CountOpenFlags(ctx context.Context, q Queryer, storeID string) (int, error) {
	var n int
	err := get(ctx, q, &n, `SELECT COUNT(*) FROM shipping_fairness_flags WHERE store_id = ? AND status = ?`, storeID, models.FlagOpen)
	return n, err
}
