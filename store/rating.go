// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"time"

	"github.com/danielhkuo/brikick/models"
)

const slaColumns = `id, store_id, period_start, period_end, orders_shipped_24h, orders_shipped_48h,
	orders_shipped_72h, orders_shipped_late, avg_shipping_hours, shipping_sla_score, message_sla_score, calculated_at`

func InsertSLAMetrics(ctx context.Context, q Queryer, m *models.SLAMetrics) error {
	return namedExec(ctx, q, `
		INSERT INTO sla_metrics (`+slaColumns+`)
		VALUES (:id, :store_id, :period_start, :period_end, :orders_shipped_24h, :orders_shipped_48h,
			:orders_shipped_72h, :orders_shipped_late, :avg_shipping_hours, :shipping_sla_score, :message_sla_score,
			:calculated_at)
	`, m)
}

func LatestSLAMetrics(ctx context.Context, q Queryer, storeID string) (*models.SLAMetrics, error) {
	var m models.SLAMetrics
	err := get(ctx, q, &m, `
		SELECT `+slaColumns+` FROM sla_metrics WHERE store_id = ? ORDER BY calculated_at DESC LIMIT 1
	`, storeID)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const ratingColumns = `id, user_id, role, overall_score, score_tier, factor_scores, orders_count, calculated_at`

func InsertRatingMetrics(ctx context.Context, q Queryer, m *models.RatingMetrics) error {
	return namedExec(ctx, q, `
		INSERT INTO user_rating_metrics (`+ratingColumns+`)
		VALUES (:id, :user_id, :role, :overall_score, :score_tier, :factor_scores, :orders_count, :calculated_at)
	`, m)
}

func LatestRatingMetrics(ctx context.Context, q Queryer, userID, role string) (*models.RatingMetrics, error) {
	var m models.RatingMetrics
	err := get(ctx, q, &m, `
		SELECT `+ratingColumns+` FROM user_rating_metrics
		WHERE user_id = ? AND role = ?
		ORDER BY calculated_at DESC
		LIMIT 1
	`, userID, role)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func ListBadges(ctx context.Context, q Queryer) ([]models.Badge, error) {
	badges := []models.Badge{}
	err := selectAll(ctx, q, &badges, `SELECT code, name, description, badge_type, criteria FROM badges ORDER BY code`)
	return badges, err
}

func AwardBadge(ctx context.Context, q Queryer, b *models.UserBadge) error {
	return namedExec(ctx, q, `
		INSERT INTO user_badges (id, user_id, badge_code, awarded_at, valid_until)
		VALUES (:id, :user_id, :badge_code, :awarded_at, :valid_until)
	`, b)
}

// HasValidBadge reports whether the user holds the badge at now.
func HasValidBadge(ctx context.Context, q Queryer, userID, code string, now time.Time) (bool, error) {
	var n int
	err := get(ctx, q, &n, `
		SELECT COUNT(*) FROM user_badges
		WHERE user_id = ? AND badge_code = ? AND (valid_until IS NULL OR valid_until >= ?)
	`, userID, code, now)
	return n > 0, err
}

func ListUserBadges(ctx context.Context, q Queryer, userID string, now time.Time) ([]models.UserBadge, error) {
	badges := []models.UserBadge{}
	err := selectAll(ctx, q, &badges, `
		SELECT id, user_id, badge_code, awarded_at, valid_until FROM user_badges
		WHERE user_id = ? AND (valid_until IS NULL OR valid_until >= ?)
		ORDER BY awarded_at DESC
	`, userID, now)
	return badges, err
}
