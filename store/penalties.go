// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"time"

	"github.com/danielhkuo/brikick/models"
)

// GetPenaltyConfig returns the single configuration row, or ErrNotFound
// when the defaults have never been overridden.
func GetPenaltyConfig(ctx context.Context, q Queryer) (*models.PenaltyConfig, error) {
	var c models.PenaltyConfig
	err := get(ctx, q, &c, `
		SELECT id, warning_threshold, cooldown_threshold, suspension_threshold, ban_threshold,
			evaluation_period_months, issue_decay_months, updated_at
		FROM user_penalty_configs ORDER BY id LIMIT 1
	`)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func SavePenaltyConfig(ctx context.Context, q Queryer, c *models.PenaltyConfig) error {
	if c.ID == 0 {
		c.ID = 1
	}
	return namedExec(ctx, q, `
		INSERT INTO user_penalty_configs (id, warning_threshold, cooldown_threshold, suspension_threshold,
			ban_threshold, evaluation_period_months, issue_decay_months, updated_at)
		VALUES (:id, :warning_threshold, :cooldown_threshold, :suspension_threshold,
			:ban_threshold, :evaluation_period_months, :issue_decay_months, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			warning_threshold = excluded.warning_threshold,
			cooldown_threshold = excluded.cooldown_threshold,
			suspension_threshold = excluded.suspension_threshold,
			ban_threshold = excluded.ban_threshold,
			evaluation_period_months = excluded.evaluation_period_months,
			issue_decay_months = excluded.issue_decay_months,
			updated_at = excluded.updated_at
	`, c)
}

const issueColumns = `id, user_id, issue_type, severity, related_order_id, description, created_at, expires_at`

func CreateIssue(ctx context.Context, q Queryer, i *models.UserIssue) error {
	return namedExec(ctx, q, `
		INSERT INTO user_issues (`+issueColumns+`)
		VALUES (:id, :user_id, :issue_type, :severity, :related_order_id, :description, :created_at, :expires_at)
	`, i)
}

// CountActiveIssues counts issues created since the window start that have
// not yet expired.
func CountActiveIssues(ctx context.Context, q Queryer, userID string, since, now time.Time) (int, error) {
	var n int
	err := get(ctx, q, &n, `
		SELECT COUNT(*) FROM user_issues
		WHERE user_id = ? AND created_at >= ? AND expires_at >= ?
	`, userID, since, now)
	return n, err
}

func ListUserIssues(ctx context.Context, q Queryer, userID string) ([]models.UserIssue, error) {
	issues := []models.UserIssue{}
	err := selectAll(ctx, q, &issues, `
		SELECT `+issueColumns+` FROM user_issues WHERE user_id = ? ORDER BY created_at DESC
	`, userID)
	return issues, err
}

// ListUsersWithActiveIssues returns the users that have at least one
// unexpired issue in the window.
func ListUsersWithActiveIssues(ctx context.Context, q Queryer, since, now time.Time) ([]string, error) {
	ids := []string{}
	err := selectAll(ctx, q, &ids, `
		SELECT DISTINCT user_id FROM user_issues
		WHERE created_at >= ? AND expires_at >= ?
		ORDER BY user_id
	`, since, now)
	return ids, err
}

const penaltyColumns = `id, user_id, penalty_type, reason_code, description, starts_at, ends_at, restrictions,
	appeal_status, appeal_text, appeal_reviewed_by, appeal_reviewed_at, created_at`

func CreatePenalty(ctx context.Context, q Queryer, p *models.UserPenalty) error {
	return namedExec(ctx, q, `
		INSERT INTO user_penalties (`+penaltyColumns+`)
		VALUES (:id, :user_id, :penalty_type, :reason_code, :description, :starts_at, :ends_at, :restrictions,
			:appeal_status, :appeal_text, :appeal_reviewed_by, :appeal_reviewed_at, :created_at)
	`, p)
}

func GetPenalty(ctx context.Context, q Queryer, id string) (*models.UserPenalty, error) {
	var p models.UserPenalty
	if err := get(ctx, q, &p, `SELECT `+penaltyColumns+` FROM user_penalties WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// CurrentPenalty returns the latest penalty in force at now.
func CurrentPenalty(ctx context.Context, q Queryer, userID string, now time.Time) (*models.UserPenalty, error) {
	var p models.UserPenalty
	err := get(ctx, q, &p, `
		SELECT `+penaltyColumns+` FROM user_penalties
		WHERE user_id = ? AND starts_at <= ? AND (ends_at IS NULL OR ends_at > ?)
		ORDER BY starts_at DESC
		LIMIT 1
	`, userID, now, now)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func ListUserPenalties(ctx context.Context, q Queryer, userID string) ([]models.UserPenalty, error) {
	penalties := []models.UserPenalty{}
	err := selectAll(ctx, q, &penalties, `
		SELECT `+penaltyColumns+` FROM user_penalties WHERE user_id = ? ORDER BY starts_at DESC
	`, userID)
	return penalties, err
}

// SubmitAppeal attaches an appeal to a penalty that has none yet.
func SubmitAppeal(ctx context.Context, q Queryer, id, userID, text string) error {
	return execAffected(ctx, q, `
		UPDATE user_penalties SET appeal_status = ?, appeal_text = ?
		WHERE id = ? AND user_id = ? AND appeal_status IS NULL
	`, models.ReviewPending, text, id, userID)
}

// ReviewAppeal resolves a pending appeal. A non-nil endsAt also lifts the
// penalty at that time.
func ReviewAppeal(ctx context.Context, q Queryer, id, status, reviewer string, endsAt *time.Time, now time.Time) error {
	if endsAt != nil {
		return execAffected(ctx, q, `
			UPDATE user_penalties
			SET appeal_status = ?, appeal_reviewed_by = ?, appeal_reviewed_at = ?, ends_at = ?
			WHERE id = ? AND appeal_status = ?
		`, status, reviewer, now, *endsAt, id, models.ReviewPending)
	}
	return execAffected(ctx, q, `
		UPDATE user_penalties
		SET appeal_status = ?, appeal_reviewed_by = ?, appeal_reviewed_at = ?
		WHERE id = ? AND appeal_status = ?
	`, status, reviewer, now, id, models.ReviewPending)
}
