// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/brikick/rules"
	"github.com/danielhkuo/brikick/store"
)

// Job names
const (
	EvaluatePenalties          = "evaluate_penalties"
	CalculatePriceGuides       = "calculate_price_guides"
	CheckShippingProofDeadline = "check_shipping_proof_deadlines"
	AutoCancelUnapprovedOrders = "auto_cancel_unapproved_orders"
	CalculateSLAMetrics        = "calculate_sla_metrics"
	CalculateUserRatings       = "calculate_user_ratings"
	AwardBadges                = "award_badges"
)

// Func does one pass of a job and reports how many records it touched.
type Func func(ctx context.Context, db *sqlx.DB, now time.Time) (int, error)

type Job struct {
	Name string
	// Spec is a five-field cron expression.
	Spec string
	Run  Func
}

// All returns every job with its default schedule.
func All() []Job {
	return []Job{
		{Name: EvaluatePenalties, Spec: "0 3 * * *", Run: evaluatePenalties},
		{Name: CalculatePriceGuides, Spec: "0 2 * * *", Run: inTx(rules.CalculatePriceGuides)},
		{Name: CheckShippingProofDeadline, Spec: "0 * * * *", Run: inTx(rules.EnforceShippingProofDeadlines)},
		{Name: AutoCancelUnapprovedOrders, Spec: "30 * * * *", Run: inTx(rules.AutoCancelUnapprovedOrders)},
		{Name: CalculateSLAMetrics, Spec: "0 4 * * *", Run: inTx(rules.CalculateSLAMetrics)},
		{Name: CalculateUserRatings, Spec: "0 5 * * 1", Run: rules.CalculateUserRatings},
		{Name: AwardBadges, Spec: "0 6 * * *", Run: inTx(rules.AwardBadges)},
	}
}

// Find looks a job up by name.
func Find(name string) (Job, bool) {
	for _, j := range All() {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}

// Names lists the job names in schedule order.
func Names() []string {
	all := All()
	names := make([]string, 0, len(all))
	for _, j := range all {
		names = append(names, j.Name)
	}
	return names
}

// inTx runs a rule pass in one transaction so a failed run leaves nothing
// half written.
func inTx(fn func(ctx context.Context, q store.Queryer, now time.Time) (int, error)) Func {
	return func(ctx context.Context, db *sqlx.DB, now time.Time) (int, error) {
		var n int
		err := store.WithTx(ctx, db, func(tx *sqlx.Tx) error {
			var err error
			n, err = fn(ctx, tx, now)
			return err
		})
		return n, err
	}
}

// evaluatePenalties re-evaluates every user with issues inside the
// evaluation window. Each user is evaluated in its own transaction.
func evaluatePenalties(ctx context.Context, db *sqlx.DB, now time.Time) (int, error) {
	cfg, err := rules.LoadPenaltyConfig(ctx, db, now)
	if err != nil {
		return 0, err
	}
	since := now.AddDate(0, 0, -30*cfg.EvaluationPeriodMonths)
	users, err := store.ListUsersWithActiveIssues(ctx, db, since, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list users with issues: %w", err)
	}

	applied := 0
	for _, userID := range users {
		var changed bool
		err := store.WithTx(ctx, db, func(tx *sqlx.Tx) error {
			p, err := rules.EvaluatePenalties(ctx, tx, userID, now)
			changed = p != nil
			return err
		})
		if err != nil {
			slog.Error("failed to evaluate penalties", "error", err, "user_id", userID)
			continue
		}
		if changed {
			applied++
		}
	}
	return applied, nil
}
