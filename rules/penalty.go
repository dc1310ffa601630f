// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/metrics"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
)

const (
	ReasonAutoThreshold = "AUTO_THRESHOLD"
	autoPenaltyText     = "Automatic penalty based on active issues."

	// daysPerMonth converts configured month counts into day windows.
	daysPerMonth = 30
)

// DefaultPenaltyConfig is used until staff store their own thresholds.
func DefaultPenaltyConfig(now time.Time) models.PenaltyConfig {
	return models.PenaltyConfig{
		ID:                     1,
		WarningThreshold:       3,
		CooldownThreshold:      5,
		SuspensionThreshold:    8,
		BanThreshold:           12,
		EvaluationPeriodMonths: 6,
		IssueDecayMonths:       12,
		UpdatedAt:              now,
	}
}

// LoadPenaltyConfig returns the stored configuration, saving the defaults
// the first time it is asked for.
func LoadPenaltyConfig(ctx context.Context, q store.Queryer, now time.Time) (*models.PenaltyConfig, error) {
	cfg, err := store.GetPenaltyConfig(ctx, q)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load penalty config: %w", err)
	}
	def := DefaultPenaltyConfig(now)
	if err := store.SavePenaltyConfig(ctx, q, &def); err != nil {
		return nil, fmt.Errorf("failed to save default penalty config: %w", err)
	}
	return &def, nil
}

// CountActiveIssues counts the user's unexpired issues inside the
// evaluation window.
func CountActiveIssues(ctx context.Context, q store.Queryer, cfg *models.PenaltyConfig, userID string, now time.Time) (int, error) {
	since := now.AddDate(0, 0, -daysPerMonth*cfg.EvaluationPeriodMonths)
	return store.CountActiveIssues(ctx, q, userID, since, now)
}

// PenaltyDecision is the penalty a given issue count calls for.
type PenaltyDecision struct {
	Type string
	// Duration is ignored when Permanent is set. A zero Duration leaves the
	// penalty on record with no end date.
	Duration  time.Duration
	Permanent bool
}

// DeterminePenalty maps an active issue count onto the configured
// thresholds. ok is false when the count is below every threshold.
func DeterminePenalty(count int, cfg *models.PenaltyConfig) (d PenaltyDecision, ok bool) {
	const day = 24 * time.Hour
	switch {
	case count >= cfg.BanThreshold:
		return PenaltyDecision{Type: models.PenaltyBan, Permanent: true}, true
	case count >= cfg.SuspensionThreshold:
		return PenaltyDecision{Type: models.PenaltySuspension, Duration: 30 * day}, true
	case count >= cfg.CooldownThreshold:
		return PenaltyDecision{Type: models.PenaltyCooldown, Duration: 7 * day}, true
	case count >= cfg.WarningThreshold:
		return PenaltyDecision{Type: models.PenaltyWarning}, true
	}
	return PenaltyDecision{}, false
}

// PenaltyRank orders penalty types by severity; unknown types rank 0.
func PenaltyRank(penaltyType string) int {
	switch penaltyType {
	case models.PenaltyWarning:
		return 1
	case models.PenaltyCooldown:
		return 2
	case models.PenaltySuspension:
		return 3
	case models.PenaltyBan:
		return 4
	}
	return 0
}

// RestrictionsFor returns the capabilities a penalty type removes.
func RestrictionsFor(penaltyType string) models.Restrictions {
	no := false
	switch penaltyType {
	case models.PenaltyBan:
		return models.Restrictions{CanSell: &no, CanBuy: &no, APIDisabled: true}
	case models.PenaltySuspension:
		return models.Restrictions{CanSell: &no, CanBuy: &no}
	case models.PenaltyCooldown:
		return models.Restrictions{CanSell: &no}
	}
	return models.Restrictions{}
}

// EvaluatePenalties applies the penalty the user's active issues call for
// when it is more severe than the one in force. It returns the new penalty,
// or nil when nothing changed.
func EvaluatePenalties(ctx context.Context, q store.Queryer, userID string, now time.Time) (*models.UserPenalty, error) {
	cfg, err := LoadPenaltyConfig(ctx, q, now)
	if err != nil {
		return nil, err
	}

	count, err := CountActiveIssues(ctx, q, cfg, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count active issues: %w", err)
	}

	decision, ok := DeterminePenalty(count, cfg)
	if !ok {
		return nil, nil
	}

	current, err := CurrentPenalty(ctx, q, userID, now)
	if err != nil {
		return nil, err
	}
	if current != nil && PenaltyRank(decision.Type) <= PenaltyRank(current.PenaltyType) {
		return nil, nil
	}

	description := autoPenaltyText
	p := &models.UserPenalty{
		ID:           auth.NewID(),
		UserID:       userID,
		PenaltyType:  decision.Type,
		ReasonCode:   ReasonAutoThreshold,
		Description:  &description,
		StartsAt:     now,
		Restrictions: models.NewJSON(RestrictionsFor(decision.Type)),
		CreatedAt:    now,
	}
	if !decision.Permanent && decision.Duration > 0 {
		ends := now.Add(decision.Duration)
		p.EndsAt = &ends
	}

	if err := store.CreatePenalty(ctx, q, p); err != nil {
		return nil, fmt.Errorf("failed to apply penalty: %w", err)
	}

	metrics.PenaltiesApplied.WithLabelValues(p.PenaltyType).Inc()
	slog.Info("penalty applied", "user_id", userID, "penalty_type", p.PenaltyType, "active_issues", count)
	return p, nil
}

// CurrentPenalty returns the penalty in force at now, or nil.
func CurrentPenalty(ctx context.Context, q store.Queryer, userID string, now time.Time) (*models.UserPenalty, error) {
	p, err := store.CurrentPenalty(ctx, q, userID, now)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load current penalty: %w", err)
	}
	return p, nil
}

// Issue describes a problem being recorded against a user.
type Issue struct {
	UserID         string
	Type           string
	Severity       int
	RelatedOrderID *string
	Description    *string
}

// RecordIssue stores an issue that decays after the configured period and
// re-evaluates the user's penalty.
func RecordIssue(ctx context.Context, q store.Queryer, in Issue, now time.Time) (*models.UserPenalty, error) {
	cfg, err := LoadPenaltyConfig(ctx, q, now)
	if err != nil {
		return nil, err
	}

	issue := &models.UserIssue{
		ID:             auth.NewID(),
		UserID:         in.UserID,
		IssueType:      in.Type,
		Severity:       in.Severity,
		RelatedOrderID: in.RelatedOrderID,
		Description:    in.Description,
		CreatedAt:      now,
		ExpiresAt:      now.AddDate(0, 0, daysPerMonth*cfg.IssueDecayMonths),
	}
	if err := store.CreateIssue(ctx, q, issue); err != nil {
		return nil, fmt.Errorf("failed to record issue: %w", err)
	}

	return EvaluatePenalties(ctx, q, in.UserID, now)
}

// CanBuy reports whether a user under penalty p may place orders.
func CanBuy(p *models.UserPenalty) bool {
	if p == nil {
		return true
	}
	if p.PenaltyType == models.PenaltyBan || p.PenaltyType == models.PenaltySuspension {
		return false
	}
	r := p.Restrictions.V
	return r.CanBuy == nil || *r.CanBuy
}

// CanSell reports whether a user under penalty p may list or price lots.
func CanSell(p *models.UserPenalty) bool {
	if p == nil {
		return true
	}
	r := p.Restrictions.V
	return r.CanSell == nil || *r.CanSell
}

// RestrictionMessage describes penalty p for the penalized user.
func RestrictionMessage(p *models.UserPenalty, now time.Time) string {
	if p == nil {
		return ""
	}
	if p.EndsAt == nil {
		return fmt.Sprintf("%s in effect with no end date", p.PenaltyType)
	}
	return fmt.Sprintf("%s ends %s", p.PenaltyType, humanize.RelTime(*p.EndsAt, now, "ago", "from now"))
}

var ErrAppealClosed = errors.New("penalty cannot be appealed")

// SubmitAppeal files the user's single appeal against a penalty.
func SubmitAppeal(ctx context.Context, q store.Queryer, penaltyID, userID, text string) error {
	p, err := store.GetPenalty(ctx, q, penaltyID)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return store.ErrNotFound
	}
	if p.AppealStatus != nil {
		return ErrAppealClosed
	}
	return store.SubmitAppeal(ctx, q, penaltyID, userID, text)
}

// DecideAppeal resolves a pending appeal. An approved appeal lifts the
// penalty immediately.
func DecideAppeal(ctx context.Context, q store.Queryer, penaltyID string, approve bool, reviewerID string, now time.Time) (*models.UserPenalty, error) {
	status := models.ReviewRejected
	var endsAt *time.Time
	if approve {
		status = models.ReviewApproved
		endsAt = &now
	}
	if err := store.ReviewAppeal(ctx, q, penaltyID, status, reviewerID, endsAt, now); err != nil {
		return nil, err
	}
	return store.GetPenalty(ctx, q, penaltyID)
}
