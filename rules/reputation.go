// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
)

// Score tiers
const (
	TierExcellent = "EXCELLENT"
	TierGood      = "GOOD"
	TierFair      = "FAIR"
	TierPoor      = "POOR"
)

const (
	// SLAWindow is the period SLA metrics are computed over.
	SLAWindow = 30 * 24 * time.Hour
	// RatingWindow is the period order history counts towards a rating.
	RatingWindow = 90 * 24 * time.Hour

	// activityOrdersForFull is the order count that earns a full activity score.
	activityOrdersForFull = 10
	flagPenaltyPoints     = 10
	ratingWorkers         = 4
)

var (
	weightShipmentsSLA  = decimal.RequireFromString("0.25")
	weightResponseSLA   = decimal.RequireFromString("0.20")
	weightDispute       = decimal.RequireFromString("0.20")
	weightCancellation  = decimal.RequireFromString("0.15")
	weightPriceFairness = decimal.RequireFromString("0.10")
	weightActivity      = decimal.RequireFromString("0.10")
)

// ComputeRatingScore is the weighted sum of the component scores, rounded
// to four decimals.
func ComputeRatingScore(in models.RatingInputs) decimal.Decimal {
	return in.ShipmentsSLA.Mul(weightShipmentsSLA).
		Add(in.ResponseSLA.Mul(weightResponseSLA)).
		Add(in.Dispute.Mul(weightDispute)).
		Add(in.Cancellation.Mul(weightCancellation)).
		Add(in.PriceFairness.Mul(weightPriceFairness)).
		Add(in.Activity.Mul(weightActivity)).
		RoundBank(4)
}

func ScoreTier(score decimal.Decimal) string {
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(90)):
		return TierExcellent
	case score.GreaterThanOrEqual(decimal.NewFromInt(75)):
		return TierGood
	case score.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return TierFair
	}
	return TierPoor
}

// ShippingBuckets counts shipped orders by hours from order to shipment.
type ShippingBuckets struct {
	Within24h  int
	Within48h  int
	Within72h  int
	Late       int
	TotalHours decimal.Decimal
}

func (b *ShippingBuckets) Add(hours decimal.Decimal) {
	switch {
	case hours.LessThanOrEqual(decimal.NewFromInt(24)):
		b.Within24h++
	case hours.LessThanOrEqual(decimal.NewFromInt(48)):
		b.Within48h++
	case hours.LessThanOrEqual(decimal.NewFromInt(72)):
		b.Within72h++
	default:
		b.Late++
	}
	b.TotalHours = b.TotalHours.Add(hours)
}

func (b ShippingBuckets) Total() int {
	return b.Within24h + b.Within48h + b.Within72h + b.Late
}

// Score weighs on-time shipments 100/75/50 by bucket. A store that shipped
// nothing scores 100.
func (b ShippingBuckets) Score() decimal.Decimal {
	total := b.Total()
	if total == 0 {
		return hundred
	}
	points := decimal.NewFromInt(int64(100*b.Within24h + 75*b.Within48h + 50*b.Within72h))
	return points.Div(decimal.NewFromInt(int64(total))).RoundBank(2)
}

func (b ShippingBuckets) AverageHours() decimal.Decimal {
	total := b.Total()
	if total == 0 {
		return decimal.Zero
	}
	return b.TotalHours.Div(decimal.NewFromInt(int64(total))).RoundBank(2)
}

// CalculateSLAMetrics writes a metrics row for every store covering the
// last SLAWindow and returns the number of stores processed.
func CalculateSLAMetrics(ctx context.Context, q store.Queryer, now time.Time) (int, error) {
	stores, err := store.ListStores(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("failed to list stores: %w", err)
	}

	start := now.Add(-SLAWindow)
	for _, s := range stores {
		orders, err := store.ListStoreOrdersSince(ctx, q, s.ID, start, now)
		if err != nil {
			return 0, fmt.Errorf("failed to list orders for store %s: %w", s.ID, err)
		}

		var b ShippingBuckets
		for _, o := range orders {
			if o.ShippedAt == nil {
				continue
			}
			hours := decimal.NewFromFloat(o.ShippedAt.Sub(o.CreatedAt).Hours())
			b.Add(hours)
		}

		m := &models.SLAMetrics{
			ID:               auth.NewID(),
			StoreID:          s.ID,
			PeriodStart:      start,
			PeriodEnd:        now,
			Shipped24h:       b.Within24h,
			Shipped48h:       b.Within48h,
			Shipped72h:       b.Within72h,
			ShippedLate:      b.Late,
			AvgShippingHours: b.AverageHours(),
			ShippingSLAScore: b.Score(),
			// No buyer messaging yet, so response time cannot be measured.
			MessageSLAScore: hundred,
			CalculatedAt:    now,
		}
		if err := store.InsertSLAMetrics(ctx, q, m); err != nil {
			return 0, fmt.Errorf("failed to save SLA metrics: %w", err)
		}
	}

	return len(stores), nil
}

// OrderOutcomes summarizes an order history for rating purposes.
type OrderOutcomes struct {
	Total     int
	Disputed  int
	Cancelled int
}

func CountOutcomes(orders []models.Order) OrderOutcomes {
	out := OrderOutcomes{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case models.OrderDisputed:
			out.Disputed++
		case models.OrderCancelled:
			out.Cancelled++
		}
	}
	return out
}

// rateScore turns a bad-outcome count into a 0-100 score.
func rateScore(bad, total int) decimal.Decimal {
	if total == 0 {
		return hundred
	}
	good := decimal.NewFromInt(int64(total - bad))
	return good.Mul(hundred).Div(decimal.NewFromInt(int64(total))).RoundBank(2)
}

func activityScore(total int) decimal.Decimal {
	if total >= activityOrdersForFull {
		return hundred
	}
	return decimal.NewFromInt(int64(total * 100 / activityOrdersForFull))
}

func priceFairnessScore(openFlags int) decimal.Decimal {
	score := 100 - flagPenaltyPoints*openFlags
	if score < 0 {
		score = 0
	}
	return decimal.NewFromInt(int64(score))
}

// SellerInputs builds a seller's component scores.
func SellerInputs(outcomes OrderOutcomes, sla *models.SLAMetrics, openFlags int) models.RatingInputs {
	in := models.RatingInputs{
		ShipmentsSLA:  hundred,
		ResponseSLA:   hundred,
		Dispute:       rateScore(outcomes.Disputed, outcomes.Total),
		Cancellation:  rateScore(outcomes.Cancelled, outcomes.Total),
		PriceFairness: priceFairnessScore(openFlags),
		Activity:      activityScore(outcomes.Total),
	}
	if sla != nil {
		in.ShipmentsSLA = sla.ShippingSLAScore
		in.ResponseSLA = sla.MessageSLAScore
	}
	return in
}

// BuyerInputs builds a buyer's component scores. Shipping, response and
// price inputs only apply to sellers and are held at 100.
func BuyerInputs(outcomes OrderOutcomes) models.RatingInputs {
	return models.RatingInputs{
		ShipmentsSLA:  hundred,
		ResponseSLA:   hundred,
		Dispute:       rateScore(outcomes.Disputed, outcomes.Total),
		Cancellation:  rateScore(outcomes.Cancelled, outcomes.Total),
		PriceFairness: hundred,
		Activity:      activityScore(outcomes.Total),
	}
}

func newRating(userID, role string, in models.RatingInputs, orders int, now time.Time) *models.RatingMetrics {
	score := ComputeRatingScore(in)
	return &models.RatingMetrics{
		ID:           auth.NewID(),
		UserID:       userID,
		Role:         role,
		OverallScore: score,
		ScoreTier:    ScoreTier(score),
		FactorScores: models.NewJSON(in),
		OrdersCount:  orders,
		CalculatedAt: now,
	}
}

// CalculateUserRatings rates every seller and every buyer active in the
// rating window, fanning the work out over a few goroutines. It returns
// the number of ratings written.
func CalculateUserRatings(ctx context.Context, db *sqlx.DB, now time.Time) (int, error) {
	since := now.Add(-RatingWindow)

	stores, err := store.ListStores(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("failed to list stores: %w", err)
	}
	buyers, err := store.ListBuyerIDs(ctx, db, since)
	if err != nil {
		return 0, fmt.Errorf("failed to list buyers: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ratingWorkers)

	for _, s := range stores {
		g.Go(func() error {
			return rateSeller(gctx, db, s, since, now)
		})
	}
	for _, buyerID := range buyers {
		g.Go(func() error {
			return rateBuyer(gctx, db, buyerID, since, now)
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(stores) + len(buyers), nil
}

func rateSeller(ctx context.Context, db *sqlx.DB, s models.Store, since, now time.Time) error {
	orders, err := store.ListStoreOrdersSince(ctx, db, s.ID, since, now)
	if err != nil {
		return fmt.Errorf("failed to list orders for store %s: %w", s.ID, err)
	}
	sla, err := store.LatestSLAMetrics(ctx, db, s.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to load SLA metrics: %w", err)
	}
	flags, err := store.CountOpenFlags(ctx, db, s.ID)
	if err != nil {
		return fmt.Errorf("failed to count shipping flags: %w", err)
	}

	outcomes := CountOutcomes(orders)
	m := newRating(s.UserID, models.RatingRoleSeller, SellerInputs(outcomes, sla, flags), outcomes.Total, now)
	if err := store.InsertRatingMetrics(ctx, db, m); err != nil {
		return fmt.Errorf("failed to save seller rating: %w", err)
	}
	slog.Debug("seller rated", "user_id", s.UserID, "score", m.OverallScore.String(), "tier", m.ScoreTier)
	return nil
}

func rateBuyer(ctx context.Context, db *sqlx.DB, buyerID string, since, now time.Time) error {
	orders, err := store.ListBuyerOrdersSince(ctx, db, buyerID, since, now)
	if err != nil {
		return fmt.Errorf("failed to list orders for buyer %s: %w", buyerID, err)
	}
	outcomes := CountOutcomes(orders)
	m := newRating(buyerID, models.RatingRoleBuyer, BuyerInputs(outcomes), outcomes.Total, now)
	if err := store.InsertRatingMetrics(ctx, db, m); err != nil {
		return fmt.Errorf("failed to save buyer rating: %w", err)
	}
	return nil
}

// Badge criteria keys
const (
	CriterionOverallScore  = "overall_score_gte"
	CriterionShippingSLA   = "shipping_sla_gte"
	CriterionDisputeFree   = "disputes_won_rate_gte"
	CriterionAccountMonths = "account_age_months_gte"
	CriterionOrders        = "orders_gte"
)

// SellerStanding holds the figures badge criteria are checked against. A
// nil figure fails every criterion that needs it.
type SellerStanding struct {
	OverallScore  *decimal.Decimal
	ShippingSLA   *decimal.Decimal
	DisputeFree   *decimal.Decimal
	AccountMonths int
	Orders        int
}

// MeetsCriteria reports whether standing satisfies every criterion.
// Unknown criteria never match.
func MeetsCriteria(criteria map[string]float64, st SellerStanding) bool {
	if len(criteria) == 0 {
		return false
	}
	atLeast := func(v *decimal.Decimal, min float64) bool {
		return v != nil && v.GreaterThanOrEqual(decimal.NewFromFloat(min))
	}
	for key, min := range criteria {
		var ok bool
		switch key {
		case CriterionOverallScore:
			ok = atLeast(st.OverallScore, min)
		case CriterionShippingSLA:
			ok = atLeast(st.ShippingSLA, min)
		case CriterionDisputeFree:
			ok = atLeast(st.DisputeFree, min)
		case CriterionAccountMonths:
			ok = float64(st.AccountMonths) >= min
		case CriterionOrders:
			ok = float64(st.Orders) >= min
		}
		if !ok {
			return false
		}
	}
	return true
}

// MonthsBetween counts whole calendar months from start to end.
func MonthsBetween(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// EndOfMonth is the last second of now's month.
func EndOfMonth(now time.Time) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, 1, 0).Add(-time.Second)
}

// AwardBadges grants every badge a seller newly qualifies for. Monthly
// badges last until the end of the month; the rest are permanent and
// granted once. It returns the number of badges awarded.
func AwardBadges(ctx context.Context, q store.Queryer, now time.Time) (int, error) {
	badges, err := store.ListBadges(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("failed to list badges: %w", err)
	}
	stores, err := store.ListStores(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("failed to list stores: %w", err)
	}

	awarded := 0
	for _, s := range stores {
		st, err := sellerStanding(ctx, q, s, now)
		if err != nil {
			return awarded, err
		}

		for _, b := range badges {
			if !MeetsCriteria(b.Criteria.V, st) {
				continue
			}
			held, err := store.HasValidBadge(ctx, q, s.UserID, b.Code, now)
			if err != nil {
				return awarded, fmt.Errorf("failed to check badge: %w", err)
			}
			if held {
				continue
			}

			ub := &models.UserBadge{
				ID:        auth.NewID(),
				UserID:    s.UserID,
				BadgeCode: b.Code,
				AwardedAt: now,
			}
			if b.BadgeType == models.BadgeMonthly {
				until := EndOfMonth(now)
				ub.ValidUntil = &until
			}
			if err := store.AwardBadge(ctx, q, ub); err != nil {
				return awarded, fmt.Errorf("failed to award badge: %w", err)
			}
			awarded++
			slog.Info("badge awarded", "user_id", s.UserID, "badge", b.Code)
		}
	}

	return awarded, nil
}

func sellerStanding(ctx context.Context, q store.Queryer, s models.Store, now time.Time) (SellerStanding, error) {
	var st SellerStanding

	rating, err := store.LatestRatingMetrics(ctx, q, s.UserID, models.RatingRoleSeller)
	switch {
	case err == nil:
		st.OverallScore = &rating.OverallScore
		dispute := rating.FactorScores.V.Dispute
		st.DisputeFree = &dispute
	case !errors.Is(err, store.ErrNotFound):
		return st, fmt.Errorf("failed to load rating: %w", err)
	}

	sla, err := store.LatestSLAMetrics(ctx, q, s.ID)
	switch {
	case err == nil:
		st.ShippingSLA = &sla.ShippingSLAScore
	case !errors.Is(err, store.ErrNotFound):
		return st, fmt.Errorf("failed to load SLA metrics: %w", err)
	}

	user, err := store.GetUser(ctx, q, s.UserID)
	if err != nil {
		return st, fmt.Errorf("failed to load user: %w", err)
	}
	st.AccountMonths = MonthsBetween(user.CreatedAt, now)

	st.Orders, err = store.CountStoreOrders(ctx, q, s.ID)
	if err != nil {
		return st, fmt.Errorf("failed to count orders: %w", err)
	}
	return st, nil
}
