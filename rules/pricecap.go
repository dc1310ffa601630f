// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/metrics"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
)

// PriceGuideWindowMonths is how far back sales count towards a price guide.
const PriceGuideWindowMonths = 6

var priceCapMultiplier = decimal.NewFromInt(2)

var ErrPriceCapExceeded = errors.New("price exceeds allowed cap")

// PriceCapError reports a price above twice the six month average.
type PriceCapError struct {
	Price      decimal.Decimal
	Limit      decimal.Decimal
	AvgPrice6m decimal.Decimal
}

func (e *PriceCapError) Error() string {
	return fmt.Sprintf("price %s exceeds cap %s (2x avg 6m: %s)", e.Price, e.Limit, e.AvgPrice6m)
}

func (e *PriceCapError) Is(target error) bool {
	return target == ErrPriceCapExceeded
}

// Details returns the error figures as strings for API responses.
func (e *PriceCapError) Details() map[string]string {
	return map[string]string{
		"price":        e.Price.String(),
		"limit":        e.Limit.String(),
		"avg_price_6m": e.AvgPrice6m.String(),
	}
}

// MaxAllowedPrice is the price cap for a six month average.
func MaxAllowedPrice(avg6m decimal.Decimal) decimal.Decimal {
	return avg6m.Mul(priceCapMultiplier)
}

// ValidatePriceCap returns a *PriceCapError when price is above the cap.
func ValidatePriceCap(price, avg6m decimal.Decimal) error {
	limit := MaxAllowedPrice(avg6m)
	if price.GreaterThan(limit) {
		return &PriceCapError{Price: price, Limit: limit, AvgPrice6m: avg6m}
	}
	return nil
}

// Price validation error codes and follow-up actions
const (
	CodePriceCapExceeded  = "PRICE_CAP_EXCEEDED"
	ActionRequestOverride = "REQUEST_OVERRIDE"
	ActionAdjustPrice     = "ADJUST_PRICE"
)

// PriceValidation is the outcome of checking a lot price against its guide.
type PriceValidation struct {
	Valid     bool
	ErrorCode string
	Message   string
	Data      map[string]any
	Actions   []string
	// OverrideID is set when an approved override admitted the price.
	OverrideID *string
}

// LotPrice identifies the lot being priced.
type LotPrice struct {
	StoreID       string
	CatalogItemID string
	ColorID       *int64
	Condition     string
	UnitPrice     decimal.Decimal
}

// ValidateLotPrice checks a lot price against the price guide cap, letting
// an approved override for the same store and item raise the limit.
func ValidateLotPrice(ctx context.Context, q store.Queryer, lp LotPrice) (PriceValidation, error) {
	if lp.ColorID == nil {
		return PriceValidation{Valid: true}, nil
	}

	guide, err := store.GetPriceGuide(ctx, q, lp.CatalogItemID, *lp.ColorID, lp.Condition)
	if errors.Is(err, store.ErrNotFound) {
		return PriceValidation{Valid: true}, nil
	}
	if err != nil {
		return PriceValidation{}, fmt.Errorf("failed to load price guide: %w", err)
	}
	if !guide.PriceCap.Valid || guide.PriceCap.Decimal.IsZero() {
		return PriceValidation{Valid: true}, nil
	}

	priceCap := guide.PriceCap.Decimal
	if lp.UnitPrice.LessThanOrEqual(priceCap) {
		return PriceValidation{Valid: true}, nil
	}

	override, err := store.LatestApprovedOverride(ctx, q, lp.StoreID, lp.CatalogItemID, *lp.ColorID, lp.Condition)
	switch {
	case err == nil:
		if lp.UnitPrice.LessThanOrEqual(override.RequestedPrice) {
			return PriceValidation{Valid: true, OverrideID: &override.ID}, nil
		}
	case !errors.Is(err, store.ErrNotFound):
		return PriceValidation{}, fmt.Errorf("failed to load price override: %w", err)
	}

	metrics.PriceCapRejections.Inc()
	return PriceValidation{
		Valid:     false,
		ErrorCode: CodePriceCapExceeded,
		Message:   "Price exceeds allowed cap",
		Data: map[string]any{
			"your_price":  lp.UnitPrice,
			"avg_6m":      guide.AvgPrice6m.Decimal,
			"price_cap":   priceCap,
			"max_allowed": priceCap,
		},
		Actions: []string{ActionRequestOverride, ActionAdjustPrice},
	}, nil
}

type guideKey struct {
	itemID    string
	colorID   int64
	condition string
}

type guideAgg struct {
	total    decimal.Decimal
	units    int
	min, max decimal.Decimal
}

// CalculatePriceGuides rebuilds the price guide of every item, color and
// condition sold in the last six months and returns how many were written.
func CalculatePriceGuides(ctx context.Context, q store.Queryer, now time.Time) (int, error) {
	lines, err := store.ListSoldLines(ctx, q, now.AddDate(0, -PriceGuideWindowMonths, 0))
	if err != nil {
		return 0, fmt.Errorf("failed to load sold lines: %w", err)
	}

	aggs := make(map[guideKey]*guideAgg)
	var order []guideKey
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		price := l.UnitPrice
		if l.SalePrice.Valid {
			price = l.SalePrice.Decimal
		}
		k := guideKey{l.CatalogItemID, l.ColorID, l.Condition}
		a, ok := aggs[k]
		if !ok {
			a = &guideAgg{min: price, max: price}
			aggs[k] = a
			order = append(order, k)
		}
		a.total = a.total.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		a.units += l.Quantity
		a.min = decimal.Min(a.min, price)
		a.max = decimal.Max(a.max, price)
	}

	for _, k := range order {
		a := aggs[k]
		avg := a.total.Div(decimal.NewFromInt(int64(a.units))).RoundBank(4)
		calculated := now
		g := models.PriceGuide{
			ID:               auth.NewID(),
			CatalogItemID:    k.itemID,
			ColorID:          k.colorID,
			Condition:        k.condition,
			AvgPrice6m:       decimal.NewNullDecimal(avg),
			MinPrice6m:       decimal.NewNullDecimal(a.min),
			MaxPrice6m:       decimal.NewNullDecimal(a.max),
			SalesCount6m:     a.units,
			PriceCap:         decimal.NewNullDecimal(MaxAllowedPrice(avg)),
			LastCalculatedAt: &calculated,
		}
		if err := store.UpsertPriceGuide(ctx, q, &g); err != nil {
			return 0, fmt.Errorf("failed to save price guide: %w", err)
		}
	}

	return len(order), nil
}
