// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/metrics"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
)

const (
	CodeShippingCostExcessive = "SHIPPING_COST_EXCESSIVE"

	// shippingViolationSeverity is the issue weight of an excessive charge
	// or a missed proof deadline.
	shippingViolationSeverity = 3
)

var hundred = decimal.NewFromInt(100)

// DefaultFairnessConfig is used until staff store their own thresholds.
func DefaultFairnessConfig(now time.Time) models.FairnessConfig {
	return models.FairnessConfig{
		ID:                          1,
		MaxMarkupPercentage:         decimal.NewFromInt(15),
		AlertThresholdPercentage:    decimal.NewFromInt(25),
		AutoFlagThresholdPercentage: decimal.NewFromInt(50),
		UpdatedAt:                   now,
	}
}

// LoadFairnessConfig returns the stored configuration, saving the defaults
// the first time it is asked for.
func LoadFairnessConfig(ctx context.Context, q store.Queryer, now time.Time) (*models.FairnessConfig, error) {
	cfg, err := store.GetFairnessConfig(ctx, q)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load fairness config: %w", err)
	}
	def := DefaultFairnessConfig(now)
	if err := store.SaveFairnessConfig(ctx, q, &def); err != nil {
		return nil, fmt.Errorf("failed to save default fairness config: %w", err)
	}
	return &def, nil
}

// MarkupPercentage is how far charged is above benchmark, in percent.
func MarkupPercentage(charged, benchmark decimal.Decimal) decimal.Decimal {
	return charged.Sub(benchmark).Div(benchmark).Mul(hundred)
}

// MaxFairShipping is the highest charge within the configured markup.
func MaxFairShipping(benchmark decimal.Decimal, cfg *models.FairnessConfig) decimal.Decimal {
	return benchmark.Mul(decimal.NewFromInt(1).Add(cfg.MaxMarkupPercentage.Div(hundred))).RoundBank(2)
}

var ErrFairShippingViolation = errors.New("shipping cost exceeds fair maximum")

// FairShippingError reports a shipping charge above the fair maximum.
type FairShippingError struct {
	ShippingCost decimal.Decimal
	BenchmarkMax decimal.Decimal
}

func (e *FairShippingError) Error() string {
	return fmt.Sprintf("shipping cost %s exceeds fair maximum %s", e.ShippingCost, e.BenchmarkMax)
}

func (e *FairShippingError) Is(target error) bool {
	return target == ErrFairShippingViolation
}

func ValidateFairShipping(cost, benchmarkMax decimal.Decimal) error {
	if cost.GreaterThan(benchmarkMax) {
		return &FairShippingError{ShippingCost: cost, BenchmarkMax: benchmarkMax}
	}
	return nil
}

// FindBenchmark returns the benchmark for a route and weight, or nil.
func FindBenchmark(ctx context.Context, q store.Queryer, origin, destination string, weightGrams int) (*models.ShippingBenchmark, error) {
	b, err := store.FindBenchmark(ctx, q, origin, destination, weightGrams)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shipping benchmark: %w", err)
	}
	return b, nil
}

// QuoteFairShipping compares cost with the route benchmark. It returns nil
// when no usable benchmark exists.
func QuoteFairShipping(ctx context.Context, q store.Queryer, cfg *models.FairnessConfig, origin, destination string, weightGrams int, cost decimal.Decimal) (*models.FairShippingQuote, error) {
	b, err := FindBenchmark(ctx, q, origin, destination, weightGrams)
	if err != nil || b == nil || !b.BenchmarkCost.IsPositive() {
		return nil, err
	}
	maxFair := MaxFairShipping(b.BenchmarkCost, cfg)
	return &models.FairShippingQuote{
		Benchmark:   b.BenchmarkCost,
		MaxFair:     maxFair,
		WithinLimit: ValidateFairShipping(cost, maxFair) == nil,
	}, nil
}

// ShippingCheck is a shipping charge on a route to be checked.
type ShippingCheck struct {
	Origin      string
	Destination string
	WeightGrams int
	Charged     decimal.Decimal
	StoreID     string
	OrderID     *string
}

// ShippingEvaluation is the outcome of EvaluateShippingCost.
type ShippingEvaluation struct {
	Valid     bool
	ErrorCode string
	Message   string
	Warning   string
	Markup    decimal.Decimal
	Flag      *models.ShippingFlag
}

// EvaluateShippingCost compares a charge with the route benchmark. Charges
// above the alert threshold raise a WARNING flag; above the auto-flag
// threshold they raise a VIOLATION flag and an issue against the seller.
func EvaluateShippingCost(ctx context.Context, q store.Queryer, c ShippingCheck, now time.Time) (ShippingEvaluation, error) {
	b, err := FindBenchmark(ctx, q, c.Origin, c.Destination, c.WeightGrams)
	if err != nil {
		return ShippingEvaluation{}, err
	}
	if b == nil {
		return ShippingEvaluation{Valid: true, Warning: "No benchmark available"}, nil
	}
	if !b.BenchmarkCost.IsPositive() {
		return ShippingEvaluation{Valid: true, Warning: "Invalid benchmark cost"}, nil
	}

	cfg, err := LoadFairnessConfig(ctx, q, now)
	if err != nil {
		return ShippingEvaluation{}, err
	}

	markup := MarkupPercentage(c.Charged, b.BenchmarkCost)
	eval := ShippingEvaluation{Valid: true, Markup: markup}

	switch {
	case markup.GreaterThan(cfg.AutoFlagThresholdPercentage):
		eval.Flag, err = raiseFlag(ctx, q, c, b.BenchmarkCost, markup, models.FlagViolation, now)
		if err != nil {
			return ShippingEvaluation{}, err
		}
		s, err := store.GetStore(ctx, q, c.StoreID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return ShippingEvaluation{}, fmt.Errorf("failed to load store: %w", err)
		}
		if s != nil {
			_, err := RecordIssue(ctx, q, Issue{
				UserID:         s.UserID,
				Type:           models.IssueShippingViolation,
				Severity:       shippingViolationSeverity,
				RelatedOrderID: c.OrderID,
			}, now)
			if err != nil {
				return ShippingEvaluation{}, err
			}
		}
		eval.Valid = false
		eval.ErrorCode = CodeShippingCostExcessive
		eval.Message = fmt.Sprintf("Shipping cost %s%% above benchmark", markup.StringFixedBank(0))

	case markup.GreaterThan(cfg.AlertThresholdPercentage):
		eval.Flag, err = raiseFlag(ctx, q, c, b.BenchmarkCost, markup, models.FlagWarning, now)
		if err != nil {
			return ShippingEvaluation{}, err
		}
	}

	return eval, nil
}

func raiseFlag(ctx context.Context, q store.Queryer, c ShippingCheck, benchmark, markup decimal.Decimal, flagType string, now time.Time) (*models.ShippingFlag, error) {
	f := &models.ShippingFlag{
		ID:               auth.NewID(),
		StoreID:          c.StoreID,
		OrderID:          c.OrderID,
		FlagType:         flagType,
		ChargedAmount:    c.Charged,
		BenchmarkAmount:  benchmark,
		MarkupPercentage: markup.RoundBank(2),
		Status:           models.FlagOpen,
		CreatedAt:        now,
	}
	if err := store.CreateShippingFlag(ctx, q, f); err != nil {
		return nil, fmt.Errorf("failed to create shipping flag: %w", err)
	}
	metrics.ShippingFlags.WithLabelValues(flagType).Inc()
	slog.Info("shipping flag raised", "store_id", c.StoreID, "flag_type", flagType, "markup", markup.StringFixedBank(2))
	return f, nil
}
