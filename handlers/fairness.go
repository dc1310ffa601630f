// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/cliparse"
	"github.com/danielhkuo/brikick/middleware"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
)

// FairnessHandler serves the finance staff's shipping benchmark and flag
// review endpoints.
type FairnessHandler struct {
	db  *sqlx.DB
	cfg cliparse.Config
}

func NewFairnessHandler(db *sqlx.DB, cfg cliparse.Config) *FairnessHandler {
	return &FairnessHandler{db: db, cfg: cfg}
}

// CreateBenchmark handles POST /admin/shipping-benchmarks
func (h *FairnessHandler) CreateBenchmark(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBenchmarkRequest
	if !decode(w, r, &req) {
		return
	}

	switch {
	case len(req.OriginCountry) != 2 || len(req.DestinationCountry) != 2:
		middleware.ErrorResponse(w, http.StatusBadRequest, "origin_country and destination_country must be two-letter codes")
		return
	case req.WeightMinGrams < 0 || req.WeightMaxGrams < req.WeightMinGrams:
		middleware.ErrorResponse(w, http.StatusBadRequest, "weight range is invalid")
		return
	case !req.BenchmarkCost.IsPositive():
		middleware.ErrorResponse(w, http.StatusBadRequest, "benchmark_cost must be positive")
		return
	}

	t := now()
	b := models.ShippingBenchmark{
		ID:                 auth.NewID(),
		OriginCountry:      strings.ToUpper(req.OriginCountry),
		DestinationCountry: strings.ToUpper(req.DestinationCountry),
		WeightMinGrams:     req.WeightMinGrams,
		WeightMaxGrams:     req.WeightMaxGrams,
		BenchmarkCost:      req.BenchmarkCost,
		Carrier:            req.Carrier,
		LastUpdated:        &t,
	}
	if err := store.CreateBenchmark(r.Context(), h.db, &b); err != nil {
		dbError(w, "failed to create benchmark", err)
		return
	}

	slog.Info("shipping benchmark created", "benchmark_id", b.ID, "origin", b.OriginCountry, "destination", b.DestinationCountry)
	middleware.JSONResponse(w, http.StatusCreated, b)
}

// ListFlags handles GET /admin/shipping-flags
func (h *FairnessHandler) ListFlags(w http.ResponseWriter, r *http.Request) {
	status := strings.ToUpper(r.URL.Query().Get("status"))
	flags, err := store.ListShippingFlags(r.Context(), h.db, status)
	if err != nil {
		dbError(w, "failed to list shipping flags", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ShippingFlagListResponse{Flags: flags})
}

// ReviewFlag handles POST /admin/shipping-flags/{id}/review
func (h *FairnessHandler) ReviewFlag(w http.ResponseWriter, r *http.Request) {
	var req models.ReviewRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Decision != models.FlagReviewed && req.Decision != models.FlagDismissed {
		middleware.ErrorResponse(w, http.StatusBadRequest, "decision must be REVIEWED or DISMISSED")
		return
	}

	ctx := r.Context()
	id := r.PathValue("id")
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		err := store.ReviewShippingFlag(ctx, tx, id, req.Decision, middleware.UserID(ctx), now())
		if errors.Is(err, store.ErrNotFound) {
			return fail(http.StatusNotFound, "Open shipping flag not found.")
		}
		if err != nil {
			return err
		}
		return audit(ctx, tx, r, h.cfg, "shipping_flag.review", "shipping_fairness_flag", id,
			models.JSONMap{"status": models.FlagOpen},
			models.JSONMap{"status": req.Decision},
			req.Notes)
	})
	if err != nil {
		writeError(w, "failed to review shipping flag", err, "flag_id", id)
		return
	}

	slog.Info("shipping flag reviewed", "flag_id", id, "decision", req.Decision)
	middleware.JSONResponse(w, http.StatusOK, map[string]string{"id": id, "status": req.Decision})
}
