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
	"github.com/danielhkuo/brikick/rules"
	"github.com/danielhkuo/brikick/store"
)

// LotHandler serves seller inventory and price override requests.
type LotHandler struct {
	db  *sqlx.DB
	cfg cliparse.Config
}

func NewLotHandler(db *sqlx.DB, cfg cliparse.Config) *LotHandler {
	return &LotHandler{db: db, cfg: cfg}
}

// priceAllowed runs the price cap check and writes the refusal when the
// price is over the cap. ok is false when a response was written.
func (h *LotHandler) priceAllowed(w http.ResponseWriter, r *http.Request, lp rules.LotPrice) (v rules.PriceValidation, ok bool) {
	v, err := rules.ValidateLotPrice(r.Context(), h.db, lp)
	if err != nil {
		dbError(w, "failed to validate lot price", err)
		return v, false
	}
	if !v.Valid {
		slog.Info("lot price rejected", "store_id", lp.StoreID, "item_id", lp.CatalogItemID, "price", lp.UnitPrice.String())
		middleware.BusinessError(w, http.StatusUnprocessableEntity, v.ErrorCode, v.Message, v.Data, v.Actions)
		return v, false
	}
	return v, true
}

// checkItem validates the catalog item and color a lot or override refers to.
func (h *LotHandler) checkItem(w http.ResponseWriter, r *http.Request, itemID string, colorID *int64) bool {
	if _, err := store.GetCatalogItem(r.Context(), h.db, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Catalog item not found.")
			return false
		}
		dbError(w, "failed to load catalog item", err)
		return false
	}
	if colorID == nil {
		return true
	}
	ok, err := store.ColorExists(r.Context(), h.db, *colorID)
	if err != nil {
		dbError(w, "failed to load color", err)
		return false
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown color_id")
		return false
	}
	return true
}

// CreateLot handles POST /lots
func (h *LotHandler) CreateLot(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLotRequest
	if !decode(w, r, &req) {
		return
	}

	switch {
	case req.CatalogItemID == "":
		middleware.ErrorResponse(w, http.StatusBadRequest, "catalog_item_id is required")
		return
	case !validCondition(req.Condition):
		middleware.ErrorResponse(w, http.StatusBadRequest, "condition must be N or U")
		return
	case req.Quantity <= 0:
		middleware.ErrorResponse(w, http.StatusBadRequest, "quantity must be positive")
		return
	case !req.UnitPrice.IsPositive():
		middleware.ErrorResponse(w, http.StatusBadRequest, "unit_price must be positive")
		return
	case req.SalePercentage < 0 || req.SalePercentage > 99:
		middleware.ErrorResponse(w, http.StatusBadRequest, "sale_percentage must be between 0 and 99")
		return
	}
	if req.BulkQuantity < 1 {
		req.BulkQuantity = 1
	}

	s := ownStore(w, r, h.db)
	if s == nil || !canSell(w, r, h.db) || !h.checkItem(w, r, req.CatalogItemID, req.ColorID) {
		return
	}

	v, ok := h.priceAllowed(w, r, rules.LotPrice{
		StoreID:       s.ID,
		CatalogItemID: req.CatalogItemID,
		ColorID:       req.ColorID,
		Condition:     req.Condition,
		UnitPrice:     req.UnitPrice,
	})
	if !ok {
		return
	}

	t := now()
	lot := models.Lot{
		ID:                     auth.NewID(),
		StoreID:                s.ID,
		CatalogItemID:          req.CatalogItemID,
		ColorID:                req.ColorID,
		Condition:              req.Condition,
		Completeness:           req.Completeness,
		Quantity:               req.Quantity,
		BulkQuantity:           req.BulkQuantity,
		UnitPrice:              req.UnitPrice,
		SalePercentage:         req.SalePercentage,
		Description:            req.Description,
		Status:                 models.LotAvailable,
		PriceOverrideRequestID: v.OverrideID,
		CreatedAt:              t,
		UpdatedAt:              t,
	}
	if err := store.CreateLot(r.Context(), h.db, &lot); err != nil {
		dbError(w, "failed to create lot", err, "store_id", s.ID)
		return
	}

	slog.Info("lot created", "lot_id", lot.ID, "store_id", s.ID, "quantity", lot.Quantity)
	middleware.JSONResponse(w, http.StatusCreated, lot)
}

// UpdatePrice handles PUT /lots/{id}/price
func (h *LotHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateLotPriceRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.UnitPrice.IsPositive() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "unit_price must be positive")
		return
	}

	s := ownStore(w, r, h.db)
	if s == nil {
		return
	}
	lot, err := store.GetLot(r.Context(), h.db, r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) || (err == nil && lot.StoreID != s.ID) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Lot not found.")
		return
	}
	if err != nil {
		dbError(w, "failed to load lot", err)
		return
	}
	if !canSell(w, r, h.db) {
		return
	}

	v, ok := h.priceAllowed(w, r, rules.LotPrice{
		StoreID:       s.ID,
		CatalogItemID: lot.CatalogItemID,
		ColorID:       lot.ColorID,
		Condition:     lot.Condition,
		UnitPrice:     req.UnitPrice,
	})
	if !ok {
		return
	}

	t := now()
	if err := store.UpdateLotPrice(r.Context(), h.db, lot.ID, req.UnitPrice, v.OverrideID, t); err != nil {
		dbError(w, "failed to update lot price", err, "lot_id", lot.ID)
		return
	}
	lot.UnitPrice = req.UnitPrice
	lot.PriceOverrideRequestID = v.OverrideID
	lot.UpdatedAt = t

	middleware.JSONResponse(w, http.StatusOK, lot)
}

// RequestOverride handles POST /price-overrides
func (h *LotHandler) RequestOverride(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePriceOverrideRequest
	if !decode(w, r, &req) {
		return
	}
	switch {
	case req.CatalogItemID == "":
		middleware.ErrorResponse(w, http.StatusBadRequest, "catalog_item_id is required")
		return
	case !validCondition(req.Condition):
		middleware.ErrorResponse(w, http.StatusBadRequest, "condition must be N or U")
		return
	case !req.RequestedPrice.IsPositive():
		middleware.ErrorResponse(w, http.StatusBadRequest, "requested_price must be positive")
		return
	case strings.TrimSpace(req.Justification) == "":
		middleware.ErrorResponse(w, http.StatusBadRequest, "justification is required")
		return
	}

	s := ownStore(w, r, h.db)
	if s == nil || !canSell(w, r, h.db) || !h.checkItem(w, r, req.CatalogItemID, &req.ColorID) {
		return
	}

	o := models.PriceOverrideRequest{
		ID:             auth.NewID(),
		StoreID:        s.ID,
		CatalogItemID:  req.CatalogItemID,
		ColorID:        req.ColorID,
		Condition:      req.Condition,
		RequestedPrice: req.RequestedPrice,
		Justification:  req.Justification,
		Status:         models.ReviewPending,
		CreatedAt:      now(),
	}

	guide, err := store.GetPriceGuide(r.Context(), h.db, req.CatalogItemID, req.ColorID, req.Condition)
	switch {
	case err == nil:
		o.PriceCap = guide.PriceCap
	case !errors.Is(err, store.ErrNotFound):
		dbError(w, "failed to load price guide", err)
		return
	}

	if err := store.CreatePriceOverride(r.Context(), h.db, &o); err != nil {
		dbError(w, "failed to create price override", err, "store_id", s.ID)
		return
	}

	slog.Info("price override requested", "override_id", o.ID, "store_id", s.ID)
	middleware.JSONResponse(w, http.StatusCreated, o)
}

// ReviewOverride handles POST /admin/price-overrides/{id}/review
func (h *LotHandler) ReviewOverride(w http.ResponseWriter, r *http.Request) {
	var req models.ReviewRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Decision != models.ReviewApproved && req.Decision != models.ReviewRejected {
		middleware.ErrorResponse(w, http.StatusBadRequest, "decision must be APPROVED or REJECTED")
		return
	}

	ctx := r.Context()
	id := r.PathValue("id")
	reviewer := middleware.UserID(ctx)

	var o *models.PriceOverrideRequest
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		if err := store.ReviewPriceOverride(ctx, tx, id, req.Decision, reviewer, req.Notes, now()); err != nil {
			return err
		}
		var err error
		if o, err = store.GetPriceOverride(ctx, tx, id); err != nil {
			return err
		}
		return audit(ctx, tx, r, h.cfg, "price_override.review", "price_override_request", id,
			models.JSONMap{"status": models.ReviewPending},
			models.JSONMap{"status": req.Decision, "requested_price": o.RequestedPrice.String()},
			req.Notes)
	})
	if errors.Is(err, store.ErrNotFound) {
		if _, getErr := store.GetPriceOverride(ctx, h.db, id); getErr == nil {
			middleware.ErrorResponse(w, http.StatusConflict, "Price override already reviewed.")
			return
		}
		middleware.ErrorResponse(w, http.StatusNotFound, "Price override not found.")
		return
	}
	if err != nil {
		dbError(w, "failed to review price override", err, "override_id", id)
		return
	}

	slog.Info("price override reviewed", "override_id", id, "decision", req.Decision)
	middleware.JSONResponse(w, http.StatusOK, o)
}
