// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/cliparse"
	"github.com/danielhkuo/brikick/middleware"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
)

// defaultRiskThreshold is the buyer score below which stores that ask for
// it hold orders for approval.
var defaultRiskThreshold = decimal.NewFromInt(50)

type StoreHandler struct {
	db  *sqlx.DB
	cfg cliparse.Config
}

func NewStoreHandler(db *sqlx.DB, cfg cliparse.Config) *StoreHandler {
	return &StoreHandler{db: db, cfg: cfg}
}

// CreateStore handles POST /stores
func (h *StoreHandler) CreateStore(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStoreRequest
	if !decode(w, r, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if len(req.CountryCode) != 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "country_code must be a two-letter code")
		return
	}

	ctx := r.Context()
	userID := middleware.UserID(ctx)
	if _, err := store.GetStoreByOwner(ctx, h.db, userID); err == nil {
		middleware.ErrorResponse(w, http.StatusConflict, "User already has a store.")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		dbError(w, "failed to check existing store", err)
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if slug == "" {
		var err error
		if slug, err = auth.GenerateSlug(req.Name); err != nil {
			slog.Error("failed to generate slug", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create store")
			return
		}
	}

	threshold := defaultRiskThreshold
	if req.RiskThresholdScore != nil {
		threshold = *req.RiskThresholdScore
	}

	t := now()
	s := models.Store{
		ID:                            auth.NewID(),
		UserID:                        userID,
		Name:                          req.Name,
		Slug:                          slug,
		CountryCode:                   strings.ToUpper(req.CountryCode),
		CurrencyID:                    req.CurrencyID,
		Status:                        models.StoreActive,
		InstantCheckoutEnabled:        true,
		RequireApprovalForRiskyBuyers: req.RequireApprovalForRiskyBuyers,
		RiskThresholdScore:            threshold,
		CreatedAt:                     t,
	}

	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		if err := store.CreateStore(ctx, tx, &s); err != nil {
			return err
		}
		return store.GrantRole(ctx, tx, userID, models.RoleSeller, nil, t)
	})
	if errors.Is(err, store.ErrConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, "Store slug already taken.")
		return
	}
	if err != nil {
		dbError(w, "failed to create store", err)
		return
	}

	slog.Info("store created", "store_id", s.ID, "user_id", userID, "slug", s.Slug)
	middleware.JSONResponse(w, http.StatusCreated, s)
}

func (h *StoreHandler) storeBySlug(w http.ResponseWriter, r *http.Request) *models.Store {
	s, err := store.GetStoreBySlug(r.Context(), h.db, r.PathValue("slug"))
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Store not found.")
		return nil
	}
	if err != nil {
		dbError(w, "failed to load store", err)
		return nil
	}
	return s
}

// GetStore handles GET /stores/{slug}
func (h *StoreHandler) GetStore(w http.ResponseWriter, r *http.Request) {
	if s := h.storeBySlug(w, r); s != nil {
		middleware.JSONResponse(w, http.StatusOK, s)
	}
}

// ListLots handles GET /stores/{slug}/lots
func (h *StoreHandler) ListLots(w http.ResponseWriter, r *http.Request) {
	s := h.storeBySlug(w, r)
	if s == nil {
		return
	}
	lots, err := store.ListStoreLots(r.Context(), h.db, s.ID)
	if err != nil {
		dbError(w, "failed to list lots", err, "store_id", s.ID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.LotListResponse{Lots: lots})
}

// CreateShippingMethod handles POST /stores/me/shipping-methods
func (h *StoreHandler) CreateShippingMethod(w http.ResponseWriter, r *http.Request) {
	var req models.CreateShippingMethodRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.TrackingType != models.TrackingTracked && req.TrackingType != models.TrackingNone {
		middleware.ErrorResponse(w, http.StatusBadRequest, "tracking_type must be TRACKED or NO_TRACKING")
		return
	}
	if req.BaseCost.Valid && req.BaseCost.Decimal.IsNegative() {
		middleware.ErrorResponse(w, http.StatusBadRequest, "base_cost cannot be negative")
		return
	}

	s := ownStore(w, r, h.db)
	if s == nil {
		return
	}

	active := true
	m := models.ShippingMethod{
		ID:                 auth.NewID(),
		StoreID:            s.ID,
		Name:               req.Name,
		Note:               req.Note,
		CostType:           req.CostType,
		BaseCost:           req.BaseCost,
		TrackingType:       req.TrackingType,
		InsuranceAvailable: req.InsuranceAvailable,
		MinDays:            req.MinDays,
		MaxDays:            req.MaxDays,
		IsActive:           &active,
	}
	if req.ShipsToCountries != nil {
		m.ShipsToCountries = models.NewJSON(req.ShipsToCountries)
	}
	if err := store.CreateShippingMethod(r.Context(), h.db, &m); err != nil {
		dbError(w, "failed to create shipping method", err, "store_id", s.ID)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, m)
}

// CreatePaymentMethod handles POST /stores/me/payment-methods
func (h *StoreHandler) CreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePaymentMethodRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.MethodType) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "method_type is required")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	s := ownStore(w, r, h.db)
	if s == nil {
		return
	}

	active := true
	m := models.PaymentMethod{
		ID:         auth.NewID(),
		StoreID:    s.ID,
		MethodType: strings.ToUpper(req.MethodType),
		Name:       req.Name,
		IsOnSite:   req.IsOnSite,
		IsActive:   &active,
	}
	if err := store.CreatePaymentMethod(r.Context(), h.db, &m); err != nil {
		dbError(w, "failed to create payment method", err, "store_id", s.ID)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, m)
}
