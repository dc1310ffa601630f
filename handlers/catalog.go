// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/cliparse"
	"github.com/danielhkuo/brikick/middleware"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
)

const (
	defaultCatalogLimit = 50
	maxCatalogLimit     = 200

	// itemTypes holds the seeded item type codes.
	itemTypes = "SPMBGCIO"
)

type CatalogHandler struct {
	db  *sqlx.DB
	cfg cliparse.Config
}

func NewCatalogHandler(db *sqlx.DB, cfg cliparse.Config) *CatalogHandler {
	return &CatalogHandler{db: db, cfg: cfg}
}

// ListItems handles GET /catalog/items
func (h *CatalogHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	limit := defaultCatalogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxCatalogLimit)
	}

	items, err := store.ListCatalogItems(r.Context(), h.db, limit)
	if err != nil {
		dbError(w, "failed to list catalog items", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.CatalogListResponse{Items: items})
}

// GetItem handles GET /catalog/items/{id}
func (h *CatalogHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := store.GetCatalogItem(r.Context(), h.db, r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Catalog item not found.")
		return
	}
	if err != nil {
		dbError(w, "failed to load catalog item", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, item)
}

// CreateItem handles POST /catalog/items
func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCatalogItemRequest
	if !decode(w, r, &req) {
		return
	}

	req.ItemNo = strings.TrimSpace(req.ItemNo)
	req.Name = strings.TrimSpace(req.Name)
	if req.ItemNo == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "item_no is required")
		return
	}
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.ItemType == "" {
		req.ItemType = "P"
	}
	req.ItemType = strings.ToUpper(req.ItemType)
	if len(req.ItemType) != 1 || !strings.Contains(itemTypes, req.ItemType) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown item_type")
		return
	}
	if req.ItemSeq == 0 {
		req.ItemSeq = 1
	}

	item := models.CatalogItem{
		ID:           auth.NewID(),
		ItemNo:       req.ItemNo,
		ItemType:     req.ItemType,
		ItemSeq:      req.ItemSeq,
		Name:         req.Name,
		CategoryID:   req.CategoryID,
		YearReleased: req.YearReleased,
		WeightGrams:  req.WeightGrams,
		Status:       "ACTIVE",
		CreatedAt:    now(),
	}
	if err := store.CreateCatalogItem(r.Context(), h.db, &item); err != nil {
		if errors.Is(err, store.ErrConflict) {
			middleware.ErrorResponse(w, http.StatusConflict, "Catalog item already exists.")
			return
		}
		dbError(w, "failed to create catalog item", err)
		return
	}

	slog.Info("catalog item created", "item_id", item.ID, "item_no", item.ItemNo)
	middleware.JSONResponse(w, http.StatusCreated, item)
}

// PriceGuide handles GET /catalog/price-guide
func (h *CatalogHandler) PriceGuide(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	itemID := q.Get("item_id")
	if itemID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "item_id is required")
		return
	}
	colorID, err := strconv.ParseInt(q.Get("color_id"), 10, 64)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "color_id must be an integer")
		return
	}
	condition := q.Get("condition")
	if condition == "" {
		condition = models.ConditionNew
	}
	if !validCondition(condition) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "condition must be N or U")
		return
	}

	g, err := store.GetPriceGuide(r.Context(), h.db, itemID, colorID, condition)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Price guide not found.")
		return
	}
	if err != nil {
		dbError(w, "failed to load price guide", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, g)
}
