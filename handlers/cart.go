// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/cliparse"
	"github.com/danielhkuo/brikick/middleware"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
)

var hundred = decimal.NewFromInt(100)

// SalePrice is the discounted price of a lot on sale, to four decimals.
// Ties round to even. It is null when the lot is not on sale.
func SalePrice(unit decimal.Decimal, salePercentage int) decimal.NullDecimal {
	if salePercentage <= 0 {
		return decimal.NullDecimal{}
	}
	factor := hundred.Sub(decimal.NewFromInt(int64(salePercentage))).Div(hundred)
	return decimal.NewNullDecimal(unit.Mul(factor).RoundBank(4))
}

type CartHandler struct {
	db  *sqlx.DB
	cfg cliparse.Config
}

func NewCartHandler(db *sqlx.DB, cfg cliparse.Config) *CartHandler {
	return &CartHandler{db: db, cfg: cfg}
}

// recalculate refreshes a cart store's totals from its items, deleting the
// cart store once it has none.
func recalculate(ctx context.Context, q store.Queryer, cs *models.CartStore) error {
	items, err := store.ListCartItems(ctx, q, cs.ID)
	if err != nil {
		return fmt.Errorf("failed to list cart items: %w", err)
	}
	if len(items) == 0 {
		return store.DeleteCartStore(ctx, q, cs.ID)
	}

	weights := make(map[string]decimal.Decimal)
	cs.TotalItems, cs.TotalLots, cs.TotalWeightGrams = 0, 0, 0
	subtotal := decimal.Zero
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.EffectivePrice().Mul(qty))
		cs.TotalItems += item.Quantity
		cs.TotalLots++

		weight, ok := weights[item.LotID]
		if !ok {
			if weight, err = lotWeight(ctx, q, item.LotID); err != nil {
				return err
			}
			weights[item.LotID] = weight
		}
		cs.TotalWeightGrams += int(weight.Mul(qty).IntPart())
	}
	cs.Subtotal = subtotal.RoundBank(2)
	cs.UpdatedAt = now()

	return store.UpdateCartStoreTotals(ctx, q, cs)
}

// lotWeight is the catalog weight of one piece of the lot, zero when unknown.
func lotWeight(ctx context.Context, q store.Queryer, lotID string) (decimal.Decimal, error) {
	lot, err := store.GetLot(ctx, q, lotID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load lot %s: %w", lotID, err)
	}
	item, err := store.GetCatalogItem(ctx, q, lot.CatalogItemID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !item.WeightGrams.Valid) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load catalog item: %w", err)
	}
	return item.WeightGrams.Decimal, nil
}

// buildCart renders the user's cart grouped by store. Cart stores without
// items are left out.
func buildCart(ctx context.Context, q store.Queryer, userID string) (models.CartResponse, error) {
	empty := models.CartResponse{ItemsTotal: decimal.Zero, Stores: []models.CartStoreView{}}

	cart, err := store.GetCartByUser(ctx, q, userID)
	if errors.Is(err, store.ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return empty, err
	}

	resp := empty
	resp.CartID = &cart.ID

	cartStores, err := store.ListCartStores(ctx, q, cart.ID)
	if err != nil {
		return empty, err
	}
	slices.SortStableFunc(cartStores, func(a, b models.CartStore) int {
		return strings.Compare(a.StoreID, b.StoreID)
	})

	for _, cs := range cartStores {
		items, err := store.ListCartItems(ctx, q, cs.ID)
		if err != nil {
			return empty, err
		}
		if len(items) == 0 {
			continue
		}
		s, err := store.GetStore(ctx, q, cs.StoreID)
		if err != nil {
			return empty, err
		}
		resp.Stores = append(resp.Stores, models.CartStoreView{
			StoreID:          s.ID,
			StoreName:        s.Name,
			StoreSlug:        s.Slug,
			TotalItems:       cs.TotalItems,
			TotalLots:        cs.TotalLots,
			Subtotal:         cs.Subtotal,
			TotalWeightGrams: cs.TotalWeightGrams,
			Items:            items,
		})
		resp.ItemsTotal = resp.ItemsTotal.Add(cs.Subtotal)
	}

	return resp, nil
}

// respond writes the caller's cart after a change.
func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request) {
	resp, err := buildCart(r.Context(), h.db, middleware.UserID(r.Context()))
	if err != nil {
		dbError(w, "failed to build cart", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r)
}

// Count handles GET /cart/count
func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var resp models.CartCountResponse

	cart, err := store.GetCartByUser(ctx, h.db, middleware.UserID(ctx))
	if errors.Is(err, store.ErrNotFound) {
		middleware.JSONResponse(w, http.StatusOK, resp)
		return
	}
	if err != nil {
		dbError(w, "failed to load cart", err)
		return
	}

	cartStores, err := store.ListCartStores(ctx, h.db, cart.ID)
	if err != nil {
		dbError(w, "failed to list cart stores", err)
		return
	}
	for _, cs := range cartStores {
		items, err := store.ListCartItems(ctx, h.db, cs.ID)
		if err != nil {
			dbError(w, "failed to list cart items", err)
			return
		}
		for _, item := range items {
			resp.TotalItems += item.Quantity
			resp.TotalLots++
		}
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// availableLot loads a lot that can be put in a cart at quantity.
func availableLot(ctx context.Context, q store.Queryer, lotID string, quantity int) (*models.Lot, error) {
	lot, err := store.GetLot(ctx, q, lotID)
	if err != nil {
		return nil, notFound(err, "Lot not found.")
	}
	if lot.Status != models.LotAvailable {
		return nil, fail(http.StatusBadRequest, "Lot is not available.")
	}
	if quantity > lot.Quantity {
		return nil, fail(http.StatusBadRequest, "Requested quantity exceeds available stock.")
	}
	return lot, nil
}

// Add handles POST /cart/add
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.CartAddRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.LotID) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "lot_id is required")
		return
	}
	if req.Quantity <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	ctx := r.Context()
	userID := middleware.UserID(ctx)
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		lot, err := availableLot(ctx, tx, req.LotID, req.Quantity)
		if err != nil {
			return err
		}
		s, err := store.GetStore(ctx, tx, lot.StoreID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if s == nil || s.Status != models.StoreActive {
			return fail(http.StatusBadRequest, "Store is not active.")
		}

		t := now()
		cart, err := store.GetOrCreateCart(ctx, tx, userID, t)
		if err != nil {
			return err
		}
		cs, err := store.GetOrCreateCartStore(ctx, tx, cart.ID, s.ID, t)
		if err != nil {
			return err
		}

		existing, err := store.GetCartItemByLot(ctx, tx, cs.ID, lot.ID)
		switch {
		case err == nil:
			merged := existing.Quantity + req.Quantity
			if merged > lot.Quantity {
				return fail(http.StatusBadRequest, "Requested quantity exceeds available stock.")
			}
			if err := store.UpdateCartItemQuantity(ctx, tx, existing.ID, merged); err != nil {
				return err
			}
		case errors.Is(err, store.ErrNotFound):
			item := models.CartItem{
				ID:                auth.NewID(),
				CartStoreID:       cs.ID,
				LotID:             lot.ID,
				Quantity:          req.Quantity,
				UnitPriceSnapshot: lot.UnitPrice,
				SalePriceSnapshot: SalePrice(lot.UnitPrice, lot.SalePercentage),
				AddedAt:           t,
			}
			if err := store.CreateCartItem(ctx, tx, &item); err != nil {
				return err
			}
		default:
			return err
		}

		return recalculate(ctx, tx, cs)
	})
	if err != nil {
		writeError(w, "failed to add to cart", err, "lot_id", req.LotID)
		return
	}

	h.respond(w, r)
}

// userCartItem loads a cart item of the caller's cart with its cart store.
func userCartItem(ctx context.Context, q store.Queryer, userID, itemID string) (*models.CartItem, *models.CartStore, error) {
	if _, err := store.GetCartByUser(ctx, q, userID); err != nil {
		return nil, nil, notFound(err, "Cart not found.")
	}
	item, err := store.GetUserCartItem(ctx, q, userID, itemID)
	if err != nil {
		return nil, nil, notFound(err, "Cart item not found.")
	}
	cs, err := store.GetCartStoreByID(ctx, q, item.CartStoreID)
	if err != nil {
		return nil, nil, err
	}
	return item, cs, nil
}

// UpdateItem handles PUT /cart/items/{id}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req models.CartUpdateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	ctx := r.Context()
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		item, cs, err := userCartItem(ctx, tx, middleware.UserID(ctx), r.PathValue("id"))
		if err != nil {
			return err
		}
		if _, err := availableLot(ctx, tx, item.LotID, req.Quantity); err != nil {
			return err
		}
		if err := store.UpdateCartItemQuantity(ctx, tx, item.ID, req.Quantity); err != nil {
			return err
		}
		return recalculate(ctx, tx, cs)
	})
	if err != nil {
		writeError(w, "failed to update cart item", err)
		return
	}

	h.respond(w, r)
}

// DeleteItem handles DELETE /cart/items/{id}
func (h *CartHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		item, cs, err := userCartItem(ctx, tx, middleware.UserID(ctx), r.PathValue("id"))
		if err != nil {
			return err
		}
		if err := store.DeleteCartItem(ctx, tx, item.ID); err != nil {
			return err
		}
		return recalculate(ctx, tx, cs)
	})
	if err != nil {
		writeError(w, "failed to delete cart item", err)
		return
	}

	h.respond(w, r)
}

// DeleteStore handles DELETE /cart/stores/{store_id}
func (h *CartHandler) DeleteStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		cart, err := store.GetCartByUser(ctx, tx, middleware.UserID(ctx))
		if err != nil {
			return notFound(err, "Cart not found.")
		}
		cs, err := store.GetCartStore(ctx, tx, cart.ID, r.PathValue("store_id"))
		if err != nil {
			return notFound(err, "Cart store not found.")
		}
		if err := store.ClearCartStore(ctx, tx, cs.ID, now()); err != nil {
			return err
		}
		return store.DeleteCartStore(ctx, tx, cs.ID)
	})
	if err != nil {
		writeError(w, "failed to delete cart store", err)
		return
	}

	h.respond(w, r)
}
