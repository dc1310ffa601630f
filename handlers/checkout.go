// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
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
	"github.com/danielhkuo/brikick/rules"
	"github.com/danielhkuo/brikick/store"
)

// CheckoutHandler walks a single cart store through draft, shipping,
// payment and submission.
type CheckoutHandler struct {
	db  *sqlx.DB
	cfg cliparse.Config
}

func NewCheckoutHandler(db *sqlx.DB, cfg cliparse.Config) *CheckoutHandler {
	return &CheckoutHandler{db: db, cfg: cfg}
}

var (
	errShippingRequired = businessFail(http.StatusUnprocessableEntity, CodeShippingRequired,
		"Shipping method is required.", nil, ActionSelectShipping)
	errPaymentRequired = businessFail(http.StatusUnprocessableEntity, CodePaymentRequired,
		"Payment method is required.", nil, ActionSelectPayment)
	errAddressRequired = businessFail(http.StatusUnprocessableEntity, CodeAddressRequired,
		"A complete shipping address is required.", nil, ActionUpdateAddress)
)

// addressComplete reports whether a can be shipped to.
func addressComplete(a *models.Address) bool {
	if a == nil {
		return false
	}
	for _, v := range []string{a.FirstName, a.LastName, a.AddressLine1, a.City, a.PostalCode, a.CountryCode, a.Phone} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// itemsTotal sums the effective line prices, rounded to cents.
func itemsTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.EffectivePrice().Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.RoundBank(2)
}

func quoteSnapshot(storeID string, items []models.CartItem) models.QuoteSnapshot {
	snap := models.QuoteSnapshot{StoreID: storeID, Items: make([]models.QuoteItem, 0, len(items))}
	for _, item := range items {
		snap.Items = append(snap.Items, models.QuoteItem{
			LotID:             item.LotID,
			Quantity:          item.Quantity,
			UnitPriceSnapshot: item.UnitPriceSnapshot,
			SalePriceSnapshot: item.SalePriceSnapshot,
		})
	}
	return snap
}

// applyTotals recomputes shipping and grand totals from the draft's parts.
func applyTotals(d *models.CheckoutDraft) {
	shipping := decimal.Zero
	if d.ShippingCost.Valid {
		shipping = d.ShippingCost.Decimal
	}
	d.ShippingTotal = shipping.Add(d.InsuranceCost).Add(d.TrackingFee)
	d.GrandTotal = d.ItemsTotal.Add(d.ShippingTotal).Add(d.TaxTotal)
}

// openDraft loads one of the caller's drafts that has not been submitted.
func openDraft(ctx context.Context, q store.Queryer, userID, id string) (*models.CheckoutDraft, error) {
	d, err := store.GetUserDraft(ctx, q, userID, id)
	if err != nil {
		return nil, notFound(err, "Checkout draft not found.")
	}
	if d.Status == models.DraftCompleted {
		return nil, fail(http.StatusConflict, "Checkout draft already submitted.")
	}
	return d, nil
}

// destinationCountry picks the country a draft ships to: its address, else
// the user's default address, else the user's country.
func destinationCountry(ctx context.Context, q store.Queryer, userID string, d *models.CheckoutDraft) (string, error) {
	if d.ShippingAddressID != nil {
		a, err := store.GetAddress(ctx, q, *d.ShippingAddressID)
		if err == nil {
			return a.CountryCode, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return "", err
		}
	}
	addrs, err := store.ListAddresses(ctx, q, userID)
	if err != nil {
		return "", err
	}
	for _, a := range addrs {
		if a.IsDefault {
			return a.CountryCode, nil
		}
	}
	if len(addrs) > 0 {
		return addrs[0].CountryCode, nil
	}
	u, err := store.GetUser(ctx, q, userID)
	if err != nil {
		return "", err
	}
	if u.CountryCode != nil {
		return *u.CountryCode, nil
	}
	return "", nil
}

// shippingMethodViews lists the store's active methods, each with a fair
// shipping quote when the route has a benchmark.
func shippingMethodViews(ctx context.Context, q store.Queryer, userID string, d *models.CheckoutDraft) ([]models.ShippingMethodView, error) {
	methods, err := store.ListActiveShippingMethods(ctx, q, d.StoreID)
	if err != nil {
		return nil, err
	}
	views := make([]models.ShippingMethodView, 0, len(methods))
	if len(methods) == 0 {
		return views, nil
	}

	s, err := store.GetStore(ctx, q, d.StoreID)
	if err != nil {
		return nil, err
	}
	dest, err := destinationCountry(ctx, q, userID, d)
	if err != nil {
		return nil, err
	}
	weight := 0
	if cs, err := store.GetCartStoreByID(ctx, q, d.CartStoreID); err == nil {
		weight = cs.TotalWeightGrams
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	cfg, err := rules.LoadFairnessConfig(ctx, q, now())
	if err != nil {
		return nil, err
	}

	for _, m := range methods {
		view := models.ShippingMethodView{ShippingMethod: m}
		if m.BaseCost.Valid && dest != "" {
			if view.FairShipping, err = rules.QuoteFairShipping(ctx, q, cfg, s.CountryCode, dest, weight, m.BaseCost.Decimal); err != nil {
				return nil, err
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Prepare handles POST /checkout/prepare
func (h *CheckoutHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutPrepareRequest
	if !decode(w, r, &req) {
		return
	}
	if req.StoreID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "store_id is required")
		return
	}

	ctx := r.Context()
	userID := middleware.UserID(ctx)
	var draft *models.CheckoutDraft
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		cart, err := store.GetCartByUser(ctx, tx, userID)
		if err != nil {
			return notFound(err, "Cart store not found.")
		}
		cs, err := store.GetCartStore(ctx, tx, cart.ID, req.StoreID)
		if err != nil {
			return notFound(err, "Cart store not found.")
		}
		s, err := store.GetStore(ctx, tx, cs.StoreID)
		if err != nil {
			return err
		}
		if s.Status != models.StoreActive {
			return fail(http.StatusBadRequest, "Store is not active.")
		}
		items, err := store.ListCartItems(ctx, tx, cs.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fail(http.StatusBadRequest, "Cart store is empty.")
		}

		currency := s.CurrencyID
		if currency == nil {
			u, err := store.GetUser(ctx, tx, userID)
			if err != nil {
				return err
			}
			currency = u.PreferredCurrencyID
		}
		if currency == nil {
			return fail(http.StatusBadRequest, "Payment currency not available.")
		}

		t := now()
		snapshot := models.NewJSON(quoteSnapshot(s.ID, items))
		draft, err = store.FindOpenDraft(ctx, tx, userID, cs.ID)
		switch {
		case err == nil:
			draft.ItemsTotal = itemsTotal(items)
			draft.PaymentCurrencyID = currency
			draft.QuoteSnapshot = snapshot
			draft.UpdatedAt = t
			applyTotals(draft)
			return store.UpdateDraft(ctx, tx, draft)
		case errors.Is(err, store.ErrNotFound):
			draft = &models.CheckoutDraft{
				ID:                auth.NewID(),
				CartStoreID:       cs.ID,
				UserID:            userID,
				StoreID:           s.ID,
				Status:            models.DraftOpen,
				PaymentCurrencyID: currency,
				ItemsTotal:        itemsTotal(items),
				QuoteSnapshot:     snapshot,
				CreatedAt:         t,
				UpdatedAt:         t,
			}
			applyTotals(draft)
			return store.CreateDraft(ctx, tx, draft)
		default:
			return err
		}
	})
	if err != nil {
		writeError(w, "failed to prepare checkout", err, "store_id", req.StoreID)
		return
	}

	methods, err := shippingMethodViews(ctx, h.db, userID, draft)
	if err != nil {
		dbError(w, "failed to list shipping methods", err, "store_id", draft.StoreID)
		return
	}

	slog.Info("checkout prepared", "draft_id", draft.ID, "store_id", draft.StoreID, "items_total", draft.ItemsTotal.String())
	middleware.JSONResponse(w, http.StatusOK, models.CheckoutPrepareResponse{Draft: *draft, ShippingMethods: methods})
}

// ShippingMethods handles GET /checkout/{id}/shipping-methods
func (h *CheckoutHandler) ShippingMethods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	d, err := store.GetUserDraft(ctx, h.db, userID, r.PathValue("id"))
	if err != nil {
		writeError(w, "failed to load draft", notFound(err, "Checkout draft not found."))
		return
	}
	methods, err := shippingMethodViews(ctx, h.db, userID, d)
	if err != nil {
		dbError(w, "failed to list shipping methods", err, "draft_id", d.ID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ShippingMethodsResponse{ShippingMethods: methods})
}

// UpdateShipping handles PUT /checkout/{id}/shipping
func (h *CheckoutHandler) UpdateShipping(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutShippingRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ShippingMethodID == nil {
		writeError(w, "", errShippingRequired)
		return
	}

	ctx := r.Context()
	userID := middleware.UserID(ctx)
	var draft *models.CheckoutDraft
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		d, err := openDraft(ctx, tx, userID, r.PathValue("id"))
		if err != nil {
			return err
		}
		m, err := store.GetShippingMethod(ctx, tx, *req.ShippingMethodID)
		if err != nil {
			return notFound(err, "Shipping method not found.")
		}
		if m.StoreID != d.StoreID {
			return fail(http.StatusNotFound, "Shipping method not found.")
		}
		if m.IsActive != nil && !*m.IsActive {
			return fail(http.StatusBadRequest, "Shipping method is not active.")
		}

		if req.AddressID == nil {
			return errAddressRequired
		}
		a, err := store.GetAddress(ctx, tx, *req.AddressID)
		if err != nil || a.UserID != userID {
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			return fail(http.StatusNotFound, "Address not found.")
		}
		if !addressComplete(a) {
			return errAddressRequired
		}

		items, err := store.ListCartItems(ctx, tx, d.CartStoreID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return fail(http.StatusBadRequest, "Cart store is empty.")
		}

		cost := decimal.Zero
		if m.BaseCost.Valid {
			cost = m.BaseCost.Decimal
		}
		d.ShippingMethodID = &m.ID
		d.ShippingAddressID = &a.ID
		d.ShippingCost = decimal.NewNullDecimal(cost)
		d.ItemsTotal = itemsTotal(items)
		d.Status = models.DraftPendingPayment
		d.UpdatedAt = now()
		applyTotals(d)
		draft = d
		return store.UpdateDraft(ctx, tx, d)
	})
	if err != nil {
		writeError(w, "failed to update checkout shipping", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DraftResponse{Draft: *draft})
}

// UpdatePayment handles PUT /checkout/{id}/payment
func (h *CheckoutHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.CheckoutPaymentRequest
	if !decode(w, r, &req) {
		return
	}
	if req.PaymentMethodID == nil {
		writeError(w, "", errPaymentRequired)
		return
	}

	ctx := r.Context()
	var draft *models.CheckoutDraft
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		d, err := openDraft(ctx, tx, middleware.UserID(ctx), r.PathValue("id"))
		if err != nil {
			return err
		}
		m, err := store.GetPaymentMethod(ctx, tx, *req.PaymentMethodID)
		if err != nil {
			return notFound(err, "Payment method not found.")
		}
		if m.StoreID != d.StoreID {
			return fail(http.StatusNotFound, "Payment method not found.")
		}
		if m.IsActive != nil && !*m.IsActive {
			return fail(http.StatusBadRequest, "Payment method is not active.")
		}

		d.PaymentMethodID = &m.ID
		d.PaymentProvider = &m.MethodType
		d.Status = models.DraftPendingPayment
		d.UpdatedAt = now()
		draft = d
		return store.UpdateDraft(ctx, tx, d)
	})
	if err != nil {
		writeError(w, "failed to update checkout payment", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DraftResponse{Draft: *draft})
}

// Submit handles POST /checkout/{id}/submit
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	var resp models.CheckoutSubmitResponse
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		var err error
		resp, err = submitDraft(ctx, tx, userID, r.PathValue("id"))
		return err
	})
	if err != nil {
		writeError(w, "failed to submit checkout", err, "draft_id", r.PathValue("id"))
		return
	}

	slog.Info("order placed",
		"order_id", resp.Order.ID,
		"order_number", resp.Order.OrderNumber,
		"store_id", resp.Order.StoreID,
		"status", resp.Order.Status,
		"grand_total", resp.Order.GrandTotal.String())
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// submitDraft turns a fully specified draft into an order.
func submitDraft(ctx context.Context, tx store.Queryer, userID, draftID string) (models.CheckoutSubmitResponse, error) {
	var resp models.CheckoutSubmitResponse

	d, err := openDraft(ctx, tx, userID, draftID)
	if err != nil {
		return resp, err
	}
	if d.ShippingMethodID == nil {
		return resp, errShippingRequired
	}
	if d.PaymentMethodID == nil {
		return resp, errPaymentRequired
	}
	var addr *models.Address
	if d.ShippingAddressID != nil {
		addr, err = store.GetAddress(ctx, tx, *d.ShippingAddressID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return resp, err
		}
	}
	if !addressComplete(addr) {
		return resp, errAddressRequired
	}

	cs, err := store.GetCartStoreByID(ctx, tx, d.CartStoreID)
	if err != nil {
		return resp, notFound(err, "Cart store not found.")
	}
	if cs.StoreID != d.StoreID {
		return resp, fail(http.StatusNotFound, "Cart store not found.")
	}
	s, err := store.GetStore(ctx, tx, cs.StoreID)
	if err != nil {
		return resp, err
	}
	if s.Status != models.StoreActive {
		return resp, fail(http.StatusBadRequest, "Store is not active.")
	}
	items, err := store.ListCartItems(ctx, tx, cs.ID)
	if err != nil {
		return resp, err
	}
	if len(items) == 0 {
		return resp, fail(http.StatusBadRequest, "Cart store is empty.")
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.LotID)
	}
	lots, err := store.GetLots(ctx, tx, ids)
	if err != nil {
		return resp, err
	}
	for _, item := range items {
		lot, ok := lots[item.LotID]
		switch {
		case !ok:
			return resp, fail(http.StatusNotFound, "Lot not found.")
		case lot.Status != models.LotAvailable:
			return resp, fail(http.StatusConflict, "Lot is not available.")
		case item.Quantity > lot.Quantity:
			return resp, fail(http.StatusConflict, "Lot stock changed.")
		}
	}

	t := now()
	penalty, err := rules.CurrentPenalty(ctx, tx, userID, t)
	if err != nil {
		return resp, err
	}
	if !rules.CanBuy(penalty) {
		return resp, businessFail(http.StatusForbidden, CodeBuyerRestricted,
			rules.RestrictionMessage(penalty, t), restrictionData(RestrictionCannotBuy, penalty))
	}

	latest, err := store.LatestRatingMetrics(ctx, tx, userID, models.RatingRoleBuyer)
	if errors.Is(err, store.ErrNotFound) {
		latest, err = nil, nil
	}
	if err != nil {
		return resp, err
	}
	approval := rules.RiskyBuyer(s, latest)

	method, err := store.GetShippingMethod(ctx, tx, *d.ShippingMethodID)
	if err != nil {
		return resp, notFound(err, "Shipping method not found.")
	}
	cost := decimal.Zero
	if method.BaseCost.Valid {
		cost = method.BaseCost.Decimal
	}
	d.ShippingCost = decimal.NewNullDecimal(cost)
	d.ItemsTotal = itemsTotal(items)
	applyTotals(d)

	status := models.OrderPending
	if approval {
		status = models.OrderPendingApproval
	}
	paymentStatus := models.PaymentStatusPending
	tracking := method.TrackingType
	order := models.Order{
		ID:                      auth.NewID(),
		OrderNumber:             auth.NewOrderNumber(t),
		BuyerID:                 userID,
		StoreID:                 s.ID,
		Status:                  status,
		ItemsTotal:              d.ItemsTotal,
		ShippingCost:            d.ShippingTotal.Sub(d.InsuranceCost),
		InsuranceCost:           d.InsuranceCost,
		TaxTotal:                d.TaxTotal,
		GrandTotal:              d.GrandTotal,
		StoreCurrencyID:         d.PaymentCurrencyID,
		ShippingMethodID:        d.ShippingMethodID,
		ShippingAddressSnapshot: models.NewJSON(*addr),
		TrackingType:            &tracking,
		PaymentMethodID:         d.PaymentMethodID,
		PaymentStatus:           &paymentStatus,
		CreatedAt:               t,
		UpdatedAt:               t,
	}
	if err := store.CreateOrder(ctx, tx, &order); err != nil {
		return resp, err
	}

	for _, item := range items {
		lot := lots[item.LotID]
		snap := models.ItemSnapshot{CatalogItemID: lot.CatalogItemID, ColorID: lot.ColorID, Condition: lot.Condition}
		if ci, err := store.GetCatalogItem(ctx, tx, lot.CatalogItemID); err == nil {
			snap.ItemNo, snap.Name = ci.ItemNo, ci.Name
		} else if !errors.Is(err, store.ErrNotFound) {
			return resp, err
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		oi := models.OrderItem{
			ID:           auth.NewID(),
			OrderID:      order.ID,
			LotID:        item.LotID,
			ItemSnapshot: models.NewJSON(snap),
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPriceSnapshot,
			SalePrice:    item.SalePriceSnapshot,
			LineTotal:    item.EffectivePrice().Mul(qty).RoundBank(2),
		}
		if err := store.CreateOrderItem(ctx, tx, &oi); err != nil {
			return resp, err
		}
		err := store.AdjustLotQuantity(ctx, tx, item.LotID, -item.Quantity, t)
		if errors.Is(err, store.ErrInsufficientStock) {
			return resp, fail(http.StatusConflict, "Lot stock changed.")
		}
		if err != nil {
			return resp, err
		}
	}

	if err := store.AddStatusChange(ctx, tx, order.ID, "", status, &userID, nil, t); err != nil {
		return resp, err
	}
	if approval {
		if err := store.CreateApproval(ctx, tx, rules.NewApproval(auth.NewID(), order.ID, latest, t)); err != nil {
			return resp, err
		}
	}

	eval, err := rules.EvaluateShippingCost(ctx, tx, rules.ShippingCheck{
		Origin:      s.CountryCode,
		Destination: addr.CountryCode,
		WeightGrams: cs.TotalWeightGrams,
		Charged:     cost,
		StoreID:     s.ID,
		OrderID:     &order.ID,
	}, t)
	if err != nil {
		return resp, err
	}
	if !eval.Valid {
		resp.ShippingWarning = &eval.Message
	}

	d.Status = models.DraftCompleted
	d.OrderID = &order.ID
	d.UpdatedAt = t
	if err := store.UpdateDraft(ctx, tx, d); err != nil {
		return resp, err
	}
	if err := store.ClearCartStore(ctx, tx, cs.ID, t); err != nil {
		return resp, err
	}

	resp.Draft = *d
	resp.ApprovalRequired = approval
	resp.Order = order
	return resp, nil
}
