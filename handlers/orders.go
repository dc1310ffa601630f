// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/brikick/cliparse"
	"github.com/danielhkuo/brikick/middleware"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/rules"
	"github.com/danielhkuo/brikick/store"
)

type OrderHandler struct {
	db  *sqlx.DB
	cfg cliparse.Config
}

func NewOrderHandler(db *sqlx.DB, cfg cliparse.Config) *OrderHandler {
	return &OrderHandler{db: db, cfg: cfg}
}

// orderParty loads an order the caller is a party to. seller reports
// whether the caller owns the selling store.
func orderParty(ctx context.Context, q store.Queryer, userID, orderID string) (o *models.Order, seller bool, err error) {
	o, err = store.GetOrder(ctx, q, orderID)
	if err != nil {
		return nil, false, notFound(err, "Order not found.")
	}
	s, err := store.GetStoreByOwner(ctx, q, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}
	seller = s != nil && s.ID == o.StoreID
	if !seller && o.BuyerID != userID {
		return nil, false, fail(http.StatusNotFound, "Order not found.")
	}
	return o, seller, nil
}

// sellerOrder loads an order of the caller's own store.
func sellerOrder(ctx context.Context, q store.Queryer, userID, orderID string) (*models.Order, error) {
	o, seller, err := orderParty(ctx, q, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !seller {
		return nil, fail(http.StatusForbidden, "Only the seller can do this.")
	}
	return o, nil
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := store.ListBuyerOrders(r.Context(), h.db, middleware.UserID(r.Context()))
	if err != nil {
		dbError(w, "failed to list orders", err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.OrderListResponse{Orders: orders})
}

// StoreOrders handles GET /stores/me/orders
func (h *OrderHandler) StoreOrders(w http.ResponseWriter, r *http.Request) {
	s := ownStore(w, r, h.db)
	if s == nil {
		return
	}
	orders, err := store.ListStoreOrders(r.Context(), h.db, s.ID)
	if err != nil {
		dbError(w, "failed to list store orders", err, "store_id", s.ID)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.OrderListResponse{Orders: orders})
}

// GetOrder handles GET /orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	o, _, err := orderParty(ctx, h.db, middleware.UserID(ctx), r.PathValue("id"))
	if err != nil {
		writeError(w, "failed to load order", err)
		return
	}
	h.respond(w, r, o)
}

func (h *OrderHandler) respond(w http.ResponseWriter, r *http.Request, o *models.Order) {
	ctx := r.Context()
	resp := models.OrderDetailResponse{Order: *o}

	var err error
	if resp.Items, err = store.ListOrderItems(ctx, h.db, o.ID); err != nil {
		dbError(w, "failed to list order items", err, "order_id", o.ID)
		return
	}
	if resp.History, err = store.ListStatusHistory(ctx, h.db, o.ID); err != nil {
		dbError(w, "failed to list order history", err, "order_id", o.ID)
		return
	}
	resp.Approval, err = store.GetApprovalByOrder(ctx, h.db, o.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		dbError(w, "failed to load approval", err, "order_id", o.ID)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// reload answers with the order's current state after a change.
func (h *OrderHandler) reload(w http.ResponseWriter, r *http.Request, id string) {
	o, err := store.GetOrder(r.Context(), h.db, id)
	if err != nil {
		dbError(w, "failed to reload order", err, "order_id", id)
		return
	}
	h.respond(w, r, o)
}

// Ship handles POST /orders/{id}/ship
func (h *OrderHandler) Ship(w http.ResponseWriter, r *http.Request) {
	var req models.ShipOrderRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	userID := middleware.UserID(ctx)
	id := r.PathValue("id")
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		o, err := sellerOrder(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if o.Status != models.OrderPending {
			return fail(http.StatusConflict, "Order cannot be shipped in status "+o.Status+".")
		}

		t := now()
		rules.SetShippingProofDeadline(o, req.ShippedAt, t)
		shippedAt := t
		switch {
		case o.ShippedAt != nil:
			shippedAt = *o.ShippedAt
		case req.ShippedAt != nil:
			shippedAt = *req.ShippedAt
		}
		if err := store.MarkShipped(ctx, tx, o.ID, req.TrackingNumber, shippedAt, o.ShippingProofDeadline, t); err != nil {
			return err
		}
		return store.AddStatusChange(ctx, tx, o.ID, o.Status, models.OrderShipped, &userID, nil, t)
	})
	if err != nil {
		writeError(w, "failed to ship order", err, "order_id", id)
		return
	}

	slog.Info("order shipped", "order_id", id)
	h.reload(w, r, id)
}

// ShippingProof handles POST /orders/{id}/shipping-proof
func (h *OrderHandler) ShippingProof(w http.ResponseWriter, r *http.Request) {
	var req models.ShippingProofRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "url must be an http(s) URL")
		return
	}

	ctx := r.Context()
	id := r.PathValue("id")
	err = store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		o, err := sellerOrder(ctx, tx, middleware.UserID(ctx), id)
		if err != nil {
			return err
		}
		if o.ShippedAt == nil {
			return fail(http.StatusConflict, "Order has not been shipped.")
		}
		return store.SetShippingProof(ctx, tx, o.ID, u.String(), now())
	})
	if err != nil {
		writeError(w, "failed to record shipping proof", err, "order_id", id)
		return
	}

	h.reload(w, r, id)
}

// Delivered handles POST /orders/{id}/delivered
func (h *OrderHandler) Delivered(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	id := r.PathValue("id")
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		o, err := store.GetOrder(ctx, tx, id)
		if err != nil || o.BuyerID != userID {
			if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			return fail(http.StatusNotFound, "Order not found.")
		}
		if o.Status != models.OrderShipped {
			return fail(http.StatusConflict, "Order has not been shipped.")
		}
		t := now()
		if err := store.MarkDelivered(ctx, tx, o.ID, t); err != nil {
			return err
		}
		return store.AddStatusChange(ctx, tx, o.ID, o.Status, models.OrderDelivered, &userID, nil, t)
	})
	if err != nil {
		writeError(w, "failed to mark order delivered", err, "order_id", id)
		return
	}

	h.reload(w, r, id)
}

// Approval handles POST /orders/{id}/approval
func (h *OrderHandler) Approval(w http.ResponseWriter, r *http.Request) {
	var req models.ApprovalDecisionRequest
	if !decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	userID := middleware.UserID(ctx)
	id := r.PathValue("id")
	err := store.WithTx(ctx, h.db, func(tx *sqlx.Tx) error {
		if _, err := sellerOrder(ctx, tx, userID, id); err != nil {
			return err
		}
		_, err := rules.DecideOrderApproval(ctx, tx, id, req.Approve, userID, req.Notes, now())
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fail(http.StatusNotFound, "Order approval not found.")
		case errors.Is(err, rules.ErrApprovalClosed):
			return fail(http.StatusConflict, "Order approval already decided.")
		}
		return err
	})
	if err != nil {
		writeError(w, "failed to decide order approval", err, "order_id", id)
		return
	}

	slog.Info("order approval decided", "order_id", id, "approved", req.Approve)
	h.reload(w, r, id)
}
