// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/cliparse"
	"github.com/danielhkuo/brikick/middleware"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/rules"
	"github.com/danielhkuo/brikick/store"
)

// Business error codes and follow-up actions returned to clients
const (
	CodeShippingRequired  = "SHIPPING_REQUIRED"
	CodePaymentRequired   = "PAYMENT_REQUIRED"
	CodeAddressRequired   = "ADDRESS_REQUIRED"
	CodeBuyerRestricted   = "BUYER_RESTRICTED"
	CodeSellerRestricted  = "SELLER_RESTRICTED"
	ActionSelectShipping  = "SELECT_SHIPPING_METHOD"
	ActionSelectPayment   = "SELECT_PAYMENT_METHOD"
	ActionUpdateAddress   = "UPDATE_ADDRESS"
	RestrictionCannotBuy  = "CANNOT_BUY"
	RestrictionCannotSell = "CANNOT_SELL"
)

// now is the clock every handler reads
var now = func() time.Time { return time.Now().UTC() }

func dbError(w http.ResponseWriter, msg string, err error, args ...any) {
	slog.Error(msg, append([]any{"error", err}, args...)...)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := middleware.ParseJSONBody(r, v); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return true
}

// ownStore loads the store owned by the authenticated user. It writes the
// error response and returns nil when there is none.
func ownStore(w http.ResponseWriter, r *http.Request, q store.Queryer) *models.Store {
	s, err := store.GetStoreByOwner(r.Context(), q, middleware.UserID(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Store not found.")
		return nil
	}
	if err != nil {
		dbError(w, "failed to load own store", err)
		return nil
	}
	return s
}

// restrictionData describes a penalty for BUYER_RESTRICTED and
// SELLER_RESTRICTED responses.
func restrictionData(restriction string, p *models.UserPenalty) map[string]any {
	return map[string]any{"restriction": restriction, "ends_at": p.EndsAt}
}

// canSell refuses sellers whose current penalty removes selling.
func canSell(w http.ResponseWriter, r *http.Request, q store.Queryer) bool {
	t := now()
	p, err := rules.CurrentPenalty(r.Context(), q, middleware.UserID(r.Context()), t)
	if err != nil {
		dbError(w, "failed to load penalty", err)
		return false
	}
	if !rules.CanSell(p) {
		middleware.BusinessError(w, http.StatusForbidden, CodeSellerRestricted,
			rules.RestrictionMessage(p, t), restrictionData(RestrictionCannotSell, p), nil)
		return false
	}
	return true
}

// audit records a staff or seller action together with a salted hash of
// the caller's address.
func audit(ctx context.Context, q store.Queryer, r *http.Request, cfg cliparse.Config, action, entityType, entityID string, oldValues, newValues models.JSONMap, reason *string) error {
	userID := middleware.UserID(ctx)
	ip := auth.HashIP(middleware.GetClientIP(r), cfg.AuditSalt)
	entry := &models.AuditLog{
		ID:         auth.NewID(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  &ip,
		Reason:     reason,
		CreatedAt:  now(),
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if oldValues != nil {
		entry.OldValues = models.NewJSON(oldValues)
	}
	if newValues != nil {
		entry.NewValues = models.NewJSON(newValues)
	}
	return store.WriteAudit(ctx, q, entry)
}

func validCondition(c string) bool {
	return c == models.ConditionNew || c == models.ConditionUsed
}

// apiError is a client-facing refusal raised inside a transaction.
type apiError struct {
	status  int
	message string
	code    string
	data    map[string]any
	actions []string
}

func (e *apiError) Error() string { return e.message }

func fail(status int, message string) *apiError {
	return &apiError{status: status, message: message}
}

func businessFail(status int, code, message string, data map[string]any, actions ...string) *apiError {
	return &apiError{status: status, code: code, message: message, data: data, actions: actions}
}

// writeError answers an *apiError as-is and anything else as a database
// failure logged under msg.
func writeError(w http.ResponseWriter, msg string, err error, args ...any) {
	var ae *apiError
	if errors.As(err, &ae) {
		if ae.code != "" {
			middleware.BusinessError(w, ae.status, ae.code, ae.message, ae.data, ae.actions)
			return
		}
		middleware.ErrorResponse(w, ae.status, ae.message)
		return
	}
	dbError(w, msg, err, args...)
}

// notFound maps store.ErrNotFound onto a 404 with message and passes any
// other error through.
func notFound(err error, message string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fail(http.StatusNotFound, message)
	}
	return err
}
