// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/rules"
	"github.com/danielhkuo/brikick/store"
)

type contextKey int

const userIDKey contextKey = iota

// WithUserID returns a context carrying the authenticated user's ID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user's ID, or "" outside RequireUser
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// Auth authenticates bearer tokens against the users table
type Auth struct {
	db     *sqlx.DB
	secret string
}

func NewAuth(db *sqlx.DB, secret string) *Auth {
	return &Auth{db: db, secret: secret}
}

// RequireUser rejects requests without a valid access token for an active
// user. Users banned from the API are refused as well.
func (a *Auth) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			ErrorResponse(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		userID, err := auth.ParseToken(token, a.secret)
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := r.Context()
		user, err := store.GetUser(ctx, a.db, userID)
		if errors.Is(err, store.ErrNotFound) {
			ErrorResponse(w, http.StatusUnauthorized, "User not found")
			return
		}
		if err != nil {
			slog.Error("failed to load user", "error", err, "user_id", userID)
			ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if user.Status != models.UserStatusActive {
			ErrorResponse(w, http.StatusForbidden, "User is not active")
			return
		}

		p, err := rules.CurrentPenalty(ctx, a.db, userID, time.Now().UTC())
		if err != nil {
			slog.Error("failed to load penalty", "error", err, "user_id", userID)
			ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if p != nil && p.Restrictions.V.APIDisabled {
			ErrorResponse(w, http.StatusForbidden, "API access disabled")
			return
		}

		next(w, r.WithContext(WithUserID(ctx, userID)))
	}
}

// RequireRole is RequireUser plus a role check. Admins pass every check.
func (a *Auth) RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	allowed := append([]string{models.RoleAdmin}, roles...)
	return func(next http.HandlerFunc) http.HandlerFunc {
		return a.RequireUser(func(w http.ResponseWriter, r *http.Request) {
			ok, err := store.HasAnyRole(r.Context(), a.db, UserID(r.Context()), allowed...)
			if err != nil {
				slog.Error("failed to load roles", "error", err)
				ErrorResponse(w, http.StatusInternalServerError, "Database error")
				return
			}
			if !ok {
				ErrorResponse(w, http.StatusForbidden, "Insufficient role")
				return
			}
			next(w, r)
		})
	}
}
