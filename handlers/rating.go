// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"

	"github.com/jmoiron/sqlx"

	"github.com/danielhkuo/brikick/cliparse"
	"github.com/danielhkuo/brikick/middleware"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
)

type RatingHandler struct {
	db  *sqlx.DB
	cfg cliparse.Config
}

func NewRatingHandler(db *sqlx.DB, cfg cliparse.Config) *RatingHandler {
	return &RatingHandler{db: db, cfg: cfg}
}

// GetRating handles GET /users/{id}/rating. Seller metrics win over buyer
// metrics for users who have both.
func (h *RatingHandler) GetRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.PathValue("id")

	if _, err := store.GetUser(ctx, h.db, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "User not found.")
			return
		}
		dbError(w, "failed to load user", err)
		return
	}

	var resp models.RatingResponse
	for _, role := range []string{models.RatingRoleSeller, models.RatingRoleBuyer} {
		m, err := store.LatestRatingMetrics(ctx, h.db, userID, role)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			dbError(w, "failed to load rating", err, "user_id", userID)
			return
		}
		resp.Metrics = m
		break
	}

	badges, err := store.ListUserBadges(ctx, h.db, userID, now())
	if err != nil {
		dbError(w, "failed to list badges", err, "user_id", userID)
		return
	}
	resp.Badges = badges

	middleware.JSONResponse(w, http.StatusOK, resp)
}
