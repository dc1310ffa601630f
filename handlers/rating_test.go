// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
	"github.com/danielhkuo/brikick/testutil"
)

func TestGetRating(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewRatingHandler(db, testutil.GetTestConfig())
	user := testutil.CreateTestUser(t, db, "rated")
	viewer := testutil.CreateTestUser(t, db, "viewer")
	ctx := context.Background()
	t0 := time.Now().UTC().Add(-time.Hour)

	rating := func(userID string) (*httptest.ResponseRecorder, models.RatingResponse) {
		r := userRequest("GET", "/users/"+userID+"/rating", nil, viewer.ID)
		r.SetPathValue("id", userID)
		w := httptest.NewRecorder()
		handler.GetRating(w, r)
		var resp models.RatingResponse
		if w.Code == http.StatusOK {
			testutil.AssertJSON(t, w, &resp)
		}
		return w, resp
	}
	insert := func(role, score string) {
		err := store.InsertRatingMetrics(ctx, db, &models.RatingMetrics{
			ID:           auth.NewID(),
			UserID:       user.ID,
			Role:         role,
			OverallScore: decimal.RequireFromString(score),
			ScoreTier:    "GOOD",
			OrdersCount:  4,
			CalculatedAt: t0,
		})
		if err != nil {
			t.Fatalf("Failed to insert rating: %v", err)
		}
	}

	w, _ := rating("nobody")
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w, resp := rating(user.ID)
	testutil.AssertStatus(t, w, http.StatusOK)
	if resp.Metrics != nil || len(resp.Badges) != 0 {
		t.Errorf("Expected an unrated user, got %+v", resp)
	}

	insert(models.RatingRoleBuyer, "70")
	if _, resp := rating(user.ID); resp.Metrics == nil || resp.Metrics.Role != models.RatingRoleBuyer {
		t.Errorf("Expected buyer metrics, got %+v", resp.Metrics)
	}

	insert(models.RatingRoleSeller, "88.5")
	_, resp = rating(user.ID)
	if resp.Metrics == nil || resp.Metrics.Role != models.RatingRoleSeller {
		t.Fatalf("Expected seller metrics to win, got %+v", resp.Metrics)
	}
	assertDecimal(t, "overall score", resp.Metrics.OverallScore, "88.5")

	expired := t0.Add(-time.Minute)
	for _, b := range []models.UserBadge{
		{ID: auth.NewID(), UserID: user.ID, BadgeCode: "TRUSTED_SELLER", AwardedAt: t0},
		{ID: auth.NewID(), UserID: user.ID, BadgeCode: "FAST_SHIPPER", AwardedAt: t0.Add(-48 * time.Hour), ValidUntil: &expired},
	} {
		if err := store.AwardBadge(ctx, db, &b); err != nil {
			t.Fatalf("Failed to award badge: %v", err)
		}
	}

	_, resp = rating(user.ID)
	if len(resp.Badges) != 1 || resp.Badges[0].BadgeCode != "TRUSTED_SELLER" {
		t.Errorf("Expected only the current TRUSTED_SELLER badge, got %+v", resp.Badges)
	}
}
