// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/rules"
	"github.com/danielhkuo/brikick/store"
	"github.com/danielhkuo/brikick/testutil"
)

func echoUser(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(UserID(r.Context())))
}

func TestRequireUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	a := NewAuth(db, cfg.JWTSecret)
	handler := a.RequireUser(echoUser)

	user := testutil.CreateTestUser(t, db, "alice")

	expired, err := auth.IssueToken(user.ID, cfg.JWTSecret, time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"missing header", nil, http.StatusUnauthorized},
		{"wrong scheme", map[string]string{"Authorization": "Basic abc"}, http.StatusUnauthorized},
		{"garbage token", map[string]string{"Authorization": "Bearer not-a-jwt"}, http.StatusUnauthorized},
		{"expired token", map[string]string{"Authorization": "Bearer " + expired}, http.StatusUnauthorized},
		{"unknown user", testutil.AuthHeaders(t, cfg, auth.NewID()), http.StatusUnauthorized},
		{"valid token", testutil.AuthHeaders(t, cfg, user.ID), http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler(w, testutil.MakeRequest("GET", "/me", nil, tc.headers))

			testutil.AssertStatus(t, w, tc.wantStatus)
			if tc.wantStatus == http.StatusOK && w.Body.String() != user.ID {
				t.Errorf("Expected user ID in context, got '%s'", w.Body.String())
			}
		})
	}
}

func TestRequireUser_BannedFromAPI(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewAuth(db, cfg.JWTSecret).RequireUser(echoUser)

	user := testutil.CreateTestUser(t, db, "mallory")
	now := time.Now().UTC().Add(-time.Minute)
	err := store.CreatePenalty(context.Background(), db, &models.UserPenalty{
		ID:           auth.NewID(),
		UserID:       user.ID,
		PenaltyType:  models.PenaltyBan,
		ReasonCode:   rules.ReasonAutoThreshold,
		StartsAt:     now,
		Restrictions: models.NewJSON(rules.RestrictionsFor(models.PenaltyBan)),
		CreatedAt:    now,
	})
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	handler(w, testutil.MakeRequest("GET", "/me", nil, testutil.AuthHeaders(t, cfg, user.ID)))
	testutil.AssertStatus(t, w, http.StatusForbidden)
}

func TestRequireRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewAuth(db, cfg.JWTSecret).RequireRole(models.RoleStaffSupport)(echoUser)

	buyer := testutil.CreateTestUser(t, db, "buyer")
	support := testutil.CreateTestUser(t, db, "support")
	testutil.GrantTestRole(t, db, support.ID, models.RoleStaffSupport)
	admin := testutil.CreateTestUser(t, db, "admin")
	testutil.GrantTestRole(t, db, admin.ID, models.RoleAdmin)

	testCases := []struct {
		name       string
		userID     string
		wantStatus int
	}{
		{"plain user", buyer.ID, http.StatusForbidden},
		{"matching role", support.ID, http.StatusOK},
		{"admin", admin.ID, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler(w, testutil.MakeRequest("GET", "/admin", nil, testutil.AuthHeaders(t, cfg, tc.userID)))
			testutil.AssertStatus(t, w, tc.wantStatus)
		})
	}
}
