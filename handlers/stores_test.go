// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
	"github.com/danielhkuo/brikick/testutil"
)

func TestCreateStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := NewStoreHandler(db, testutil.GetTestConfig())
	owner := testutil.CreateTestUser(t, db, "owner")
	rival := testutil.CreateTestUser(t, db, "rival")

	tests := []struct {
		name           string
		userID         string
		req            models.CreateStoreRequest
		expectedStatus int
	}{
		{"missing name", owner.ID, models.CreateStoreRequest{CountryCode: "DK"}, http.StatusBadRequest},
		{"bad country", owner.ID, models.CreateStoreRequest{Name: "Bricks", CountryCode: "DEN"}, http.StatusBadRequest},
		{"valid", owner.ID, models.CreateStoreRequest{Name: "Bricks", Slug: "Bricks-DK", CountryCode: "dk"}, http.StatusCreated},
		{"second store", owner.ID, models.CreateStoreRequest{Name: "More Bricks", CountryCode: "DK"}, http.StatusConflict},
		{"slug taken", rival.ID, models.CreateStoreRequest{Name: "Copycat", Slug: "bricks-dk", CountryCode: "DK"}, http.StatusConflict},
		{"generated slug", rival.ID, models.CreateStoreRequest{Name: "Rival Bricks", CountryCode: "SE"}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.CreateStore(w, userRequest("POST", "/stores", tt.req, tt.userID))
			testutil.AssertStatus(t, w, tt.expectedStatus)
			if tt.name != "valid" {
				return
			}

			var s models.Store
			testutil.AssertJSON(t, w, &s)
			if s.Slug != "bricks-dk" || s.CountryCode != "DK" || s.Status != models.StoreActive {
				t.Errorf("Expected an active DK store at bricks-dk, got %s %s %s", s.Slug, s.CountryCode, s.Status)
			}
			assertDecimal(t, "risk threshold", s.RiskThresholdScore, "50")
		})
	}

	roles, err := store.UserRoles(context.Background(), db, owner.ID)
	if err != nil {
		t.Fatalf("Failed to load roles: %v", err)
	}
	if !slices.Contains(roles, models.RoleSeller) {
		t.Errorf("Expected the owner to be a seller, got %v", roles)
	}
}

func TestStorePublicViews(t *testing.T) {
	m := newMarket(t)
	handler := NewStoreHandler(m.db, testutil.GetTestConfig())

	bySlug := func(call func(http.ResponseWriter, *http.Request), slug string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("GET", "/stores/"+slug, nil, nil)
		req.SetPathValue("slug", slug)
		w := httptest.NewRecorder()
		call(w, req)
		return w
	}

	w := bySlug(handler.GetStore, m.store.Slug)
	testutil.AssertStatus(t, w, http.StatusOK)
	var s models.Store
	testutil.AssertJSON(t, w, &s)
	if s.ID != m.store.ID {
		t.Errorf("Expected store %s, got %s", m.store.ID, s.ID)
	}

	testutil.AssertStatus(t, bySlug(handler.GetStore, "nowhere"), http.StatusNotFound)
	testutil.AssertStatus(t, bySlug(handler.ListLots, "nowhere"), http.StatusNotFound)

	w = bySlug(handler.ListLots, m.store.Slug)
	testutil.AssertStatus(t, w, http.StatusOK)
	var lots models.LotListResponse
	testutil.AssertJSON(t, w, &lots)
	if len(lots.Lots) != 1 || lots.Lots[0].ID != m.lot.ID {
		t.Errorf("Expected lot %s, got %+v", m.lot.ID, lots.Lots)
	}
}

func TestStoreMethods(t *testing.T) {
	m := newMarket(t)
	handler := NewStoreHandler(m.db, testutil.GetTestConfig())

	t.Run("shipping", func(t *testing.T) {
		negative := decimal.NewNullDecimal(decimal.RequireFromString("-1"))
		cost := decimal.NewNullDecimal(decimal.RequireFromString("4.50"))
		tests := []struct {
			name           string
			userID         string
			req            models.CreateShippingMethodRequest
			expectedStatus int
		}{
			{"missing name", m.seller.ID, models.CreateShippingMethodRequest{TrackingType: models.TrackingTracked}, http.StatusBadRequest},
			{"unknown tracking", m.seller.ID, models.CreateShippingMethodRequest{Name: "Post", TrackingType: "SOMETIMES"}, http.StatusBadRequest},
			{"negative cost", m.seller.ID, models.CreateShippingMethodRequest{Name: "Post", TrackingType: models.TrackingNone, BaseCost: negative}, http.StatusBadRequest},
			{"no store", m.buyer.ID, models.CreateShippingMethodRequest{Name: "Post", TrackingType: models.TrackingNone}, http.StatusNotFound},
			{"valid", m.seller.ID, models.CreateShippingMethodRequest{Name: "Letter", TrackingType: models.TrackingNone, BaseCost: cost, ShipsToCountries: []string{"US", "DK"}}, http.StatusCreated},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := httptest.NewRecorder()
				handler.CreateShippingMethod(w, userRequest("POST", "/stores/me/shipping-methods", tt.req, tt.userID))
				testutil.AssertStatus(t, w, tt.expectedStatus)
			})
		}

		methods, err := store.ListActiveShippingMethods(context.Background(), m.db, m.store.ID)
		if err != nil {
			t.Fatalf("Failed to list shipping methods: %v", err)
		}
		if len(methods) != 2 {
			t.Errorf("Expected 2 shipping methods, got %d", len(methods))
		}
	})

	t.Run("payment", func(t *testing.T) {
		tests := []struct {
			name           string
			req            models.CreatePaymentMethodRequest
			expectedStatus int
		}{
			{"missing type", models.CreatePaymentMethodRequest{Name: "Bank"}, http.StatusBadRequest},
			{"missing name", models.CreatePaymentMethodRequest{MethodType: "bank_transfer"}, http.StatusBadRequest},
			{"valid", models.CreatePaymentMethodRequest{MethodType: "bank_transfer", Name: "Bank"}, http.StatusCreated},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := httptest.NewRecorder()
				handler.CreatePaymentMethod(w, userRequest("POST", "/stores/me/payment-methods", tt.req, m.seller.ID))
				testutil.AssertStatus(t, w, tt.expectedStatus)
				if tt.expectedStatus == http.StatusCreated {
					var pm models.PaymentMethod
					testutil.AssertJSON(t, w, &pm)
					if pm.MethodType != "BANK_TRANSFER" || pm.StoreID != m.store.ID {
						t.Errorf("Expected BANK_TRANSFER for %s, got %s for %s", m.store.ID, pm.MethodType, pm.StoreID)
					}
				}
			})
		}
	})
}
