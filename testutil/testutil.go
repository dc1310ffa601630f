// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/danielhkuo/brikick/auth"
	"github.com/danielhkuo/brikick/cliparse"
	"github.com/danielhkuo/brikick/db"
	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
)

// TestDBURL is a private in-memory SQLite database; every SetupTestDB call
// gets a fresh one.
const TestDBURL = "file::memory:?_pragma=foreign_keys(1)&_time_format=sqlite"

// TestPassword is the password of every user created by CreateTestUser
const TestPassword = "correct-horse-battery"

// TestColorID is the color created alongside every test catalog item
const TestColorID int64 = 11

// SetupTestDB creates a fresh test database with the full schema
func SetupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), db.SQLite, TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.Migrate(conn, db.SQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           3318,
		DatabaseURL:    TestDBURL,
		DatabaseType:   db.SQLite,
		JWTSecret:      "test-jwt-secret",
		AccessTokenTTL: time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		APIPrefix:      "/api/v1",
		AuditSalt:      "test-audit-salt",
	}
}

// Now is a fixed UTC instant for tests that need deterministic clocks.
func Now() time.Time {
	return time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)
}

// CreateTestUser registers a user with TestPassword and the user role
func CreateTestUser(t *testing.T, conn *sqlx.DB, username string) models.User {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	country := "US"
	now := time.Now().UTC()
	u := models.User{
		ID:           auth.NewID(),
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: hash,
		CountryCode:  &country,
		Status:       models.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx := context.Background()
	if err := store.CreateUser(ctx, conn, &u); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	if err := store.GrantRole(ctx, conn, u.ID, models.RoleUser, nil, now); err != nil {
		t.Fatalf("Failed to grant user role: %v", err)
	}

	return u
}

// GrantTestRole gives an existing user an extra role
func GrantTestRole(t *testing.T, conn *sqlx.DB, userID, role string) {
	t.Helper()

	if err := store.GrantRole(context.Background(), conn, userID, role, nil, time.Now().UTC()); err != nil {
		t.Fatalf("Failed to grant role %s: %v", role, err)
	}
}

// CreateTestStore opens an active US store owned by ownerID
func CreateTestStore(t *testing.T, conn *sqlx.DB, ownerID, name string) models.Store {
	t.Helper()

	currency := int64(1)
	slug, err := auth.GenerateSlug(name)
	if err != nil {
		t.Fatalf("Failed to generate slug: %v", err)
	}
	s := models.Store{
		ID:                     auth.NewID(),
		UserID:                 ownerID,
		Name:                   name,
		Slug:                   slug,
		CountryCode:            "US",
		CurrencyID:             &currency,
		Status:                 models.StoreActive,
		InstantCheckoutEnabled: true,
		RiskThresholdScore:     decimal.NewFromInt(50),
		CreatedAt:              time.Now().UTC(),
	}
	if err := store.CreateStore(context.Background(), conn, &s); err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	GrantTestRole(t, conn, ownerID, models.RoleSeller)

	return s
}

// CreateTestCatalogItem adds a part weighing 2.5g in color TestColorID
func CreateTestCatalogItem(t *testing.T, conn *sqlx.DB, itemNo string) models.CatalogItem {
	t.Helper()

	ctx := context.Background()
	exists, err := store.ColorExists(ctx, conn, TestColorID)
	if err != nil {
		t.Fatalf("Failed to check color: %v", err)
	}
	if !exists {
		if err := store.CreateColor(ctx, conn, &models.Color{ID: TestColorID, Name: "Black"}); err != nil {
			t.Fatalf("Failed to create test color: %v", err)
		}
	}

	item := models.CatalogItem{
		ID:          auth.NewID(),
		ItemNo:      itemNo,
		ItemType:    "P",
		ItemSeq:     1,
		Name:        "Brick 2 x 4 " + itemNo,
		WeightGrams: decimal.NewNullDecimal(decimal.RequireFromString("2.5")),
		Status:      "ACTIVE",
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.CreateCatalogItem(ctx, conn, &item); err != nil {
		t.Fatalf("Failed to create test catalog item: %v", err)
	}

	return item
}

// CreateTestLot lists quantity pieces of item at price in new condition
func CreateTestLot(t *testing.T, conn *sqlx.DB, storeID, itemID string, quantity int, price string) models.Lot {
	t.Helper()

	color := TestColorID
	now := time.Now().UTC()
	lot := models.Lot{
		ID:            auth.NewID(),
		StoreID:       storeID,
		CatalogItemID: itemID,
		ColorID:       &color,
		Condition:     models.ConditionNew,
		Quantity:      quantity,
		BulkQuantity:  1,
		UnitPrice:     decimal.RequireFromString(price),
		Status:        models.LotAvailable,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.CreateLot(context.Background(), conn, &lot); err != nil {
		t.Fatalf("Failed to create test lot: %v", err)
	}

	return lot
}

// CreateTestAddress saves a complete US shipping address for userID
func CreateTestAddress(t *testing.T, conn *sqlx.DB, userID string) models.Address {
	t.Helper()

	a := models.Address{
		ID:           auth.NewID(),
		UserID:       userID,
		FirstName:    "Ada",
		LastName:     "Brickwell",
		AddressLine1: "1 Baseplate Way",
		City:         "Billund",
		PostalCode:   "12345",
		CountryCode:  "US",
		Phone:        "555-0100",
		IsDefault:    true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := store.CreateAddress(context.Background(), conn, &a); err != nil {
		t.Fatalf("Failed to create test address: %v", err)
	}

	return a
}

// CreateTestShippingMethod adds an active shipping method with a flat cost
func CreateTestShippingMethod(t *testing.T, conn *sqlx.DB, storeID, cost, trackingType string) models.ShippingMethod {
	t.Helper()

	active := true
	costType := "FIXED"
	m := models.ShippingMethod{
		ID:               auth.NewID(),
		StoreID:          storeID,
		Name:             "Standard " + trackingType,
		ShipsToCountries: models.NewJSON([]string{"US"}),
		CostType:         &costType,
		BaseCost:         decimal.NewNullDecimal(decimal.RequireFromString(cost)),
		TrackingType:     trackingType,
		IsActive:         &active,
	}
	if err := store.CreateShippingMethod(context.Background(), conn, &m); err != nil {
		t.Fatalf("Failed to create test shipping method: %v", err)
	}

	return m
}

// CreateTestPaymentMethod adds an active PayPal payment method
func CreateTestPaymentMethod(t *testing.T, conn *sqlx.DB, storeID string) models.PaymentMethod {
	t.Helper()

	active := true
	m := models.PaymentMethod{
		ID:         auth.NewID(),
		StoreID:    storeID,
		MethodType: "PAYPAL",
		Name:       "PayPal",
		IsActive:   &active,
	}
	if err := store.CreatePaymentMethod(context.Background(), conn, &m); err != nil {
		t.Fatalf("Failed to create test payment method: %v", err)
	}

	return m
}

// CreateTestOrder records an order for quantity pieces of lot placed at
// createdAt. The lot's stock is not touched.
func CreateTestOrder(t *testing.T, conn *sqlx.DB, buyerID string, lot models.Lot, quantity int, status string, createdAt time.Time) models.Order {
	t.Helper()

	total := lot.UnitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	tracking := models.TrackingTracked
	o := models.Order{
		ID:           auth.NewID(),
		OrderNumber:  auth.NewOrderNumber(createdAt),
		BuyerID:      buyerID,
		StoreID:      lot.StoreID,
		Status:       status,
		ItemsTotal:   total,
		ShippingCost: decimal.Zero,
		GrandTotal:   total,
		TrackingType: &tracking,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	ctx := context.Background()
	if err := store.CreateOrder(ctx, conn, &o); err != nil {
		t.Fatalf("Failed to create test order: %v", err)
	}
	item := models.OrderItem{
		ID:      auth.NewID(),
		OrderID: o.ID,
		LotID:   lot.ID,
		ItemSnapshot: models.NewJSON(models.ItemSnapshot{
			CatalogItemID: lot.CatalogItemID,
			ColorID:       lot.ColorID,
			Condition:     lot.Condition,
		}),
		Quantity:  quantity,
		UnitPrice: lot.UnitPrice,
		LineTotal: total,
	}
	if err := store.CreateOrderItem(ctx, conn, &item); err != nil {
		t.Fatalf("Failed to create test order item: %v", err)
	}

	return o
}

// AuthHeaders returns request headers carrying a valid token for userID
func AuthHeaders(t *testing.T, cfg cliparse.Config, userID string) map[string]string {
	t.Helper()

	token, err := auth.IssueToken(userID, cfg.JWTSecret, cfg.AccessTokenTTL, time.Now())
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
