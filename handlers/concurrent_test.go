// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/brikick/models"
	"github.com/danielhkuo/brikick/store"
	"github.com/danielhkuo/brikick/testutil"
)

// TestConcurrentCheckoutSubmissions verifies that buyers racing for the same
// lot never take more pieces than it holds
func TestConcurrentCheckoutSubmissions(t *testing.T) {
	m := newMarket(t)
	handler := NewCheckoutHandler(m.db, testutil.GetTestConfig())

	// Four buyers each want 5 of the 10 pieces.
	numBuyers := 4
	buyers := make([]*market, numBuyers)
	drafts := make([]string, numBuyers)
	for i := range buyers {
		b := *m
		b.buyer = testutil.CreateTestUser(t, m.db, fmt.Sprintf("racer-%d", i))
		b.address = testutil.CreateTestAddress(t, m.db, b.buyer.ID)
		b.addToCart(t, 5)
		drafts[i] = b.prepare(t).Draft.ID
		b.choose(t, drafts[i])
		buyers[i] = &b
	}

	var placed, conflicts atomic.Int32
	var wg sync.WaitGroup

	for i, b := range buyers {
		wg.Add(1)
		go func(b *market, draftID string) {
			defer wg.Done()

			w := httptest.NewRecorder()
			handler.Submit(w, draftRequest("POST", draftID, nil, b.buyer.ID))

			switch w.Code {
			case http.StatusOK:
				placed.Add(1)
			case http.StatusConflict:
				conflicts.Add(1)
			default:
				t.Errorf("Unexpected status %d: %s", w.Code, w.Body.String())
			}
		}(b, drafts[i])
	}

	wg.Wait()

	if placed.Load() != 2 || conflicts.Load() != 2 {
		t.Errorf("Expected 2 orders and 2 conflicts, got %d and %d", placed.Load(), conflicts.Load())
	}

	lot, err := store.GetLot(context.Background(), m.db, m.lot.ID)
	if err != nil {
		t.Fatalf("Failed to load lot: %v", err)
	}
	if lot.Quantity != 0 || lot.Status != models.LotSoldOut {
		t.Errorf("Expected a sold out lot, got %d %s", lot.Quantity, lot.Status)
	}

	var sold int
	if err := m.db.Get(&sold, `SELECT COALESCE(SUM(quantity), 0) FROM order_items WHERE lot_id = ?`, m.lot.ID); err != nil {
		t.Fatalf("Failed to count sold pieces: %v", err)
	}
	if sold != 10 {
		t.Errorf("Expected 10 pieces sold, got %d", sold)
	}
}
