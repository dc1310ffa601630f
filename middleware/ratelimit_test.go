// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Now()

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("10.0.0.1", now); !ok {
			t.Fatalf("Request %d should fit in the burst", i+1)
		}
	}

	ok, retry := rl.Allow("10.0.0.1", now)
	if ok {
		t.Fatal("Third request should be limited")
	}
	if retry <= 0 || retry > time.Second {
		t.Errorf("Expected retry within a second, got %s", retry)
	}

	if ok, _ := rl.Allow("10.0.0.2", now); !ok {
		t.Error("Other clients have their own budget")
	}

	if ok, _ := rl.Allow("10.0.0.1", now.Add(time.Second)); !ok {
		t.Error("Budget should refill after a second")
	}
}

func TestRateLimiter_Limit(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest("GET", "/", nil))
	if first.Code != http.StatusNoContent {
		t.Errorf("Expected first request to pass, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest("GET", "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}
