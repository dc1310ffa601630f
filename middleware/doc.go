// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start at debug level and completion (status, duration_ms).

# Metrics

Instrument wraps the whole mux and records request counts and latency
labelled by the matched route pattern:

	handler := middleware.Instrument(mux)

# Authentication

Auth validates bearer tokens and loads the user:

	a := middleware.NewAuth(db, cfg.JWTSecret)
	mux.HandleFunc("GET /cart", a.RequireUser(cartHandler.GetCart))
	mux.HandleFunc("POST /admin/issues", a.RequireRole(models.RoleStaffSupport)(h.CreateIssue))

Handlers read the caller with UserID(r.Context()). Admins satisfy every
role check. Users whose penalty disables API access get 403.

# Rate Limiting

RateLimiter keeps a token bucket per client IP and answers 429 with a
Retry-After header once a client is over budget:

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	handler := limiter.Limit(mux)

# CORS Middleware

Enable cross-origin requests for the storefront:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Business rule failures carry a code, figures and suggested actions:

	middleware.BusinessError(w, http.StatusUnprocessableEntity,
		"SHIPPING_REQUIRED", "Select a shipping method.", nil,
		[]string{"SELECT_SHIPPING_METHOD"})

Parse JSON request bodies:

	var req models.CartAddRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used for rate limiting and the salted IP hash kept in audit logs.
*/
package middleware
