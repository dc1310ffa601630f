// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Brikick API.

# Route Registration

NewRouter creates a configured handler with all endpoints:

	mux := router.NewRouter(db, cfg, metrics.NewRegistry())

API routes live under cfg.APIPrefix (default /api/v1). The whole mux is
wrapped in CORS, request metrics and a per-client rate limiter.

# Endpoints

Unprefixed:

	GET /health
	GET /metrics

Public:

	POST /auth/register, /auth/login
	GET  /catalog/items, /catalog/items/{id}, /catalog/price-guide
	GET  /stores/{slug}, /stores/{slug}/lots
	GET  /users/{id}/rating

Signed in (Bearer token):

	/me, /addresses, /stores, /stores/me/..., /lots, /price-overrides
	/cart/..., /checkout/..., /orders/..., /me/penalty, /penalties/{id}/appeal

Staff, by role (admin passes every check):

	staff_catalog  POST /catalog/items, /admin/price-overrides/{id}/review
	staff_support  /admin/penalties/{id}/appeal-decision, /admin/users/{id}/issues
	staff_finance  /admin/shipping-benchmarks, /admin/shipping-flags/...
*/
package router
