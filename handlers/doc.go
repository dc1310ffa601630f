// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Brikick API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - UserHandler: registration, login, profile and addresses
  - CatalogHandler: catalog items and price guides
  - StoreHandler: stores, shipping and payment methods, public lot lists
  - LotHandler: inventory and price overrides
  - CartHandler: the per-store cart
  - CheckoutHandler: checkout drafts and order placement
  - OrderHandler: order views, shipping, delivery and approvals
  - PenaltyHandler: penalty status, appeals and manual issues
  - FairnessHandler: shipping benchmarks and flags
  - RatingHandler: public reputation

Handlers are created via constructor functions that accept *sqlx.DB and Config:

	cartHandler := handlers.NewCartHandler(db, cfg)

The caller's identity comes from middleware.UserID; routes are guarded in
the router package.

# Checkout Flow

	POST /checkout/prepare              → Prepare (one draft per cart store)
	GET  /checkout/{id}/shipping-methods → ShippingMethods (with fair quotes)
	PUT  /checkout/{id}/shipping        → UpdateShipping
	PUT  /checkout/{id}/payment         → UpdatePayment
	POST /checkout/{id}/submit          → Submit

Submit re-checks stock and restrictions, creates the order, decrements lots
and clears the cart store in one transaction. Orders from risky buyers
start as PENDING_APPROVAL until the seller decides.

# Errors

Refusals raised inside a transaction are returned as *apiError and written
by writeError. Business rule refusals carry a machine readable code, data
and suggested actions next to the human readable message.
*/
package handlers
