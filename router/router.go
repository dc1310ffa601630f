// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/danielhkuo/brikick/cliparse"
	"github.com/danielhkuo/brikick/handlers"
	"github.com/danielhkuo/brikick/metrics"
	"github.com/danielhkuo/brikick/middleware"
	"github.com/danielhkuo/brikick/models"
)

func NewRouter(db *sqlx.DB, cfg cliparse.Config, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	a := middleware.NewAuth(db, cfg.JWTSecret)

	// handle registers "METHOD /path" under the API prefix
	handle := func(pattern string, h http.HandlerFunc) {
		method, path, _ := strings.Cut(pattern, " ")
		mux.HandleFunc(method+" "+cfg.APIPrefix+path, middleware.WithLogging(h))
	}
	user := a.RequireUser
	staffCatalog := a.RequireRole(models.RoleStaffCatalog)
	staffSupport := a.RequireRole(models.RoleStaffSupport)
	staffFinance := a.RequireRole(models.RoleStaffFinance)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db, cfg)
	storeHandler := handlers.NewStoreHandler(db, cfg)
	lotHandler := handlers.NewLotHandler(db, cfg)
	cartHandler := handlers.NewCartHandler(db, cfg)
	checkoutHandler := handlers.NewCheckoutHandler(db, cfg)
	orderHandler := handlers.NewOrderHandler(db, cfg)
	penaltyHandler := handlers.NewPenaltyHandler(db, cfg)
	fairnessHandler := handlers.NewFairnessHandler(db, cfg)
	ratingHandler := handlers.NewRatingHandler(db, cfg)

	// Health check and metrics
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		middleware.JSONResponse(w, http.StatusOK, models.HealthResponse{Status: "ok"})
	})
	mux.Handle("GET /metrics", metrics.Handler(reg))

	// Accounts
	handle("POST /auth/register", userHandler.Register)
	handle("POST /auth/login", userHandler.Login)
	handle("GET /me", user(userHandler.Me))
	handle("POST /addresses", user(userHandler.CreateAddress))
	handle("GET /addresses", user(userHandler.ListAddresses))

	// Catalog
	handle("GET /catalog/items", catalogHandler.ListItems)
	handle("GET /catalog/items/{id}", catalogHandler.GetItem)
	handle("POST /catalog/items", staffCatalog(catalogHandler.CreateItem))
	handle("GET /catalog/price-guide", catalogHandler.PriceGuide)

	// Stores and inventory
	handle("POST /stores", user(storeHandler.CreateStore))
	handle("GET /stores/{slug}", storeHandler.GetStore)
	handle("GET /stores/{slug}/lots", storeHandler.ListLots)
	handle("POST /stores/me/shipping-methods", user(storeHandler.CreateShippingMethod))
	handle("POST /stores/me/payment-methods", user(storeHandler.CreatePaymentMethod))
	handle("GET /stores/me/orders", user(orderHandler.StoreOrders))
	handle("POST /lots", user(lotHandler.CreateLot))
	handle("PUT /lots/{id}/price", user(lotHandler.UpdatePrice))
	handle("POST /price-overrides", user(lotHandler.RequestOverride))
	handle("POST /admin/price-overrides/{id}/review", staffCatalog(lotHandler.ReviewOverride))

	// Cart
	handle("GET /cart", user(cartHandler.GetCart))
	handle("GET /cart/count", user(cartHandler.Count))
	handle("POST /cart/add", user(cartHandler.Add))
	handle("PUT /cart/items/{id}", user(cartHandler.UpdateItem))
	handle("DELETE /cart/items/{id}", user(cartHandler.DeleteItem))
	handle("DELETE /cart/stores/{store_id}", user(cartHandler.DeleteStore))

	// Checkout
	handle("POST /checkout/prepare", user(checkoutHandler.Prepare))
	handle("GET /checkout/{id}/shipping-methods", user(checkoutHandler.ShippingMethods))
	handle("PUT /checkout/{id}/shipping", user(checkoutHandler.UpdateShipping))
	handle("PUT /checkout/{id}/payment", user(checkoutHandler.UpdatePayment))
	handle("POST /checkout/{id}/submit", user(checkoutHandler.Submit))

	// Orders
	handle("GET /orders", user(orderHandler.ListOrders))
	handle("GET /orders/{id}", user(orderHandler.GetOrder))
	handle("POST /orders/{id}/ship", user(orderHandler.Ship))
	handle("POST /orders/{id}/shipping-proof", user(orderHandler.ShippingProof))
	handle("POST /orders/{id}/delivered", user(orderHandler.Delivered))
	handle("POST /orders/{id}/approval", user(orderHandler.Approval))

	// Penalties
	handle("GET /me/penalty", user(penaltyHandler.MyPenalty))
	handle("POST /penalties/{id}/appeal", user(penaltyHandler.Appeal))
	handle("POST /admin/penalties/{id}/appeal-decision", staffSupport(penaltyHandler.DecideAppeal))
	handle("POST /admin/users/{id}/issues", staffSupport(penaltyHandler.RecordIssue))

	// Shipping fairness
	handle("POST /admin/shipping-benchmarks", staffFinance(fairnessHandler.CreateBenchmark))
	handle("GET /admin/shipping-flags", staffFinance(fairnessHandler.ListFlags))
	handle("POST /admin/shipping-flags/{id}/review", staffFinance(fairnessHandler.ReviewFlag))

	// Reputation
	handle("GET /users/{id}/rating", ratingHandler.GetRating)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	return middleware.CORS(middleware.Instrument(limiter.Limit(mux)))
}
