// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and manages its schema.

# Connections

Open returns a *sqlx.DB for either dialect:

	conn, err := db.Open(ctx, db.Postgres, cfg.DatabaseURL)
	conn, err := db.Open(ctx, db.SQLite, "file:brikick.db?_pragma=foreign_keys(1)")

Queries elsewhere are written with ? placeholders and passed through
conn.Rebind, so the same SQL runs on both.

# Migrations

Migrations are embedded SQL files applied with golang-migrate:

	if err := db.Migrate(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times. The SQL sticks to types both engines accept
(TEXT ids, NUMERIC money, TIMESTAMP, BOOLEAN); JSON documents are stored as
TEXT.

# Tables

  - users, roles, user_roles, audit_logs
  - item_types, categories, colors, catalog_items, price_guides
  - stores, store_shipping_methods, store_payment_methods, price_override_requests
  - lots
  - sla_metrics, user_rating_metrics, badges, user_badges
  - user_penalty_configs, user_issues, user_penalties
  - carts, cart_stores, cart_items, user_addresses
  - orders, order_items, order_status_history, order_approvals, checkout_drafts
  - shipping_fairness_configs, shipping_cost_benchmarks, shipping_fairness_flags

# Relationships

	users 1──1 stores 1──* lots
	users 1──1 carts 1──* cart_stores 1──* cart_items *──1 lots
	users 1──* checkout_drafts ──> orders
	orders 1──* order_items, order_status_history
	orders 1──0..1 order_approvals
	users 1──* user_issues, user_penalties, user_rating_metrics, user_badges
	stores 1──* shipping_fairness_flags, sla_metrics
*/
package db
