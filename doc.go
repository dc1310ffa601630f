// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the brikick command, the backend of a marketplace
where independent stores sell LEGO parts, sets and minifigures.

# Commands

	brikick serve   [flags]         HTTP API plus the job scheduler
	brikick migrate [flags]         apply migrations and exit
	brikick jobs run <name> [flags] run one background job once

Every command opens the database and applies pending migrations first.

# Configuration

Flags, BRK_* environment variables (a .env file is loaded if present) and
an optional YAML file, in that order of precedence:

  - BRK_DATABASE_URL (-d): connection string (required)
  - BRK_DATABASE_TYPE (-t): postgres (default) or sqlite
  - BRK_JWT_SECRET_KEY (--jwt-secret): token signing secret (required)
  - BRK_PORT (-p): server port (default: 3318)
  - BRK_REDIS_URL (--redis): shares job locks between replicas
  - BRK_CONFIG (--config): YAML file, which may also override job schedules

# Architecture

  - handlers: HTTP request handlers (accounts, catalog, stores, cart, checkout, orders, penalties)
  - rules: marketplace business rules (price caps, penalties, approvals, shipping fairness, reputation)
  - store: sqlx data access
  - jobs: scheduled maintenance jobs
  - router: route table
  - middleware: auth, rate limiting, logging, JSON helpers
  - db: connection and migrations
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
