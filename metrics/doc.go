// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the Prometheus collectors shared by the HTTP layer,
// the business rules and the job scheduler. Collectors are package
// variables; NewRegistry binds them to a registry served at /metrics.
package metrics
