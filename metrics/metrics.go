// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "brikick_http_requests_total",
		Help: "HTTP requests by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "brikick_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	PenaltiesApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "brikick_penalties_applied_total",
		Help: "Penalties applied to users by penalty type.",
	}, []string{"type"})

	ShippingFlags = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "brikick_shipping_flags_total",
		Help: "Shipping fairness flags raised by flag type.",
	}, []string{"type"})

	PriceCapRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "brikick_price_cap_rejections_total",
		Help: "Lot prices refused for exceeding the price cap.",
	})

	JobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "brikick_job_runs_total",
		Help: "Scheduled job runs by job name and result.",
	}, []string{"job", "result"})
)

// Job run results
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultSkipped = "skipped"
)

// NewRegistry returns a registry holding the runtime collectors and every
// brikick metric.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests,
		HTTPDuration,
		PenaltiesApplied,
		ShippingFlags,
		PriceCapRejections,
		JobRuns,
	)
	return reg
}

// Handler serves the registry in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
