// Package metrics defines the Prometheus collectors for the prior-art
// service. Everything is registered on the default registry via promauto and
// exposed by the server's /metrics handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChecksTotal counts finished check sessions by outcome bucket.
	ChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "priorart_checks_total",
		Help: "Finished check sessions by outcome.",
	}, []string{"outcome"})

	// OracleTurns observes how many oracle turns a session used.
	OracleTurns = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "priorart_oracle_turns",
		Help:    "Oracle turns per check session.",
		Buckets: prometheus.LinearBuckets(1, 1, 15),
	})

	// CapabilityExecutions counts attempted capability invocations by status.
	CapabilityExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "priorart_capability_executions_total",
		Help: "Attempted capability executions by status.",
	}, []string{"capability", "status"})

	// CapabilityRejections counts invocation requests refused without running.
	CapabilityRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "priorart_capability_rejections_total",
		Help: "Capability invocation requests rejected before execution.",
	}, []string{"capability", "reason"})

	// CapabilityDuration observes capability execution time.
	CapabilityDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "priorart_capability_duration_seconds",
		Help:    "Capability execution duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"capability"})

	// SearchDuration observes upstream search provider latency.
	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "priorart_search_duration_seconds",
		Help:    "Search provider request duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	// SearchResults observes how many results a provider returned.
	SearchResults = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "priorart_search_results",
		Help:    "Results returned per search provider call.",
		Buckets: prometheus.LinearBuckets(0, 1, 11),
	}, []string{"source"})

	// HTTPRequests counts API requests by route and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "priorart_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "status"})

	// HTTPDuration observes API request latency by route.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "priorart_http_request_duration_seconds",
		Help:    "HTTP request duration by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
