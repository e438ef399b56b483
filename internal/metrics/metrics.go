// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order360_backend_requests_total",
		Help: "Requests sent to the order backend, by method, endpoint and outcome.",
	},
		[]string{"method", "endpoint", "status"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order360_backend_request_duration_seconds",
		Help:    "Latency of order backend requests including retries.",
		Buckets: prometheus.DefBuckets,
	},
		[]string{"method", "endpoint"},
	)

	BackendRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order360_backend_retries_total",
		Help: "Retried order backend requests.",
	},
		[]string{"endpoint"},
	)

	QueryCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order360_query_cache_total",
		Help: "Order list cache lookups by result (hit, miss, error).",
	},
		[]string{"result"},
	)

	StaleResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order360_stale_responses_total",
		Help: "Order list responses discarded because a newer query superseded them.",
	})

	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order360_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})

	// Route is the matched route pattern, never the raw path, so order ids
	// do not create series.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order360_http_request_duration_seconds",
		Help:    "Latency of handled HTTP requests by method, route and status class.",
		Buckets: prometheus.DefBuckets,
	},
		[]string{"method", "route", "status"},
	)

	PanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order360_panics_recovered_total",
		Help: "Handler panics caught by the recovery middleware.",
	})
)
