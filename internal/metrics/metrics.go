// Package metrics holds the prometheus instruments exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheRequests counts cache lookups by kind (fixes, result) and outcome (hit, miss, expired, error)
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_cache_requests_total",
			Help: "Cache lookups by payload kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// CacheWrites counts cache writes by kind
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_cache_writes_total",
			Help: "Cache writes by payload kind",
		},
		[]string{"kind"},
	)

	// RecorderRequestDuration tracks recorder API latency by endpoint
	RecorderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "activity_recorder_request_duration_seconds",
			Help:    "Latency of location recorder API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// RecorderErrors counts failed recorder calls by endpoint
	RecorderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_recorder_errors_total",
			Help: "Failed location recorder API calls",
		},
		[]string{"endpoint"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "activity_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	// FixesSkipped counts malformed fixes dropped on ingestion
	FixesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_fixes_skipped_total",
			Help: "Malformed location records skipped",
		},
	)

	// SessionsDetected counts emitted sessions by activity type and confidence
	SessionsDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_sessions_detected_total",
			Help: "Activity sessions emitted by the analyzers",
		},
		[]string{"activity_type", "confidence"},
	)

	// HTTPRequests counts API requests by route and status
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_http_requests_total",
			Help: "HTTP API requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks API latency by route
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "activity_http_request_duration_seconds",
			Help:    "HTTP API latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
