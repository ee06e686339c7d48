// Package metrics holds the Prometheus instruments for the wallet engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts balance operations by kind and outcome.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_operations_total",
		Help: "Total wallet operations processed, labeled by operation and outcome",
	}, []string{"operation", "outcome"})

	// OperationDuration tracks end-to-end latency of balance operations.
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wallet_operation_duration_seconds",
		Help:    "Latency distribution of wallet operations",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"operation"})

	// IdempotentReplaysTotal counts requests answered from a memoized
	// result instead of re-running the operation.
	IdempotentReplaysTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_idempotent_replays_total",
		Help: "Requests served from the idempotency result cache or durable record",
	}, []string{"source"})

	// LockTimeoutsTotal counts idempotency lock waits that hit the bound.
	LockTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_idempotency_lock_timeouts_total",
		Help: "Idempotency lock acquisitions abandoned after the wait bound",
	})

	// FeesCollectedTotal accumulates transfer fees in minor units.
	FeesCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_fees_collected_cents_total",
		Help: "Sum of transfer fees charged, in minor units",
	})

	// HTTPRequestsTotal counts HTTP requests by route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	// HTTPRequestDuration tracks HTTP handler latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wallet_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)
