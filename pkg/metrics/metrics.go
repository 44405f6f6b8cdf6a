package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts calls to the platform API by endpoint and result (ok|rejected|transport).
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fenceadmin_upstream_requests_total",
			Help: "Total number of platform API requests",
		},
		[]string{"method", "endpoint", "result"},
	)

	// UpstreamLatency measures platform API round trips.
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fenceadmin_upstream_latency_seconds",
			Help:    "Platform API latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ViewFetches records list loads by view and outcome (applied|superseded|failed).
	ViewFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fenceadmin_view_fetches_total",
			Help: "Total number of list view loads",
		},
		[]string{"view", "outcome"},
	)

	// ViewActions records dispatched row actions by view, kind and outcome.
	ViewActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fenceadmin_view_actions_total",
			Help: "Total number of dispatched view actions",
		},
		[]string{"view", "kind", "outcome"},
	)

	// ActionsInFlight tracks row actions awaiting a platform answer.
	ActionsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fenceadmin_actions_in_flight",
			Help: "Number of row actions currently in flight",
		},
		[]string{"view"},
	)

	// APIRequests counts console API requests by route and outcome
	// (ok|confirmation_required|denied|client_error|server_error).
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fenceadmin_api_requests_total",
			Help: "Total number of console API requests",
		},
		[]string{"route", "outcome"},
	)

	// APILatency measures console HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fenceadmin_api_latency_seconds",
			Help:    "Console API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
