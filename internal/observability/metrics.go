package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TripMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rideshare", Name: "trip_mutations_total", Help: "Trip reconciliation operations by operation and outcome"},
		[]string{"op", "outcome"},
	)
	TripMutationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{Namespace: "rideshare", Name: "trip_mutation_duration_seconds", Help: "Reconciliation transaction latency", Buckets: prometheus.DefBuckets},
	)
	FeedSnapshotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "rideshare", Name: "feed_snapshots_total", Help: "Feed snapshots computed"},
	)
	NotificationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "rideshare", Name: "notifications_created_total", Help: "Notification documents written"},
	)
	WSSessions = promauto.NewGauge(
		prometheus.GaugeOpts{Namespace: "rideshare", Name: "ws_sessions", Help: "Connected websocket sessions"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "rideshare", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rideshare",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
