// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_reloads_total",
			Help: "Full dashboard reloads by trigger",
		},
		[]string{"trigger", "status"},
	)

	DroppedRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_dropped_records_total",
			Help: "Raw submission rows dropped for lacking a resolvable id",
		},
	)

	EnrichmentLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_enrichment_lookups_total",
			Help: "Secondary enrichment lookups by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	NotificationsDerived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_notifications_derived_total",
			Help: "Notifications synthesized from recent submissions",
		},
	)

	ReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_reviews_total",
			Help: "Review saves by resulting status",
		},
		[]string{"status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
