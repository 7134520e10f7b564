package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fynd",
			Subsystem: "admin_dashboard",
			Name:      "refresh_total",
			Help:      "Dashboard refresh cycles by outcome.",
		},
		[]string{"outcome"},
	)

	refreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "fynd",
			Subsystem: "admin_dashboard",
			Name:      "refresh_duration_seconds",
			Help:      "Time for both dashboard fetches to resolve.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	lastSuccessfulRefresh = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fynd",
			Subsystem: "admin_dashboard",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful dashboard refresh.",
		},
	)

	reviewsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "fynd",
			Subsystem: "admin_dashboard",
			Name:      "reviews_loaded",
			Help:      "Reviews held by the dashboard after the last refresh.",
		},
	)
)
