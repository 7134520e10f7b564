package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

var (
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fynd",
			Subsystem: "storefront",
			Name:      "submissions_total",
			Help:      "Review submissions by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	eventPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fynd",
			Subsystem: "storefront",
			Name:      "event_publish_failures_total",
			Help:      "feedback.submitted events that could not be published.",
		},
	)
)
