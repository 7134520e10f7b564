package feedbackapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "fynd",
		Subsystem: "feedback_api",
		Name:      "request_duration_seconds",
		Help:      "Duration of calls to the feedback API.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
	},
	[]string{"operation", "outcome"},
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
