package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var actionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fynd",
		Subsystem: "admin_dashboard",
		Name:      "actions_total",
		Help:      "Operator actions on the dashboard by action and outcome.",
	},
	[]string{"action", "outcome"},
)
