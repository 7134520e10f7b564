package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// unmatchedRoute labels requests no route claimed, keeping probes for random
// paths from minting new series.
const unmatchedRoute = "unmatched"

var requestLabels = []string{"service", "method", "route", "code"}

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fynd",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by route and status code.",
	}, requestLabels)

	// Buckets stop just past the feedback API timeout.
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fynd",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time to serve an HTTP request.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 20},
	}, requestLabels)

	requestsInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fynd",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "HTTP requests currently being served.",
	}, []string{"service"})
)

// routePattern returns the chi pattern that matched r, or "" before routing
// or when nothing matched.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}

// PrometheusMetrics counts and times requests for service. Routes are
// labeled by pattern, so /api/v1/dashboard/reviews?page=2 and ?page=3 share
// a series.
func PrometheusMetrics(service string) func(http.Handler) http.Handler {
	served := requestsTotal.MustCurryWith(prometheus.Labels{"service": service})
	timing := requestDuration.MustCurryWith(prometheus.Labels{"service": service})
	inFlight := requestsInFlight.WithLabelValues(service)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			rec := recorderFrom(w)
			next.ServeHTTP(rec, r)

			route := routePattern(r)
			if route == "" {
				route = unmatchedRoute
			}
			labels := prometheus.Labels{"method": r.Method, "route": route, "code": strconv.Itoa(rec.status)}
			served.With(labels).Inc()
			timing.With(labels).Observe(time.Since(start).Seconds())
		})
	}
}
