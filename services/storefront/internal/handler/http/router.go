package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/piyush182004/Fynd/pkg/health"
	"github.com/piyush182004/Fynd/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig carries the router's collaborators.
type RouterConfig struct {
	Feedback    *FeedbackHandler
	Health      *health.Handler
	RateLimiter *middleware.RateLimiter
	CORS        middleware.CORSConfig
	Logger      *slog.Logger
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.With(middleware.CacheControl(86400)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	submitLimit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimiter != nil {
		submitLimit = cfg.RateLimiter.Middleware
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Get("/", cfg.Feedback.Index)
		r.With(submitLimit).Post("/submit", cfg.Feedback.SubmitForm)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORS))
		r.Use(middleware.NoStore)
		r.With(submitLimit).Post("/feedback", cfg.Feedback.SubmitJSON)
		r.Options("/feedback", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}
