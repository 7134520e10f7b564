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

const serviceName = "admin"

// RouterConfig carries the router's collaborators. Profiling routes are only
// mounted when PprofCIDRs is non-empty.
type RouterConfig struct {
	Dashboard  *DashboardHandler
	Health     *health.Handler
	PprofCIDRs []string
	Logger     *slog.Logger
}

// NewRouter creates a chi router with all admin routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	if len(cfg.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofCIDRs, cfg.Logger)
	}

	r.With(middleware.CacheControl(86400)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	r.Group(func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Get("/", cfg.Dashboard.Index)
		r.Post("/refresh", cfg.Dashboard.Refresh)
		r.Post("/auto-refresh", cfg.Dashboard.SetAutoRefresh)
	})

	r.Route("/api/v1/dashboard", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Get("/", cfg.Dashboard.View)
		r.Get("/reviews", cfg.Dashboard.Reviews)
		r.Post("/refresh", cfg.Dashboard.Refresh)
		r.Post("/auto-refresh", cfg.Dashboard.SetAutoRefresh)
	})

	return r
}
