package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/piyush182004/Fynd/pkg/feedbackapi"
	"github.com/piyush182004/Fynd/pkg/health"
	"github.com/piyush182004/Fynd/pkg/httpclient"
	pkgkafka "github.com/piyush182004/Fynd/pkg/kafka"
	"github.com/piyush182004/Fynd/pkg/middleware"
	"github.com/piyush182004/Fynd/pkg/tracing"
	"github.com/piyush182004/Fynd/services/storefront/internal/config"
	"github.com/piyush182004/Fynd/services/storefront/internal/event"
	handler "github.com/piyush182004/Fynd/services/storefront/internal/handler/http"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	stopBackground context.CancelFunc
	shutdownTracer func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Feedback API client behind a circuit breaker.
	apiCfg := feedbackapi.DefaultConfig(cfg.FeedbackAPIURL)
	apiCfg.HTTP.Timeout = cfg.APITimeout()
	apiCfg.Breaker = httpclient.BreakerConfig{
		Name:         "feedback-api",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     time.Duration(cfg.CBInterval) * time.Second,
		Timeout:      time.Duration(cfg.CBTimeout) * time.Second,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	api := feedbackapi.New(apiCfg, logger)
	logger.Info("feedback API client initialized", slog.String("base_url", api.BaseURL()))

	healthHandler := health.NewServiceHandler("storefront")
	healthHandler.RegisterCritical("feedback-api", func(ctx context.Context) error {
		_, err := api.Health(ctx)
		return err
	})

	// Kafka is optional; without it events are dropped.
	var publisher event.Publisher = event.NopPublisher{}
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(producer, logger)
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	limiter := middleware.NewRateLimiter(bgCtx, middleware.RateLimitConfig{
		RPS:   cfg.SubmitRateLimitRPS,
		Burst: cfg.SubmitRateLimitBurst,
	}, logger)

	feedbackHandler, err := handler.NewFeedbackHandler(api, publisher, logger)
	if err != nil {
		stopBackground()
		return nil, fmt.Errorf("create feedback handler: %w", err)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(handler.RouterConfig{
		Feedback:    feedbackHandler,
		Health:      healthHandler,
		RateLimiter: limiter,
		CORS:        corsCfg,
		Logger:      logger,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		producer:       producer,
		httpServer:     httpServer,
		stopBackground: stopBackground,
		shutdownTracer: shutdownTracer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.stopBackground()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	a.stopBackground()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
