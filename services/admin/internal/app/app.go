package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/piyush182004/Fynd/pkg/dashboard"
	"github.com/piyush182004/Fynd/pkg/feedbackapi"
	"github.com/piyush182004/Fynd/pkg/health"
	"github.com/piyush182004/Fynd/pkg/httpclient"
	pkgkafka "github.com/piyush182004/Fynd/pkg/kafka"
	"github.com/piyush182004/Fynd/pkg/poller"
	"github.com/piyush182004/Fynd/pkg/tracing"
	"github.com/piyush182004/Fynd/services/admin/internal/config"
	"github.com/piyush182004/Fynd/services/admin/internal/event"
	handler "github.com/piyush182004/Fynd/services/admin/internal/handler/http"
)

// App wires together all dependencies and runs the admin dashboard service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	poller         *poller.Poller
	consumer       *pkgkafka.Consumer
	httpServer     *http.Server
	background     sync.WaitGroup
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

	vm := dashboard.New(api, logger)
	vm.SetAutoRefresh(cfg.AutoRefresh)
	p := poller.New(vm, cfg.RefreshInterval, cfg.AutoRefresh, logger)

	healthHandler := health.NewServiceHandler("admin")
	healthHandler.RegisterCritical("feedback-api", func(ctx context.Context) error {
		_, err := api.Health(ctx)
		return err
	})

	// New submissions refresh the dashboard straight away when Kafka is on.
	var consumer *pkgkafka.Consumer
	if cfg.KafkaEnabled {
		consumer = event.NewConsumer(event.ConsumerConfig{
			Brokers:    cfg.KafkaBrokers,
			GroupID:    cfg.KafkaGroupID,
			DedupeSize: cfg.KafkaDedupeSize,
			DedupeTTL:  cfg.KafkaDedupeTTL,
		}, p.Trigger, logger)
		logger.Info("kafka consumer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("group", cfg.KafkaGroupID),
		)
	}

	dashboardHandler, err := handler.NewDashboardHandler(vm, p, cfg.RefreshInterval, logger)
	if err != nil {
		return nil, fmt.Errorf("create dashboard handler: %w", err)
	}

	var pprofCIDRs []string
	if cfg.PprofEnabled {
		pprofCIDRs = cfg.PprofAllowedCIDRs
	}

	router := handler.NewRouter(handler.RouterConfig{
		Dashboard:  dashboardHandler,
		Health:     healthHandler,
		PprofCIDRs: pprofCIDRs,
		Logger:     logger,
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
		poller:         p,
		consumer:       consumer,
		httpServer:     httpServer,
		stopBackground: func() {},
		shutdownTracer: shutdownTracer,
	}, nil
}

// Run starts the poller, the optional consumer and the HTTP server, and
// blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	bgCtx, stop := context.WithCancel(context.Background())
	a.stopBackground = stop

	a.background.Add(1)
	go func() {
		defer a.background.Done()
		a.poller.Run(bgCtx)
	}()

	if a.consumer != nil {
		a.background.Add(1)
		go func() {
			defer a.background.Done()
			if err := a.consumer.Start(bgCtx); err != nil {
				a.logger.Error("kafka consumer stopped", slog.String("error", err.Error()))
			}
		}()
	}

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
		a.background.Wait()
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
	a.background.Wait()

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
