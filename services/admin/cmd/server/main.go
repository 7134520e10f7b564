// Command server runs the Fynd admin dashboard.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/piyush182004/Fynd/pkg/logger"
	"github.com/piyush182004/Fynd/services/admin/internal/app"
	"github.com/piyush182004/Fynd/services/admin/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		slog.Error("admin dashboard exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Tracing.ServiceName, cfg.LogLevel)
	a, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("build admin dashboard: %w", err)
	}

	log.Info("admin dashboard starting",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("feedback_api", cfg.FeedbackAPIURL),
		slog.Duration("refresh_interval", cfg.RefreshInterval),
		slog.Bool("auto_refresh", cfg.AutoRefresh),
		slog.Bool("kafka", cfg.KafkaEnabled),
	)
	defer log.Info("admin dashboard stopped")
	return a.Run(ctx)
}
