// Command server runs the Fynd storefront, the customer-facing review form.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/piyush182004/Fynd/pkg/logger"
	"github.com/piyush182004/Fynd/services/storefront/internal/app"
	"github.com/piyush182004/Fynd/services/storefront/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		slog.Error("storefront exited", slog.String("error", err.Error()))
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
		return fmt.Errorf("build storefront: %w", err)
	}

	log.Info("storefront starting",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("feedback_api", cfg.FeedbackAPIURL),
		slog.Bool("kafka", cfg.KafkaEnabled),
	)
	defer log.Info("storefront stopped")
	return a.Run(ctx)
}
