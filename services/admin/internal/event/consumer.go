// Package event consumes storefront events that should refresh the dashboard.
package event

import (
	"context"
	"log/slog"
	"time"

	pkgkafka "github.com/piyush182004/Fynd/pkg/kafka"
)

// TopicFeedbackSubmitted is published by the storefront for every accepted
// review.
var TopicFeedbackSubmitted = pkgkafka.Topic("feedback", "submitted")

// Trigger requests a dashboard refresh. (*poller.Poller).Trigger satisfies it.
type Trigger func()

// feedbackSubmitted is the part of the storefront payload the dashboard reads.
type feedbackSubmitted struct {
	ReviewID int `json:"review_id"`
	Rating   int `json:"rating"`
}

// ConsumerConfig configures the refresh consumer.
type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	DedupeSize int
	DedupeTTL  time.Duration
}

// NewRefreshHandler returns a handler that triggers a refresh for each new
// feedback.submitted event. Redelivered events are dropped by seen.
func NewRefreshHandler(trigger Trigger, seen *pkgkafka.SeenSet, group string, logger *slog.Logger) pkgkafka.Handler {
	inner := func(ctx context.Context, e *pkgkafka.Event) error {
		var data feedbackSubmitted
		if err := e.Decode(&data); err != nil {
			return err
		}
		logger.InfoContext(ctx, "new feedback submitted, refreshing dashboard",
			slog.Int("review_id", data.ReviewID),
			slog.Int("rating", data.Rating),
			slog.String("correlation_id", e.CorrelationID),
		)
		trigger()
		return nil
	}
	return pkgkafka.Dedupe(seen, TopicFeedbackSubmitted, group, inner, logger)
}

// NewConsumer builds a Kafka consumer that refreshes the dashboard whenever a
// review is submitted.
func NewConsumer(cfg ConsumerConfig, trigger Trigger, logger *slog.Logger) *pkgkafka.Consumer {
	seen := pkgkafka.NewSeenSet(cfg.DedupeSize, cfg.DedupeTTL)
	handler := NewRefreshHandler(trigger, seen, cfg.GroupID, logger)
	return pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers: cfg.Brokers,
		GroupID: cfg.GroupID,
		Topic:   TopicFeedbackSubmitted,
	}, handler, logger)
}
