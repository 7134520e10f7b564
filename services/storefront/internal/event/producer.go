package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/piyush182004/Fynd/pkg/logger"
	pkgkafka "github.com/piyush182004/Fynd/pkg/kafka"
)

// TopicFeedbackSubmitted carries one event per accepted review.
var TopicFeedbackSubmitted = pkgkafka.Topic("feedback", "submitted")

// SourceStorefront names this service on the events it publishes.
const SourceStorefront = "storefront"

// FeedbackSubmittedData is the payload of a feedback.submitted event. The
// review text is left out; consumers fetch it from the feedback API.
type FeedbackSubmittedData struct {
	ReviewID    int       `json:"review_id"`
	Rating      int       `json:"rating"`
	ReviewChars int       `json:"review_chars"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Publisher announces storefront events.
type Publisher interface {
	PublishFeedbackSubmitted(ctx context.Context, data FeedbackSubmittedData) error
}

// Producer publishes storefront events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a Kafka-backed Publisher.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishFeedbackSubmitted publishes a feedback.submitted event keyed by the
// review ID, carrying the request's correlation ID.
func (p *Producer) PublishFeedbackSubmitted(ctx context.Context, data FeedbackSubmittedData) error {
	event, err := pkgkafka.NewEvent(TopicFeedbackSubmitted, strconv.Itoa(data.ReviewID), SourceStorefront, data,
		pkgkafka.WithCorrelationID(logger.CorrelationIDFromContext(ctx)))
	if err != nil {
		return fmt.Errorf("create feedback.submitted event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicFeedbackSubmitted, event); err != nil {
		return fmt.Errorf("publish feedback.submitted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published feedback.submitted event",
		slog.Int("review_id", data.ReviewID),
		slog.Int("rating", data.Rating),
	)
	return nil
}

// NopPublisher drops every event. It is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishFeedbackSubmitted(context.Context, FeedbackSubmittedData) error {
	return nil
}
