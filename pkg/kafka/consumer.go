package kafka

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// maxHandlerAttempts bounds how often one message is handed to the handler
// before it is committed anyway.
const maxHandlerAttempts = 3

// Handler processes one decoded event. A non-nil error asks for a retry.
type Handler func(ctx context.Context, e *Event) error

// ConsumerConfig selects the topic and consumer group to read.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
}

// MessageReader is implemented by *kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer feeds one topic to a Handler, committing after each message.
type Consumer struct {
	reader    MessageReader
	topic     string
	group     string
	handler   Handler
	logger    *slog.Logger
	backoff   time.Duration
	closeOnce sync.Once
}

// NewConsumer joins cfg.GroupID on cfg.Topic.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: max(cfg.MinBytes, 1),
		MaxBytes: max(cfg.MaxBytes, 1<<20),
	})
	return NewConsumerWithReader(r, cfg.Topic, cfg.GroupID, handler, logger)
}

// NewConsumerWithReader runs handler over messages from r.
func NewConsumerWithReader(r MessageReader, topic, group string, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{
		reader:  r,
		topic:   topic,
		group:   group,
		handler: handler,
		logger:  logger.With(slog.String("topic", topic), slog.String("consumer_group", group)),
		backoff: 100 * time.Millisecond,
	}
}

// Start blocks until ctx is canceled and then returns nil. A message that
// cannot be decoded, or whose handler fails every attempt, is still
// committed so the partition keeps moving.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("kafka consumer started")
	defer c.logger.Info("kafka consumer stopped")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			c.logger.Error("kafka fetch failed", slog.String("error", err.Error()))
			if !c.sleep(ctx, c.backoff) {
				return nil
			}
		default:
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	defer c.commit(ctx, msg)

	msgCtx := extractTrace(ctx, &msg)
	log := c.logger.With(slog.Int64("offset", msg.Offset))

	e, err := DecodeEvent(msg.Value)
	if err != nil {
		consumed.WithLabelValues(c.topic, c.group, outcomeMalformed).Inc()
		log.WarnContext(msgCtx, "dropping undecodable message", slog.String("error", err.Error()))
		return
	}
	log = log.With(slog.String("event_id", e.ID))

	if err := c.handle(msgCtx, e, log); err != nil {
		if ctx.Err() != nil {
			return
		}
		consumed.WithLabelValues(c.topic, c.group, outcomeFailed).Inc()
		log.ErrorContext(msgCtx, "giving up on event", slog.String("error", err.Error()))
		return
	}
	consumed.WithLabelValues(c.topic, c.group, outcomeHandled).Inc()
}

// handle retries the handler with a linearly growing pause.
func (c *Consumer) handle(ctx context.Context, e *Event, log *slog.Logger) error {
	var err error
	for attempt := 1; attempt <= maxHandlerAttempts; attempt++ {
		if err = c.handler(ctx, e); err == nil {
			return nil
		}
		log.WarnContext(ctx, "event handler failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if attempt < maxHandlerAttempts && !c.sleep(ctx, time.Duration(attempt)*c.backoff) {
			return ctx.Err()
		}
	}
	return err
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	err := c.reader.CommitMessages(ctx, msg)
	if err != nil && ctx.Err() == nil {
		c.logger.Error("kafka commit failed",
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Consumer) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Close releases the reader. Later calls are no-ops.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.reader.Close() })
	return err
}
