package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Header names carried on every published message, so consumers can route
// without decoding the body.
const (
	HeaderEventType     = "fynd-event-type"
	HeaderSource        = "fynd-source"
	HeaderCorrelationID = "fynd-correlation-id"
)

// ErrNoBrokers is returned when a broker list is empty.
var ErrNoBrokers = errors.New("kafka: no brokers configured")

// ProducerConfig tunes the kafka-go writer behind a Producer.
type ProducerConfig struct {
	Brokers      []string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// DefaultProducerConfig flushes each event on its own. Review submissions
// are rare enough that batching only adds latency.
func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{
		Brokers:      brokers,
		BatchSize:    1,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
}

// MessageWriter is implemented by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes envelopes to Kafka.
type Producer struct {
	writer  MessageWriter
	brokers []string
	logger  *slog.Logger
}

// NewProducer dials lazily; nothing touches the network until Publish.
func NewProducer(cfg ProducerConfig, logger *slog.Logger) *Producer {
	return NewProducerWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}, cfg.Brokers, logger)
}

// NewProducerWithWriter wraps w. brokers is used only by Ping.
func NewProducerWithWriter(w MessageWriter, brokers []string, logger *slog.Logger) *Producer {
	return &Producer{writer: w, brokers: brokers, logger: logger}
}

// message builds the Kafka record for e. The hash balancer keeps every event
// with the same key on one partition.
func message(ctx context.Context, topic string, e *Event) (kafka.Message, error) {
	value, err := e.Encode()
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}

	headers := []kafka.Header{
		{Key: HeaderEventType, Value: []byte(e.Type)},
		{Key: HeaderSource, Value: []byte(e.Source)},
	}
	if e.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: HeaderCorrelationID, Value: []byte(e.CorrelationID)})
	}

	msg := kafka.Message{Topic: topic, Key: []byte(e.Key), Value: value, Headers: headers}
	injectTrace(ctx, &msg)
	return msg, nil
}

// Publish writes e to topic with the caller's trace context in the headers.
func (p *Producer) Publish(ctx context.Context, topic string, e *Event) error {
	msg, err := message(ctx, topic, e)
	if err != nil {
		return err
	}

	log := p.logger.With(slog.String("topic", topic), slog.String("event_id", e.ID))

	start := time.Now()
	err = p.writer.WriteMessages(ctx, msg)
	publishDuration.WithLabelValues(topic).Observe(time.Since(start).Seconds())

	if err != nil {
		publishErrors.WithLabelValues(topic).Inc()
		log.ErrorContext(ctx, "event publish failed", slog.String("error", err.Error()))
		return fmt.Errorf("write to %s: %w", topic, err)
	}

	published.WithLabelValues(topic).Inc()
	log.DebugContext(ctx, "event published", slog.String("key", e.Key))
	return nil
}

// Ping reports whether any configured broker is reachable.
func (p *Producer) Ping(ctx context.Context) error {
	return PingBrokers(ctx, p.brokers)
}

// PingBrokers succeeds as soon as one broker answers a metadata request.
// When none does, the error joins every broker's failure.
func PingBrokers(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return ErrNoBrokers
	}

	errs := make([]error, 0, len(brokers))
	for _, addr := range brokers {
		err := pingBroker(ctx, addr)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", addr, err))
	}
	return fmt.Errorf("kafka: no broker reachable: %w", errors.Join(errs...))
}

func pingBroker(ctx context.Context, addr string) error {
	conn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Brokers()
	return err
}

// Close flushes whatever the writer still buffers.
func (p *Producer) Close() error {
	return p.writer.Close()
}
