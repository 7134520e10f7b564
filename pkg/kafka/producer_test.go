package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestDefaultProducerConfig(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"localhost:9092"})
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
	assert.Equal(t, 1, cfg.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout)
}

func TestNewProducer_CreatesInstance(t *testing.T) {
	p := NewProducer(DefaultProducerConfig([]string{"localhost:9092"}), testLogger())
	require.NotNil(t, p)
	assert.NoError(t, p.Close())
}

func TestProducer_Publish_WritesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, testLogger())

	event, err := NewEvent("fynd.feedback.submitted", "42", "storefront", map[string]int{"rating": 5},
		WithCorrelationID("corr-1"))
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), "fynd.feedback.submitted", event))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "fynd.feedback.submitted", msg.Topic)
	assert.Equal(t, "42", string(msg.Key))
	assert.Equal(t, "fynd.feedback.submitted", header(msg, HeaderEventType))
	assert.Equal(t, "storefront", header(msg, HeaderSource))
	assert.Equal(t, "corr-1", header(msg, HeaderCorrelationID))

	decoded, err := DecodeEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, event.ID, decoded.ID)
}

func TestProducer_Publish_InjectsTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "submit")
	defer span.End()

	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, testLogger())
	event, err := NewEvent("fynd.feedback.submitted", "1", "storefront", nil)
	require.NoError(t, err)

	require.NoError(t, p.Publish(ctx, "t", event))
	require.Len(t, w.msgs, 1)
	assert.Contains(t, header(w.msgs[0], "traceparent"), span.SpanContext().TraceID().String())
}

func TestProducer_Publish_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := NewProducerWithWriter(w, nil, testLogger())
	event, err := NewEvent("fynd.feedback.submitted", "1", "storefront", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), "fynd.feedback.submitted", event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write to fynd.feedback.submitted")
	assert.Contains(t, err.Error(), "leader not available")
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, testLogger())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	assert.ErrorIs(t, PingBrokers(context.Background(), nil), ErrNoBrokers)
}

func TestPingBrokers_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := PingBrokers(ctx, []string{"127.0.0.1:1", "127.0.0.1:2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no broker reachable")
	assert.Contains(t, err.Error(), "127.0.0.1:1")
	assert.Contains(t, err.Error(), "127.0.0.1:2")
}
