package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubDoer answers every call with a fresh response of the given status, or
// with err.
type stubDoer struct {
	status atomic.Int32
	err    error
	calls  atomic.Int32
}

func newStub(status int) *stubDoer {
	s := &stubDoer{}
	s.status.Store(int32(status))
	return s
}

func (s *stubDoer) Do(ctx context.Context, _ *http.Request) (*http.Response, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &http.Response{
		StatusCode: int(s.status.Load()),
		Body:       io.NopCloser(strings.NewReader(`{"error":"boom"}`)),
	}, nil
}

func breakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Second,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

func call(t *testing.T, d Doer) (*http.Response, error) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "http://feedback.test/api/reviews", http.NoBody)
	require.NoError(t, err)
	resp, err := d.Do(context.Background(), req)
	if resp != nil {
		t.Cleanup(func() { _ = resp.Body.Close() })
	}
	return resp, err
}

func trip(t *testing.T, b *Breaker, n int) {
	t.Helper()
	for range n {
		_, _ = call(t, b)
	}
	require.Equal(t, gobreaker.StateOpen, b.State())
}

func TestDefaultBreakerConfig(t *testing.T) {
	cfg := DefaultBreakerConfig("feedback-api")
	assert.Equal(t, "feedback-api", cfg.Name)
	assert.Equal(t, uint32(1), cfg.MaxRequests)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, uint32(5), cfg.MinRequests)
	assert.InDelta(t, 0.6, cfg.FailureRatio, 1e-9)
}

func TestBreakerConfig_ReadyToTrip(t *testing.T) {
	cfg := breakerConfig("ratio")
	tests := []struct {
		name     string
		requests uint32
		failures uint32
		want     bool
	}{
		{name: "too few samples", requests: 2, failures: 2, want: false},
		{name: "below ratio", requests: 4, failures: 1, want: false},
		{name: "at ratio", requests: 4, failures: 2, want: true},
		{name: "all failing", requests: 3, failures: 3, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cfg.readyToTrip(gobreaker.Counts{Requests: tt.requests, TotalFailures: tt.failures})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBreaker_PassesThroughSuccess(t *testing.T) {
	stub := newStub(http.StatusOK)
	b := NewBreaker(stub, breakerConfig("pass"), testLogger())

	resp, err := call(t, b)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_ServerErrorsReturnedAndCounted(t *testing.T) {
	b := NewBreaker(newStub(http.StatusInternalServerError), breakerConfig("5xx"), testLogger())

	for range 3 {
		resp, err := call(t, b)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.JSONEq(t, `{"error":"boom"}`, string(body))
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := call(t, b)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	b := NewBreaker(newStub(http.StatusBadRequest), breakerConfig("4xx"), testLogger())
	for range 5 {
		_, err := call(t, b)
		require.NoError(t, err)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_TransportErrorsTrip(t *testing.T) {
	stub := newStub(0)
	stub.err = errors.New("connection refused")
	b := NewBreaker(stub, breakerConfig("dial"), testLogger())

	_, err := call(t, b)
	assert.ErrorContains(t, err, "connection refused")
	trip(t, b, 2)
}

func TestBreaker_OpenSkipsUpstream(t *testing.T) {
	stub := newStub(http.StatusServiceUnavailable)
	cfg := breakerConfig("open")
	cfg.Timeout = time.Hour
	b := NewBreaker(stub, cfg, testLogger())

	trip(t, b, 3)
	before := stub.calls.Load()
	for range 5 {
		_, err := call(t, b)
		assert.ErrorIs(t, err, ErrCircuitOpen)
	}
	assert.Equal(t, before, stub.calls.Load())
}

func TestBreaker_RecoversAfterCooldown(t *testing.T) {
	stub := newStub(http.StatusBadGateway)
	cfg := breakerConfig("recover")
	cfg.Timeout = 50 * time.Millisecond
	b := NewBreaker(stub, cfg, testLogger())

	trip(t, b, 3)
	stub.status.Store(http.StatusOK)

	require.Eventually(t, func() bool {
		return b.State() == gobreaker.StateHalfOpen
	}, time.Second, 5*time.Millisecond)

	resp, err := call(t, b)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_OnReject(t *testing.T) {
	cfg := breakerConfig("reject")
	cfg.Timeout = time.Hour
	plain := NewBreaker(newStub(http.StatusInternalServerError), cfg, testLogger())

	var rejected atomic.Int32
	b := plain.OnReject(func(_ context.Context, err error) (*http.Response, error) {
		rejected.Add(1)
		assert.ErrorIs(t, err, ErrCircuitOpen)
		return nil, errors.New("feedback API unavailable")
	})

	trip(t, b, 3)
	assert.Zero(t, rejected.Load())

	_, err := call(t, b)
	assert.EqualError(t, err, "feedback API unavailable")
	assert.Equal(t, int32(1), rejected.Load())

	// The copy shares the breaker but not the reject hook.
	_, err = call(t, plain)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreaker_CanceledCallsDoNotTrip(t *testing.T) {
	b := NewBreaker(newStub(http.StatusOK), breakerConfig("canceled"), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://feedback.test/", http.NoBody)
	require.NoError(t, err)

	for range 5 {
		_, err := b.Do(ctx, req)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_OverClient(t *testing.T) {
	mt := httpmock.NewMockTransport()
	mt.RegisterResponder(http.MethodGet, "http://feedback.test/api/reviews",
		httpmock.NewStringResponder(http.StatusServiceUnavailable, `{"error":"model offline"}`))

	b := NewBreaker(New(Config{Timeout: time.Second, Transport: mt}), breakerConfig("client"), testLogger())
	trip(t, b, 3)
	assert.Equal(t, 3, mt.GetTotalCallCount())
}
