package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeClock is a settable time source for the limiter.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestLimiter(t *testing.T, cfg RateLimitConfig) (*RateLimiter, *fakeClock) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	rl := NewRateLimiter(ctx, cfg, discardLogger())
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	rl, clock := newTestLimiter(t, RateLimitConfig{RPS: 1, Burst: 2})

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	// Other clients have their own bucket.
	assert.True(t, rl.Allow("10.0.0.2"))

	clock.advance(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiter_ZeroRPSDisables(t *testing.T) {
	rl, _ := newTestLimiter(t, RateLimitConfig{})
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("10.0.0.1"))
	}
	assert.Equal(t, 0, rl.len())
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, RateLimitConfig{RPS: 0.5, Burst: 1})
	h := rl.Middleware(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/submit", nil)
		req.RemoteAddr = "198.51.100.3:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestRateLimiter_CustomRejection(t *testing.T) {
	rl, _ := newTestLimiter(t, RateLimitConfig{
		RPS:   1,
		Burst: 1,
		OnLimited: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("<p>slow down</p>"))
		}),
	})
	h := rl.Middleware(okHandler())

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "slow down")
}

func TestRateLimiter_SweepEvictsIdle(t *testing.T) {
	rl, clock := newTestLimiter(t, RateLimitConfig{RPS: 5, Burst: 5, TTL: time.Minute})

	rl.Allow("10.0.0.1")
	clock.advance(30 * time.Second)
	rl.Allow("10.0.0.2")
	require.Equal(t, 2, rl.len())

	clock.advance(45 * time.Second)
	rl.sweep()
	assert.Equal(t, 1, rl.len())
}

func TestRateLimiter_SweeperStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	NewRateLimiter(ctx, RateLimitConfig{RPS: 1, TTL: 10 * time.Millisecond}, discardLogger())
	time.Sleep(25 * time.Millisecond)
	cancel()
	// Give the sweeper a moment to observe cancellation.
	time.Sleep(10 * time.Millisecond)
}
