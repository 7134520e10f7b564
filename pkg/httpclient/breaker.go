package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen is returned, when no RejectFunc is set, for calls refused
// while the breaker is open.
var ErrCircuitOpen = gobreaker.ErrOpenState

// BreakerConfig tunes the breaker in front of one upstream.
type BreakerConfig struct {
	Name string
	// MaxRequests is how many probes may pass while half-open.
	MaxRequests uint32
	// Interval resets the closed-state counters. Zero never resets them.
	Interval time.Duration
	// Timeout is the open-state cool-down before probing again.
	Timeout time.Duration
	// The breaker opens once failures make up FailureRatio of at least
	// MinRequests calls.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultBreakerConfig suits the feedback API. The dashboard polls every few
// seconds, so a handful of samples is needed before the breaker opens.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      15 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  5,
	}
}

func (c BreakerConfig) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < c.MinRequests {
		return false
	}
	return float64(counts.TotalFailures) >= c.FailureRatio*float64(counts.Requests)
}

// RejectFunc answers calls the breaker refused. err is ErrCircuitOpen or
// gobreaker.ErrTooManyRequests.
type RejectFunc func(ctx context.Context, err error) (*http.Response, error)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "fynd",
		Subsystem: "http_client",
		Name:      "breaker_state",
		Help:      "Breaker state: 0 closed, 1 half-open, 2 open.",
	}, []string{"breaker"})

	breakerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fynd",
		Subsystem: "http_client",
		Name:      "breaker_rejections_total",
		Help:      "Calls refused without reaching the upstream.",
	}, []string{"breaker"})
)

var stateGauge = map[gobreaker.State]float64{
	gobreaker.StateClosed:   0,
	gobreaker.StateHalfOpen: 1,
	gobreaker.StateOpen:     2,
}

// upstreamFailure records a 5xx against the breaker without losing the
// response.
type upstreamFailure struct {
	resp *http.Response
}

func (f *upstreamFailure) Error() string {
	return fmt.Sprintf("upstream answered %d", f.resp.StatusCode)
}

// Breaker is a Doer that stops calling next once it keeps failing.
type Breaker struct {
	next     Doer
	cb       *gobreaker.CircuitBreaker[*http.Response]
	name     string
	onReject RejectFunc
	logger   *slog.Logger
}

// NewBreaker wraps next. Transport errors and 5xx responses count as
// failures; 4xx responses and caller cancellations do not.
func NewBreaker(next Doer, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	b := &Breaker{next: next, name: cfg.Name, logger: logger}
	b.cb = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: cfg.readyToTrip,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: b.stateChanged,
	})
	breakerState.WithLabelValues(cfg.Name).Set(stateGauge[gobreaker.StateClosed])
	return b
}

func (b *Breaker) stateChanged(name string, from, to gobreaker.State) {
	b.logger.Warn("breaker state changed",
		slog.String("breaker", name),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
	breakerState.WithLabelValues(name).Set(stateGauge[to])
}

// OnReject returns a copy of b that hands refused calls to fn.
func (b *Breaker) OnReject(fn RejectFunc) *Breaker {
	cpy := *b
	cpy.onReject = fn
	return &cpy
}

// Do sends req through the breaker. A 5xx response comes back with a nil
// error so the caller can still read the upstream's message.
func (b *Breaker) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.next.Do(ctx, req)
		if err == nil && resp.StatusCode >= http.StatusInternalServerError {
			return resp, &upstreamFailure{resp: resp}
		}
		return resp, err
	})

	var failure *upstreamFailure
	switch {
	case err == nil:
		return resp, nil
	case errors.As(err, &failure):
		return failure.resp, nil
	case refused(err):
		breakerRejections.WithLabelValues(b.name).Inc()
		if b.onReject != nil {
			b.logger.DebugContext(ctx, "breaker refused call", slog.String("breaker", b.name))
			return b.onReject(ctx, err)
		}
	}
	return nil, err
}

// State reports the breaker's current state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func refused(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
