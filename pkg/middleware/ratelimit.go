package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/piyush182004/Fynd/pkg/httputil"
)

// RateLimitConfig configures per-client-IP token buckets.
type RateLimitConfig struct {
	// RPS is the sustained rate per IP. Zero disables limiting.
	RPS float64
	// Burst is the bucket size.
	Burst int
	// TTL evicts a client's bucket after this much inactivity.
	TTL time.Duration
	// OnLimited renders the rejection. Defaults to a JSON 429.
	OnLimited http.Handler
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces RateLimitConfig. Its sweeper goroutine stops when the
// context passed to NewRateLimiter is canceled.
type RateLimiter struct {
	cfg    RateLimitConfig
	logger *slog.Logger

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

// NewRateLimiter creates a limiter and starts its sweeper.
func NewRateLimiter(ctx context.Context, cfg RateLimitConfig, logger *slog.Logger) *RateLimiter {
	if cfg.TTL <= 0 {
		cfg.TTL = 3 * time.Minute
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.OnLimited == nil {
		cfg.OnLimited = http.HandlerFunc(writeTooManyRequests)
	}

	rl := &RateLimiter{
		cfg:      cfg,
		logger:   logger,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
	go rl.sweepLoop(ctx)
	return rl
}

// Allow reports whether ip may make a request now.
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.cfg.RPS <= 0 {
		return true
	}

	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rl.cfg.RPS), rl.cfg.Burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = rl.now()
	limiter := v.limiter
	rl.mu.Unlock()

	return limiter.AllowN(rl.now(), 1)
}

// Middleware rejects requests over the limit.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := httputil.ClientIP(r)
		if !rl.Allow(ip) {
			rl.logger.WarnContext(r.Context(), "rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
			)
			if rl.cfg.RPS > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(max(1, int(1/rl.cfg.RPS))))
			}
			rl.cfg.OnLimited.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(rl.cfg.TTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.cfg.TTL {
			delete(rl.visitors, ip)
		}
	}
}

func (rl *RateLimiter) len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

func writeTooManyRequests(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusTooManyRequests, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "RATE_LIMITED", Message: "too many requests"},
	})
}
