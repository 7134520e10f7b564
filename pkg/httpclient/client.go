// Package httpclient is the outbound HTTP stack for calls to the feedback
// API: pooled connections, trace propagation, optional retries and a
// circuit breaker.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Config tunes a Client.
type Config struct {
	Timeout time.Duration
	// MaxRetries is the number of extra attempts after the first. Only
	// requests whose body can be replayed are retried.
	MaxRetries      int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	MaxConnsPerHost int
	UserAgent       string

	// Transport, when set, replaces the pooled transport. Tests pass an
	// httpmock.MockTransport here.
	Transport http.RoundTripper
}

// DefaultConfig never retries: a resubmitted review would be stored twice.
func DefaultConfig() Config {
	return Config{
		Timeout:         15 * time.Second,
		RetryWaitMin:    500 * time.Millisecond,
		RetryWaitMax:    5 * time.Second,
		MaxConnsPerHost: 20,
		UserAgent:       "fynd-feedback/1.0",
	}
}

// Doer executes HTTP requests. Both Client and Breaker satisfy it.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Client sends requests over a shared connection pool.
type Client struct {
	httpClient *http.Client
	config     Config
}

func pooledTransport(maxConnsPerHost int) *http.Transport {
	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

// New builds a Client from cfg.
func New(cfg Config) *Client {
	var rt http.RoundTripper = cfg.Transport
	if rt == nil {
		rt = pooledTransport(cfg.MaxConnsPerHost)
	}
	return &Client{
		httpClient: &http.Client{Transport: rt, Timeout: cfg.Timeout},
		config:     cfg,
	}
}

// retryStatus marks a response worth another attempt.
type retryStatus struct{ code int }

func (e *retryStatus) Error() string { return fmt.Sprintf("retryable status %d", e.code) }

// shouldRetryStatus is true for 5xx except 501, which will not change.
func shouldRetryStatus(code int) bool {
	return code >= http.StatusInternalServerError && code != http.StatusNotImplemented
}

// Do sends req with the caller's trace context. Network errors and 5xx
// responses are retried with jittered exponential backoff, up to
// MaxRetries times and only for replayable requests. When retries run out
// on a 5xx, that response is returned with a nil error.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.config.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	tries := 1
	if c.config.MaxRetries > 0 && rewindable(req) {
		tries += c.config.MaxRetries
	}

	attempts := 0
	var pending *http.Response
	attempt := func() (*http.Response, error) {
		attempts++
		if pending != nil {
			_ = pending.Body.Close()
			pending = nil
		}
		if attempts > 1 {
			if err := rewind(req); err != nil {
				return nil, backoff.Permanent(err)
			}
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil && isRetryableError(err):
			return nil, err
		case err != nil:
			return nil, backoff.Permanent(err)
		case shouldRetryStatus(resp.StatusCode):
			pending = resp
			return resp, &retryStatus{code: resp.StatusCode}
		}
		return resp, nil
	}

	resp, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(c.backoff()),
		backoff.WithMaxTries(uint(tries)),
	)

	var status *retryStatus
	switch {
	case err == nil:
		return resp, nil
	case errors.As(err, &status) && pending != nil:
		return pending, nil
	}
	if pending != nil {
		_ = pending.Body.Close()
	}
	return nil, fmt.Errorf("http request failed after %d attempts: %w", attempts, err)
}

func (c *Client) backoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.config.RetryWaitMin
	b.MaxInterval = c.config.RetryWaitMax
	b.Reset()
	return b
}

// Get sends a bodiless GET.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	return c.Do(ctx, req)
}

// Post sends body with the given content type.
func (c *Client) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create POST request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(ctx, req)
}

func rewindable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func rewind(req *http.Request) error {
	if req.GetBody == nil {
		return nil
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("rewind request body: %w", err)
	}
	req.Body = body
	return nil
}

// isRetryableError is true for network-level failures that the caller did
// not cause by canceling.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
