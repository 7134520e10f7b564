package feedbackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/piyush182004/Fynd/pkg/errors"
	"github.com/piyush182004/Fynd/pkg/httpclient"
)

// API paths.
const (
	PathReviews   = "/api/admin/reviews"
	PathAnalytics = "/api/admin/analytics"
	PathSubmit    = "/api/submit"
	PathHealth    = "/api/health"
)

// User-facing fallbacks when the backend gives no usable error string.
const (
	SubmitFailedMessage    = "Failed to submit. Please try again."
	DashboardFailedMessage = "Unable to load dashboard data"
	UnavailableMessage     = "The feedback service is temporarily unavailable. Please try again shortly."
)

const serviceName = "feedback-api"

var tracer = otel.Tracer("github.com/piyush182004/Fynd/pkg/feedbackapi")

// Config configures a Client.
type Config struct {
	BaseURL string
	HTTP    httpclient.Config
	Breaker httpclient.BreakerConfig
}

// DefaultConfig returns a config for the API at baseURL with the default
// HTTP and breaker settings.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		HTTP:    httpclient.DefaultConfig(),
		Breaker: httpclient.DefaultBreakerConfig(serviceName),
	}
}

// Client calls the feedback API. It is safe for concurrent use.
type Client struct {
	baseURL string
	doer    httpclient.Doer
	logger  *slog.Logger
}

// New builds a Client whose requests pass through a circuit breaker. When
// the breaker is open calls fail fast with an ErrUnavailable AppError.
func New(cfg Config, logger *slog.Logger) *Client {
	breaker := httpclient.NewBreaker(httpclient.New(cfg.HTTP), cfg.Breaker, logger).
		OnReject(func(context.Context, error) (*http.Response, error) {
			return nil, apperrors.Unavailable(UnavailableMessage)
		})
	return NewWithDoer(cfg.BaseURL, breaker, logger)
}

// NewWithDoer builds a Client over an arbitrary Doer.
func NewWithDoer(baseURL string, doer httpclient.Doer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		doer:    doer,
		logger:  logger,
	}
}

// BaseURL returns the API origin the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListReviews fetches every review, newest first. A response with success
// false is returned as-is; callers decide whether to keep their old data.
func (c *Client) ListReviews(ctx context.Context) (*ReviewsResponse, error) {
	var out ReviewsResponse
	if err := c.getJSON(ctx, "list_reviews", PathReviews, DashboardFailedMessage, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAnalytics fetches the aggregate summary.
func (c *Client) GetAnalytics(ctx context.Context) (*AnalyticsResponse, error) {
	var out AnalyticsResponse
	if err := c.getJSON(ctx, "get_analytics", PathAnalytics, DashboardFailedMessage, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Submit posts a review exactly once. Errors are AppErrors whose Message is
// the backend's "error" string when present, SubmitFailedMessage otherwise.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (resp *SubmitResponse, err error) {
	ctx, span := c.startSpan(ctx, "submit", http.MethodPost, PathSubmit)
	span.SetAttributes(attribute.Int("feedback.rating", req.Rating))
	start := time.Now()
	defer func() { c.finish(ctx, span, "submit", start, err) }()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("marshal submit request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathSubmit, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.RequestFailed(0, SubmitFailedMessage, fmt.Errorf("create submit request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.doer.Do(ctx, httpReq)
	if err != nil {
		return nil, c.transportError(err, SubmitFailedMessage)
	}
	defer httpResp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))
	if !httpclient.IsSuccess(httpResp.StatusCode) {
		return nil, httpclient.ParseResponseError(httpResp, serviceName, SubmitFailedMessage)
	}

	var out SubmitResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&out); err != nil {
		return nil, apperrors.RequestFailed(httpResp.StatusCode, SubmitFailedMessage,
			fmt.Errorf("decode submit response: %w", err))
	}
	if !out.Success {
		return nil, apperrors.RequestFailed(httpResp.StatusCode, SubmitFailedMessage,
			errors.New("submit response reported success=false"))
	}
	return &out, nil
}

// Health calls the backend health endpoint. Any 2xx counts as healthy.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.getJSON(ctx, "health", PathHealth, UnavailableMessage, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, op, path, fallback string, dst any) (err error) {
	ctx, span := c.startSpan(ctx, op, http.MethodGet, path)
	start := time.Now()
	defer func() { c.finish(ctx, span, op, start, err) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return apperrors.RequestFailed(0, fallback, fmt.Errorf("create %s request: %w", op, err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(ctx, req)
	if err != nil {
		return c.transportError(err, fallback)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if !httpclient.IsSuccess(resp.StatusCode) {
		return httpclient.ParseResponseError(resp, serviceName, fallback)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apperrors.RequestFailed(resp.StatusCode, fallback, fmt.Errorf("decode %s response: %w", op, err))
	}
	return nil
}

// transportError keeps AppErrors from the breaker fallback intact and wraps
// everything else as a failed request.
func (c *Client) transportError(err error, fallback string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.RequestFailed(0, fallback, fmt.Errorf("call %s: %w", serviceName, err))
}

func (c *Client) startSpan(ctx context.Context, op, method, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "feedbackapi."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", c.baseURL+path),
		),
	)
}

func (c *Client) finish(ctx context.Context, span trace.Span, op string, start time.Time, err error) {
	elapsed := time.Since(start)
	requestDuration.WithLabelValues(op, outcome(err)).Observe(elapsed.Seconds())
	if err != nil {
		c.logger.WarnContext(ctx, "feedback api call failed",
			slog.String("operation", op),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
