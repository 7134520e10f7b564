// Package feedbackapi is a typed client for the Fynd feedback REST API.
package feedbackapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// MaxReviewLength is the longest review body, in characters, the API stores.
const MaxReviewLength = 2000

// Review is a submitted review annotated by the backend.
type Review struct {
	ID         int       `json:"id"`
	Rating     int       `json:"rating"`
	Review     string    `json:"review"`
	AISummary  string    `json:"ai_summary"`
	AIResponse string    `json:"ai_response"`
	AIAction   string    `json:"ai_action"`
	CreatedAt  Timestamp `json:"created_at"`
}

// AnalyticsSummary aggregates every stored review. RatingDistribution is
// keyed "1" through "5".
type AnalyticsSummary struct {
	TotalReviews       int            `json:"total_reviews"`
	AverageRating      float64        `json:"average_rating"`
	RatingDistribution map[string]int `json:"rating_distribution"`
}

// ReviewsResponse is the body of GET /api/admin/reviews.
type ReviewsResponse struct {
	Success bool     `json:"success"`
	Count   int      `json:"count"`
	Reviews []Review `json:"reviews"`
}

// AnalyticsResponse is the body of GET /api/admin/analytics.
type AnalyticsResponse struct {
	Success   bool              `json:"success"`
	Analytics *AnalyticsSummary `json:"analytics"`
}

// SubmitRequest is the body of POST /api/submit.
type SubmitRequest struct {
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
	Review string `json:"review" validate:"notblank,maxrunes=2000"`
}

// SubmitResponse is the 201 body of POST /api/submit.
type SubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Timestamp decodes the backend's created_at values. The backend writes naive
// ISO-8601 in UTC, with or without fractional seconds; RFC 3339 is accepted
// too. An unrecognised string decodes to the zero time so one bad row does not
// fail a whole list. It encodes as RFC 3339 in UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses s in any of the accepted layouts.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("created_at: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		slog.Warn("ignoring unrecognised created_at", slog.String("value", s))
		*t = Timestamp{}
		return nil
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
