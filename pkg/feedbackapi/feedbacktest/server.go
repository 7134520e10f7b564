// Package feedbacktest runs an in-process fake of the feedback API.
package feedbacktest

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/piyush182004/Fynd/pkg/feedbackapi"
)

// Failure makes an endpoint answer with Status and an {"error": Message}
// body. A zero Status means the endpoint behaves normally.
type Failure struct {
	Status  int
	Message string
}

// Server is a fake feedback API backed by memory. Reviews get canned AI
// annotations chosen by rating.
type Server struct {
	*httptest.Server

	mu                sync.Mutex
	reviews           []feedbackapi.Review
	nextID            int
	calls             map[string]int
	failures          map[string]Failure
	unsuccessfulPaths map[string]bool
	now               func() time.Time
}

// NewServer starts a fake API. Call Close when done.
func NewServer() *Server {
	s := &Server{
		nextID:            1,
		calls:             make(map[string]int),
		failures:          make(map[string]Failure),
		unsuccessfulPaths: make(map[string]bool),
		now:               time.Now,
	}

	r := chi.NewRouter()
	r.Get(feedbackapi.PathHealth, s.health)
	r.Post(feedbackapi.PathSubmit, s.submit)
	r.Get(feedbackapi.PathReviews, s.listReviews)
	r.Get(feedbackapi.PathAnalytics, s.analytics)

	s.Server = httptest.NewServer(r)
	return s
}

// Seed stores reviews directly, assigning IDs and timestamps where missing.
func (s *Server) Seed(reviews ...feedbackapi.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rv := range reviews {
		if rv.ID == 0 {
			rv.ID = s.nextID
		}
		if rv.ID >= s.nextID {
			s.nextID = rv.ID + 1
		}
		if rv.CreatedAt.IsZero() {
			rv.CreatedAt = feedbackapi.Timestamp{Time: s.now().UTC()}
		}
		s.reviews = append(s.reviews, rv)
	}
}

// Fail injects a failure for path. Pass a zero Failure to clear it.
func (s *Server) Fail(path string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.Status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = f
}

// Unsuccessful makes path answer 200 with success false.
func (s *Server) Unsuccessful(path string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsuccessfulPaths[path] = on
}

// Calls returns how many requests path has received.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// TotalCalls returns the number of requests across all paths.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Reviews returns a copy of the stored reviews in insertion order.
func (s *Server) Reviews() []feedbackapi.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]feedbackapi.Review(nil), s.reviews...)
}

// begin counts the call and writes any injected failure. It reports whether
// the handler should continue.
func (s *Server) begin(w http.ResponseWriter, path string) (unsuccessful, ok bool) {
	s.mu.Lock()
	s.calls[path]++
	f, failed := s.failures[path]
	unsuccessful = s.unsuccessfulPaths[path]
	s.mu.Unlock()

	if failed {
		writeJSON(w, f.Status, map[string]string{"error": f.Message})
		return false, false
	}
	return unsuccessful, true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.begin(w, feedbackapi.PathHealth); !ok {
		return
	}
	writeJSON(w, http.StatusOK, feedbackapi.HealthResponse{Status: "healthy", Service: "fynd-feedback-api"})
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	unsuccessful, ok := s.begin(w, feedbackapi.PathSubmit)
	if !ok {
		return
	}

	var body struct {
		Rating json.RawMessage `json:"rating"`
		Review string          `json:"review"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No data provided"})
		return
	}

	text := strings.TrimSpace(body.Review)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Review text is required"})
		return
	}
	rating, err := strconv.Atoi(string(body.Rating))
	if err != nil || rating < 1 || rating > 5 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Valid rating (1-5) is required"})
		return
	}
	if runes := []rune(text); len(runes) > feedbackapi.MaxReviewLength {
		text = string(runes[:feedbackapi.MaxReviewLength])
	}

	if unsuccessful {
		writeJSON(w, http.StatusOK, feedbackapi.SubmitResponse{Success: false})
		return
	}

	ai := annotate(rating)
	s.mu.Lock()
	rv := feedbackapi.Review{
		ID:         s.nextID,
		Rating:     rating,
		Review:     text,
		AISummary:  ai.summary,
		AIResponse: ai.response,
		AIAction:   ai.action,
		CreatedAt:  feedbackapi.Timestamp{Time: s.now().UTC()},
	}
	s.nextID++
	s.reviews = append(s.reviews, rv)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, feedbackapi.SubmitResponse{Success: true, Message: ai.response, ID: rv.ID})
}

func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	unsuccessful, ok := s.begin(w, feedbackapi.PathReviews)
	if !ok {
		return
	}
	if unsuccessful {
		writeJSON(w, http.StatusOK, feedbackapi.ReviewsResponse{Success: false})
		return
	}

	s.mu.Lock()
	out := make([]feedbackapi.Review, 0, len(s.reviews))
	for i := len(s.reviews) - 1; i >= 0; i-- {
		out = append(out, s.reviews[i])
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, feedbackapi.ReviewsResponse{Success: true, Count: len(out), Reviews: out})
}

func (s *Server) analytics(w http.ResponseWriter, r *http.Request) {
	unsuccessful, ok := s.begin(w, feedbackapi.PathAnalytics)
	if !ok {
		return
	}
	if unsuccessful {
		writeJSON(w, http.StatusOK, feedbackapi.AnalyticsResponse{Success: false})
		return
	}

	s.mu.Lock()
	dist := map[string]int{"1": 0, "2": 0, "3": 0, "4": 0, "5": 0}
	sum := 0
	for _, rv := range s.reviews {
		dist[strconv.Itoa(rv.Rating)]++
		sum += rv.Rating
	}
	total := len(s.reviews)
	s.mu.Unlock()

	avg := 0.0
	if total > 0 {
		avg = math.Round(float64(sum)/float64(total)*100) / 100
	}
	writeJSON(w, http.StatusOK, feedbackapi.AnalyticsResponse{
		Success: true,
		Analytics: &feedbackapi.AnalyticsSummary{
			TotalReviews:       total,
			AverageRating:      avg,
			RatingDistribution: dist,
		},
	})
}

type annotation struct {
	response string
	summary  string
	action   string
}

// annotate mirrors the backend's canned replies used when its model is down.
func annotate(rating int) annotation {
	switch {
	case rating >= 4:
		return annotation{
			response: "Thank you for your positive feedback! We're glad you had a great experience with Fynd.",
			summary:  fmt.Sprintf("Positive %d-star review from customer", rating),
			action:   "No immediate action required",
		}
	case rating == 3:
		return annotation{
			response: "Thank you for your feedback. We appreciate your honest review and will work to improve.",
			summary:  fmt.Sprintf("Neutral %d-star review from customer", rating),
			action:   "Review feedback for improvements",
		}
	default:
		return annotation{
			response: "We're sorry to hear about your experience. Your feedback is important and we'll work to address your concerns.",
			summary:  fmt.Sprintf("Negative %d-star review requiring attention", rating),
			action:   "Follow up with customer within 24 hours",
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
