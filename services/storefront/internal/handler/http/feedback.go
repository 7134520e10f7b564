package http

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/piyush182004/Fynd/pkg/errors"
	"github.com/piyush182004/Fynd/pkg/feedbackapi"
	"github.com/piyush182004/Fynd/pkg/form"
	"github.com/piyush182004/Fynd/pkg/httputil"
	"github.com/piyush182004/Fynd/pkg/logger"
	"github.com/piyush182004/Fynd/pkg/validator"
	"github.com/piyush182004/Fynd/services/storefront/internal/event"
)

// msgBodyTooLong is shown when a request bypasses the textarea limit.
const msgBodyTooLong = "Your review must be 2000 characters or fewer"

// FeedbackHandler serves the submission form and its JSON twin.
type FeedbackHandler struct {
	api       form.Submitter
	publisher event.Publisher
	pages     *renderer
	logger    *slog.Logger
	now       func() time.Time
}

// NewFeedbackHandler creates the storefront handler.
func NewFeedbackHandler(api form.Submitter, publisher event.Publisher, logger *slog.Logger) (*FeedbackHandler, error) {
	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &FeedbackHandler{
		api:       api,
		publisher: publisher,
		pages:     pages,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// --- Request / response DTOs ---

// SubmitFeedbackRequest is the JSON body of POST /api/v1/feedback. Rating 0
// and blank reviews pass decoding and are rejected by the form with its own
// messages.
type SubmitFeedbackRequest struct {
	Rating int    `json:"rating" validate:"gte=0,lte=5"`
	Review string `json:"review" validate:"maxrunes=2000"`
}

// SubmitFeedbackResponse is the data of a successful JSON submission.
type SubmitFeedbackResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

type pageData struct {
	Form    *form.Form
	Error   string
	Success string
	Year    int
}

// Index renders an empty form. The rating and review query parameters
// pre-fill it, which is how star buttons work without JavaScript.
func (h *FeedbackHandler) Index(w http.ResponseWriter, r *http.Request) {
	f := form.New()
	q := r.URL.Query()
	if n, err := strconv.Atoi(q.Get("rating")); err == nil {
		_ = f.SetRating(n)
	}
	_ = f.SetBody(q.Get("review"))

	h.renderPage(w, r, http.StatusOK, pageData{Form: f})
}

// SubmitForm handles the HTML form post.
func (h *FeedbackHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderPage(w, r, http.StatusBadRequest, pageData{Form: form.New(), Error: "Could not read the form. Please try again."})
		return
	}

	f := form.New()
	rating, _ := strconv.Atoi(r.PostForm.Get("rating"))
	// An out-of-range rating leaves the form unrated.
	_ = f.SetRating(rating)
	if err := f.SetBody(r.PostForm.Get("review")); err != nil {
		submissionsTotal.WithLabelValues("html", outcomeRejected).Inc()
		h.renderPage(w, r, http.StatusBadRequest, pageData{Form: f, Error: msgBodyTooLong})
		return
	}

	resp, err := h.submit(r.Context(), "html", f)
	if err != nil {
		h.renderPage(w, r, apperrors.HTTPStatus(err), pageData{Form: f, Error: f.ErrorMessage()})
		return
	}

	h.renderPage(w, r, http.StatusOK, pageData{Form: f, Success: resp.Message})
}

// SubmitJSON handles POST /api/v1/feedback.
func (h *FeedbackHandler) SubmitJSON(w http.ResponseWriter, r *http.Request) {
	var req SubmitFeedbackRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		submissionsTotal.WithLabelValues("json", outcomeRejected).Inc()
		var ve *validator.ValidationError
		if errors.As(err, &ve) {
			httputil.WriteValidationError(w, ve)
			return
		}
		httputil.WriteError(w, r, apperrors.InvalidInput("request body must be a JSON object with rating and review"), h.logger)
		return
	}

	f := form.New()
	_ = f.SetRating(req.Rating)
	_ = f.SetBody(req.Review)

	resp, err := h.submit(r.Context(), "json", f)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, SubmitFeedbackResponse{Message: resp.Message, ID: resp.ID})
}

// submit runs the form against the API, records the outcome and announces
// accepted reviews. Publication failures are logged only.
func (h *FeedbackHandler) submit(ctx context.Context, channel string, f *form.Form) (*feedbackapi.SubmitResponse, error) {
	chars := utf8.RuneCountInString(strings.TrimSpace(f.Body()))
	rating := f.Rating()

	resp, err := f.Submit(ctx, h.api)
	if err != nil {
		if apperrors.IsValidation(err) {
			submissionsTotal.WithLabelValues(channel, outcomeRejected).Inc()
			return nil, err
		}
		submissionsTotal.WithLabelValues(channel, outcomeFailed).Inc()
		logger.FromContext(ctx).WarnContext(ctx, "review submission failed",
			slog.Int("rating", rating),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	submissionsTotal.WithLabelValues(channel, outcomeSuccess).Inc()

	logger.FromContext(ctx).InfoContext(ctx, "review submitted",
		slog.Int("review_id", resp.ID),
		slog.Int("rating", rating),
	)

	data := event.FeedbackSubmittedData{
		ReviewID:    resp.ID,
		Rating:      rating,
		ReviewChars: chars,
		SubmittedAt: h.now().UTC(),
	}
	if err := h.publisher.PublishFeedbackSubmitted(ctx, data); err != nil {
		eventPublishFailures.Inc()
		h.logger.ErrorContext(ctx, "failed to publish feedback.submitted",
			slog.Int("review_id", resp.ID),
			slog.String("error", err.Error()),
		)
	}
	return resp, nil
}

func (h *FeedbackHandler) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.Year = h.now().Year()

	var buf bytes.Buffer
	if err := h.pages.render(&buf, "index", data); err != nil {
		h.logger.ErrorContext(r.Context(), "render storefront page", slog.String("error", err.Error()))
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
