// Package form holds the state of the review submission form.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "github.com/piyush182004/Fynd/pkg/errors"
	"github.com/piyush182004/Fynd/pkg/feedbackapi"
)

// MaxStars is the highest selectable rating.
const MaxStars = 5

// Messages shown for locally rejected submissions.
const (
	MsgSelectRating = "Please select a rating"
	MsgWriteReview  = "Please write a review"
)

var (
	// ErrBodyTooLong is returned by SetBody for input over MaxReviewLength characters.
	ErrBodyTooLong = fmt.Errorf("review exceeds %d characters", feedbackapi.MaxReviewLength)
	// ErrRatingOutOfRange is returned by SetRating outside 0..MaxStars.
	ErrRatingOutOfRange = fmt.Errorf("rating must be between 0 and %d", MaxStars)
)

// Submitter sends a review to the feedback API. *feedbackapi.Client
// satisfies it.
type Submitter interface {
	Submit(ctx context.Context, req feedbackapi.SubmitRequest) (*feedbackapi.SubmitResponse, error)
}

// Star is one rating button.
type Star struct {
	Value  int
	Active bool
}

// Glyph is the filled or hollow star character.
func (s Star) Glyph() string {
	if s.Active {
		return "★"
	}
	return "☆"
}

// Form is the submission form state. A zero Form is ready to use. It is not
// safe for concurrent use.
type Form struct {
	rating  int
	body    string
	success string
	errMsg  string
}

// New returns an empty form.
func New() *Form {
	return &Form{}
}

// Rating returns the selected rating, 0 when none.
func (f *Form) Rating() int { return f.rating }

// Body returns the review text as typed.
func (f *Form) Body() string { return f.body }

// SuccessMessage returns the backend's reply to the last accepted submission.
func (f *Form) SuccessMessage() string { return f.success }

// ErrorMessage returns the message for the last rejected submission.
func (f *Form) ErrorMessage() string { return f.errMsg }

// SetRating selects a rating. 0 clears the selection.
func (f *Form) SetRating(n int) error {
	if n < 0 || n > MaxStars {
		return ErrRatingOutOfRange
	}
	f.rating = n
	return nil
}

// SetBody replaces the review text. Input over the length limit is rejected
// and the previous text kept.
func (f *Form) SetBody(s string) error {
	if utf8.RuneCountInString(s) > feedbackapi.MaxReviewLength {
		return ErrBodyTooLong
	}
	f.body = s
	return nil
}

// Validate checks the form locally. The returned error wraps
// apperrors.ErrValidation.
func (f *Form) Validate() error {
	if f.rating == 0 {
		return apperrors.Validation(MsgSelectRating)
	}
	if strings.TrimSpace(f.body) == "" {
		return apperrors.Validation(MsgWriteReview)
	}
	return nil
}

// CanSubmit reports whether the submit button should be enabled.
func (f *Form) CanSubmit() bool {
	return f.Validate() == nil
}

// Submit validates and sends the form once. Validation failures never reach
// s. On success the rating and body are reset and the backend's message is
// kept; on failure the backend's error, or a generic message, is kept.
func (f *Form) Submit(ctx context.Context, s Submitter) (*feedbackapi.SubmitResponse, error) {
	if err := f.Validate(); err != nil {
		f.errMsg = apperrors.UserMessage(err, "")
		return nil, err
	}

	f.errMsg = ""
	f.success = ""

	resp, err := s.Submit(ctx, feedbackapi.SubmitRequest{
		Rating: f.rating,
		Review: strings.TrimSpace(f.body),
	})
	if err != nil {
		f.errMsg = apperrors.UserMessage(err, feedbackapi.SubmitFailedMessage)
		return nil, err
	}
	if resp == nil {
		err := apperrors.RequestFailed(0, feedbackapi.SubmitFailedMessage, errors.New("empty submit response"))
		f.errMsg = err.Message
		return nil, err
	}

	f.success = resp.Message
	f.rating = 0
	f.body = ""
	return resp, nil
}

// CharCount renders the length counter, e.g. "12/2000".
func (f *Form) CharCount() string {
	return fmt.Sprintf("%d/%d", utf8.RuneCountInString(f.body), feedbackapi.MaxReviewLength)
}

// Stars returns the five rating buttons in ascending order.
func (f *Form) Stars() []Star {
	stars := make([]Star, MaxStars)
	for i := range stars {
		stars[i] = Star{Value: i + 1, Active: f.rating >= i+1}
	}
	return stars
}

// RatingText describes the selection, empty when nothing is selected.
func (f *Form) RatingText() string {
	if f.rating == 0 {
		return ""
	}
	return fmt.Sprintf("%d of %d stars", f.rating, MaxStars)
}
