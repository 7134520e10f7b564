package dashboard

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter selects reviews by rating. FilterAll matches everything; "1".."5"
// match that rating exactly.
type Filter string

// FilterAll shows every fetched review.
const FilterAll Filter = "all"

// ErrInvalidFilter is returned by ParseFilter for anything but all or 1..5.
var ErrInvalidFilter = fmt.Errorf("filter must be %q or a rating from 1 to 5", FilterAll)

// ParseFilter parses a filter value. The empty string means all.
func ParseFilter(s string) (Filter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == string(FilterAll) {
		return FilterAll, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 5 {
		return "", ErrInvalidFilter
	}
	return Filter(strconv.Itoa(n)), nil
}

// FilterForRating returns the filter matching exactly rating.
func FilterForRating(rating int) Filter {
	return Filter(strconv.Itoa(rating))
}

// Rating returns the rating matched, or 0 for FilterAll.
func (f Filter) Rating() int {
	n, _ := strconv.Atoi(string(f))
	return n
}

// Matches reports whether a review with rating passes the filter.
func (f Filter) Matches(rating int) bool {
	if f == FilterAll || f == "" {
		return true
	}
	return f.Rating() == rating
}

// Tone is the visual emphasis given to a rating.
type Tone string

const (
	ToneStrong Tone = "strong"
	ToneMedium Tone = "medium"
	ToneMuted  Tone = "muted"
)

// ToneFor maps 4 and 5 to strong, 3 to medium and the rest to muted.
func ToneFor(rating int) Tone {
	switch {
	case rating >= 4:
		return ToneStrong
	case rating == 3:
		return ToneMedium
	default:
		return ToneMuted
	}
}
