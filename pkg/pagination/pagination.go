// Package pagination pages in-memory lists for JSON listing endpoints.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 100

	// maxPage keeps (Page-1)*PerPage from overflowing.
	maxPage = 1 << 24
)

// Params selects one page. Page counts from 1.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// DefaultParams is the first page at the default size.
func DefaultParams() Params {
	return Params{Page: 1, PerPage: DefaultPerPage}
}

// Offset is the index of the page's first item.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// FromRequest reads ?page= and ?per_page=. A missing, malformed or
// out-of-range value keeps its default rather than failing the request.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	p := DefaultParams()
	p.Page = boundedInt(q.Get("page"), p.Page, maxPage)
	p.PerPage = boundedInt(q.Get("per_page"), p.PerPage, MaxPerPage)
	return p
}

func boundedInt(raw string, fallback, limit int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 || v > limit {
		return fallback
	}
	return v
}

// Page is one page of a listing plus the totals a client needs to walk it.
type Page[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// Slice copies out the page p of items. Past the last page Data is empty,
// never null.
func Slice[T any](items []T, p Params) Page[T] {
	start := min(p.Offset(), len(items))
	end := min(start+p.PerPage, len(items))

	data := make([]T, end-start)
	copy(data, items[start:end])

	pages := 0
	if p.PerPage > 0 {
		pages = (len(items) + p.PerPage - 1) / p.PerPage
	}
	return Page[T]{
		Data:       data,
		TotalCount: len(items),
		Page:       p.Page,
		PerPage:    p.PerPage,
		TotalPages: pages,
		HasNext:    p.Page < pages,
		HasPrev:    p.Page > 1,
	}
}
