package pagination

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, Params{Page: 1, PerPage: DefaultPerPage}, p)
	assert.Zero(t, p.Offset())
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query      string
		want       Params
		wantOffset int
	}{
		{query: "", want: Params{1, 20}},
		{query: "page=3&per_page=50", want: Params{3, 50}, wantOffset: 100},
		{query: "page=-1", want: Params{1, 20}},
		{query: "page=0", want: Params{1, 20}},
		{query: "page=abc", want: Params{1, 20}},
		{query: "page=99999999999", want: Params{1, 20}},
		{query: "per_page=200", want: Params{1, 20}},
		{query: "per_page=100", want: Params{1, 100}},
		{query: "per_page=0", want: Params{1, 20}},
		{query: "page=5&per_page=20", want: Params{5, 20}, wantOffset: 80},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/reviews?"+tt.query, nil)
			p := FromRequest(req)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name     string
		params   Params
		wantData []int
		wantNext bool
		wantPrev bool
	}{
		{name: "first", params: Params{1, 3}, wantData: []int{1, 2, 3}, wantNext: true},
		{name: "middle", params: Params{2, 3}, wantData: []int{4, 5, 6}, wantNext: true, wantPrev: true},
		{name: "last", params: Params{3, 3}, wantData: []int{7}, wantPrev: true},
		{name: "past the end", params: Params{9, 3}, wantData: []int{}, wantPrev: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slice(items, tt.params)
			assert.Equal(t, tt.wantData, got.Data)
			assert.Equal(t, 7, got.TotalCount)
			assert.Equal(t, 3, got.TotalPages)
			assert.Equal(t, tt.wantNext, got.HasNext)
			assert.Equal(t, tt.wantPrev, got.HasPrev)
		})
	}
}

func TestSlice_EmptyEncodesAsArray(t *testing.T) {
	page := Slice[string](nil, DefaultParams())

	raw, err := json.Marshal(page)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":[]`)
	assert.Zero(t, page.TotalPages)
	assert.False(t, page.HasNext)
}

func TestSlice_DoesNotAliasInput(t *testing.T) {
	items := []int{1, 2, 3}
	page := Slice(items, DefaultParams())
	page.Data[0] = 99
	assert.Equal(t, 1, items[0])
}
