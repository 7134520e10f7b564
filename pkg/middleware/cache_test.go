package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheControl(t *testing.T) {
	h := CacheControl(86400)(okHandler())

	for method, want := range map[string]string{
		http.MethodGet:  "public, max-age=86400",
		http.MethodHead: "public, max-age=86400",
		http.MethodPost: "",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(method, "/static/style.css", nil))
		assert.Equal(t, want, rec.Header().Get("Cache-Control"), method)
	}
}

func TestNoStore(t *testing.T) {
	rec := httptest.NewRecorder()
	NoStore(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
