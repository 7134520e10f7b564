package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piyush182004/Fynd/pkg/dashboard"
	"github.com/piyush182004/Fynd/pkg/feedbackapi"
	"github.com/piyush182004/Fynd/pkg/feedbackapi/feedbacktest"
	"github.com/piyush182004/Fynd/pkg/health"
	"github.com/piyush182004/Fynd/pkg/httputil"
)

type recordingToggle struct {
	mu    sync.Mutex
	calls []bool
}

func (r *recordingToggle) SetEnabled(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, on)
}

type testEnv struct {
	api    *feedbacktest.Server
	vm     *dashboard.ViewModel
	toggle *recordingToggle
	router http.Handler
}

func newTestEnv(t *testing.T, pprofCIDRs ...string) *testEnv {
	t.Helper()
	l := slog.New(slog.NewTextHandler(io.Discard, nil))

	api := feedbacktest.NewServer()
	t.Cleanup(api.Close)
	api.Seed(
		feedbackapi.Review{Rating: 5, Review: "Fast shipping", AISummary: "Happy with delivery"},
		feedbackapi.Review{Rating: 2, Review: "Item arrived broken"},
		feedbackapi.Review{Rating: 5, Review: "Would buy again"},
	)

	vm := dashboard.New(feedbackapi.New(feedbackapi.DefaultConfig(api.URL), l), l)
	toggle := &recordingToggle{}
	dh, err := NewDashboardHandler(vm, toggle, 5*time.Second, l)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Dashboard:  dh,
		Health:     health.NewServiceHandler(serviceName),
		PprofCIDRs: pprofCIDRs,
		Logger:     l,
	})
	return &testEnv{api: api, vm: vm, toggle: toggle, router: router}
}

func (e *testEnv) load(t *testing.T) {
	t.Helper()
	require.NoError(t, e.vm.Refresh(context.Background()))
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func getJSON(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Accept", "application/json")
	return req
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var env struct {
		Data  json.RawMessage         `json:"data"`
		Error *httputil.ErrorResponse `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.Nil(t, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func TestIndex_Loading(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Loading...")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestIndex_Ready(t *testing.T) {
	env := newTestEnv(t)
	env.load(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "Total Reviews")
	assert.Contains(t, body, "4.0")
	assert.Contains(t, body, "All (3)")
	assert.Contains(t, body, "5 Star (2)")
	assert.Contains(t, body, "Reviews (3)")
	assert.Contains(t, body, "Fast shipping")
	assert.Contains(t, body, "Happy with delivery")
	assert.Contains(t, body, `http-equiv="refresh" content="5"`)
}

func TestIndex_Filtered(t *testing.T) {
	env := newTestEnv(t)
	env.load(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/?rating=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "Reviews (1)")
	assert.Contains(t, body, "Item arrived broken")
	assert.NotContains(t, body, "Fast shipping")
	// Filtering a page view leaves the shared filter alone.
	assert.Equal(t, dashboard.FilterAll, env.vm.Filter())
}

func TestIndex_EmptyFilter(t *testing.T) {
	env := newTestEnv(t)
	env.load(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/?rating=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No reviews yet")
}

func TestIndex_InvalidFilter(t *testing.T) {
	env := newTestEnv(t)
	env.load(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/?rating=9", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rating filter must be all or a number from 1 to 5")
}

func TestIndex_ErrorPage(t *testing.T) {
	env := newTestEnv(t)
	env.api.Fail(feedbackapi.PathReviews, feedbacktest.Failure{Status: http.StatusInternalServerError, Message: "boom"})
	require.Error(t, env.vm.Refresh(context.Background()))

	rec := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Unable to load dashboard data")
	assert.Contains(t, body, "Retry")
}

func TestAPI_ErrorPhaseHidesReviews(t *testing.T) {
	env := newTestEnv(t)
	env.load(t)
	env.api.Fail(feedbackapi.PathReviews, feedbacktest.Failure{Status: http.StatusInternalServerError, Message: "boom"})
	require.Error(t, env.vm.Refresh(context.Background()))

	rec := env.do(getJSON("/api/v1/dashboard/reviews"))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	var failed struct {
		Error httputil.ErrorResponse `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&failed))
	assert.Equal(t, "REQUEST_FAILED", failed.Error.Code)
	assert.Equal(t, feedbackapi.DashboardFailedMessage, failed.Error.Message)

	rec = env.do(getJSON("/api/v1/dashboard"))
	require.Equal(t, http.StatusOK, rec.Code)
	var v dashboard.View
	decodeData(t, rec, &v)
	assert.Equal(t, dashboard.PhaseError, v.Phase)
	assert.Empty(t, v.Reviews)
	assert.Empty(t, v.FilterCounts)

	// Held data returns once a refresh succeeds.
	env.api.Fail(feedbackapi.PathReviews, feedbacktest.Failure{})
	env.load(t)
	rec = env.do(getJSON("/api/v1/dashboard/reviews"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIView(t *testing.T) {
	env := newTestEnv(t)
	env.load(t)

	rec := env.do(getJSON("/api/v1/dashboard?rating=5"))
	require.Equal(t, http.StatusOK, rec.Code)

	var v dashboard.View
	decodeData(t, rec, &v)
	assert.Equal(t, dashboard.PhaseReady, v.Phase)
	assert.Equal(t, dashboard.Filter("5"), v.Filter)
	assert.Len(t, v.Reviews, 2)
	assert.Equal(t, 3, v.Total)
	assert.Equal(t, "4.0", v.Average)
	require.Len(t, v.Chart, 5)
	assert.Equal(t, "1 Star", v.Chart[0].Label)
}

func TestAPIView_InvalidFilter(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(getJSON("/api/v1/dashboard?rating=zero"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

func TestAPIReviews_Paginated(t *testing.T) {
	env := newTestEnv(t)
	env.load(t)

	rec := env.do(getJSON("/api/v1/dashboard/reviews?per_page=2&page=2"))
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Data       []feedbackapi.Review `json:"data"`
		TotalCount int                  `json:"total_count"`
		TotalPages int                  `json:"total_pages"`
		HasPrev    bool                 `json:"has_prev"`
	}
	decodeData(t, rec, &page)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasPrev)
	require.Len(t, page.Data, 1)
	// Newest first, so the oldest seeded review is last.
	assert.Equal(t, "Fast shipping", page.Data[0].Review)
}

func TestRefresh_FormRedirectsKeepingFilter(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/refresh", strings.NewReader(url.Values{"rating": {"5"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := env.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?rating=5", rec.Header().Get("Location"))
	assert.Equal(t, dashboard.PhaseReady, env.vm.View().Phase)
	assert.Equal(t, 1, env.api.Calls(feedbackapi.PathReviews))
	assert.Equal(t, 1, env.api.Calls(feedbackapi.PathAnalytics))
}

func TestRefresh_JSON(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/refresh", nil)
	req.Header.Set("Accept", "application/json")
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var v dashboard.View
	decodeData(t, rec, &v)
	assert.Equal(t, dashboard.PhaseReady, v.Phase)
	assert.Len(t, v.Reviews, 3)
}

func TestRefresh_JSONFailure(t *testing.T) {
	env := newTestEnv(t)
	env.api.Fail(feedbackapi.PathAnalytics, feedbacktest.Failure{Status: http.StatusInternalServerError, Message: "db down"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/refresh", nil)
	req.Header.Set("Accept", "application/json")
	rec := env.do(req)

	assert.GreaterOrEqual(t, rec.Code, http.StatusInternalServerError)
	assert.Equal(t, dashboard.PhaseError, env.vm.View().Phase)
}

func TestAutoRefresh_Form(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/auto-refresh", strings.NewReader(url.Values{"enabled": {"false"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := env.do(req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.False(t, env.vm.AutoRefresh())
	assert.Equal(t, []bool{false}, env.toggle.calls)

	env.load(t)
	body := env.do(httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	assert.NotContains(t, body, `http-equiv="refresh"`)
	assert.Contains(t, body, "Auto-refresh (5s): off")
}

func TestAutoRefresh_JSON(t *testing.T) {
	env := newTestEnv(t)
	env.vm.SetAutoRefresh(false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/auto-refresh", strings.NewReader(`{"enabled":true}`))
	req.Header.Set("Content-Type", "application/json")
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got AutoRefreshRequest
	decodeData(t, rec, &got)
	assert.True(t, got.Enabled)
	assert.True(t, env.vm.AutoRefresh())
	assert.Equal(t, []bool{true}, env.toggle.calls)
}

func TestAutoRefresh_Invalid(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/auto-refresh", strings.NewReader("enabled=maybe"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, env.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/dashboard/auto-refresh", strings.NewReader(`{"enabled":`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, env.do(req).Code)

	assert.True(t, env.vm.AutoRefresh())
	assert.Empty(t, env.toggle.calls)
}

func TestStaticAndHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/static/admin.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=86400")

	assert.Equal(t, http.StatusOK, env.do(httptest.NewRequest(http.MethodGet, "/health/live", nil)).Code)
	assert.Equal(t, http.StatusOK, env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
}

func TestPprof(t *testing.T) {
	t.Run("not mounted by default", func(t *testing.T) {
		env := newTestEnv(t)
		assert.Equal(t, http.StatusNotFound, env.do(httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)).Code)
	})

	t.Run("allowed peer", func(t *testing.T) {
		env := newTestEnv(t, "192.0.2.0/24")
		req := httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		assert.Equal(t, http.StatusOK, env.do(req).Code)
	})

	t.Run("other peer", func(t *testing.T) {
		env := newTestEnv(t, "10.0.0.0/8")
		req := httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		assert.Equal(t, http.StatusForbidden, env.do(req).Code)
	})
}
