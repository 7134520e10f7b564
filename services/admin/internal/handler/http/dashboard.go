package http

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/piyush182004/Fynd/pkg/dashboard"
	apperrors "github.com/piyush182004/Fynd/pkg/errors"
	"github.com/piyush182004/Fynd/pkg/feedbackapi"
	"github.com/piyush182004/Fynd/pkg/httputil"
	"github.com/piyush182004/Fynd/pkg/pagination"
	"github.com/piyush182004/Fynd/pkg/validator"
)

// msgInvalidFilter is shown when the rating query parameter is not all or 1..5.
const msgInvalidFilter = "Rating filter must be all or a number from 1 to 5"

// AutoRefresher switches periodic refresh on and off. *poller.Poller
// satisfies it.
type AutoRefresher interface {
	SetEnabled(on bool)
}

// DashboardHandler serves the admin dashboard page and its JSON API.
type DashboardHandler struct {
	vm       *dashboard.ViewModel
	poller   AutoRefresher
	interval time.Duration
	pages    *renderer
	logger   *slog.Logger
}

// NewDashboardHandler creates the dashboard handler. interval is shown on
// the auto-refresh toggle and drives the page's reload period.
func NewDashboardHandler(vm *dashboard.ViewModel, poller AutoRefresher, interval time.Duration, logger *slog.Logger) (*DashboardHandler, error) {
	pages, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &DashboardHandler{
		vm:       vm,
		poller:   poller,
		interval: interval,
		pages:    pages,
		logger:   logger,
	}, nil
}

// --- Request / response DTOs ---

// AutoRefreshRequest is the JSON body of POST /auto-refresh.
type AutoRefreshRequest struct {
	Enabled bool `json:"enabled"`
}

type pageData struct {
	View           dashboard.View
	Notice         string
	RefreshSeconds int
}

// Index renders the dashboard. The rating query parameter filters the list
// for this request only.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	f, err := dashboard.ParseFilter(r.URL.Query().Get("rating"))
	if err != nil {
		h.renderPage(w, r, http.StatusBadRequest, h.vm.ViewWith(dashboard.FilterAll), msgInvalidFilter)
		return
	}
	h.renderPage(w, r, http.StatusOK, h.vm.ViewWith(f), "")
}

// View returns the dashboard snapshot as JSON.
func (h *DashboardHandler) View(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filterParam(w, r)
	if !ok {
		return
	}
	httputil.WriteData(w, http.StatusOK, h.vm.ViewWith(f))
}

// Reviews pages through the loaded reviews that pass the rating filter.
func (h *DashboardHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	f, ok := h.filterParam(w, r)
	if !ok {
		return
	}
	reviews, err := h.vm.Filtered(f)
	if err != nil {
		httputil.WriteError(w, r, refreshError(err), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, pagination.Slice(reviews, pagination.FromRequest(r)))
}

// Refresh fetches fresh data now. Browsers are redirected back to the
// dashboard, keeping their filter.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	err := h.vm.Refresh(r.Context())
	recordAction("refresh", err)

	if httputil.WantsJSON(r) {
		if err != nil {
			httputil.WriteError(w, r, refreshError(err), h.logger)
			return
		}
		httputil.WriteData(w, http.StatusOK, h.vm.ViewWith(dashboard.FilterAll))
		return
	}
	h.redirectHome(w, r)
}

// SetAutoRefresh turns periodic refresh on or off. Forms send enabled=true
// or enabled=false; JSON clients send AutoRefreshRequest.
func (h *DashboardHandler) SetAutoRefresh(w http.ResponseWriter, r *http.Request) {
	var on bool
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req AutoRefreshRequest
		if err := validator.DecodeAndValidate(r, &req); err != nil {
			recordAction("auto_refresh", err)
			httputil.WriteError(w, r, apperrors.InvalidInput("request body must be a JSON object with enabled"), h.logger)
			return
		}
		on = req.Enabled
	} else {
		v, err := strconv.ParseBool(r.FormValue("enabled"))
		if err != nil {
			recordAction("auto_refresh", err)
			http.Error(w, "enabled must be true or false", http.StatusBadRequest)
			return
		}
		on = v
	}

	h.vm.SetAutoRefresh(on)
	if h.poller != nil {
		h.poller.SetEnabled(on)
	}
	recordAction("auto_refresh", nil)
	h.logger.InfoContext(r.Context(), "auto refresh changed", slog.Bool("enabled", on))

	if httputil.WantsJSON(r) {
		httputil.WriteData(w, http.StatusOK, AutoRefreshRequest{Enabled: on})
		return
	}
	h.redirectHome(w, r)
}

// --- Helpers ---

func (h *DashboardHandler) filterParam(w http.ResponseWriter, r *http.Request) (dashboard.Filter, bool) {
	f, err := dashboard.ParseFilter(r.URL.Query().Get("rating"))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(msgInvalidFilter), h.logger)
		return "", false
	}
	return f, true
}

func (h *DashboardHandler) redirectHome(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if f, err := dashboard.ParseFilter(r.FormValue("rating")); err == nil && f != dashboard.FilterAll {
		target = "/?rating=" + string(f)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *DashboardHandler) renderPage(w http.ResponseWriter, r *http.Request, status int, v dashboard.View, notice string) {
	data := pageData{
		View:           v,
		Notice:         notice,
		RefreshSeconds: max(1, int(h.interval/time.Second)),
	}

	var buf bytes.Buffer
	if err := h.pages.render(&buf, "dashboard", data); err != nil {
		h.logger.ErrorContext(r.Context(), "render dashboard", slog.String("error", err.Error()))
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// refreshError keeps feedback API errors as they are and reports anything
// else as the dashboard's load failure.
func refreshError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.RequestFailed(http.StatusBadGateway, feedbackapi.DashboardFailedMessage, err)
}

func recordAction(action string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failed"
	}
	actionsTotal.WithLabelValues(action, outcome).Inc()
}
