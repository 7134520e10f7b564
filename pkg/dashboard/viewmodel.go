// Package dashboard holds the admin dashboard state: the last fetched reviews
// and analytics, the active rating filter and the auto-refresh toggle, plus
// the derived views rendered by the HTTP layer and the CLI.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/piyush182004/Fynd/pkg/feedbackapi"
)

// ErrRefreshFailed is returned for the review list while the last refresh
// failed. The list stays hidden until a refresh succeeds.
var ErrRefreshFailed = errors.New("dashboard refresh failed")

// Fetcher loads the two halves of the dashboard. *feedbackapi.Client
// satisfies it.
type Fetcher interface {
	ListReviews(ctx context.Context) (*feedbackapi.ReviewsResponse, error)
	GetAnalytics(ctx context.Context) (*feedbackapi.AnalyticsResponse, error)
}

// Phase is what the dashboard body shows.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseError   Phase = "error"
	PhaseEmpty   Phase = "empty"
	PhaseReady   Phase = "ready"
)

// ChartPoint is one bar of the rating distribution chart.
type ChartPoint struct {
	Label  string `json:"label"`
	Rating int    `json:"rating"`
	Count  int    `json:"count"`
}

// FilterCount is one filter button with the number of loaded reviews it
// would show.
type FilterCount struct {
	Filter Filter `json:"filter"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
	Active bool   `json:"active"`
}

// View is an immutable snapshot of the dashboard for rendering.
type View struct {
	Phase        Phase                         `json:"phase"`
	Error        string                        `json:"error,omitempty"`
	Filter       Filter                        `json:"filter"`
	AutoRefresh  bool                          `json:"auto_refresh"`
	LastRefresh  time.Time                     `json:"last_refresh,omitempty"`
	Total        int                           `json:"total_reviews"`
	Average      string                        `json:"average_rating"`
	Chart        []ChartPoint                  `json:"chart"`
	FilterCounts []FilterCount                 `json:"filters"`
	Reviews      []feedbackapi.Review          `json:"reviews"`
	Analytics    *feedbackapi.AnalyticsSummary `json:"analytics,omitempty"`
}

// ViewModel is safe for concurrent use. Overlapping refreshes are not
// fenced; the last one to finish wins.
type ViewModel struct {
	api    Fetcher
	logger *slog.Logger
	now    func() time.Time

	mu          sync.RWMutex
	reviews     []feedbackapi.Review
	analytics   *feedbackapi.AnalyticsSummary
	loading     bool
	errMsg      string
	filter      Filter
	autoRefresh bool
	lastRefresh time.Time
}

// New returns a view model in the loading phase with filter all and
// auto-refresh on.
func New(api Fetcher, logger *slog.Logger) *ViewModel {
	return &ViewModel{
		api:         api,
		logger:      logger,
		now:         time.Now,
		loading:     true,
		filter:      FilterAll,
		autoRefresh: true,
	}
}

// Refresh fetches reviews and analytics concurrently and applies the result
// once both have resolved. If either fails the dashboard enters the error
// phase and the previous data is kept. Each part is replaced only when its
// envelope reports success.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	start := time.Now()

	var (
		g         errgroup.Group
		reviews   *feedbackapi.ReviewsResponse
		analytics *feedbackapi.AnalyticsResponse
	)
	g.Go(func() error {
		var err error
		reviews, err = vm.api.ListReviews(ctx)
		if err != nil {
			return fmt.Errorf("list reviews: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		analytics, err = vm.api.GetAnalytics(ctx)
		if err != nil {
			return fmt.Errorf("get analytics: %w", err)
		}
		return nil
	})
	err := g.Wait()
	refreshDuration.Observe(time.Since(start).Seconds())

	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.loading = false
	vm.lastRefresh = vm.now()

	if err != nil {
		vm.errMsg = feedbackapi.DashboardFailedMessage
		refreshTotal.WithLabelValues("failed").Inc()
		vm.logger.WarnContext(ctx, "dashboard refresh failed", slog.String("error", err.Error()))
		return err
	}

	vm.errMsg = ""
	if reviews != nil && reviews.Success {
		vm.reviews = slices.Clone(reviews.Reviews)
	}
	if analytics != nil && analytics.Success && analytics.Analytics != nil {
		vm.analytics = cloneAnalytics(analytics.Analytics)
	}
	refreshTotal.WithLabelValues("success").Inc()
	lastSuccessfulRefresh.Set(float64(vm.lastRefresh.Unix()))
	reviewsLoaded.Set(float64(len(vm.reviews)))
	return nil
}

// SetFilter changes the active filter. It never triggers a fetch.
func (vm *ViewModel) SetFilter(f Filter) {
	if f == "" {
		f = FilterAll
	}
	vm.mu.Lock()
	vm.filter = f
	vm.mu.Unlock()
}

// Filter returns the active filter.
func (vm *ViewModel) Filter() Filter {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.filter
}

// SetAutoRefresh records the auto-refresh toggle.
func (vm *ViewModel) SetAutoRefresh(on bool) {
	vm.mu.Lock()
	vm.autoRefresh = on
	vm.mu.Unlock()
}

// AutoRefresh reports the auto-refresh toggle.
func (vm *ViewModel) AutoRefresh() bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.autoRefresh
}

// View snapshots the dashboard under the active filter.
func (vm *ViewModel) View() View {
	return vm.ViewWith(vm.Filter())
}

// ViewWith snapshots the dashboard under f without changing the active
// filter, so concurrent viewers can each filter independently.
func (vm *ViewModel) ViewWith(f Filter) View {
	if f == "" {
		f = FilterAll
	}

	vm.mu.RLock()
	defer vm.mu.RUnlock()

	v := View{
		Error:        vm.errMsg,
		Filter:       f,
		AutoRefresh:  vm.autoRefresh,
		LastRefresh:  vm.lastRefresh,
		Total:        totalReviews(vm.analytics),
		Average:      averageDisplay(vm.analytics),
		Chart:        chart(vm.analytics),
		FilterCounts: []FilterCount{},
		Reviews:      []feedbackapi.Review{},
		Analytics:    cloneAnalytics(vm.analytics),
	}

	switch {
	case vm.loading:
		v.Phase = PhaseLoading
		return v
	case vm.errMsg != "":
		v.Phase = PhaseError
		return v
	}

	v.Reviews = filterReviews(vm.reviews, f)
	v.FilterCounts = filterCounts(vm.reviews, f)
	v.Phase = PhaseReady
	if len(v.Reviews) == 0 {
		v.Phase = PhaseEmpty
	}
	return v
}

// Filtered returns the loaded reviews passing f, in fetch order. It fails
// with ErrRefreshFailed while the dashboard is in the error phase.
func (vm *ViewModel) Filtered(f Filter) ([]feedbackapi.Review, error) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.errMsg != "" {
		return nil, ErrRefreshFailed
	}
	return filterReviews(vm.reviews, f), nil
}

// Chart returns the rating distribution as bars, empty without analytics.
func (vm *ViewModel) Chart() []ChartPoint {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return chart(vm.analytics)
}

// AverageDisplay formats the average rating to one decimal, or "0.0".
func (vm *ViewModel) AverageDisplay() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return averageDisplay(vm.analytics)
}

// TotalDisplay returns the total review count, or 0 without analytics.
func (vm *ViewModel) TotalDisplay() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return totalReviews(vm.analytics)
}

// FilterCounts counts loaded reviews for each filter button under the
// active filter.
func (vm *ViewModel) FilterCounts() []FilterCount {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return filterCounts(vm.reviews, vm.filter)
}

// Tone is ToneFor, exposed on the view model for templates.
func (vm *ViewModel) Tone(rating int) Tone { return ToneFor(rating) }

func filterReviews(reviews []feedbackapi.Review, f Filter) []feedbackapi.Review {
	out := make([]feedbackapi.Review, 0, len(reviews))
	for _, r := range reviews {
		if f.Matches(r.Rating) {
			out = append(out, r)
		}
	}
	return out
}

// filterCounts lists All first, then 5 down to 1.
func filterCounts(reviews []feedbackapi.Review, active Filter) []FilterCount {
	counts := make(map[int]int, 5)
	for _, r := range reviews {
		counts[r.Rating]++
	}

	out := make([]FilterCount, 0, 6)
	out = append(out, FilterCount{
		Filter: FilterAll,
		Label:  "All",
		Count:  len(reviews),
		Active: active == FilterAll,
	})
	for rating := 5; rating >= 1; rating-- {
		f := FilterForRating(rating)
		out = append(out, FilterCount{
			Filter: f,
			Label:  fmt.Sprintf("%d Star", rating),
			Count:  counts[rating],
			Active: active == f,
		})
	}
	return out
}

// chart projects the distribution to bars ordered by rating ascending.
// Keys that are not integers are skipped.
func chart(a *feedbackapi.AnalyticsSummary) []ChartPoint {
	if a == nil {
		return nil
	}
	points := make([]ChartPoint, 0, len(a.RatingDistribution))
	for key, count := range a.RatingDistribution {
		rating, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		points = append(points, ChartPoint{
			Label:  fmt.Sprintf("%d Star", rating),
			Rating: rating,
			Count:  count,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Rating < points[j].Rating })
	return points
}

func averageDisplay(a *feedbackapi.AnalyticsSummary) string {
	if a == nil {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", a.AverageRating)
}

func totalReviews(a *feedbackapi.AnalyticsSummary) int {
	if a == nil {
		return 0
	}
	return a.TotalReviews
}

func cloneAnalytics(a *feedbackapi.AnalyticsSummary) *feedbackapi.AnalyticsSummary {
	if a == nil {
		return nil
	}
	c := *a
	if a.RatingDistribution != nil {
		c.RatingDistribution = make(map[string]int, len(a.RatingDistribution))
		for k, v := range a.RatingDistribution {
			c.RatingDistribution[k] = v
		}
	}
	return &c
}
