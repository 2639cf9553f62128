package core

import (
	"context"
	"slices"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// DashboardStats summarises the four collections.
type DashboardStats struct {
	AdvisorsActive  int
	AdvisorsTotal   int
	ClientsActive   int
	ClientsTotal    int
	RoutesTotal     int
	RoutesCompleted int
	RoutesPending   int
	AverageRating   domain.Average
}

// AdvisorPerformance reports route completion and satisfaction for one advisor.
type AdvisorPerformance struct {
	Advisor        Advisor
	TotalRoutes    int
	Completed      int
	Pending        int
	CompletionRate domain.Ratio
	AverageRating  domain.Average
}

// ClientTypeShare is one row of the client type breakdown.
type ClientTypeShare struct {
	Type       domain.ClientType
	Count      int
	Percentage int
}

// AdvisorRouteCount pairs an advisor with the number of routes assigned.
type AdvisorRouteCount struct {
	Advisor Advisor
	Routes  int
}

// ComputeDashboardStats derives the dashboard counters from view.
func ComputeDashboardStats(view View) DashboardStats {
	var stats DashboardStats
	for a := range view.Advisors() {
		stats.AdvisorsTotal++
		if a.Status == domain.StatusActive {
			stats.AdvisorsActive++
		}
	}
	for c := range view.Clients() {
		stats.ClientsTotal++
		if c.Status == domain.StatusActive {
			stats.ClientsActive++
		}
	}
	for r := range view.Routes() {
		stats.RoutesTotal++
		switch {
		case r.Status == domain.RouteCompleted:
			stats.RoutesCompleted++
		case r.Status.Pending():
			stats.RoutesPending++
		}
	}
	var ratings []int
	for s := range view.Surveys() {
		ratings = append(ratings, s.Rating)
	}
	stats.AverageRating = domain.MeanRating(ratings)
	return stats
}

// ComputeAdvisorPerformance returns the performance of advisorID. Pending
// counts every route that is not completada, cancelled ones included.
func ComputeAdvisorPerformance(view View, advisorID int64) (AdvisorPerformance, error) {
	advisor, ok := view.FindAdvisor(advisorID)
	if !ok {
		return AdvisorPerformance{}, domain.NotFoundError{Entity: domain.EntityAdvisor, ID: advisorID}
	}
	return advisorPerformance(view, advisor), nil
}

func advisorPerformance(view View, advisor Advisor) AdvisorPerformance {
	perf := AdvisorPerformance{Advisor: advisor}
	owned := make(map[int64]struct{})
	for r := range view.Routes() {
		if r.AdvisorID != advisor.ID {
			continue
		}
		owned[r.ID] = struct{}{}
		perf.TotalRoutes++
		if r.Status == domain.RouteCompleted {
			perf.Completed++
		}
	}
	perf.Pending = perf.TotalRoutes - perf.Completed
	perf.CompletionRate = domain.NewRatio(perf.Completed, perf.TotalRoutes)

	var ratings []int
	for s := range view.Surveys() {
		if _, ok := owned[s.RouteID]; ok {
			ratings = append(ratings, s.Rating)
		}
	}
	perf.AverageRating = domain.MeanRating(ratings)
	return perf
}

// ComputePerformanceReport returns one row per advisor with at least one
// route, in advisor order.
func ComputePerformanceReport(view View) []AdvisorPerformance {
	var rows []AdvisorPerformance
	for a := range view.Advisors() {
		perf := advisorPerformance(view, a)
		if perf.TotalRoutes == 0 {
			continue
		}
		rows = append(rows, perf)
	}
	return rows
}

// ComputeClientTypeBreakdown groups clients by type in order of first
// appearance. Percentages are rounded independently and need not sum to 100.
func ComputeClientTypeBreakdown(view View) []ClientTypeShare {
	var rows []ClientTypeShare
	index := make(map[domain.ClientType]int)
	total := 0
	for c := range view.Clients() {
		total++
		i, ok := index[c.Type]
		if !ok {
			i = len(rows)
			index[c.Type] = i
			rows = append(rows, ClientTypeShare{Type: c.Type})
		}
		rows[i].Count++
	}
	for i := range rows {
		rows[i].Percentage = domain.NewRatio(rows[i].Count, total).Percent()
	}
	return rows
}

// ComputeRatingHistogram counts ratings 1..5 into buckets 0..4.
func ComputeRatingHistogram(view View) [5]int {
	var hist [5]int
	for s := range view.Surveys() {
		if s.Rating < 1 || s.Rating > 5 {
			continue
		}
		hist[s.Rating-1]++
	}
	return hist
}

// ComputeTopAdvisorsByRouteCount orders advisors by route count descending,
// breaking ties by id ascending, and keeps the first n.
func ComputeTopAdvisorsByRouteCount(view View, n int) []AdvisorRouteCount {
	if n <= 0 {
		return nil
	}
	counts := make(map[int64]int)
	for r := range view.Routes() {
		counts[r.AdvisorID]++
	}
	var rows []AdvisorRouteCount
	for a := range view.Advisors() {
		rows = append(rows, AdvisorRouteCount{Advisor: a, Routes: counts[a.ID]})
	}
	slices.SortStableFunc(rows, func(a, b AdvisorRouteCount) int {
		if a.Routes != b.Routes {
			return b.Routes - a.Routes
		}
		switch {
		case a.Advisor.ID < b.Advisor.ID:
			return -1
		case a.Advisor.ID > b.Advisor.ID:
			return 1
		}
		return 0
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// ComputeRouteStatusCounts counts routes for every known status.
func ComputeRouteStatusCounts(view View) map[domain.RouteStatus]int {
	counts := make(map[domain.RouteStatus]int, len(domain.RouteStatuses))
	for _, st := range domain.RouteStatuses {
		counts[st] = 0
	}
	for r := range view.Routes() {
		counts[r.Status]++
	}
	return counts
}

// ComputeRecentRoutes returns the n newest routes.
func ComputeRecentRoutes(view View, n int) []Route {
	var out []Route
	if n <= 0 {
		return out
	}
	for r := range view.Routes() {
		out = append(out, r)
		if len(out) == n {
			break
		}
	}
	return out
}

// ComputeRecentSurveys returns the n most recently registered surveys.
func ComputeRecentSurveys(view View, n int) []Survey {
	if n <= 0 {
		return nil
	}
	all := slices.Collect(view.Surveys())
	slices.Reverse(all)
	slices.SortStableFunc(all, func(a, b Survey) int {
		return b.RegisteredAt.Compare(a.RegisteredAt)
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

// viewValue runs fn over a consistent view. A failed view is logged and
// yields the zero value, which the dashboard renders as empty.
func viewValue[T any](ctx context.Context, s *Service, fn func(View) T) T {
	var out T
	if err := s.store.View(ctx, func(v View) error {
		out = fn(v)
		return nil
	}); err != nil {
		s.logger.Error("aggregate view failed", "error", err)
	}
	return out
}

// DashboardStats computes the dashboard counters.
func (s *Service) DashboardStats(ctx context.Context) DashboardStats {
	return viewValue(ctx, s, ComputeDashboardStats)
}

// AdvisorPerformance computes the performance of one advisor.
func (s *Service) AdvisorPerformance(ctx context.Context, advisorID int64) (AdvisorPerformance, error) {
	var perf AdvisorPerformance
	err := s.store.View(ctx, func(v View) error {
		var err error
		perf, err = ComputeAdvisorPerformance(v, advisorID)
		return err
	})
	return perf, err
}

// PerformanceReport computes the per-advisor report.
func (s *Service) PerformanceReport(ctx context.Context) []AdvisorPerformance {
	return viewValue(ctx, s, ComputePerformanceReport)
}

// ClientTypeBreakdown computes the client type shares.
func (s *Service) ClientTypeBreakdown(ctx context.Context) []ClientTypeShare {
	return viewValue(ctx, s, ComputeClientTypeBreakdown)
}

// RatingHistogram computes the survey rating histogram.
func (s *Service) RatingHistogram(ctx context.Context) [5]int {
	return viewValue(ctx, s, ComputeRatingHistogram)
}

// TopAdvisorsByRouteCount ranks advisors by number of routes.
func (s *Service) TopAdvisorsByRouteCount(ctx context.Context, n int) []AdvisorRouteCount {
	return viewValue(ctx, s, func(v View) []AdvisorRouteCount { return ComputeTopAdvisorsByRouteCount(v, n) })
}

// RouteStatusCounts counts routes per status.
func (s *Service) RouteStatusCounts(ctx context.Context) map[domain.RouteStatus]int {
	return viewValue(ctx, s, ComputeRouteStatusCounts)
}

// RecentRoutes returns the n newest routes.
func (s *Service) RecentRoutes(ctx context.Context, n int) []Route {
	return viewValue(ctx, s, func(v View) []Route { return ComputeRecentRoutes(v, n) })
}

// RecentSurveys returns the n most recent surveys.
func (s *Service) RecentSurveys(ctx context.Context, n int) []Survey {
	return viewValue(ctx, s, func(v View) []Survey { return ComputeRecentSurveys(v, n) })
}
