package core

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

var testNow = time.Date(2024, 1, 10, 16, 45, 0, 0, time.UTC)

func newTestService(opts ...ServiceOption) *Service {
	opts = append([]ServiceOption{WithClock(ClockFunc(func() time.Time { return testNow }))}, opts...)
	return NewInMemoryService(NewDefaultRulesEngine(), opts...)
}

func mustCreateAdvisor(t *testing.T, svc *Service, a Advisor) Advisor {
	t.Helper()
	created, _, err := svc.CreateAdvisor(context.Background(), a)
	if err != nil {
		t.Fatalf("create advisor: %v", err)
	}
	return created
}

func mustCreateClient(t *testing.T, svc *Service, c Client) Client {
	t.Helper()
	created, _, err := svc.CreateClient(context.Background(), c)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return created
}

func mustCreateRoute(t *testing.T, svc *Service, r Route) Route {
	t.Helper()
	created, _, err := svc.CreateRoute(context.Background(), r)
	if err != nil {
		t.Fatalf("create route: %v", err)
	}
	return created
}

func carlos() Advisor {
	return Advisor{Name: "Carlos Méndez", Email: "carlos@empresa.com", Tier: domain.TierSenior, Zone: "Centro"}
}

func client(name string, typ domain.ClientType) Client {
	return Client{Name: name, TaxID: "900" + name[:3] + "01", Type: typ, Zone: "Centro"}
}

func TestScenarioCreateAdvisor(t *testing.T) {
	svc := newTestService()
	created := mustCreateAdvisor(t, svc, carlos())
	if created.ID == 0 {
		t.Fatalf("expected id assigned")
	}

	var matches []Advisor
	for a := range svc.Advisors(domain.AdvisorFilter{}) {
		if a.Email == "carlos@empresa.com" {
			matches = append(matches, a)
		}
	}
	if len(matches) != 1 || matches[0].ID != created.ID {
		t.Fatalf("expected exactly one advisor with the email, got %+v", matches)
	}
	found, ok := svc.FindAdvisor(created.ID)
	if !ok || found != created {
		t.Fatalf("find returned %+v, want %+v", found, created)
	}
}

func TestScenarioAdvisorDeleteBlockedUntilRouteRemoved(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	a := mustCreateAdvisor(t, svc, carlos())
	c1 := mustCreateClient(t, svc, client("Supermercado Éxito", domain.ClientWholesaler))
	c2 := mustCreateClient(t, svc, client("Distribuidora Andina", domain.ClientDistributor))
	r := mustCreateRoute(t, svc, Route{AdvisorID: a.ID, Date: "2024-01-10", StartTime: "08:00", Zone: "Centro", ClientIDs: []int64{c1.ID, c2.ID}})

	if _, err := svc.DeleteAdvisor(ctx, a.ID); !errors.Is(err, domain.ErrIntegrity) {
		t.Fatalf("expected integrity violation, got %v", err)
	}
	if _, _, err := svc.CompleteRoute(ctx, r.ID); err != nil {
		t.Fatalf("complete route: %v", err)
	}
	if _, err := svc.DeleteAdvisor(ctx, a.ID); !errors.Is(err, domain.ErrIntegrity) {
		t.Fatalf("expected integrity violation with completed route, got %v", err)
	}
	if _, err := svc.DeleteRoute(ctx, r.ID); err != nil {
		t.Fatalf("delete route: %v", err)
	}
	if _, err := svc.DeleteAdvisor(ctx, a.ID); err != nil {
		t.Fatalf("delete advisor: %v", err)
	}
}

func TestScenarioSurveyFeedsAdvisorPerformance(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	a := mustCreateAdvisor(t, svc, carlos())
	c1 := mustCreateClient(t, svc, client("Supermercado Éxito", domain.ClientWholesaler))
	r := mustCreateRoute(t, svc, Route{AdvisorID: a.ID, Date: "2024-01-10", StartTime: "08:00", Zone: "Centro", Status: domain.RouteCompleted, ClientIDs: []int64{c1.ID}})

	if _, _, err := svc.CreateSurvey(ctx, Survey{RouteID: r.ID, ClientID: c1.ID, Rating: 5, Date: "2024-01-10"}); err != nil {
		t.Fatalf("create survey: %v", err)
	}
	perf, err := svc.AdvisorPerformance(ctx, r.AdvisorID)
	if err != nil {
		t.Fatalf("performance: %v", err)
	}
	if !perf.AverageRating.Valid || perf.AverageRating.Value != 5.0 {
		t.Fatalf("expected average 5.0, got %+v", perf.AverageRating)
	}
	if perf.TotalRoutes != 1 || perf.Completed != 1 || perf.Pending != 0 || perf.CompletionRate.Value != 1 {
		t.Fatalf("unexpected performance %+v", perf)
	}
}

func TestScenarioClientTypeBreakdown(t *testing.T) {
	svc := newTestService()
	mustCreateClient(t, svc, client("Mayorista Uno", domain.ClientWholesaler))
	mustCreateClient(t, svc, client("Distribuidor", domain.ClientDistributor))
	mustCreateClient(t, svc, client("Mayorista Dos", domain.ClientWholesaler))

	got := svc.ClientTypeBreakdown(context.Background())
	want := []ClientTypeShare{
		{Type: domain.ClientWholesaler, Count: 2, Percentage: 67},
		{Type: domain.ClientDistributor, Count: 1, Percentage: 33},
	}
	if !slices.Equal(got, want) {
		t.Fatalf("breakdown = %+v, want %+v", got, want)
	}
}

func TestClientDeleteCascade(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	a := mustCreateAdvisor(t, svc, carlos())
	c1 := mustCreateClient(t, svc, client("Supermercado Éxito", domain.ClientWholesaler))
	c2 := mustCreateClient(t, svc, client("Distribuidora Andina", domain.ClientDistributor))
	done := mustCreateRoute(t, svc, Route{AdvisorID: a.ID, Date: "2024-01-09", StartTime: "08:00", Zone: "Centro", Status: domain.RouteCompleted, ClientIDs: []int64{c1.ID, c2.ID}})
	planned := mustCreateRoute(t, svc, Route{AdvisorID: a.ID, Date: "2024-01-11", StartTime: "08:00", Zone: "Centro", ClientIDs: []int64{c2.ID}})

	if _, err := svc.DeleteClient(ctx, c2.ID); !errors.Is(err, domain.ErrIntegrity) {
		t.Fatalf("expected violation for client on planned route, got %v", err)
	}
	if _, err := svc.DeleteClient(ctx, c1.ID); err != nil {
		t.Fatalf("delete client on completed route only: %v", err)
	}
	route, _ := svc.FindRoute(done.ID)
	if !slices.Equal(route.ClientIDs, []int64{c2.ID}) {
		t.Fatalf("expected cascade, got %v", route.ClientIDs)
	}
	if route, _ := svc.FindRoute(planned.ID); !slices.Equal(route.ClientIDs, []int64{c2.ID}) {
		t.Fatalf("unrelated route changed: %v", route.ClientIDs)
	}
}

func TestDuplicateSurveyKeepsFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	a := mustCreateAdvisor(t, svc, carlos())
	c1 := mustCreateClient(t, svc, client("Supermercado Éxito", domain.ClientWholesaler))
	r := mustCreateRoute(t, svc, Route{AdvisorID: a.ID, Date: "2024-01-10", StartTime: "08:00", Zone: "Centro", ClientIDs: []int64{c1.ID}})

	survey := Survey{RouteID: r.ID, ClientID: c1.ID, Rating: 4, Date: "2024-01-10"}
	if _, _, err := svc.CreateSurvey(ctx, survey); !errors.Is(err, domain.ErrIntegrity) {
		t.Fatalf("expected violation for planned route, got %v", err)
	}
	if _, _, err := svc.CompleteRoute(ctx, r.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	first, _, err := svc.CreateSurvey(ctx, survey)
	if err != nil {
		t.Fatalf("first survey: %v", err)
	}
	survey.Rating = 1
	if _, _, err := svc.CreateSurvey(ctx, survey); !errors.Is(err, domain.ErrIntegrity) {
		t.Fatalf("expected duplicate violation, got %v", err)
	}
	all := slices.Collect(svc.Surveys(domain.SurveyFilter{}))
	if len(all) != 1 || all[0].ID != first.ID || all[0].Rating != 4 {
		t.Fatalf("expected the first survey to remain alone, got %+v", all)
	}
}

func TestSurveyedRouteCannotBeReopened(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	a := mustCreateAdvisor(t, svc, carlos())
	c1 := mustCreateClient(t, svc, client("Supermercado Éxito", domain.ClientWholesaler))
	r := mustCreateRoute(t, svc, Route{AdvisorID: a.ID, Date: "2024-01-10", StartTime: "08:00", Zone: "Centro", Status: domain.RouteCompleted, ClientIDs: []int64{c1.ID}})
	if _, _, err := svc.CreateSurvey(ctx, Survey{RouteID: r.ID, ClientID: c1.ID, Rating: 3, Date: "2024-01-10"}); err != nil {
		t.Fatalf("survey: %v", err)
	}

	reopen := r
	reopen.Status = domain.RouteInProgress
	_, _, err := svc.UpdateRoute(ctx, r.ID, reopen)
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if !errors.Is(err, domain.ErrIntegrity) {
		t.Fatalf("expected rule violation to match ErrIntegrity")
	}
	if got, _ := svc.FindRoute(r.ID); got.Status != domain.RouteCompleted {
		t.Fatalf("route status changed to %s", got.Status)
	}
}

func TestReopeningCompletedRouteWarns(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	a := mustCreateAdvisor(t, svc, carlos())
	c1 := mustCreateClient(t, svc, client("Supermercado Éxito", domain.ClientWholesaler))
	r := mustCreateRoute(t, svc, Route{AdvisorID: a.ID, Date: "2024-01-10", StartTime: "08:00", Zone: "Centro", Status: domain.RouteCompleted, ClientIDs: []int64{c1.ID}})

	reopen := r
	reopen.Status = domain.RoutePlanned
	_, res, err := svc.UpdateRoute(ctx, r.ID, reopen)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Rule != "route_lifecycle" || res.Violations[0].Severity != domain.SeverityWarn {
		t.Fatalf("expected lifecycle warning, got %+v", res.Violations)
	}
}

type capturePersister struct {
	saves []domain.Snapshot
	err   error
}

func (p *capturePersister) SaveDomain(_ context.Context, s domain.Snapshot) error {
	if p.err != nil {
		return p.err
	}
	p.saves = append(p.saves, s)
	return nil
}

func TestPersisterReceivesAllCollectionsAfterEachMutation(t *testing.T) {
	ctx := context.Background()
	persister := &capturePersister{}
	svc := newTestService(WithPersister(persister))

	a := mustCreateAdvisor(t, svc, carlos())
	mustCreateClient(t, svc, client("Supermercado Éxito", domain.ClientWholesaler))
	if _, _, err := svc.CreateAdvisor(ctx, Advisor{Name: "x"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if len(persister.saves) != 2 {
		t.Fatalf("expected 2 saves, got %d", len(persister.saves))
	}
	last := persister.saves[1]
	if len(last.Advisors) != 1 || last.Advisors[0].ID != a.ID || len(last.Clients) != 1 {
		t.Fatalf("expected full snapshot, got %+v", last)
	}
}

func TestPersisterFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	persister := &capturePersister{}
	svc := newTestService(WithPersister(persister))
	kept := mustCreateAdvisor(t, svc, carlos())

	persister.err = errors.New("disk full")
	_, _, err := svc.CreateAdvisor(ctx, Advisor{Name: "Ana Rodríguez", Email: "ana@empresa.com", Tier: domain.TierJunior})
	if err == nil || errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected save error, got %v", err)
	}
	if _, err := svc.DeleteAdvisor(ctx, kept.ID); err == nil {
		t.Fatalf("expected delete to report the save error")
	}
	advisors := slices.Collect(svc.Advisors(domain.AdvisorFilter{}))
	if len(advisors) != 1 || advisors[0].ID != kept.ID {
		t.Fatalf("expected only the saved advisor after failed saves, got %+v", advisors)
	}

	persister.err = nil
	retried := mustCreateAdvisor(t, svc, Advisor{Name: "Ana Rodríguez", Email: "ana@empresa.com", Tier: domain.TierJunior})
	if n := len(slices.Collect(svc.Advisors(domain.AdvisorFilter{}))); n != 2 {
		t.Fatalf("expected retry to add exactly one advisor, got %d", n)
	}
	if retried.ID <= kept.ID {
		t.Fatalf("expected a fresh id, got %d after %d", retried.ID, kept.ID)
	}
}

func TestSeedDemoOnlyOnce(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	seeded, err := svc.SeedDemo(ctx)
	if err != nil || !seeded {
		t.Fatalf("first seed: seeded=%v err=%v", seeded, err)
	}
	seeded, err = svc.SeedDemo(ctx)
	if err != nil || seeded {
		t.Fatalf("second seed: seeded=%v err=%v", seeded, err)
	}
	stats := svc.DashboardStats(ctx)
	if stats.AdvisorsTotal != len(DemoAdvisors) || stats.ClientsTotal != len(DemoClients) {
		t.Fatalf("unexpected stats after seed %+v", stats)
	}
}
