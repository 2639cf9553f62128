package core

import (
	"context"
	"fmt"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// RouteLifecycleRule flags routes leaving a terminal status. Reopening a
// completed or cancelled route is allowed but reported as a warning.
func RouteLifecycleRule() domain.Rule {
	return routeLifecycleRule{}
}

type routeLifecycleRule struct{}

var terminalRouteStatuses = map[domain.RouteStatus]struct{}{
	domain.RouteCompleted: {},
	domain.RouteCancelled: {},
}

func (routeLifecycleRule) Name() string { return "route_lifecycle" }

func (routeLifecycleRule) Evaluate(_ context.Context, _ domain.View, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityRoute || change.Action != domain.ActionUpdate {
			continue
		}
		before, ok := change.Before.(domain.Route)
		if !ok {
			continue
		}
		after, ok := change.After.(domain.Route)
		if !ok {
			continue
		}
		if _, terminal := terminalRouteStatuses[before.Status]; !terminal || after.Status == before.Status {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "route_lifecycle",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("route %d moved from %s to %s", after.ID, before.Status, after.Status),
			Entity:   domain.EntityRoute,
			EntityID: after.ID,
		})
	}
	return res, nil
}
