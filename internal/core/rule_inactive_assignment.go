package core

import (
	"context"
	"fmt"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// NewInactiveAssignmentRule warns when a created or edited route involves an
// inactive advisor or client.
func NewInactiveAssignmentRule() domain.Rule {
	return inactiveAssignmentRule{}
}

type inactiveAssignmentRule struct{}

func (inactiveAssignmentRule) Name() string { return "inactive_assignment" }

func (inactiveAssignmentRule) Evaluate(_ context.Context, view domain.View, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityRoute || change.Action == domain.ActionDelete {
			continue
		}
		route, ok := change.After.(domain.Route)
		if !ok {
			continue
		}
		if advisor, ok := view.FindAdvisor(route.AdvisorID); ok && advisor.Status == domain.StatusInactive {
			res.Violations = append(res.Violations, warnInactive(route.ID, fmt.Sprintf("advisor %s is inactive", advisor.Name)))
		}
		for _, id := range route.ClientIDs {
			if client, ok := view.FindClient(id); ok && client.Status == domain.StatusInactive {
				res.Violations = append(res.Violations, warnInactive(route.ID, fmt.Sprintf("client %s is inactive", client.Name)))
			}
		}
	}
	return res, nil
}

func warnInactive(routeID int64, msg string) domain.Violation {
	return domain.Violation{
		Rule:     "inactive_assignment",
		Severity: domain.SeverityWarn,
		Message:  fmt.Sprintf("route %d: %s", routeID, msg),
		Entity:   domain.EntityRoute,
		EntityID: routeID,
	}
}
