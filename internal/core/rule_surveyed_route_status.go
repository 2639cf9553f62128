package core

import (
	"context"
	"fmt"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// NewSurveyedRouteStatusRule blocks any commit that leaves a survey pointing
// at a route that is not completada.
func NewSurveyedRouteStatusRule() domain.Rule {
	return surveyedRouteStatusRule{}
}

type surveyedRouteStatusRule struct{}

func (surveyedRouteStatusRule) Name() string { return "surveyed_route_status" }

func (surveyedRouteStatusRule) Evaluate(_ context.Context, view domain.View, changes []domain.Change) (domain.Result, error) {
	touched := make(map[int64]struct{})
	for _, change := range changes {
		if change.Entity == domain.EntityRoute && change.Action == domain.ActionUpdate {
			if r, ok := change.After.(domain.Route); ok {
				touched[r.ID] = struct{}{}
			}
		}
	}

	res := domain.Result{}
	if len(touched) == 0 {
		return res, nil
	}
	reported := make(map[int64]struct{})
	for survey := range view.Surveys() {
		if _, ok := touched[survey.RouteID]; !ok {
			continue
		}
		if _, done := reported[survey.RouteID]; done {
			continue
		}
		route, ok := view.FindRoute(survey.RouteID)
		if !ok || route.Status == domain.RouteCompleted {
			continue
		}
		reported[survey.RouteID] = struct{}{}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "surveyed_route_status",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("route %d has surveys and must stay %s", route.ID, domain.RouteCompleted),
			Entity:   domain.EntityRoute,
			EntityID: route.ID,
		})
	}
	return res, nil
}
