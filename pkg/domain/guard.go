package domain

// The guard functions below are evaluated before a delete or survey create
// proceeds. They never fail; callers turn a false result into an
// IntegrityViolation.

// CanDeleteAdvisor is false while any route, in any status, references the advisor.
func CanDeleteAdvisor(view View, advisorID int64) bool {
	for route := range view.Routes() {
		if route.AdvisorID == advisorID {
			return false
		}
	}
	return true
}

// CanDeleteClient is false while a route that is not completed lists the client.
func CanDeleteClient(view View, clientID int64) bool {
	for route := range view.Routes() {
		if route.Status != RouteCompleted && route.HasClient(clientID) {
			return false
		}
	}
	return true
}

// CanDeleteRoute is false while surveys reference the route.
func CanDeleteRoute(view View, routeID int64) bool {
	for survey := range view.Surveys() {
		if survey.RouteID == routeID {
			return false
		}
	}
	return true
}

// CanCreateSurvey is false when the route or client is missing, the route is
// not completed, or a survey already exists for the pair.
func CanCreateSurvey(view View, routeID, clientID int64) bool {
	return surveyBlocker(view, routeID, clientID) == ""
}

// surveyBlocker returns the reason a survey cannot be created, or "".
func surveyBlocker(view View, routeID, clientID int64) string {
	route, ok := view.FindRoute(routeID)
	if !ok {
		return "route does not exist"
	}
	if _, ok := view.FindClient(clientID); !ok {
		return "client does not exist"
	}
	if route.Status != RouteCompleted {
		return "route is not completed"
	}
	for survey := range view.Surveys() {
		if survey.RouteID == routeID && survey.ClientID == clientID {
			return "a survey already exists for this route and client"
		}
	}
	return ""
}

// SurveyBlocker exposes the human readable reason behind CanCreateSurvey.
func SurveyBlocker(view View, routeID, clientID int64) string {
	return surveyBlocker(view, routeID, clientID)
}

// ValidateRouteKm is true when either reading is absent or zero, or end >= start.
func ValidateRouteKm(start, end *int64) bool {
	if start == nil || end == nil || *start == 0 || *end == 0 {
		return true
	}
	return *end >= *start
}
