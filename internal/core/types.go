package core

import "github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Advisor            = domain.Advisor
	Client             = domain.Client
	Route              = domain.Route
	Survey             = domain.Survey
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	Transaction        = domain.Transaction
	View               = domain.View
)

const (
	EntityAdvisor = domain.EntityAdvisor
	EntityClient  = domain.EntityClient
	EntityRoute   = domain.EntityRoute
	EntitySurvey  = domain.EntitySurvey
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
