// Package domain defines the field-sales entities, closed enumerations,
// integrity guard and rule evaluation primitives used by the SARC store.
package domain

import "time"

// EntityType identifies the type of record stored in the domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityAdvisor identifies a field sales representative.
	EntityAdvisor EntityType = "advisor"
	// EntityClient identifies a customer visited on routes.
	EntityClient EntityType = "client"
	// EntityRoute identifies a visit itinerary.
	EntityRoute EntityType = "route"
	// EntitySurvey identifies a post-visit satisfaction survey.
	EntitySurvey EntityType = "survey"
	// EntityUser identifies a directory account.
	EntityUser EntityType = "user"
)

// AdvisorTier is the experience level of an advisor.
type AdvisorTier string

// Advisor experience tiers.
const (
	TierJunior AdvisorTier = "junior"
	TierSenior AdvisorTier = "senior"
)

// Valid reports whether the tier belongs to the closed set.
func (t AdvisorTier) Valid() bool {
	return t == TierJunior || t == TierSenior
}

// Status marks advisors, clients and users as active or inactive.
type Status string

// Record statuses.
const (
	StatusActive   Status = "activo"
	StatusInactive Status = "inactivo"
)

// Valid reports whether the status belongs to the closed set.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// RouteStatus enumerates the route workflow states.
type RouteStatus string

// Route workflow: planificada -> en-progreso -> completada, or cancelada.
const (
	RoutePlanned    RouteStatus = "planificada"
	RouteInProgress RouteStatus = "en-progreso"
	RouteCompleted  RouteStatus = "completada"
	RouteCancelled  RouteStatus = "cancelada"
)

// RouteStatuses lists every route status in workflow order.
var RouteStatuses = []RouteStatus{RoutePlanned, RouteInProgress, RouteCompleted, RouteCancelled}

// Valid reports whether the status belongs to the closed set.
func (s RouteStatus) Valid() bool {
	switch s {
	case RoutePlanned, RouteInProgress, RouteCompleted, RouteCancelled:
		return true
	default:
		return false
	}
}

// Pending reports whether the route still awaits execution.
func (s RouteStatus) Pending() bool {
	return s == RoutePlanned || s == RouteInProgress
}

// ClientType is a free-text client category. The well-known values are
// listed below but any non-empty value is accepted.
type ClientType string

// Well-known client categories.
const (
	ClientWholesaler  ClientType = "mayorista"
	ClientDistributor ClientType = "distribuidor"
	ClientRetailer    ClientType = "minorista"
)

// Role is the directory role of a user.
type Role string

// Directory roles.
const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleAdvisor    Role = "asesor"
)

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSupervisor || r == RoleAdvisor
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Advisor is a field sales representative assigned to routes.
type Advisor struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name" validate:"min=3"`
	Email        string      `json:"email" validate:"email_shape"`
	Phone        string      `json:"phone"`
	Tier         AdvisorTier `json:"tier" validate:"enum"`
	Zone         string      `json:"zone"`
	Status       Status      `json:"status" validate:"enum"`
	RegisteredAt time.Time   `json:"registered_at"`
}

// Client is a business visited by advisors.
type Client struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name" validate:"min=3"`
	TaxID        string     `json:"tax_id" validate:"min=5"`
	Type         ClientType `json:"type" validate:"required"`
	ContactName  string     `json:"contact_name"`
	Email        string     `json:"email" validate:"omitempty,email_shape"`
	Phone        string     `json:"phone"`
	Address      string     `json:"address"`
	City         string     `json:"city"`
	Zone         string     `json:"zone"`
	Status       Status     `json:"status" validate:"enum"`
	Notes        string     `json:"notes"`
	RegisteredAt time.Time  `json:"registered_at"`
}

// Route is a planned or executed visit itinerary by one advisor.
type Route struct {
	ID           int64       `json:"id"`
	AdvisorID    int64       `json:"advisor_id" validate:"required"`
	Date         string      `json:"date" validate:"datetime=2006-01-02"`
	StartTime    string      `json:"start_time" validate:"datetime=15:04"`
	EndTime      string      `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	Zone         string      `json:"zone" validate:"required"`
	Status       RouteStatus `json:"status" validate:"enum"`
	Vehicle      string      `json:"vehicle,omitempty"`
	KmStart      *int64      `json:"km_start,omitempty" validate:"omitempty,gte=0"`
	KmEnd        *int64      `json:"km_end,omitempty" validate:"omitempty,gte=0"`
	ClientIDs    []int64     `json:"client_ids" validate:"min=1"`
	Observations string      `json:"observations"`
	RegisteredAt time.Time   `json:"registered_at"`
}

// HasClient reports whether the client is part of the route.
func (r Route) HasClient(clientID int64) bool {
	for _, id := range r.ClientIDs {
		if id == clientID {
			return true
		}
	}
	return false
}

// Kilometres returns the distance travelled, or 0 unless both readings are set.
func (r Route) Kilometres() int64 {
	if r.KmStart == nil || r.KmEnd == nil || *r.KmEnd < *r.KmStart {
		return 0
	}
	return *r.KmEnd - *r.KmStart
}

// Survey is a post-visit satisfaction rating for one client on one completed route.
type Survey struct {
	ID           int64     `json:"id"`
	RouteID      int64     `json:"route_id" validate:"required"`
	ClientID     int64     `json:"client_id" validate:"required"`
	Rating       int       `json:"rating" validate:"min=1,max=5"`
	Date         string    `json:"date" validate:"datetime=2006-01-02"`
	Comments     string    `json:"comments,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// User is a directory account. It lives outside the four domain collections.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	RegisteredAt time.Time `json:"registered_at"`
}

// Change describes a mutation applied within a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID int64
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
