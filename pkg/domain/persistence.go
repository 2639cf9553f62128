package domain

import (
	"context"
	"iter"
)

// AdvisorFilter narrows advisor listings. Zero values match everything.
type AdvisorFilter struct {
	Search string
	Zone   string
	Status Status
}

// ClientFilter narrows client listings. Zero values match everything.
type ClientFilter struct {
	Search string
	Type   ClientType
	Status Status
	Zone   string
}

// RouteFilter narrows route listings. Zero values match everything.
type RouteFilter struct {
	AdvisorID int64
	Status    RouteStatus
	Date      string
	Zone      string
}

// SurveyFilter narrows survey listings. Zero values match everything.
type SurveyFilter struct {
	RouteID  int64
	ClientID int64
}

// View provides read-only access to the four collections. Every sequence is
// lazy, finite and restartable. Advisors, clients and surveys come back in
// insertion order; routes newest first.
type View interface {
	Advisors() iter.Seq[Advisor]
	Clients() iter.Seq[Client]
	Routes() iter.Seq[Route]
	Surveys() iter.Seq[Survey]
	FindAdvisor(id int64) (Advisor, bool)
	FindClient(id int64) (Client, bool)
	FindRoute(id int64) (Route, bool)
	FindSurvey(id int64) (Survey, bool)
}

// Transaction exposes the repository operations a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() View
	CreateAdvisor(Advisor) (Advisor, error)
	UpdateAdvisor(id int64, a Advisor) (Advisor, error)
	DeleteAdvisor(id int64) error
	CreateClient(Client) (Client, error)
	UpdateClient(id int64, c Client) (Client, error)
	DeleteClient(id int64) error
	CreateRoute(Route) (Route, error)
	UpdateRoute(id int64, r Route) (Route, error)
	CompleteRoute(id int64) (Route, error)
	DeleteRoute(id int64) error
	CreateSurvey(Survey) (Survey, error)
	UpdateSurvey(id int64, s Survey) (Survey, error)
	DeleteSurvey(id int64) error
}

// Snapshot is a point-in-time copy of the four collections in their
// canonical list order.
type Snapshot struct {
	Advisors []Advisor `json:"advisors"`
	Clients  []Client  `json:"clients"`
	Routes   []Route   `json:"routes"`
	Surveys  []Survey  `json:"surveys"`
}

// PersistentStore is the repository abstraction consumed by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(View) error) error
	ExportState() Snapshot
	ImportState(Snapshot)
}
