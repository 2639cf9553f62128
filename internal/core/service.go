package core

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/infra/persistence/memory"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// Service exposes the transactional mutation entry points and the read side
// over the four domain collections.
type Service struct {
	// mu serializes commit plus save so a rollback never discards another
	// caller's mutation.
	mu        sync.Mutex
	store     *memory.Store
	clock     Clock
	logger    Logger
	audit     AuditRecorder
	metrics   MetricsRecorder
	tracer    Tracer
	persister Persister
}

// NewService constructs a service backed by the supplied store.
func NewService(store *memory.Store, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if store == nil {
		store = memory.NewStore(NewDefaultRulesEngine(), memory.WithNow(o.clock.Now))
	}
	return &Service{
		store:     store,
		clock:     o.clock,
		logger:    o.logger,
		audit:     o.audit,
		metrics:   o.metrics,
		tracer:    o.tracer,
		persister: o.persister,
	}
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine. The store shares the service clock.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return NewService(memory.NewStore(engine, memory.WithNow(o.clock.Now)), opts...)
}

// Store returns the underlying store.
func (s *Service) Store() *memory.Store {
	return s.store
}

// Load replaces the in-memory state with a previously saved snapshot. It does
// not trigger a save.
func (s *Service) Load(snapshot domain.Snapshot) {
	s.store.ImportState(snapshot)
	s.logger.Info("state loaded",
		"advisors", len(snapshot.Advisors),
		"clients", len(snapshot.Clients),
		"routes", len(snapshot.Routes),
		"surveys", len(snapshot.Surveys))
}

// Save re-serializes all four collections through the configured persister.
func (s *Service) Save(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.SaveDomain(ctx, s.store.ExportState()); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// mutate runs fn in a transaction and wraps it with tracing, metrics, audit
// and logging. On commit the full snapshot is handed to the persister; when
// the save fails the in-memory state is restored to what it was before fn.
func (s *Service) mutate(ctx context.Context, op string, fn func(tx Transaction) (int64, error)) (Result, error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, op)

	var entityID int64
	res, err := s.commit(ctx, func(tx Transaction) error {
		id, err := fn(tx)
		entityID = id
		return err
	})
	duration := time.Since(started)

	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	if err != nil {
		s.recordAuditError(ctx, op, entityID, duration, err)
		s.logFailure(op, entityID, err)
		return res, err
	}
	s.recordAuditSuccess(ctx, op, entityID, duration)
	for _, v := range res.Violations {
		s.logger.Warn("rule violation", "operation", op, "rule", v.Rule, "severity", v.Severity, "message", v.Message)
	}
	s.logger.Debug("operation committed", "operation", op, "id", entityID, "duration", duration)
	return res, nil
}

func (s *Service) commit(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var before domain.Snapshot
	if s.persister != nil {
		before = s.store.ExportState()
	}
	res, err := s.store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if err := s.Save(ctx); err != nil {
		s.store.ImportState(before)
		return Result{}, err
	}
	return res, nil
}

func (s *Service) logFailure(op string, id int64, err error) {
	if Outcome(err) == OutcomeRejected {
		s.logger.Info("operation rejected", "operation", op, "id", id, "error", err)
		return
	}
	s.logger.Error("operation failed", "operation", op, "id", id, "error", err)
}

type auditOperation struct {
	entity domain.EntityType
	action domain.Action
}

var auditOperations = map[string]auditOperation{
	"create_advisor": {domain.EntityAdvisor, domain.ActionCreate},
	"update_advisor": {domain.EntityAdvisor, domain.ActionUpdate},
	"delete_advisor": {domain.EntityAdvisor, domain.ActionDelete},
	"create_client":  {domain.EntityClient, domain.ActionCreate},
	"update_client":  {domain.EntityClient, domain.ActionUpdate},
	"delete_client":  {domain.EntityClient, domain.ActionDelete},
	"create_route":   {domain.EntityRoute, domain.ActionCreate},
	"update_route":   {domain.EntityRoute, domain.ActionUpdate},
	"complete_route": {domain.EntityRoute, domain.ActionUpdate},
	"delete_route":   {domain.EntityRoute, domain.ActionDelete},
	"create_survey":  {domain.EntitySurvey, domain.ActionCreate},
	"update_survey":  {domain.EntitySurvey, domain.ActionUpdate},
	"delete_survey":  {domain.EntitySurvey, domain.ActionDelete},
}

func (s *Service) recordAuditSuccess(ctx context.Context, op string, id int64, duration time.Duration) {
	s.recordAudit(ctx, op, id, duration, AuditStatusSuccess, nil)
}

func (s *Service) recordAuditError(ctx context.Context, op string, id int64, duration time.Duration, err error) {
	s.recordAudit(ctx, op, id, duration, AuditStatusError, err)
}

func (s *Service) recordAudit(ctx context.Context, op string, id int64, duration time.Duration, status AuditStatus, err error) {
	meta, ok := auditOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  id,
		Status:    status,
		Duration:  duration,
		Timestamp: s.clock.Now().UTC(),
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

// CreateAdvisor persists a new advisor.
func (s *Service) CreateAdvisor(ctx context.Context, advisor Advisor) (Advisor, Result, error) {
	var created Advisor
	res, err := s.mutate(ctx, "create_advisor", func(tx Transaction) (int64, error) {
		var err error
		created, err = tx.CreateAdvisor(advisor)
		return created.ID, err
	})
	return created, res, err
}

// UpdateAdvisor replaces the mutable fields of an advisor.
func (s *Service) UpdateAdvisor(ctx context.Context, id int64, advisor Advisor) (Advisor, Result, error) {
	var updated Advisor
	res, err := s.mutate(ctx, "update_advisor", func(tx Transaction) (int64, error) {
		var err error
		updated, err = tx.UpdateAdvisor(id, advisor)
		return id, err
	})
	return updated, res, err
}

// DeleteAdvisor removes an advisor that no route references.
func (s *Service) DeleteAdvisor(ctx context.Context, id int64) (Result, error) {
	return s.mutate(ctx, "delete_advisor", func(tx Transaction) (int64, error) {
		return id, tx.DeleteAdvisor(id)
	})
}

// CreateClient persists a new client.
func (s *Service) CreateClient(ctx context.Context, client Client) (Client, Result, error) {
	var created Client
	res, err := s.mutate(ctx, "create_client", func(tx Transaction) (int64, error) {
		var err error
		created, err = tx.CreateClient(client)
		return created.ID, err
	})
	return created, res, err
}

// UpdateClient replaces the mutable fields of a client.
func (s *Service) UpdateClient(ctx context.Context, id int64, client Client) (Client, Result, error) {
	var updated Client
	res, err := s.mutate(ctx, "update_client", func(tx Transaction) (int64, error) {
		var err error
		updated, err = tx.UpdateClient(id, client)
		return id, err
	})
	return updated, res, err
}

// DeleteClient removes a client and detaches it from every route.
func (s *Service) DeleteClient(ctx context.Context, id int64) (Result, error) {
	return s.mutate(ctx, "delete_client", func(tx Transaction) (int64, error) {
		return id, tx.DeleteClient(id)
	})
}

// CreateRoute persists a new route.
func (s *Service) CreateRoute(ctx context.Context, route Route) (Route, Result, error) {
	var created Route
	res, err := s.mutate(ctx, "create_route", func(tx Transaction) (int64, error) {
		var err error
		created, err = tx.CreateRoute(route)
		return created.ID, err
	})
	return created, res, err
}

// UpdateRoute replaces the mutable fields of a route.
func (s *Service) UpdateRoute(ctx context.Context, id int64, route Route) (Route, Result, error) {
	var updated Route
	res, err := s.mutate(ctx, "update_route", func(tx Transaction) (int64, error) {
		var err error
		updated, err = tx.UpdateRoute(id, route)
		return id, err
	})
	return updated, res, err
}

// CompleteRoute marks a route completada.
func (s *Service) CompleteRoute(ctx context.Context, id int64) (Route, Result, error) {
	var updated Route
	res, err := s.mutate(ctx, "complete_route", func(tx Transaction) (int64, error) {
		var err error
		updated, err = tx.CompleteRoute(id)
		return id, err
	})
	return updated, res, err
}

// DeleteRoute removes a route without surveys.
func (s *Service) DeleteRoute(ctx context.Context, id int64) (Result, error) {
	return s.mutate(ctx, "delete_route", func(tx Transaction) (int64, error) {
		return id, tx.DeleteRoute(id)
	})
}

// CreateSurvey records a rating for a client on a completed route.
func (s *Service) CreateSurvey(ctx context.Context, survey Survey) (Survey, Result, error) {
	var created Survey
	res, err := s.mutate(ctx, "create_survey", func(tx Transaction) (int64, error) {
		var err error
		created, err = tx.CreateSurvey(survey)
		return created.ID, err
	})
	return created, res, err
}

// UpdateSurvey replaces the mutable fields of a survey.
func (s *Service) UpdateSurvey(ctx context.Context, id int64, survey Survey) (Survey, Result, error) {
	var updated Survey
	res, err := s.mutate(ctx, "update_survey", func(tx Transaction) (int64, error) {
		var err error
		updated, err = tx.UpdateSurvey(id, survey)
		return id, err
	})
	return updated, res, err
}

// DeleteSurvey removes a survey.
func (s *Service) DeleteSurvey(ctx context.Context, id int64) (Result, error) {
	return s.mutate(ctx, "delete_survey", func(tx Transaction) (int64, error) {
		return id, tx.DeleteSurvey(id)
	})
}

// FindAdvisor returns an advisor by id.
func (s *Service) FindAdvisor(id int64) (Advisor, bool) { return s.store.GetAdvisor(id) }

// FindClient returns a client by id.
func (s *Service) FindClient(id int64) (Client, bool) { return s.store.GetClient(id) }

// FindRoute returns a route by id.
func (s *Service) FindRoute(id int64) (Route, bool) { return s.store.GetRoute(id) }

// FindSurvey returns a survey by id.
func (s *Service) FindSurvey(id int64) (Survey, bool) { return s.store.GetSurvey(id) }

// Advisors lists advisors matching the filter.
func (s *Service) Advisors(filter domain.AdvisorFilter) iter.Seq[Advisor] {
	return s.store.ListAdvisors(filter)
}

// Clients lists clients matching the filter.
func (s *Service) Clients(filter domain.ClientFilter) iter.Seq[Client] {
	return s.store.ListClients(filter)
}

// Routes lists routes matching the filter, newest first.
func (s *Service) Routes(filter domain.RouteFilter) iter.Seq[Route] {
	return s.store.ListRoutes(filter)
}

// Surveys lists surveys matching the filter.
func (s *Service) Surveys(filter domain.SurveyFilter) iter.Seq[Survey] {
	return s.store.ListSurveys(filter)
}

// View runs fn against a consistent read-only snapshot.
func (s *Service) View(ctx context.Context, fn func(View) error) error {
	return s.store.View(ctx, fn)
}
