// Package memory provides the in-memory implementation of the domain
// persistence store. It owns the advisor, client, route and survey
// collections; durability is handled one layer up by snapshotting.
package memory

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Advisor aliases domain.Advisor for in-memory persistence operations.
	Advisor = domain.Advisor
	// Client aliases domain.Client.
	Client = domain.Client
	// Route aliases domain.Route.
	Route = domain.Route
	// Survey aliases domain.Survey.
	Survey = domain.Survey
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// View aliases domain.View providing read-only state.
	View = domain.View
	// Snapshot aliases domain.Snapshot.
	Snapshot = domain.Snapshot
)

// Option configures a Store.
type Option func(*Store)

// WithNow overrides the clock used for ids, registration timestamps and
// route completion times.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// Store is an in-memory transactional store.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Any error returned by fn, or a blocking rule result, discards the copy.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil && len(tx.changes) > 0 {
		res, err := s.engine.Evaluate(ctx, newStateView(&tx.state), tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(ctx context.Context, fn func(View) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(newStateView(&snapshot))
}

// snapshotView clones the committed state for the list helpers so that the
// returned sequences never observe later commits.
func (s *Store) snapshotView() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cloned := s.state.clone()
	return newStateView(&cloned)
}

// GetAdvisor returns an advisor by id.
func (s *Store) GetAdvisor(id int64) (Advisor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newStateView(&s.state).FindAdvisor(id)
}

// ListAdvisors returns advisors matching the filter in insertion order.
func (s *Store) ListAdvisors(filter domain.AdvisorFilter) iter.Seq[Advisor] {
	return domain.Filter(s.snapshotView().Advisors(), filter.Match)
}

// GetClient returns a client by id.
func (s *Store) GetClient(id int64) (Client, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newStateView(&s.state).FindClient(id)
}

// ListClients returns clients matching the filter in insertion order.
func (s *Store) ListClients(filter domain.ClientFilter) iter.Seq[Client] {
	return domain.Filter(s.snapshotView().Clients(), filter.Match)
}

// GetRoute returns a route by id.
func (s *Store) GetRoute(id int64) (Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newStateView(&s.state).FindRoute(id)
}

// ListRoutes returns routes matching the filter, newest first.
func (s *Store) ListRoutes(filter domain.RouteFilter) iter.Seq[Route] {
	return domain.Filter(s.snapshotView().Routes(), filter.Match)
}

// GetSurvey returns a survey by id.
func (s *Store) GetSurvey(id int64) (Survey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return newStateView(&s.state).FindSurvey(id)
}

// ListSurveys returns surveys matching the filter in insertion order.
func (s *Store) ListSurveys(filter domain.SurveyFilter) iter.Seq[Survey] {
	return domain.Filter(s.snapshotView().Surveys(), filter.Match)
}
