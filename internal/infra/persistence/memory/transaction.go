package memory

import (
	"slices"
	"time"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// transaction represents a mutation set applied to a cloned store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() View {
	return newStateView(&tx.state)
}

// nextID issues max(now in ms, last issued + 1) for the entity's collection.
func (tx *transaction) nextID(entity domain.EntityType) int64 {
	id := tx.now.UnixMilli()
	if last := tx.state.lastID[entity]; id <= last {
		id = last + 1
	}
	tx.state.lastID[entity] = id
	return id
}

func (tx *transaction) registeredAt(t time.Time) time.Time {
	if t.IsZero() {
		return tx.now.UTC()
	}
	return t
}

func (tx *transaction) CreateAdvisor(a Advisor) (Advisor, error) {
	a = a.Normalize()
	if err := a.Validate(); err != nil {
		return Advisor{}, err
	}
	a.ID = tx.nextID(domain.EntityAdvisor)
	a.RegisteredAt = tx.registeredAt(a.RegisteredAt)
	tx.state.advisors[a.ID] = a
	tx.state.advisorOrder = append(tx.state.advisorOrder, a.ID)
	tx.recordChange(Change{Entity: domain.EntityAdvisor, Action: domain.ActionCreate, After: a})
	return a, nil
}

func (tx *transaction) UpdateAdvisor(id int64, a Advisor) (Advisor, error) {
	current, ok := tx.state.advisors[id]
	if !ok {
		return Advisor{}, domain.NotFoundError{Entity: domain.EntityAdvisor, ID: id}
	}
	a = a.Normalize()
	if err := a.Validate(); err != nil {
		return Advisor{}, err
	}
	a.ID = id
	a.RegisteredAt = current.RegisteredAt
	tx.state.advisors[id] = a
	tx.recordChange(Change{Entity: domain.EntityAdvisor, Action: domain.ActionUpdate, Before: current, After: a})
	return a, nil
}

func (tx *transaction) DeleteAdvisor(id int64) error {
	current, ok := tx.state.advisors[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityAdvisor, ID: id}
	}
	if !domain.CanDeleteAdvisor(tx.Snapshot(), id) {
		return domain.IntegrityViolation{Entity: domain.EntityAdvisor, ID: id, Reason: "advisor has assigned routes"}
	}
	delete(tx.state.advisors, id)
	tx.state.advisorOrder = removeID(tx.state.advisorOrder, id)
	tx.recordChange(Change{Entity: domain.EntityAdvisor, Action: domain.ActionDelete, Before: current})
	return nil
}

func (tx *transaction) CreateClient(c Client) (Client, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return Client{}, err
	}
	c.ID = tx.nextID(domain.EntityClient)
	c.RegisteredAt = tx.registeredAt(c.RegisteredAt)
	tx.state.clients[c.ID] = c
	tx.state.clientOrder = append(tx.state.clientOrder, c.ID)
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionCreate, After: c})
	return c, nil
}

func (tx *transaction) UpdateClient(id int64, c Client) (Client, error) {
	current, ok := tx.state.clients[id]
	if !ok {
		return Client{}, domain.NotFoundError{Entity: domain.EntityClient, ID: id}
	}
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return Client{}, err
	}
	c.ID = id
	c.RegisteredAt = current.RegisteredAt
	tx.state.clients[id] = c
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionUpdate, Before: current, After: c})
	return c, nil
}

// DeleteClient removes the client and strips its id from every route,
// whatever the route status.
func (tx *transaction) DeleteClient(id int64) error {
	current, ok := tx.state.clients[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityClient, ID: id}
	}
	if !domain.CanDeleteClient(tx.Snapshot(), id) {
		return domain.IntegrityViolation{Entity: domain.EntityClient, ID: id, Reason: "client is part of an active route"}
	}
	delete(tx.state.clients, id)
	tx.state.clientOrder = removeID(tx.state.clientOrder, id)
	tx.recordChange(Change{Entity: domain.EntityClient, Action: domain.ActionDelete, Before: current})

	for _, routeID := range tx.state.routeOrder {
		route := tx.state.routes[routeID]
		if !route.HasClient(id) {
			continue
		}
		before := cloneRoute(route)
		route.ClientIDs = removeID(slices.Clone(route.ClientIDs), id)
		tx.state.routes[routeID] = route
		tx.recordChange(Change{Entity: domain.EntityRoute, Action: domain.ActionUpdate, Before: before, After: cloneRoute(route)})
	}
	return nil
}

// checkRouteRefs requires the advisor and every listed client to exist.
func (tx *transaction) checkRouteRefs(r Route) error {
	if _, ok := tx.state.advisors[r.AdvisorID]; !ok {
		return domain.NotFoundError{Entity: domain.EntityAdvisor, ID: r.AdvisorID}
	}
	for _, clientID := range r.ClientIDs {
		if _, ok := tx.state.clients[clientID]; !ok {
			return domain.NotFoundError{Entity: domain.EntityClient, ID: clientID}
		}
	}
	return nil
}

func (tx *transaction) CreateRoute(r Route) (Route, error) {
	r = cloneRoute(r.Normalize())
	if err := r.Validate(); err != nil {
		return Route{}, err
	}
	if err := tx.checkRouteRefs(r); err != nil {
		return Route{}, err
	}
	r.ID = tx.nextID(domain.EntityRoute)
	r.RegisteredAt = tx.registeredAt(r.RegisteredAt)
	tx.state.routes[r.ID] = r
	tx.state.routeOrder = append([]int64{r.ID}, tx.state.routeOrder...)
	tx.recordChange(Change{Entity: domain.EntityRoute, Action: domain.ActionCreate, After: cloneRoute(r)})
	return cloneRoute(r), nil
}

func (tx *transaction) UpdateRoute(id int64, r Route) (Route, error) {
	current, ok := tx.state.routes[id]
	if !ok {
		return Route{}, domain.NotFoundError{Entity: domain.EntityRoute, ID: id}
	}
	r = cloneRoute(r.Normalize())
	if err := r.ValidateUpdate(current); err != nil {
		return Route{}, err
	}
	if err := tx.checkRouteRefs(r); err != nil {
		return Route{}, err
	}
	r.ID = id
	r.RegisteredAt = current.RegisteredAt
	tx.state.routes[id] = r
	tx.recordChange(Change{Entity: domain.EntityRoute, Action: domain.ActionUpdate, Before: cloneRoute(current), After: cloneRoute(r)})
	return cloneRoute(r), nil
}

// CompleteRoute marks the route completada and stamps the end time with the
// transaction clock when none was recorded.
func (tx *transaction) CompleteRoute(id int64) (Route, error) {
	current, ok := tx.state.routes[id]
	if !ok {
		return Route{}, domain.NotFoundError{Entity: domain.EntityRoute, ID: id}
	}
	if current.Status == domain.RouteCancelled {
		return Route{}, domain.IntegrityViolation{Entity: domain.EntityRoute, ID: id, Reason: "a cancelled route cannot be completed"}
	}
	updated := cloneRoute(current)
	updated.Status = domain.RouteCompleted
	if updated.EndTime == "" {
		updated.EndTime = domain.ClockTime(tx.now)
	}
	tx.state.routes[id] = updated
	tx.recordChange(Change{Entity: domain.EntityRoute, Action: domain.ActionUpdate, Before: cloneRoute(current), After: cloneRoute(updated)})
	return cloneRoute(updated), nil
}

func (tx *transaction) DeleteRoute(id int64) error {
	current, ok := tx.state.routes[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityRoute, ID: id}
	}
	if !domain.CanDeleteRoute(tx.Snapshot(), id) {
		return domain.IntegrityViolation{Entity: domain.EntityRoute, ID: id, Reason: "route has surveys"}
	}
	delete(tx.state.routes, id)
	tx.state.routeOrder = removeID(tx.state.routeOrder, id)
	tx.recordChange(Change{Entity: domain.EntityRoute, Action: domain.ActionDelete, Before: cloneRoute(current)})
	return nil
}

func (tx *transaction) CreateSurvey(s Survey) (Survey, error) {
	s = s.Normalize()
	if err := s.Validate(); err != nil {
		return Survey{}, err
	}
	if reason := domain.SurveyBlocker(tx.Snapshot(), s.RouteID, s.ClientID); reason != "" {
		return Survey{}, domain.IntegrityViolation{Entity: domain.EntitySurvey, Reason: reason}
	}
	s.ID = tx.nextID(domain.EntitySurvey)
	s.RegisteredAt = tx.registeredAt(s.RegisteredAt)
	tx.state.surveys[s.ID] = s
	tx.state.surveyOrder = append(tx.state.surveyOrder, s.ID)
	tx.recordChange(Change{Entity: domain.EntitySurvey, Action: domain.ActionCreate, After: s})
	return s, nil
}

// UpdateSurvey re-runs the survey guard only when the route/client pair moves.
func (tx *transaction) UpdateSurvey(id int64, s Survey) (Survey, error) {
	current, ok := tx.state.surveys[id]
	if !ok {
		return Survey{}, domain.NotFoundError{Entity: domain.EntitySurvey, ID: id}
	}
	s = s.Normalize()
	if err := s.Validate(); err != nil {
		return Survey{}, err
	}
	if s.RouteID != current.RouteID || s.ClientID != current.ClientID {
		if reason := domain.SurveyBlocker(tx.Snapshot(), s.RouteID, s.ClientID); reason != "" {
			return Survey{}, domain.IntegrityViolation{Entity: domain.EntitySurvey, ID: id, Reason: reason}
		}
	}
	s.ID = id
	s.RegisteredAt = current.RegisteredAt
	tx.state.surveys[id] = s
	tx.recordChange(Change{Entity: domain.EntitySurvey, Action: domain.ActionUpdate, Before: current, After: s})
	return s, nil
}

func (tx *transaction) DeleteSurvey(id int64) error {
	current, ok := tx.state.surveys[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntitySurvey, ID: id}
	}
	delete(tx.state.surveys, id)
	tx.state.surveyOrder = removeID(tx.state.surveyOrder, id)
	tx.recordChange(Change{Entity: domain.EntitySurvey, Action: domain.ActionDelete, Before: current})
	return nil
}
