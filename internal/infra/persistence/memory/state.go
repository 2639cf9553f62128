package memory

import (
	"iter"
	"slices"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// memoryState keeps each collection as a map plus an order slice. Routes are
// ordered newest first, every other collection in insertion order.
type memoryState struct {
	advisors     map[int64]Advisor
	advisorOrder []int64
	clients      map[int64]Client
	clientOrder  []int64
	routes       map[int64]Route
	routeOrder   []int64
	surveys      map[int64]Survey
	surveyOrder  []int64
	lastID       map[domain.EntityType]int64
}

func newMemoryState() memoryState {
	return memoryState{
		advisors: make(map[int64]Advisor),
		clients:  make(map[int64]Client),
		routes:   make(map[int64]Route),
		surveys:  make(map[int64]Survey),
		lastID:   make(map[domain.EntityType]int64),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.advisors {
		cloned.advisors[k] = v
	}
	for k, v := range s.clients {
		cloned.clients[k] = v
	}
	for k, v := range s.routes {
		cloned.routes[k] = cloneRoute(v)
	}
	for k, v := range s.surveys {
		cloned.surveys[k] = v
	}
	for k, v := range s.lastID {
		cloned.lastID[k] = v
	}
	cloned.advisorOrder = slices.Clone(s.advisorOrder)
	cloned.clientOrder = slices.Clone(s.clientOrder)
	cloned.routeOrder = slices.Clone(s.routeOrder)
	cloned.surveyOrder = slices.Clone(s.surveyOrder)
	return cloned
}

func cloneRoute(r Route) Route {
	cp := r
	cp.ClientIDs = slices.Clone(r.ClientIDs)
	if r.KmStart != nil {
		v := *r.KmStart
		cp.KmStart = &v
	}
	if r.KmEnd != nil {
		v := *r.KmEnd
		cp.KmEnd = &v
	}
	return cp
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Advisors: make([]Advisor, 0, len(state.advisorOrder)),
		Clients:  make([]Client, 0, len(state.clientOrder)),
		Routes:   make([]Route, 0, len(state.routeOrder)),
		Surveys:  make([]Survey, 0, len(state.surveyOrder)),
	}
	for _, id := range state.advisorOrder {
		s.Advisors = append(s.Advisors, state.advisors[id])
	}
	for _, id := range state.clientOrder {
		s.Clients = append(s.Clients, state.clients[id])
	}
	for _, id := range state.routeOrder {
		s.Routes = append(s.Routes, cloneRoute(state.routes[id]))
	}
	for _, id := range state.surveyOrder {
		s.Surveys = append(s.Surveys, state.surveys[id])
	}
	return s
}

// memoryStateFromSnapshot rebuilds the indexes. Records with a zero or
// duplicate id are dropped; the id sequences resume after the highest id seen.
func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for _, a := range s.Advisors {
		if _, dup := state.advisors[a.ID]; a.ID == 0 || dup {
			continue
		}
		state.advisors[a.ID] = a
		state.advisorOrder = append(state.advisorOrder, a.ID)
		state.observeID(domain.EntityAdvisor, a.ID)
	}
	for _, c := range s.Clients {
		if _, dup := state.clients[c.ID]; c.ID == 0 || dup {
			continue
		}
		state.clients[c.ID] = c
		state.clientOrder = append(state.clientOrder, c.ID)
		state.observeID(domain.EntityClient, c.ID)
	}
	for _, r := range s.Routes {
		if _, dup := state.routes[r.ID]; r.ID == 0 || dup {
			continue
		}
		state.routes[r.ID] = cloneRoute(r)
		state.routeOrder = append(state.routeOrder, r.ID)
		state.observeID(domain.EntityRoute, r.ID)
	}
	for _, sv := range s.Surveys {
		if _, dup := state.surveys[sv.ID]; sv.ID == 0 || dup {
			continue
		}
		state.surveys[sv.ID] = sv
		state.surveyOrder = append(state.surveyOrder, sv.ID)
		state.observeID(domain.EntitySurvey, sv.ID)
	}
	return state
}

func (s *memoryState) observeID(entity domain.EntityType, id int64) {
	if id > s.lastID[entity] {
		s.lastID[entity] = id
	}
}

func removeID(order []int64, id int64) []int64 {
	return slices.DeleteFunc(order, func(v int64) bool { return v == id })
}

// stateView exposes a memoryState through domain.View.
type stateView struct {
	state *memoryState
}

func newStateView(state *memoryState) View {
	return stateView{state: state}
}

func (v stateView) Advisors() iter.Seq[Advisor] {
	return func(yield func(Advisor) bool) {
		for _, id := range v.state.advisorOrder {
			if !yield(v.state.advisors[id]) {
				return
			}
		}
	}
}

func (v stateView) Clients() iter.Seq[Client] {
	return func(yield func(Client) bool) {
		for _, id := range v.state.clientOrder {
			if !yield(v.state.clients[id]) {
				return
			}
		}
	}
}

func (v stateView) Routes() iter.Seq[Route] {
	return func(yield func(Route) bool) {
		for _, id := range v.state.routeOrder {
			if !yield(cloneRoute(v.state.routes[id])) {
				return
			}
		}
	}
}

func (v stateView) Surveys() iter.Seq[Survey] {
	return func(yield func(Survey) bool) {
		for _, id := range v.state.surveyOrder {
			if !yield(v.state.surveys[id]) {
				return
			}
		}
	}
}

func (v stateView) FindAdvisor(id int64) (Advisor, bool) {
	a, ok := v.state.advisors[id]
	return a, ok
}

func (v stateView) FindClient(id int64) (Client, bool) {
	c, ok := v.state.clients[id]
	return c, ok
}

func (v stateView) FindRoute(id int64) (Route, bool) {
	r, ok := v.state.routes[id]
	if !ok {
		return Route{}, false
	}
	return cloneRoute(r), true
}

func (v stateView) FindSurvey(id int64) (Survey, bool) {
	s, ok := v.state.surveys[id]
	return s, ok
}
