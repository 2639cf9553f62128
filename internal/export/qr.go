package export

import (
	"encoding/json"
	"time"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

// RouteCode is the compact summary encoded in a route's scannable code.
type RouteCode struct {
	ID        int64    `json:"id"`
	Kind      string   `json:"tipo"`
	Advisor   string   `json:"asesor"`
	Date      string   `json:"fecha"`
	Zone      string   `json:"zona"`
	Clients   []string `json:"clientes"`
	Timestamp string   `json:"timestamp"`
}

const routeCodeKind = "ruta_comercial"

// RouteQRPayload returns the JSON text to encode for routeID. A missing
// advisor renders as N/A; client ids that no longer resolve are skipped.
func RouteQRPayload(view domain.View, routeID int64, now time.Time) ([]byte, error) {
	route, ok := view.FindRoute(routeID)
	if !ok {
		return nil, domain.NotFoundError{Entity: domain.EntityRoute, ID: routeID}
	}
	code := RouteCode{
		ID:        route.ID,
		Kind:      routeCodeKind,
		Advisor:   advisorName(view, route.AdvisorID),
		Date:      route.Date,
		Zone:      route.Zone,
		Clients:   clientNames(view, route.ClientIDs),
		Timestamp: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	return json.Marshal(code)
}
