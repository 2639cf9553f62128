// Package export renders flat tabular snapshots and the route QR payload.
// Everything here is read-only over a domain View.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/core"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

const notAvailable = "N/A"

// Sheet names double as workbook tab titles.
const (
	SheetAdvisors    = "Asesores"
	SheetClients     = "Clientes"
	SheetRoutes      = "Rutas"
	SheetPerformance = "Rendimiento Asesores"
	SheetClientTypes = "Clientes por Tipo"
)

var (
	advisorHeaders = []string{"ID", "Nombre", "Email", "Teléfono", "Tipo", "Zona", "Estado", "Fecha Registro"}
	clientHeaders  = []string{"ID", "Nombre", "NIT", "Tipo", "Contacto", "Email", "Teléfono", "Dirección", "Ciudad", "Zona", "Estado", "Notas"}
	routeHeaders   = []string{"ID", "Asesor", "Fecha", "Hora Inicio", "Hora Fin", "Zona", "Estado", "Vehículo",
		"Km Inicial", "Km Final", "Km Recorridos", "Clientes Visitados", "Total Clientes", "Observaciones"}
	performanceHeaders = []string{"Asesor", "Tipo", "Total Rutas", "Completadas", "Pendientes", "Tasa de Éxito", "Prom. Satisfacción"}
	clientTypeHeaders  = []string{"Tipo de Cliente", "Cantidad", "Porcentaje"}
)

// Table is one rectangular export: a CSV file or one workbook sheet.
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]string
}

// AdvisorsTable lists advisors in collection order.
func AdvisorsTable(view domain.View) Table {
	t := Table{Sheet: SheetAdvisors, Headers: advisorHeaders}
	for a := range view.Advisors() {
		t.Rows = append(t.Rows, []string{
			id(a.ID), a.Name, a.Email, a.Phone, string(a.Tier), a.Zone, string(a.Status), date(a.RegisteredAt.Format("2006-01-02")),
		})
	}
	return t
}

// ClientsTable lists clients in collection order.
func ClientsTable(view domain.View) Table {
	t := Table{Sheet: SheetClients, Headers: clientHeaders}
	for c := range view.Clients() {
		t.Rows = append(t.Rows, []string{
			id(c.ID), c.Name, c.TaxID, string(c.Type), c.ContactName, c.Email, c.Phone,
			c.Address, c.City, c.Zone, string(c.Status), c.Notes,
		})
	}
	return t
}

// RoutesTable lists routes with the advisor name, the distance travelled and
// the names of the clients that still exist.
func RoutesTable(view domain.View) Table {
	t := Table{Sheet: SheetRoutes, Headers: routeHeaders}
	for r := range view.Routes() {
		names := clientNames(view, r.ClientIDs)
		t.Rows = append(t.Rows, []string{
			id(r.ID), advisorName(view, r.AdvisorID), r.Date, r.StartTime, r.EndTime, r.Zone,
			string(r.Status), r.Vehicle, km(r.KmStart), km(r.KmEnd),
			strconv.FormatInt(r.Kilometres(), 10), strings.Join(names, ", "),
			strconv.Itoa(len(names)), r.Observations,
		})
	}
	return t
}

// PerformanceTable has one row per advisor. Advisors without routes report
// N/A rates.
func PerformanceTable(view domain.View) (Table, error) {
	t := Table{Sheet: SheetPerformance, Headers: performanceHeaders}
	for a := range view.Advisors() {
		p, err := core.ComputeAdvisorPerformance(view, a.ID)
		if err != nil {
			return Table{}, err
		}
		t.Rows = append(t.Rows, []string{
			p.Advisor.Name, string(p.Advisor.Tier), strconv.Itoa(p.TotalRoutes),
			strconv.Itoa(p.Completed), strconv.Itoa(p.Pending),
			p.CompletionRate.String(), p.AverageRating.String(),
		})
	}
	return t, nil
}

// ClientTypesTable is the client type breakdown.
func ClientTypesTable(view domain.View) Table {
	t := Table{Sheet: SheetClientTypes, Headers: clientTypeHeaders}
	for _, share := range core.ComputeClientTypeBreakdown(view) {
		t.Rows = append(t.Rows, []string{
			titleCase(string(share.Type)), strconv.Itoa(share.Count), fmt.Sprintf("%d%%", share.Percentage),
		})
	}
	return t
}

// ReportTables is the full performance report: advisor performance then
// clients by type.
func ReportTables(view domain.View) ([]Table, error) {
	perf, err := PerformanceTable(view)
	if err != nil {
		return nil, err
	}
	return []Table{perf, ClientTypesTable(view)}, nil
}

func advisorName(view domain.View, advisorID int64) string {
	if a, ok := view.FindAdvisor(advisorID); ok {
		return a.Name
	}
	return notAvailable
}

// clientNames resolves ids to names, skipping ids that no longer resolve.
func clientNames(view domain.View, ids []int64) []string {
	names := make([]string, 0, len(ids))
	for _, cid := range ids {
		if c, ok := view.FindClient(cid); ok {
			names = append(names, c.Name)
		}
	}
	return names
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func km(v *int64) string {
	if v == nil {
		return "0"
	}
	return strconv.FormatInt(*v, 10)
}

func date(s string) string {
	if s == "0001-01-01" {
		return ""
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
