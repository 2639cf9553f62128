package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/blob"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/core"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

var registered = time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)

func ptr(v int64) *int64 { return &v }

func fixture() domain.Snapshot {
	return domain.Snapshot{
		Advisors: []domain.Advisor{
			{ID: 1, Name: "Carlos Méndez", Email: "carlos@empresa.com", Phone: "3001234567", Tier: domain.TierSenior, Zone: "Centro", Status: domain.StatusActive, RegisteredAt: registered},
			{ID: 2, Name: "Ana Rodríguez", Email: "ana@empresa.com", Tier: domain.TierJunior, Zone: "Norte", Status: domain.StatusActive, RegisteredAt: registered},
		},
		Clients: []domain.Client{
			{ID: 10, Name: "Supermercado Éxito", TaxID: "900123456", Type: domain.ClientWholesaler, Zone: "Centro", Status: domain.StatusActive, Notes: "paga, a 30 días"},
			{ID: 11, Name: "Distribuidora Andina", TaxID: "900654321", Type: domain.ClientDistributor, Zone: "Norte", Status: domain.StatusActive},
			{ID: 12, Name: "Mayorista del Sur", TaxID: "900777888", Type: domain.ClientWholesaler, Zone: "Sur", Status: domain.StatusActive},
		},
		Routes: []domain.Route{
			{ID: 100, AdvisorID: 1, Date: "2024-01-10", StartTime: "08:00", EndTime: "12:30", Zone: "Centro", Status: domain.RouteCompleted,
				Vehicle: "ABC123", KmStart: ptr(1200), KmEnd: ptr(1260), ClientIDs: []int64{10, 99, 11}},
			{ID: 101, AdvisorID: 77, Date: "2024-01-11", StartTime: "09:00", Zone: "Norte", Status: domain.RoutePlanned, ClientIDs: []int64{11}},
		},
		Surveys: []domain.Survey{
			{ID: 1000, RouteID: 100, ClientID: 10, Rating: 5, Date: "2024-01-10"},
			{ID: 1001, RouteID: 100, ClientID: 11, Rating: 4, Date: "2024-01-10"},
		},
	}
}

func withView(t *testing.T, fn func(domain.View)) {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	svc.Load(fixture())
	require.NoError(t, svc.View(context.Background(), func(v core.View) error {
		fn(v)
		return nil
	}))
}

func readCSV(t *testing.T, raw string) [][]string {
	t.Helper()
	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func csvOf(t *testing.T, table Table) (string, [][]string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))
	return buf.String(), readCSV(t, buf.String())
}

func TestAdvisorsCSV(t *testing.T) {
	withView(t, func(v domain.View) {
		_, rows := csvOf(t, AdvisorsTable(v))
		require.Len(t, rows, 3)
		require.Equal(t, advisorHeaders, rows[0])
		require.Equal(t, []string{"1", "Carlos Méndez", "carlos@empresa.com", "3001234567", "senior", "Centro", "activo", "2024-01-02"}, rows[1])
	})
}

func TestClientsCSVQuotesFields(t *testing.T) {
	withView(t, func(v domain.View) {
		raw, rows := csvOf(t, ClientsTable(v))
		require.Contains(t, raw, `"paga, a 30 días"`)
		require.Len(t, rows, 4)
		require.Equal(t, "paga, a 30 días", rows[1][11])
	})
}

func TestRoutesCSV(t *testing.T) {
	withView(t, func(v domain.View) {
		_, rows := csvOf(t, RoutesTable(v))
		require.Len(t, rows, 3)
		byID := map[string][]string{}
		for _, row := range rows[1:] {
			byID[row[0]] = row
		}
		completed := byID["100"]
		require.Equal(t, "Carlos Méndez", completed[1])
		require.Equal(t, "60", completed[10])
		require.Equal(t, "Supermercado Éxito, Distribuidora Andina", completed[11])
		require.Equal(t, "2", completed[12])

		orphan := byID["101"]
		require.Equal(t, "N/A", orphan[1])
		require.Equal(t, "0", orphan[8])
		require.Equal(t, "0", orphan[10])
	})
}

func TestReportTables(t *testing.T) {
	withView(t, func(v domain.View) {
		tables, err := ReportTables(v)
		require.NoError(t, err)
		require.Len(t, tables, 2)

		perf := tables[0]
		require.Equal(t, SheetPerformance, perf.Sheet)
		require.Equal(t, performanceHeaders, perf.Headers)
		require.Equal(t, [][]string{
			{"Carlos Méndez", "senior", "1", "1", "0", "100%", "4.5"},
			{"Ana Rodríguez", "junior", "0", "0", "0", "N/A", "N/A"},
		}, perf.Rows)

		types := tables[1]
		require.Equal(t, SheetClientTypes, types.Sheet)
		require.Equal(t, clientTypeHeaders, types.Headers)
		require.Equal(t, [][]string{{"Mayorista", "2", "67%"}, {"Distribuidor", "1", "33%"}}, types.Rows)

		// Each table stays a rectangular CSV of its own.
		_, rows := csvOf(t, types)
		require.Len(t, rows, 3)
	})
}

func TestWriteXLSXOneSheetPerTable(t *testing.T) {
	withView(t, func(v domain.View) {
		tables, err := ReportTables(v)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, WriteXLSX(&buf, tables...))

		book, err := excelize.OpenReader(&buf)
		require.NoError(t, err)
		defer book.Close()
		require.Equal(t, []string{"Rendimiento Asesores", "Clientes por Tipo"}, book.GetSheetList())

		perf, err := book.GetRows(SheetPerformance)
		require.NoError(t, err)
		require.Equal(t, performanceHeaders, perf[0])
		require.Equal(t, []string{"Ana Rodríguez", "junior", "0", "0", "0", "N/A", "N/A"}, perf[2])

		types, err := book.GetRows(SheetClientTypes)
		require.NoError(t, err)
		require.Equal(t, [][]string{clientTypeHeaders, {"Mayorista", "2", "67%"}, {"Distribuidor", "1", "33%"}}, types)

		style, err := book.GetCellStyle(SheetClientTypes, "A1")
		require.NoError(t, err)
		def, err := book.GetStyle(style)
		require.NoError(t, err)
		require.True(t, def.Font.Bold)
	})
}

func TestWriteXLSXNeedsATable(t *testing.T) {
	require.Error(t, WriteXLSX(&bytes.Buffer{}))
}

func TestRouteQRPayload(t *testing.T) {
	now := time.Date(2024, 1, 10, 17, 5, 9, 0, time.UTC)
	withView(t, func(v domain.View) {
		raw, err := RouteQRPayload(v, 100, now)
		require.NoError(t, err)
		var code map[string]any
		require.NoError(t, json.Unmarshal(raw, &code))
		require.Equal(t, "ruta_comercial", code["tipo"])
		require.Equal(t, "Carlos Méndez", code["asesor"])
		require.Equal(t, "2024-01-10", code["fecha"])
		require.Equal(t, "Centro", code["zona"])
		require.Equal(t, []any{"Supermercado Éxito", "Distribuidora Andina"}, code["clientes"])
		require.Equal(t, "2024-01-10T17:05:09.000Z", code["timestamp"])

		raw, err = RouteQRPayload(v, 101, now)
		require.NoError(t, err)
		require.Contains(t, string(raw), `"asesor":"N/A"`)

		_, err = RouteQRPayload(v, 555, now)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	art, err := Publish(ctx, store, "exports/rutas.csv", ContentTypeCSV, []byte("ID\n1\n"))
	require.NoError(t, err)
	require.Empty(t, art.URL)
	require.Equal(t, int64(5), art.Info.Size)

	fsStore, err := blob.NewFilesystem(t.TempDir())
	require.NoError(t, err)
	art, err = Publish(ctx, fsStore, "exports/rutas.csv", ContentTypeCSV, []byte("ID\n1\n"))
	require.NoError(t, err)
	require.Equal(t, "http://local.blob/exports/rutas.csv", art.URL)
}
