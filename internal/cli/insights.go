package cli

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/core"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/export"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

const recentLimit = 5

func newDashboardCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show counters, top advisors and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, user, err := app.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			svc := env.Service
			p := app.printer()
			stats := svc.DashboardStats(ctx)

			p.muted("signed in as %s (%s)", user.Name, user.Role)
			p.cards(
				[2]string{"Advisors", fmt.Sprintf("%d / %d", stats.AdvisorsActive, stats.AdvisorsTotal)},
				[2]string{"Clients", fmt.Sprintf("%d / %d", stats.ClientsActive, stats.ClientsTotal)},
				[2]string{"Routes", strconv.Itoa(stats.RoutesTotal)},
				[2]string{"Completed", strconv.Itoa(stats.RoutesCompleted)},
				[2]string{"Pending", strconv.Itoa(stats.RoutesPending)},
				[2]string{"Satisfaction", stats.AverageRating.String()},
			)

			p.section("Top advisors")
			var top [][]string
			for _, row := range svc.TopAdvisorsByRouteCount(ctx, recentLimit) {
				top = append(top, []string{row.Advisor.Name, row.Advisor.Zone, strconv.Itoa(row.Routes)})
			}
			p.table([]string{"Advisor", "Zone", "Routes"}, top, "no advisors")

			p.section("Routes by status")
			counts := svc.RouteStatusCounts(ctx)
			statusRows := make([][]string, 0, len(domain.RouteStatuses))
			for _, st := range domain.RouteStatuses {
				statusRows = append(statusRows, []string{string(st), strconv.Itoa(counts[st])})
			}
			p.table([]string{"Status", "Routes"}, statusRows, "")

			p.section("Ratings")
			hist := svc.RatingHistogram(ctx)
			histRows := make([][]string, 0, len(hist))
			for i, n := range hist {
				histRows = append(histRows, []string{strings.Repeat("★", i+1), strconv.Itoa(n)})
			}
			p.table([]string{"Rating", "Surveys"}, histRows, "")

			p.section("Recent routes")
			var recent [][]string
			for _, r := range svc.RecentRoutes(ctx, recentLimit) {
				recent = append(recent, routeRow(svc, r))
			}
			p.table(routeColumns, recent, "no routes")

			p.section("Recent surveys")
			var surveys [][]string
			for _, s := range svc.RecentSurveys(ctx, recentLimit) {
				client := "N/A"
				if c, ok := svc.FindClient(s.ClientID); ok {
					client = c.Name
				}
				surveys = append(surveys, []string{client, strconv.Itoa(s.Rating), s.Date, s.Comments})
			}
			p.table([]string{"Client", "Rating", "Date", "Comments"}, surveys, "no surveys")
			return nil
		},
	}
}

func newReportCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Show advisor performance and the client type breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, _, err := app.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			p := app.printer()

			p.section("Advisor performance")
			var perf [][]string
			for _, row := range env.Service.PerformanceReport(ctx) {
				perf = append(perf, []string{
					row.Advisor.Name, string(row.Advisor.Tier), strconv.Itoa(row.TotalRoutes),
					strconv.Itoa(row.Completed), strconv.Itoa(row.Pending),
					row.CompletionRate.String(), row.AverageRating.String(),
				})
			}
			p.table([]string{"Advisor", "Tier", "Routes", "Completed", "Pending", "Success", "Satisfaction"}, perf, "no advisor has routes yet")

			p.section("Clients by type")
			var types [][]string
			for _, share := range env.Service.ClientTypeBreakdown(ctx) {
				types = append(types, []string{string(share.Type), strconv.Itoa(share.Count), fmt.Sprintf("%d%%", share.Percentage)})
			}
			p.table([]string{"Type", "Clients", "Share"}, types, "no clients")
			return nil
		},
	}
}

// Export formats accepted by --format.
const (
	formatCSV  = "csv"
	formatXLSX = "xlsx"
)

type exportKind struct {
	name   string
	base   string
	short  string
	format string
	tables func(domain.View) ([]export.Table, error)
}

func single(build func(domain.View) export.Table) func(domain.View) ([]export.Table, error) {
	return func(v domain.View) ([]export.Table, error) { return []export.Table{build(v)}, nil }
}

var exportKinds = []exportKind{
	{"advisors", "asesores", "Export advisors", formatCSV, single(export.AdvisorsTable)},
	{"clients", "clientes", "Export clients", formatCSV, single(export.ClientsTable)},
	{"routes", "rutas", "Export routes", formatCSV, single(export.RoutesTable)},
	{"performance", "rendimiento_asesores", "Export advisor performance", formatCSV, func(v domain.View) ([]export.Table, error) {
		t, err := export.PerformanceTable(v)
		return []export.Table{t}, err
	}},
	{"client-types", "clientes_por_tipo", "Export the client type breakdown", formatCSV, single(export.ClientTypesTable)},
	{"report", "reporte_desempeno", "Export the performance report workbook", formatXLSX, export.ReportTables},
}

func newExportCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export collections and reports as CSV or XLSX",
		Long: `Export collections and reports as CSV or XLSX.

Single tables default to CSV on stdout unless --out names a file. The report
is a workbook with one sheet per table. XLSX output needs --out or --publish.
With --publish the file is also stored in the blob backend under exports/ and
a download link is printed when the backend can sign one.

Examples:
  sarc export routes --out rutas.csv
  sarc export clients --format xlsx --out clientes.xlsx
  sarc export report --publish`,
	}
	for _, kind := range exportKinds {
		cmd.AddCommand(newExportKindCommand(app, kind))
	}
	return cmd
}

// render encodes tables in format and returns the payload with its MIME type.
func render(format string, tables []export.Table) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case formatCSV:
		if len(tables) != 1 {
			return nil, "", fmt.Errorf("%d tables cannot share one CSV, use --format %s", len(tables), formatXLSX)
		}
		if err := export.WriteCSV(&buf, tables[0]); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), export.ContentTypeCSV, nil
	case formatXLSX:
		if err := export.WriteXLSX(&buf, tables...); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), export.ContentTypeXLSX, nil
	default:
		return nil, "", fmt.Errorf("unknown format %q (want %s or %s)", format, formatCSV, formatXLSX)
	}
}

func newExportKindCommand(app *App, kind exportKind) *cobra.Command {
	var (
		out     string
		format  string
		publish bool
	)
	cmd := &cobra.Command{
		Use:   kind.name,
		Short: kind.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format == formatXLSX && out == "" && !publish {
				return fmt.Errorf("%s output needs --out or --publish", formatXLSX)
			}
			env, _, err := app.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			var (
				payload     []byte
				contentType string
			)
			if err := env.Service.View(cmd.Context(), func(v core.View) error {
				tables, err := kind.tables(v)
				if err != nil {
					return err
				}
				payload, contentType, err = render(format, tables)
				return err
			}); err != nil {
				return fmt.Errorf("export %s: %w", kind.name, err)
			}

			p := app.printer()
			switch {
			case out != "":
				if err := os.WriteFile(out, payload, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", out, err)
				}
				p.success("%s written to %s", kind.name, out)
			case !publish:
				_, err := app.out.Write(payload)
				return err
			}
			if !publish {
				return nil
			}
			key := env.Repo.Key("exports/" + kind.base + "." + format)
			art, err := export.Publish(cmd.Context(), env.Blob, key, contentType, payload)
			if err != nil {
				return err
			}
			p.success("published %s (%d bytes)", art.Info.Key, art.Info.Size)
			if art.URL != "" {
				p.muted("%s", art.URL)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the export to this file")
	cmd.Flags().StringVar(&format, "format", kind.format, "Output format: csv or xlsx")
	cmd.Flags().BoolVar(&publish, "publish", false, "Also store the export in the blob backend")
	return cmd
}
