package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/internal/auth"
	"github.com/gjrepuestosmultimarca-netizen/Sistema-Avanzado-de-Rutas-Comerciales-SARC/pkg/domain"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#1E3A8A")
	colorBorder  = lipgloss.Color("#4B5563")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	titleStyle   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)
)

type printer struct {
	w io.Writer
}

func (p printer) success(format string, args ...any) {
	fmt.Fprintln(p.w, successStyle.Render("✓ ")+fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	fmt.Fprintln(p.w, warningStyle.Render("⚠ ")+fmt.Sprintf(format, args...))
}

func (p printer) muted(format string, args ...any) {
	fmt.Fprintln(p.w, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

func (p printer) section(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, titleStyle.Render(title))
}

// table renders rows under headers; an empty set prints placeholder instead.
func (p printer) table(headers []string, rows [][]string, placeholder string) {
	if len(rows) == 0 {
		p.muted("%s", placeholder)
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(p.w, t.Render())
}

// cards renders label/value pairs side by side.
func (p printer) cards(pairs ...[2]string) {
	blocks := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		blocks = append(blocks, cardStyle.Render(mutedStyle.Render(kv[0])+"\n"+titleStyle.Render(kv[1])))
	}
	fmt.Fprintln(p.w, lipgloss.JoinHorizontal(lipgloss.Top, blocks...))
}

// describe turns a domain or auth error into operator-facing text.
func describe(err error) string {
	var (
		verr domain.ValidationError
		nerr domain.NotFoundError
		ierr domain.IntegrityViolation
		rerr domain.RuleViolationError
	)
	switch {
	case errors.As(err, &verr):
		return fmt.Sprintf("invalid %s %s: %s", verr.Entity, verr.Field, verr.Reason)
	case errors.As(err, &nerr):
		return fmt.Sprintf("%s %d not found", nerr.Entity, nerr.ID)
	case errors.As(err, &ierr):
		return ierr.Reason
	case errors.As(err, &rerr):
		msgs := make([]string, 0, len(rerr.Result.Violations))
		for _, v := range rerr.Result.Violations {
			if v.Severity == domain.SeverityBlock {
				msgs = append(msgs, v.Message)
			}
		}
		return strings.Join(msgs, "; ")
	case errors.Is(err, auth.ErrInactiveUser):
		return "user is inactive, contact an administrator"
	default:
		return err.Error()
	}
}

// ErrorText renders err the way the CLI reports failures.
func ErrorText(err error) string {
	return errorStyle.Render("✗ ") + describe(err)
}
