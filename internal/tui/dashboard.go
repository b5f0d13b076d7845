package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/services/catalog"
	"github.com/nutriplan/nutriplan/internal/tui/components"
	"github.com/nutriplan/nutriplan/internal/util"
)

// recentExports is the number of history entries on the dashboard.
const recentExports = 8

type dashboardMsg struct {
	recent []*models.ExportRecord
	err    error
}

type dashboard struct {
	loading bool
	recent  []*models.ExportRecord
	err     error
}

// loadDashboard fetches the catalog collections of the selected branch
// and the export history.
func (a *App) loadDashboard() tea.Cmd {
	a.dash.loading = true
	ctx := a.session.BranchContext()
	stores := a.stores
	exporter := a.exporter

	return func() tea.Msg {
		_ = stores.Foods.Fetch(ctx)
		_ = stores.Recipes.Fetch(ctx)
		_ = stores.Menus.Fetch(ctx)
		recent, err := exporter.Recent(ctx, recentExports)
		return dashboardMsg{recent: recent, err: err}
	}
}

// renderDashboard renders the main dashboard view.
func (a *App) renderDashboard(width int) string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ PANEL PRINCIPAL ═══"))
	b.WriteString("\n\n")

	panelWidth := 44
	if GetBreakpoint(width) == BreakpointNarrow {
		panelWidth = width
	}

	left := a.theme.Panel("Sesión", a.sessionSummary(), panelWidth)
	right := a.theme.Panel("Catálogo", a.catalogSummary(), panelWidth)
	b.WriteString(SideBySide(left, right, width, 2))
	b.WriteString("\n\n")

	historyWidth := min(width, 2*panelWidth+2)
	b.WriteString(a.theme.Panel("Exportaciones recientes", a.exportSummary(historyWidth-4), historyWidth))
	b.WriteString("\n\n")

	b.WriteString(a.theme.Muted.Render("r:Recargar  F9:Cambiar sucursal  L:Cerrar sesión  F1:Ayuda"))
	return b.String()
}

func (a *App) row(label, value string) string {
	return a.theme.Label.Render(PadRight(label+":", 14)) + a.theme.Value.Render(value)
}

func (a *App) sessionSummary() string {
	s, ok := a.session.Session()
	if !ok {
		return a.theme.Muted.Render("Sin sesión")
	}

	branch := "Sin sucursal"
	if br, ok := a.session.Branch(); ok {
		branch = br.Name
	}
	roles := strings.Join(s.Roles, ", ")
	if roles == "" {
		roles = "-"
	}
	expires := "sin vencimiento"
	if !s.ExpiresAt.IsZero() {
		expires = s.ExpiresAt.In(a.clock.Now().Location()).Format(a.config.Display.DateFormat + " 15:04")
	}

	lines := []string{
		a.row("Usuario", s.Username),
		a.row("Roles", roles),
		a.row("Sucursal", branch),
		a.row("Programa", a.config.Program.Name),
		a.row("Comensales", fmt.Sprintf("%d por defecto", a.config.Program.DefaultHeadcount)),
		a.row("Vence", expires),
	}
	return strings.Join(lines, "\n")
}

func (a *App) catalogSummary() string {
	lines := []string{
		a.row("Insumos", storeCount(a.stores.Foods, func(f models.FoodItem) models.Status { return f.Status })),
		a.row("Recetas", storeCount(a.stores.Recipes, func(r models.Recipe) models.Status { return r.Status })),
		a.row("Menús", storeCount(a.stores.Menus, func(m models.Menu) models.Status { return m.Status })),
	}
	return strings.Join(lines, "\n")
}

// storeCount describes how many live items a store holds.
func storeCount[T catalog.Entity](s *catalog.Store[T], status func(T) models.Status) string {
	switch s.ListPhase() {
	case catalog.PhaseLoading:
		return "cargando..."
	case catalog.PhaseError:
		return "error: " + components.ErrorText(s.Err())
	case catalog.PhaseIdle:
		return "-"
	}
	return fmt.Sprintf("%d", len(catalog.WithoutDeleted(s.Items(), status)))
}

func (a *App) exportSummary(width int) string {
	switch {
	case a.dash.err != nil:
		return a.theme.Error.Render("No se pudo leer el historial: " + a.dash.err.Error())
	case len(a.dash.recent) == 0 && a.dash.loading:
		return a.theme.Muted.Render("Cargando...")
	case len(a.dash.recent) == 0:
		return a.theme.Muted.Render("Sin exportaciones registradas.")
	}

	lines := make([]string, 0, len(a.dash.recent))
	for _, rec := range a.dash.recent {
		line := PadRight(util.RelativeTimeString(rec.CreatedAt, a.clock.Now()), 18) +
			PadRight(rec.Kind.Label(), 17) + rec.FileName
		lines = append(lines, a.theme.Primary.Render(Truncate(line, width)))
	}
	return strings.Join(lines, "\n")
}
