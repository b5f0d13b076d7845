package planner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/services/catalog"
	"github.com/nutriplan/nutriplan/internal/services/planner"
	"github.com/nutriplan/nutriplan/internal/tui/components"
	"github.com/nutriplan/nutriplan/internal/util"
)

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var (
	monthHeaders = []string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}
	weekHeaders  = []string{"Lun", "Mar", "Mié", "Jue", "Vie", "Sáb", "Dom"}
	weekdayNames = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}
)

var (
	cellStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(components.ColorMuted)
	cursorStyle   = cellStyle.BorderForeground(components.ColorAccent)
	selectedStyle = cellStyle.BorderForeground(components.ColorSuccess).BorderStyle(lipgloss.DoubleBorder())
	todayStyle    = lipgloss.NewStyle().Foreground(components.ColorAccent).Bold(true)
	pickStyle     = lipgloss.NewStyle().Foreground(components.ColorInverse).Background(components.ColorPrimary)
)

// slotLetter abbreviates a known slot for the compact month cells.
func slotLetter(s models.MealSlot) string {
	switch s {
	case models.SlotBreakfast:
		return "D"
	case models.SlotLunch:
		return "A"
	case models.SlotDinner:
		return "C"
	}
	return "?"
}

// longDate formats t as "lunes 4 de marzo de 2024".
func longDate(t time.Time) string {
	return fmt.Sprintf("%s %d de %s de %d", weekdayNames[t.Weekday()], t.Day(), monthNames[t.Month()-1], t.Year())
}

// Render renders the grid, the selected day and the status line.
func (v *View) Render(width, height int) string {
	switch v.mode {
	case modeAssign:
		return v.assign.Render()
	case modeObservation:
		return v.obsForm.Render()
	}

	var b strings.Builder
	b.WriteString(components.TitleStyle.Render("=== " + v.title() + " ==="))
	b.WriteString("\n\n")

	if line := v.statusLine(); line != "" {
		b.WriteString(line)
		b.WriteString("\n\n")
	}
	if v.mode == modeConfirm {
		a := v.removing
		b.WriteString(components.WarningStyle.Render(fmt.Sprintf("¿Quitar %q (%s) del %s? (s/n)", v.menuName(a), a.Slot.Label(), a.Date)))
		b.WriteString("\n\n")
	}

	b.WriteString(v.renderGrid(width))
	b.WriteString("\n")
	b.WriteString(v.renderSelected())

	b.WriteString("\n")
	if width >= 80 {
		b.WriteString(components.HelpStyle.Render("←/→/↑/↓:Mover  Enter:Seleccionar  [/]:Período  w:Semana/Mes  t:Hoy  a:Asignar  x:Quitar  o:Observación  p:PDF compras  s:Excel  W:Semanal  r:Recargar"))
	} else {
		b.WriteString(components.HelpStyle.Render("Enter:Sel. a:Asignar p:PDF s:Excel W:Semanal"))
	}
	return b.String()
}

func (v *View) title() string {
	if v.weekMode {
		days := v.days
		first, last := days[0].Date, days[len(days)-1].Date
		return fmt.Sprintf("SEMANA DEL %s AL %s", first.Format("02/01"), last.Format("02/01/2006"))
	}
	return strings.ToUpper(monthNames[v.ref.Month()-1]) + " " + strconv.Itoa(v.ref.Year())
}

func (v *View) statusLine() string {
	switch {
	case v.exporting:
		return components.MutedStyle.Render("Generando reporte...")
	case v.err != nil:
		return components.ErrorStyle.Render("No se pudo exportar: " + components.ErrorText(v.err))
	case v.notice != "":
		return components.SuccessStyle.Render(v.notice)
	}
	return components.Status{
		Loading: v.store.ListPhase() == catalog.PhaseLoading,
		ListErr: v.store.Err(),
		OpErr:   v.store.OperationError(),
		Success: v.store.SuccessMessage(),
	}.Render()
}

func (v *View) renderGrid(width int) string {
	headers := monthHeaders
	if v.weekMode {
		headers = weekHeaders
	}

	colW := (width - 14) / 7
	if colW < 8 {
		colW = 8
	}
	if colW > 22 {
		colW = 22
	}

	today := util.DateKey(v.opts.Clock.Now())
	heads := make([]string, len(headers))
	for i, h := range headers {
		heads[i] = components.SectionStyle.Width(colW + 2).Align(lipgloss.Center).Render(h)
	}

	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, heads...)}
	for start := 0; start < len(v.cells); start += 7 {
		end := start + 7
		if end > len(v.cells) {
			end = len(v.cells)
		}
		blocks := make([]string, 0, 7)
		for i := start; i < end; i++ {
			blocks = append(blocks, v.renderCell(i, colW, today))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, blocks...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *View) renderCell(i, colW int, today string) string {
	c := v.cells[i]

	head := strconv.Itoa(c.Date.Day())
	switch {
	case c.Key == today:
		head = todayStyle.Render(head + " hoy")
	case !c.InMonth:
		head = components.MutedStyle.Render(head)
	}

	lines := []string{head}
	if v.weekMode {
		lines = append(lines, v.weekLines(c, colW)...)
	} else {
		lines = append(lines, monthLine(c))
	}

	style := cellStyle
	switch {
	case i == v.cursor:
		style = cursorStyle
	case v.selection.IsSelected(c.Day):
		style = selectedStyle
	}
	if i == v.cursor && v.selection.IsSelected(c.Day) {
		style = selectedStyle.BorderForeground(components.ColorAccent)
	}

	height := 2
	if v.weekMode {
		height = 5
	}
	return style.Width(colW).Height(height).Render(strings.Join(lines, "\n"))
}

// monthLine summarizes a day as the letters of its filled slots.
func monthLine(c planner.Cell) string {
	if c.Empty() {
		return components.MutedStyle.Render("·")
	}
	var parts []string
	for _, g := range c.Groups.Slots {
		if len(g.Assignments) > 0 {
			parts = append(parts, slotLetter(g.Slot))
		}
	}
	line := strings.Join(parts, " ")
	if n := len(c.Groups.Unrecognized); n > 0 {
		warn := components.WarningStyle.Render(fmt.Sprintf("?%d", n))
		if line == "" {
			return warn
		}
		line += " " + warn
	}
	return line
}

// weekLines lists the menus of a day, one line per slot.
func (v *View) weekLines(c planner.Cell, colW int) []string {
	if c.Empty() {
		return []string{components.MutedStyle.Render("Sin menú")}
	}
	var out []string
	for _, g := range c.Groups.Slots {
		for _, a := range g.Assignments {
			out = append(out, components.Fit(slotLetter(g.Slot)+" "+v.menuName(a), colW))
		}
	}
	for _, a := range c.Groups.Unrecognized {
		out = append(out, components.WarningStyle.Render(components.Fit("? "+v.menuName(a), colW)))
	}
	return out
}

func (v *View) menuName(a models.MenuAssignment) string {
	if a.MenuName != "" {
		return a.MenuName
	}
	if v.menus != nil {
		if m, ok := v.menus.Find(a.MenuID); ok {
			return m.Name
		}
	}
	return "Menú " + strconv.FormatInt(a.MenuID, 10)
}

// renderSelected shows the selected day's assignments and observation.
func (v *View) renderSelected() string {
	cell, ok := v.selectedCell()
	if !ok {
		if key := v.selection.Key(); key != "" {
			return components.MutedStyle.Render("Día seleccionado: " + key + " (fuera del período visible)\n")
		}
		return components.MutedStyle.Render("Ningún día seleccionado.\n")
	}

	var b strings.Builder
	b.WriteString(components.SectionStyle.Render("Día seleccionado: " + longDate(cell.Date)))
	b.WriteString("\n")

	if cell.Empty() {
		b.WriteString(components.MutedStyle.Render("  Sin menús asignados"))
		b.WriteString("\n")
	}

	idx := 0
	line := func(a models.MenuAssignment) string {
		text := fmt.Sprintf("%s (%d comensales)", v.menuName(a), a.Headcount)
		if idx == v.pick {
			text = pickStyle.Render(text)
		}
		idx++
		return "    " + text + "\n"
	}
	for _, g := range cell.Groups.Slots {
		if len(g.Assignments) == 0 {
			continue
		}
		b.WriteString(components.LabelStyle.Render("  " + g.Label))
		b.WriteString("\n")
		for _, a := range g.Assignments {
			b.WriteString(line(a))
		}
	}
	if len(cell.Groups.Unrecognized) > 0 {
		b.WriteString(components.WarningStyle.Render("  Tiempo no reconocido (revisar)"))
		b.WriteString("\n")
		for _, a := range cell.Groups.Unrecognized {
			b.WriteString(line(a))
			b.WriteString(components.MutedStyle.Render("      etiqueta: " + string(a.Slot)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case v.obsErr != nil:
		b.WriteString(components.ErrorStyle.Render("No se pudo cargar la observación: " + components.ErrorText(v.obsErr)))
	case v.obsOpen:
		b.WriteString(components.MutedStyle.Render("Cargando observación..."))
	case v.obsDate != v.selection.Key():
		b.WriteString(components.MutedStyle.Render("Observación sin consultar (o para ver o editar)"))
	case v.obs.Note != "":
		b.WriteString(components.Field("Observación", v.obs.Note, 13))
	default:
		b.WriteString(components.MutedStyle.Render("Sin observación"))
	}
	b.WriteString("\n")
	return b.String()
}
