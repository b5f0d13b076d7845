// Package menus provides the menu catalog views.
package menus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nutriplan/nutriplan/internal/api"
	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/report"
	"github.com/nutriplan/nutriplan/internal/services/catalog"
	"github.com/nutriplan/nutriplan/internal/services/nutrition"
	"github.com/nutriplan/nutriplan/internal/tui/components"
)

// Scope supplies the request context and the selected branch.
type Scope interface {
	BranchContext() context.Context
	BranchID() int64
}

// Exporter writes nutrition reports.
type Exporter interface {
	Nutrition(ctx context.Context, fileName string, branchID int64, doc report.NutritionDoc) (*models.ExportRecord, error)
}

// Loader fetches one menu with its recipes and totals.
type Loader func(ctx context.Context, id int64) (*models.Menu, error)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeDetail
	modeForm
	modeConfirm
)

type (
	loadedMsg   struct{}
	savedMsg    struct{ err error }
	deletedMsg  struct{ err error }
	exportedMsg struct {
		rec *models.ExportRecord
		err error
	}
	detailMsg struct {
		id   int64
		menu *models.Menu
		err  error
	}
)

// View lists, edits, deletes and reports on menus.
type View struct {
	store    *catalog.Store[models.Menu]
	recipes  *catalog.Store[models.Recipe]
	get      Loader
	scope    Scope
	exporter Exporter

	table   *components.Table
	page    models.Pagination
	query   string
	search  *components.Input
	visible []models.Menu
	total   int

	mode      mode
	current   models.Menu
	loading   bool
	loaded    bool
	detailErr error
	form      *Form
	exporting bool
	exportMsg string
	exportErr error
}

// New creates the menu view. recipes names and checks the menu's recipes;
// it may be nil. get loads the menu shown in the detail screen.
func New(store *catalog.Store[models.Menu], recipes *catalog.Store[models.Recipe], get Loader, scope Scope, exporter Exporter, pageSize int) *View {
	columns := []components.Column{
		{Title: "ID", Width: 6, Align: lipgloss.Right},
		{Title: "Nombre", Width: 34},
		{Title: "Fecha", Width: 10},
		{Title: "Tipo", Width: 12},
		{Title: "Recetas", Width: 7, Align: lipgloss.Right},
		{Title: "Kcal", Width: 9, Align: lipgloss.Right},
		{Title: "Estado", Width: 9},
	}
	table := components.NewTable(columns)
	table.SetVisibleRows(pageSize)
	table.Focus(true)

	return &View{
		store:    store,
		recipes:  recipes,
		get:      get,
		scope:    scope,
		exporter: exporter,
		table:    table,
		page:     models.Pagination{Page: 1, PageSize: pageSize},
		search:   components.NewInput("Buscar").SetWidth(30),
	}
}

// Refresh reloads menus, and recipes when they are needed for names.
func (v *View) Refresh() tea.Cmd {
	ctx := v.scope.BranchContext()
	cmds := []tea.Cmd{func() tea.Msg {
		_ = v.store.Fetch(ctx)
		return loadedMsg{}
	}}
	if v.recipes != nil {
		cmds = append(cmds, func() tea.Msg {
			_ = v.recipes.Fetch(ctx)
			return loadedMsg{}
		})
	}
	return tea.Batch(cmds...)
}

// Reset returns to the list with no search.
func (v *View) Reset() {
	v.mode = modeList
	v.query = ""
	v.search.SetValue("")
	v.page.Page = 1
	v.form = nil
	v.exportMsg, v.exportErr = "", nil
	v.sync()
}

// Capturing reports whether the view wants every key.
func (v *View) Capturing() bool {
	return v.mode == modeSearch || v.mode == modeForm || v.mode == modeConfirm
}

// Update handles keys and the results of the view's commands.
func (v *View) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg:
		v.sync()
		if v.current.ID != 0 && (v.mode != modeDetail || v.get == nil) {
			if m, ok := v.store.Find(v.current.ID); ok {
				v.current = m
			}
		}
	case deletedMsg:
		v.sync()
		v.mode = modeList
	case savedMsg:
		if v.form != nil {
			v.form.Done(msg.err)
			if msg.err == nil {
				v.form = nil
				v.mode = modeList
			}
		}
		v.sync()
	case detailMsg:
		if msg.id != v.current.ID {
			return nil
		}
		v.loading = false
		v.detailErr = msg.err
		if msg.err == nil {
			v.current = *msg.menu
			v.loaded = true
		}
	case exportedMsg:
		v.exporting = false
		v.exportErr = msg.err
		if msg.err == nil {
			v.exportMsg = "PDF guardado en " + msg.rec.Path
		}
	case tea.KeyMsg:
		return v.handleKey(msg.String())
	}
	return nil
}

func (v *View) handleKey(key string) tea.Cmd {
	switch v.mode {
	case modeSearch:
		switch key {
		case "enter", "esc":
			v.search.Focus(false)
			v.mode = modeList
		default:
			v.search.HandleKey(key)
			v.query = v.search.Value()
			v.page.Page = 1
			v.sync()
		}
		return nil

	case modeForm:
		m, ok := v.form.HandleKey(key)
		if v.form.Cancelled() {
			v.form = nil
			v.mode = modeList
			return nil
		}
		if !ok {
			return nil
		}
		v.store.ClearMessages()
		ctx := v.scope.BranchContext()
		return func() tea.Msg {
			return savedMsg{err: v.store.Save(ctx, m)}
		}

	case modeConfirm:
		switch key {
		case "y", "s":
			m := v.current
			v.store.ClearMessages()
			ctx := v.scope.BranchContext()
			return func() tea.Msg {
				return deletedMsg{err: v.store.SoftDelete(ctx, m)}
			}
		case "n", "esc":
			v.mode = modeList
		}
		return nil

	case modeDetail:
		switch key {
		case "esc", "backspace":
			v.mode = modeList
		case "r":
			return v.openDetail(v.current)
		}
		if !v.loaded {
			return nil
		}
		switch key {
		case "e":
			v.openForm(&v.current)
		case "d":
			v.mode = modeConfirm
		case "p":
			return v.export()
		}
		return nil
	}

	switch key {
	case "up", "k":
		v.table.MoveUp()
	case "down", "j":
		v.table.MoveDown()
	case "home", "g":
		v.table.GoToTop()
	case "end", "G":
		v.table.GoToBottom()
	case "pgdown", "]":
		if v.page.Page < v.page.TotalPages(v.total) {
			v.page.Page++
			v.sync()
		}
	case "pgup", "[":
		if v.page.Page > 1 {
			v.page.Page--
			v.sync()
		}
	case "/":
		v.mode = modeSearch
		v.search.Focus(true)
	case "esc":
		if v.query != "" {
			v.query = ""
			v.search.SetValue("")
			v.sync()
		}
	case "a", "n":
		v.openForm(nil)
	case "enter":
		if m, ok := v.selected(); ok {
			return v.openDetail(m)
		}
	case "e":
		if m, ok := v.selected(); ok {
			v.current = m
			v.openForm(&m)
		}
	case "d":
		if m, ok := v.selected(); ok {
			v.current = m
			v.mode = modeConfirm
		}
	case "p":
		if m, ok := v.selected(); ok {
			v.current = m
			return v.export()
		}
	case "r":
		v.store.ClearMessages()
		return v.Refresh()
	}
	return nil
}

// openDetail shows m and fetches its full copy from the backend.
func (v *View) openDetail(m models.Menu) tea.Cmd {
	v.current = m
	v.exportMsg, v.exportErr = "", nil
	v.mode = modeDetail
	v.detailErr = nil
	if v.get == nil {
		v.loaded = true
		return nil
	}
	v.loading, v.loaded = true, false
	ctx := v.scope.BranchContext()
	get := v.get
	return func() tea.Msg {
		menu, err := get(ctx, m.ID)
		return detailMsg{id: m.ID, menu: menu, err: err}
	}
}

func (v *View) openForm(m *models.Menu) {
	v.store.ClearMessages()
	var lookup RecipeLookup
	if v.recipes != nil && len(v.recipes.Items()) > 0 {
		lookup = func(id int64) (string, bool) {
			r, ok := v.recipes.Find(id)
			if !ok || r.Status == models.StatusDeleted {
				return "", false
			}
			return r.Name, true
		}
	}
	v.form = NewForm(m, lookup)
	v.mode = modeForm
}

func (v *View) export() tea.Cmd {
	if v.exporter == nil || v.exporting {
		return nil
	}
	m := v.current
	v.exporting = true
	v.exportMsg, v.exportErr = "", nil

	ctx := v.scope.BranchContext()
	branch := v.scope.BranchID()
	get := v.get
	name := v.recipeName
	return func() tea.Msg {
		if get != nil {
			fetched, err := get(ctx, m.ID)
			if err != nil {
				return exportedMsg{err: fmt.Errorf("cargando el menú: %w", err)}
			}
			m = *fetched
		}
		rec, err := v.exporter.Nutrition(ctx, report.NutritionFileName(m.Name), branch, menuDoc(m, name))
		return exportedMsg{rec: rec, err: err}
	}
}

// menuDoc is the nutrition report of m.
func menuDoc(m models.Menu, recipeName func(models.MenuRecipe) string) report.NutritionDoc {
	fields := []report.Field{{Label: "Recetas", Value: strconv.Itoa(len(m.Recipes))}}
	if m.Date != "" {
		fields = append(fields, report.Field{Label: "Fecha", Value: m.Date})
	}
	if m.Type != "" {
		fields = append(fields, report.Field{Label: "Tipo", Value: m.Type})
	}
	for _, g := range groupRecipes(m, recipeName) {
		fields = append(fields, report.Field{Label: g.slot.Label(), Value: strings.Join(g.names, ", ")})
	}
	return report.NewNutritionDoc(m.Name, m.Totals, fields...)
}

// slotGroup is the recipes of one meal slot.
type slotGroup struct {
	slot  models.MealSlot
	names []string
}

// groupRecipes orders the menu's recipes by slot: breakfast, lunch and
// dinner first, then any other tag in order of appearance.
func groupRecipes(m models.Menu, name func(models.MenuRecipe) string) []slotGroup {
	index := make(map[models.MealSlot]int)
	var groups []slotGroup
	for _, slot := range models.MealSlots {
		index[slot] = len(groups)
		groups = append(groups, slotGroup{slot: slot})
	}
	for _, r := range m.Recipes {
		i, ok := index[r.Slot]
		if !ok {
			i = len(groups)
			index[r.Slot] = i
			groups = append(groups, slotGroup{slot: r.Slot})
		}
		groups[i].names = append(groups[i].names, name(r))
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.names) > 0 {
			out = append(out, g)
		}
	}
	return out
}

func (v *View) recipeName(r models.MenuRecipe) string {
	if r.RecipeName != "" {
		return r.RecipeName
	}
	if v.recipes != nil {
		if rec, ok := v.recipes.Find(r.RecipeID); ok {
			return rec.Name
		}
	}
	return fmt.Sprintf("Receta %d", r.RecipeID)
}

func (v *View) selected() (models.Menu, bool) {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.visible) {
		return v.visible[idx], true
	}
	return models.Menu{}, false
}

func (v *View) sync() {
	items := catalog.WithoutDeleted(v.store.Items(), func(m models.Menu) models.Status { return m.Status })
	items = catalog.Filter(items, v.query, func(m models.Menu) []string {
		return []string{m.Name, m.Type, m.Description}
	})

	v.total = len(items)
	if pages := v.page.TotalPages(v.total); v.page.Page > pages {
		v.page.Page = pages
	}
	v.visible = catalog.Page(items, v.page)

	rows := make([][]string, len(v.visible))
	for i, m := range v.visible {
		kcal := "-"
		if e, ok := m.Totals.Get(models.KeyEnergyTotal); ok {
			kcal = fmt.Sprintf("%.1f", e)
		}
		rows[i] = []string{
			strconv.FormatInt(m.ID, 10),
			m.Name,
			m.Date,
			m.Type,
			strconv.Itoa(len(m.Recipes)),
			kcal,
			m.Status.String(),
		}
	}
	v.table.SetRows(rows)
	v.table.SetPagination(v.page.Page, v.page.TotalPages(v.total), v.total)
}

func (v *View) statusLine() string {
	switch {
	case v.exporting:
		return components.MutedStyle.Render("Generando PDF...")
	case v.exportErr != nil:
		return components.ErrorStyle.Render("No se pudo exportar: " + components.ErrorText(v.exportErr))
	case v.exportMsg != "":
		return components.SuccessStyle.Render(v.exportMsg)
	}
	return components.Status{
		Loading: v.store.ListPhase() == catalog.PhaseLoading,
		ListErr: v.store.Err(),
		OpErr:   v.store.OperationError(),
		Success: v.store.SuccessMessage(),
	}.Render()
}

// Render renders the current screen of the view.
func (v *View) Render(width, height int) string {
	switch v.mode {
	case modeForm:
		return v.form.Render()
	case modeDetail:
		return v.renderDetail(width)
	}

	var b strings.Builder
	b.WriteString(components.TitleStyle.Render("=== MENÚS ==="))
	b.WriteString("\n\n")

	if v.mode == modeSearch || v.query != "" {
		b.WriteString(v.search.Render())
		b.WriteString("\n\n")
	}
	if line := v.statusLine(); line != "" {
		b.WriteString(line)
		b.WriteString("\n\n")
	}
	if v.mode == modeConfirm {
		b.WriteString(components.WarningStyle.Render(fmt.Sprintf("¿Eliminar el menú %q? (s/n)", v.current.Name)))
		b.WriteString("\n\n")
	}

	switch {
	case v.table.Empty() && v.store.ListPhase() == catalog.PhaseLoading:
	case v.table.Empty() && v.query != "":
		b.WriteString(components.MutedStyle.Render("Ningún menú coincide con la búsqueda."))
		b.WriteString("\n")
	case v.table.Empty():
		b.WriteString(components.MutedStyle.Render("No hay menús registrados."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.Render())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if width >= 80 {
		b.WriteString(components.HelpStyle.Render("↑/↓:Mover  PgUp/PgDn:Página  /:Buscar  Enter:Ver  a:Nuevo  e:Editar  d:Eliminar  p:PDF  r:Recargar"))
	} else {
		b.WriteString(components.HelpStyle.Render("/:Buscar a:Nuevo e:Editar p:PDF"))
	}
	return b.String()
}

func (v *View) renderDetail(width int) string {
	m := v.current
	var b strings.Builder

	b.WriteString(components.TitleStyle.Render("=== " + strings.ToUpper(m.Name) + " ==="))
	b.WriteString("\n\n")
	switch {
	case v.loading:
		b.WriteString(components.MutedStyle.Render("Cargando menú..."))
		return b.String()
	case errors.Is(v.detailErr, api.ErrNotFound):
		b.WriteString(components.WarningStyle.Render("El menú no existe o fue eliminado."))
		b.WriteString("\n\n")
		b.WriteString(components.HelpStyle.Render("Esc:Volver"))
		return b.String()
	case v.detailErr != nil:
		b.WriteString(components.ErrorStyle.Render("No se pudo cargar el menú: " + api.Message(v.detailErr)))
		b.WriteString("\n\n")
		b.WriteString(components.HelpStyle.Render("r:Reintentar  Esc:Volver"))
		return b.String()
	}
	if m.Date != "" {
		b.WriteString(components.Field("Fecha", m.Date, 13))
		b.WriteString("\n")
	}
	if m.Type != "" {
		b.WriteString(components.Field("Tipo", m.Type, 13))
		b.WriteString("\n")
	}
	b.WriteString(components.Field("Estado", m.Status.String(), 13))
	b.WriteString("\n")
	if m.Description != "" {
		b.WriteString(components.Field("Descripción", m.Description, 13))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	groups := groupRecipes(m, v.recipeName)
	if len(groups) == 0 {
		b.WriteString(components.MutedStyle.Render("El menú no tiene recetas."))
		b.WriteString("\n")
	}
	for _, g := range groups {
		b.WriteString(components.SectionStyle.Render(g.slot.Label()))
		b.WriteString("\n")
		for _, n := range g.names {
			b.WriteString("  • " + n + "\n")
		}
	}

	chartWidth := width - 10
	if chartWidth > 60 {
		chartWidth = 60
	}
	b.WriteString("\n")
	b.WriteString(components.SectionStyle.Render("Distribución energética"))
	b.WriteString("\n")
	b.WriteString(components.MacroChart(nutrition.Compute(m.Totals), chartWidth))
	b.WriteString("\n\n")
	b.WriteString(components.NutrientSections(nutrition.Sections(m.Totals)))
	b.WriteString("\n")

	if line := v.statusLine(); line != "" {
		b.WriteString("\n")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(components.HelpStyle.Render("p:Exportar PDF  e:Editar  d:Eliminar  Esc:Volver"))
	return b.String()
}
