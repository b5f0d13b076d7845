// Package recipes provides the recipe catalog views.
package recipes

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

// Loader fetches one recipe with its ingredients and totals.
type Loader func(ctx context.Context, id int64) (*models.Recipe, error)

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
		id     int64
		recipe *models.Recipe
		err    error
	}
)

// View lists, edits, deletes and reports on recipes.
type View struct {
	store    *catalog.Store[models.Recipe]
	foods    *catalog.Store[models.FoodItem]
	get      Loader
	scope    Scope
	exporter Exporter

	table   *components.Table
	page    models.Pagination
	query   string
	search  *components.Input
	visible []models.Recipe
	total   int

	mode      mode
	current   models.Recipe
	loading   bool
	loaded    bool
	detailErr error
	form      *Form
	exporting bool
	exportMsg string
	exportErr error
}

// New creates the recipe view. foods is used to name and check
// ingredients; it may be nil. get loads the recipe shown in the detail
// screen.
func New(store *catalog.Store[models.Recipe], foods *catalog.Store[models.FoodItem], get Loader, scope Scope, exporter Exporter, pageSize int) *View {
	columns := []components.Column{
		{Title: "ID", Width: 6, Align: lipgloss.Right},
		{Title: "Nombre", Width: 38},
		{Title: "Porciones", Width: 9, Align: lipgloss.Right},
		{Title: "Min", Width: 5, Align: lipgloss.Right},
		{Title: "Ingred.", Width: 7, Align: lipgloss.Right},
		{Title: "Kcal", Width: 9, Align: lipgloss.Right},
		{Title: "Estado", Width: 9},
	}
	table := components.NewTable(columns)
	table.SetVisibleRows(pageSize)
	table.Focus(true)

	return &View{
		store:    store,
		foods:    foods,
		get:      get,
		scope:    scope,
		exporter: exporter,
		table:    table,
		page:     models.Pagination{Page: 1, PageSize: pageSize},
		search:   components.NewInput("Buscar").SetWidth(30),
	}
}

// Refresh reloads recipes, and foods when they are needed for names.
func (v *View) Refresh() tea.Cmd {
	ctx := v.scope.BranchContext()
	cmds := []tea.Cmd{func() tea.Msg {
		_ = v.store.Fetch(ctx)
		return loadedMsg{}
	}}
	if v.foods != nil {
		cmds = append(cmds, func() tea.Msg {
			_ = v.foods.Fetch(ctx)
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
		v.refreshCurrent()
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
			v.current = *msg.recipe
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
		recipe, ok := v.form.HandleKey(key)
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
			return savedMsg{err: v.store.Save(ctx, recipe)}
		}

	case modeConfirm:
		switch key {
		case "y", "s":
			recipe := v.current
			v.store.ClearMessages()
			ctx := v.scope.BranchContext()
			return func() tea.Msg {
				return deletedMsg{err: v.store.SoftDelete(ctx, recipe)}
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
		if r, ok := v.selected(); ok {
			return v.openDetail(r)
		}
	case "e":
		if r, ok := v.selected(); ok {
			v.current = r
			v.openForm(&r)
		}
	case "d":
		if r, ok := v.selected(); ok {
			v.current = r
			v.mode = modeConfirm
		}
	case "p":
		if r, ok := v.selected(); ok {
			v.current = r
			return v.export()
		}
	case "r":
		v.store.ClearMessages()
		return v.Refresh()
	}
	return nil
}

// openDetail shows r and fetches its full copy from the backend.
func (v *View) openDetail(r models.Recipe) tea.Cmd {
	v.current = r
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
		recipe, err := get(ctx, r.ID)
		return detailMsg{id: r.ID, recipe: recipe, err: err}
	}
}

func (v *View) openForm(r *models.Recipe) {
	v.store.ClearMessages()
	v.form = NewForm(r, v.lookup())
	v.mode = modeForm
}

// lookup checks ingredient ids against the loaded foods. Without a loaded
// catalog the ids are left to the backend.
func (v *View) lookup() FoodLookup {
	if v.foods == nil || len(v.foods.Items()) == 0 {
		return nil
	}
	return func(id int64) (string, bool) {
		f, ok := v.foods.Find(id)
		if !ok || f.Status == models.StatusDeleted {
			return "", false
		}
		return f.Name, true
	}
}

func (v *View) export() tea.Cmd {
	if v.exporter == nil || v.exporting {
		return nil
	}
	r := v.current
	v.exporting = true
	v.exportMsg, v.exportErr = "", nil

	ctx := v.scope.BranchContext()
	branch := v.scope.BranchID()
	get := v.get
	return func() tea.Msg {
		if get != nil {
			fetched, err := get(ctx, r.ID)
			if err != nil {
				return exportedMsg{err: fmt.Errorf("cargando la receta: %w", err)}
			}
			r = *fetched
		}
		doc := report.NewNutritionDoc(r.Name, r.Totals,
			report.Field{Label: "Rendimiento", Value: fmt.Sprintf("%d porciones", r.Portions)},
			report.Field{Label: "Ingredientes", Value: strconv.Itoa(len(r.Ingredients))},
		)
		rec, err := v.exporter.Nutrition(ctx, report.NutritionFileName(r.Name), branch, doc)
		return exportedMsg{rec: rec, err: err}
	}
}

func (v *View) selected() (models.Recipe, bool) {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.visible) {
		return v.visible[idx], true
	}
	return models.Recipe{}, false
}

// refreshCurrent picks up the reloaded copy of the recipe on display.
// A fetched detail copy is kept.
func (v *View) refreshCurrent() {
	if v.current.ID == 0 || (v.mode == modeDetail && v.get != nil) {
		return
	}
	if r, ok := v.store.Find(v.current.ID); ok {
		v.current = r
	}
}

func (v *View) sync() {
	items := catalog.WithoutDeleted(v.store.Items(), func(r models.Recipe) models.Status { return r.Status })
	items = catalog.Filter(items, v.query, func(r models.Recipe) []string {
		return []string{r.Name}
	})

	v.total = len(items)
	if pages := v.page.TotalPages(v.total); v.page.Page > pages {
		v.page.Page = pages
	}
	v.visible = catalog.Page(items, v.page)

	rows := make([][]string, len(v.visible))
	for i, r := range v.visible {
		kcal := "-"
		if e, ok := r.Totals.Get(models.KeyEnergyTotal); ok {
			kcal = fmt.Sprintf("%.1f", e)
		}
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			r.Name,
			strconv.Itoa(r.Portions),
			strconv.Itoa(r.PrepMinutes),
			strconv.Itoa(len(r.Ingredients)),
			kcal,
			r.Status.String(),
		}
	}
	v.table.SetRows(rows)
	v.table.SetPagination(v.page.Page, v.page.TotalPages(v.total), v.total)
}

func (v *View) statusLine() string {
	if v.exporting {
		return components.MutedStyle.Render("Generando PDF...")
	}
	if v.exportErr != nil {
		return components.ErrorStyle.Render("No se pudo exportar: " + components.ErrorText(v.exportErr))
	}
	if v.exportMsg != "" {
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
	b.WriteString(components.TitleStyle.Render("=== RECETAS ==="))
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
		b.WriteString(components.WarningStyle.Render(fmt.Sprintf("¿Eliminar la receta %q? (s/n)", v.current.Name)))
		b.WriteString("\n\n")
	}

	switch {
	case v.table.Empty() && v.store.ListPhase() == catalog.PhaseLoading:
	case v.table.Empty() && v.query != "":
		b.WriteString(components.MutedStyle.Render("Ninguna receta coincide con la búsqueda."))
		b.WriteString("\n")
	case v.table.Empty():
		b.WriteString(components.MutedStyle.Render("No hay recetas registradas."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.Render())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if width >= 80 {
		b.WriteString(components.HelpStyle.Render("↑/↓:Mover  PgUp/PgDn:Página  /:Buscar  Enter:Ver  a:Nueva  e:Editar  d:Eliminar  p:PDF  r:Recargar"))
	} else {
		b.WriteString(components.HelpStyle.Render("/:Buscar a:Nueva e:Editar p:PDF"))
	}
	return b.String()
}

func (v *View) renderDetail(width int) string {
	r := v.current
	var b strings.Builder

	b.WriteString(components.TitleStyle.Render("=== " + strings.ToUpper(r.Name) + " ==="))
	b.WriteString("\n\n")
	switch {
	case v.loading:
		b.WriteString(components.MutedStyle.Render("Cargando receta..."))
		return b.String()
	case errors.Is(v.detailErr, api.ErrNotFound):
		b.WriteString(components.WarningStyle.Render("La receta no existe o fue eliminada."))
		b.WriteString("\n\n")
		b.WriteString(components.HelpStyle.Render("Esc:Volver"))
		return b.String()
	case v.detailErr != nil:
		b.WriteString(components.ErrorStyle.Render("No se pudo cargar la receta: " + api.Message(v.detailErr)))
		b.WriteString("\n\n")
		b.WriteString(components.HelpStyle.Render("r:Reintentar  Esc:Volver"))
		return b.String()
	}
	b.WriteString(components.Field("Rendimiento", fmt.Sprintf("%d porciones", r.Portions), 14))
	b.WriteString("\n")
	if r.PrepMinutes > 0 {
		b.WriteString(components.Field("Tiempo", fmt.Sprintf("%d min", r.PrepMinutes), 14))
		b.WriteString("\n")
	}
	b.WriteString(components.Field("Estado", r.Status.String(), 14))
	b.WriteString("\n")
	if r.Instructions != "" {
		b.WriteString(components.Field("Preparación", r.Instructions, 14))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(components.SectionStyle.Render("Ingredientes (por porción)"))
	b.WriteString("\n")
	if len(r.Ingredients) == 0 {
		b.WriteString(components.MutedStyle.Render("Sin ingredientes."))
		b.WriteString("\n")
	}
	for _, ing := range r.Ingredients {
		name := ing.FoodName
		if name == "" && v.foods != nil {
			if f, ok := v.foods.Find(ing.FoodID); ok {
				name = f.Name
			}
		}
		if name == "" {
			name = fmt.Sprintf("Insumo %d", ing.FoodID)
		}
		qty := strconv.FormatFloat(ing.Quantity, 'f', -1, 64)
		b.WriteString(fmt.Sprintf("  %-30s %10s %s\n", name, qty, ing.Unit))
	}

	chartWidth := width - 10
	if chartWidth > 60 {
		chartWidth = 60
	}
	b.WriteString("\n")
	b.WriteString(components.SectionStyle.Render("Distribución energética"))
	b.WriteString("\n")
	b.WriteString(components.MacroChart(nutrition.Compute(r.Totals), chartWidth))
	b.WriteString("\n\n")
	b.WriteString(components.NutrientSections(nutrition.Sections(r.Totals)))
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
