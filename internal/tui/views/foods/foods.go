// Package foods provides the food item ("insumo") catalog views.
package foods

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/services/catalog"
	"github.com/nutriplan/nutriplan/internal/tui/components"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeDetail
	modeForm
	modeConfirm
)

type (
	loadedMsg  struct{}
	savedMsg   struct{ err error }
	deletedMsg struct{ err error }
)

// View lists, edits and deletes food items.
type View struct {
	store *catalog.Store[models.FoodItem]
	ctx   func() context.Context

	table   *components.Table
	page    models.Pagination
	query   string
	search  *components.Input
	visible []models.FoodItem
	total   int

	mode    mode
	current models.FoodItem
	form    *Form
}

// New creates the food catalog view. ctx supplies the context of each
// request, normally the branch context of the session.
func New(store *catalog.Store[models.FoodItem], ctx func() context.Context, pageSize int) *View {
	columns := []components.Column{
		{Title: "ID", Width: 6, Align: lipgloss.Right},
		{Title: "Nombre", Width: 34},
		{Title: "Grupo", Width: 18},
		{Title: "Subgrupo", Width: 18},
		{Title: "Kcal/100g", Width: 10, Align: lipgloss.Right},
		{Title: "Estado", Width: 9},
	}
	table := components.NewTable(columns)
	table.SetVisibleRows(pageSize)
	table.Focus(true)

	return &View{
		store:  store,
		ctx:    ctx,
		table:  table,
		page:   models.Pagination{Page: 1, PageSize: pageSize},
		search: components.NewInput("Buscar").SetWidth(30),
	}
}

// Refresh reloads the list from the backend.
func (v *View) Refresh() tea.Cmd {
	ctx := v.ctx()
	return func() tea.Msg {
		_ = v.store.Fetch(ctx)
		return loadedMsg{}
	}
}

// Reset returns to the list with no search.
func (v *View) Reset() {
	v.mode = modeList
	v.query = ""
	v.search.SetValue("")
	v.page.Page = 1
	v.form = nil
	v.sync()
}

// Capturing reports whether the view wants every key, including the ones
// the application would otherwise handle.
func (v *View) Capturing() bool {
	return v.mode == modeSearch || v.mode == modeForm || v.mode == modeConfirm
}

// Update handles keys and the results of the view's commands.
func (v *View) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg, deletedMsg:
		v.sync()
		if v.mode == modeConfirm {
			v.mode = modeList
		}
	case savedMsg:
		if v.form != nil {
			v.form.Done(msg.err)
			if msg.err == nil {
				v.form = nil
				v.mode = modeList
			}
		}
		v.sync()
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
		item, ok := v.form.HandleKey(key)
		if v.form.Cancelled() {
			v.form = nil
			v.mode = modeList
			return nil
		}
		if !ok {
			return nil
		}
		v.store.ClearMessages()
		ctx := v.ctx()
		return func() tea.Msg {
			return savedMsg{err: v.store.Save(ctx, item)}
		}

	case modeConfirm:
		switch key {
		case "y", "s":
			item := v.current
			v.store.ClearMessages()
			ctx := v.ctx()
			return func() tea.Msg {
				return deletedMsg{err: v.store.SoftDelete(ctx, item)}
			}
		case "n", "esc":
			v.mode = modeList
		}
		return nil

	case modeDetail:
		switch key {
		case "esc", "backspace", "enter":
			v.mode = modeList
		case "e":
			v.openForm(&v.current)
		case "d":
			v.mode = modeConfirm
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
		if item, ok := v.selected(); ok {
			v.current = item
			v.mode = modeDetail
		}
	case "e":
		if item, ok := v.selected(); ok {
			v.current = item
			v.openForm(&item)
		}
	case "d":
		if item, ok := v.selected(); ok {
			v.current = item
			v.mode = modeConfirm
		}
	case "r":
		v.store.ClearMessages()
		return v.Refresh()
	}
	return nil
}

func (v *View) openForm(item *models.FoodItem) {
	v.store.ClearMessages()
	v.form = NewForm(item)
	v.mode = modeForm
}

func (v *View) selected() (models.FoodItem, bool) {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.visible) {
		return v.visible[idx], true
	}
	return models.FoodItem{}, false
}

// sync rebuilds the table from the store, the search and the page.
func (v *View) sync() {
	items := catalog.WithoutDeleted(v.store.Items(), func(f models.FoodItem) models.Status { return f.Status })
	items = catalog.Filter(items, v.query, func(f models.FoodItem) []string {
		return []string{f.Name, f.Group, f.Subgroup}
	})

	v.total = len(items)
	if pages := v.page.TotalPages(v.total); v.page.Page > pages {
		v.page.Page = pages
	}
	v.visible = catalog.Page(items, v.page)

	rows := make([][]string, len(v.visible))
	for i, f := range v.visible {
		rows[i] = []string{
			fmt.Sprintf("%d", f.ID),
			f.Name,
			f.Group,
			f.Subgroup,
			components.FormatOptional(f.EnergyKcal),
			f.Status.String(),
		}
	}
	v.table.SetRows(rows)
	v.table.SetPagination(v.page.Page, v.page.TotalPages(v.total), v.total)
}

func (v *View) status() components.Status {
	return components.Status{
		Loading: v.store.ListPhase() == catalog.PhaseLoading,
		ListErr: v.store.Err(),
		OpErr:   v.store.OperationError(),
		Success: v.store.SuccessMessage(),
	}
}

// Render renders the current screen of the view.
func (v *View) Render(width, height int) string {
	switch v.mode {
	case modeForm:
		return v.form.Render()
	case modeDetail:
		return v.renderDetail()
	}

	var b strings.Builder
	b.WriteString(components.TitleStyle.Render("=== INSUMOS ==="))
	b.WriteString("\n\n")

	if v.mode == modeSearch || v.query != "" {
		b.WriteString(v.search.Render())
		b.WriteString("\n\n")
	}

	if line := v.status().Render(); line != "" {
		b.WriteString(line)
		b.WriteString("\n\n")
	}

	if v.mode == modeConfirm {
		b.WriteString(components.WarningStyle.Render(fmt.Sprintf("¿Eliminar el insumo %q? (s/n)", v.current.Name)))
		b.WriteString("\n\n")
	}

	switch {
	case v.table.Empty() && v.store.ListPhase() == catalog.PhaseLoading:
	case v.table.Empty() && v.query != "":
		b.WriteString(components.MutedStyle.Render("Ningún insumo coincide con la búsqueda."))
		b.WriteString("\n")
	case v.table.Empty():
		b.WriteString(components.MutedStyle.Render("No hay insumos registrados."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.Render())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if width >= 80 {
		b.WriteString(components.HelpStyle.Render("↑/↓:Mover  PgUp/PgDn:Página  /:Buscar  Enter:Ver  a:Nuevo  e:Editar  d:Eliminar  r:Recargar"))
	} else {
		b.WriteString(components.HelpStyle.Render("/:Buscar a:Nuevo e:Editar d:Eliminar"))
	}
	return b.String()
}

func (v *View) renderDetail() string {
	f := v.current
	var b strings.Builder

	b.WriteString(components.TitleStyle.Render("=== " + strings.ToUpper(f.Name) + " ==="))
	b.WriteString("\n\n")
	b.WriteString(components.Field("ID", fmt.Sprintf("%d", f.ID), 12))
	b.WriteString("\n")
	b.WriteString(components.Field("Grupo", f.Group, 12))
	b.WriteString("\n")
	b.WriteString(components.Field("Subgrupo", f.Subgroup, 12))
	b.WriteString("\n")
	b.WriteString(components.Field("Estado", f.Status.String(), 12))
	b.WriteString("\n\n")

	b.WriteString(components.SectionStyle.Render("Composición por 100 g"))
	b.WriteString("\n")
	nutrients := f.FoodNutrients
	for _, field := range models.NutrientFields {
		value := components.FormatOptional(*field.Ref(&nutrients))
		if value != "-" {
			value += " " + field.Unit
		}
		b.WriteString(components.Field(field.Label, value, 18))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(components.HelpStyle.Render("e:Editar  d:Eliminar  Esc:Volver"))
	return b.String()
}
