package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/tui/components"
)

type (
	branchesMsg struct {
		branches []models.Branch
		err      error
	}
	branchSelectedMsg struct {
		branch models.Branch
		err    error
	}
)

// branchPicker lists the branches the user can switch to.
type branchPicker struct {
	branches []models.Branch
	cursor   int
	current  int64
	loading  bool
	pending  bool
	listErr  error
	err      error
}

func newBranchPicker(branches []models.Branch, current int64) *branchPicker {
	p := &branchPicker{current: current}
	p.loaded(branches, nil)
	return p
}

func (p *branchPicker) loaded(branches []models.Branch, err error) {
	p.loading = false
	p.listErr = err
	p.branches = branches
	p.cursor = 0
	for i, b := range branches {
		if b.ID == p.current {
			p.cursor = i
		}
	}
}

func (p *branchPicker) selected() (models.Branch, bool) {
	if p.cursor < 0 || p.cursor >= len(p.branches) {
		return models.Branch{}, false
	}
	return p.branches[p.cursor], true
}

// openBranchPicker shows the session's branches. Sessions that carry no
// branch list ask the backend for the visible ones.
func (a *App) openBranchPicker() tea.Cmd {
	s, ok := a.session.Session()
	if !ok {
		return nil
	}
	current, _ := a.session.Branch()

	if a.currentModule != ModuleBranch && a.currentModule != ModuleHelp {
		a.previousModule = a.currentModule
	}
	a.currentModule = ModuleBranch
	a.branches = newBranchPicker(s.Branches, current.ID)
	if len(s.Branches) > 0 {
		return nil
	}

	a.branches.loading = true
	client := a.client
	return func() tea.Msg {
		branches, err := client.Branches(context.Background())
		return branchesMsg{branches: branches, err: err}
	}
}

func (a *App) closeBranchPicker() {
	a.branches = nil
	a.currentModule = a.previousModule
	a.previousModule = ""
	if a.currentModule == "" || a.currentModule == ModuleHelp || a.currentModule == ModuleBranch {
		a.currentModule = ModuleDashboard
	}
}

func (a *App) handleBranchKeys(msg tea.KeyMsg) tea.Cmd {
	p := a.branches
	if msg.String() == "ctrl+c" || a.keys.F10.Matches(msg) {
		a.showConfirm = true
		return nil
	}
	if p == nil || p.pending {
		return nil
	}

	switch msg.String() {
	case "esc":
		a.closeBranchPicker()
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.branches)-1 {
			p.cursor++
		}
	case "enter":
		b, ok := p.selected()
		if !ok {
			return nil
		}
		if b.ID == p.current {
			a.closeBranchPicker()
			return nil
		}
		p.pending = true
		p.err = nil
		sess := a.session
		return func() tea.Msg {
			return branchSelectedMsg{branch: b, err: sess.SelectBranch(context.Background(), b)}
		}
	}
	return nil
}

// branchSelected drops everything cached for the previous branch and
// reloads the screen the picker was opened from.
func (a *App) branchSelected(msg branchSelectedMsg) tea.Cmd {
	if msg.err != nil {
		if a.branches != nil {
			a.branches.pending = false
			a.branches.err = msg.err
		}
		return nil
	}

	a.resetViews()
	a.closeBranchPicker()
	a.AddAlert(AlertInfo, "Sucursal activa: "+msg.branch.Name)

	if a.currentModule == ModuleDashboard {
		return a.loadDashboard()
	}
	if v, ok := a.views[a.currentModule]; ok {
		return v.Refresh()
	}
	return nil
}

func (a *App) renderBranchPicker() string {
	p := a.branches
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ SELECCIONAR SUCURSAL ═══"))
	b.WriteString("\n\n")

	switch {
	case p == nil:
	case p.loading:
		b.WriteString(a.theme.Muted.Render("Cargando sucursales..."))
		b.WriteString("\n")
	case p.listErr != nil:
		b.WriteString(a.theme.Error.Render("No se pudieron cargar las sucursales: " + components.ErrorText(p.listErr)))
		b.WriteString("\n")
	case len(p.branches) == 0:
		b.WriteString(a.theme.Muted.Render("No hay sucursales disponibles."))
		b.WriteString("\n")
	default:
		for i, br := range p.branches {
			line := "  " + br.Name
			if br.ID == p.current {
				line += " (actual)"
			}
			if i == p.cursor {
				b.WriteString(a.theme.Selected.Render("▸" + line[1:]))
			} else {
				b.WriteString(a.theme.Primary.Render(line))
			}
			b.WriteString("\n")
		}
	}

	if p != nil && p.err != nil {
		b.WriteString("\n")
		b.WriteString(a.theme.Error.Render("No se pudo cambiar la sucursal: " + components.ErrorText(p.err)))
		b.WriteString("\n")
	}
	if p != nil && p.pending {
		b.WriteString("\n")
		b.WriteString(a.theme.Muted.Render("Cambiando sucursal..."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Muted.Render("↑/↓:Mover  Enter:Seleccionar  Esc:Volver"))
	return b.String()
}
