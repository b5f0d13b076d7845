package planner

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/report"
	"github.com/nutriplan/nutriplan/internal/services/planner"
	"github.com/nutriplan/nutriplan/internal/services/shopping"
)

// errNoDiners is shown when the selected day has no assignment with diners.
var errNoDiners = errors.New("no hay comensales asignados en el día; no se puede generar el reporte")

// exportDay builds the shopping list of the selected day and writes it as
// a PDF or, with sheet set, as a spreadsheet. The day's note is fetched
// with the details so the document never depends on what the panel shows.
func (v *View) exportDay(sheet bool) tea.Cmd {
	if v.exporting {
		return nil
	}
	date := v.selection.Key()
	branch, _ := v.scope.Branch()
	in := shopping.Input{
		Date:    date,
		Branch:  branch,
		Program: v.opts.Program,
	}
	v.exporting = true
	v.notice, v.err = "", nil

	ctx := v.scope.BranchContext()
	return func() tea.Msg {
		details, err := v.api.AssignmentDetails(ctx, date)
		if err != nil {
			return exportedMsg{err: err}
		}
		obs, err := v.api.Observation(ctx, date)
		if err != nil {
			return exportedMsg{err: fmt.Errorf("cargando la observación: %w", err)}
		}
		obs.Date = date
		in.Observation = obs.Note

		list, err := shopping.Build(in, details)
		if errors.Is(err, shopping.ErrZeroHeadcount) {
			return exportedMsg{obs: &obs, err: errNoDiners}
		}
		if err != nil {
			return exportedMsg{obs: &obs, err: err}
		}

		var rec *models.ExportRecord
		if sheet {
			rec, err = v.exporter.Spreadsheet(ctx, list)
		} else {
			rec, err = v.exporter.ShoppingList(ctx, list)
		}
		return exportedMsg{rec: rec, obs: &obs, err: err}
	}
}

// exportWeek writes the weekly report for the week under the cursor. The
// week is fetched on its own so it does not depend on the visible grid.
func (v *View) exportWeek() tea.Cmd {
	if v.exporting {
		return nil
	}
	days := planner.WeekGrid(v.cursorDay().Date)
	from, to := planner.Range(days)
	branch, _ := v.scope.Branch()
	doc := report.WeeklyDoc{Program: v.opts.Program, Branch: branch.Name}
	v.exporting = true
	v.notice, v.err = "", nil

	ctx := v.scope.BranchContext()
	return func() tea.Msg {
		items, err := v.api.ListAssignments(ctx, from, to)
		if err != nil {
			return exportedMsg{err: fmt.Errorf("cargando la semana: %w", err)}
		}
		planner.SortAssignments(items)
		doc.Cells = planner.BuildCells(days, items)
		rec, err := v.exporter.Weekly(ctx, from, branch.ID, doc)
		return exportedMsg{rec: rec, err: err}
	}
}
