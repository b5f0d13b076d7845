// Package planner provides the menu calendar: month and week grids,
// assignment of menus to days, day notes and the daily and weekly exports.
package planner

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/report"
	"github.com/nutriplan/nutriplan/internal/services/catalog"
	"github.com/nutriplan/nutriplan/internal/services/planner"
	"github.com/nutriplan/nutriplan/internal/services/shopping"
	"github.com/nutriplan/nutriplan/internal/util"
)

// Scope supplies the request context and the selected branch.
type Scope interface {
	BranchContext() context.Context
	Branch() (models.Branch, bool)
}

// DayAPI is the backend surface used besides the assignment store.
type DayAPI interface {
	ListAssignments(ctx context.Context, from, to string) ([]models.MenuAssignment, error)
	AssignmentDetails(ctx context.Context, date string) ([]models.AssignmentDetail, error)
	Observation(ctx context.Context, date string) (models.DayObservation, error)
	SaveObservation(ctx context.Context, obs models.DayObservation) error
}

// Exporter writes the planner's reports.
type Exporter interface {
	ShoppingList(ctx context.Context, list *shopping.List) (*models.ExportRecord, error)
	Spreadsheet(ctx context.Context, list *shopping.List) (*models.ExportRecord, error)
	Weekly(ctx context.Context, monday string, branchID int64, doc report.WeeklyDoc) (*models.ExportRecord, error)
}

// Options configure the view.
type Options struct {
	Program          string
	DefaultHeadcount int
	Clock            util.Clock
}

type mode int

const (
	modeGrid mode = iota
	modeAssign
	modeObservation
	modeConfirm
)

type (
	loadedMsg      struct{}
	savedMsg       struct{ err error }
	removedMsg     struct{ err error }
	observationMsg struct {
		date string
		obs  models.DayObservation
		err  error
	}
	observationSavedMsg struct {
		obs models.DayObservation
		err error
	}
	exportedMsg struct {
		rec *models.ExportRecord
		obs *models.DayObservation
		err error
	}
)

// View is the menu planner.
type View struct {
	store    *catalog.AssignmentStore
	menus    *catalog.Store[models.Menu]
	api      DayAPI
	exporter Exporter
	scope    Scope
	opts     Options

	ref       time.Time
	weekMode  bool
	days      []planner.Day
	cells     []planner.Cell
	cursor    int
	selection planner.Selection
	pick      int

	mode     mode
	assign   *AssignForm
	obsForm  *ObservationForm
	obs      models.DayObservation
	obsDate  string
	obsErr   error
	obsOpen  bool
	removing models.MenuAssignment

	exporting bool
	notice    string
	err       error
}

// New creates the planner view positioned on today.
func New(store *catalog.AssignmentStore, menus *catalog.Store[models.Menu], api DayAPI, exporter Exporter, scope Scope, opts Options) *View {
	if opts.Clock == nil {
		opts.Clock = util.SystemClock{}
	}
	v := &View{
		store:    store,
		menus:    menus,
		api:      api,
		exporter: exporter,
		scope:    scope,
		opts:     opts,
	}
	v.goTo(opts.Clock.Now())
	return v
}

// Refresh loads the assignments of the visible grid and the menus used
// by the assign form.
func (v *View) Refresh() tea.Cmd {
	from, to := planner.Range(v.days)
	v.store.SetRange(from, to)

	ctx := v.scope.BranchContext()
	cmds := []tea.Cmd{func() tea.Msg {
		_ = v.store.Fetch(ctx)
		return loadedMsg{}
	}}
	if v.menus != nil {
		cmds = append(cmds, func() tea.Msg {
			_ = v.menus.Fetch(ctx)
			return loadedMsg{}
		})
	}
	if key := v.selection.Key(); key != "" {
		cmds = append(cmds, v.loadObservation(key))
	}
	return tea.Batch(cmds...)
}

// Reset clears the selection, any open form and the messages.
func (v *View) Reset() {
	v.mode = modeGrid
	v.assign = nil
	v.obsForm = nil
	v.selection.Clear()
	v.clearObservation()
	v.notice, v.err = "", nil
	v.pick = 0
	v.sync()
}

// Capturing reports whether the view wants every key.
func (v *View) Capturing() bool {
	return v.mode != modeGrid
}

// goTo rebuilds the grid around t and moves the cursor onto it.
func (v *View) goTo(t time.Time) {
	v.ref = util.StartOfDay(t)
	if v.weekMode {
		v.days = planner.WeekGrid(v.ref)
	} else {
		v.days = planner.MonthGrid(v.ref)
	}
	key := util.DateKey(v.ref)
	v.cursor = 0
	for i, d := range v.days {
		if d.Key == key {
			v.cursor = i
			break
		}
	}
	v.sync()
}

// sync maps the loaded assignments onto the grid.
func (v *View) sync() {
	items := v.store.Items()
	planner.SortAssignments(items)
	v.cells = planner.BuildCells(v.days, items)
	if n := len(v.selectedAssignments()); v.pick >= n {
		v.pick = 0
	}
}

// cursorDay returns the day under the cursor.
func (v *View) cursorDay() planner.Day {
	return v.days[v.cursor]
}

// selectedCell returns the cell of the selected day, if it is visible.
func (v *View) selectedCell() (planner.Cell, bool) {
	for _, c := range v.cells {
		if v.selection.IsSelected(c.Day) {
			return c, true
		}
	}
	return planner.Cell{}, false
}

// selectedAssignments lists the selected day's assignments in display
// order: known slots first, then unrecognized ones.
func (v *View) selectedAssignments() []models.MenuAssignment {
	cell, ok := v.selectedCell()
	if !ok {
		return nil
	}
	var out []models.MenuAssignment
	for _, g := range cell.Groups.Slots {
		out = append(out, g.Assignments...)
	}
	return append(out, cell.Groups.Unrecognized...)
}

// Update handles keys and the results of the view's commands.
func (v *View) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg:
		v.sync()
	case savedMsg:
		if v.assign != nil {
			v.assign.Done(msg.err)
			if msg.err == nil {
				v.assign = nil
				v.mode = modeGrid
			}
		}
		v.sync()
	case removedMsg:
		v.mode = modeGrid
		v.sync()
	case observationMsg:
		if msg.date != v.selection.Key() {
			return nil
		}
		open := v.obsOpen
		v.obsOpen = false
		v.obsErr = msg.err
		if msg.err == nil {
			v.obs, v.obsDate = msg.obs, msg.date
			v.obs.Date = msg.date
			if open {
				v.openObservationForm()
			}
		}
	case observationSavedMsg:
		if v.obsForm != nil {
			v.obsForm.Done(msg.err)
			if msg.err == nil {
				v.obsForm = nil
				v.mode = modeGrid
				v.obs, v.obsDate = msg.obs, msg.obs.Date
				v.obsErr = nil
				v.notice, v.err = "Observación guardada", nil
			}
		}
	case exportedMsg:
		v.exporting = false
		v.err = msg.err
		v.notice = ""
		if msg.obs != nil && msg.obs.Date == v.selection.Key() {
			v.obs, v.obsDate, v.obsErr = *msg.obs, msg.obs.Date, nil
		}
		if msg.err == nil {
			v.notice = "Archivo guardado en " + msg.rec.Path
		}
	case tea.KeyMsg:
		return v.handleKey(msg.String())
	}
	return nil
}

func (v *View) handleKey(key string) tea.Cmd {
	switch v.mode {
	case modeAssign:
		return v.handleAssignKey(key)
	case modeObservation:
		return v.handleObservationKey(key)
	case modeConfirm:
		switch key {
		case "y", "s":
			id := v.removing.ID
			v.store.ClearMessages()
			ctx := v.scope.BranchContext()
			return func() tea.Msg {
				return removedMsg{err: v.store.Remove(ctx, id)}
			}
		case "n", "esc":
			v.mode = modeGrid
		}
		return nil
	}

	switch key {
	case "left", "h":
		v.moveCursor(-1)
	case "right", "l":
		v.moveCursor(1)
	case "up", "k":
		v.moveCursor(-7)
	case "down", "j":
		v.moveCursor(7)
	case "[", "pgup":
		return v.shift(-1)
	case "]", "pgdown":
		return v.shift(1)
	case "t":
		v.goTo(v.opts.Clock.Now())
		return v.Refresh()
	case "w":
		v.weekMode = !v.weekMode
		v.goTo(v.cursorDay().Date)
		return v.Refresh()
	case "enter", " ", "space":
		day := v.cursorDay()
		v.selection.Select(day)
		v.pick = 0
		v.clearObservation()
		v.notice, v.err = "", nil
	case "esc":
		v.selection.Clear()
		v.clearObservation()
		v.pick = 0
	case "tab":
		if n := len(v.selectedAssignments()); n > 0 {
			v.pick = (v.pick + 1) % n
		}
	case "shift+tab":
		if n := len(v.selectedAssignments()); n > 0 {
			v.pick = (v.pick - 1 + n) % n
		}
	case "a":
		if v.requireSelection() {
			v.store.ClearMessages()
			v.assign = NewAssignForm(v.selection.Key(), v.opts.DefaultHeadcount, v.menuLookup())
			v.mode = modeAssign
		}
	case "x", "delete":
		if !v.requireSelection() {
			return nil
		}
		list := v.selectedAssignments()
		if len(list) == 0 {
			v.notice, v.err = "El día no tiene menús asignados", nil
			return nil
		}
		v.removing = list[v.pick]
		v.mode = modeConfirm
	case "o":
		if v.requireSelection() {
			if v.obsDate == v.selection.Key() {
				v.openObservationForm()
				return nil
			}
			v.obsOpen = true
			return v.loadObservation(v.selection.Key())
		}
	case "p":
		if v.requireSelection() {
			return v.exportDay(false)
		}
	case "s":
		if v.requireSelection() {
			return v.exportDay(true)
		}
	case "W":
		return v.exportWeek()
	case "r":
		v.store.ClearMessages()
		return v.Refresh()
	}
	return nil
}

func (v *View) requireSelection() bool {
	if v.selection.Key() != "" {
		return true
	}
	v.notice, v.err = "Seleccione un día con Enter", nil
	return false
}

func (v *View) moveCursor(delta int) {
	next := v.cursor + delta
	if next < 0 || next >= len(v.days) {
		return
	}
	v.cursor = next
}

// shift moves the grid one period back or forward.
func (v *View) shift(dir int) tea.Cmd {
	if v.weekMode {
		v.goTo(util.AddDays(v.cursorDay().Date, 7*dir))
	} else {
		first := time.Date(v.ref.Year(), v.ref.Month(), 1, 0, 0, 0, 0, v.ref.Location())
		v.goTo(first.AddDate(0, dir, 0))
	}
	return v.Refresh()
}

// clearObservation forgets the note of the previous selection.
func (v *View) clearObservation() {
	v.obs = models.DayObservation{}
	v.obsDate = ""
	v.obsErr = nil
	v.obsOpen = false
}

func (v *View) openObservationForm() {
	v.obsForm = NewObservationForm(v.selection.Key(), v.obs.Note)
	v.mode = modeObservation
}

func (v *View) loadObservation(date string) tea.Cmd {
	ctx := v.scope.BranchContext()
	return func() tea.Msg {
		obs, err := v.api.Observation(ctx, date)
		return observationMsg{date: date, obs: obs, err: err}
	}
}

func (v *View) menuLookup() MenuLookup {
	if v.menus == nil || len(v.menus.Items()) == 0 {
		return nil
	}
	return func(id int64) (string, bool) {
		m, ok := v.menus.Find(id)
		if !ok || m.Status == models.StatusDeleted {
			return "", false
		}
		return m.Name, true
	}
}

func (v *View) handleAssignKey(key string) tea.Cmd {
	draft, ok := v.assign.HandleKey(key)
	if v.assign.Cancelled() {
		v.assign = nil
		v.mode = modeGrid
		return nil
	}
	if !ok {
		return nil
	}

	branch, _ := v.scope.Branch()
	draft.BranchID = branch.ID
	ctx := v.scope.BranchContext()
	return func() tea.Msg {
		return savedMsg{err: v.store.Save(ctx, draft)}
	}
}

func (v *View) handleObservationKey(key string) tea.Cmd {
	note, ok := v.obsForm.HandleKey(key)
	if v.obsForm.Cancelled() {
		v.obsForm = nil
		v.mode = modeGrid
		return nil
	}
	if !ok {
		return nil
	}

	branch, _ := v.scope.Branch()
	obs := models.DayObservation{Date: v.selection.Key(), BranchID: branch.ID, Note: note}
	ctx := v.scope.BranchContext()
	return func() tea.Msg {
		return observationSavedMsg{obs: obs, err: v.api.SaveObservation(ctx, obs)}
	}
}
