// Package reports provides the daily nutrition report of a branch.
package reports

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nutriplan/nutriplan/internal/api"
	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/report"
	"github.com/nutriplan/nutriplan/internal/services/nutrition"
	"github.com/nutriplan/nutriplan/internal/tui/components"
	"github.com/nutriplan/nutriplan/internal/util"
)

// Scope supplies the request context and the selected branch.
type Scope interface {
	BranchContext() context.Context
	BranchID() int64
}

// ReportAPI fetches the day aggregate.
type ReportAPI interface {
	NutritionReport(ctx context.Context, date string, headcount int) (*models.NutritionReport, error)
}

// Exporter writes nutrition reports.
type Exporter interface {
	Nutrition(ctx context.Context, fileName string, branchID int64, doc report.NutritionDoc) (*models.ExportRecord, error)
}

// Options configure the view.
type Options struct {
	DefaultHeadcount int
	Clock            util.Clock
}

type (
	loadedMsg struct {
		date      string
		headcount int
		report    *models.NutritionReport
		err       error
	}
	exportedMsg struct {
		rec *models.ExportRecord
		err error
	}
)

// View shows the nutrition aggregate of a date for the selected branch.
type View struct {
	api      ReportAPI
	exporter Exporter
	scope    Scope
	opts     Options

	date      string
	headcount int

	form    *ParamsForm
	loading bool
	current *models.NutritionReport
	err     error

	exporting bool
	exportMsg string
	exportErr error
}

// New creates the view for today and the configured headcount.
func New(a ReportAPI, exporter Exporter, scope Scope, opts Options) *View {
	if opts.Clock == nil {
		opts.Clock = util.SystemClock{}
	}
	v := &View{api: a, exporter: exporter, scope: scope, opts: opts}
	v.Reset()
	return v
}

// Reset returns to today's parameters and drops the loaded report.
func (v *View) Reset() {
	v.date = util.DateKey(v.opts.Clock.Now())
	v.headcount = v.opts.DefaultHeadcount
	v.form = nil
	v.loading = false
	v.current, v.err = nil, nil
	v.exporting = false
	v.exportMsg, v.exportErr = "", nil
}

// Refresh fetches the report for the current parameters.
func (v *View) Refresh() tea.Cmd {
	v.loading = true
	v.err = nil
	date, headcount := v.date, v.headcount
	ctx := v.scope.BranchContext()
	return func() tea.Msg {
		r, err := v.api.NutritionReport(ctx, date, headcount)
		return loadedMsg{date: date, headcount: headcount, report: r, err: err}
	}
}

// Capturing reports whether the parameter form is open.
func (v *View) Capturing() bool {
	return v.form != nil
}

// Update handles keys and the results of the view's commands.
func (v *View) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.date != v.date || msg.headcount != v.headcount {
			return nil
		}
		v.loading = false
		v.current, v.err = msg.report, msg.err
		if msg.err != nil {
			v.current = nil
		}
	case exportedMsg:
		v.exporting = false
		v.exportErr = msg.err
		v.exportMsg = ""
		if msg.err == nil {
			v.exportMsg = "PDF guardado en " + msg.rec.Path
		}
	case tea.KeyMsg:
		return v.handleKey(msg.String())
	}
	return nil
}

func (v *View) handleKey(key string) tea.Cmd {
	if v.form != nil {
		date, headcount, ok := v.form.HandleKey(key)
		if v.form.Cancelled() {
			v.form = nil
			return nil
		}
		if !ok {
			return nil
		}
		v.form = nil
		v.date, v.headcount = date, headcount
		v.exportMsg, v.exportErr = "", nil
		v.current = nil
		return v.Refresh()
	}

	switch key {
	case "enter", "f":
		v.form = NewParamsForm(v.date, v.headcount)
	case "t":
		v.date = util.DateKey(v.opts.Clock.Now())
		return v.Refresh()
	case "[", "]":
		t, err := util.ParseDateKey(v.date)
		if err != nil {
			return nil
		}
		step := 1
		if key == "[" {
			step = -1
		}
		v.date = util.DateKey(util.AddDays(t, step))
		v.current = nil
		return v.Refresh()
	case "p":
		return v.export()
	case "r":
		return v.Refresh()
	}
	return nil
}

func (v *View) export() tea.Cmd {
	if v.exporter == nil || v.exporting || v.current == nil {
		return nil
	}
	r := *v.current
	v.exporting = true
	v.exportMsg, v.exportErr = "", nil

	doc := report.NewNutritionDoc("Reporte nutricional "+r.Date, r.Totals, headerFields(r)...)
	ctx := v.scope.BranchContext()
	branch := v.scope.BranchID()
	return func() tea.Msg {
		rec, err := v.exporter.Nutrition(ctx, report.DailyNutritionFileName(r.Date), branch, doc)
		return exportedMsg{rec: rec, err: err}
	}
}

func headerFields(r models.NutritionReport) []report.Field {
	fields := []report.Field{
		{Label: "Fecha", Value: r.Date},
		{Label: "Comensales", Value: strconv.Itoa(r.Headcount)},
	}
	if r.BranchName != "" {
		fields = append(fields, report.Field{Label: "Sucursal", Value: r.BranchName})
	}
	if len(r.Menus) > 0 {
		fields = append(fields, report.Field{Label: "Menús", Value: strings.Join(r.Menus, ", ")})
	}
	return fields
}

// Render renders the parameters, the report and the status line.
func (v *View) Render(width, height int) string {
	if v.form != nil {
		return v.form.Render()
	}

	var b strings.Builder
	b.WriteString(components.TitleStyle.Render("=== REPORTE NUTRICIONAL ==="))
	b.WriteString("\n\n")
	b.WriteString(components.Field("Fecha", v.date, 13))
	b.WriteString("\n")
	b.WriteString(components.Field("Comensales", strconv.Itoa(v.headcount), 13))
	b.WriteString("\n\n")

	if line := v.statusLine(); line != "" {
		b.WriteString(line)
		b.WriteString("\n\n")
	}

	if r := v.current; r != nil {
		for _, f := range headerFields(*r)[2:] {
			b.WriteString(components.Field(f.Label, f.Value, 13))
			b.WriteString("\n")
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
	}

	b.WriteString("\n")
	if width >= 80 {
		b.WriteString(components.HelpStyle.Render("Enter:Parámetros  [/]:Día anterior/siguiente  t:Hoy  p:PDF  r:Recargar"))
	} else {
		b.WriteString(components.HelpStyle.Render("Enter:Parám. [/]:Día p:PDF"))
	}
	return b.String()
}

func (v *View) statusLine() string {
	switch {
	case v.exporting:
		return components.MutedStyle.Render("Generando PDF...")
	case v.exportErr != nil:
		return components.ErrorStyle.Render("No se pudo exportar: " + components.ErrorText(v.exportErr))
	case v.exportMsg != "":
		return components.SuccessStyle.Render(v.exportMsg)
	case v.loading:
		return components.MutedStyle.Render("Cargando...")
	case errors.Is(v.err, api.ErrNotFound):
		return components.MutedStyle.Render(fmt.Sprintf("No hay datos nutricionales para el %s.", v.date))
	case v.err != nil:
		return components.ErrorStyle.Render("No se pudo cargar: " + components.ErrorText(v.err))
	}
	return ""
}
