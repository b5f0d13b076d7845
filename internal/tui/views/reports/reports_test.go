package reports

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nutriplan/nutriplan/internal/api"
	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/report"
	"github.com/nutriplan/nutriplan/internal/testutil"
	"github.com/nutriplan/nutriplan/internal/util"
)

type call struct {
	date      string
	headcount int
}

type fakeAPI struct {
	calls   []call
	reports map[string]models.NutritionReport
	err     error
}

func (f *fakeAPI) NutritionReport(_ context.Context, date string, headcount int) (*models.NutritionReport, error) {
	f.calls = append(f.calls, call{date, headcount})
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.reports[date]
	if !ok {
		return nil, api.ErrNotFound
	}
	r.Headcount = headcount
	return &r, nil
}

type fakeExporter struct {
	names []string
	docs  []report.NutritionDoc
}

func (f *fakeExporter) Nutrition(_ context.Context, name string, _ int64, doc report.NutritionDoc) (*models.ExportRecord, error) {
	f.names = append(f.names, name)
	f.docs = append(f.docs, doc)
	return &models.ExportRecord{FileName: name, Path: filepath.Join("reportes", name)}, nil
}

type fakeScope struct{}

func (fakeScope) BranchContext() context.Context { return context.Background() }
func (fakeScope) BranchID() int64                { return 1 }

func mondayReport() models.NutritionReport {
	return models.NutritionReport{
		Date:       "2024-03-04",
		BranchID:   1,
		BranchName: "Centro",
		Menus:      []string{"Menú lunes"},
		Totals:     testutil.FixtureRecipe().Totals,
	}
}

func newTestView(t *testing.T) (*View, *fakeAPI, *fakeExporter) {
	t.Helper()
	a := &fakeAPI{reports: map[string]models.NutritionReport{"2024-03-04": mondayReport()}}
	exp := &fakeExporter{}
	v := New(a, exp, fakeScope{}, Options{
		DefaultHeadcount: 50,
		Clock:            util.FixedClock{T: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)},
	})
	testutil.Drain(v.Update, v.Refresh())
	return v, a, exp
}

func press(v *View, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = v.Update(testutil.Key(k))
	}
	return cmd
}

func TestView_LoadsTodayWithDefaultHeadcount(t *testing.T) {
	v, a, _ := newTestView(t)

	if len(a.calls) != 1 || a.calls[0] != (call{"2024-03-04", 50}) {
		t.Fatalf("calls = %+v", a.calls)
	}
	out := v.Render(120, 60)
	for _, want := range []string{"REPORTE NUTRICIONAL", "Centro", "Menú lunes", "Distribución energética", "Energía total"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestView_ChangeParameters(t *testing.T) {
	v, a, _ := newTestView(t)

	press(v, "enter")
	if !v.Capturing() {
		t.Fatal("parameter form should capture keys")
	}
	press(v, "tab", "ctrl+u")
	for _, msg := range testutil.Type("120") {
		v.Update(msg)
	}
	testutil.Drain(v.Update, press(v, "ctrl+s"))

	if v.Capturing() {
		t.Error("form should close after submitting")
	}
	if last := a.calls[len(a.calls)-1]; last != (call{"2024-03-04", 120}) {
		t.Errorf("last call = %+v", last)
	}
}

func TestView_InvalidDateKeepsForm(t *testing.T) {
	v, a, _ := newTestView(t)

	press(v, "enter", "ctrl+u")
	for _, msg := range testutil.Type("04/03/2024") {
		v.Update(msg)
	}
	if cmd := press(v, "ctrl+s"); cmd != nil {
		t.Fatal("invalid date should not fetch")
	}
	if !strings.Contains(v.Render(120, 60), "fecha inválida") {
		t.Error("expected the date error")
	}
	if len(a.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(a.calls))
	}
}

func TestView_MissingAggregate(t *testing.T) {
	v, _, exp := newTestView(t)

	testutil.Drain(v.Update, press(v, "]"))
	out := v.Render(120, 60)
	if !strings.Contains(out, "No hay datos nutricionales para el 2024-03-05.") {
		t.Errorf("expected the not found state:\n%s", out)
	}
	if strings.Contains(out, "Distribución energética") {
		t.Error("no partial rendering expected")
	}
	if cmd := press(v, "p"); cmd != nil {
		t.Error("nothing to export")
	}
	if len(exp.names) != 0 {
		t.Error("no export expected")
	}
}

func TestView_BackendError(t *testing.T) {
	v, a, _ := newTestView(t)
	a.err = errors.New("connection refused")

	testutil.Drain(v.Update, press(v, "r"))
	if !strings.Contains(v.Render(120, 60), "No se pudo cargar: connection refused") {
		t.Errorf("expected the backend error:\n%s", v.Render(120, 60))
	}
}

func TestView_ExportDailyReport(t *testing.T) {
	v, _, exp := newTestView(t)

	testutil.Drain(v.Update, press(v, "p"))
	if len(exp.names) != 1 || exp.names[0] != "reporte-nutricional-2024-03-04.pdf" {
		t.Fatalf("exported %v", exp.names)
	}
	doc := exp.docs[0]
	if doc.Breakdown.Empty() || len(doc.Fields) != 4 {
		t.Errorf("doc = %+v", doc)
	}
	if !strings.Contains(v.Render(120, 60), "PDF guardado en "+filepath.Join("reportes", "reporte-nutricional-2024-03-04.pdf")) {
		t.Error("expected export confirmation")
	}
}
