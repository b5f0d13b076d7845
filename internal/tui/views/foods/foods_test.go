package foods

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/services/catalog"
	"github.com/nutriplan/nutriplan/internal/testutil"
)

func newTestView(t *testing.T, items ...models.FoodItem) (*View, *testutil.Backend[models.FoodItem]) {
	t.Helper()
	backend := testutil.NewBackend(func(f models.FoodItem, id int64) models.FoodItem {
		f.ID = id
		return f
	}, items...)
	store := catalog.NewStore[models.FoodItem]("insumos", backend, catalog.Messages{
		Created: "Insumo creado correctamente",
		Updated: "Insumo actualizado correctamente",
		Deleted: "Insumo eliminado",
	}, func(f models.FoodItem) models.FoodItem {
		f.Status = models.StatusDeleted
		return f
	})

	v := New(store, context.Background, 20)
	testutil.Drain(v.Update, v.Refresh())
	return v, backend
}

func press(v *View, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		cmd = v.Update(testutil.Key(k))
	}
	return cmd
}

func typeText(v *View, text string) {
	for _, msg := range testutil.Type(text) {
		v.Update(msg)
	}
}

func TestView_EmptyRender(t *testing.T) {
	v, _ := newTestView(t)
	out := v.Render(120, 40)
	if !strings.Contains(out, "INSUMOS") {
		t.Error("expected title")
	}
	if !strings.Contains(out, "No hay insumos registrados.") {
		t.Error("expected empty state")
	}
}

func TestView_ListsAndHidesDeleted(t *testing.T) {
	v, _ := newTestView(t,
		testutil.FixtureFood(),
		testutil.FixtureFood(func(f *models.FoodItem) {
			f.ID = 2
			f.Name = "Lentejas"
			f.Status = models.StatusDeleted
		}),
	)

	out := v.Render(120, 40)
	if !strings.Contains(out, "Arroz") {
		t.Error("expected active item")
	}
	if strings.Contains(out, "Lentejas") {
		t.Error("deleted items should be hidden")
	}
	if !strings.Contains(out, "Página 1/1 | 1 en total") {
		t.Errorf("expected pagination footer:\n%s", out)
	}
}

func TestView_SearchIgnoresAccents(t *testing.T) {
	v, _ := newTestView(t,
		testutil.FixtureFood(func(f *models.FoodItem) { f.Name = "Harína de trigo" }),
		testutil.FixtureFood(func(f *models.FoodItem) { f.ID = 2; f.Name = "Leche" }),
	)

	press(v, "/")
	if !v.Capturing() {
		t.Fatal("search mode should capture keys")
	}
	typeText(v, "harina")
	press(v, "enter")

	out := v.Render(120, 40)
	if !strings.Contains(out, "Harína de trigo") || strings.Contains(out, "Leche") {
		t.Errorf("unexpected filter result:\n%s", out)
	}

	press(v, "esc")
	if !strings.Contains(v.Render(120, 40), "Leche") {
		t.Error("esc should clear the search")
	}
}

func TestView_Pagination(t *testing.T) {
	var items []models.FoodItem
	for i := 1; i <= 45; i++ {
		id := int64(i)
		items = append(items, testutil.FixtureFood(func(f *models.FoodItem) {
			f.ID = id
			f.Name = fmt.Sprintf("Insumo %02d", id)
		}))
	}
	v, _ := newTestView(t, items...)

	press(v, "pgdown", "pgdown")
	out := v.Render(120, 40)
	if !strings.Contains(out, "Página 3/3 | 45 en total") || !strings.Contains(out, "Insumo 45") {
		t.Errorf("expected last page:\n%s", out)
	}

	press(v, "pgdown")
	if v.page.Page != 3 {
		t.Errorf("page = %d, should not pass the last page", v.page.Page)
	}
	press(v, "pgup")
	if v.page.Page != 2 {
		t.Errorf("page = %d, want 2", v.page.Page)
	}
}

func TestView_CreateFood(t *testing.T) {
	v, backend := newTestView(t)

	press(v, "a")
	if !v.Capturing() {
		t.Fatal("form should capture keys")
	}
	typeText(v, "Quinoa")
	press(v, "tab")
	typeText(v, "Cereales")
	press(v, "tab", "tab", "tab")
	typeText(v, "368,5")

	cmd := press(v, "ctrl+s")
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	testutil.Drain(v.Update, cmd)

	if len(backend.Created) != 1 {
		t.Fatalf("created %d items, want 1", len(backend.Created))
	}
	got := backend.Created[0]
	if got.Name != "Quinoa" || got.Group != "Cereales" || got.Status != models.StatusActive {
		t.Errorf("created %+v", got)
	}
	if got.EnergyKcal == nil || *got.EnergyKcal != 368.5 {
		t.Errorf("energy = %v, want 368.5", got.EnergyKcal)
	}
	if v.Capturing() {
		t.Error("form should close after saving")
	}
	out := v.Render(120, 40)
	if !strings.Contains(out, "Insumo creado correctamente") || !strings.Contains(out, "Quinoa") {
		t.Errorf("expected success and new row:\n%s", out)
	}
}

func TestView_FormValidationBlocksSave(t *testing.T) {
	v, backend := newTestView(t)

	press(v, "a")
	if cmd := press(v, "ctrl+s"); cmd != nil {
		t.Fatal("an empty form should not submit")
	}
	out := v.Render(120, 40)
	if !strings.Contains(out, "Requerido") {
		t.Errorf("expected required markers:\n%s", out)
	}

	typeText(v, "Quinoa")
	press(v, "tab")
	typeText(v, "Cereales")
	press(v, "tab", "tab", "tab")
	typeText(v, "abc")
	if cmd := press(v, "ctrl+s"); cmd != nil {
		t.Fatal("a non-numeric nutrient should block the save")
	}
	if len(backend.Created) != 0 {
		t.Error("no backend call expected")
	}
}

func TestView_EditKeepsID(t *testing.T) {
	v, backend := newTestView(t, testutil.FixtureFood())

	press(v, "e")
	typeText(v, " integral")
	testutil.Drain(v.Update, press(v, "ctrl+s"))

	if len(backend.Updated) != 1 {
		t.Fatalf("updated %d items, want 1", len(backend.Updated))
	}
	if got := backend.Updated[0]; got.ID != 1 || got.Name != "Arroz integral" {
		t.Errorf("updated %+v", got)
	}
	if got := backend.Updated[0].EnergyKcal; got == nil || *got != 360 {
		t.Errorf("untouched nutrients should survive, got %v", got)
	}
}

func TestView_SoftDelete(t *testing.T) {
	v, backend := newTestView(t, testutil.FixtureFood())

	press(v, "d")
	if !strings.Contains(v.Render(120, 40), `¿Eliminar el insumo "Arroz"?`) {
		t.Fatal("expected confirmation prompt")
	}
	press(v, "n")
	if len(backend.Updated) != 0 {
		t.Fatal("declining should not delete")
	}

	press(v, "d")
	testutil.Drain(v.Update, press(v, "s"))

	if len(backend.Updated) != 1 || backend.Updated[0].Status != models.StatusDeleted {
		t.Fatalf("expected a status flip, got %+v", backend.Updated)
	}
	out := v.Render(120, 40)
	if !strings.Contains(out, "Insumo eliminado") || !strings.Contains(out, "No hay insumos registrados.") {
		t.Errorf("unexpected render after delete:\n%s", out)
	}
}

func TestView_Detail(t *testing.T) {
	v, _ := newTestView(t, testutil.FixtureFood())

	press(v, "enter")
	out := v.Render(120, 40)
	if !strings.Contains(out, "Composición por 100 g") || !strings.Contains(out, "360 kcal") {
		t.Errorf("unexpected detail:\n%s", out)
	}
	press(v, "esc")
	if v.mode != modeList {
		t.Error("esc should return to the list")
	}
}

func TestView_JumpToEnds(t *testing.T) {
	v, _ := newTestView(t,
		testutil.FixtureFood(),
		testutil.FixtureFood(func(f *models.FoodItem) { f.ID = 2; f.Name = "Berenjena" }),
		testutil.FixtureFood(func(f *models.FoodItem) { f.ID = 3; f.Name = "Zanahoria" }),
	)

	press(v, "G", "enter")
	if !strings.Contains(v.Render(120, 40), "ZANAHORIA") {
		t.Error("G should select the last row")
	}

	press(v, "esc", "g", "enter")
	if !strings.Contains(v.Render(120, 40), "ARROZ") {
		t.Error("g should select the first row")
	}
}

func TestView_ListErrorKeepsItems(t *testing.T) {
	v, backend := newTestView(t, testutil.FixtureFood())
	backend.ListErr = fmt.Errorf("connection refused")

	testutil.Drain(v.Update, press(v, "r"))
	out := v.Render(120, 40)
	if !strings.Contains(out, "No se pudo cargar: connection refused") || !strings.Contains(out, "Arroz") {
		t.Errorf("expected error with the previous list:\n%s", out)
	}
}
