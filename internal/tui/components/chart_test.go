package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/services/nutrition"
)

func f(v float64) *float64 { return &v }

func TestMacroChart(t *testing.T) {
	b := nutrition.Compute(models.NutrientTotals{
		models.KeyCarbohydrateTotal: f(50),
		models.KeyProteinTotal:      f(20),
		models.KeyFatTotal:          f(10),
	})
	out := MacroChart(b, 40)

	lines := strings.Split(out, "\n")
	if got := lipgloss.Width(lines[0]); got != 40 {
		t.Errorf("bar width = %d, want 40", got)
	}
	for _, want := range []string{"Carbohidratos", "Proteínas", "Grasas", "54.1%", "Energía total"} {
		if !strings.Contains(out, want) {
			t.Errorf("chart missing %q", want)
		}
	}
}

func TestMacroChart_Empty(t *testing.T) {
	out := MacroChart(nutrition.Compute(nil), 40)
	if !strings.Contains(out, "Sin datos") {
		t.Errorf("expected empty state, got %q", out)
	}
}

func TestNutrientSections(t *testing.T) {
	out := NutrientSections(nutrition.Sections(models.NutrientTotals{
		models.KeyIronTotal: f(2.5),
	}))
	if !strings.Contains(out, "Minerales") || !strings.Contains(out, "mg") {
		t.Errorf("unexpected sections render:\n%s", out)
	}
	if !strings.Contains(NutrientSections(nil), "Sin información") {
		t.Error("expected empty state")
	}
}
