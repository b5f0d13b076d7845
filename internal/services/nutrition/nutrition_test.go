package nutrition

import (
	"math"
	"testing"

	"github.com/nutriplan/nutriplan/internal/models"
)

func f(v float64) *float64 { return &v }

func TestCombined_AllCombinations(t *testing.T) {
	tests := []struct {
		name     string
		explicit *float64
		a, b     *float64
		want     float64
	}{
		{"nothing present", nil, nil, nil, 0},
		{"only a", nil, f(3), nil, 3},
		{"only b", nil, nil, f(4), 4},
		{"both parts", nil, f(3), f(4), 7},
		{"explicit only", f(10), nil, nil, 10},
		{"explicit wins over a", f(10), f(3), nil, 10},
		{"explicit wins over b", f(10), nil, f(4), 10},
		{"explicit wins over both", f(10), f(3), f(4), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Combined(tt.explicit, tt.a, tt.b)
			if got != tt.want {
				t.Errorf("Combined() = %v, want %v", got, tt.want)
			}
			if math.IsNaN(got) {
				t.Error("Combined() returned NaN")
			}
		})
	}
}

func TestCombined_ExplicitZeroIsKept(t *testing.T) {
	if got := Combined(f(0), f(3), f(4)); got != 0 {
		t.Errorf("explicit zero should win, got %v", got)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name  string
		part  float64
		total float64
		want  string
	}{
		{"zero total", 120, 0, "0%"},
		{"zero both", 0, 0, "0%"},
		{"half", 50, 100, "50.0%"},
		{"one decimal", 1, 3, "33.3%"},
		{"rounds", 2, 3, "66.7%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Percent(tt.part, tt.total); got != tt.want {
				t.Errorf("Percent(%v, %v) = %q, want %q", tt.part, tt.total, got, tt.want)
			}
		})
	}
}

func TestCompute_ProteinNullChainIsZero(t *testing.T) {
	totals := models.NutrientTotals{
		models.KeyProteinTotal:       nil,
		models.KeyProteinAnimalTotal: nil,
		models.KeyProteinPlantTotal:  nil,
		models.KeyCarbohydrateTotal:  f(10),
	}

	b := Compute(totals)
	protein := b.Slices[1]
	if protein.Macro != MacroProtein {
		t.Fatalf("slice 1 = %s, want protein", protein.Macro)
	}
	if protein.Grams != 0 || protein.Kcal != 0 {
		t.Errorf("protein = %v g / %v kcal, want 0", protein.Grams, protein.Kcal)
	}
	if b.TotalKcal != 40 {
		t.Errorf("TotalKcal = %v, want 40 derived from carbohydrates", b.TotalKcal)
	}
	if protein.Percent != "0.0%" {
		t.Errorf("protein percent = %q", protein.Percent)
	}
}

func TestCompute_NullEnergyFallsBackToMacros(t *testing.T) {
	totals := models.NutrientTotals{
		models.KeyEnergyTotal:       nil,
		models.KeyCarbohydrateTotal: f(50),
		models.KeyProteinTotal:      f(25),
		models.KeyFatTotal:          f(20),
	}

	b := Compute(totals)
	if b.ExplicitKcal {
		t.Error("a null energy total is not explicit")
	}
	if b.TotalKcal != 480 {
		t.Errorf("TotalKcal = %v, want 480 summed from macros", b.TotalKcal)
	}
	want := [3]string{"41.7%", "20.8%", "37.5%"}
	for i, s := range b.Slices {
		if s.Percent != want[i] {
			t.Errorf("%s percent = %q, want %q", s.Macro, s.Percent, want[i])
		}
	}
}

func TestCompute_ZeroEnergyGivesZeroPercent(t *testing.T) {
	tests := []struct {
		name   string
		totals models.NutrientTotals
	}{
		{"explicit zero energy", models.NutrientTotals{models.KeyEnergyTotal: f(0), models.KeyCarbohydrateTotal: f(20)}},
		{"null energy and no macros", models.NutrientTotals{models.KeyEnergyTotal: nil}},
		{"empty totals", models.NutrientTotals{}},
		{"nil totals", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Compute(tt.totals)
			for _, s := range b.Slices {
				if s.Percent != "0%" {
					t.Errorf("%s percent = %q, want 0%%", s.Macro, s.Percent)
				}
			}
		})
	}
}

func TestCompute_Breakdown(t *testing.T) {
	totals := models.NutrientTotals{
		models.KeyCarbohydrateTotal:  f(50),
		models.KeyProteinAnimalTotal: f(15),
		models.KeyProteinPlantTotal:  f(10),
		models.KeyFatTotal:           f(10),
		models.KeyFatAnimalTotal:     f(99),
		models.KeyIronHemeTotal:      f(1.5),
		models.KeyIronNonHemeTotal:   nil,
	}

	b := Compute(totals)

	wantOrder := []Macro{MacroCarbohydrate, MacroProtein, MacroFat}
	for i, m := range wantOrder {
		if b.Slices[i].Macro != m {
			t.Errorf("slice %d = %s, want %s", i, b.Slices[i].Macro, m)
		}
	}

	if b.Slices[0].Kcal != 200 || b.Slices[1].Kcal != 100 || b.Slices[2].Kcal != 90 {
		t.Errorf("kcal = %v/%v/%v", b.Slices[0].Kcal, b.Slices[1].Kcal, b.Slices[2].Kcal)
	}
	if b.TotalKcal != 390 || b.ExplicitKcal {
		t.Errorf("TotalKcal = %v explicit=%v", b.TotalKcal, b.ExplicitKcal)
	}
	if b.Slices[0].Percent != "51.3%" {
		t.Errorf("carb percent = %q", b.Slices[0].Percent)
	}
	if b.IronMg != 1.5 {
		t.Errorf("IronMg = %v", b.IronMg)
	}
	if b.Slices[1].GramsText() != "25.00" {
		t.Errorf("GramsText() = %q", b.Slices[1].GramsText())
	}
	if b.Slices[0].Color != "#0088FE" || b.Slices[1].Color != "#00C49F" || b.Slices[2].Color != "#FFBB28" {
		t.Error("unexpected slice colours")
	}
}

func TestCompute_ExplicitEnergy(t *testing.T) {
	b := Compute(models.NutrientTotals{
		models.KeyEnergyTotal:       f(800),
		models.KeyCarbohydrateTotal: f(100),
	})
	if b.TotalKcal != 800 || !b.ExplicitKcal {
		t.Errorf("TotalKcal = %v", b.TotalKcal)
	}
	if b.Slices[0].Percent != "50.0%" {
		t.Errorf("carb percent = %q", b.Slices[0].Percent)
	}
}

func TestUnitFor(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"proteinaAnimalGTotal", "g"},
		{"hierroHemMgTotal", "mg"},
		{"retinolMcgTotal", "µg"},
		{"energiaKcalTotal", "kcal"},
		{"proteinaTotalG", "g"},
		{"hierroTotalMg", "mg"},
		{"comensales", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := UnitFor(tt.key); got != tt.want {
				t.Errorf("UnitFor(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"proteinaAnimalGTotal", "Proteína animal"},
		{"hierroNoHemMgTotal", "Hierro no hem"},
		{"hierroHemMgTotal", "Hierro hem"},
		{"vitaminaB1MgTotal", "Vitamina B1"},
		{"proteinaTotalG", "Proteína total"},
		{"grasaSaturadaGTotal", "Grasa saturada"},
		{"desconocido", "desconocido"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := LabelFor(tt.key); got != tt.want {
				t.Errorf("LabelFor(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestSections_FiltersAndGroups(t *testing.T) {
	totals := models.NutrientTotals{
		"energiaKcalTotal":     f(500),
		"carbohidratosGTotal":  f(60),
		"proteinaAnimalGTotal": nil,
		"vitaminaCMgTotal":     f(12),
		"retinolMcgTotal":      f(300),
		"sodioMgTotal":         f(900),
		"aguaGTotal":           f(250),
	}

	sections := Sections(totals)
	if len(sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(sections))
	}

	wantNames := []string{SectionMacronutrients, SectionVitamins, SectionMinerals, SectionOther}
	for i, name := range wantNames {
		if sections[i].Name != name {
			t.Errorf("section %d = %s, want %s", i, sections[i].Name, name)
		}
	}

	macro := sections[0].Entries
	if len(macro) != 2 {
		t.Fatalf("null entries should be dropped, got %+v", macro)
	}
	if macro[0].Key != "energiaKcalTotal" || macro[1].Key != "carbohidratosGTotal" {
		t.Errorf("macro order = %s, %s", macro[0].Key, macro[1].Key)
	}
	if macro[0].Text() != "500.00 kcal" {
		t.Errorf("Text() = %q", macro[0].Text())
	}

	vitamins := sections[1].Entries
	if vitamins[0].Key != "retinolMcgTotal" || vitamins[0].Unit != "µg" {
		t.Errorf("vitamins[0] = %+v", vitamins[0])
	}
}

func TestSections_EmptyTotals(t *testing.T) {
	if got := Sections(models.NutrientTotals{"fibraGTotal": nil}); len(got) != 0 {
		t.Errorf("expected no sections, got %+v", got)
	}
}
