// Package nutrition derives macro-calorie breakdowns and nutrient detail
// sections from server-computed totals.
package nutrition

import (
	"fmt"

	"github.com/nutriplan/nutriplan/internal/models"
)

// Energy factors in kcal per gram.
const (
	KcalPerGramCarbohydrate = 4
	KcalPerGramProtein      = 4
	KcalPerGramFat          = 9
)

// Macro identifies one slice of the energy breakdown.
type Macro string

const (
	MacroCarbohydrate Macro = "carbohidratos"
	MacroProtein      Macro = "proteinas"
	MacroFat          Macro = "grasas"
)

// Slice is one macro of the breakdown.
type Slice struct {
	Macro   Macro
	Label   string
	Color   string
	Grams   float64
	Kcal    float64
	Percent string
}

// GramsText formats the gram amount with two decimals.
func (s Slice) GramsText() string {
	return fmt.Sprintf("%.2f", s.Grams)
}

// KcalText formats the derived energy with two decimals.
func (s Slice) KcalText() string {
	return fmt.Sprintf("%.2f", s.Kcal)
}

// Breakdown is the normalised macro-calorie view of a totals block.
type Breakdown struct {
	// Slices are always carbohydrate, protein, fat.
	Slices       [3]Slice
	TotalKcal    float64
	ProteinG     float64
	FatG         float64
	IronMg       float64
	ExplicitKcal bool
}

// Combined resolves a combined nutrient: the explicit total when present,
// else the sum of both parts with missing parts counted as zero.
func Combined(explicit, a, b *float64) float64 {
	if explicit != nil {
		return *explicit
	}
	var sum float64
	if a != nil {
		sum += *a
	}
	if b != nil {
		sum += *b
	}
	return sum
}

// Percent formats part as a share of total with one decimal. A zero total
// yields "0%".
func Percent(part, total float64) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", part*100/total)
}

// Compute derives the breakdown of totals.
func Compute(totals models.NutrientTotals) Breakdown {
	carbG := value(totals.Ptr(models.KeyCarbohydrateTotal))
	proteinG := Combined(
		totals.Ptr(models.KeyProteinTotal),
		totals.Ptr(models.KeyProteinAnimalTotal),
		totals.Ptr(models.KeyProteinPlantTotal),
	)
	fatG := Combined(
		totals.Ptr(models.KeyFatTotal),
		totals.Ptr(models.KeyFatAnimalTotal),
		totals.Ptr(models.KeyFatPlantTotal),
	)
	ironMg := Combined(
		totals.Ptr(models.KeyIronTotal),
		totals.Ptr(models.KeyIronHemeTotal),
		totals.Ptr(models.KeyIronNonHemeTotal),
	)

	carbKcal := carbG * KcalPerGramCarbohydrate
	proteinKcal := proteinG * KcalPerGramProtein
	fatKcal := fatG * KcalPerGramFat

	b := Breakdown{ProteinG: proteinG, FatG: fatG, IronMg: ironMg}
	if explicit, ok := totals.Get(models.KeyEnergyTotal); ok {
		b.TotalKcal = explicit
		b.ExplicitKcal = true
	} else {
		b.TotalKcal = carbKcal + proteinKcal + fatKcal
	}

	b.Slices = [3]Slice{
		{Macro: MacroCarbohydrate, Label: "Carbohidratos", Color: ColorCarbohydrate, Grams: carbG, Kcal: carbKcal},
		{Macro: MacroProtein, Label: "Proteínas", Color: ColorProtein, Grams: proteinG, Kcal: proteinKcal},
		{Macro: MacroFat, Label: "Grasas", Color: ColorFat, Grams: fatG, Kcal: fatKcal},
	}
	for i := range b.Slices {
		b.Slices[i].Percent = Percent(b.Slices[i].Kcal, b.TotalKcal)
	}
	return b
}

// TotalKcalText formats the total energy with two decimals.
func (b Breakdown) TotalKcalText() string {
	return fmt.Sprintf("%.2f", b.TotalKcal)
}

// Empty reports whether every slice is zero, in which case a chart has
// nothing to draw.
func (b Breakdown) Empty() bool {
	for _, s := range b.Slices {
		if s.Kcal > 0 {
			return false
		}
	}
	return true
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// Slice colours, shared by the terminal chart and the PDF pie.
const (
	ColorCarbohydrate = "#0088FE"
	ColorProtein      = "#00C49F"
	ColorFat          = "#FFBB28"
)
