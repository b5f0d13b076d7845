// Package shopping scales the ingredients of a day's menus to a headcount
// and produces the purchase list.
package shopping

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nutriplan/nutriplan/internal/models"
)

// ErrZeroHeadcount aborts a report when no assignment carries diners.
var ErrZeroHeadcount = errors.New("headcount is zero, cannot generate report")

var thousand = decimal.NewFromInt(1000)

// Line is one scaled ingredient.
type Line struct {
	FoodID   int64
	FoodName string
	// PerPortion is the recipe quantity for one diner.
	PerPortion float64
	Total      decimal.Decimal
	Unit       string
}

// Text renders the scaled quantity with its display unit.
func (l Line) Text() string {
	return FormatQuantity(l.Total, l.Unit)
}

// RecipeSection lists the ingredients of one recipe.
type RecipeSection struct {
	Name  string
	Lines []Line
}

// SlotSection groups the recipes served in one meal slot.
type SlotSection struct {
	Slot    models.MealSlot
	Label   string
	Menus   []string
	Recipes []RecipeSection
}

// List is the purchase list of one date and branch.
type List struct {
	Date        string
	Branch      models.Branch
	Program     string
	Headcount   int
	Observation string
	Sections    []SlotSection
}

// Empty reports whether the list has no ingredient lines.
func (l *List) Empty() bool {
	for _, s := range l.Sections {
		for _, r := range s.Recipes {
			if len(r.Lines) > 0 {
				return false
			}
		}
	}
	return true
}

// ResolveHeadcount picks the diners count: the lunch assignment's when it
// is positive, else the first assignment's.
func ResolveHeadcount(details []models.AssignmentDetail) (int, error) {
	for _, d := range details {
		if d.Slot == models.SlotLunch && d.Headcount > 0 {
			return d.Headcount, nil
		}
	}
	if len(details) > 0 && details[0].Headcount > 0 {
		return details[0].Headcount, nil
	}
	return 0, ErrZeroHeadcount
}

// Input carries what Build needs besides the assignments.
type Input struct {
	Date        string
	Branch      models.Branch
	Program     string
	Observation string
}

// Build scales every ingredient of details to the resolved headcount and
// arranges them by slot in breakfast, lunch, dinner order. Assignments with
// an unrecognized slot follow in their own sections.
func Build(in Input, details []models.AssignmentDetail) (*List, error) {
	headcount, err := ResolveHeadcount(details)
	if err != nil {
		return nil, err
	}
	diners := decimal.NewFromInt(int64(headcount))

	list := &List{
		Date:        in.Date,
		Branch:      in.Branch,
		Program:     in.Program,
		Headcount:   headcount,
		Observation: in.Observation,
	}

	bySlot := make(map[models.MealSlot][]models.AssignmentDetail)
	var extra []models.MealSlot
	for _, d := range details {
		if _, seen := bySlot[d.Slot]; !seen && !d.Slot.Known() {
			extra = append(extra, d.Slot)
		}
		bySlot[d.Slot] = append(bySlot[d.Slot], d)
	}

	order := append(append([]models.MealSlot{}, models.MealSlots...), extra...)
	for _, slot := range order {
		group := bySlot[slot]
		if len(group) == 0 {
			continue
		}
		section := SlotSection{Slot: slot, Label: slot.Label()}
		for _, d := range group {
			if d.MenuName != "" {
				section.Menus = append(section.Menus, d.MenuName)
			}
			for _, r := range d.Recipes {
				rs := RecipeSection{Name: r.Name}
				for _, ing := range r.Ingredients {
					rs.Lines = append(rs.Lines, Line{
						FoodID:     ing.FoodID,
						FoodName:   ing.FoodName,
						PerPortion: ing.Quantity,
						Total:      decimal.NewFromFloat(ing.Quantity).Mul(diners),
						Unit:       ing.Unit,
					})
				}
				section.Recipes = append(section.Recipes, rs)
			}
		}
		list.Sections = append(list.Sections, section)
	}

	return list, nil
}

// FormatQuantity renders a scaled quantity rounded to two decimals. Grams
// from 1000 up are shown in kilograms and millilitres from 1000 up in
// litres, always with two decimals. Other amounts drop trailing zeros, so
// whole amounts print without a decimal point.
func FormatQuantity(total decimal.Decimal, unit string) string {
	total = total.Round(2)
	switch normalizeUnit(unit) {
	case "g":
		if total.GreaterThanOrEqual(thousand) {
			return total.Div(thousand).StringFixed(2) + " Kg"
		}
	case "ml":
		if total.GreaterThanOrEqual(thousand) {
			return total.Div(thousand).StringFixed(2) + " L"
		}
	}
	if unit == "" {
		return total.String()
	}
	return total.String() + " " + unit
}

func normalizeUnit(unit string) string {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "g", "gr", "grs", "gramo", "gramos":
		return "g"
	case "ml", "mililitro", "mililitros":
		return "ml"
	}
	return strings.ToLower(strings.TrimSpace(unit))
}

// Total is the consolidated purchase amount of one food item.
type Total struct {
	FoodID   int64
	FoodName string
	Total    decimal.Decimal
	Unit     string
	Recipes  int
}

// Text renders the consolidated quantity.
func (t Total) Text() string {
	return FormatQuantity(t.Total, t.Unit)
}

// Totals sums the list's lines per food item and unit, sorted by name.
func (l *List) Totals() []Total {
	type key struct {
		id   int64
		name string
		unit string
	}
	index := make(map[key]int)
	var out []Total

	for _, s := range l.Sections {
		for _, r := range s.Recipes {
			for _, line := range r.Lines {
				k := key{id: line.FoodID, unit: normalizeUnit(line.Unit)}
				if line.FoodID == 0 {
					k.name = strings.ToLower(line.FoodName)
				}
				if i, ok := index[k]; ok {
					out[i].Total = out[i].Total.Add(line.Total)
					out[i].Recipes++
					continue
				}
				index[k] = len(out)
				out = append(out, Total{
					FoodID:   line.FoodID,
					FoodName: line.FoodName,
					Total:    line.Total,
					Unit:     line.Unit,
					Recipes:  1,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].FoodName) < strings.ToLower(out[j].FoodName)
	})
	return out
}
