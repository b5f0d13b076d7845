package nutrition

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nutriplan/nutriplan/internal/models"
)

// Section groups nutrient entries for display.
type Section struct {
	Name    string
	Entries []Entry
}

// Entry is one present, non-null nutrient total.
type Entry struct {
	Key   string
	Label string
	Value float64
	Unit  string
}

// Text formats the value with two decimals and its unit.
func (e Entry) Text() string {
	if e.Unit == "" {
		return fmt.Sprintf("%.2f", e.Value)
	}
	return fmt.Sprintf("%.2f %s", e.Value, e.Unit)
}

// Section names in display order.
const (
	SectionMacronutrients = "Macronutrientes"
	SectionVitamins       = "Vitaminas"
	SectionMinerals       = "Minerales"
	SectionOther          = "Otros"
)

var sectionOrder = []string{SectionMacronutrients, SectionVitamins, SectionMinerals, SectionOther}

// Key prefixes per section, in display order within the section.
var sectionPrefixes = map[string][]string{
	SectionMacronutrients: {"energia", "proteina", "grasa", "carbohidratos", "fibra"},
	SectionVitamins:       {"retinol", "vitaminaB1", "vitaminaB2", "vitaminaB3", "vitaminaC", "vitamina", "folato"},
	SectionMinerals:       {"calcio", "fosforo", "hierro", "sodio", "potasio", "zinc", "magnesio"},
}

var labels = map[string]string{
	"energia":       "Energía",
	"agua":          "Agua",
	"proteina":      "Proteína",
	"grasa":         "Grasa",
	"carbohidratos": "Carbohidratos",
	"fibra":         "Fibra",
	"calcio":        "Calcio",
	"fosforo":       "Fósforo",
	"hierro":        "Hierro",
	"retinol":       "Retinol",
	"vitamina":      "Vitamina",
	"sodio":         "Sodio",
	"potasio":       "Potasio",
	"zinc":          "Zinc",
	"magnesio":      "Magnesio",
	"colesterol":    "Colesterol",
	"folato":        "Folato",
}

var qualifiers = []struct{ token, label string }{
	{"Saturada", "saturada"},
	{"Animal", "animal"},
	{"Vegetal", "vegetal"},
	{"NoHem", "no hem"},
	{"Hem", "hem"},
}

// unitSuffixes maps key suffixes to unit labels. Longer suffixes first.
var unitSuffixes = []struct{ suffix, unit string }{
	{"KcalTotal", "kcal"},
	{"McgTotal", "µg"},
	{"MgTotal", "mg"},
	{"GTotal", "g"},
	{"TotalMcg", "µg"},
	{"TotalMg", "mg"},
	{"TotalG", "g"},
}

// UnitFor derives the unit of a totals key from its naming convention.
func UnitFor(key string) string {
	for _, u := range unitSuffixes {
		if strings.HasSuffix(key, u.suffix) {
			return u.unit
		}
	}
	return ""
}

// LabelFor builds a readable Spanish label for a totals key.
func LabelFor(key string) string {
	base := key
	for _, u := range unitSuffixes {
		if strings.HasSuffix(base, u.suffix) {
			base = strings.TrimSuffix(base, u.suffix)
			break
		}
	}

	var stem string
	for prefix := range labels {
		if strings.HasPrefix(base, prefix) && len(prefix) > len(stem) {
			stem = prefix
		}
	}
	if stem == "" {
		return key
	}

	parts := []string{labels[stem]}
	rest := strings.TrimPrefix(base, stem)
	if stem == "vitamina" && rest != "" {
		parts = append(parts, strings.TrimSuffix(strings.TrimSuffix(rest, "Mcg"), "Mg"))
		rest = ""
	}
	for _, q := range qualifiers {
		if strings.Contains(rest, q.token) {
			parts = append(parts, q.label)
			rest = strings.Replace(rest, q.token, "", 1)
		}
	}
	if strings.HasPrefix(key[len(base):], "Total") {
		parts = append(parts, "total")
	}
	return strings.Join(parts, " ")
}

// Sections groups the present, non-null totals into display sections.
// Sections with no entries are omitted.
func Sections(totals models.NutrientTotals) []Section {
	grouped := make(map[string][]Entry)
	for key, v := range totals {
		if v == nil {
			continue
		}
		name := sectionFor(key)
		grouped[name] = append(grouped[name], Entry{
			Key:   key,
			Label: LabelFor(key),
			Value: *v,
			Unit:  UnitFor(key),
		})
	}

	var out []Section
	for _, name := range sectionOrder {
		entries := grouped[name]
		if len(entries) == 0 {
			continue
		}
		sort.SliceStable(entries, func(i, j int) bool {
			ri, rj := rank(name, entries[i].Key), rank(name, entries[j].Key)
			if ri != rj {
				return ri < rj
			}
			return entries[i].Key < entries[j].Key
		})
		out = append(out, Section{Name: name, Entries: entries})
	}
	return out
}

func sectionFor(key string) string {
	for _, name := range sectionOrder[:3] {
		for _, prefix := range sectionPrefixes[name] {
			if strings.HasPrefix(key, prefix) {
				return name
			}
		}
	}
	return SectionOther
}

func rank(section, key string) int {
	for i, prefix := range sectionPrefixes[section] {
		if strings.HasPrefix(key, prefix) {
			return i
		}
	}
	return len(sectionPrefixes[section])
}
