package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nutriplan/nutriplan/internal/services/nutrition"
)

// MacroChart renders the energy split as one stacked bar followed by a
// legend row per macronutrient.
func MacroChart(b nutrition.Breakdown, width int) string {
	if b.Empty() {
		return MutedStyle.Render("Sin datos de macronutrientes.")
	}
	if width < 20 {
		width = 20
	}

	var sum float64
	for _, s := range b.Slices {
		sum += s.Kcal
	}

	var bar strings.Builder
	used := 0
	for i, s := range b.Slices {
		n := 0
		if sum > 0 {
			n = int(math.Round(s.Kcal / sum * float64(width)))
		}
		if i == len(b.Slices)-1 && sum > 0 {
			n = width - used
		}
		if n <= 0 {
			continue
		}
		used += n
		bar.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render(strings.Repeat("█", n)))
	}
	if used < width {
		bar.WriteString(MutedStyle.Render(strings.Repeat("░", width-used)))
	}

	var out strings.Builder
	out.WriteString(bar.String())
	out.WriteString("\n")
	for _, s := range b.Slices {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render("■")
		out.WriteString(fmt.Sprintf("%s %-15s %10s g %10s kcal %7s\n",
			swatch, s.Label, s.GramsText(), s.KcalText(), s.Percent))
	}
	out.WriteString(LabelStyle.Render("Energía total: ") + ValueStyle.Render(b.TotalKcalText()+" kcal"))
	return out.String()
}

// NutrientSections renders the detail sections as aligned label/value rows.
func NutrientSections(sections []nutrition.Section) string {
	if len(sections) == 0 {
		return MutedStyle.Render("Sin información nutricional.")
	}
	var b strings.Builder
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(SectionStyle.Render(s.Name))
		b.WriteString("\n")
		for _, e := range s.Entries {
			b.WriteString("  " + LabelStyle.Width(34).Render(e.Label) + " " + ValueStyle.Render(e.Text()) + "\n")
		}
	}
	return b.String()
}
