package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// LayoutBreakpoint defines terminal width thresholds for responsive layout.
type LayoutBreakpoint int

const (
	// BreakpointNarrow is for terminals under 80 columns.
	BreakpointNarrow LayoutBreakpoint = 80
	// BreakpointMedium is for terminals between 80-120 columns.
	BreakpointMedium LayoutBreakpoint = 120
	// BreakpointWide is for terminals of 120 columns or more.
	BreakpointWide LayoutBreakpoint = 160
)

// GetBreakpoint returns the current layout breakpoint for the given width.
func GetBreakpoint(width int) LayoutBreakpoint {
	switch {
	case width < int(BreakpointNarrow):
		return BreakpointNarrow
	case width < int(BreakpointMedium):
		return BreakpointMedium
	default:
		return BreakpointWide
	}
}

// Panel renders a bordered panel with the title set into the top border.
func (t *Theme) Panel(title, content string, width int) string {
	inner := max(width-2, 4) // -2 for border chars
	border := lipgloss.RoundedBorder()

	body := lipgloss.NewStyle().
		Border(border, false, true, true, true).
		BorderForeground(t.SecondaryColor).
		Width(inner).
		Padding(0, 1).
		Render(content)

	label := Truncate(" "+title+" ", inner-2)
	if title == "" {
		label = ""
	}
	fill := inner - 1 - lipgloss.Width(label)
	edge := lipgloss.NewStyle().Foreground(t.SecondaryColor)

	top := edge.Render(border.TopLeft+border.Top) +
		t.Accent.Bold(true).Render(label) +
		edge.Render(strings.Repeat(border.Top, fill)+border.TopRight)
	return top + "\n" + body
}

// SideBySide renders two strings side by side, collapsing to vertical on narrow terminals.
func SideBySide(left, right string, totalWidth, gap int) string {
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)

	if leftWidth+rightWidth+gap > totalWidth {
		return left + "\n\n" + right
	}

	leftLines := strings.Split(left, "\n")
	rightLines := strings.Split(right, "\n")
	maxLines := max(len(leftLines), len(rightLines))

	var b strings.Builder
	for i := 0; i < maxLines; i++ {
		l := ""
		if i < len(leftLines) {
			l = leftLines[i]
		}
		r := ""
		if i < len(rightLines) {
			r = rightLines[i]
		}

		b.WriteString(PadRight(l, leftWidth))
		b.WriteString(strings.Repeat(" ", gap))
		b.WriteString(r)
		if i < maxLines-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Truncate shortens a string to fit within maxWidth, adding an ellipsis if
// needed. It never splits a rune.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	runes := []rune(s)
	if maxWidth == 1 {
		return string(runes[:1])
	}
	if len(runes) > maxWidth-1 {
		runes = runes[:maxWidth-1]
	}
	return string(runes) + "…"
}

// PadRight pads a string to the given width with spaces.
func PadRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// PadLeft pads a string to the given width with spaces on the left.
func PadLeft(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return strings.Repeat(" ", width-w) + s
}

// ContentWidth returns the usable content width, capped between min and max.
func ContentWidth(termWidth, minWidth, maxWidth int) int {
	w := termWidth
	if w < minWidth {
		w = minWidth
	}
	if maxWidth > 0 && w > maxWidth {
		w = maxWidth
	}
	return w
}

// ContentHeight returns the usable content height after subtracting chrome.
// chromeLines is the total lines used by header, footer, alert bar, separators.
func ContentHeight(termHeight, chromeLines int) int {
	h := termHeight - chromeLines
	if h < 5 {
		h = 5
	}
	return h
}
