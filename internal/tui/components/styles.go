package components

import "github.com/charmbracelet/lipgloss"

// Palette shared by the views.
const (
	ColorPrimary   = lipgloss.Color("#A8E6CF")
	ColorSecondary = lipgloss.Color("#5FAF87")
	ColorAccent    = lipgloss.Color("#FFD3B6")
	ColorMuted     = lipgloss.Color("#5C6B63")
	ColorError     = lipgloss.Color("#FF6B6B")
	ColorWarning   = lipgloss.Color("#FFBB28")
	ColorSuccess   = lipgloss.Color("#00C49F")
	ColorInverse   = lipgloss.Color("#10201A")
)

// Common text styles.
var (
	TitleStyle   = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	SectionStyle = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorSecondary)
	ValueStyle   = lipgloss.NewStyle().Foreground(ColorPrimary)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	HelpStyle    = lipgloss.NewStyle().Foreground(ColorSecondary)
)

// Field renders a "label: value" line with a fixed label column.
func Field(label, value string, labelWidth int) string {
	return LabelStyle.Width(labelWidth).Render(label+":") + " " + ValueStyle.Render(value)
}
