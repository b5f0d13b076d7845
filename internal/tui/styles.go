// Package tui provides the terminal dashboard of NutriPlan.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nutriplan/nutriplan/internal/config"
)

// Theme contains the style definitions of the shell chrome.
type Theme struct {
	PrimaryColor    lipgloss.Color
	SecondaryColor  lipgloss.Color
	AccentColor     lipgloss.Color
	BackgroundColor lipgloss.Color
	ErrorColor      lipgloss.Color
	WarningColor    lipgloss.Color
	SuccessColor    lipgloss.Color
	MutedColor      lipgloss.Color

	Base lipgloss.Style

	// Color styles (for direct use)
	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Accent    lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Success   lipgloss.Style
	Muted     lipgloss.Style

	// Component styles
	Header    lipgloss.Style
	Footer    lipgloss.Style
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Box       lipgloss.Style
	Selected  lipgloss.Style
	Alert     lipgloss.Style
	AlertWarn lipgloss.Style
	AlertCrit lipgloss.Style

	StatusDivider lipgloss.Style
}

// NewTheme creates a theme for the configured color scheme.
func NewTheme(scheme config.ColorScheme) *Theme {
	switch scheme {
	case config.ColorSchemeWarm:
		return newWarmTheme()
	case config.ColorSchemeMono:
		return newMonoTheme()
	default:
		return newFreshTheme()
	}
}

// newFreshTheme is the default green palette.
func newFreshTheme() *Theme {
	return buildTheme(
		lipgloss.Color("#A8E6CF"),
		lipgloss.Color("#5FAF87"),
		lipgloss.Color("#FFD3B6"),
		lipgloss.Color("#10201A"),
		lipgloss.Color("#5C6B63"),
		lipgloss.Color("#FF6B6B"),
		lipgloss.Color("#FFBB28"),
		lipgloss.Color("#00C49F"),
	)
}

func newWarmTheme() *Theme {
	return buildTheme(
		lipgloss.Color("#FFB347"),
		lipgloss.Color("#C98A3A"),
		lipgloss.Color("#FFE0A3"),
		lipgloss.Color("#1F1408"),
		lipgloss.Color("#6E5536"),
		lipgloss.Color("#FF5F5F"),
		lipgloss.Color("#FFFF66"),
		lipgloss.Color("#9ACD32"),
	)
}

func newMonoTheme() *Theme {
	return buildTheme(
		lipgloss.Color("#FFFFFF"),
		lipgloss.Color("#AAAAAA"),
		lipgloss.Color("#FFFFFF"),
		lipgloss.Color("#000000"),
		lipgloss.Color("#666666"),
		lipgloss.Color("#FF4444"),
		lipgloss.Color("#FFAA00"),
		lipgloss.Color("#00FF00"),
	)
}

func buildTheme(primary, secondary, accent, background, muted, errorColor, warningColor, successColor lipgloss.Color) *Theme {
	t := &Theme{
		PrimaryColor:    primary,
		SecondaryColor:  secondary,
		AccentColor:     accent,
		BackgroundColor: background,
		MutedColor:      muted,
		ErrorColor:      errorColor,
		WarningColor:    warningColor,
		SuccessColor:    successColor,
	}

	t.Base = lipgloss.NewStyle().Foreground(primary)

	t.Primary = lipgloss.NewStyle().Foreground(primary)
	t.Secondary = lipgloss.NewStyle().Foreground(secondary)
	t.Accent = lipgloss.NewStyle().Foreground(accent)
	t.Error = lipgloss.NewStyle().Foreground(errorColor)
	t.Warning = lipgloss.NewStyle().Foreground(warningColor)
	t.Success = lipgloss.NewStyle().Foreground(successColor)
	t.Muted = lipgloss.NewStyle().Foreground(muted)

	// Header - program, user and branch
	t.Header = lipgloss.NewStyle().
		Foreground(primary).
		Bold(true).
		Padding(0, 1)

	t.Footer = lipgloss.NewStyle().
		Foreground(secondary).
		Padding(0, 1)

	t.Title = lipgloss.NewStyle().
		Foreground(accent).
		Bold(true).
		Padding(0, 1)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(primary).
		Padding(0, 1)

	t.Label = lipgloss.NewStyle().
		Foreground(secondary)

	t.Value = lipgloss.NewStyle().
		Foreground(primary)

	t.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondary).
		Padding(0, 1)

	t.Selected = lipgloss.NewStyle().
		Foreground(background).
		Background(primary).
		Bold(true)

	t.Alert = lipgloss.NewStyle().
		Foreground(primary).
		Bold(true)

	t.AlertWarn = lipgloss.NewStyle().
		Foreground(warningColor).
		Bold(true)

	t.AlertCrit = lipgloss.NewStyle().
		Foreground(errorColor).
		Bold(true)

	t.StatusDivider = lipgloss.NewStyle().
		Foreground(muted).
		SetString(" │ ")

	return t
}

// Box characters for drawing
const (
	BoxHorizontal       = "─"
	BoxDoubleHorizontal = "═"
)

// DrawHorizontalLine draws a horizontal line.
func (t *Theme) DrawHorizontalLine(width int) string {
	return t.Secondary.Render(strings.Repeat(BoxHorizontal, max(width, 0)))
}

// DrawDoubleLine draws a double horizontal line.
func (t *Theme) DrawDoubleLine(width int) string {
	return t.Primary.Render(strings.Repeat(BoxDoubleHorizontal, max(width, 0)))
}
