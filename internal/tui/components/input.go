package components

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
)

// Input is a single-line text input. It edits runes, so accented input
// is handled like any other character.
type Input struct {
	label       string
	value       []rune
	placeholder string
	width       int
	focused     bool
	cursorPos   int
	maxLength   int
	required    bool
	masked      bool
	err         string
}

// NewInput creates a new input field.
func NewInput(label string) *Input {
	return &Input{
		label:     label,
		width:     24,
		maxLength: 100,
	}
}

// SetValue sets the input value.
func (i *Input) SetValue(v string) *Input {
	i.value = []rune(v)
	i.cursorPos = len(i.value)
	return i
}

// SetPlaceholder sets the placeholder text.
func (i *Input) SetPlaceholder(p string) *Input {
	i.placeholder = p
	return i
}

// SetWidth sets the input width.
func (i *Input) SetWidth(w int) *Input {
	i.width = w
	return i
}

// SetMaxLength sets the maximum input length in characters.
func (i *Input) SetMaxLength(m int) *Input {
	i.maxLength = m
	return i
}

// SetRequired marks the field as required.
func (i *Input) SetRequired(r bool) *Input {
	i.required = r
	return i
}

// SetMasked hides the value behind asterisks.
func (i *Input) SetMasked(m bool) *Input {
	i.masked = m
	return i
}

// SetError sets an error message.
func (i *Input) SetError(e string) *Input {
	i.err = e
	return i
}

// Error returns the current error message.
func (i *Input) Error() string {
	return i.err
}

// Label returns the field label.
func (i *Input) Label() string {
	return i.label
}

// Focus sets the focus state.
func (i *Input) Focus(focused bool) {
	i.focused = focused
	if focused && i.cursorPos > len(i.value) {
		i.cursorPos = len(i.value)
	}
}

// IsFocused returns the focus state.
func (i *Input) IsFocused() bool {
	return i.focused
}

// Value returns the current value.
func (i *Input) Value() string {
	return string(i.value)
}

// HandleKey handles a key press.
func (i *Input) HandleKey(key string) {
	if !i.focused {
		return
	}

	switch key {
	case "backspace":
		if i.cursorPos > 0 {
			i.value = append(i.value[:i.cursorPos-1], i.value[i.cursorPos:]...)
			i.cursorPos--
		}
	case "delete":
		if i.cursorPos < len(i.value) {
			i.value = append(i.value[:i.cursorPos], i.value[i.cursorPos+1:]...)
		}
	case "left":
		if i.cursorPos > 0 {
			i.cursorPos--
		}
	case "right":
		if i.cursorPos < len(i.value) {
			i.cursorPos++
		}
	case "home", "ctrl+a":
		i.cursorPos = 0
	case "end", "ctrl+e":
		i.cursorPos = len(i.value)
	case "ctrl+u":
		i.value = nil
		i.cursorPos = 0
	case " ", "space":
		i.insert(' ')
	default:
		// Insert a single printable character
		if utf8.RuneCountInString(key) == 1 {
			r, _ := utf8.DecodeRuneInString(key)
			if r >= ' ' {
				i.insert(r)
			}
		}
	}
}

func (i *Input) insert(r rune) {
	if len(i.value) >= i.maxLength {
		return
	}
	v := make([]rune, 0, len(i.value)+1)
	v = append(v, i.value[:i.cursorPos]...)
	v = append(v, r)
	v = append(v, i.value[i.cursorPos:]...)
	i.value = v
	i.cursorPos++
}

// Validate validates the input.
func (i *Input) Validate() bool {
	if i.required && strings.TrimSpace(string(i.value)) == "" {
		i.err = "Requerido"
		return false
	}
	i.err = ""
	return true
}

func (i *Input) display() []rune {
	if !i.masked {
		return i.value
	}
	return []rune(strings.Repeat("*", len(i.value)))
}

// Render renders the input field.
func (i *Input) Render() string {
	labelStyle := LabelStyle.Width(18)
	focusStyle := lipgloss.NewStyle().Foreground(ColorAccent)

	label := i.label
	if i.required {
		label += "*"
	}
	label += ":"

	shown := i.display()
	var display string
	switch {
	case len(shown) == 0 && i.placeholder != "" && !i.focused:
		display = MutedStyle.Render(i.placeholder)
	case i.focused:
		before := string(shown[:i.cursorPos])
		after := string(shown[i.cursorPos:])
		display = focusStyle.Render(before + "_" + after)
	default:
		display = ValueStyle.Render(string(shown))
	}

	displayLen := len(shown)
	if i.focused {
		displayLen++ // cursor
	}
	if displayLen < i.width {
		display += strings.Repeat(" ", i.width-displayLen)
	}

	result := labelStyle.Render(label) + " " + display
	if i.err != "" {
		result += " " + ErrorStyle.Render(i.err)
	}
	return result
}

// Select is a selection input component.
type Select struct {
	label    string
	options  []string
	selected int
	focused  bool
}

// NewSelect creates a new select input.
func NewSelect(label string, options []string) *Select {
	return &Select{
		label:   label,
		options: options,
	}
}

// SetSelected sets the selected index.
func (s *Select) SetSelected(idx int) *Select {
	if idx >= 0 && idx < len(s.options) {
		s.selected = idx
	}
	return s
}

// SetValue selects the option equal to v, if any.
func (s *Select) SetValue(v string) *Select {
	for i, opt := range s.options {
		if opt == v {
			s.selected = i
			break
		}
	}
	return s
}

// Focus sets the focus state.
func (s *Select) Focus(focused bool) {
	s.focused = focused
}

// IsFocused returns the focus state.
func (s *Select) IsFocused() bool {
	return s.focused
}

// Value returns the selected value.
func (s *Select) Value() string {
	if s.selected >= 0 && s.selected < len(s.options) {
		return s.options[s.selected]
	}
	return ""
}

// SelectedIndex returns the selected index.
func (s *Select) SelectedIndex() int {
	return s.selected
}

// HandleKey handles a key press.
func (s *Select) HandleKey(key string) {
	if !s.focused {
		return
	}

	switch key {
	case "left", "h":
		if s.selected > 0 {
			s.selected--
		}
	case "right", "l":
		if s.selected < len(s.options)-1 {
			s.selected++
		}
	}
}

// Render renders the select.
func (s *Select) Render() string {
	labelStyle := LabelStyle.Width(18)
	selStyle := lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)

	var b strings.Builder
	b.WriteString(labelStyle.Render(s.label + ":"))
	b.WriteString(" ")

	for i, opt := range s.options {
		if i > 0 {
			b.WriteString(" ")
		}

		if i == s.selected {
			if s.focused {
				b.WriteString(selStyle.Render("[" + opt + "]"))
			} else {
				b.WriteString(selStyle.Render("(" + opt + ")"))
			}
		} else {
			b.WriteString(LabelStyle.Render(" " + opt + " "))
		}
	}

	return b.String()
}

// FormField is implemented by the components a Form can hold.
type FormField interface {
	Focus(bool)
	IsFocused() bool
	HandleKey(string)
	Render() string
}

var (
	_ FormField = (*Input)(nil)
	_ FormField = (*Select)(nil)
)

// Form is a vertical list of fields with keyboard focus.
type Form struct {
	title      string
	fields     []FormField
	focusIndex int
	submitted  bool
	cancelled  bool
	err        string

	// window limits how many fields render at once; 0 shows all.
	window int
	top    int
}

// NewForm creates a new form.
func NewForm(title string) *Form {
	return &Form{
		title: title,
	}
}

// AddField adds a field to the form.
func (f *Form) AddField(field FormField) *Form {
	f.fields = append(f.fields, field)
	if len(f.fields) == 1 {
		field.Focus(true)
	}
	return f
}

// HandleKey handles form navigation.
func (f *Form) HandleKey(key string) {
	switch key {
	case "tab", "down":
		f.nextField()
	case "shift+tab", "up":
		f.prevField()
	case "ctrl+s":
		f.submitted = true
	case "esc":
		f.cancelled = true
	case "enter":
		// Move to next field on enter, or submit if on last field
		if f.focusIndex == len(f.fields)-1 {
			f.submitted = true
		} else {
			f.nextField()
		}
	default:
		if f.focusIndex < len(f.fields) {
			f.fields[f.focusIndex].HandleKey(key)
		}
	}
}

func (f *Form) nextField() {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex = (f.focusIndex + 1) % len(f.fields)
	f.fields[f.focusIndex].Focus(true)
}

func (f *Form) prevField() {
	if len(f.fields) == 0 {
		return
	}
	f.fields[f.focusIndex].Focus(false)
	f.focusIndex--
	if f.focusIndex < 0 {
		f.focusIndex = len(f.fields) - 1
	}
	f.fields[f.focusIndex].Focus(true)
}

// SetWindow limits the number of fields rendered at once. The window
// follows the focused field.
func (f *Form) SetWindow(n int) *Form {
	f.window = n
	return f
}

// visible returns the range of fields to render.
func (f *Form) visible() (int, int) {
	if f.window <= 0 || f.window >= len(f.fields) {
		return 0, len(f.fields)
	}
	if f.focusIndex < f.top {
		f.top = f.focusIndex
	}
	if f.focusIndex >= f.top+f.window {
		f.top = f.focusIndex - f.window + 1
	}
	return f.top, f.top + f.window
}

// FocusIndex returns the index of the focused field.
func (f *Form) FocusIndex() int {
	return f.focusIndex
}

// IsSubmitted returns true if form was submitted.
func (f *Form) IsSubmitted() bool {
	return f.submitted
}

// IsCancelled returns true if form was cancelled.
func (f *Form) IsCancelled() bool {
	return f.cancelled
}

// Reopen clears the submitted flag after a rejected submission.
func (f *Form) Reopen() {
	f.submitted = false
}

// SetError sets an error message.
func (f *Form) SetError(err string) {
	f.err = err
}

// Error returns the form-level error message.
func (f *Form) Error() string {
	return f.err
}

// Render renders the form.
func (f *Form) Render() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("=== %s ===", f.title)))
	b.WriteString("\n\n")

	start, end := f.visible()
	if start > 0 {
		b.WriteString(MutedStyle.Render(fmt.Sprintf("  ↑ %d campos más", start)))
		b.WriteString("\n")
	}
	for _, field := range f.fields[start:end] {
		b.WriteString(field.Render())
		b.WriteString("\n")
	}
	if end < len(f.fields) {
		b.WriteString(MutedStyle.Render(fmt.Sprintf("  ↓ %d campos más", len(f.fields)-end)))
		b.WriteString("\n")
	}

	if f.err != "" {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render("Error: " + f.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("Tab/↓:Siguiente  Shift+Tab/↑:Anterior  Ctrl+S:Guardar  Esc:Cancelar"))

	return b.String()
}
