package reports

import (
	"strconv"
	"strings"

	"github.com/nutriplan/nutriplan/internal/tui/components"
	"github.com/nutriplan/nutriplan/internal/util"
)

// ParamsForm edits the date and headcount of the report.
type ParamsForm struct {
	form      *components.Form
	date      *components.Input
	headcount *components.Input
}

// NewParamsForm creates the form prefilled with the current parameters.
func NewParamsForm(date string, headcount int) *ParamsForm {
	f := &ParamsForm{
		date: components.NewInput("Fecha").SetRequired(true).SetMaxLength(10).SetWidth(10).
			SetPlaceholder("aaaa-mm-dd").SetValue(date),
		headcount: components.NewInput("Comensales").SetMaxLength(6).SetWidth(6).
			SetValue(strconv.Itoa(headcount)),
	}
	f.form = components.NewForm("Parámetros del reporte").
		AddField(f.date).
		AddField(f.headcount)
	return f
}

// HandleKey feeds key to the form and returns the parameters once they
// are submitted and valid. An empty headcount means zero.
func (f *ParamsForm) HandleKey(key string) (string, int, bool) {
	f.form.HandleKey(key)
	if !f.form.IsSubmitted() {
		return "", 0, false
	}
	f.form.Reopen()

	ok := f.date.Validate()
	date := strings.TrimSpace(f.date.Value())
	if ok {
		if _, err := util.ParseDateKey(date); err != nil {
			f.date.SetError("fecha inválida")
			ok = false
		}
	}

	headcount, err := components.ParseInt(f.headcount.Value())
	f.headcount.SetError("")
	if err != nil {
		f.headcount.SetError(err.Error())
		ok = false
	}

	if !ok {
		f.form.SetError("Revise los campos marcados")
		return "", 0, false
	}
	f.form.SetError("")
	return date, headcount, true
}

// Cancelled reports whether the user left the form.
func (f *ParamsForm) Cancelled() bool {
	return f.form.IsCancelled()
}

// Render renders the form.
func (f *ParamsForm) Render() string {
	return f.form.Render()
}
