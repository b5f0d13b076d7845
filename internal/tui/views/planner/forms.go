package planner

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/tui/components"
)

// MenuLookup resolves a menu id to its name.
type MenuLookup func(id int64) (string, bool)

// maxObservation is the longest note accepted for a day.
const maxObservation = 500

// AssignForm places a menu on the selected day.
type AssignForm struct {
	form      *components.Form
	date      string
	lookup    MenuLookup
	menu      *components.Input
	slot      *components.Select
	headcount *components.Input
	pending   bool
}

// NewAssignForm creates the form for date. A positive headcount is used as
// the default number of diners.
func NewAssignForm(date string, headcount int, lookup MenuLookup) *AssignForm {
	slots := make([]string, len(models.MealSlots))
	for i, s := range models.MealSlots {
		slots[i] = string(s)
	}

	f := &AssignForm{
		date:      date,
		lookup:    lookup,
		menu:      components.NewInput("Menú (id)").SetRequired(true).SetMaxLength(10).SetWidth(10),
		slot:      components.NewSelect("Tiempo", slots),
		headcount: components.NewInput("Comensales").SetRequired(true).SetMaxLength(6).SetWidth(6),
	}
	if headcount > 0 {
		f.headcount.SetValue(strconv.Itoa(headcount))
	}

	f.form = components.NewForm("Asignar menú al " + date).
		AddField(f.menu).
		AddField(f.slot).
		AddField(f.headcount)
	return f
}

// HandleKey feeds key to the form and returns the assignment to save once
// it is submitted and valid.
func (f *AssignForm) HandleKey(key string) (models.MenuAssignment, bool) {
	if f.pending {
		return models.MenuAssignment{}, false
	}
	f.form.HandleKey(key)
	if !f.form.IsSubmitted() {
		return models.MenuAssignment{}, false
	}
	f.form.Reopen()

	a, ok := f.build()
	if !ok {
		return models.MenuAssignment{}, false
	}
	f.pending = true
	f.form.SetError("")
	return a, true
}

func (f *AssignForm) build() (models.MenuAssignment, bool) {
	ok := f.menu.Validate()
	ok = f.headcount.Validate() && ok

	a := models.MenuAssignment{Date: f.date, Slot: models.MealSlot(f.slot.Value())}

	if f.menu.Error() == "" {
		id, err := strconv.ParseInt(strings.TrimSpace(f.menu.Value()), 10, 64)
		switch {
		case err != nil || id <= 0:
			f.menu.SetError("id de menú inválido")
			ok = false
		case f.lookup != nil:
			name, found := f.lookup(id)
			if !found {
				f.menu.SetError(fmt.Sprintf("el menú %d no existe", id))
				ok = false
			}
			a.MenuName = name
		}
		a.MenuID = id
	}

	if f.headcount.Error() == "" {
		n, err := components.ParseInt(f.headcount.Value())
		switch {
		case err != nil:
			f.headcount.SetError(err.Error())
			ok = false
		case n < 1:
			f.headcount.SetError("debe ser al menos 1")
			ok = false
		}
		a.Headcount = n
	}

	if !ok {
		f.form.SetError("Revise los campos marcados")
		return a, false
	}
	if err := models.Validate(a); err != nil {
		f.form.SetError(components.ErrorText(err))
		return a, false
	}
	return a, true
}

// Done reports the result of the save started by HandleKey.
func (f *AssignForm) Done(err error) {
	f.pending = false
	if err != nil {
		f.form.SetError(components.ErrorText(err))
	}
}

// Cancelled reports whether the user left the form.
func (f *AssignForm) Cancelled() bool {
	return !f.pending && f.form.IsCancelled()
}

// Render renders the form.
func (f *AssignForm) Render() string {
	out := f.form.Render()
	if f.pending {
		out += "\n" + components.MutedStyle.Render("Guardando...")
	}
	return out
}

// ObservationForm edits the note of the selected day.
type ObservationForm struct {
	form    *components.Form
	note    *components.Input
	pending bool
}

// NewObservationForm creates the form prefilled with note.
func NewObservationForm(date, note string) *ObservationForm {
	f := &ObservationForm{
		note: components.NewInput("Observación").SetMaxLength(maxObservation).SetWidth(60).SetValue(note),
	}
	f.form = components.NewForm("Observación del " + date).AddField(f.note)
	return f
}

// HandleKey feeds key to the form and returns the trimmed note once it is
// submitted. An empty note clears the observation.
func (f *ObservationForm) HandleKey(key string) (string, bool) {
	if f.pending {
		return "", false
	}
	f.form.HandleKey(key)
	if !f.form.IsSubmitted() {
		return "", false
	}
	f.form.Reopen()

	note := strings.TrimSpace(f.note.Value())
	if utf8.RuneCountInString(note) > maxObservation {
		f.note.SetError(fmt.Sprintf("máximo %d caracteres", maxObservation))
		return "", false
	}
	f.note.SetError("")
	f.form.SetError("")
	f.pending = true
	return note, true
}

// Done reports the result of the save started by HandleKey.
func (f *ObservationForm) Done(err error) {
	f.pending = false
	if err != nil {
		f.form.SetError(components.ErrorText(err))
	}
}

// Cancelled reports whether the user left the form.
func (f *ObservationForm) Cancelled() bool {
	return !f.pending && f.form.IsCancelled()
}

// Render renders the form.
func (f *ObservationForm) Render() string {
	out := f.form.Render()
	if f.pending {
		out += "\n" + components.MutedStyle.Render("Guardando...")
	}
	return out
}
