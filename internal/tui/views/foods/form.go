package foods

import (
	"strings"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/tui/components"
)

// Form creates or edits a food item.
type Form struct {
	form      *components.Form
	base      models.FoodItem
	group     *components.Input
	subgroup  *components.Input
	name      *components.Input
	status    *components.Select
	nutrients []*components.Input
	pending   bool
}

func statusOptions() []string {
	opts := make([]string, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		if s != models.StatusDeleted {
			opts = append(opts, s.String())
		}
	}
	return opts
}

// NewForm creates the form. A nil item opens an empty create form.
func NewForm(item *models.FoodItem) *Form {
	f := &Form{
		group:    components.NewInput("Grupo").SetRequired(true).SetMaxLength(100),
		subgroup: components.NewInput("Subgrupo").SetMaxLength(100),
		name:     components.NewInput("Nombre").SetRequired(true).SetMaxLength(200).SetWidth(40),
		status:   components.NewSelect("Estado", statusOptions()),
	}

	title := "Nuevo insumo"
	if item != nil {
		title = "Editar insumo"
		f.base = *item
		f.group.SetValue(item.Group)
		f.subgroup.SetValue(item.Subgroup)
		f.name.SetValue(item.Name)
		f.status.SetValue(item.Status.String())
	}

	f.form = components.NewForm(title).SetWindow(14).
		AddField(f.name).
		AddField(f.group).
		AddField(f.subgroup).
		AddField(f.status)

	for _, field := range models.NutrientFields {
		in := components.NewInput(field.Label + " (" + field.Unit + ")").SetMaxLength(12).SetWidth(12)
		in.SetValue(components.FormatOptional(*field.Ref(&f.base.FoodNutrients)))
		if in.Value() == "-" {
			in.SetValue("")
		}
		f.nutrients = append(f.nutrients, in)
		f.form.AddField(in)
	}
	return f
}

// HandleKey feeds key to the form. It returns the item to save once the
// form is submitted and passes client-side validation.
func (f *Form) HandleKey(key string) (models.FoodItem, bool) {
	if f.pending {
		return models.FoodItem{}, false
	}
	f.form.HandleKey(key)
	if !f.form.IsSubmitted() {
		return models.FoodItem{}, false
	}
	f.form.Reopen()

	item, ok := f.build()
	if !ok {
		return models.FoodItem{}, false
	}
	f.pending = true
	f.form.SetError("")
	return item, true
}

func (f *Form) build() (models.FoodItem, bool) {
	ok := f.name.Validate()
	ok = f.group.Validate() && ok

	item := f.base
	item.Name = strings.TrimSpace(f.name.Value())
	item.Group = strings.TrimSpace(f.group.Value())
	item.Subgroup = strings.TrimSpace(f.subgroup.Value())
	item.Status = models.Status(f.status.Value())

	for i, field := range models.NutrientFields {
		in := f.nutrients[i]
		v, err := components.ParseOptionalFloat(in.Value())
		if err != nil {
			in.SetError(err.Error())
			ok = false
			continue
		}
		in.SetError("")
		*field.Ref(&item.FoodNutrients) = v
	}
	if !ok {
		f.form.SetError("Revise los campos marcados")
		return item, false
	}

	if err := models.Validate(item); err != nil {
		f.form.SetError(components.ErrorText(err))
		return item, false
	}
	return item, true
}

// Done reports the result of the save started by HandleKey.
func (f *Form) Done(err error) {
	f.pending = false
	if err != nil {
		f.form.SetError(components.ErrorText(err))
	}
}

// Cancelled reports whether the user left the form.
func (f *Form) Cancelled() bool {
	return !f.pending && f.form.IsCancelled()
}

// Render renders the form.
func (f *Form) Render() string {
	out := f.form.Render()
	if f.pending {
		out += "\n" + components.MutedStyle.Render("Guardando...")
	}
	return out
}
