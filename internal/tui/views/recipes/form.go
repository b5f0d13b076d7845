package recipes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/tui/components"
)

// FoodLookup resolves a food id to its name.
type FoodLookup func(id int64) (string, bool)

// Form creates or edits a recipe.
type Form struct {
	form         *components.Form
	base         models.Recipe
	lookup       FoodLookup
	name         *components.Input
	portions     *components.Input
	minutes      *components.Input
	status       *components.Select
	instructions *components.Input
	ingredients  *components.Input
	pending      bool
}

// NewForm creates the form. A nil recipe opens an empty create form.
// lookup may be nil, in which case food ids are not checked.
func NewForm(recipe *models.Recipe, lookup FoodLookup) *Form {
	statuses := make([]string, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		if s != models.StatusDeleted {
			statuses = append(statuses, s.String())
		}
	}

	f := &Form{
		lookup:       lookup,
		name:         components.NewInput("Nombre").SetRequired(true).SetMaxLength(200).SetWidth(40),
		portions:     components.NewInput("Rendimiento").SetRequired(true).SetMaxLength(5).SetWidth(6),
		minutes:      components.NewInput("Tiempo (min)").SetMaxLength(5).SetWidth(6),
		status:       components.NewSelect("Estado", statuses),
		instructions: components.NewInput("Preparación").SetMaxLength(4000).SetWidth(60),
		ingredients: components.NewInput("Ingredientes").SetRequired(true).SetMaxLength(2000).SetWidth(60).
			SetPlaceholder("insumoId:cantidad:unidad; ..."),
	}

	title := "Nueva receta"
	if recipe != nil {
		title = "Editar receta"
		f.base = *recipe
		f.name.SetValue(recipe.Name)
		f.portions.SetValue(strconv.Itoa(recipe.Portions))
		if recipe.PrepMinutes > 0 {
			f.minutes.SetValue(strconv.Itoa(recipe.PrepMinutes))
		}
		f.status.SetValue(recipe.Status.String())
		f.instructions.SetValue(recipe.Instructions)
		f.ingredients.SetValue(FormatIngredients(recipe.Ingredients))
	} else {
		f.portions.SetValue("1")
	}

	f.form = components.NewForm(title).
		AddField(f.name).
		AddField(f.portions).
		AddField(f.minutes).
		AddField(f.status).
		AddField(f.instructions).
		AddField(f.ingredients)
	return f
}

// HandleKey feeds key to the form and returns the recipe to save once it
// is submitted and valid.
func (f *Form) HandleKey(key string) (models.Recipe, bool) {
	if f.pending {
		return models.Recipe{}, false
	}
	f.form.HandleKey(key)
	if !f.form.IsSubmitted() {
		return models.Recipe{}, false
	}
	f.form.Reopen()

	recipe, ok := f.build()
	if !ok {
		return models.Recipe{}, false
	}
	f.pending = true
	f.form.SetError("")
	return recipe, true
}

func (f *Form) build() (models.Recipe, bool) {
	ok := f.name.Validate()
	ok = f.portions.Validate() && ok
	ok = f.ingredients.Validate() && ok

	r := f.base
	r.Name = strings.TrimSpace(f.name.Value())
	r.Instructions = strings.TrimSpace(f.instructions.Value())
	r.Status = models.Status(f.status.Value())

	portions, err := components.ParseInt(f.portions.Value())
	if err == nil && portions < 1 {
		err = fmt.Errorf("debe ser al menos 1")
	}
	if err != nil && f.portions.Error() == "" {
		f.portions.SetError(err.Error())
		ok = false
	}
	r.Portions = portions

	minutes, err := components.ParseInt(f.minutes.Value())
	if err != nil {
		f.minutes.SetError(err.Error())
		ok = false
	} else {
		f.minutes.SetError("")
	}
	r.PrepMinutes = minutes

	if f.ingredients.Error() == "" {
		items, err := ParseIngredients(f.ingredients.Value())
		switch {
		case err != nil:
			f.ingredients.SetError(err.Error())
			ok = false
		case len(items) == 0:
			f.ingredients.SetError("Requerido")
			ok = false
		default:
			if msg := f.resolve(items); msg != "" {
				f.ingredients.SetError(msg)
				ok = false
			}
			r.Ingredients = items
		}
	}

	if !ok {
		f.form.SetError("Revise los campos marcados")
		return r, false
	}
	if err := models.Validate(r); err != nil {
		f.form.SetError(components.ErrorText(err))
		return r, false
	}
	return r, true
}

// resolve fills food names and reports unknown ids.
func (f *Form) resolve(items []models.RecipeIngredient) string {
	if f.lookup == nil {
		return ""
	}
	for i := range items {
		name, found := f.lookup(items[i].FoodID)
		if !found {
			return fmt.Sprintf("el insumo %d no existe", items[i].FoodID)
		}
		items[i].FoodName = name
	}
	return ""
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
