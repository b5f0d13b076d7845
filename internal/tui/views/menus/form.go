package menus

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/tui/components"
	"github.com/nutriplan/nutriplan/internal/util"
)

// RecipeLookup resolves a recipe id to its name.
type RecipeLookup func(id int64) (string, bool)

// ParseRecipes reads "recetaId:TIEMPO" entries separated by semicolons.
// The slot is upper-cased; the entry order becomes the recipe order.
func ParseRecipes(s string) ([]models.MenuRecipe, error) {
	var out []models.MenuRecipe
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, slot, found := strings.Cut(entry, ":")
		if !found {
			return nil, fmt.Errorf("%q: use recetaId:TIEMPO", entry)
		}
		recipeID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		if err != nil || recipeID <= 0 {
			return nil, fmt.Errorf("%q: id de receta inválido", entry)
		}
		tag := models.MealSlot(strings.ToUpper(strings.TrimSpace(slot)))
		if !tag.Known() {
			return nil, fmt.Errorf("%q: tiempo de comida desconocido (DESAYUNO, ALMUERZO o CENA)", entry)
		}
		out = append(out, models.MenuRecipe{RecipeID: recipeID, Slot: tag, Order: len(out) + 1})
	}
	return out, nil
}

// FormatRecipes is the inverse of ParseRecipes.
func FormatRecipes(items []models.MenuRecipe) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%d:%s", it.RecipeID, it.Slot)
	}
	return strings.Join(parts, "; ")
}

// Form creates or edits a menu.
type Form struct {
	form        *components.Form
	base        models.Menu
	lookup      RecipeLookup
	name        *components.Input
	date        *components.Input
	kind        *components.Input
	description *components.Input
	status      *components.Select
	recipes     *components.Input
	pending     bool
}

// NewForm creates the form. A nil menu opens an empty create form.
func NewForm(menu *models.Menu, lookup RecipeLookup) *Form {
	statuses := make([]string, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		if s != models.StatusDeleted {
			statuses = append(statuses, s.String())
		}
	}

	f := &Form{
		lookup:      lookup,
		name:        components.NewInput("Nombre").SetRequired(true).SetMaxLength(200).SetWidth(40),
		date:        components.NewInput("Fecha").SetMaxLength(10).SetWidth(10).SetPlaceholder("aaaa-mm-dd"),
		kind:        components.NewInput("Tipo").SetMaxLength(50),
		description: components.NewInput("Descripción").SetMaxLength(1000).SetWidth(60),
		status:      components.NewSelect("Estado", statuses),
		recipes: components.NewInput("Recetas").SetRequired(true).SetMaxLength(1000).SetWidth(60).
			SetPlaceholder("recetaId:TIEMPO; ..."),
	}

	title := "Nuevo menú"
	if menu != nil {
		title = "Editar menú"
		f.base = *menu
		f.name.SetValue(menu.Name)
		f.date.SetValue(menu.Date)
		f.kind.SetValue(menu.Type)
		f.description.SetValue(menu.Description)
		f.status.SetValue(menu.Status.String())
		f.recipes.SetValue(FormatRecipes(menu.Recipes))
	}

	f.form = components.NewForm(title).
		AddField(f.name).
		AddField(f.date).
		AddField(f.kind).
		AddField(f.description).
		AddField(f.status).
		AddField(f.recipes)
	return f
}

// HandleKey feeds key to the form and returns the menu to save once it is
// submitted and valid.
func (f *Form) HandleKey(key string) (models.Menu, bool) {
	if f.pending {
		return models.Menu{}, false
	}
	f.form.HandleKey(key)
	if !f.form.IsSubmitted() {
		return models.Menu{}, false
	}
	f.form.Reopen()

	m, ok := f.build()
	if !ok {
		return models.Menu{}, false
	}
	f.pending = true
	f.form.SetError("")
	return m, true
}

func (f *Form) build() (models.Menu, bool) {
	ok := f.name.Validate()
	ok = f.recipes.Validate() && ok

	m := f.base
	m.Name = strings.TrimSpace(f.name.Value())
	m.Type = strings.TrimSpace(f.kind.Value())
	m.Description = strings.TrimSpace(f.description.Value())
	m.Status = models.Status(f.status.Value())

	m.Date = strings.TrimSpace(f.date.Value())
	f.date.SetError("")
	if m.Date != "" {
		if _, err := util.ParseDateKey(m.Date); err != nil {
			f.date.SetError("fecha inválida")
			ok = false
		}
	}

	if f.recipes.Error() == "" {
		items, err := ParseRecipes(f.recipes.Value())
		switch {
		case err != nil:
			f.recipes.SetError(err.Error())
			ok = false
		case len(items) == 0:
			f.recipes.SetError("Requerido")
			ok = false
		default:
			if msg := f.resolve(items); msg != "" {
				f.recipes.SetError(msg)
				ok = false
			}
			m.Recipes = items
		}
	}

	if !ok {
		f.form.SetError("Revise los campos marcados")
		return m, false
	}
	if err := models.Validate(m); err != nil {
		f.form.SetError(components.ErrorText(err))
		return m, false
	}
	return m, true
}

func (f *Form) resolve(items []models.MenuRecipe) string {
	if f.lookup == nil {
		return ""
	}
	for i := range items {
		name, found := f.lookup(items[i].RecipeID)
		if !found {
			return fmt.Sprintf("la receta %d no existe", items[i].RecipeID)
		}
		items[i].RecipeName = name
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
