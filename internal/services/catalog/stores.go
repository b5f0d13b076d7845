package catalog

import (
	"github.com/nutriplan/nutriplan/internal/api"
	"github.com/nutriplan/nutriplan/internal/models"
)

// Stores bundles the collections the dashboard works with.
type Stores struct {
	Foods       *Store[models.FoodItem]
	Recipes     *Store[models.Recipe]
	Menus       *Store[models.Menu]
	Users       *Store[models.User]
	Assignments *AssignmentStore
}

// NewStores wires every store to client.
func NewStores(client *api.Client) *Stores {
	return &Stores{
		Foods: NewStore[models.FoodItem]("insumos", Funcs[models.FoodItem]{
			ListFn:   client.ListFoods,
			CreateFn: client.CreateFood,
			UpdateFn: client.UpdateFood,
		}, Messages{
			Created: "Insumo creado correctamente",
			Updated: "Insumo actualizado correctamente",
			Deleted: "Insumo eliminado",
		}, func(f models.FoodItem) models.FoodItem {
			f.Status = models.StatusDeleted
			return f
		}),

		Recipes: NewStore[models.Recipe]("recetas", Funcs[models.Recipe]{
			ListFn:   client.ListRecipes,
			CreateFn: client.CreateRecipe,
			UpdateFn: client.UpdateRecipe,
		}, Messages{
			Created: "Receta creada correctamente",
			Updated: "Receta actualizada correctamente",
			Deleted: "Receta eliminada",
		}, func(r models.Recipe) models.Recipe {
			r.Status = models.StatusDeleted
			return r
		}),

		Menus: NewStore[models.Menu]("menus", Funcs[models.Menu]{
			ListFn:   client.ListMenus,
			CreateFn: client.CreateMenu,
			UpdateFn: client.UpdateMenu,
		}, Messages{
			Created: "Menú creado correctamente",
			Updated: "Menú actualizado correctamente",
			Deleted: "Menú eliminado",
		}, func(m models.Menu) models.Menu {
			m.Status = models.StatusDeleted
			return m
		}),

		Users: NewStore[models.User]("usuarios", Funcs[models.User]{
			ListFn:   client.ListUsers,
			CreateFn: client.CreateUser,
			UpdateFn: client.UpdateUser,
		}, Messages{
			Created: "Usuario creado correctamente",
			Updated: "Usuario actualizado correctamente",
			Deleted: "Usuario desactivado",
		}, func(u models.User) models.User {
			u.Status = models.StatusDeleted
			u.Password = ""
			return u
		}),

		Assignments: NewAssignmentStore(client),
	}
}

// Reset clears every store.
func (s *Stores) Reset() {
	s.Foods.Reset()
	s.Recipes.Reset()
	s.Menus.Reset()
	s.Users.Reset()
	s.Assignments.Reset()
}
