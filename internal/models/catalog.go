package models

import (
	"encoding/json"
	"time"
)

// FoodItem is a raw food ("insumo") with a per-100g nutrient profile.
type FoodItem struct {
	ID       int64  `json:"insumoId,omitempty" validate:"gte=0"`
	Group    string `json:"grupo" validate:"required,max=100"`
	Subgroup string `json:"subgrupo,omitempty" validate:"max=100"`
	Name     string `json:"nombre" validate:"required,max=200"`
	Status   Status `json:"estado,omitempty" validate:"omitempty,status"`
	FoodNutrients
}

// EntityID implements the catalog entity contract.
func (f FoodItem) EntityID() int64 { return f.ID }

// RecipeIngredient is one ordered row of a recipe, quantity per portion.
type RecipeIngredient struct {
	FoodID   int64   `json:"insumoId" validate:"gt=0"`
	FoodName string  `json:"nombreInsumo,omitempty"`
	Quantity float64 `json:"cantidad" validate:"gt=0"`
	Unit     string  `json:"unidad" validate:"required,max=20"`
	Order    int     `json:"orden,omitempty" validate:"gte=0"`
}

// Recipe is a named, ordered set of ingredients with server-computed totals.
type Recipe struct {
	ID           int64              `json:"recetaId,omitempty" validate:"gte=0"`
	Name         string             `json:"nombre" validate:"required,max=200"`
	Instructions string             `json:"preparacion,omitempty" validate:"max=4000"`
	Portions     int                `json:"rendimiento" validate:"gte=0"`
	PrepMinutes  int                `json:"tiempoPreparacion,omitempty" validate:"gte=0"`
	Status       Status             `json:"estado,omitempty" validate:"omitempty,status"`
	Ingredients  []RecipeIngredient `json:"ingredientes,omitempty" validate:"dive"`

	// Totals are never sent back; the backend recomputes them.
	Totals NutrientTotals `json:"-"`
}

// EntityID implements the catalog entity contract.
func (r Recipe) EntityID() int64 { return r.ID }

// UnmarshalJSON decodes the recipe and collects its inline totals.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	type plain Recipe
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	totals, err := extractTotals(data)
	if err != nil {
		return err
	}
	*r = Recipe(p)
	r.Totals = totals
	return nil
}

// MenuRecipe places a recipe in a meal slot of a menu.
type MenuRecipe struct {
	RecipeID   int64    `json:"recetaId" validate:"gt=0"`
	RecipeName string   `json:"nombreReceta,omitempty"`
	Slot       MealSlot `json:"tiempoComida" validate:"required"`
	Order      int      `json:"orden" validate:"gte=0"`
}

// Menu is a named collection of recipes tagged by meal slot.
type Menu struct {
	ID          int64        `json:"menuId,omitempty" validate:"gte=0"`
	Name        string       `json:"nombre" validate:"required,max=200"`
	Date        string       `json:"fecha,omitempty" validate:"omitempty,datekey"`
	Description string       `json:"descripcion,omitempty" validate:"max=1000"`
	Type        string       `json:"tipo,omitempty" validate:"max=50"`
	Status      Status       `json:"estado,omitempty" validate:"omitempty,status"`
	Recipes     []MenuRecipe `json:"recetas,omitempty" validate:"dive"`

	Totals NutrientTotals `json:"-"`
}

// EntityID implements the catalog entity contract.
func (m Menu) EntityID() int64 { return m.ID }

// UnmarshalJSON decodes the menu and collects its inline totals.
func (m *Menu) UnmarshalJSON(data []byte) error {
	type plain Menu
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	totals, err := extractTotals(data)
	if err != nil {
		return err
	}
	*m = Menu(p)
	m.Totals = totals
	return nil
}

// NutritionReport aggregates the menus of one day for a branch and headcount.
type NutritionReport struct {
	Date       string   `json:"fecha" validate:"required,datekey"`
	BranchID   int64    `json:"sucursalId" validate:"gte=0"`
	BranchName string   `json:"sucursal,omitempty"`
	Headcount  int      `json:"comensales" validate:"gte=0"`
	Menus      []string `json:"menus,omitempty"`

	Totals NutrientTotals `json:"-"`
}

// UnmarshalJSON decodes the report and collects its inline totals.
func (n *NutritionReport) UnmarshalJSON(data []byte) error {
	type plain NutritionReport
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	totals, err := extractTotals(data)
	if err != nil {
		return err
	}
	*n = NutritionReport(p)
	n.Totals = totals
	return nil
}

// User is an account administered through the auth endpoints.
type User struct {
	ID              int64    `json:"usuarioId,omitempty" validate:"gte=0"`
	Username        string   `json:"username" validate:"required,min=3,max=50"`
	FullName        string   `json:"nombreCompleto,omitempty" validate:"max=120"`
	Password        string   `json:"password,omitempty"`
	Roles           []string `json:"roles,omitempty"`
	Branches        []Branch `json:"sucursales,omitempty" validate:"dive"`
	DefaultBranchID int64    `json:"sucursalPorDefecto,omitempty" validate:"gte=0"`
	Status          Status   `json:"estado,omitempty" validate:"omitempty,status"`
}

// EntityID implements the catalog entity contract.
func (u User) EntityID() int64 { return u.ID }

// Session is the authenticated state persisted between runs.
type Session struct {
	Token           string    `json:"token" validate:"required"`
	Username        string    `json:"username" validate:"required"`
	Roles           []string  `json:"roles,omitempty"`
	ExpiresAt       time.Time `json:"expiresAt"`
	Branches        []Branch  `json:"sucursales,omitempty" validate:"dive"`
	DefaultBranchID int64     `json:"sucursalPorDefecto,omitempty"`
}

// Expired reports whether the token has passed its expiry. A zero expiry
// means the backend did not announce one.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// DefaultBranch picks the configured default branch, else the first one.
func (s Session) DefaultBranch() (Branch, bool) {
	for _, b := range s.Branches {
		if b.ID == s.DefaultBranchID {
			return b, true
		}
	}
	if len(s.Branches) > 0 {
		return s.Branches[0], true
	}
	return Branch{}, false
}

// HasRole reports whether the session carries role.
func (s Session) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}
