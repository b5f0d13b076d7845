package testutil

import (
	"time"

	"github.com/nutriplan/nutriplan/internal/models"
)

// F returns a pointer to v, for nutrient fields.
func F(v float64) *float64 {
	return &v
}

// FixtureFood creates a test food item with sensible defaults.
func FixtureFood(overrides ...func(*models.FoodItem)) models.FoodItem {
	food := models.FoodItem{
		ID:       1,
		Group:    "Cereales",
		Subgroup: "Granos",
		Name:     "Arroz",
		Status:   models.StatusActive,
		FoodNutrients: models.FoodNutrients{
			EnergyKcal:    F(360),
			ProteinPlantG: F(7),
			FatPlantG:     F(0.6),
			CarbohydrateG: F(79),
			IronNonHemeMg: F(0.8),
		},
	}

	for _, override := range overrides {
		override(&food)
	}

	return food
}

// FixtureRecipe creates a test recipe with two ingredients and totals.
func FixtureRecipe(overrides ...func(*models.Recipe)) models.Recipe {
	recipe := models.Recipe{
		ID:          10,
		Name:        "Arroz con pollo",
		Portions:    4,
		PrepMinutes: 45,
		Status:      models.StatusActive,
		Ingredients: []models.RecipeIngredient{
			{FoodID: 1, FoodName: "Arroz", Quantity: 80, Unit: "g", Order: 1},
			{FoodID: 2, FoodName: "Pollo", Quantity: 120, Unit: "g", Order: 2},
		},
		Totals: models.NutrientTotals{
			models.KeyEnergyTotal:        F(520),
			models.KeyCarbohydrateTotal:  F(64),
			models.KeyProteinAnimalTotal: F(30),
			models.KeyProteinPlantTotal:  F(6),
			models.KeyFatAnimalTotal:     F(12),
		},
	}

	for _, override := range overrides {
		override(&recipe)
	}

	return recipe
}

// FixtureMenu creates a test menu with one recipe per slot.
func FixtureMenu(overrides ...func(*models.Menu)) models.Menu {
	menu := models.Menu{
		ID:     20,
		Name:   "Menú lunes",
		Date:   "2024-03-04",
		Type:   "REGULAR",
		Status: models.StatusActive,
		Recipes: []models.MenuRecipe{
			{RecipeID: 11, RecipeName: "Avena con leche", Slot: models.SlotBreakfast, Order: 1},
			{RecipeID: 10, RecipeName: "Arroz con pollo", Slot: models.SlotLunch, Order: 2},
			{RecipeID: 12, RecipeName: "Sopa de verduras", Slot: models.SlotDinner, Order: 3},
		},
	}

	for _, override := range overrides {
		override(&menu)
	}

	return menu
}

// FixtureAssignment creates a lunch assignment for branch 1.
func FixtureAssignment(overrides ...func(*models.MenuAssignment)) models.MenuAssignment {
	a := models.MenuAssignment{
		ID:        100,
		MenuID:    20,
		MenuName:  "Menú lunes",
		Date:      "2024-03-04",
		Slot:      models.SlotLunch,
		BranchID:  1,
		Headcount: 50,
	}

	for _, override := range overrides {
		override(&a)
	}

	return a
}

// FixtureAssignmentDetail creates a resolved lunch assignment.
func FixtureAssignmentDetail(overrides ...func(*models.AssignmentDetail)) models.AssignmentDetail {
	d := models.AssignmentDetail{
		MenuAssignment: FixtureAssignment(),
		Recipes: []models.ResolvedRecipe{
			{
				RecipeID: 10,
				Name:     "Arroz con pollo",
				Ingredients: []models.IngredientLine{
					{FoodID: 1, FoodName: "Arroz", Quantity: 80, Unit: "g"},
					{FoodID: 2, FoodName: "Pollo", Quantity: 120, Unit: "g"},
					{FoodID: 3, FoodName: "Aceite", Quantity: 10, Unit: "ml"},
				},
			},
		},
	}

	for _, override := range overrides {
		override(&d)
	}

	return d
}

// FixtureSession creates a session with two branches expiring in a day.
func FixtureSession(overrides ...func(*models.Session)) models.Session {
	s := models.Session{
		Token:           "test-token",
		Username:        "nutricionista",
		Roles:           []string{"ADMIN"},
		ExpiresAt:       time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second),
		Branches:        []models.Branch{{ID: 1, Name: "Centro"}, {ID: 2, Name: "Norte"}},
		DefaultBranchID: 1,
	}

	for _, override := range overrides {
		override(&s)
	}

	return s
}
