package models

// MealSlot tags a menu or recipe with a time of day.
type MealSlot string

const (
	SlotBreakfast MealSlot = "DESAYUNO"
	SlotLunch     MealSlot = "ALMUERZO"
	SlotDinner    MealSlot = "CENA"
)

// MealSlots is the fixed display order of the known slots.
var MealSlots = []MealSlot{SlotBreakfast, SlotLunch, SlotDinner}

// Known reports whether s is one of the three recognised slots.
func (s MealSlot) Known() bool {
	switch s {
	case SlotBreakfast, SlotLunch, SlotDinner:
		return true
	}
	return false
}

// Label returns the display name of the slot.
func (s MealSlot) Label() string {
	switch s {
	case SlotBreakfast:
		return "Desayuno"
	case SlotLunch:
		return "Almuerzo"
	case SlotDinner:
		return "Cena"
	case "":
		return "Sin tiempo"
	default:
		return string(s)
	}
}

// MenuAssignment places a menu on a date, meal slot and branch.
type MenuAssignment struct {
	ID        int64    `json:"asignacionId,omitempty" validate:"gte=0"`
	MenuID    int64    `json:"menuId" validate:"gt=0"`
	MenuName  string   `json:"nombreMenu,omitempty"`
	Date      string   `json:"fecha" validate:"required,datekey"`
	Slot      MealSlot `json:"tiempoComida" validate:"required"`
	BranchID  int64    `json:"sucursalId" validate:"gte=0"`
	Headcount int      `json:"comensales" validate:"gte=0"`
}

// EntityID implements the catalog entity contract.
func (a MenuAssignment) EntityID() int64 { return a.ID }

// IngredientLine is one food quantity of a resolved recipe, per portion.
type IngredientLine struct {
	FoodID   int64   `json:"insumoId"`
	FoodName string  `json:"nombreInsumo" validate:"required"`
	Quantity float64 `json:"cantidad" validate:"gte=0"`
	Unit     string  `json:"unidad"`
}

// ResolvedRecipe is a recipe expanded to its ingredient lines.
type ResolvedRecipe struct {
	RecipeID    int64            `json:"recetaId"`
	Name        string           `json:"nombre" validate:"required"`
	Ingredients []IngredientLine `json:"ingredientes" validate:"dive"`
}

// AssignmentDetail is an assignment with its menu resolved down to
// ingredient rows.
type AssignmentDetail struct {
	MenuAssignment
	Recipes []ResolvedRecipe `json:"recetas" validate:"dive"`
}

// DayObservation is a free-text note for a date and branch.
type DayObservation struct {
	Date     string `json:"fecha" validate:"required,datekey"`
	BranchID int64  `json:"sucursalId" validate:"gte=0"`
	Note     string `json:"observacion" validate:"max=500"`
}
