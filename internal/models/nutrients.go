package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Keys of the server-computed totals block.
const (
	KeyEnergyTotal        = "energiaKcalTotal"
	KeyCarbohydrateTotal  = "carbohidratosGTotal"
	KeyProteinTotal       = "proteinaTotalG"
	KeyProteinAnimalTotal = "proteinaAnimalGTotal"
	KeyProteinPlantTotal  = "proteinaVegetalGTotal"
	KeyFatTotal           = "grasaTotalG"
	KeyFatAnimalTotal     = "grasaAnimalGTotal"
	KeyFatPlantTotal      = "grasaVegetalGTotal"
	KeyIronTotal          = "hierroTotalMg"
	KeyIronHemeTotal      = "hierroHemMgTotal"
	KeyIronNonHemeTotal   = "hierroNoHemMgTotal"
)

// NutrientTotals is a flat nutrient-key to amount mapping. A nil value means
// the backend reported the nutrient as unknown.
type NutrientTotals map[string]*float64

// Get returns the amount for key when it is present and non-null.
func (t NutrientTotals) Get(key string) (float64, bool) {
	v, ok := t[key]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Ptr returns the raw pointer for key, nil when absent.
func (t NutrientTotals) Ptr(key string) *float64 {
	return t[key]
}

// UnmarshalJSON accepts only numbers and nulls, and rejects negative amounts.
func (t *NutrientTotals) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: totals: %w", ErrInvalidPayload, err)
	}
	totals, err := decodeTotals(raw, func(string) bool { return true })
	if err != nil {
		return err
	}
	*t = totals
	return nil
}

// IsTotalKey reports whether a flat payload key belongs to the totals block.
func IsTotalKey(key string) bool {
	return strings.Contains(key, "Total")
}

// extractTotals pulls the totals keys out of an entity payload that carries
// them inline next to its own fields.
func extractTotals(data []byte) (NutrientTotals, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return decodeTotals(raw, IsTotalKey)
}

func decodeTotals(raw map[string]json.RawMessage, keep func(string) bool) (NutrientTotals, error) {
	totals := make(NutrientTotals)
	for key, val := range raw {
		if !keep(key) {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
			totals[key] = nil
			continue
		}
		var f float64
		if err := json.Unmarshal(val, &f); err != nil {
			return nil, fmt.Errorf("%w: %s is not a number", ErrInvalidPayload, key)
		}
		if f < 0 {
			return nil, fmt.Errorf("%w: %s is negative", ErrInvalidPayload, key)
		}
		totals[key] = &f
	}
	return totals, nil
}

// FoodNutrients is the per-100g nutrient profile of a food item.
type FoodNutrients struct {
	EnergyKcal      *float64 `json:"energiaKcal,omitempty" validate:"omitempty,gte=0"`
	WaterG          *float64 `json:"aguaG,omitempty" validate:"omitempty,gte=0"`
	ProteinAnimalG  *float64 `json:"proteinaAnimalG,omitempty" validate:"omitempty,gte=0"`
	ProteinPlantG   *float64 `json:"proteinaVegetalG,omitempty" validate:"omitempty,gte=0"`
	FatAnimalG      *float64 `json:"grasaAnimalG,omitempty" validate:"omitempty,gte=0"`
	FatPlantG       *float64 `json:"grasaVegetalG,omitempty" validate:"omitempty,gte=0"`
	CarbohydrateG   *float64 `json:"carbohidratosG,omitempty" validate:"omitempty,gte=0"`
	FiberG          *float64 `json:"fibraG,omitempty" validate:"omitempty,gte=0"`
	CalciumAnimalMg *float64 `json:"calcioAnimalMg,omitempty" validate:"omitempty,gte=0"`
	CalciumPlantMg  *float64 `json:"calcioVegetalMg,omitempty" validate:"omitempty,gte=0"`
	PhosphorusMg    *float64 `json:"fosforoMg,omitempty" validate:"omitempty,gte=0"`
	IronHemeMg      *float64 `json:"hierroHemMg,omitempty" validate:"omitempty,gte=0"`
	IronNonHemeMg   *float64 `json:"hierroNoHemMg,omitempty" validate:"omitempty,gte=0"`
	RetinolMcg      *float64 `json:"retinolMcg,omitempty" validate:"omitempty,gte=0"`
	VitaminB1Mg     *float64 `json:"vitaminaB1Mg,omitempty" validate:"omitempty,gte=0"`
	VitaminB2Mg     *float64 `json:"vitaminaB2Mg,omitempty" validate:"omitempty,gte=0"`
	VitaminB3Mg     *float64 `json:"vitaminaB3Mg,omitempty" validate:"omitempty,gte=0"`
	VitaminCMg      *float64 `json:"vitaminaCMg,omitempty" validate:"omitempty,gte=0"`
	SodiumMg        *float64 `json:"sodioMg,omitempty" validate:"omitempty,gte=0"`
	PotassiumMg     *float64 `json:"potasioMg,omitempty" validate:"omitempty,gte=0"`
	ZincMg          *float64 `json:"zincMg,omitempty" validate:"omitempty,gte=0"`
	MagnesiumMg     *float64 `json:"magnesioMg,omitempty" validate:"omitempty,gte=0"`
	CholesterolMg   *float64 `json:"colesterolMg,omitempty" validate:"omitempty,gte=0"`
	SaturatedFatG   *float64 `json:"grasaSaturadaG,omitempty" validate:"omitempty,gte=0"`
	FolateMcg       *float64 `json:"folatoMcg,omitempty" validate:"omitempty,gte=0"`
}

// NutrientField describes one editable nutrient of a food item.
type NutrientField struct {
	Key   string
	Label string
	Unit  string
	ref   func(*FoodNutrients) **float64
}

// Ref returns the address of the field inside n.
func (f NutrientField) Ref(n *FoodNutrients) **float64 {
	return f.ref(n)
}

// NutrientFields lists the per-100g nutrients in display order.
var NutrientFields = []NutrientField{
	{"energiaKcal", "Energía", "kcal", func(n *FoodNutrients) **float64 { return &n.EnergyKcal }},
	{"aguaG", "Agua", "g", func(n *FoodNutrients) **float64 { return &n.WaterG }},
	{"proteinaAnimalG", "Proteína animal", "g", func(n *FoodNutrients) **float64 { return &n.ProteinAnimalG }},
	{"proteinaVegetalG", "Proteína vegetal", "g", func(n *FoodNutrients) **float64 { return &n.ProteinPlantG }},
	{"grasaAnimalG", "Grasa animal", "g", func(n *FoodNutrients) **float64 { return &n.FatAnimalG }},
	{"grasaVegetalG", "Grasa vegetal", "g", func(n *FoodNutrients) **float64 { return &n.FatPlantG }},
	{"grasaSaturadaG", "Grasa saturada", "g", func(n *FoodNutrients) **float64 { return &n.SaturatedFatG }},
	{"carbohidratosG", "Carbohidratos", "g", func(n *FoodNutrients) **float64 { return &n.CarbohydrateG }},
	{"fibraG", "Fibra", "g", func(n *FoodNutrients) **float64 { return &n.FiberG }},
	{"calcioAnimalMg", "Calcio animal", "mg", func(n *FoodNutrients) **float64 { return &n.CalciumAnimalMg }},
	{"calcioVegetalMg", "Calcio vegetal", "mg", func(n *FoodNutrients) **float64 { return &n.CalciumPlantMg }},
	{"fosforoMg", "Fósforo", "mg", func(n *FoodNutrients) **float64 { return &n.PhosphorusMg }},
	{"hierroHemMg", "Hierro hem", "mg", func(n *FoodNutrients) **float64 { return &n.IronHemeMg }},
	{"hierroNoHemMg", "Hierro no hem", "mg", func(n *FoodNutrients) **float64 { return &n.IronNonHemeMg }},
	{"zincMg", "Zinc", "mg", func(n *FoodNutrients) **float64 { return &n.ZincMg }},
	{"magnesioMg", "Magnesio", "mg", func(n *FoodNutrients) **float64 { return &n.MagnesiumMg }},
	{"sodioMg", "Sodio", "mg", func(n *FoodNutrients) **float64 { return &n.SodiumMg }},
	{"potasioMg", "Potasio", "mg", func(n *FoodNutrients) **float64 { return &n.PotassiumMg }},
	{"colesterolMg", "Colesterol", "mg", func(n *FoodNutrients) **float64 { return &n.CholesterolMg }},
	{"retinolMcg", "Retinol", "µg", func(n *FoodNutrients) **float64 { return &n.RetinolMcg }},
	{"folatoMcg", "Folato", "µg", func(n *FoodNutrients) **float64 { return &n.FolateMcg }},
	{"vitaminaB1Mg", "Vitamina B1", "mg", func(n *FoodNutrients) **float64 { return &n.VitaminB1Mg }},
	{"vitaminaB2Mg", "Vitamina B2", "mg", func(n *FoodNutrients) **float64 { return &n.VitaminB2Mg }},
	{"vitaminaB3Mg", "Vitamina B3", "mg", func(n *FoodNutrients) **float64 { return &n.VitaminB3Mg }},
	{"vitaminaCMg", "Vitamina C", "mg", func(n *FoodNutrients) **float64 { return &n.VitaminCMg }},
}
