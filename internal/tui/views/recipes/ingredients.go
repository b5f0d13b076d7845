package recipes

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nutriplan/nutriplan/internal/models"
)

// ParseIngredients reads "insumoId:cantidad:unidad" entries separated by
// semicolons. The entry order becomes the ingredient order.
func ParseIngredients(s string) ([]models.RecipeIngredient, error) {
	var out []models.RecipeIngredient
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("%q: use insumoId:cantidad:unidad", entry)
		}

		id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%q: id de insumo inválido", entry)
		}
		qty, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(parts[1]), ",", "."), 64)
		if err != nil || qty <= 0 {
			return nil, fmt.Errorf("%q: la cantidad debe ser mayor que cero", entry)
		}
		unit := strings.TrimSpace(parts[2])
		if unit == "" {
			return nil, fmt.Errorf("%q: falta la unidad", entry)
		}

		out = append(out, models.RecipeIngredient{
			FoodID:   id,
			Quantity: qty,
			Unit:     unit,
			Order:    len(out) + 1,
		})
	}
	return out, nil
}

// FormatIngredients is the inverse of ParseIngredients.
func FormatIngredients(items []models.RecipeIngredient) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%d:%s:%s", it.FoodID, strconv.FormatFloat(it.Quantity, 'f', -1, 64), it.Unit)
	}
	return strings.Join(parts, "; ")
}
