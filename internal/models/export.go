package models

import "time"

// ExportKind classifies a generated report file.
type ExportKind string

const (
	ExportNutrition    ExportKind = "NUTRITION"
	ExportShoppingList ExportKind = "SHOPPING_LIST"
	ExportWeekly       ExportKind = "WEEKLY"
	ExportSpreadsheet  ExportKind = "SPREADSHEET"
)

// Label returns the display name of the kind.
func (k ExportKind) Label() string {
	switch k {
	case ExportNutrition:
		return "Nutricional"
	case ExportShoppingList:
		return "Lista de compras"
	case ExportWeekly:
		return "Semanal"
	case ExportSpreadsheet:
		return "Planilla"
	default:
		return string(k)
	}
}

// ExportRecord is one entry of the local export history.
type ExportRecord struct {
	ID        string
	Kind      ExportKind
	FileName  string
	Path      string
	BranchID  int64
	Subject   string
	CreatedAt time.Time
}
