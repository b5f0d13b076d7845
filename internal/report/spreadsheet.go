package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/nutriplan/nutriplan/internal/services/shopping"
)

// Sheet names of the purchase list workbook.
const (
	SheetLines  = "Lista"
	SheetTotals = "Totales"
)

var (
	lineHeaders  = []string{"Tiempo", "Receta", "Insumo", "Cantidad", "Unidad", "Total"}
	lineWidths   = []float64{14, 30, 30, 12, 10, 14}
	totalHeaders = []string{"Insumo", "Cantidad", "Unidad", "Total", "Recetas"}
	totalWidths  = []float64{30, 12, 10, 14, 10}
)

// ShoppingListXLSX writes the purchase list as a workbook with one row per
// recipe line and a sheet of consolidated totals per food item.
func ShoppingListXLSX(w io.Writer, list *shopping.List) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetLines)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetTotals); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	numberFmt := "0.00"
	numberStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numberFmt})
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}

	// Summary rows above the table.
	summary := [][2]string{
		{"Programa", list.Program},
		{"Sucursal", list.Branch.Name},
		{"Fecha", list.Date},
	}
	for i, kv := range summary {
		f.SetCellValue(SheetLines, fmt.Sprintf("A%d", i+1), kv[0])
		f.SetCellValue(SheetLines, fmt.Sprintf("B%d", i+1), kv[1])
	}
	f.SetCellValue(SheetLines, "A4", "Comensales")
	f.SetCellValue(SheetLines, "B4", list.Headcount)

	const headerRow = 6
	if err := writeHeader(f, SheetLines, headerRow, lineHeaders, lineWidths, headerStyle); err != nil {
		return err
	}

	row := headerRow + 1
	for _, s := range list.Sections {
		for _, r := range s.Recipes {
			for _, line := range r.Lines {
				total, _ := line.Total.Float64()
				values := []any{s.Label, r.Name, line.FoodName, line.PerPortion, line.Unit, total}
				for col, v := range values {
					cell, _ := excelize.CoordinatesToCellName(col+1, row)
					f.SetCellValue(SheetLines, cell, v)
				}
				from, _ := excelize.CoordinatesToCellName(4, row)
				to, _ := excelize.CoordinatesToCellName(6, row)
				f.SetCellStyle(SheetLines, from, to, numberStyle)
				row++
			}
		}
	}

	if err := writeHeader(f, SheetTotals, 1, totalHeaders, totalWidths, headerStyle); err != nil {
		return err
	}
	for i, t := range list.Totals() {
		total, _ := t.Total.Float64()
		values := []any{t.FoodName, t.Text(), t.Unit, total, t.Recipes}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(SheetTotals, cell, v)
		}
		cell, _ := excelize.CoordinatesToCellName(4, i+2)
		f.SetCellStyle(SheetTotals, cell, cell, numberStyle)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, row int, headers []string, widths []float64, style int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to resolve header cell: %w", err)
		}
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, style)
	}
	for col, width := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to resolve column: %w", err)
		}
		f.SetColWidth(sheet, name, name, width)
	}
	return nil
}
