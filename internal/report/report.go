// Package report renders nutrition, shopping and weekly reports as PDF and
// the shopping list as a spreadsheet.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Meta is stamped on every generated document.
type Meta struct {
	Program   string
	Author    string
	Generated time.Time
}

// File names of the generated reports.

// NutritionFileName is the report name of a recipe or menu.
func NutritionFileName(entity string) string {
	return sanitize(entity) + "-nutricional.pdf"
}

// DailyNutritionFileName is the report name of a day aggregate.
func DailyNutritionFileName(date string) string {
	return "reporte-nutricional-" + date + ".pdf"
}

// ShoppingListFileName is the single-day purchase list.
func ShoppingListFileName(date string) string {
	return "Menu - " + date + ".pdf"
}

// WeeklyFileName is the weekly plan, keyed by its Monday.
func WeeklyFileName(monday string) string {
	return "Reporte_Semanal_" + monday + ".pdf"
}

// SpreadsheetFileName is the purchase list workbook.
func SpreadsheetFileName(date string) string {
	return "Lista_Compras_" + date + ".xlsx"
}

// sanitize removes path separators and characters file systems reject.
func sanitize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, name)
	if name == "" {
		return "reporte"
	}
	return name
}

// Save writes a report into dir through write and returns the final path.
// The file appears only once it has been written completely.
func Save(dir, name string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("moving report into place: %w", err)
	}
	return path, nil
}

// newDocument creates an A4 portrait document with the shared metadata.
func newDocument(title string, meta Meta) (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetCreator(meta.Program, true)
	if !meta.Generated.IsZero() {
		pdf.SetCreationDate(meta.Generated)
	}
	return pdf, tr
}

// footer numbers the pages and stamps the generation time.
func footer(pdf *fpdf.Fpdf, tr func(string) string, meta Meta) func() {
	return func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		left := meta.Program
		if !meta.Generated.IsZero() {
			left += "  ·  " + meta.Generated.Format("02/01/2006 15:04")
		}
		pdf.CellFormat(120, 5, tr(left), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, tr("Página "+strconv.Itoa(pdf.PageNo())), "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
}

// hexRGB parses "#RRGGBB".
func hexRGB(hex string) (int, int, int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}

// spanishDate formats t as "Lunes 04/03/2024".
func spanishDate(t time.Time) string {
	return dayNames[t.Weekday()] + " " + t.Format("02/01/2006")
}

var dayNames = [...]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"}
