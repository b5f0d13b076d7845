package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/services/nutrition"
)

// Field is a labelled value in a report header.
type Field struct {
	Label string
	Value string
}

// NutritionDoc is the content of a nutrition report.
type NutritionDoc struct {
	Title     string
	Fields    []Field
	Breakdown nutrition.Breakdown
	Sections  []nutrition.Section
}

// NewNutritionDoc derives the breakdown and detail sections of totals.
func NewNutritionDoc(title string, totals models.NutrientTotals, fields ...Field) NutritionDoc {
	return NutritionDoc{
		Title:     title,
		Fields:    fields,
		Breakdown: nutrition.Compute(totals),
		Sections:  nutrition.Sections(totals),
	}
}

const (
	pieRadius = 28.0
	pieStep   = 2.0 // degrees per arc segment
)

// NutritionPDF writes doc as a flowing A4 report. Page breaks are left to
// the layout engine.
func NutritionPDF(w io.Writer, doc NutritionDoc, meta Meta) error {
	pdf, tr := newDocument(doc.Title, meta)
	pdf.SetMargins(15, 18, 15)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetFooterFunc(footer(pdf, tr, meta))
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(doc.Title), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	for _, f := range doc.Fields {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, tr(f.Label+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, tr(f.Value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	heading(pdf, tr, "Distribución energética")
	if doc.Breakdown.Empty() {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 6, tr("Sin datos de macronutrientes."), "", 1, "L", false, 0, "")
	} else {
		ensureSpace(pdf, 2*pieRadius+8)
		top := pdf.GetY()
		cx, cy := 15+pieRadius, top+pieRadius+2
		drawPie(pdf, cx, cy, doc.Breakdown)
		pdf.SetY(top)
		macroTable(pdf, tr, doc.Breakdown, 15+2*pieRadius+10)
		if y := cy + pieRadius + 4; pdf.GetY() < y {
			pdf.SetY(y)
		}
	}
	pdf.Ln(2)

	for _, s := range doc.Sections {
		heading(pdf, tr, s.Name)
		pdf.SetFont("Helvetica", "", 10)
		for i, e := range s.Entries {
			fill := i%2 == 0
			pdf.SetFillColor(245, 247, 250)
			pdf.CellFormat(110, 6, tr(e.Label), "", 0, "L", fill, 0, "")
			pdf.CellFormat(0, 6, tr(e.Text()), "", 1, "R", fill, 0, "")
		}
		pdf.Ln(3)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("building nutrition report: %w", err)
	}
	return pdf.Output(w)
}

func heading(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	ensureSpace(pdf, 16)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(30, 70, 120)
	pdf.CellFormat(0, 8, tr(text), "B", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(1)
}

// ensureSpace starts a new page when fewer than h millimetres remain.
func ensureSpace(pdf *fpdf.Fpdf, h float64) {
	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+h > pageH-bottom-6 {
		pdf.AddPage()
	}
}

func drawPie(pdf *fpdf.Fpdf, cx, cy float64, b nutrition.Breakdown) {
	var sum float64
	for _, s := range b.Slices {
		sum += s.Kcal
	}
	if sum <= 0 {
		return
	}

	start := -90.0
	for _, s := range b.Slices {
		if s.Kcal <= 0 {
			continue
		}
		sweep := s.Kcal / sum * 360
		points := []fpdf.PointType{{X: cx, Y: cy}}
		for a := start; a < start+sweep; a += pieStep {
			points = append(points, arcPoint(cx, cy, a))
		}
		points = append(points, arcPoint(cx, cy, start+sweep))

		r, g, bl := hexRGB(s.Color)
		pdf.SetFillColor(r, g, bl)
		pdf.SetDrawColor(255, 255, 255)
		pdf.Polygon(points, "FD")
		start += sweep
	}
	pdf.SetDrawColor(0, 0, 0)
}

func arcPoint(cx, cy, deg float64) fpdf.PointType {
	rad := deg * math.Pi / 180
	return fpdf.PointType{X: cx + pieRadius*math.Cos(rad), Y: cy + pieRadius*math.Sin(rad)}
}

func macroTable(pdf *fpdf.Fpdf, tr func(string) string, b nutrition.Breakdown, x float64) {
	cols := []struct {
		title string
		width float64
		align string
	}{
		{"", 6, "C"},
		{"Macronutriente", 32, "L"},
		{"Gramos", 20, "R"},
		{"Kcal", 20, "R"},
		{"%", 18, "R"},
	}

	pdf.SetX(x)
	pdf.SetFont("Helvetica", "B", 9)
	for _, c := range cols {
		pdf.CellFormat(c.width, 7, tr(c.title), "B", 0, c.align, false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, s := range b.Slices {
		pdf.SetX(x)
		r, g, bl := hexRGB(s.Color)
		pdf.SetFillColor(r, g, bl)
		pdf.CellFormat(cols[0].width, 6, "", "", 0, "C", true, 0, "")
		pdf.CellFormat(cols[1].width, 6, tr(" "+s.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(cols[2].width, 6, s.GramsText(), "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[3].width, 6, s.KcalText(), "", 0, "R", false, 0, "")
		pdf.CellFormat(cols[4].width, 6, s.Percent, "", 1, "R", false, 0, "")
	}

	pdf.SetX(x)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(cols[0].width+cols[1].width+cols[2].width, 7, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(cols[3].width, 7, b.TotalKcalText(), "T", 0, "R", false, 0, "")
	pdf.CellFormat(cols[4].width, 7, "", "T", 1, "R", false, 0, "")

	if b.IronMg > 0 {
		pdf.SetX(x)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Hierro total: %.2f mg", b.IronMg)), "", 1, "L", false, 0, "")
	}
}
