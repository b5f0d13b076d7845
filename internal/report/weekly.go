package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/nutriplan/nutriplan/internal/services/planner"
)

// WeeklyDoc is the content of the weekly plan report.
type WeeklyDoc struct {
	Program string
	Branch  string
	Cells   []planner.Cell
}

// WeeklyPDF writes one block per day with its assignments by meal slot.
func WeeklyPDF(w io.Writer, doc WeeklyDoc, meta Meta) error {
	if len(doc.Cells) == 0 {
		return errors.New("weekly report has no days")
	}
	first := doc.Cells[0].Day.Date
	last := doc.Cells[len(doc.Cells)-1].Day.Date

	pdf, tr := newDocument("Reporte semanal "+doc.Cells[0].Day.Key, meta)
	pdf.SetMargins(15, 18, 15)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetFooterFunc(footer(pdf, tr, meta))
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	title := "Reporte semanal"
	if doc.Program != "" {
		title = doc.Program + " - " + title
	}
	pdf.MultiCell(0, 8, tr(title), "", "L", false)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("Sucursal: "+doc.Branch), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Semana del %s al %s",
		first.Format("02/01/2006"), last.Format("02/01/2006"))), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, cell := range doc.Cells {
		heading(pdf, tr, spanishDate(cell.Day.Date))
		if cell.Empty() {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.CellFormat(0, 6, tr("Sin menús asignados"), "", 1, "L", false, 0, "")
			pdf.Ln(2)
			continue
		}

		for _, g := range cell.Groups.Slots {
			if len(g.Assignments) == 0 {
				continue
			}
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(35, 6, tr(g.Label), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			for i, a := range g.Assignments {
				if i > 0 {
					pdf.CellFormat(35, 6, "", "", 0, "L", false, 0, "")
				}
				pdf.CellFormat(110, 6, tr(a.MenuName), "", 0, "L", false, 0, "")
				pdf.CellFormat(0, 6, tr(strconv.Itoa(a.Headcount)+" comensales"), "", 1, "R", false, 0, "")
			}
		}
		for _, a := range cell.Groups.Unrecognized {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.SetTextColor(160, 60, 40)
			pdf.CellFormat(35, 6, tr(a.Slot.Label()), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, tr(a.MenuName), "", 1, "L", false, 0, "")
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.Ln(2)
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("building weekly report: %w", err)
	}
	return pdf.Output(w)
}
