// Package exports writes report files and records them in the local
// export history.
package exports

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/report"
	"github.com/nutriplan/nutriplan/internal/services/shopping"
	"github.com/nutriplan/nutriplan/internal/util"
)

// History stores export records.
type History interface {
	Record(ctx context.Context, rec *models.ExportRecord) error
	Recent(ctx context.Context, limit int) ([]*models.ExportRecord, error)
}

// Exporter renders reports into a directory.
type Exporter struct {
	dir     string
	program string
	author  string
	clock   util.Clock
	history History
}

// New creates an exporter writing into dir.
func New(dir, program, author string, clock util.Clock, history History) *Exporter {
	if clock == nil {
		clock = util.SystemClock{}
	}
	return &Exporter{dir: dir, program: program, author: author, clock: clock, history: history}
}

// Dir returns the output directory.
func (e *Exporter) Dir() string {
	return e.dir
}

func (e *Exporter) meta() report.Meta {
	return report.Meta{Program: e.program, Author: e.author, Generated: e.clock.Now()}
}

// Nutrition writes the nutrition report of a recipe, menu or day.
func (e *Exporter) Nutrition(ctx context.Context, fileName string, branchID int64, doc report.NutritionDoc) (*models.ExportRecord, error) {
	return e.export(ctx, models.ExportNutrition, fileName, doc.Title, branchID, func(w io.Writer) error {
		return report.NutritionPDF(w, doc, e.meta())
	})
}

// ShoppingList writes the single-day purchase list PDF.
func (e *Exporter) ShoppingList(ctx context.Context, list *shopping.List) (*models.ExportRecord, error) {
	subject := fmt.Sprintf("%s (%d comensales)", list.Date, list.Headcount)
	return e.export(ctx, models.ExportShoppingList, report.ShoppingListFileName(list.Date), subject, list.Branch.ID, func(w io.Writer) error {
		return report.ShoppingListPDF(w, list, e.meta())
	})
}

// Spreadsheet writes the purchase list workbook.
func (e *Exporter) Spreadsheet(ctx context.Context, list *shopping.List) (*models.ExportRecord, error) {
	return e.export(ctx, models.ExportSpreadsheet, report.SpreadsheetFileName(list.Date), list.Date, list.Branch.ID, func(w io.Writer) error {
		return report.ShoppingListXLSX(w, list)
	})
}

// Weekly writes the weekly plan of the week starting on monday.
func (e *Exporter) Weekly(ctx context.Context, monday string, branchID int64, doc report.WeeklyDoc) (*models.ExportRecord, error) {
	return e.export(ctx, models.ExportWeekly, report.WeeklyFileName(monday), "Semana "+monday, branchID, func(w io.Writer) error {
		return report.WeeklyPDF(w, doc, e.meta())
	})
}

// Recent lists the latest exports.
func (e *Exporter) Recent(ctx context.Context, limit int) ([]*models.ExportRecord, error) {
	if e.history == nil {
		return nil, nil
	}
	return e.history.Recent(ctx, limit)
}

func (e *Exporter) export(ctx context.Context, kind models.ExportKind, name, subject string, branchID int64, write func(io.Writer) error) (*models.ExportRecord, error) {
	path, err := report.Save(e.dir, name, write)
	if err != nil {
		return nil, fmt.Errorf("exporting %s: %w", name, err)
	}

	rec := &models.ExportRecord{
		Kind:      kind,
		FileName:  name,
		Path:      path,
		BranchID:  branchID,
		Subject:   subject,
		CreatedAt: e.clock.Now(),
	}
	if e.history != nil {
		// The file is already on disk; a history failure is only logged.
		if err := e.history.Record(ctx, rec); err != nil {
			slog.Warn("recording export failed", "file", name, "error", err)
		}
	}
	slog.Info("report exported", "kind", kind, "path", path)
	return rec, nil
}
