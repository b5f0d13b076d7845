package exports

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/report"
	"github.com/nutriplan/nutriplan/internal/repository"
	"github.com/nutriplan/nutriplan/internal/services/nutrition"
	"github.com/nutriplan/nutriplan/internal/services/shopping"
	"github.com/nutriplan/nutriplan/internal/testutil"
	"github.com/nutriplan/nutriplan/internal/util"
)

var exportTime = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func newExporter(t *testing.T) (*Exporter, *repository.ExportRepository, string) {
	t.Helper()
	db := testutil.NewTestDB(t)
	repo := repository.NewExportRepository(db.DB.DB)
	dir := t.TempDir()
	return New(dir, "Comedor", "nutricionista", util.FixedClock{T: exportTime}, repo), repo, dir
}

func testList(t *testing.T) *shopping.List {
	t.Helper()
	list, err := shopping.Build(shopping.Input{
		Date:   "2024-03-04",
		Branch: models.Branch{ID: 1, Name: "Centro"},
	}, []models.AssignmentDetail{testutil.FixtureAssignmentDetail()})
	if err != nil {
		t.Fatal(err)
	}
	return list
}

func TestExporter_ShoppingListRecordsHistory(t *testing.T) {
	exp, repo, dir := newExporter(t)
	ctx := context.Background()

	rec, err := exp.ShoppingList(ctx, testList(t))
	if err != nil {
		t.Fatalf("ShoppingList() error: %v", err)
	}
	if rec.Path != filepath.Join(dir, "Menu - 2024-03-04.pdf") {
		t.Errorf("path = %s", rec.Path)
	}
	if _, err := os.Stat(rec.Path); err != nil {
		t.Errorf("report not written: %v", err)
	}

	recent, err := repo.Recent(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 {
		t.Fatalf("history has %d entries, want 1", len(recent))
	}
	got := recent[0]
	if got.Kind != models.ExportShoppingList || got.BranchID != 1 || got.Subject != "2024-03-04 (50 comensales)" {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.CreatedAt.Equal(exportTime) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, exportTime)
	}
}

func TestExporter_AllKinds(t *testing.T) {
	exp, _, _ := newExporter(t)
	ctx := context.Background()
	list := testList(t)
	recipe := testutil.FixtureRecipe()

	doc := report.NutritionDoc{
		Title:     recipe.Name,
		Breakdown: nutrition.Compute(recipe.Totals),
		Sections:  nutrition.Sections(recipe.Totals),
	}
	if _, err := exp.Nutrition(ctx, report.NutritionFileName(recipe.Name), 1, doc); err != nil {
		t.Errorf("Nutrition() error: %v", err)
	}
	if _, err := exp.Spreadsheet(ctx, list); err != nil {
		t.Errorf("Spreadsheet() error: %v", err)
	}

	recent, err := exp.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Errorf("Recent() = %d entries, want 2", len(recent))
	}
}

type failingHistory struct{}

func (failingHistory) Record(context.Context, *models.ExportRecord) error {
	return errors.New("disk full")
}

func (failingHistory) Recent(context.Context, int) ([]*models.ExportRecord, error) {
	return nil, nil
}

func TestExporter_HistoryFailureKeepsFile(t *testing.T) {
	dir := t.TempDir()
	exp := New(dir, "Comedor", "", util.FixedClock{T: exportTime}, failingHistory{})

	rec, err := exp.Spreadsheet(context.Background(), testList(t))
	if err != nil {
		t.Fatalf("Spreadsheet() error: %v", err)
	}
	if _, err := os.Stat(rec.Path); err != nil {
		t.Errorf("workbook should exist: %v", err)
	}
}
