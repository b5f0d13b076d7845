package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/util"
)

// timestampLayout is fixed-width so created_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// ExportRepository records generated report files.
type ExportRepository struct {
	db *sql.DB
}

// NewExportRepository creates a new export history repository.
func NewExportRepository(db *sql.DB) *ExportRepository {
	return &ExportRepository{db: db}
}

// Record inserts an export entry, assigning its ID and timestamp when unset.
func (r *ExportRepository) Record(ctx context.Context, rec *models.ExportRecord) error {
	if rec.FileName == "" || rec.Path == "" {
		return fmt.Errorf("export record needs a file name and path")
	}
	if rec.ID == "" {
		rec.ID = util.NewID()
	} else {
		id, err := util.ParseID(rec.ID)
		if err != nil {
			return err
		}
		rec.ID = id
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO export_history (id, kind, file_name, path, branch_id, subject, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		string(rec.Kind),
		rec.FileName,
		rec.Path,
		nullableInt(rec.BranchID),
		nullableString(rec.Subject),
		rec.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting export record: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *ExportRepository) Recent(ctx context.Context, limit int) ([]*models.ExportRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, kind, file_name, path, branch_id, subject, created_at
		FROM export_history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying export history: %w", err)
	}
	defer rows.Close()

	var records []*models.ExportRecord
	for rows.Next() {
		rec, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of recorded exports.
func (r *ExportRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM export_history").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting export history: %w", err)
	}
	return n, nil
}

func scanExport(rows *sql.Rows) (*models.ExportRecord, error) {
	var rec models.ExportRecord
	var kind, created string
	var branch sql.NullInt64
	var subject sql.NullString

	if err := rows.Scan(&rec.ID, &kind, &rec.FileName, &rec.Path, &branch, &subject, &created); err != nil {
		return nil, fmt.Errorf("scanning export record: %w", err)
	}

	rec.Kind = models.ExportKind(kind)
	rec.BranchID = branch.Int64
	rec.Subject = subject.String

	t, err := time.Parse(timestampLayout, created)
	if err != nil {
		return nil, fmt.Errorf("parsing export timestamp: %w", err)
	}
	rec.CreatedAt = t
	return &rec, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableInt(n int64) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}
