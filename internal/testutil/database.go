// Package testutil provides utilities for testing.
package testutil

import (
	"fmt"
	"testing"

	"github.com/nutriplan/nutriplan/internal/database"
)

// TestDB wraps a migrated test database connection.
type TestDB struct {
	*database.DB
}

// NewTestDB creates a new migrated in-memory SQLite database for testing.
// The database is closed when the test ends.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := database.NewInMemory()
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &TestDB{DB: db}
}

// Truncate removes all data from specified tables while maintaining schema.
func (tdb *TestDB) Truncate(t *testing.T, tables ...string) {
	t.Helper()

	for _, table := range tables {
		if _, err := tdb.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Fatalf("failed to truncate table %s: %v", table, err)
		}
	}
}

// AssertRowCount asserts the row count for a table.
func (tdb *TestDB) AssertRowCount(t *testing.T, table string, expected int) {
	t.Helper()

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if err := tdb.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}

	if count != expected {
		t.Errorf("expected %d rows in %s, got %d", expected, table, count)
	}
}

// ExecSQL executes arbitrary SQL (useful for test setup).
func (tdb *TestDB) ExecSQL(t *testing.T, sql string, args ...any) {
	t.Helper()

	if _, err := tdb.Exec(sql, args...); err != nil {
		t.Fatalf("failed to execute SQL: %v\nSQL: %s", err, sql)
	}
}
