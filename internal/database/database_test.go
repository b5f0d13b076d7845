package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	migrator, err := NewMigrator(db)
	if err != nil {
		t.Fatalf("NewMigrator() error: %v", err)
	}

	ctx := context.Background()
	applied, err := migrator.Up(ctx)
	if err != nil {
		t.Fatalf("Up() error: %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("applied %d migrations, want 2", len(applied))
	}

	// Second run is a no-op.
	applied, err = migrator.Up(ctx)
	if err != nil {
		t.Fatalf("second Up() error: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("expected no pending migrations, applied %d", len(applied))
	}

	for _, table := range []string{"local_state", "export_history"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrator_ResetWipesLocalData(t *testing.T) {
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory() error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "INSERT INTO local_state (key, value) VALUES ('token', 'abc')"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(ctx,
		"INSERT INTO export_history (id, kind, file_name, path, created_at) VALUES ('x', 'WEEKLY', 'a.pdf', '/tmp/a.pdf', '2024-03-04')",
	); err != nil {
		t.Fatal(err)
	}

	migrator, err := NewMigrator(db)
	if err != nil {
		t.Fatal(err)
	}
	if err := migrator.Reset(ctx); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}

	version, err := migrator.Version(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if version != 2 {
		t.Errorf("version after reset = %d, want 2", version)
	}
	for _, table := range []string{"local_state", "export_history"} {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			t.Fatalf("counting %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s has %d rows after reset", table, n)
		}
	}
}

func TestMigrator_ResetRefusesIrreversibleStep(t *testing.T) {
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory() error: %v", err)
	}
	defer db.Close()

	migrator, err := NewMigrator(db)
	if err != nil {
		t.Fatal(err)
	}
	migrator.steps[1].Down = nil

	err = migrator.Reset(context.Background())
	if err == nil || !strings.Contains(err.Error(), "cannot be rolled back") {
		t.Fatalf("Reset() error = %v, want irreversible step", err)
	}
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db, err := NewInMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	wantErr := os.ErrInvalid
	err = db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO local_state (key, value) VALUES ('token', 'abc')"); err != nil {
			return err
		}
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected rollback error to pass through, got %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM local_state").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("expected rolled back insert, found %d rows", count)
	}
}

func TestHealthCheck_Closed(t *testing.T) {
	db, err := NewInMemory()
	if err != nil {
		t.Fatal(err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck() on open db: %v", err)
	}
	db.Close()
	if err := db.HealthCheck(context.Background()); err == nil {
		t.Error("expected error from closed db")
	}
}

func TestEnsureHealthy(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		report, err := EnsureHealthy(filepath.Join(t.TempDir(), "absent.db"))
		if err != nil {
			t.Fatal(err)
		}
		if report.Result != RecoveryHealthy {
			t.Errorf("Result = %s, want healthy", report.Result)
		}
	})

	t.Run("healthy file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.db")
		db, err := Open(path)
		if err != nil {
			t.Fatal(err)
		}
		db.Close()

		report, err := EnsureHealthy(path)
		if err != nil {
			t.Fatal(err)
		}
		if report.Result != RecoveryHealthy {
			t.Errorf("Result = %s, want healthy", report.Result)
		}
	})

	t.Run("corrupt file is moved aside", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.db")
		garbage := make([]byte, 8192)
		copy(garbage, "SQLite format 3\x00")
		for i := 100; i < len(garbage); i++ {
			garbage[i] = 0xAB
		}
		if err := os.WriteFile(path, garbage, 0600); err != nil {
			t.Fatal(err)
		}

		report, err := EnsureHealthy(path)
		if err != nil {
			t.Fatalf("EnsureHealthy() error: %v", err)
		}
		if report.Result != RecoveryReset {
			t.Fatalf("Result = %s, want reset", report.Result)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("expected corrupt store to be moved away")
		}
		if _, err := os.Stat(report.MovedTo); err != nil {
			t.Errorf("expected moved copy at %s: %v", report.MovedTo, err)
		}
	})
}

func TestSplitSections(t *testing.T) {
	up, down := splitSections("-- +migrate Up\nCREATE TABLE a (x);\n-- +migrate Down\nDROP TABLE a;")
	if up != "CREATE TABLE a (x);" {
		t.Errorf("up = %q", up)
	}
	if down != "DROP TABLE a;" {
		t.Errorf("down = %q", down)
	}

	up, down = splitSections("CREATE TABLE b (y);")
	if up != "CREATE TABLE b (y);" || down != "" {
		t.Errorf("unmarked file: up = %q, down = %q", up, down)
	}
}

func TestSplitStatements_KeepsQuotedSemicolons(t *testing.T) {
	got := splitStatements("INSERT INTO t VALUES ('a;b'); DELETE FROM t;\n")
	want := []string{"INSERT INTO t VALUES ('a;b')", "DELETE FROM t"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("statement %d = %q, want %q", i, got[i], want[i])
		}
	}
}
