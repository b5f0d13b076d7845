package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	markUp   = "-- +migrate Up"
	markDown = "-- +migrate Down"
)

var stepName = regexp.MustCompile(`^(\d{3})_(\w+)\.sql$`)

// Step is one versioned change to the local store schema.
type Step struct {
	Version int
	Name    string
	Up      []string
	Down    []string
}

// Migrator brings the local store schema to the embedded version and can
// wipe it back to empty.
type Migrator struct {
	db    *DB
	steps []Step
}

// NewMigrator loads the embedded steps and makes sure the version table
// exists.
func NewMigrator(db *DB) (*Migrator, error) {
	steps, err := loadSteps(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	)`); err != nil {
		return nil, fmt.Errorf("creating migrations table: %w", err)
	}
	return &Migrator{db: db, steps: steps}, nil
}

func loadSteps(fsys fs.FS, dir string) ([]Step, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	var steps []Step
	for _, e := range entries {
		m := stepName.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			slog.Warn("ignoring migration file", "name", e.Name())
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		version, _ := strconv.Atoi(m[1])
		up, down := splitSections(string(raw))
		steps = append(steps, Step{
			Version: version,
			Name:    strings.ReplaceAll(m[2], "_", " "),
			Up:      splitStatements(up),
			Down:    splitStatements(down),
		})
	}
	slices.SortFunc(steps, func(a, b Step) int { return a.Version - b.Version })
	return steps, nil
}

// splitSections separates the Up and Down halves of a step file. A file
// without markers is all Up.
func splitSections(content string) (up, down string) {
	u := strings.Index(content, markUp)
	d := strings.Index(content, markDown)
	switch {
	case u < 0:
		return strings.TrimSpace(content), ""
	case d < 0:
		return strings.TrimSpace(content[u+len(markUp):]), ""
	case u < d:
		return strings.TrimSpace(content[u+len(markUp) : d]), strings.TrimSpace(content[d+len(markDown):])
	default:
		return strings.TrimSpace(content[u+len(markUp):]), strings.TrimSpace(content[d+len(markDown) : u])
	}
}

// Version is the highest applied step, 0 for an empty store.
func (m *Migrator) Version(ctx context.Context) (int, error) {
	var v int
	if err := m.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// Up applies every step above the current version, each in its own
// transaction, and returns the steps it applied.
func (m *Migrator) Up(ctx context.Context) ([]Step, error) {
	current, err := m.Version(ctx)
	if err != nil {
		return nil, err
	}
	var applied []Step
	for _, s := range m.steps {
		if s.Version <= current {
			continue
		}
		slog.Info("applying migration", "version", s.Version, "name", s.Name)
		err := m.db.WithTransaction(ctx, func(tx *sql.Tx) error {
			if err := execAll(ctx, tx, s.Up); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", s.Version, s.Name)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("migration %d (%s): %w", s.Version, s.Name, err)
		}
		applied = append(applied, s)
	}
	if len(applied) == 0 {
		slog.Debug("local store is up to date", "version", current)
	}
	return applied, nil
}

// Reset rolls every applied step back, newest first, and then applies
// them again. The session and export history are lost; everything else
// lives on the backend.
func (m *Migrator) Reset(ctx context.Context) error {
	current, err := m.Version(ctx)
	if err != nil {
		return err
	}
	for i := len(m.steps) - 1; i >= 0; i-- {
		s := m.steps[i]
		if s.Version > current {
			continue
		}
		if len(s.Down) == 0 {
			return fmt.Errorf("migration %d (%s) cannot be rolled back", s.Version, s.Name)
		}
		slog.Info("rolling back migration", "version", s.Version, "name", s.Name)
		err := m.db.WithTransaction(ctx, func(tx *sql.Tx) error {
			if err := execAll(ctx, tx, s.Down); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = ?", s.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("rolling back %d (%s): %w", s.Version, s.Name, err)
		}
	}
	_, err = m.Up(ctx)
	return err
}

func execAll(ctx context.Context, tx *sql.Tx, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w\nSQL: %s", err, stmt)
		}
	}
	return nil
}

// splitStatements cuts SQL on semicolons outside quoted text.
func splitStatements(src string) []string {
	var (
		out   []string
		b     strings.Builder
		quote rune
	)
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}
	for _, ch := range src {
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == ';':
			flush()
			continue
		}
		b.WriteRune(ch)
	}
	flush()
	return out
}
