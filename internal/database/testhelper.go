package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// NewInMemory creates a migrated in-memory database for tests.
func NewInMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	db := &DB{DB: sqlDB, path: ":memory:"}

	migrator, err := NewMigrator(db)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	if _, err := migrator.Up(context.Background()); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating in-memory database: %w", err)
	}

	return db, nil
}
