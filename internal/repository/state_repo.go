// Package repository persists the little state NutriPlan keeps locally.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a key or record does not exist.
var ErrNotFound = errors.New("not found")

// StateRepository is a key-value store over the local_state table.
type StateRepository struct {
	db *sql.DB
}

// NewStateRepository creates a new state repository.
func NewStateRepository(db *sql.DB) *StateRepository {
	return &StateRepository{db: db}
}

// Get returns the value stored under key.
func (r *StateRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM local_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("state key %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("reading state key %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *StateRepository) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := r.db.ExecContext(ctx, query, key, value, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("writing state key %q: %w", key, err)
	}
	return nil
}

// SetMany stores several keys in one transaction.
func (r *StateRepository) SetMany(ctx context.Context, values map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	for k, v := range values {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO local_state (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			k, v, now)
		if err != nil {
			return fmt.Errorf("writing state key %q: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing state: %w", err)
	}
	return nil
}

// DeleteKeys removes every listed key. Missing keys are ignored.
func (r *StateRepository) DeleteKeys(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	query := "DELETE FROM local_state WHERE key IN (" + placeholders + ")"
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting state keys: %w", err)
	}
	return nil
}

// Keys lists the stored keys in order.
func (r *StateRepository) Keys(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key FROM local_state ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("listing state keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning state key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}
