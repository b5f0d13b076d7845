package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// RecoveryResult indicates the outcome of a recovery attempt.
type RecoveryResult int

const (
	// RecoveryHealthy means the store was missing or passed its integrity check.
	RecoveryHealthy RecoveryResult = iota
	// RecoveryWALReplayed means a WAL checkpoint repaired the store.
	RecoveryWALReplayed
	// RecoveryReset means the store was moved aside and will be recreated.
	RecoveryReset
)

func (r RecoveryResult) String() string {
	switch r {
	case RecoveryHealthy:
		return "healthy"
	case RecoveryWALReplayed:
		return "wal_replayed"
	case RecoveryReset:
		return "reset"
	default:
		return "unknown"
	}
}

// RecoveryReport describes what EnsureHealthy did.
type RecoveryReport struct {
	Result    RecoveryResult
	Path      string
	MovedTo   string
	Integrity string
}

// EnsureHealthy verifies the local store before it is opened. Everything in
// it can be fetched again from the backend, so a store that fails its
// integrity check after a WAL replay is moved aside rather than restored;
// the user simply logs in again.
func EnsureHealthy(dbPath string) (*RecoveryReport, error) {
	report := &RecoveryReport{Path: dbPath}

	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		report.Result = RecoveryHealthy
		return report, nil
	}

	msg, err := checkFileIntegrity(dbPath)
	if err == nil {
		report.Result = RecoveryHealthy
		report.Integrity = msg
		return report, nil
	}
	slog.Warn("local store integrity check failed", "path", dbPath, "error", err)

	if _, statErr := os.Stat(dbPath + "-wal"); statErr == nil {
		if walErr := replayWAL(dbPath); walErr == nil {
			if msg, err = checkFileIntegrity(dbPath); err == nil {
				report.Result = RecoveryWALReplayed
				report.Integrity = msg
				return report, nil
			}
		}
	}

	moved := dbPath + ".corrupted." + time.Now().Format("20060102-150405")
	if err := os.Rename(dbPath, moved); err != nil {
		return report, fmt.Errorf("moving corrupt store aside: %w", err)
	}
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")

	report.Result = RecoveryReset
	report.MovedTo = moved
	slog.Warn("local store reset", "path", dbPath, "moved_to", moved)

	return report, nil
}

func checkFileIntegrity(dbPath string) (string, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := integrityCheck(ctx, db); err != nil {
		return "", err
	}
	return "ok", nil
}

func replayWAL(dbPath string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_txlock=immediate", dbPath))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(RESTART)"); err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}
	return nil
}

func integrityCheck(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return fmt.Errorf("running integrity check: %w", err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			return fmt.Errorf("scanning result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating results: %w", err)
	}

	if len(results) == 1 && results[0] == "ok" {
		return nil
	}

	return fmt.Errorf("integrity check failed: %s", strings.Join(results, "; "))
}
