// Package util provides small helpers shared across NutriPlan.
package util

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID generates a time-ordered UUIDv7 identifier for local records.
// UUIDv7 keeps export history rows in insertion order on the primary key.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// NewRequestID generates the correlation id sent as X-Request-ID.
func NewRequestID() string {
	return uuid.New().String()
}

// ParseID validates and normalises a UUID string.
func ParseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid ID format: %w", err)
	}
	return id.String(), nil
}
