package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nutriplan/nutriplan/internal/models"
)

// Fold lower-cases s and strips diacritics, so "Azúcar" matches "azucar".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Filter keeps the items where any field returned by fields contains query,
// ignoring case and diacritics. An empty query keeps everything.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	q := Fold(strings.TrimSpace(query))
	if q == "" {
		return items
	}

	var out []T
	for _, it := range items {
		for _, f := range fields(it) {
			if strings.Contains(Fold(f), q) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Page returns the slice of items shown on p.
func Page[T any](items []T, p models.Pagination) []T {
	start := p.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + p.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// WithoutDeleted drops soft-deleted items.
func WithoutDeleted[T any](items []T, status func(T) models.Status) []T {
	var out []T
	for _, it := range items {
		if status(it) != models.StatusDeleted {
			out = append(out, it)
		}
	}
	return out
}
