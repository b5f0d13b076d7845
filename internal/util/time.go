package util

import (
	"fmt"
	"time"
)

const (
	// DateKeyFormat is the yyyy-MM-dd key used for every date on the wire.
	DateKeyFormat = "2006-01-02"

	// DateTimeFormat is used for local timestamps.
	DateTimeFormat = "2006-01-02 15:04:05"
)

// Clock abstracts the wall clock so views and reports can be tested.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.T }

// DateKey formats t as a yyyy-MM-dd key.
func DateKey(t time.Time) string {
	return t.Format(DateKeyFormat)
}

// ParseDateKey parses a yyyy-MM-dd key in the local zone.
func ParseDateKey(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateKeyFormat, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// FormatDateTime formats a time as a datetime string.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeFormat)
}

// StartOfDay returns midnight of the given day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddDays moves t by n calendar days, keeping it at midnight across DST.
func AddDays(t time.Time, n int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()+n, 0, 0, 0, 0, t.Location())
}

// RelativeTimeString returns a short Spanish description of how long ago t was.
func RelativeTimeString(t time.Time, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		return "ahora"
	}

	switch {
	case diff < time.Minute:
		return "hace un momento"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "hace 1 minuto"
		}
		return fmt.Sprintf("hace %d minutos", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "hace 1 hora"
		}
		return fmt.Sprintf("hace %d horas", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "ayer"
		}
		return fmt.Sprintf("hace %d días", days)
	default:
		return FormatDateTime(t)
	}
}
