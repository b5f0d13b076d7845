// Package planner builds the calendar grids of the menu planner and maps
// assignments onto them.
package planner

import (
	"time"

	"github.com/nutriplan/nutriplan/internal/util"
)

// MonthCells is the fixed size of a month grid: six weeks.
const MonthCells = 42

// Day is one cell of a calendar grid.
type Day struct {
	Date    time.Time
	Key     string
	InMonth bool
}

// MonthGrid returns the 42 days shown for the month containing ref,
// starting on the Sunday on or before the first of the month.
func MonthGrid(ref time.Time) []Day {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	start := util.AddDays(first, -int(first.Weekday()))

	days := make([]Day, MonthCells)
	for i := range days {
		d := util.AddDays(start, i)
		days[i] = Day{Date: d, Key: util.DateKey(d), InMonth: d.Month() == ref.Month()}
	}
	return days
}

// WeekStart returns the Monday of the week containing ref. Sunday belongs
// to the week that started six days earlier.
func WeekStart(ref time.Time) time.Time {
	offset := (int(ref.Weekday()) + 6) % 7
	return util.AddDays(ref, -offset)
}

// WeekGrid returns the seven days of the week containing ref, Monday first.
func WeekGrid(ref time.Time) []Day {
	start := WeekStart(ref)
	days := make([]Day, 7)
	for i := range days {
		d := util.AddDays(start, i)
		days[i] = Day{Date: d, Key: util.DateKey(d), InMonth: true}
	}
	return days
}

// Selection is the day targeted by single-day exports. It is pure UI state.
type Selection struct {
	key string
}

// Select marks day as the export target.
func (s *Selection) Select(day Day) {
	s.key = day.Key
}

// Clear removes the selection.
func (s *Selection) Clear() {
	s.key = ""
}

// Key returns the selected date key, empty when nothing is selected.
func (s Selection) Key() string {
	return s.key
}

// IsSelected reports whether day is the selected one.
func (s Selection) IsSelected(day Day) bool {
	return s.key != "" && s.key == day.Key
}
