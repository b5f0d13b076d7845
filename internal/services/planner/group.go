package planner

import (
	"log/slog"
	"sort"

	"github.com/nutriplan/nutriplan/internal/models"
)

// GroupByDate indexes assignments by their exact date key.
func GroupByDate(assignments []models.MenuAssignment) map[string][]models.MenuAssignment {
	out := make(map[string][]models.MenuAssignment)
	for _, a := range assignments {
		out[a.Date] = append(out[a.Date], a)
	}
	return out
}

// SlotGroup holds the assignments of one meal slot within a day.
type SlotGroup struct {
	Slot        models.MealSlot
	Label       string
	Assignments []models.MenuAssignment
}

// DayGroups is the slot view of one day.
type DayGroups struct {
	// Slots holds breakfast, lunch and dinner in that order, including
	// empty ones.
	Slots []SlotGroup

	// Unrecognized holds assignments whose slot tag is not one of the
	// three known slots, kept for review.
	Unrecognized []models.MenuAssignment
}

// Empty reports whether the day has no assignments at all.
func (g DayGroups) Empty() bool {
	if len(g.Unrecognized) > 0 {
		return false
	}
	for _, s := range g.Slots {
		if len(s.Assignments) > 0 {
			return false
		}
	}
	return true
}

// Slot returns the group for slot.
func (g DayGroups) Slot(slot models.MealSlot) SlotGroup {
	for _, s := range g.Slots {
		if s.Slot == slot {
			return s
		}
	}
	return SlotGroup{Slot: slot, Label: slot.Label()}
}

// GroupBySlot splits one day's assignments by meal slot in the fixed
// breakfast, lunch, dinner order.
func GroupBySlot(assignments []models.MenuAssignment) DayGroups {
	groups := DayGroups{Slots: make([]SlotGroup, len(models.MealSlots))}
	index := make(map[models.MealSlot]int, len(models.MealSlots))
	for i, slot := range models.MealSlots {
		groups.Slots[i] = SlotGroup{Slot: slot, Label: slot.Label()}
		index[slot] = i
	}

	for _, a := range assignments {
		i, ok := index[a.Slot]
		if !ok {
			slog.Warn("assignment with unrecognized meal slot",
				"assignment_id", a.ID, "slot", string(a.Slot), "date", a.Date)
			groups.Unrecognized = append(groups.Unrecognized, a)
			continue
		}
		groups.Slots[i].Assignments = append(groups.Slots[i].Assignments, a)
	}
	return groups
}

// Cell is a grid day with its assignments.
type Cell struct {
	Day
	Groups DayGroups
}

// Empty reports whether the cell should render the empty state.
func (c Cell) Empty() bool {
	return c.Groups.Empty()
}

// BuildCells maps assignments onto days. Days without assignments get an
// empty cell, never a missing one.
func BuildCells(days []Day, assignments []models.MenuAssignment) []Cell {
	byDate := GroupByDate(assignments)
	cells := make([]Cell, len(days))
	for i, d := range days {
		cells[i] = Cell{Day: d, Groups: GroupBySlot(byDate[d.Key])}
	}
	return cells
}

// Range returns the first and last date keys covered by days.
func Range(days []Day) (from, to string) {
	if len(days) == 0 {
		return "", ""
	}
	return days[0].Key, days[len(days)-1].Key
}

// SortAssignments orders assignments by date, then slot, then id.
func SortAssignments(assignments []models.MenuAssignment) {
	slotRank := func(s models.MealSlot) int {
		for i, known := range models.MealSlots {
			if s == known {
				return i
			}
		}
		return len(models.MealSlots)
	}
	sort.SliceStable(assignments, func(i, j int) bool {
		a, b := assignments[i], assignments[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if ra, rb := slotRank(a.Slot), slotRank(b.Slot); ra != rb {
			return ra < rb
		}
		return a.ID < b.ID
	})
}
