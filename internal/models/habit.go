package models

import (
	"slices"
	"time"
)

// Habit represents a recurring practice to track
type Habit struct {
	ID             string    `json:"id" yaml:"id" db:"id"`
	Name           string    `json:"name" yaml:"name" db:"name"`
	Frequency      string    `json:"frequency" yaml:"frequency" db:"frequency"`
	CompletedDates []string  `json:"completed_dates" yaml:"completed_dates" db:"-"` // YYYY-MM-DD, unique, ascending
	Streak         int       `json:"streak" yaml:"streak" db:"streak"`             // cached, rewritten on every completion change
	CreatedAt      time.Time `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" yaml:"updated_at" db:"updated_at"`
}

// HabitLog represents a single day's completion record of a habit
type HabitLog struct {
	HabitID   string `json:"habit_id" yaml:"habit_id" db:"habit_id"`
	Date      string `json:"date" yaml:"date" db:"day"` // YYYY-MM-DD format
	Completed bool   `json:"completed" yaml:"completed" db:"completed"`
}

// CompletedOn reports whether the habit has a completion recorded for day.
func (h Habit) CompletedOn(day string) bool {
	return slices.Contains(h.CompletedDates, day)
}

// Logs expands the embedded completion dates into completed log entries.
func (h Habit) Logs() []HabitLog {
	logs := make([]HabitLog, 0, len(h.CompletedDates))
	for _, d := range h.CompletedDates {
		logs = append(logs, HabitLog{HabitID: h.ID, Date: d, Completed: true})
	}
	return logs
}

// NormalizeDates returns a sorted copy of dates with duplicates and empty entries removed.
func NormalizeDates(dates []string) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d != "" {
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// WithDate returns dates plus day, normalized.
func WithDate(dates []string, day string) []string {
	return NormalizeDates(append(slices.Clone(dates), day))
}

// WithoutDate returns dates minus every occurrence of day, normalized.
func WithoutDate(dates []string, day string) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d != day {
			out = append(out, d)
		}
	}
	return NormalizeDates(out)
}
