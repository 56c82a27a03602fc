package validation

import (
	"fmt"
	"sort"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/streak"
	"github.com/julianstephens/tally/internal/utils"
)

// ConflictType represents the type of data problem found in a snapshot
type ConflictType string

const (
	ConflictDuplicateHabitName ConflictType = "duplicate_habit_name"
	ConflictInvalidDate        ConflictType = "invalid_date"
	ConflictStaleStreak        ConflictType = "stale_streak"
	ConflictCompletedAtStatus  ConflictType = "completed_at_mismatch"
	ConflictDanglingLink       ConflictType = "dangling_link"
	ConflictProgressRange      ConflictType = "progress_out_of_range"
)

// Conflict represents a detected problem in stored records
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // IDs of records involved
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	report := "Conflicts detected:\n"
	for _, conflict := range vr.Conflicts {
		report += fmt.Sprintf("- %s\n", conflict.Description)
	}
	return report
}

// Snapshot is the set of records a Validator inspects
type Snapshot struct {
	Habits []models.Habit
	Tasks  []models.Task
	Goals  []models.Goal
}

// Validator checks stored records against the model invariants
type Validator struct {
	today  string
	policy constants.StreakPolicy
}

// New creates a Validator that checks cached streaks as of today under policy
func New(today string, policy constants.StreakPolicy) *Validator {
	return &Validator{today: today, policy: policy}
}

// Validate checks a snapshot and reports every problem it finds
func (v *Validator) Validate(s Snapshot) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	v.checkHabits(s.Habits, &result)
	v.checkTasks(s.Tasks, &result)
	v.checkGoals(s, &result)
	return result
}

func (v *Validator) checkHabits(habits []models.Habit, result *ValidationResult) {
	names := make(map[string][]string)
	for _, h := range habits {
		names[h.Name] = append(names[h.Name], h.ID)

		valid := true
		for _, d := range h.CompletedDates {
			if !utils.IsValidDay(d) {
				valid = false
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictInvalidDate,
					Description: fmt.Sprintf("Habit %q has invalid completion date %q", h.Name, d),
					Items:       []string{h.ID},
				})
			}
		}
		if !valid {
			continue
		}

		want, err := streak.Compute(h.CompletedDates, v.today, v.policy)
		if err == nil && want != h.Streak {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictStaleStreak,
				Description: fmt.Sprintf("Habit %q caches streak %d but its completions give %d", h.Name, h.Streak, want),
				Items:       []string{h.ID},
			})
		}
	}

	// sorted for a stable report
	dupNames := make([]string, 0)
	for name, ids := range names {
		if len(ids) > 1 {
			dupNames = append(dupNames, name)
		}
	}
	sort.Strings(dupNames)
	for _, name := range dupNames {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictDuplicateHabitName,
			Description: fmt.Sprintf("Duplicate habit name: %q (IDs: %v)", name, names[name]),
			Items:       names[name],
		})
	}
}

func (v *Validator) checkTasks(tasks []models.Task, result *ValidationResult) {
	for _, t := range tasks {
		if t.IsDone() != (t.CompletedAt != nil) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictCompletedAtStatus,
				Description: fmt.Sprintf("Task %q has status %s but completed_at set=%t", t.Title, t.Status, t.CompletedAt != nil),
				Items:       []string{t.ID},
			})
		}
		if t.DueDate != "" && !utils.IsValidDay(t.DueDate) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidDate,
				Description: fmt.Sprintf("Task %q has invalid due date %q", t.Title, t.DueDate),
				Items:       []string{t.ID},
			})
		}
	}
}

func (v *Validator) checkGoals(s Snapshot, result *ValidationResult) {
	tasks := make(map[string]bool, len(s.Tasks))
	for _, t := range s.Tasks {
		tasks[t.ID] = true
	}
	habits := make(map[string]bool, len(s.Habits))
	for _, h := range s.Habits {
		habits[h.ID] = true
	}

	for _, g := range s.Goals {
		for _, id := range g.LinkedTaskIDs {
			if !tasks[id] {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictDanglingLink,
					Description: fmt.Sprintf("Goal %q links missing task %s", g.Title, id),
					Items:       []string{g.ID, id},
				})
			}
		}
		for _, id := range g.LinkedHabitIDs {
			if !habits[id] {
				result.Conflicts = append(result.Conflicts, Conflict{
					Type:        ConflictDanglingLink,
					Description: fmt.Sprintf("Goal %q links missing habit %s", g.Title, id),
					Items:       []string{g.ID, id},
				})
			}
		}
		if g.Progress < 0 || g.Progress > constants.MaxProgress {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictProgressRange,
				Description: fmt.Sprintf("Goal %q has progress %d outside 0..%d", g.Title, g.Progress, constants.MaxProgress),
				Items:       []string{g.ID},
			})
		}
	}
}
