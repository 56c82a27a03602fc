package models

import (
	"math"
	"slices"
	"time"

	"github.com/julianstephens/tally/internal/constants"
)

// Milestone is one checkpoint of a goal
type Milestone struct {
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
}

type Goal struct {
	ID             string               `json:"id" yaml:"id" db:"id"`
	Title          string               `json:"title" yaml:"title" db:"title"`
	Description    string               `json:"description,omitempty" yaml:"description,omitempty" db:"description"`
	StartDate      string               `json:"start_date,omitempty" yaml:"start_date,omitempty" db:"start_date"`
	TargetDate     string               `json:"target_date,omitempty" yaml:"target_date,omitempty" db:"target_date"`
	Progress       int                  `json:"progress" yaml:"progress" db:"progress"` // 0..100
	Status         constants.GoalStatus `json:"status" yaml:"status" db:"status"`
	Milestones     []Milestone          `json:"milestones,omitempty" yaml:"milestones,omitempty" db:"-"`
	LinkedTaskIDs  []string             `json:"linked_task_ids,omitempty" yaml:"linked_task_ids,omitempty" db:"-"`
	LinkedHabitIDs []string             `json:"linked_habit_ids,omitempty" yaml:"linked_habit_ids,omitempty" db:"-"`
	CreatedAt      time.Time            `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at" yaml:"updated_at" db:"updated_at"`
}

// GoalPatch holds the optional fields of a partial goal update
type GoalPatch struct {
	Title       *string
	Description *string
	StartDate   *string
	TargetDate  *string
}

// ClampProgress bounds p to [0, 100].
func ClampProgress(p int) int {
	return max(0, min(constants.MaxProgress, p))
}

// MilestoneProgress returns round(100 * completed / total), or false when there are no milestones.
func MilestoneProgress(ms []Milestone) (int, bool) {
	if len(ms) == 0 {
		return 0, false
	}
	done := 0
	for _, m := range ms {
		if m.Completed {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(ms)))), true
}

// OnTrack reports whether the goal has reached the on-track progress threshold.
func (g Goal) OnTrack() bool {
	return g.Progress >= constants.GoalOnTrackThreshold
}

// SetProgress sets manual progress, clamped to [0, 100].
func (g *Goal) SetProgress(p int, now time.Time) {
	g.Progress = ClampProgress(p)
	g.UpdatedAt = now
}

// AdjustProgress moves progress by delta, clamped to [0, 100].
func (g *Goal) AdjustProgress(delta int, now time.Time) {
	g.SetProgress(g.Progress+delta, now)
}

// syncMilestoneProgress re-derives progress after a milestone change.
func (g *Goal) syncMilestoneProgress(now time.Time) {
	if p, ok := MilestoneProgress(g.Milestones); ok {
		g.Progress = p
	}
	g.UpdatedAt = now
}

// AddMilestone appends an open milestone.
func (g *Goal) AddMilestone(text string, now time.Time) {
	g.Milestones = append(g.Milestones, Milestone{Text: text})
	g.syncMilestoneProgress(now)
}

// ToggleMilestone flips the milestone at index i. It reports false if i is out of range.
func (g *Goal) ToggleMilestone(i int, now time.Time) bool {
	if i < 0 || i >= len(g.Milestones) {
		return false
	}
	g.Milestones[i].Completed = !g.Milestones[i].Completed
	g.syncMilestoneProgress(now)
	return true
}

// RemoveMilestone deletes the milestone at index i. It reports false if i is out of range.
// Removing the last milestone leaves progress where it was.
func (g *Goal) RemoveMilestone(i int, now time.Time) bool {
	if i < 0 || i >= len(g.Milestones) {
		return false
	}
	g.Milestones = slices.Delete(g.Milestones, i, i+1)
	g.syncMilestoneProgress(now)
	return true
}

// ToggleCompleted flips the goal between active and completed.
func (g *Goal) ToggleCompleted(now time.Time) {
	if g.Status == constants.GoalStatusCompleted {
		g.Status = constants.GoalStatusActive
	} else {
		g.Status = constants.GoalStatusCompleted
	}
	g.UpdatedAt = now
}

// Apply copies the set fields of p onto the goal.
func (g *Goal) Apply(p GoalPatch, now time.Time) {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.StartDate != nil {
		g.StartDate = *p.StartDate
	}
	if p.TargetDate != nil {
		g.TargetDate = *p.TargetDate
	}
	g.UpdatedAt = now
}

// LinkTask adds a task reference. It reports whether the link was new.
func (g *Goal) LinkTask(taskID string) bool {
	if slices.Contains(g.LinkedTaskIDs, taskID) {
		return false
	}
	g.LinkedTaskIDs = append(g.LinkedTaskIDs, taskID)
	return true
}

// UnlinkTask removes a task reference. It reports whether anything was removed.
func (g *Goal) UnlinkTask(taskID string) bool {
	n := len(g.LinkedTaskIDs)
	g.LinkedTaskIDs = slices.DeleteFunc(g.LinkedTaskIDs, func(id string) bool { return id == taskID })
	return len(g.LinkedTaskIDs) != n
}

// LinkHabit adds a habit reference. It reports whether the link was new.
func (g *Goal) LinkHabit(habitID string) bool {
	if slices.Contains(g.LinkedHabitIDs, habitID) {
		return false
	}
	g.LinkedHabitIDs = append(g.LinkedHabitIDs, habitID)
	return true
}

// UnlinkHabit removes a habit reference. It reports whether anything was removed.
func (g *Goal) UnlinkHabit(habitID string) bool {
	n := len(g.LinkedHabitIDs)
	g.LinkedHabitIDs = slices.DeleteFunc(g.LinkedHabitIDs, func(id string) bool { return id == habitID })
	return len(g.LinkedHabitIDs) != n
}
