// Package stats aggregates tasks, habits and goals into dashboard numbers.
//
// All functions are pure: the reference day is passed in and nothing reads the clock.
// A malformed reference day is an error. Malformed dates inside records are skipped.
package stats

import (
	"math"
	"time"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

// Input is a full snapshot to aggregate.
type Input struct {
	Tasks  []models.Task
	Habits []models.Habit
	Goals  []models.Goal
	Today  string // YYYY-MM-DD
	// Location converts task completion instants to calendar days. Nil means UTC.
	Location *time.Location
}

// Bundle is the fixed set of dashboard numbers. Percentages are integers in [0, 100].
type Bundle struct {
	ActiveHabits           int `json:"active_habits" yaml:"active_habits"`
	HabitsCompletedToday   int `json:"habits_completed_today" yaml:"habits_completed_today"`
	TasksDone              int `json:"tasks_done" yaml:"tasks_done"`
	TotalTasks             int `json:"total_tasks" yaml:"total_tasks"`
	CompletionRate         int `json:"completion_rate" yaml:"completion_rate"`
	GoalsOnTrack           int `json:"goals_on_track" yaml:"goals_on_track"`
	TotalGoals             int `json:"total_goals" yaml:"total_goals"`
	ConsistencyScore       int `json:"consistency_score" yaml:"consistency_score"`
	AvgStreak              int `json:"avg_streak" yaml:"avg_streak"`
	DueToday               int `json:"due_today" yaml:"due_today"`
	ActiveGoals            int `json:"active_goals" yaml:"active_goals"`
	TasksCompletedThisWeek int `json:"tasks_completed_this_week" yaml:"tasks_completed_this_week"`
	ProductivityScore      int `json:"productivity_score" yaml:"productivity_score"`
}

// Compute builds the summary bundle for in.
func Compute(in Input) (Bundle, error) {
	if _, err := utils.ParseDay(in.Today); err != nil {
		return Bundle{}, err
	}
	weekAgo, _ := utils.AddDays(in.Today, -6)

	var b Bundle

	b.ActiveHabits = len(in.Habits)
	streakSum := 0
	for _, h := range in.Habits {
		if h.CompletedOn(in.Today) {
			b.HabitsCompletedToday++
		}
		streakSum += h.Streak
	}

	b.TotalTasks = len(in.Tasks)
	for _, t := range in.Tasks {
		if !t.IsDone() {
			if t.DueDate == in.Today {
				b.DueToday++
			}
			continue
		}
		b.TasksDone++
		if t.CompletedAt == nil {
			logger.Debug("Done task without completion time", "task", t.ID)
			continue
		}
		if day := utils.DayOf(*t.CompletedAt, in.Location); day >= weekAgo && day <= in.Today {
			b.TasksCompletedThisWeek++
		}
	}

	b.TotalGoals = len(in.Goals)
	for _, g := range in.Goals {
		if g.OnTrack() {
			b.GoalsOnTrack++
		}
		if g.Status != constants.GoalStatusCompleted {
			b.ActiveGoals++
		}
	}

	b.CompletionRate = percent(b.TasksDone, b.TotalTasks)
	b.ConsistencyScore = percent(b.HabitsCompletedToday, b.ActiveHabits)
	if b.ActiveHabits > 0 {
		b.AvgStreak = int(math.Round(float64(streakSum) / float64(b.ActiveHabits)))
	}
	b.ProductivityScore = constants.ProductivityTaskWeight*b.TasksDone +
		constants.ProductivityHabitWeight*b.HabitsCompletedToday

	return b, nil
}

// percent returns round(100 * n / d), or 0 when d is 0.
func percent(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(math.Round(100 * float64(n) / float64(d)))
}
