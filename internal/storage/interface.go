package storage

import (
	"context"

	"github.com/julianstephens/tally/internal/models"
)

// CompletionFunc receives a habit's current completion dates (sorted, unique) and
// returns the next set together with the streak derived from it. It runs inside the
// store's critical section, so it must not call back into the store.
type CompletionFunc func(current []string) (next []string, streak int, err error)

type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Settings
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error

	// Habits
	AddHabit(ctx context.Context, habit models.Habit) error
	GetHabit(ctx context.Context, id string) (models.Habit, error)
	GetAllHabits(ctx context.Context) ([]models.Habit, error)
	// UpdateHabit writes name, frequency and the cached streak. Completion dates are
	// only changed through UpdateCompletions.
	UpdateHabit(ctx context.Context, habit models.Habit) error
	// DeleteHabit removes the habit, its completion history and every goal link to it.
	DeleteHabit(ctx context.Context, id string) error

	// Completions
	// UpdateCompletions atomically replaces a habit's completion set and cached streak
	// with the result of fn and returns the updated habit.
	UpdateCompletions(ctx context.Context, habitID string, fn CompletionFunc) (models.Habit, error)
	GetHabitLogs(ctx context.Context, habitID string) ([]models.HabitLog, error)

	// Tasks
	AddTask(ctx context.Context, task models.Task) error
	GetTask(ctx context.Context, id string) (models.Task, error)
	GetAllTasks(ctx context.Context) ([]models.Task, error)
	UpdateTask(ctx context.Context, task models.Task) error
	// DeleteTask removes the task and every goal link to it.
	DeleteTask(ctx context.Context, id string) error

	// Goals
	AddGoal(ctx context.Context, goal models.Goal) error
	GetGoal(ctx context.Context, id string) (models.Goal, error)
	GetAllGoals(ctx context.Context) ([]models.Goal, error)
	UpdateGoal(ctx context.Context, goal models.Goal) error
	DeleteGoal(ctx context.Context, id string) error

	// Utils
	GetConfigPath() string
}
