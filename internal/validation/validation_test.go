package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
)

func TestNormalizeTask(t *testing.T) {
	task, err := NormalizeTask(TaskInput{
		Title:    "  Write report ",
		Priority: "HIGH",
		Status:   "In progress",
		DueDate:  "2024-01-12",
		Tags:     []string{"work", "work", " q1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Write report", task.Title)
	assert.Equal(t, constants.PriorityHigh, task.Priority)
	assert.Equal(t, constants.TaskStatusInProgress, task.Status)
	assert.Equal(t, []string{"q1", "work"}, task.Tags)

	tests := []struct {
		name string
		in   TaskInput
	}{
		{name: "missing title", in: TaskInput{Title: "  "}},
		{name: "bad priority", in: TaskInput{Title: "x", Priority: "urgent"}},
		{name: "bad status", in: TaskInput{Title: "x", Status: "blocked"}},
		{name: "bad due date", in: TaskInput{Title: "x", DueDate: "12/01/2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeTask(tt.in)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestNormalizeHabit(t *testing.T) {
	h := models.Habit{Name: " Read ", Frequency: "DAILY", CompletedDates: []string{"2024-01-10", "2024-01-09", "2024-01-10"}}
	require.NoError(t, NormalizeHabit(&h))
	assert.Equal(t, "Read", h.Name)
	assert.Equal(t, "daily", h.Frequency)
	assert.Equal(t, []string{"2024-01-09", "2024-01-10"}, h.CompletedDates)

	h = models.Habit{Name: "Run"}
	require.NoError(t, NormalizeHabit(&h))
	assert.Equal(t, constants.DefaultFrequency, h.Frequency)

	h = models.Habit{Name: "Run", CompletedDates: []string{"2024-02-30"}}
	assert.ErrorIs(t, NormalizeHabit(&h), ErrInvalid)

	assert.ErrorIs(t, NormalizeHabit(&models.Habit{}), ErrInvalid)
}

func TestNormalizeGoal(t *testing.T) {
	g := models.Goal{Title: "Ship v1", Progress: 140}
	require.NoError(t, NormalizeGoal(&g))
	assert.Equal(t, 100, g.Progress)
	assert.Equal(t, constants.GoalStatusActive, g.Status)

	g = models.Goal{Title: "Ship v1", Milestones: []models.Milestone{{Completed: true}, {Completed: true}, {}}}
	require.NoError(t, NormalizeGoal(&g))
	assert.Equal(t, 67, g.Progress)

	g = models.Goal{Title: "Ship v1", StartDate: "2024-02-01", TargetDate: "2024-01-01"}
	assert.ErrorIs(t, NormalizeGoal(&g), ErrInvalid)

	g = models.Goal{Title: "Ship v1", Status: "paused"}
	assert.ErrorIs(t, NormalizeGoal(&g), ErrInvalid)
}

func TestNormalizeSettings(t *testing.T) {
	s := models.DefaultSettings()
	s.StreakPolicy = "B"
	require.NoError(t, NormalizeSettings(&s))
	assert.Equal(t, constants.StreakPolicyTodayAnchored, s.StreakPolicy)

	bad := []func(*models.Settings){
		func(s *models.Settings) { s.Timezone = "Mars/Olympus" },
		func(s *models.Settings) { s.StreakPolicy = "weekly" },
		func(s *models.Settings) { s.HeatmapDays = 0 },
		func(s *models.Settings) { s.TrendWeeks = constants.MaxTrendWeeks + 1 },
	}
	for _, mutate := range bad {
		s := models.DefaultSettings()
		mutate(&s)
		assert.ErrorIs(t, NormalizeSettings(&s), ErrInvalid)
	}
}

func TestValidateCleanSnapshot(t *testing.T) {
	done := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	s := Snapshot{
		Habits: []models.Habit{{ID: "h1", Name: "Read", CompletedDates: []string{"2024-01-09", "2024-01-10"}, Streak: 2}},
		Tasks:  []models.Task{{ID: "t1", Title: "x", Status: constants.TaskStatusDone, CompletedAt: &done}},
		Goals:  []models.Goal{{ID: "g1", Title: "g", LinkedTaskIDs: []string{"t1"}, LinkedHabitIDs: []string{"h1"}}},
	}

	result := New("2024-01-10", constants.StreakPolicyRecentAnchored).Validate(s)
	assert.False(t, result.HasConflicts(), result.FormatReport())
	assert.Equal(t, "No conflicts detected.", result.FormatReport())
}

func TestValidateFindsProblems(t *testing.T) {
	s := Snapshot{
		Habits: []models.Habit{
			{ID: "h1", Name: "Read", CompletedDates: []string{"2024-01-10"}, Streak: 5},
			{ID: "h2", Name: "Read"},
			{ID: "h3", Name: "Run", CompletedDates: []string{"yesterday"}},
		},
		Tasks: []models.Task{
			{ID: "t1", Title: "pending but stamped", Status: constants.TaskStatusPending, CompletedAt: &time.Time{}},
			{ID: "t2", Title: "bad due", Status: constants.TaskStatusPending, DueDate: "soon"},
		},
		Goals: []models.Goal{{ID: "g1", Title: "g", LinkedTaskIDs: []string{"gone"}, LinkedHabitIDs: []string{"gone-too"}}},
	}

	result := New("2024-01-10", constants.StreakPolicyRecentAnchored).Validate(s)
	require.True(t, result.HasConflicts())

	counts := make(map[ConflictType]int)
	for _, c := range result.Conflicts {
		counts[c.Type]++
	}
	assert.Equal(t, 1, counts[ConflictStaleStreak])
	assert.Equal(t, 1, counts[ConflictDuplicateHabitName])
	assert.Equal(t, 2, counts[ConflictInvalidDate])
	assert.Equal(t, 1, counts[ConflictCompletedAtStatus])
	assert.Equal(t, 2, counts[ConflictDanglingLink])
	assert.True(t, strings.HasPrefix(result.FormatReport(), "Conflicts detected:"))
}
