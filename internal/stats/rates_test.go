package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
)

func TestHabitRates(t *testing.T) {
	habits := []models.Habit{
		{ID: "1", Name: "read", CompletedDates: []string{"2024-01-10", "2024-01-09", "2024-01-09"}},
		{ID: "2", Name: "run", CompletedDates: []string{"2024-01-10", "2024-01-09", "2024-01-08"}},
		{ID: "3", Name: "code", CompletedDates: []string{"2024-01-10", "2024-01-09"}},
		{ID: "4", Name: "stretch", CompletedDates: []string{"2023-11-01", "2024-01-11"}},
	}

	rates, err := HabitRates(habits, today, 30)
	require.NoError(t, err)
	require.Len(t, rates, 4)

	assert.Equal(t, "run", rates[0].Name)
	assert.Equal(t, 3, rates[0].Completions)
	assert.Equal(t, 10, rates[0].Rate)
	// tie at 2 completions ordered by name
	assert.Equal(t, "code", rates[1].Name)
	assert.Equal(t, "read", rates[2].Name)
	assert.Equal(t, 7, rates[2].Rate)
	assert.Equal(t, "stretch", rates[3].Name)
	assert.Equal(t, 0, rates[3].Rate)
}

func TestLeaderboard(t *testing.T) {
	habits := []models.Habit{
		{ID: "1", Name: "b", Streak: 2},
		{ID: "2", Name: "a", Streak: 2},
		{ID: "3", Name: "c", Streak: 9},
	}
	got := Leaderboard(habits)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.Empty(t, Leaderboard(nil))
}

func TestWeeklyCompletions(t *testing.T) {
	at := func(y int, m time.Month, d int) *time.Time {
		ts := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
		return &ts
	}
	tasks := []models.Task{
		{Status: constants.TaskStatusDone, CompletedAt: at(2024, 1, 8)},  // this week's Monday
		{Status: constants.TaskStatusDone, CompletedAt: at(2024, 1, 10)}, // today
		{Status: constants.TaskStatusDone, CompletedAt: at(2024, 1, 7)},  // previous Sunday
		{Status: constants.TaskStatusDone, CompletedAt: at(2023, 10, 1)}, // outside the window
		{Status: constants.TaskStatusDone},                               // no timestamp
		{Status: constants.TaskStatusPending, CompletedAt: at(2024, 1, 9)},
	}

	buckets, err := WeeklyCompletions(tasks, today, 8, time.UTC)
	require.NoError(t, err)
	require.Len(t, buckets, 8)

	assert.Equal(t, "2023-11-20", buckets[0].WeekStart)
	assert.Equal(t, "11-20", buckets[0].Label)
	assert.Equal(t, "2024-01-08", buckets[7].WeekStart)
	assert.Equal(t, "01-08", buckets[7].Label)
	assert.Equal(t, 2, buckets[7].Completed)
	assert.Equal(t, 1, buckets[6].Completed)

	total := 0
	for _, b := range buckets {
		total += b.Completed
	}
	assert.Equal(t, 3, total)
}

func TestWeeklyCompletionsDefaults(t *testing.T) {
	buckets, err := WeeklyCompletions(nil, today, 0, nil)
	require.NoError(t, err)
	assert.Len(t, buckets, constants.DefaultTrendWeeks)
	for _, b := range buckets {
		assert.Zero(t, b.Completed)
	}

	_, err = WeeklyCompletions(nil, "bad", 4, nil)
	assert.Error(t, err)
}
