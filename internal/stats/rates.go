package stats

import (
	"cmp"
	"slices"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

// HabitRate is a habit's completion rate over a trailing window.
type HabitRate struct {
	HabitID     string `json:"habit_id" yaml:"habit_id"`
	Name        string `json:"name" yaml:"name"`
	Completions int    `json:"completions" yaml:"completions"`
	Rate        int    `json:"rate" yaml:"rate"`
}

// StreakEntry is one row of the streak leaderboard.
type StreakEntry struct {
	HabitID string `json:"habit_id" yaml:"habit_id"`
	Name    string `json:"name" yaml:"name"`
	Streak  int    `json:"streak" yaml:"streak"`
}

// HabitRates returns round(100 * completions / windowDays) for every habit over the
// windowDays ending at today, best first. Ties are ordered by name.
func HabitRates(habits []models.Habit, today string, windowDays int) ([]HabitRate, error) {
	if _, err := utils.ParseDay(today); err != nil {
		return nil, err
	}
	if windowDays <= 0 {
		windowDays = constants.DefaultHeatmapDays
	}
	start, _ := utils.AddDays(today, 1-windowDays)

	rates := make([]HabitRate, 0, len(habits))
	for _, h := range habits {
		n := 0
		for _, d := range models.NormalizeDates(h.CompletedDates) {
			if d >= start && d <= today && utils.IsValidDay(d) {
				n++
			}
		}
		rates = append(rates, HabitRate{
			HabitID:     h.ID,
			Name:        h.Name,
			Completions: n,
			Rate:        percent(n, windowDays),
		})
	}

	slices.SortStableFunc(rates, func(a, b HabitRate) int {
		if c := cmp.Compare(b.Rate, a.Rate); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return rates, nil
}

// Leaderboard orders habits by cached streak, longest first. Ties are ordered by name.
func Leaderboard(habits []models.Habit) []StreakEntry {
	entries := make([]StreakEntry, 0, len(habits))
	for _, h := range habits {
		entries = append(entries, StreakEntry{HabitID: h.ID, Name: h.Name, Streak: h.Streak})
	}
	slices.SortStableFunc(entries, func(a, b StreakEntry) int {
		if c := cmp.Compare(b.Streak, a.Streak); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return entries
}
