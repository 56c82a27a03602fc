package stats

import (
	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

// HeatmapDay is one day's aggregate habit completion.
type HeatmapDay struct {
	Date            string `json:"date" yaml:"date"`
	Weekday         string `json:"weekday" yaml:"weekday"` // "Mon".."Sun"
	DayOfMonth      int    `json:"day_of_month" yaml:"day_of_month"`
	CompletedHabits int    `json:"completed_habits" yaml:"completed_habits"`
	CompletionRate  int    `json:"completion_rate" yaml:"completion_rate"`
	Bucket          int    `json:"bucket" yaml:"bucket"` // 0..4
}

// Heatmap returns windowDays entries ending at today, oldest first.
// A windowDays of zero or less means the default of 30.
func Heatmap(habits []models.Habit, today string, windowDays int) ([]HeatmapDay, error) {
	end, err := utils.ParseDay(today)
	if err != nil {
		return nil, err
	}
	if windowDays <= 0 {
		windowDays = constants.DefaultHeatmapDays
	}

	counts := completionsByDay(habits)
	days := make([]HeatmapDay, 0, windowDays)
	for i := windowDays - 1; i >= 0; i-- {
		d := end.AddDate(0, 0, -i)
		date := utils.FormatDay(d)
		rate := percent(counts[date], len(habits))
		days = append(days, HeatmapDay{
			Date:            date,
			Weekday:         d.Format("Mon"),
			DayOfMonth:      d.Day(),
			CompletedHabits: counts[date],
			CompletionRate:  rate,
			Bucket:          Bucket(rate),
		})
	}
	return days, nil
}

// Bucket maps a completion rate to a color tier: 0 for exactly 0, 1 below 25,
// 2 below 50, 3 below 75, otherwise 4.
func Bucket(rate int) int {
	if rate <= 0 {
		return 0
	}
	for i, threshold := range constants.HeatmapThresholds {
		if rate < threshold {
			return i + 1
		}
	}
	return len(constants.HeatmapThresholds) + 1
}

// completionsByDay counts, for every date, how many distinct habits were completed.
func completionsByDay(habits []models.Habit) map[string]int {
	counts := make(map[string]int)
	for _, h := range habits {
		seen := make(map[string]struct{}, len(h.CompletedDates))
		for _, d := range h.CompletedDates {
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			if !utils.IsValidDay(d) {
				logger.Debug("Skipping malformed completion date", "habit", h.ID, "date", d)
				continue
			}
			counts[d]++
		}
	}
	return counts
}
