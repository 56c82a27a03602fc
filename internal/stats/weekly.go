package stats

import (
	"time"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/utils"
)

// WeekBucket counts tasks completed in the Monday-aligned week starting at WeekStart.
type WeekBucket struct {
	WeekStart string `json:"week_start" yaml:"week_start"`
	Label     string `json:"label" yaml:"label"` // MM-DD
	Completed int    `json:"completed" yaml:"completed"`
}

// WeeklyCompletions buckets done tasks by the week of their completion time over the
// trailing weeks ending with the week containing today, oldest first. Weeks without
// completions are present with a zero count. A weeks value of zero or less means 8.
func WeeklyCompletions(tasks []models.Task, today string, weeks int, loc *time.Location) ([]WeekBucket, error) {
	if weeks <= 0 {
		weeks = constants.DefaultTrendWeeks
	}
	starts, err := utils.LastNWeekStarts(today, weeks)
	if err != nil {
		return nil, err
	}

	buckets := make([]WeekBucket, len(starts))
	index := make(map[string]int, len(starts))
	for i, s := range starts {
		t, _ := utils.ParseDay(s)
		buckets[i] = WeekBucket{WeekStart: s, Label: t.Format(constants.WeekLabelFormat)}
		index[s] = i
	}

	for _, t := range tasks {
		if !t.IsDone() || t.CompletedAt == nil {
			continue
		}
		day := utils.DayOf(*t.CompletedAt, loc)
		if day > today {
			continue
		}
		ws, err := utils.WeekStart(day)
		if err != nil {
			continue
		}
		if i, ok := index[ws]; ok {
			buckets[i].Completed++
		}
	}
	return buckets, nil
}
