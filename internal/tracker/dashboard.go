package tracker

import (
	"context"

	"github.com/julianstephens/tally/internal/stats"
	"github.com/julianstephens/tally/internal/utils"
)

// Dashboard is a snapshot with every derived view computed as of Today.
type Dashboard struct {
	Snapshot    `yaml:",inline"`
	Today       string              `json:"today" yaml:"today"`
	Stats       stats.Bundle        `json:"stats" yaml:"stats"`
	Heatmap     []stats.HeatmapDay  `json:"heatmap" yaml:"heatmap"`
	HabitRates  []stats.HabitRate   `json:"habit_rates" yaml:"habit_rates"`
	Weekly      []stats.WeekBucket  `json:"weekly" yaml:"weekly"`
	Leaderboard []stats.StreakEntry `json:"leaderboard" yaml:"leaderboard"`
}

// Dashboard loads a snapshot and computes stats, heatmap, habit rates, weekly buckets
// and the streak leaderboard for today, using the window sizes from settings. Habit
// streaks are derived as of today rather than read from the cache; nothing is written.
func (s *Service) Dashboard(ctx context.Context, today string) (Dashboard, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	loc, err := utils.LoadLocation(snap.Settings.Timezone)
	if err != nil {
		return Dashboard{}, err
	}

	if _, err := utils.ParseDay(today); err != nil {
		return Dashboard{}, err
	}
	// cached streaks are only as fresh as the last toggle
	snap.Habits = s.withCurrentStreaks(snap.Habits, today, snap.Settings.StreakPolicy)

	d := Dashboard{Snapshot: snap, Today: today}
	d.Stats, err = stats.Compute(stats.Input{
		Tasks:    snap.Tasks,
		Habits:   snap.Habits,
		Goals:    snap.Goals,
		Today:    today,
		Location: loc,
	})
	if err != nil {
		return Dashboard{}, err
	}
	if d.Heatmap, err = stats.Heatmap(snap.Habits, today, snap.Settings.HeatmapDays); err != nil {
		return Dashboard{}, err
	}
	if d.HabitRates, err = stats.HabitRates(snap.Habits, today, snap.Settings.HeatmapDays); err != nil {
		return Dashboard{}, err
	}
	if d.Weekly, err = stats.WeeklyCompletions(snap.Tasks, today, snap.Settings.TrendWeeks, loc); err != nil {
		return Dashboard{}, err
	}
	d.Leaderboard = stats.Leaderboard(snap.Habits)
	return d, nil
}
