package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/streak"
	"github.com/julianstephens/tally/internal/utils"
	"github.com/julianstephens/tally/internal/validation"
)

// CreateHabit adds a habit with no completions.
func (s *Service) CreateHabit(ctx context.Context, name, frequency string) (models.Habit, error) {
	now := s.now()
	h := models.Habit{
		ID:        s.newID(),
		Name:      name,
		Frequency: frequency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validation.NormalizeHabit(&h); err != nil {
		return models.Habit{}, err
	}
	if err := s.store.AddHabit(ctx, h); err != nil {
		return models.Habit{}, err
	}
	s.log.Info("Habit created", "id", h.ID, "name", h.Name)
	return h, nil
}

// ResolveHabit finds a habit by ID, unique ID prefix or name.
func (s *Service) ResolveHabit(ctx context.Context, ref string) (models.Habit, error) {
	habits, err := s.store.GetAllHabits(ctx)
	if err != nil {
		return models.Habit{}, err
	}
	h, ok := resolve(habits, ref,
		func(h models.Habit) string { return h.ID },
		func(h models.Habit) string { return h.Name })
	if !ok {
		return models.Habit{}, storage.NotFound("habit", ref)
	}
	return h, nil
}

// RenameHabit changes a habit's display name.
func (s *Service) RenameHabit(ctx context.Context, id, name string) (models.Habit, error) {
	name, err := validation.Name("habit name", name)
	if err != nil {
		return models.Habit{}, err
	}

	unlock := s.locks.Lock("habit:" + id)
	defer unlock()

	h, err := s.store.GetHabit(ctx, id)
	if err != nil {
		return models.Habit{}, err
	}
	h.Name = name
	h.UpdatedAt = s.now()
	if err := s.store.UpdateHabit(ctx, h); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

// DeleteHabit removes a habit, its completion history and every goal link to it.
func (s *Service) DeleteHabit(ctx context.Context, id string) error {
	unlock := s.locks.Lock("habit:" + id)
	defer unlock()

	if err := s.store.DeleteHabit(ctx, id); err != nil {
		return err
	}
	s.log.Info("Habit deleted", "id", id)
	return nil
}

// MarkComplete records a completion of habitID on day and re-derives the streak as of today.
// Marking an already completed day is a no-op apart from the streak refresh.
func (s *Service) MarkComplete(ctx context.Context, habitID, day, today string) (models.Habit, error) {
	return s.updateCompletions(ctx, habitID, day, today, func(current []string) []string {
		return models.WithDate(current, day)
	})
}

// UnmarkComplete removes the completion of habitID on day and re-derives the streak as of today.
func (s *Service) UnmarkComplete(ctx context.Context, habitID, day, today string) (models.Habit, error) {
	return s.updateCompletions(ctx, habitID, day, today, func(current []string) []string {
		return models.WithoutDate(current, day)
	})
}

// ToggleCompletion flips the completion of habitID on day. It reports whether the day
// is completed afterwards.
func (s *Service) ToggleCompletion(ctx context.Context, habitID, day, today string) (models.Habit, bool, error) {
	h, err := s.updateCompletions(ctx, habitID, day, today, func(current []string) []string {
		for _, d := range current {
			if d == day {
				return models.WithoutDate(current, day)
			}
		}
		return models.WithDate(current, day)
	})
	if err != nil {
		return models.Habit{}, false, err
	}
	return h, h.CompletedOn(day), nil
}

func (s *Service) updateCompletions(ctx context.Context, habitID, day, today string, next func([]string) []string) (models.Habit, error) {
	if err := validation.Day("day", day, false); err != nil {
		return models.Habit{}, err
	}
	if err := validation.Day("today", today, false); err != nil {
		return models.Habit{}, err
	}
	if day > today {
		return models.Habit{}, validation.Invalidf("cannot record %s, it is after %s", day, today)
	}

	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return models.Habit{}, err
	}

	unlock := s.locks.Lock("habit:" + habitID)
	defer unlock()

	h, err := s.store.UpdateCompletions(ctx, habitID, func(current []string) ([]string, int, error) {
		dates := next(current)
		n, err := streak.Compute(dates, today, settings.StreakPolicy)
		if err != nil {
			return nil, 0, err
		}
		return dates, n, nil
	})
	if err != nil {
		return models.Habit{}, err
	}
	s.log.Debug("Completions updated", "habit", habitID, "day", day, "streak", h.Streak)
	return h, nil
}

// RecomputeStreaks re-derives every habit's cached streak as of today. The cache goes
// stale when the date rolls over without a toggle. It returns how many streaks changed.
// A habit whose completion dates cannot be parsed keeps its cached streak and is skipped.
func (s *Service) RecomputeStreaks(ctx context.Context, today string) (int, error) {
	if _, err := utils.ParseDay(today); err != nil {
		return 0, err
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	habits, err := s.store.GetAllHabits(ctx)
	if err != nil {
		return 0, err
	}

	changed, skipped := 0, 0
	for _, h := range habits {
		before := h.Streak
		updated, err := s.recompute(ctx, h.ID, today, settings)
		if errors.Is(err, utils.ErrInvalidDate) {
			s.log.Warn("Skipping habit with malformed completion dates", "habit", h.ID, "name", h.Name, "err", err)
			skipped++
			continue
		}
		if err != nil {
			return changed, fmt.Errorf("habit %s: %w", h.ID, err)
		}
		if updated.Streak != before {
			changed++
		}
	}
	if changed > 0 || skipped > 0 {
		s.log.Info("Streaks recomputed", "today", today, "changed", changed, "skipped", skipped)
	}
	return changed, nil
}

// withCurrentStreaks returns a copy of habits whose Streak is derived as of today under
// policy instead of read from the cache. Habits with malformed dates keep the cached value.
func (s *Service) withCurrentStreaks(habits []models.Habit, today string, policy constants.StreakPolicy) []models.Habit {
	out := make([]models.Habit, len(habits))
	for i, h := range habits {
		out[i] = h
		n, err := streak.Compute(h.CompletedDates, today, policy)
		if err != nil {
			s.log.Warn("Using cached streak for habit with malformed completion dates", "habit", h.ID, "err", err)
			continue
		}
		out[i].Streak = n
	}
	return out
}

// Habits lists every habit with its streak as of today. Nothing is written.
func (s *Service) Habits(ctx context.Context, today string) ([]models.Habit, error) {
	if _, err := utils.ParseDay(today); err != nil {
		return nil, err
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	habits, err := s.store.GetAllHabits(ctx)
	if err != nil {
		return nil, err
	}
	return s.withCurrentStreaks(habits, today, settings.StreakPolicy), nil
}

// HabitHistory is a habit's completion log with the streak derived from it.
type HabitHistory struct {
	Habit  models.Habit
	Logs   []models.HabitLog
	Streak int
}

// HabitHistory reads the completion log of one habit. Under today-anchored the streak is
// computed from the log itself, so logs with Completed == false never count.
func (s *Service) HabitHistory(ctx context.Context, id, today string) (HabitHistory, error) {
	h, err := s.store.GetHabit(ctx, id)
	if err != nil {
		return HabitHistory{}, err
	}
	logs, err := s.store.GetHabitLogs(ctx, id)
	if err != nil {
		return HabitHistory{}, err
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return HabitHistory{}, err
	}

	hist := HabitHistory{Habit: h, Logs: logs}
	if settings.StreakPolicy == constants.StreakPolicyTodayAnchored {
		hist.Streak, err = streak.ComputeFromLogs(id, logs, today)
	} else {
		dates := make([]string, 0, len(logs))
		for _, l := range logs {
			if l.Completed {
				dates = append(dates, l.Date)
			}
		}
		hist.Streak, err = streak.Compute(dates, today, settings.StreakPolicy)
	}
	if err != nil {
		return HabitHistory{}, fmt.Errorf("habit %s: %w", id, err)
	}
	return hist, nil
}

func (s *Service) recompute(ctx context.Context, habitID, today string, settings models.Settings) (models.Habit, error) {
	unlock := s.locks.Lock("habit:" + habitID)
	defer unlock()

	return s.store.UpdateCompletions(ctx, habitID, func(current []string) ([]string, int, error) {
		n, err := streak.Compute(current, today, settings.StreakPolicy)
		return current, n, err
	})
}
