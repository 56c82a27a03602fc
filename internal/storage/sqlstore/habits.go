package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
)

type habitRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Frequency string `db:"frequency"`
	Streak    int    `db:"streak"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

const habitColumns = "id, name, frequency, streak, created_at, updated_at"

func (r habitRow) toModel(dates []string) (models.Habit, error) {
	created, err := parseTime("created_at", r.CreatedAt)
	if err != nil {
		return models.Habit{}, err
	}
	updated, err := parseTime("updated_at", r.UpdatedAt)
	if err != nil {
		return models.Habit{}, err
	}
	if dates == nil {
		dates = []string{}
	}
	return models.Habit{
		ID:             r.ID,
		Name:           r.Name,
		Frequency:      r.Frequency,
		CompletedDates: dates,
		Streak:         r.Streak,
		CreatedAt:      created,
		UpdatedAt:      updated,
	}, nil
}

// completedDays returns the completed days of one habit in ascending order.
func completedDays(ctx context.Context, q sqlx.ExtContext, habitID string) ([]string, error) {
	var days []string
	err := sqlx.SelectContext(ctx, q, &days, q.Rebind(
		"SELECT day FROM habit_logs WHERE habit_id = ? AND completed = ? ORDER BY day"), habitID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to read habit logs: %w", err)
	}
	return days, nil
}

func (s *Store) getHabit(ctx context.Context, q sqlx.ExtContext, where string, arg any, lock bool) (models.Habit, error) {
	query := "SELECT " + habitColumns + " FROM habits WHERE " + where
	if lock && s.dialect == Postgres {
		query += " FOR UPDATE"
	}

	var row habitRow
	if err := sqlx.GetContext(ctx, q, &row, q.Rebind(query), arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Habit{}, storage.NotFound("habit", fmt.Sprint(arg))
		}
		return models.Habit{}, fmt.Errorf("failed to read habit: %w", err)
	}

	days, err := completedDays(ctx, q, row.ID)
	if err != nil {
		return models.Habit{}, err
	}
	return row.toModel(days)
}

func (s *Store) AddHabit(ctx context.Context, habit models.Habit) error {
	return s.withinTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO habits (`+habitColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
			habit.ID, habit.Name, habit.Frequency, habit.Streak,
			formatTime(habit.CreatedAt), formatTime(habit.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to add habit: %w", err)
		}
		return insertLogs(ctx, tx, habit.ID, models.NormalizeDates(habit.CompletedDates), habit.CreatedAt)
	})
}

func insertLogs(ctx context.Context, tx *sqlx.Tx, habitID string, days []string, at time.Time) error {
	stmt := tx.Rebind("INSERT INTO habit_logs (habit_id, day, completed, created_at) VALUES (?, ?, ?, ?)")
	for _, day := range days {
		if _, err := tx.ExecContext(ctx, stmt, habitID, day, true, formatTime(at)); err != nil {
			return fmt.Errorf("failed to write habit log %s: %w", day, err)
		}
	}
	return nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	if err := s.ready(); err != nil {
		return models.Habit{}, err
	}
	return s.getHabit(ctx, s.db, "id = ?", id, false)
}

func (s *Store) GetAllHabits(ctx context.Context) ([]models.Habit, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var rows []habitRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+habitColumns+" FROM habits ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}

	var logs []models.HabitLog
	if err := s.db.SelectContext(ctx, &logs, s.db.Rebind(
		"SELECT habit_id, day, completed FROM habit_logs WHERE completed = ? ORDER BY habit_id, day"), true); err != nil {
		return nil, fmt.Errorf("failed to read habit logs: %w", err)
	}
	byHabit := make(map[string][]string, len(rows))
	for _, l := range logs {
		byHabit[l.HabitID] = append(byHabit[l.HabitID], l.Date)
	}

	habits := make([]models.Habit, 0, len(rows))
	for _, r := range rows {
		h, err := r.toModel(byHabit[r.ID])
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, nil
}

func (s *Store) UpdateHabit(ctx context.Context, habit models.Habit) error {
	if err := s.ready(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE habits SET name = ?, frequency = ?, streak = ?, updated_at = ? WHERE id = ?`),
		habit.Name, habit.Frequency, habit.Streak, formatTime(habit.UpdatedAt), habit.ID)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	return expectRow(res, "habit", habit.ID)
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	return s.withinTx(ctx, func(tx *sqlx.Tx) error {
		// explicit delete in case foreign keys are disabled on the connection
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM habit_logs WHERE habit_id = ?"), id); err != nil {
			return fmt.Errorf("failed to delete habit logs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM goal_links WHERE kind = 'habit' AND target_id = ?"), id); err != nil {
			return fmt.Errorf("failed to prune goal links: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM habits WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("failed to delete habit: %w", err)
		}
		return expectRow(res, "habit", id)
	})
}

func (s *Store) UpdateCompletions(ctx context.Context, habitID string, fn storage.CompletionFunc) (models.Habit, error) {
	var updated models.Habit
	err := s.withinTx(ctx, func(tx *sqlx.Tx) error {
		h, err := s.getHabit(ctx, tx, "id = ?", habitID, true)
		if err != nil {
			return err
		}

		next, streak, err := fn(h.CompletedDates)
		if err != nil {
			return err
		}
		next = models.NormalizeDates(next)

		now := time.Now()
		added, removed := diffDays(h.CompletedDates, next)
		for _, day := range removed {
			if _, err := tx.ExecContext(ctx, tx.Rebind(
				"DELETE FROM habit_logs WHERE habit_id = ? AND day = ?"), habitID, day); err != nil {
				return fmt.Errorf("failed to delete habit log %s: %w", day, err)
			}
		}
		if err := upsertLogs(ctx, tx, habitID, added, now); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(
			"UPDATE habits SET streak = ?, updated_at = ? WHERE id = ?"), streak, formatTime(now), habitID); err != nil {
			return fmt.Errorf("failed to update streak: %w", err)
		}

		h.CompletedDates = next
		h.Streak = streak
		h.UpdatedAt = now.UTC()
		updated = h
		return nil
	})
	return updated, err
}

// upsertLogs marks days completed, flipping imported completed=false rows rather than duplicating them.
func upsertLogs(ctx context.Context, tx *sqlx.Tx, habitID string, days []string, at time.Time) error {
	stmt := tx.Rebind(`
		INSERT INTO habit_logs (habit_id, day, completed, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (habit_id, day) DO UPDATE SET completed = excluded.completed`)
	for _, day := range days {
		if _, err := tx.ExecContext(ctx, stmt, habitID, day, true, formatTime(at)); err != nil {
			return fmt.Errorf("failed to write habit log %s: %w", day, err)
		}
	}
	return nil
}

func (s *Store) GetHabitLogs(ctx context.Context, habitID string) ([]models.HabitLog, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if _, err := s.getHabit(ctx, s.db, "id = ?", habitID, false); err != nil {
		return nil, err
	}
	var logs []models.HabitLog
	if err := s.db.SelectContext(ctx, &logs, s.db.Rebind(
		"SELECT habit_id, day, completed FROM habit_logs WHERE habit_id = ? ORDER BY day"), habitID); err != nil {
		return nil, fmt.Errorf("failed to read habit logs: %w", err)
	}
	return logs, nil
}

// diffDays compares two sorted, unique day lists.
func diffDays(before, after []string) (added, removed []string) {
	i, j := 0, 0
	for i < len(before) || j < len(after) {
		switch {
		case j == len(after) || (i < len(before) && before[i] < after[j]):
			removed = append(removed, before[i])
			i++
		case i == len(before) || after[j] < before[i]:
			added = append(added, after[j])
			j++
		default:
			i++
			j++
		}
	}
	return added, removed
}

func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.NotFound(kind, id)
	}
	return nil
}
