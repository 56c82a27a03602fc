package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
)

const (
	linkTask  = "task"
	linkHabit = "habit"
)

type goalRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	StartDate   string `db:"start_date"`
	TargetDate  string `db:"target_date"`
	Progress    int    `db:"progress"`
	Status      string `db:"status"`
	Milestones  string `db:"milestones"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

type goalLink struct {
	GoalID   string `db:"goal_id"`
	Kind     string `db:"kind"`
	TargetID string `db:"target_id"`
}

const goalColumns = "id, title, description, start_date, target_date, progress, status, milestones, created_at, updated_at"

func (r goalRow) toModel(links []goalLink) (models.Goal, error) {
	g := models.Goal{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		StartDate:   r.StartDate,
		TargetDate:  r.TargetDate,
		Progress:    r.Progress,
		Status:      constants.GoalStatus(r.Status),
	}
	if err := json.Unmarshal([]byte(r.Milestones), &g.Milestones); err != nil {
		return models.Goal{}, fmt.Errorf("failed to parse milestones of goal %s: %w", r.ID, err)
	}
	var err error
	if g.CreatedAt, err = parseTime("created_at", r.CreatedAt); err != nil {
		return models.Goal{}, err
	}
	if g.UpdatedAt, err = parseTime("updated_at", r.UpdatedAt); err != nil {
		return models.Goal{}, err
	}
	for _, l := range links {
		switch l.Kind {
		case linkTask:
			g.LinkedTaskIDs = append(g.LinkedTaskIDs, l.TargetID)
		case linkHabit:
			g.LinkedHabitIDs = append(g.LinkedHabitIDs, l.TargetID)
		}
	}
	return g, nil
}

func goalArgs(g models.Goal) ([]any, error) {
	ms := g.Milestones
	if ms == nil {
		ms = []models.Milestone{}
	}
	msJSON, err := json.Marshal(ms)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize milestones: %w", err)
	}
	return []any{
		g.Title, g.Description, g.StartDate, g.TargetDate, g.Progress, string(g.Status), string(msJSON),
		formatTime(g.CreatedAt), formatTime(g.UpdatedAt), g.ID,
	}, nil
}

// replaceLinks rewrites a goal's links, keeping their order through the position column.
func replaceLinks(ctx context.Context, tx *sqlx.Tx, g models.Goal) error {
	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM goal_links WHERE goal_id = ?"), g.ID); err != nil {
		return fmt.Errorf("failed to clear goal links: %w", err)
	}
	stmt := tx.Rebind("INSERT INTO goal_links (goal_id, kind, target_id, position) VALUES (?, ?, ?, ?)")
	for i, id := range g.LinkedTaskIDs {
		if _, err := tx.ExecContext(ctx, stmt, g.ID, linkTask, id, i); err != nil {
			return fmt.Errorf("failed to link task %s: %w", id, err)
		}
	}
	for i, id := range g.LinkedHabitIDs {
		if _, err := tx.ExecContext(ctx, stmt, g.ID, linkHabit, id, i); err != nil {
			return fmt.Errorf("failed to link habit %s: %w", id, err)
		}
	}
	return nil
}

func (s *Store) AddGoal(ctx context.Context, goal models.Goal) error {
	args, err := goalArgs(goal)
	if err != nil {
		return err
	}
	return s.withinTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO goals (title, description, start_date, target_date, progress, status, milestones, created_at, updated_at, id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`), args...); err != nil {
			return fmt.Errorf("failed to add goal: %w", err)
		}
		return replaceLinks(ctx, tx, goal)
	})
}

func (s *Store) GetGoal(ctx context.Context, id string) (models.Goal, error) {
	if err := s.ready(); err != nil {
		return models.Goal{}, err
	}
	var row goalRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT "+goalColumns+" FROM goals WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Goal{}, storage.NotFound("goal", id)
		}
		return models.Goal{}, fmt.Errorf("failed to read goal: %w", err)
	}
	var links []goalLink
	if err := s.db.SelectContext(ctx, &links, s.db.Rebind(
		"SELECT goal_id, kind, target_id FROM goal_links WHERE goal_id = ? ORDER BY kind, position"), id); err != nil {
		return models.Goal{}, fmt.Errorf("failed to read goal links: %w", err)
	}
	return row.toModel(links)
}

func (s *Store) GetAllGoals(ctx context.Context) ([]models.Goal, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var rows []goalRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+goalColumns+" FROM goals ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	var links []goalLink
	if err := s.db.SelectContext(ctx, &links,
		"SELECT goal_id, kind, target_id FROM goal_links ORDER BY goal_id, kind, position"); err != nil {
		return nil, fmt.Errorf("failed to read goal links: %w", err)
	}
	byGoal := make(map[string][]goalLink, len(rows))
	for _, l := range links {
		byGoal[l.GoalID] = append(byGoal[l.GoalID], l)
	}

	goals := make([]models.Goal, 0, len(rows))
	for _, r := range rows {
		g, err := r.toModel(byGoal[r.ID])
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, nil
}

func (s *Store) UpdateGoal(ctx context.Context, goal models.Goal) error {
	args, err := goalArgs(goal)
	if err != nil {
		return err
	}
	return s.withinTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE goals SET title = ?, description = ?, start_date = ?, target_date = ?, progress = ?,
				status = ?, milestones = ?, created_at = ?, updated_at = ?
			WHERE id = ?`), args...)
		if err != nil {
			return fmt.Errorf("failed to update goal: %w", err)
		}
		if err := expectRow(res, "goal", goal.ID); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, goal)
	})
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	return s.withinTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM goal_links WHERE goal_id = ?"), id); err != nil {
			return fmt.Errorf("failed to delete goal links: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM goals WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("failed to delete goal: %w", err)
		}
		return expectRow(res, "goal", id)
	})
}
