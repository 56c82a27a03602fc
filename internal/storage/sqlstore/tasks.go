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

type taskRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Priority    string         `db:"priority"`
	Status      string         `db:"status"`
	DueDate     string         `db:"due_date"`
	Tags        string         `db:"tags"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
	CompletedAt sql.NullString `db:"completed_at"`
}

const taskColumns = "id, title, description, priority, status, due_date, tags, created_at, updated_at, completed_at"

func (r taskRow) toModel() (models.Task, error) {
	t := models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    constants.Priority(r.Priority),
		Status:      constants.TaskStatus(r.Status),
		DueDate:     r.DueDate,
	}
	if err := json.Unmarshal([]byte(r.Tags), &t.Tags); err != nil {
		return models.Task{}, fmt.Errorf("failed to parse tags of task %s: %w", r.ID, err)
	}

	var err error
	if t.CreatedAt, err = parseTime("created_at", r.CreatedAt); err != nil {
		return models.Task{}, err
	}
	if t.UpdatedAt, err = parseTime("updated_at", r.UpdatedAt); err != nil {
		return models.Task{}, err
	}
	if r.CompletedAt.Valid {
		completed, err := parseTime("completed_at", r.CompletedAt.String)
		if err != nil {
			return models.Task{}, err
		}
		t.CompletedAt = &completed
	}
	return t, nil
}

func taskArgs(t models.Task) ([]any, error) {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	tagJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize tags: %w", err)
	}
	var completed sql.NullString
	if t.CompletedAt != nil {
		completed = sql.NullString{String: formatTime(*t.CompletedAt), Valid: true}
	}
	return []any{
		t.Title, t.Description, string(t.Priority), string(t.Status), t.DueDate, string(tagJSON),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt), completed, t.ID,
	}, nil
}

func (s *Store) AddTask(ctx context.Context, task models.Task) error {
	if err := s.ready(); err != nil {
		return err
	}
	args, err := taskArgs(task)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO tasks (title, description, priority, status, due_date, tags, created_at, updated_at, completed_at, id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`), args...)
	if err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	if err := s.ready(); err != nil {
		return models.Task{}, err
	}
	var row taskRow
	if err := s.db.GetContext(ctx, &row, s.db.Rebind("SELECT "+taskColumns+" FROM tasks WHERE id = ?"), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, storage.NotFound("task", id)
		}
		return models.Task{}, fmt.Errorf("failed to read task: %w", err)
	}
	return row.toModel()
}

func (s *Store) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT "+taskColumns+" FROM tasks ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	tasks := make([]models.Task, 0, len(rows))
	for _, r := range rows {
		t, err := r.toModel()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, task models.Task) error {
	if err := s.ready(); err != nil {
		return err
	}
	args, err := taskArgs(task)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE tasks SET title = ?, description = ?, priority = ?, status = ?, due_date = ?, tags = ?,
			created_at = ?, updated_at = ?, completed_at = ?
		WHERE id = ?`), args...)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return expectRow(res, "task", task.ID)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.withinTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM goal_links WHERE kind = 'task' AND target_id = ?"), id); err != nil {
			return fmt.Errorf("failed to prune goal links: %w", err)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM tasks WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}
		return expectRow(res, "task", id)
	})
}
