package tracker

import (
	"context"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/validation"
)

// CreateTask normalizes in and stores it as a new task.
func (s *Service) CreateTask(ctx context.Context, in validation.TaskInput) (models.Task, error) {
	t, err := validation.NormalizeTask(in)
	if err != nil {
		return models.Task{}, err
	}
	now := s.now()
	t.ID = s.newID()
	t.CreatedAt = now
	status := t.Status
	t.Status = constants.TaskStatusPending
	t.SetStatus(status, now)

	if err := s.store.AddTask(ctx, t); err != nil {
		return models.Task{}, err
	}
	s.log.Info("Task created", "id", t.ID, "title", t.Title)
	return t, nil
}

// ResolveTask finds a task by ID, unique ID prefix or title.
func (s *Service) ResolveTask(ctx context.Context, ref string) (models.Task, error) {
	tasks, err := s.store.GetAllTasks(ctx)
	if err != nil {
		return models.Task{}, err
	}
	t, ok := resolve(tasks, ref,
		func(t models.Task) string { return t.ID },
		func(t models.Task) string { return t.Title })
	if !ok {
		return models.Task{}, storage.NotFound("task", ref)
	}
	return t, nil
}

func (s *Service) mutateTask(ctx context.Context, id string, fn func(t *models.Task) error) (models.Task, error) {
	unlock := s.locks.Lock("task:" + id)
	defer unlock()

	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if err := fn(&t); err != nil {
		return models.Task{}, err
	}
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// UpdateTask applies a partial update. Priority and due date are validated.
func (s *Service) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	if patch.Title != nil {
		title, err := validation.Name("task title", *patch.Title)
		if err != nil {
			return models.Task{}, err
		}
		patch.Title = &title
	}
	if patch.DueDate != nil {
		if err := validation.Day("due date", *patch.DueDate, true); err != nil {
			return models.Task{}, err
		}
	}
	if patch.Priority != nil {
		p, err := models.ParsePriority(string(*patch.Priority))
		if err != nil {
			return models.Task{}, validation.Invalidf("%v", err)
		}
		patch.Priority = &p
	}

	return s.mutateTask(ctx, id, func(t *models.Task) error {
		t.Apply(patch, s.now())
		return nil
	})
}

// SetTaskStatus moves a task to the status named by raw, accepting the loose spellings.
func (s *Service) SetTaskStatus(ctx context.Context, id, raw string) (models.Task, error) {
	status, err := models.ParseTaskStatus(raw)
	if err != nil {
		return models.Task{}, validation.Invalidf("%v", err)
	}
	return s.mutateTask(ctx, id, func(t *models.Task) error {
		t.SetStatus(status, s.now())
		return nil
	})
}

// ToggleTaskDone flips a task between done and pending.
func (s *Service) ToggleTaskDone(ctx context.Context, id string) (models.Task, error) {
	return s.mutateTask(ctx, id, func(t *models.Task) error {
		if t.IsDone() {
			t.SetStatus(constants.TaskStatusPending, s.now())
		} else {
			t.SetStatus(constants.TaskStatusDone, s.now())
		}
		return nil
	})
}

// DeleteTask removes a task and prunes it from every goal.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	unlock := s.locks.Lock("task:" + id)
	defer unlock()

	if err := s.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	s.log.Info("Task deleted", "id", id)
	return nil
}
