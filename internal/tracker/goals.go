package tracker

import (
	"context"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/validation"
)

// GoalInput holds the fields a goal is created with.
type GoalInput struct {
	Title       string
	Description string
	StartDate   string
	TargetDate  string
	Milestones  []string
}

// CreateGoal stores a new active goal. Progress starts at 0.
func (s *Service) CreateGoal(ctx context.Context, in GoalInput) (models.Goal, error) {
	now := s.now()
	g := models.Goal{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		StartDate:   in.StartDate,
		TargetDate:  in.TargetDate,
		Status:      constants.GoalStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, text := range in.Milestones {
		g.Milestones = append(g.Milestones, models.Milestone{Text: text})
	}
	if err := validation.NormalizeGoal(&g); err != nil {
		return models.Goal{}, err
	}
	if err := s.store.AddGoal(ctx, g); err != nil {
		return models.Goal{}, err
	}
	s.log.Info("Goal created", "id", g.ID, "title", g.Title)
	return g, nil
}

// ResolveGoal finds a goal by ID, unique ID prefix or title.
func (s *Service) ResolveGoal(ctx context.Context, ref string) (models.Goal, error) {
	goals, err := s.store.GetAllGoals(ctx)
	if err != nil {
		return models.Goal{}, err
	}
	g, ok := resolve(goals, ref,
		func(g models.Goal) string { return g.ID },
		func(g models.Goal) string { return g.Title })
	if !ok {
		return models.Goal{}, storage.NotFound("goal", ref)
	}
	return g, nil
}

func (s *Service) mutateGoal(ctx context.Context, id string, fn func(g *models.Goal) error) (models.Goal, error) {
	unlock := s.locks.Lock("goal:" + id)
	defer unlock()

	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return models.Goal{}, err
	}
	if err := fn(&g); err != nil {
		return models.Goal{}, err
	}
	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return models.Goal{}, err
	}
	return g, nil
}

// UpdateGoal applies a partial update and re-validates the goal.
func (s *Service) UpdateGoal(ctx context.Context, id string, patch models.GoalPatch) (models.Goal, error) {
	return s.mutateGoal(ctx, id, func(g *models.Goal) error {
		progress := g.Progress
		g.Apply(patch, s.now())
		if err := validation.NormalizeGoal(g); err != nil {
			return err
		}
		// a field edit must not override a manual progress value
		g.Progress = progress
		return nil
	})
}

// SetGoalProgress sets progress manually, clamped to [0, 100].
func (s *Service) SetGoalProgress(ctx context.Context, id string, progress int) (models.Goal, error) {
	return s.mutateGoal(ctx, id, func(g *models.Goal) error {
		g.SetProgress(progress, s.now())
		return nil
	})
}

// AdjustGoalProgress moves progress by delta, clamped to [0, 100].
func (s *Service) AdjustGoalProgress(ctx context.Context, id string, delta int) (models.Goal, error) {
	return s.mutateGoal(ctx, id, func(g *models.Goal) error {
		g.AdjustProgress(delta, s.now())
		return nil
	})
}

// AddMilestone appends a milestone and re-derives progress from the milestones.
func (s *Service) AddMilestone(ctx context.Context, id, text string) (models.Goal, error) {
	text, err := validation.Name("milestone", text)
	if err != nil {
		return models.Goal{}, err
	}
	return s.mutateGoal(ctx, id, func(g *models.Goal) error {
		g.AddMilestone(text, s.now())
		return nil
	})
}

// ToggleMilestone flips the milestone at index and re-derives progress.
func (s *Service) ToggleMilestone(ctx context.Context, id string, index int) (models.Goal, error) {
	return s.mutateGoal(ctx, id, func(g *models.Goal) error {
		if !g.ToggleMilestone(index, s.now()) {
			return validation.Invalidf("goal has no milestone %d", index+1)
		}
		return nil
	})
}

// RemoveMilestone deletes the milestone at index and re-derives progress.
func (s *Service) RemoveMilestone(ctx context.Context, id string, index int) (models.Goal, error) {
	return s.mutateGoal(ctx, id, func(g *models.Goal) error {
		if !g.RemoveMilestone(index, s.now()) {
			return validation.Invalidf("goal has no milestone %d", index+1)
		}
		return nil
	})
}

// LinkTask attaches a task to a goal. The task must exist when linked.
func (s *Service) LinkTask(ctx context.Context, goalID, taskID string) (models.Goal, error) {
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		return models.Goal{}, err
	}
	return s.mutateGoal(ctx, goalID, func(g *models.Goal) error {
		if g.LinkTask(taskID) {
			g.UpdatedAt = s.now()
		}
		return nil
	})
}

// UnlinkTask detaches a task from a goal. Unknown task IDs are ignored.
func (s *Service) UnlinkTask(ctx context.Context, goalID, taskID string) (models.Goal, error) {
	return s.mutateGoal(ctx, goalID, func(g *models.Goal) error {
		if g.UnlinkTask(taskID) {
			g.UpdatedAt = s.now()
		}
		return nil
	})
}

// LinkHabit attaches a habit to a goal. The habit must exist when linked.
func (s *Service) LinkHabit(ctx context.Context, goalID, habitID string) (models.Goal, error) {
	if _, err := s.store.GetHabit(ctx, habitID); err != nil {
		return models.Goal{}, err
	}
	return s.mutateGoal(ctx, goalID, func(g *models.Goal) error {
		if g.LinkHabit(habitID) {
			g.UpdatedAt = s.now()
		}
		return nil
	})
}

// UnlinkHabit detaches a habit from a goal.
func (s *Service) UnlinkHabit(ctx context.Context, goalID, habitID string) (models.Goal, error) {
	return s.mutateGoal(ctx, goalID, func(g *models.Goal) error {
		if g.UnlinkHabit(habitID) {
			g.UpdatedAt = s.now()
		}
		return nil
	})
}

// ToggleGoalCompleted flips a goal between active and completed.
func (s *Service) ToggleGoalCompleted(ctx context.Context, id string) (models.Goal, error) {
	return s.mutateGoal(ctx, id, func(g *models.Goal) error {
		g.ToggleCompleted(s.now())
		return nil
	})
}

// DeleteGoal removes a goal.
func (s *Service) DeleteGoal(ctx context.Context, id string) error {
	unlock := s.locks.Lock("goal:" + id)
	defer unlock()

	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return err
	}
	s.log.Info("Goal deleted", "id", id)
	return nil
}
