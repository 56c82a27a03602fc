package validation

import (
	"fmt"
	"strings"

	"github.com/julianstephens/tally/internal/constants"
	apperrors "github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/streak"
	"github.com/julianstephens/tally/internal/utils"
)

// ErrInvalid is returned when an incoming record cannot be normalized.
var ErrInvalid = apperrors.ErrInvalidInput

// Invalidf wraps ErrInvalid with a formatted message.
func Invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// TaskInput is a task as it arrives from a flag, an API body or an import file,
// with loosely-typed enum fields.
type TaskInput struct {
	Title       string
	Description string
	Priority    string
	Status      string
	DueDate     string
	Tags        []string
}

// Day checks a calendar date. Empty is allowed when optional is true.
func Day(field, day string, optional bool) error {
	if day == "" && optional {
		return nil
	}
	if !utils.IsValidDay(day) {
		return Invalidf("%s must be YYYY-MM-DD, got %q", field, day)
	}
	return nil
}

// Name trims a required display name.
func Name(field, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", Invalidf("%s is required", field)
	}
	return name, nil
}

// NormalizeHabit trims the name, lowercases the frequency and cleans the completion dates.
func NormalizeHabit(h *models.Habit) error {
	name, err := Name("habit name", h.Name)
	if err != nil {
		return err
	}
	h.Name = name

	h.Frequency = strings.ToLower(strings.TrimSpace(h.Frequency))
	if h.Frequency == "" {
		h.Frequency = constants.DefaultFrequency
	}

	for _, d := range h.CompletedDates {
		if err := Day("completed date", d, false); err != nil {
			return err
		}
	}
	h.CompletedDates = models.NormalizeDates(h.CompletedDates)
	return nil
}

// NormalizeTask converts a TaskInput into a task with canonical enums.
// The caller assigns the ID and timestamps.
func NormalizeTask(in TaskInput) (models.Task, error) {
	title, err := Name("task title", in.Title)
	if err != nil {
		return models.Task{}, err
	}
	priority, err := models.ParsePriority(in.Priority)
	if err != nil {
		return models.Task{}, Invalidf("%v", err)
	}
	status, err := models.ParseTaskStatus(in.Status)
	if err != nil {
		return models.Task{}, Invalidf("%v", err)
	}
	if err := Day("due date", in.DueDate, true); err != nil {
		return models.Task{}, err
	}

	return models.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Status:      status,
		DueDate:     in.DueDate,
		Tags:        models.NormalizeTags(in.Tags),
	}, nil
}

// NormalizeGoal trims the title, checks the dates, clamps progress and defaults the status.
func NormalizeGoal(g *models.Goal) error {
	title, err := Name("goal title", g.Title)
	if err != nil {
		return err
	}
	g.Title = title

	if err := Day("start date", g.StartDate, true); err != nil {
		return err
	}
	if err := Day("target date", g.TargetDate, true); err != nil {
		return err
	}
	if g.StartDate != "" && g.TargetDate != "" && g.TargetDate < g.StartDate {
		return Invalidf("target date %s is before start date %s", g.TargetDate, g.StartDate)
	}

	switch constants.GoalStatus(strings.ToLower(string(g.Status))) {
	case "", constants.GoalStatusActive:
		g.Status = constants.GoalStatusActive
	case constants.GoalStatusCompleted:
		g.Status = constants.GoalStatusCompleted
	default:
		return Invalidf("unknown goal status %q", g.Status)
	}

	g.Progress = models.ClampProgress(g.Progress)
	if p, ok := models.MilestoneProgress(g.Milestones); ok {
		g.Progress = p
	}
	return nil
}

// NormalizeSettings checks every settings field and canonicalizes the streak policy.
func NormalizeSettings(s *models.Settings) error {
	if !utils.ValidateTimezone(s.Timezone) {
		return Invalidf("unknown timezone %q", s.Timezone)
	}
	policy, err := streak.ParsePolicy(string(s.StreakPolicy))
	if err != nil {
		return Invalidf("%v", err)
	}
	s.StreakPolicy = policy
	if s.HeatmapDays < 1 || s.HeatmapDays > constants.MaxHeatmapDays {
		return Invalidf("heatmap_days must be between 1 and %d", constants.MaxHeatmapDays)
	}
	if s.TrendWeeks < 1 || s.TrendWeeks > constants.MaxTrendWeeks {
		return Invalidf("trend_weeks must be between 1 and %d", constants.MaxTrendWeeks)
	}
	return nil
}
