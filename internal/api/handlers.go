package api

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/danielgtaylor/huma/v2"

	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/stats"
	"github.com/julianstephens/tally/internal/tracker"
	"github.com/julianstephens/tally/internal/utils"
)

type handlers struct {
	tracker *tracker.Service
	log     *log.Logger
}

// todayInput lets a caller pin the reference day; otherwise the configured timezone decides.
type todayInput struct {
	Today string `query:"today" doc:"Reference day (YYYY-MM-DD), defaults to today in the configured timezone"`
}

func (h *handlers) today(ctx context.Context, override string) (string, error) {
	if override != "" {
		if _, err := utils.ParseDay(override); err != nil {
			return "", err
		}
		return override, nil
	}
	today, _, err := h.tracker.Today(ctx)
	return today, err
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

type statsOutput struct {
	Body stats.Bundle
}

func (h *handlers) registerStats(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Dashboard summary numbers",
	}, func(ctx context.Context, input *todayInput) (*statsOutput, error) {
		today, err := h.today(ctx, input.Today)
		if err != nil {
			return nil, handleError(h.log, err)
		}
		d, err := h.tracker.Dashboard(ctx, today)
		if err != nil {
			return nil, handleError(h.log, err)
		}
		return &statsOutput{Body: d.Stats}, nil
	})
}

type heatmapInput struct {
	Today string `query:"today" doc:"Reference day (YYYY-MM-DD), defaults to today in the configured timezone"`
	Days  int    `query:"days" minimum:"0" maximum:"366" doc:"Window length, defaults to the heatmap_days setting"`
}

type heatmapOutput struct {
	Body []stats.HeatmapDay
}

func (h *handlers) registerHeatmap(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "heatmap",
		Method:      http.MethodGet,
		Path:        "/heatmap",
		Summary:     "Daily habit completion heatmap",
	}, func(ctx context.Context, input *heatmapInput) (*heatmapOutput, error) {
		today, err := h.today(ctx, input.Today)
		if err != nil {
			return nil, handleError(h.log, err)
		}
		snap, err := h.tracker.Snapshot(ctx)
		if err != nil {
			return nil, handleError(h.log, err)
		}
		days := input.Days
		if days == 0 {
			days = snap.Settings.HeatmapDays
		}
		cells, err := stats.Heatmap(snap.Habits, today, days)
		if err != nil {
			return nil, handleError(h.log, err)
		}
		return &heatmapOutput{Body: cells}, nil
	})
}

type analyticsBody struct {
	Weekly      []stats.WeekBucket  `json:"weekly"`
	HabitRates  []stats.HabitRate   `json:"habit_rates"`
	Leaderboard []stats.StreakEntry `json:"leaderboard"`
}

type analyticsOutput struct {
	Body analyticsBody
}

func (h *handlers) registerAnalytics(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "analytics-weekly",
		Method:      http.MethodGet,
		Path:        "/analytics/weekly",
		Summary:     "Weekly task completions, habit rates and streak leaderboard",
	}, func(ctx context.Context, input *todayInput) (*analyticsOutput, error) {
		today, err := h.today(ctx, input.Today)
		if err != nil {
			return nil, handleError(h.log, err)
		}
		d, err := h.tracker.Dashboard(ctx, today)
		if err != nil {
			return nil, handleError(h.log, err)
		}
		return &analyticsOutput{Body: analyticsBody{
			Weekly:      d.Weekly,
			HabitRates:  d.HabitRates,
			Leaderboard: d.Leaderboard,
		}}, nil
	})
}

// habitView is a habit with its completion state for the reference day.
type habitView struct {
	models.Habit
	CompletedToday bool `json:"completed_today"`
}

type habitsOutput struct {
	Body []habitView
}

type completionInput struct {
	ID    string `path:"id" doc:"Habit ID, unique ID prefix or name"`
	Date  string `path:"date" doc:"Completion day (YYYY-MM-DD)"`
	Today string `query:"today" doc:"Reference day (YYYY-MM-DD), defaults to today in the configured timezone"`
}

type habitOutput struct {
	Body habitView
}

func (h *handlers) registerHabits(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-habits",
		Method:      http.MethodGet,
		Path:        "/habits",
		Summary:     "List habits",
	}, func(ctx context.Context, input *todayInput) (*habitsOutput, error) {
		today, err := h.today(ctx, input.Today)
		if err != nil {
			return nil, handleError(h.log, err)
		}
		habits, err := h.tracker.Habits(ctx, today)
		if err != nil {
			return nil, handleError(h.log, err)
		}
		out := make([]habitView, 0, len(habits))
		for _, hb := range habits {
			out = append(out, habitView{Habit: hb, CompletedToday: hb.CompletedOn(today)})
		}
		return &habitsOutput{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "mark-completion",
		Method:      http.MethodPut,
		Path:        "/habits/{id}/completions/{date}",
		Summary:     "Mark a habit complete on a day",
	}, func(ctx context.Context, input *completionInput) (*habitOutput, error) {
		return h.changeCompletion(ctx, input, h.tracker.MarkComplete)
	})

	huma.Register(api, huma.Operation{
		OperationID: "unmark-completion",
		Method:      http.MethodDelete,
		Path:        "/habits/{id}/completions/{date}",
		Summary:     "Remove a habit completion",
	}, func(ctx context.Context, input *completionInput) (*habitOutput, error) {
		return h.changeCompletion(ctx, input, h.tracker.UnmarkComplete)
	})
}

type completionFunc func(ctx context.Context, habitID, day, today string) (models.Habit, error)

func (h *handlers) changeCompletion(ctx context.Context, input *completionInput, fn completionFunc) (*habitOutput, error) {
	today, err := h.today(ctx, input.Today)
	if err != nil {
		return nil, handleError(h.log, err)
	}
	habit, err := h.tracker.ResolveHabit(ctx, input.ID)
	if err != nil {
		return nil, handleError(h.log, err)
	}
	habit, err = fn(ctx, habit.ID, input.Date, today)
	if err != nil {
		return nil, handleError(h.log, err)
	}
	return &habitOutput{Body: habitView{Habit: habit, CompletedToday: habit.CompletedOn(today)}}, nil
}
