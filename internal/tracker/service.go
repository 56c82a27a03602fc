// Package tracker owns every mutation of habits, tasks and goals. It keeps the
// cached habit streak in step with the completion set and applies the delete cascades.
package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/utils"
	"github.com/julianstephens/tally/internal/validation"
)

// Service applies domain operations on top of a storage.Provider.
// It is safe for concurrent use.
type Service struct {
	store storage.Provider
	now   func() time.Time
	newID func() string
	locks *keyedMutex
	log   *log.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces the wall clock used for timestamps and for Today.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// New creates a Service over store
func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
		locks: newKeyedMutex(),
		log:   logger.Component("tracker"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying provider.
func (s *Service) Store() storage.Provider {
	return s.store
}

// Today resolves the current calendar date in the configured timezone.
// Outer surfaces call it once per invocation and pass the result down.
func (s *Service) Today(ctx context.Context) (string, *time.Location, error) {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return "", nil, err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return "", nil, fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
	}
	return utils.DayOf(s.now(), loc), loc, nil
}

// Settings returns the stored settings.
func (s *Service) Settings(ctx context.Context) (models.Settings, error) {
	return s.store.GetSettings(ctx)
}

// SetSetting updates one setting by key. Changing the streak policy or the timezone
// re-materializes every cached streak.
func (s *Service) SetSetting(ctx context.Context, key, value string) (models.Settings, error) {
	unlock := s.locks.Lock("settings")
	defer unlock()

	current, err := s.store.GetSettings(ctx)
	if err != nil {
		return models.Settings{}, err
	}

	data := models.SettingsToMap(current)
	if _, ok := data[key]; !ok {
		return models.Settings{}, validation.Invalidf("unknown setting %q", key)
	}
	data[key] = strings.TrimSpace(value)

	next, err := models.MapToSettings(data)
	if err != nil {
		return models.Settings{}, validation.Invalidf("%v", err)
	}
	if err := validation.NormalizeSettings(&next); err != nil {
		return models.Settings{}, err
	}
	if err := s.store.SaveSettings(ctx, next); err != nil {
		return models.Settings{}, err
	}
	s.log.Info("Setting updated", "key", key, "value", data[key])

	if next.StreakPolicy != current.StreakPolicy || next.Timezone != current.Timezone {
		today, _, err := s.Today(ctx)
		if err != nil {
			return next, err
		}
		if _, err := s.RecomputeStreaks(ctx, today); err != nil {
			return next, err
		}
	}
	return next, nil
}

// Snapshot is every record in the store at one point in time.
type Snapshot struct {
	Settings models.Settings `json:"settings" yaml:"settings"`
	Habits   []models.Habit  `json:"habits" yaml:"habits"`
	Tasks    []models.Task   `json:"tasks" yaml:"tasks"`
	Goals    []models.Goal   `json:"goals" yaml:"goals"`
}

// Snapshot loads settings and all three collections.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.Settings, err = s.store.GetSettings(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Habits, err = s.store.GetAllHabits(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Tasks, err = s.store.GetAllTasks(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Goals, err = s.store.GetAllGoals(ctx); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Validate checks the stored records against the model invariants as of today.
func (s *Service) Validate(ctx context.Context, today string) (validation.ValidationResult, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return validation.ValidationResult{}, err
	}
	v := validation.New(today, snap.Settings.StreakPolicy)
	return v.Validate(validation.Snapshot{Habits: snap.Habits, Tasks: snap.Tasks, Goals: snap.Goals}), nil
}

// resolve finds a record by exact ID, then by a unique ID prefix, then by name,
// exact before case-insensitive.
func resolve[T any](items []T, ref string, id func(T) string, name func(T) string) (T, bool) {
	var zero T
	for _, it := range items {
		if id(it) == ref {
			return it, true
		}
	}
	if len(ref) >= constants.MinIDPrefix {
		var match T
		n := 0
		for _, it := range items {
			if strings.HasPrefix(id(it), ref) {
				match = it
				n++
			}
		}
		if n == 1 {
			return match, true
		}
	}
	for _, it := range items {
		if name(it) == ref {
			return it, true
		}
	}
	for _, it := range items {
		if strings.EqualFold(name(it), ref) {
			return it, true
		}
	}
	return zero, false
}
