package storage

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/julianstephens/tally/internal/models"
)

// Document is the on-disk shape of the JSON store. Each habit embeds its completion dates.
type Document struct {
	Version  int                     `json:"version"`
	Settings models.Settings         `json:"settings"`
	Habits   map[string]models.Habit `json:"habits"`
	Tasks    map[string]models.Task  `json:"tasks"`
	Goals    map[string]models.Goal  `json:"goals"`
}

// JSONStore keeps the whole document in memory and rewrites the file on every mutation.
type JSONStore struct {
	path string

	mu  sync.Mutex
	doc *Document
}

func NewJSONStore(configPath string) *JSONStore {
	return &JSONStore{
		path: configPath,
	}
}

func (s *JSONStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Check if file already exists
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.doc = &Document{
		Version:  1,
		Settings: models.DefaultSettings(),
	}
	s.ensureMaps()

	return s.save()
}

func (s *JSONStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotInitialized, s.path)
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	s.doc = doc
	s.ensureMaps()

	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func (s *JSONStore) GetConfigPath() string {
	return s.path
}

func (s *JSONStore) ensureMaps() {
	if s.doc.Habits == nil {
		s.doc.Habits = make(map[string]models.Habit)
	}
	if s.doc.Tasks == nil {
		s.doc.Tasks = make(map[string]models.Task)
	}
	if s.doc.Goals == nil {
		s.doc.Goals = make(map[string]models.Goal)
	}
}

// save writes to a temp file and renames it over the document. Callers hold mu.
func (s *JSONStore) save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}

	return nil
}

// begin locks the store and checks it is loaded. The returned func unlocks.
func (s *JSONStore) begin(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.doc == nil {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	return s.mu.Unlock, nil
}

func (s *JSONStore) GetSettings(ctx context.Context) (models.Settings, error) {
	unlock, err := s.begin(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	defer unlock()
	return s.doc.Settings, nil
}

func (s *JSONStore) SaveSettings(ctx context.Context, settings models.Settings) error {
	unlock, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer unlock()
	s.doc.Settings = settings
	return s.save()
}

// Habits

func cloneHabit(h models.Habit) models.Habit {
	h.CompletedDates = slices.Clone(h.CompletedDates)
	return h
}

func (s *JSONStore) AddHabit(ctx context.Context, habit models.Habit) error {
	unlock, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, exists := s.doc.Habits[habit.ID]; exists {
		return fmt.Errorf("habit %s already exists", habit.ID)
	}
	habit.CompletedDates = models.NormalizeDates(habit.CompletedDates)
	s.doc.Habits[habit.ID] = habit
	return s.save()
}

func (s *JSONStore) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	unlock, err := s.begin(ctx)
	if err != nil {
		return models.Habit{}, err
	}
	defer unlock()

	h, ok := s.doc.Habits[id]
	if !ok {
		return models.Habit{}, NotFound("habit", id)
	}
	return cloneHabit(h), nil
}

func (s *JSONStore) GetAllHabits(ctx context.Context) ([]models.Habit, error) {
	unlock, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	habits := make([]models.Habit, 0, len(s.doc.Habits))
	for _, h := range s.doc.Habits {
		habits = append(habits, cloneHabit(h))
	}
	sortByCreated(habits, func(h models.Habit) (time.Time, string) { return h.CreatedAt, h.ID })
	return habits, nil
}

func (s *JSONStore) UpdateHabit(ctx context.Context, habit models.Habit) error {
	unlock, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	existing, ok := s.doc.Habits[habit.ID]
	if !ok {
		return NotFound("habit", habit.ID)
	}
	existing.Name = habit.Name
	existing.Frequency = habit.Frequency
	existing.Streak = habit.Streak
	existing.UpdatedAt = habit.UpdatedAt
	s.doc.Habits[habit.ID] = existing
	return s.save()
}

func (s *JSONStore) DeleteHabit(ctx context.Context, id string) error {
	unlock, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := s.doc.Habits[id]; !ok {
		return NotFound("habit", id)
	}
	delete(s.doc.Habits, id)
	for gid, g := range s.doc.Goals {
		if g.UnlinkHabit(id) {
			s.doc.Goals[gid] = g
		}
	}
	return s.save()
}

func (s *JSONStore) UpdateCompletions(ctx context.Context, habitID string, fn CompletionFunc) (models.Habit, error) {
	unlock, err := s.begin(ctx)
	if err != nil {
		return models.Habit{}, err
	}
	defer unlock()

	h, ok := s.doc.Habits[habitID]
	if !ok {
		return models.Habit{}, NotFound("habit", habitID)
	}

	next, streak, err := fn(slices.Clone(h.CompletedDates))
	if err != nil {
		return models.Habit{}, err
	}
	h.CompletedDates = models.NormalizeDates(next)
	h.Streak = streak
	h.UpdatedAt = time.Now()
	s.doc.Habits[habitID] = h

	if err := s.save(); err != nil {
		return models.Habit{}, err
	}
	return cloneHabit(h), nil
}

func (s *JSONStore) GetHabitLogs(ctx context.Context, habitID string) ([]models.HabitLog, error) {
	unlock, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	h, ok := s.doc.Habits[habitID]
	if !ok {
		return nil, NotFound("habit", habitID)
	}
	return h.Logs(), nil
}

// Tasks

func cloneTask(t models.Task) models.Task {
	t.Tags = slices.Clone(t.Tags)
	return t
}

func (s *JSONStore) AddTask(ctx context.Context, task models.Task) error {
	unlock, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, exists := s.doc.Tasks[task.ID]; exists {
		return fmt.Errorf("task %s already exists", task.ID)
	}
	s.doc.Tasks[task.ID] = cloneTask(task)
	return s.save()
}

func (s *JSONStore) GetTask(ctx context.Context, id string) (models.Task, error) {
	unlock, err := s.begin(ctx)
	if err != nil {
		return models.Task{}, err
	}
	defer unlock()

	t, ok := s.doc.Tasks[id]
	if !ok {
		return models.Task{}, NotFound("task", id)
	}
	return cloneTask(t), nil
}

func (s *JSONStore) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	unlock, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	tasks := make([]models.Task, 0, len(s.doc.Tasks))
	for _, t := range s.doc.Tasks {
		tasks = append(tasks, cloneTask(t))
	}
	sortByCreated(tasks, func(t models.Task) (time.Time, string) { return t.CreatedAt, t.ID })
	return tasks, nil
}

func (s *JSONStore) UpdateTask(ctx context.Context, task models.Task) error {
	unlock, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := s.doc.Tasks[task.ID]; !ok {
		return NotFound("task", task.ID)
	}
	s.doc.Tasks[task.ID] = cloneTask(task)
	return s.save()
}

func (s *JSONStore) DeleteTask(ctx context.Context, id string) error {
	unlock, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := s.doc.Tasks[id]; !ok {
		return NotFound("task", id)
	}
	delete(s.doc.Tasks, id)
	for gid, g := range s.doc.Goals {
		if g.UnlinkTask(id) {
			s.doc.Goals[gid] = g
		}
	}
	return s.save()
}

// Goals

func cloneGoal(g models.Goal) models.Goal {
	g.Milestones = slices.Clone(g.Milestones)
	g.LinkedTaskIDs = slices.Clone(g.LinkedTaskIDs)
	g.LinkedHabitIDs = slices.Clone(g.LinkedHabitIDs)
	return g
}

func (s *JSONStore) AddGoal(ctx context.Context, goal models.Goal) error {
	unlock, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, exists := s.doc.Goals[goal.ID]; exists {
		return fmt.Errorf("goal %s already exists", goal.ID)
	}
	s.doc.Goals[goal.ID] = cloneGoal(goal)
	return s.save()
}

func (s *JSONStore) GetGoal(ctx context.Context, id string) (models.Goal, error) {
	unlock, err := s.begin(ctx)
	if err != nil {
		return models.Goal{}, err
	}
	defer unlock()

	g, ok := s.doc.Goals[id]
	if !ok {
		return models.Goal{}, NotFound("goal", id)
	}
	return cloneGoal(g), nil
}

func (s *JSONStore) GetAllGoals(ctx context.Context) ([]models.Goal, error) {
	unlock, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	goals := make([]models.Goal, 0, len(s.doc.Goals))
	for _, g := range s.doc.Goals {
		goals = append(goals, cloneGoal(g))
	}
	sortByCreated(goals, func(g models.Goal) (time.Time, string) { return g.CreatedAt, g.ID })
	return goals, nil
}

func (s *JSONStore) UpdateGoal(ctx context.Context, goal models.Goal) error {
	unlock, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := s.doc.Goals[goal.ID]; !ok {
		return NotFound("goal", goal.ID)
	}
	s.doc.Goals[goal.ID] = cloneGoal(goal)
	return s.save()
}

func (s *JSONStore) DeleteGoal(ctx context.Context, id string) error {
	unlock, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := s.doc.Goals[id]; !ok {
		return NotFound("goal", id)
	}
	delete(s.doc.Goals, id)
	return s.save()
}

// sortByCreated orders records by creation time, then ID, matching the SQL stores.
func sortByCreated[T any](items []T, key func(T) (time.Time, string)) {
	slices.SortFunc(items, func(a, b T) int {
		ta, ia := key(a)
		tb, ib := key(b)
		if c := ta.Compare(tb); c != 0 {
			return c
		}
		return cmp.Compare(ia, ib)
	})
}
