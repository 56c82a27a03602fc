package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/storage/sqlstore"
	"github.com/julianstephens/tally/internal/tracker"
)

var clock = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestContext(t *testing.T, store storage.Provider) (*Context, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Load(ctx))
	t.Cleanup(func() { store.Close() })

	var out bytes.Buffer
	c := NewContext(ctx, store, &out, tracker.WithClock(func() time.Time { return clock }))
	c.Confirm = func(string) (bool, error) { return true, nil }
	_, err := c.Tracker.SetSetting(ctx, constants.SettingTimezone, "UTC")
	require.NoError(t, err)
	return c, &out
}

func jsonContext(t *testing.T) (*Context, *bytes.Buffer) {
	return newTestContext(t, storage.NewJSONStore(filepath.Join(t.TempDir(), "tally.json")))
}

func TestNewContextIsPlainForBuffers(t *testing.T) {
	c, _ := jsonContext(t)
	assert.True(t, c.Plain)
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestHabitCommands(t *testing.T) {
	c, out := jsonContext(t)

	require.NoError(t, (&HabitAddCmd{Name: "Read", Frequency: "daily"}).Run(c))
	assert.Contains(t, out.String(), `Added habit "Read"`)

	out.Reset()
	require.NoError(t, (&HabitMarkCmd{Habit: "read", Date: "2024-01-09"}).Run(c))
	require.NoError(t, (&HabitMarkCmd{Habit: "Read"}).Run(c))
	assert.Contains(t, out.String(), "Marked \"Read\" on 2024-01-10. Streak: 2")

	out.Reset()
	require.NoError(t, (&HabitToggleCmd{Habit: "Read"}).Run(c))
	assert.Contains(t, out.String(), "Unmarked \"Read\" on 2024-01-10. Streak: 1")

	out.Reset()
	require.NoError(t, (&HabitListCmd{}).Run(c))
	assert.Contains(t, out.String(), "Read")
	assert.Contains(t, out.String(), "daily")

	out.Reset()
	require.NoError(t, (&HabitLogCmd{Habit: "Read", Days: 3}).Run(c))
	assert.Contains(t, out.String(), "Read (streak 1, 1 completion(s))")
	assert.Contains(t, out.String(), "2024-01-09 x")
	assert.Contains(t, out.String(), "2024-01-10 .")
	assert.Contains(t, out.String(), "  .x.\n")

	out.Reset()
	require.NoError(t, (&HabitRenameCmd{Habit: "Read", Name: "Read books"}).Run(c))
	assert.Contains(t, out.String(), `Renamed "Read" to "Read books"`)

	require.NoError(t, (&HabitRecomputeCmd{}).Run(c))

	assert.Error(t, (&HabitMarkCmd{Habit: "Read books", Date: "2024-01-11"}).Run(c))
	assert.Error(t, (&HabitMarkCmd{Habit: "missing"}).Run(c))
	assert.Error(t, (&HabitLogCmd{Habit: "Read books", Days: 0}).Run(c))
}

func TestHabitDeleteConfirmation(t *testing.T) {
	c, out := jsonContext(t)
	require.NoError(t, (&HabitAddCmd{Name: "Stretch"}).Run(c))

	c.Confirm = func(string) (bool, error) { return false, nil }
	require.NoError(t, (&HabitDeleteCmd{Habit: "Stretch"}).Run(c))
	assert.Contains(t, out.String(), "Aborted.")
	_, err := c.Tracker.ResolveHabit(c.Ctx, "Stretch")
	require.NoError(t, err)

	c.Confirm = func(string) (bool, error) { return false, ErrConfirmationRequired }
	assert.ErrorIs(t, (&HabitDeleteCmd{Habit: "Stretch"}).Run(c), ErrConfirmationRequired)

	require.NoError(t, (&HabitDeleteCmd{Habit: "Stretch", Yes: true}).Run(c))
	_, err = c.Tracker.ResolveHabit(c.Ctx, "Stretch")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTaskCommands(t *testing.T) {
	c, out := jsonContext(t)

	require.NoError(t, (&TaskAddCmd{Title: "Write report", Priority: "high", Status: "pending", Due: "2024-01-05", Tag: []string{"work"}}).Run(c))
	require.NoError(t, (&TaskAddCmd{Title: "Buy milk", Priority: "low", Status: "pending"}).Run(c))

	out.Reset()
	require.NoError(t, (&TaskListCmd{}).Run(c))
	assert.Contains(t, out.String(), "2024-01-05 (overdue)")
	assert.Contains(t, out.String(), "Buy milk")

	require.NoError(t, (&TaskDoneCmd{Task: "Buy milk"}).Run(c))
	out.Reset()
	require.NoError(t, (&TaskListCmd{}).Run(c))
	assert.NotContains(t, out.String(), "Buy milk")

	out.Reset()
	require.NoError(t, (&TaskListCmd{Status: "completed"}).Run(c))
	assert.Contains(t, out.String(), "Buy milk")
	assert.NotContains(t, out.String(), "Write report")

	require.NoError(t, (&TaskEditCmd{Task: "Write report", ClearDue: true, Priority: "Medium"}).Run(c))
	task, err := c.Tracker.ResolveTask(c.Ctx, "Write report")
	require.NoError(t, err)
	assert.Empty(t, task.DueDate)
	assert.Equal(t, constants.PriorityMedium, task.Priority)

	assert.Error(t, (&TaskEditCmd{Task: "Write report", Due: "2024-02-01", ClearDue: true}).Run(c))
	assert.Error(t, (&TaskStatusCmd{Task: "Write report", Status: "blocked"}).Run(c))

	require.NoError(t, (&TaskReopenCmd{Task: "Buy milk"}).Run(c))
	task, err = c.Tracker.ResolveTask(c.Ctx, "Buy milk")
	require.NoError(t, err)
	assert.Nil(t, task.CompletedAt)

	require.NoError(t, (&TaskDeleteCmd{Task: "Buy milk"}).Run(c))
	_, err = c.Tracker.ResolveTask(c.Ctx, "Buy milk")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGoalCommands(t *testing.T) {
	c, out := jsonContext(t)

	require.NoError(t, (&GoalAddCmd{Title: "Ship v1", Milestone: []string{"Design", "Build"}}).Run(c))
	require.NoError(t, (&TaskAddCmd{Title: "Write docs", Priority: "medium", Status: "pending"}).Run(c))
	require.NoError(t, (&HabitAddCmd{Name: "Code"}).Run(c))

	require.NoError(t, (&GoalMilestoneToggleCmd{Goal: "Ship v1", Index: 1}).Run(c))
	g, err := c.Tracker.ResolveGoal(c.Ctx, "Ship v1")
	require.NoError(t, err)
	assert.Equal(t, 50, g.Progress)

	assert.Error(t, (&GoalMilestoneToggleCmd{Goal: "Ship v1", Index: 3}).Run(c))

	require.NoError(t, (&GoalMilestoneAddCmd{Goal: "Ship v1", Text: "Launch"}).Run(c))
	require.NoError(t, (&GoalMilestoneRemoveCmd{Goal: "Ship v1", Index: 3}).Run(c))

	require.NoError(t, (&GoalProgressCmd{Goal: "Ship v1", Set: 95}).Run(c))
	require.NoError(t, (&GoalProgressCmd{Goal: "Ship v1", Set: -1, Inc: true}).Run(c))
	g, err = c.Tracker.ResolveGoal(c.Ctx, "Ship v1")
	require.NoError(t, err)
	assert.Equal(t, 100, g.Progress)
	assert.Error(t, (&GoalProgressCmd{Goal: "Ship v1", Set: -1}).Run(c))

	require.NoError(t, (&GoalLinkCmd{Goal: "Ship v1", Task: "Write docs"}).Run(c))
	require.NoError(t, (&GoalLinkCmd{Goal: "Ship v1", Habit: "Code"}).Run(c))
	assert.Error(t, (&GoalLinkCmd{Goal: "Ship v1"}).Run(c))

	out.Reset()
	require.NoError(t, (&GoalShowCmd{Goal: "Ship v1"}).Run(c))
	assert.Contains(t, out.String(), "1. [x] Design")
	assert.Contains(t, out.String(), "Write docs")
	assert.Contains(t, out.String(), "Code")

	require.NoError(t, (&GoalUnlinkCmd{Goal: "Ship v1", Task: "Write docs"}).Run(c))
	g, err = c.Tracker.ResolveGoal(c.Ctx, "Ship v1")
	require.NoError(t, err)
	assert.Empty(t, g.LinkedTaskIDs)
	assert.Len(t, g.LinkedHabitIDs, 1)

	require.NoError(t, (&GoalEditCmd{Goal: "Ship v1", Target: "2024-06-01"}).Run(c))
	require.NoError(t, (&GoalCompleteCmd{Goal: "Ship v1"}).Run(c))
	g, err = c.Tracker.ResolveGoal(c.Ctx, "Ship v1")
	require.NoError(t, err)
	assert.Equal(t, constants.GoalStatusCompleted, g.Status)
	assert.Equal(t, "2024-06-01", g.TargetDate)

	out.Reset()
	require.NoError(t, (&GoalListCmd{}).Run(c))
	assert.Contains(t, out.String(), "[##########]")

	require.NoError(t, (&GoalDeleteCmd{Goal: "Ship v1", Yes: true}).Run(c))
	_, err = c.Tracker.ResolveGoal(c.Ctx, "Ship v1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProgressBar(t *testing.T) {
	tests := []struct {
		progress int
		want     string
	}{
		{0, "[----]"},
		{50, "[##--]"},
		{100, "[####]"},
		{150, "[####]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, progressBar(tt.progress, 4))
	}
}

func TestStatsHeatmapAnalytics(t *testing.T) {
	c, out := jsonContext(t)
	require.NoError(t, (&HabitAddCmd{Name: "Walk"}).Run(c))
	require.NoError(t, (&HabitMarkCmd{Habit: "Walk"}).Run(c))
	require.NoError(t, (&TaskAddCmd{Title: "Done already", Priority: "low", Status: "done"}).Run(c))

	out.Reset()
	require.NoError(t, (&StatsCmd{}).Run(c))
	assert.Contains(t, out.String(), "Habits done today")
	assert.Contains(t, out.String(), "1/1")

	out.Reset()
	require.NoError(t, (&HeatmapCmd{Days: 3}).Run(c))
	assert.Contains(t, out.String(), "2024-01-08 .. 2024-01-10")
	assert.Contains(t, out.String(), "··█")

	out.Reset()
	require.NoError(t, (&HeatmapCmd{Days: 2, List: true}).Run(c))
	assert.Contains(t, out.String(), "100%")

	assert.Error(t, (&HeatmapCmd{Days: -1}).Run(c))
	assert.Error(t, (&StatsCmd{Date: "2024-13-01"}).Run(c))

	out.Reset()
	require.NoError(t, (&AnalyticsCmd{}).Run(c))
	assert.Contains(t, out.String(), "Tasks completed per week")
	assert.Contains(t, out.String(), "Streak leaderboard")
	assert.Contains(t, out.String(), "Walk")
}

func TestExportCommand(t *testing.T) {
	c, out := jsonContext(t)
	require.NoError(t, (&HabitAddCmd{Name: "Walk"}).Run(c))
	out.Reset()

	require.NoError(t, (&ExportCmd{Format: "json"}).Run(c))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "2024-01-10", doc["today"])
	assert.Len(t, doc["habits"], 1)

	path := filepath.Join(t.TempDir(), "export.yaml")
	out.Reset()
	require.NoError(t, (&ExportCmd{Format: "yaml", Output: path}).Run(c))
	assert.Contains(t, out.String(), "Exported 1 habit(s)")
	assert.FileExists(t, path)

	assert.Error(t, (&ExportCmd{Format: "xml"}).Run(c))
}

func TestReportsUseStreaksForTheRequestedDay(t *testing.T) {
	for name, store := range map[string]storage.Provider{
		"json":   storage.NewJSONStore(filepath.Join(t.TempDir(), "tally.json")),
		"sqlite": sqlstore.NewSQLite(filepath.Join(t.TempDir(), "tally.db")),
	} {
		t.Run(name, func(t *testing.T) {
			c, out := newTestContext(t, store)
			require.NoError(t, (&HabitAddCmd{Name: "Walk"}).Run(c))
			require.NoError(t, (&HabitMarkCmd{Habit: "Walk", Date: "2024-01-08"}).Run(c))
			require.NoError(t, (&HabitMarkCmd{Habit: "Walk", Date: "2024-01-09"}).Run(c))

			tests := []struct {
				date   string
				streak int
			}{
				{date: "2024-01-10", streak: 2},
				{date: "2024-01-12", streak: 0},
			}
			for _, tt := range tests {
				out.Reset()
				require.NoError(t, (&ExportCmd{Format: "json", Date: tt.date}).Run(c))
				var doc struct {
					Habits []struct {
						Streak int `json:"streak"`
					} `json:"habits"`
					Stats struct {
						AvgStreak int `json:"avg_streak"`
					} `json:"stats"`
				}
				require.NoError(t, json.Unmarshal(out.Bytes(), &doc), tt.date)
				require.Len(t, doc.Habits, 1)
				assert.Equal(t, tt.streak, doc.Habits[0].Streak, tt.date)
				assert.Equal(t, tt.streak, doc.Stats.AvgStreak, tt.date)
			}

			out.Reset()
			require.NoError(t, (&HabitListCmd{Date: "2024-01-12"}).Run(c))
			assert.Contains(t, out.String(), "Walk")
		})
	}
}

func TestSettingsCommands(t *testing.T) {
	c, out := jsonContext(t)

	require.NoError(t, (&SettingsSetCmd{Key: constants.SettingHeatmapDays, Value: "14"}).Run(c))
	assert.Error(t, (&SettingsSetCmd{Key: constants.SettingStreakPolicy, Value: "weekly"}).Run(c))

	out.Reset()
	require.NoError(t, (&SettingsShowCmd{}).Run(c))
	assert.Contains(t, out.String(), "heatmap_days")
	assert.Contains(t, out.String(), "14")
	assert.Contains(t, out.String(), "UTC")
}

func TestValidateAndMigrate(t *testing.T) {
	c, out := jsonContext(t)
	require.NoError(t, (&ValidateCmd{}).Run(c))
	assert.Contains(t, out.String(), "No conflicts detected.")

	assert.Error(t, (&MigrateCmd{}).Run(c))

	sc, sout := newTestContext(t, sqlstore.NewSQLite(filepath.Join(t.TempDir(), "tally.db")))
	require.NoError(t, (&MigrateCmd{}).Run(sc))
	assert.Contains(t, sout.String(), "up to date")

	sout.Reset()
	require.NoError(t, (&MigrateCmd{Status: true}).Run(sc))
	assert.Contains(t, sout.String(), "Pending migrations:     0")
}

func TestBackupCommands(t *testing.T) {
	dir := t.TempDir()
	c, out := newTestContext(t, sqlstore.NewSQLite(filepath.Join(dir, "tally.db")))
	require.NoError(t, (&HabitAddCmd{Name: "Walk"}).Run(c))

	out.Reset()
	require.NoError(t, (&BackupCreateCmd{}).Run(c))
	assert.Contains(t, out.String(), "Backup created:")

	out.Reset()
	require.NoError(t, (&BackupListCmd{}).Run(c))
	assert.Contains(t, out.String(), "1 backup(s)")

	mgr, err := c.backupManager()
	require.NoError(t, err)
	backups, err := mgr.List()
	require.NoError(t, err)
	require.Len(t, backups, 1)

	require.NoError(t, (&HabitAddCmd{Name: "Swim"}).Run(c))

	out.Reset()
	require.NoError(t, (&BackupRestoreCmd{Backup: backups[0].Name(), Yes: true}).Run(c))
	assert.Contains(t, out.String(), "Restored from")

	require.NoError(t, c.Store.Load(c.Ctx))
	habits, err := c.Store.GetAllHabits(c.Ctx)
	require.NoError(t, err)
	require.Len(t, habits, 1)
	assert.Equal(t, "Walk", habits[0].Name)
}
