package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/stats"
	"github.com/julianstephens/tally/internal/tracker"
)

var generated = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func sampleDashboard() tracker.Dashboard {
	return tracker.Dashboard{
		Snapshot: tracker.Snapshot{
			Settings: models.DefaultSettings(),
			Habits: []models.Habit{
				{ID: "h1", Name: "Read", Frequency: "daily", CompletedDates: []string{"2024-01-09", "2024-01-10"}, Streak: 2},
			},
		},
		Today:   "2024-01-10",
		Stats:   stats.Bundle{ActiveHabits: 1, HabitsCompletedToday: 1, ConsistencyScore: 100, AvgStreak: 2},
		Heatmap: []stats.HeatmapDay{{Date: "2024-01-10", CompletedHabits: 1, CompletionRate: 100, Bucket: 4}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{" yml ", FormatYAML, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFromDashboardFillsEmptyCollections(t *testing.T) {
	doc := FromDashboard(tracker.Dashboard{Today: "2024-01-10"}, generated)
	assert.NotNil(t, doc.Habits)
	assert.NotNil(t, doc.Tasks)
	assert.NotNil(t, doc.Goals)
	assert.NotNil(t, doc.Heatmap)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, FormatJSON))
	assert.Contains(t, buf.String(), `"tasks": []`)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FromDashboard(sampleDashboard(), generated), FormatJSON))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "2024-01-10", got["today"])
	assert.Equal(t, "2024-01-10T12:00:00Z", got["generated_at"])
	for _, key := range []string{"settings", "habits", "tasks", "goals", "stats", "heatmap"} {
		assert.Contains(t, got, key)
	}
	statsMap := got["stats"].(map[string]any)
	assert.EqualValues(t, 100, statsMap["consistency_score"])
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FromDashboard(sampleDashboard(), generated), FormatYAML))

	var got struct {
		Today  string `yaml:"today"`
		Habits []struct {
			Name           string   `yaml:"name"`
			CompletedDates []string `yaml:"completed_dates"`
			Streak         int      `yaml:"streak"`
		} `yaml:"habits"`
		Settings struct {
			StreakPolicy string `yaml:"streak_policy"`
		} `yaml:"settings"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "2024-01-10", got.Today)
	require.Len(t, got.Habits, 1)
	assert.Equal(t, "Read", got.Habits[0].Name)
	assert.Equal(t, []string{"2024-01-09", "2024-01-10"}, got.Habits[0].CompletedDates)
	assert.Equal(t, 2, got.Habits[0].Streak)
	assert.Equal(t, "recent-anchored", got.Settings.StreakPolicy)
}

func TestWriteUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, Document{}, Format("xml")))
}
