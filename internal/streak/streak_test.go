package streak

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/tally/internal/models"
)

func TestComputeRecentAnchored(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		today string
		want  int
	}{
		{name: "empty", dates: nil, today: "2024-01-10", want: 0},
		{name: "three days ending today", dates: []string{"2024-01-10", "2024-01-09", "2024-01-08"}, today: "2024-01-10", want: 3},
		{name: "two day gap breaks the streak", dates: []string{"2024-01-10", "2024-01-09", "2024-01-08"}, today: "2024-01-12", want: 0},
		{name: "run ending yesterday still counts", dates: []string{"2024-01-09", "2024-01-08"}, today: "2024-01-10", want: 2},
		{name: "unsorted input", dates: []string{"2024-01-08", "2024-01-10", "2024-01-09"}, today: "2024-01-10", want: 3},
		{name: "duplicates do not inflate", dates: []string{"2024-01-10", "2024-01-10", "2024-01-09", "2024-01-09"}, today: "2024-01-10", want: 2},
		{name: "older fragment is not counted", dates: []string{"2024-01-10", "2024-01-09", "2024-01-06", "2024-01-05"}, today: "2024-01-10", want: 2},
		{name: "only future dates", dates: []string{"2024-01-11", "2024-01-12"}, today: "2024-01-10", want: 0},
		{name: "future most recent date breaks the run", dates: []string{"2024-01-09", "2024-01-10", "2024-01-11"}, today: "2024-01-10", want: 0},
		{name: "tomorrow is not an anchor", dates: []string{"2024-01-11"}, today: "2024-01-10", want: 0},
		{name: "across month boundary", dates: []string{"2024-03-01", "2024-02-29", "2024-02-28"}, today: "2024-03-01", want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.dates, tt.today, RecentAnchored)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeTodayAnchored(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		today string
		want  int
	}{
		{name: "empty", dates: nil, today: "2024-01-10", want: 0},
		{name: "three days ending today", dates: []string{"2024-01-10", "2024-01-09", "2024-01-08"}, today: "2024-01-10", want: 3},
		{name: "today missing is zero", dates: []string{"2024-01-09", "2024-01-08", "2024-01-07"}, today: "2024-01-10", want: 0},
		{name: "stops at first hole", dates: []string{"2024-01-10", "2024-01-09", "2024-01-07"}, today: "2024-01-10", want: 2},
		{name: "duplicates do not inflate", dates: []string{"2024-01-10", "2024-01-10"}, today: "2024-01-10", want: 1},
		{name: "future dates are ignored", dates: []string{"2024-01-11"}, today: "2024-01-10", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.dates, tt.today, TodayAnchored)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	dates := []string{"2024-01-09", "2024-01-10", "2024-01-08"}
	for _, p := range []Policy{RecentAnchored, TodayAnchored} {
		first, err := Compute(dates, "2024-01-10", p)
		require.NoError(t, err)
		second, err := Compute(dates, "2024-01-10", p)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, []string{"2024-01-09", "2024-01-10", "2024-01-08"}, dates, "input must not be reordered")
	}
}

func TestComputeErrors(t *testing.T) {
	_, err := Compute([]string{"2024-01-10"}, "01/10/2024", RecentAnchored)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = Compute([]string{"2024-01-10", "2024-13-01"}, "2024-01-10", TodayAnchored)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = Compute([]string{"2024-01-10"}, "2024-01-10", Policy("weekly"))
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestComputeFromLogs(t *testing.T) {
	logs := []models.HabitLog{
		{HabitID: "h1", Date: "2024-01-10", Completed: true},
		{HabitID: "h1", Date: "2024-01-09", Completed: true},
		{HabitID: "h1", Date: "2024-01-08", Completed: false},
		{HabitID: "h1", Date: "2024-01-07", Completed: true},
		{HabitID: "h2", Date: "2024-01-08", Completed: true},
	}

	got, err := ComputeFromLogs("h1", logs, "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	got, err = ComputeFromLogs("h2", logs, "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	_, err = ComputeFromLogs("h1", []models.HabitLog{{HabitID: "h1", Date: "bad", Completed: true}}, "2024-01-10")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "recent-anchored", want: RecentAnchored},
		{in: "Today-Anchored", want: TodayAnchored},
		{in: "A", want: RecentAnchored},
		{in: "b", want: TodayAnchored},
		{in: "strict", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownPolicy)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
