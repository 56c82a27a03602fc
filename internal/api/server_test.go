package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/stats"
	"github.com/julianstephens/tally/internal/storage/sqlstore"
	"github.com/julianstephens/tally/internal/tracker"
	"github.com/julianstephens/tally/internal/validation"
)

const testSecret = "test-secret"

var clock = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, secret string) (*httptest.Server, *tracker.Service) {
	t.Helper()
	ctx := context.Background()
	store := sqlstore.NewSQLite(filepath.Join(t.TempDir(), "tally.db"))
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() { store.Close() })

	svc := tracker.New(store, tracker.WithClock(func() time.Time { return clock }))
	_, err := svc.SetSetting(ctx, constants.SettingTimezone, "UTC")
	require.NoError(t, err)

	handler, err := New(Config{Tracker: svc, JWTSecret: secret})
	require.NoError(t, err)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, svc
}

func doJSON(t *testing.T, method, url string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(nil))
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, data
}

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func decodeError(t *testing.T, data []byte) apiErrorBody {
	t.Helper()
	var env struct {
		Error apiErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &env), string(data))
	return env.Error
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, testSecret)
	res, data := doJSON(t, http.MethodGet, srv.URL+"/v1/health", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	assert.JSONEq(t, `{"status":"ok"}`, string(data))
}

func TestStats(t *testing.T) {
	srv, svc := newTestServer(t, "")
	ctx := context.Background()
	h, err := svc.CreateHabit(ctx, "Read", "daily")
	require.NoError(t, err)
	_, err = svc.MarkComplete(ctx, h.ID, "2024-01-10", "2024-01-10")
	require.NoError(t, err)
	_, err = svc.CreateHabit(ctx, "Walk", "daily")
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, validation.TaskInput{Title: "Ship", Status: "done"})
	require.NoError(t, err)

	res, data := doJSON(t, http.MethodGet, srv.URL+"/v1/stats", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))

	var bundle stats.Bundle
	require.NoError(t, json.Unmarshal(data, &bundle))
	assert.Equal(t, 2, bundle.ActiveHabits)
	assert.Equal(t, 1, bundle.HabitsCompletedToday)
	assert.Equal(t, 50, bundle.ConsistencyScore)
	assert.Equal(t, 100, bundle.CompletionRate)
	assert.Equal(t, 1, bundle.TasksCompletedThisWeek)
}

func TestStatsRejectsBadToday(t *testing.T) {
	srv, _ := newTestServer(t, "")
	res, data := doJSON(t, http.MethodGet, srv.URL+"/v1/stats?today=2024-02-30", nil)
	require.Equal(t, http.StatusBadRequest, res.StatusCode, string(data))
	assert.Equal(t, "bad_request", decodeError(t, data).Code)
}

func TestHeatmap(t *testing.T) {
	srv, svc := newTestServer(t, "")
	ctx := context.Background()
	h, err := svc.CreateHabit(ctx, "Read", "daily")
	require.NoError(t, err)
	_, err = svc.MarkComplete(ctx, h.ID, "2024-01-09", "2024-01-10")
	require.NoError(t, err)

	res, data := doJSON(t, http.MethodGet, srv.URL+"/v1/heatmap?days=3", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))

	var cells []stats.HeatmapDay
	require.NoError(t, json.Unmarshal(data, &cells))
	require.Len(t, cells, 3)
	assert.Equal(t, "2024-01-08", cells[0].Date)
	assert.Equal(t, 100, cells[1].CompletionRate)
	assert.Equal(t, 4, cells[1].Bucket)
	assert.Equal(t, 0, cells[2].Bucket)

	res, data = doJSON(t, http.MethodGet, srv.URL+"/v1/heatmap", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	require.NoError(t, json.Unmarshal(data, &cells))
	assert.Len(t, cells, constants.DefaultHeatmapDays)
}

func TestAnalyticsWeekly(t *testing.T) {
	srv, _ := newTestServer(t, "")
	res, data := doJSON(t, http.MethodGet, srv.URL+"/v1/analytics/weekly", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))

	var body analyticsBody
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Len(t, body.Weekly, constants.DefaultTrendWeeks)
	assert.Equal(t, "2024-01-08", body.Weekly[len(body.Weekly)-1].WeekStart)
}

func TestStreaksFollowTheRequestedDay(t *testing.T) {
	srv, svc := newTestServer(t, "")
	ctx := context.Background()
	h, err := svc.CreateHabit(ctx, "Read", "daily")
	require.NoError(t, err)
	for _, day := range []string{"2024-01-08", "2024-01-09"} {
		_, err = svc.MarkComplete(ctx, h.ID, day, "2024-01-10")
		require.NoError(t, err)
	}

	tests := []struct {
		today  string
		streak int
	}{
		{today: "2024-01-10", streak: 2},
		{today: "2024-01-12", streak: 0},
	}
	for _, tt := range tests {
		t.Run(tt.today, func(t *testing.T) {
			res, data := doJSON(t, http.MethodGet, srv.URL+"/v1/stats?today="+tt.today, nil)
			require.Equal(t, http.StatusOK, res.StatusCode, string(data))
			var bundle stats.Bundle
			require.NoError(t, json.Unmarshal(data, &bundle))
			assert.Equal(t, tt.streak, bundle.AvgStreak)

			res, data = doJSON(t, http.MethodGet, srv.URL+"/v1/analytics/weekly?today="+tt.today, nil)
			require.Equal(t, http.StatusOK, res.StatusCode, string(data))
			var body analyticsBody
			require.NoError(t, json.Unmarshal(data, &body))
			require.Len(t, body.Leaderboard, 1)
			assert.Equal(t, tt.streak, body.Leaderboard[0].Streak)

			res, data = doJSON(t, http.MethodGet, srv.URL+"/v1/habits?today="+tt.today, nil)
			require.Equal(t, http.StatusOK, res.StatusCode, string(data))
			var habits []models.Habit
			require.NoError(t, json.Unmarshal(data, &habits))
			require.Len(t, habits, 1)
			assert.Equal(t, tt.streak, habits[0].Streak)
		})
	}
}

func TestCompletionRoundTrip(t *testing.T) {
	srv, svc := newTestServer(t, "")
	h, err := svc.CreateHabit(context.Background(), "Read", "daily")
	require.NoError(t, err)
	url := srv.URL + "/v1/habits/" + h.ID + "/completions/2024-01-10"

	res, data := doJSON(t, http.MethodPut, url, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var view struct {
		models.Habit
		CompletedToday bool `json:"completed_today"`
	}
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Equal(t, []string{"2024-01-10"}, view.CompletedDates)
	assert.Equal(t, 1, view.Streak)
	assert.True(t, view.CompletedToday)

	res, data = doJSON(t, http.MethodDelete, url, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	require.NoError(t, json.Unmarshal(data, &view))
	assert.Empty(t, view.CompletedDates)
	assert.Equal(t, 0, view.Streak)
	assert.False(t, view.CompletedToday)

	res, data = doJSON(t, http.MethodGet, srv.URL+"/v1/habits", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var list []map[string]any
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Read", list[0]["name"])
}

func TestCompletionErrors(t *testing.T) {
	srv, svc := newTestServer(t, "")
	h, err := svc.CreateHabit(context.Background(), "Read", "daily")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"unknown habit", "/v1/habits/nope/completions/2024-01-10", http.StatusNotFound, "not_found"},
		{"bad date", "/v1/habits/" + h.ID + "/completions/2024-1-10", http.StatusBadRequest, "bad_request"},
		{"future date", "/v1/habits/" + h.ID + "/completions/2024-01-11", http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, data := doJSON(t, http.MethodPut, srv.URL+tt.path, nil)
			require.Equal(t, tt.status, res.StatusCode, string(data))
			assert.Equal(t, tt.code, decodeError(t, data).Code)
		})
	}
}

func TestAuth(t *testing.T) {
	srv, _ := newTestServer(t, testSecret)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", "me"), http.StatusUnauthorized},
		{"no subject", "Bearer " + signToken(t, testSecret, ""), http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, testSecret, "me"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			res, data := doJSON(t, http.MethodGet, srv.URL+"/v1/habits", headers)
			require.Equal(t, tt.status, res.StatusCode, string(data))
			if tt.status == http.StatusUnauthorized {
				assert.Equal(t, "unauthorized", decodeError(t, data).Code)
			}
		})
	}
}

func TestNewKeepsHumaDefaultsAcrossServers(t *testing.T) {
	first, _ := newTestServer(t, "")
	second, _ := newTestServer(t, "")
	assert.False(t, huma.DefaultArrayNullable)

	for _, srv := range []string{first.URL, second.URL} {
		res, data := doJSON(t, http.MethodGet, srv+"/v1/heatmap?days=400", nil)
		require.Equal(t, http.StatusBadRequest, res.StatusCode, string(data))
		assert.Equal(t, "bad_request", decodeError(t, data).Code)
	}
}

func TestNewRequiresTracker(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
