package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/storage/sqlstore"
)

var base = time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC)

// stepClock returns a clock that advances one minute per call.
func stepClock() func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
}

func setupSQLite(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tally.db")
	store := sqlstore.NewSQLite(path)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.AddHabit(ctx, models.Habit{ID: "h1", Name: "Read", Frequency: "daily", CreatedAt: base, UpdatedAt: base}))
	require.NoError(t, store.Close())
	return path
}

func habitNames(t *testing.T, p storage.Provider) []string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))
	defer p.Close()
	habits, err := p.GetAllHabits(ctx)
	require.NoError(t, err)
	var names []string
	for _, h := range habits {
		names = append(names, h.Name)
	}
	return names
}

func TestCreateSQLiteBackup(t *testing.T) {
	path := setupSQLite(t)
	m := NewManager(path, WithClock(stepClock()))

	backupPath, err := m.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "backups", "tally-20240110-0931.db"), backupPath)
	assert.NoError(t, m.Verify(context.Background(), backupPath))
	assert.Equal(t, []string{"Read"}, habitNames(t, sqlstore.NewSQLite(backupPath)))
}

func TestCreateWithoutDataFile(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	_, err := m.Create(context.Background())
	assert.ErrorIs(t, err, ErrNoDataFile)
}

func TestUniqueNamesWithinOneMinute(t *testing.T) {
	path := setupSQLite(t)
	m := NewManager(path, WithClock(func() time.Time { return base }))
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		p, err := m.Create(ctx)
		require.NoError(t, err)
		assert.False(t, seen[p], "duplicate backup name %s", p)
		seen[p] = true
	}
	assert.True(t, seen[filepath.Join(m.Dir(), "tally-20240110-0930.db")])
	assert.True(t, seen[filepath.Join(m.Dir(), "tally-20240110-093000.db")])
	assert.True(t, seen[filepath.Join(m.Dir(), "tally-20240110-093000-1.db")])

	backups, err := m.List()
	require.NoError(t, err)
	assert.Len(t, backups, 3)
}

func TestRotationKeepsNewest(t *testing.T) {
	path := setupSQLite(t)
	m := NewManager(path, WithClock(stepClock()), WithRetention(3))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := m.Create(ctx)
		require.NoError(t, err)
	}

	backups, err := m.List()
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, "tally-20240110-0935.db", backups[0].Name())
	assert.Equal(t, "tally-20240110-0933.db", backups[2].Name())
}

func TestListIgnoresForeignFiles(t *testing.T) {
	path := setupSQLite(t)
	m := NewManager(path)

	empty, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, os.MkdirAll(m.Dir(), 0700))
	for _, name := range []string{"notes.txt", "tally-yesterday.db", "other-20240101-1200.db"} {
		require.NoError(t, os.WriteFile(filepath.Join(m.Dir(), name), []byte("x"), 0600))
	}
	backups, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestRestoreSQLite(t *testing.T) {
	path := setupSQLite(t)
	m := NewManager(path, WithClock(stepClock()))
	ctx := context.Background()

	backupPath, err := m.Create(ctx)
	require.NoError(t, err)

	store := sqlstore.NewSQLite(path)
	require.NoError(t, store.Load(ctx))
	require.NoError(t, store.DeleteHabit(ctx, "h1"))
	require.NoError(t, store.Close())
	assert.Empty(t, habitNames(t, sqlstore.NewSQLite(path)))

	safety, err := m.Restore(ctx, backupPath)
	require.NoError(t, err)
	assert.NotEmpty(t, safety)
	assert.FileExists(t, safety)

	assert.Equal(t, []string{"Read"}, habitNames(t, sqlstore.NewSQLite(path)))
	assert.NoFileExists(t, path+".restore.tmp")
}

func TestRestoreRejectsInvalidBackup(t *testing.T) {
	path := setupSQLite(t)
	m := NewManager(path)
	ctx := context.Background()

	bogus := filepath.Join(t.TempDir(), "tally-20240101-1200.db")
	require.NoError(t, os.WriteFile(bogus, []byte("definitely not sqlite, just some text padding it out"), 0600))

	_, err := m.Restore(ctx, bogus)
	assert.ErrorIs(t, err, ErrInvalidBackup)

	_, err = m.Restore(ctx, filepath.Join(t.TempDir(), "gone.db"))
	assert.Error(t, err)
}

func TestJSONBackupAndRestore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tally.json")
	store := storage.NewJSONStore(path)
	require.NoError(t, store.Init(ctx))
	require.NoError(t, store.Load(ctx))
	require.NoError(t, store.AddHabit(ctx, models.Habit{ID: "h1", Name: "Walk", Frequency: "daily", CreatedAt: base, UpdatedAt: base}))

	m := NewManager(path, WithClock(stepClock()))
	backupPath, err := m.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, ".json", filepath.Ext(backupPath))

	require.NoError(t, store.DeleteHabit(ctx, "h1"))

	_, err = m.Restore(ctx, backupPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Walk"}, habitNames(t, storage.NewJSONStore(path)))

	bad := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0600))
	assert.ErrorIs(t, m.Verify(ctx, bad), ErrInvalidBackup)
}
