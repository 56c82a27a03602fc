// Package backup snapshots and restores the local tally data file. SQLite
// databases are copied with VACUUM INTO; JSON documents are copied verbatim.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/logger"
)

const (
	minuteLayout = "20060102-1504"
	secondLayout = "20060102-150405"
	maxAttempts  = 100
)

var (
	// ErrNoDataFile is returned when there is nothing to back up
	ErrNoDataFile = errors.New("data file does not exist")
	// ErrInvalidBackup is returned when a backup does not look like a tally data file
	ErrInvalidBackup = errors.New("backup file is corrupted or invalid")
)

// Info describes one backup file
type Info struct {
	Path      string    `json:"path" yaml:"path"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Size      int64     `json:"size" yaml:"size"`
}

// Name returns the backup's file name
func (i Info) Name() string {
	return filepath.Base(i.Path)
}

// Manager handles backup operations for one data file
type Manager struct {
	dataPath  string
	backupDir string
	suffix    string
	keep      int
	now       func() time.Time
	log       *log.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithClock replaces the clock used to name backups.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRetention sets how many backups rotation keeps.
func WithRetention(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.keep = n
		}
	}
}

// NewManager creates a backup manager for dataPath. Backups live in a
// sibling "backups" directory.
func NewManager(dataPath string, opts ...Option) *Manager {
	suffix := filepath.Ext(dataPath)
	if suffix == "" {
		suffix = constants.BackupFileSuffix
	}
	m := &Manager{
		dataPath:  dataPath,
		backupDir: filepath.Join(filepath.Dir(dataPath), constants.BackupDirName),
		suffix:    suffix,
		keep:      constants.MaxBackups,
		now:       time.Now,
		log:       logger.Component("backup"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Dir returns the backup directory path
func (m *Manager) Dir() string {
	return m.backupDir
}

func (m *Manager) isJSON() bool {
	return strings.EqualFold(m.suffix, ".json")
}

// Create writes a new backup and rotates old ones. It returns the backup path.
func (m *Manager) Create(ctx context.Context) (string, error) {
	path, err := m.create(ctx)
	if err != nil {
		return "", err
	}
	if err := m.rotate(); err != nil {
		m.log.Warn("Failed to rotate old backups", "err", err)
	}
	return path, nil
}

func (m *Manager) create(ctx context.Context) (string, error) {
	if _, err := os.Stat(m.dataPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%w: %s", ErrNoDataFile, m.dataPath)
	}
	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	dest, err := m.nextPath()
	if err != nil {
		return "", err
	}

	if m.isJSON() {
		if err := copyFile(m.dataPath, dest); err != nil {
			return "", fmt.Errorf("failed to copy data file: %w", err)
		}
	} else if err := m.vacuumInto(ctx, dest); err != nil {
		return "", err
	}
	m.log.Info("Backup created", "path", dest)
	return dest, nil
}

// nextPath picks an unused file name: minute precision, then seconds, then a counter.
func (m *Manager) nextPath() (string, error) {
	now := m.now()
	candidate := func(stamp string) string {
		return filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+m.suffix)
	}

	path := candidate(now.Format(minuteLayout))
	if !exists(path) {
		return path, nil
	}
	stamp := now.Format(secondLayout)
	path = candidate(stamp)
	for i := 1; exists(path); i++ {
		if i > maxAttempts {
			return "", errors.New("failed to generate unique backup filename")
		}
		path = candidate(fmt.Sprintf("%s-%d", stamp, i))
	}
	return path, nil
}

func (m *Manager) vacuumInto(ctx context.Context, dest string) error {
	db, err := sqlx.Open("sqlite", "file:"+m.dataPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := checkSQLite(ctx, db); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		m.log.Debug("VACUUM INTO failed, copying file", "err", err)
		db.Close()
		return copyFile(m.dataPath, dest)
	}
	return nil
}

// List returns every backup, newest first. A missing backup directory is empty.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if os.IsNotExist(err) {
		return []Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []Info{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ts, ok := m.parseName(entry.Name())
		if !ok {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      filepath.Join(m.backupDir, entry.Name()),
			Timestamp: ts,
			Size:      fi.Size(),
		})
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Path > backups[j].Path
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// parseName extracts the timestamp from a backup file name, ignoring a counter suffix.
func (m *Manager) parseName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, m.suffix) {
		return time.Time{}, false
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), m.suffix)

	parts := strings.Split(stamp, "-")
	if len(parts) == 3 {
		stamp = parts[0] + "-" + parts[1]
	}
	for _, layout := range []string{minuteLayout, secondLayout} {
		if ts, err := time.Parse(layout, stamp); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// rotate removes backups beyond the retention limit, oldest first.
func (m *Manager) rotate() error {
	backups, err := m.List()
	if err != nil {
		return err
	}
	for _, b := range backups[min(m.keep, len(backups)):] {
		if err := os.Remove(b.Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", b.Path, err)
		}
		m.log.Debug("Old backup removed", "path", b.Path)
	}
	return nil
}

// Restore replaces the data file with backupPath. The current data file, if any,
// is backed up first without rotation; its path is returned.
func (m *Manager) Restore(ctx context.Context, backupPath string) (string, error) {
	if !exists(backupPath) {
		return "", fmt.Errorf("backup file does not exist: %s", backupPath)
	}
	if err := m.Verify(ctx, backupPath); err != nil {
		return "", err
	}

	var safety string
	if exists(m.dataPath) {
		var err error
		if safety, err = m.create(ctx); err != nil {
			return "", fmt.Errorf("failed to back up current data before restore: %w", err)
		}
	}

	tmp := m.dataPath + ".restore.tmp"
	if err := copyFile(backupPath, tmp); err != nil {
		return safety, fmt.Errorf("failed to copy backup file: %w", err)
	}
	if err := os.Rename(tmp, m.dataPath); err != nil {
		if rmErr := os.Remove(tmp); rmErr != nil {
			m.log.Warn("Failed to remove temporary file", "path", tmp, "err", rmErr)
		}
		return safety, fmt.Errorf("failed to restore data file: %w", err)
	}
	m.log.Info("Backup restored", "from", backupPath)
	return safety, nil
}

// Verify checks that path is a readable tally data file of the manager's kind.
func (m *Manager) Verify(ctx context.Context, path string) error {
	if m.isJSON() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
		}
		if !json.Valid(data) {
			return fmt.Errorf("%w: not a JSON document", ErrInvalidBackup)
		}
		return nil
	}

	db, err := sqlx.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	defer db.Close()
	if err := checkSQLite(ctx, db); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	return nil
}

func checkSQLite(ctx context.Context, db *sqlx.DB) error {
	var count int
	return db.GetContext(ctx, &count, "SELECT COUNT(*) FROM sqlite_master")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.ReadFrom(in); err != nil {
		return err
	}
	return out.Sync()
}
