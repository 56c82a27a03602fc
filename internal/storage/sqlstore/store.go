// Package sqlstore implements storage.Provider on SQLite and PostgreSQL through sqlx.
// Queries are written once with `?` placeholders and rebound per driver.
package sqlstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/migration"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/migrations"
)

// Dialect names the SQL backend. The value doubles as the database/sql driver name.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know
	sqlx.BindDriver(string(SQLite), sqlx.QUESTION)
}

type Store struct {
	dialect Dialect
	dsn     string // file path for SQLite, connection string for PostgreSQL
	db      *sqlx.DB
}

var _ storage.Provider = (*Store)(nil)

// NewSQLite creates a store backed by the SQLite file at path.
func NewSQLite(path string) *Store {
	return &Store{dialect: SQLite, dsn: path}
}

// NewPostgres creates a store backed by PostgreSQL. The tally schema is put on the search_path.
func NewPostgres(connStr string) *Store {
	return &Store{dialect: Postgres, dsn: ensureSearchPath(connStr)}
}

// Dialect reports which backend the store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// DB returns the underlying handle, or nil before Init/Load.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func (s *Store) open(ctx context.Context) error {
	switch s.dialect {
	case SQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", s.dsn)
		db, err := sqlx.Open(string(SQLite), dsn)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		// one writer; also serializes read-modify-write transactions
		db.SetMaxOpenConns(1)
		s.db = db
	case Postgres:
		db, err := sqlx.Open(string(Postgres), s.dsn)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		s.db = db
	default:
		return fmt.Errorf("unsupported dialect %q", s.dialect)
	}

	if err := s.db.PingContext(ctx); err != nil {
		if s.dialect == Postgres && strings.Contains(err.Error(), "SSL is not enabled on the server") && !hasSSLMode(s.dsn) {
			return fmt.Errorf("failed to connect to database: %w (hint: try adding ?sslmode=disable to your connection string)", err)
		}
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

func (s *Store) Init(ctx context.Context) error {
	if s.dialect == SQLite {
		if err := os.MkdirAll(filepath.Dir(s.dsn), 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if s.db == nil {
		if err := s.open(ctx); err != nil {
			return err
		}
	}
	if s.dialect == Postgres {
		if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+constants.AppName); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	if _, err := s.Migrate(ctx, func(msg string) { logger.Info(msg) }); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// seed default settings on a fresh database
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT count(*) FROM settings"); err != nil {
		return fmt.Errorf("failed to read settings: %w", err)
	}
	if count == 0 {
		if err := s.SaveSettings(ctx, models.DefaultSettings()); err != nil {
			return fmt.Errorf("failed to save default settings: %w", err)
		}
	}
	return nil
}

func (s *Store) Load(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	if s.dialect == SQLite {
		if _, err := os.Stat(s.dsn); os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", storage.ErrNotInitialized, s.dsn)
		}
	}
	if err := s.open(ctx); err != nil {
		return err
	}
	return s.runner().ValidateVersion(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Migrate applies pending embedded migrations for the store's dialect.
func (s *Store) Migrate(ctx context.Context, logFn func(string)) (int, error) {
	if s.db == nil {
		return 0, storage.ErrNotLoaded
	}
	return s.runner().ApplyMigrations(ctx, logFn)
}

// MigrationStatus reports the schema version and pending migrations.
func (s *Store) MigrationStatus(ctx context.Context) (migration.Status, error) {
	if s.db == nil {
		return migration.Status{}, storage.ErrNotLoaded
	}
	return s.runner().Status(ctx)
}

func (s *Store) runner() *migration.Runner {
	subFS, err := fs.Sub(migrations.FS, string(s.dialect))
	if err != nil {
		// the embedded directories are fixed at build time
		panic(fmt.Sprintf("missing %s migrations: %v", s.dialect, err))
	}
	return migration.NewRunner(s.db, subFS)
}

func (s *Store) GetConfigPath() string {
	if s.dialect == Postgres {
		// non-sensitive identifier instead of the connection string
		return "postgresql"
	}
	return s.dsn
}

// withinTx runs fn in a transaction, rolling back on error or panic.
func (s *Store) withinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *Store) ready() error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(field, v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", field, err)
	}
	return t, nil
}
