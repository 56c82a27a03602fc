package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/tally/internal/api"
	"github.com/julianstephens/tally/internal/backup"
	"github.com/julianstephens/tally/internal/keyring"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/migration"
	"github.com/julianstephens/tally/internal/storage/sqlstore"
	"github.com/julianstephens/tally/internal/tui"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	if err := ctx.Store.Init(ctx.Ctx); err != nil {
		return err
	}
	ctx.printf("Initialized tally storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}

// migrator is implemented by the SQL stores.
type migrator interface {
	Migrate(ctx context.Context, logFn func(string)) (int, error)
	MigrationStatus(ctx context.Context) (migration.Status, error)
}

var _ migrator = (*sqlstore.Store)(nil)

type MigrateCmd struct {
	Status bool `help:"Only report the schema version and pending migrations."`
}

func (c *MigrateCmd) Run(ctx *Context) error {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return errors.New("migrate only applies to SQLite and PostgreSQL storage")
	}

	if c.Status {
		st, err := m.MigrationStatus(ctx.Ctx)
		if err != nil {
			return err
		}
		ctx.printf("Current schema version: %d\nLatest schema version:  %d\nPending migrations:     %d\n", st.Current, st.Latest, len(st.Pending))
		return nil
	}

	count, err := m.Migrate(ctx.Ctx, func(msg string) { ctx.printf("%s\n", msg) })
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if count == 0 {
		ctx.printf("No migrations to apply. Database is up to date.\n")
	} else {
		ctx.printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}

type ValidateCmd struct {
	Date string `help:"Reference day (YYYY-MM-DD), defaults to today."`
}

func (c *ValidateCmd) Run(ctx *Context) error {
	today, err := ctx.today(c.Date)
	if err != nil {
		return err
	}
	result, err := ctx.Tracker.Validate(ctx.Ctx, today)
	if err != nil {
		return err
	}
	ctx.printf("%s\n", strings.TrimRight(result.FormatReport(), "\n"))
	if result.HasConflicts() {
		ctx.printf("Run 'tally habit recompute' to refresh stale streaks.\n")
	}
	return nil
}

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *Context) error {
	ctx.automaticBackup()
	p := tea.NewProgram(tui.NewModel(ctx.Ctx, ctx.Tracker), tea.WithAltScreen(), tea.WithContext(ctx.Ctx))
	_, err := p.Run()
	return err
}

// automaticBackup snapshots file-backed stores, logging instead of failing.
func (ctx *Context) automaticBackup() {
	path := ctx.Store.GetConfigPath()
	if path == "postgresql" {
		return
	}
	if _, err := backup.NewManager(path).Create(ctx.Ctx); err != nil {
		logger.Warn("Automatic backup failed", "err", err)
	}
}

type ServeCmd struct {
	Addr      string `help:"Listen address." env:"TALLY_ADDR" default:"127.0.0.1:8080"`
	JWTSecret string `help:"HS256 secret for bearer auth. Falls back to the OS keyring; auth is off when neither is set." env:"TALLY_JWT_SECRET"`
}

func (c *ServeCmd) Run(ctx *Context) error {
	secret := c.JWTSecret
	if secret == "" {
		s, err := keyring.JWTSecret()
		switch {
		case err == nil:
			secret = s
		case errors.Is(err, keyring.ErrNotFound):
		default:
			logger.Warn("Keyring lookup failed", "err", err)
		}
	}
	if secret == "" {
		logger.Warn("API authentication is disabled")
	}

	handler, err := api.New(api.Config{Tracker: ctx.Tracker, JWTSecret: secret})
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(ctx.Ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx.printf("Serving the tally API on http://%s%s\n", c.Addr, api.DefaultBasePath)
	return api.Serve(sigCtx, c.Addr, handler)
}

type ConfigCmd struct {
	SetConnection   ConfigSetConnectionCmd   `cmd:"" help:"Store a PostgreSQL connection string in the OS keyring."`
	ClearConnection ConfigClearConnectionCmd `cmd:"" help:"Remove the stored PostgreSQL connection string."`
	SetJWTSecret    ConfigSetJWTSecretCmd    `cmd:"" name:"set-jwt-secret" help:"Store the API signing secret in the OS keyring."`
}

type ConfigSetConnectionCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string."`
}

func (c *ConfigSetConnectionCmd) Run(ctx *Context) error {
	if !sqlstore.IsPostgresURL(c.ConnectionString) && !strings.Contains(c.ConnectionString, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}
	if _, err := sqlstore.ValidateConnString(c.ConnectionString); err != nil {
		if !errors.Is(err, sqlstore.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		ctx.printf("Warning: the connection string embeds a password; it is stored as-is in the encrypted OS keyring.\n")
	}
	if err := keyring.SetConnectionString(c.ConnectionString); err != nil {
		return err
	}
	ctx.printf("Connection string stored in the OS keyring.\n")
	return nil
}

type ConfigClearConnectionCmd struct{}

func (c *ConfigClearConnectionCmd) Run(ctx *Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return err
	}
	ctx.printf("Connection string removed from the OS keyring.\n")
	return nil
}

type ConfigSetJWTSecretCmd struct {
	Secret string `arg:"" help:"Signing secret."`
}

func (c *ConfigSetJWTSecretCmd) Run(ctx *Context) error {
	if err := keyring.Set(keyring.AccountJWTSecret, c.Secret); err != nil {
		return err
	}
	ctx.printf("API secret stored in the OS keyring.\n")
	return nil
}
