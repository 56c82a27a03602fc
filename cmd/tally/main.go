package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/julianstephens/tally/internal/cli"
	"github.com/julianstephens/tally/internal/constants"
	apperrors "github.com/julianstephens/tally/internal/errors"
	"github.com/julianstephens/tally/internal/keyring"
	"github.com/julianstephens/tally/internal/logger"
	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/storage/sqlstore"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Data file (.db for SQLite, .json for a JSON document) or a PostgreSQL connection string. PostgreSQL credentials must NOT be embedded; use TALLY_DB_CONNECTION, .pgpass or the OS keyring instead." env:"TALLY_CONFIG" default:"~/.config/tally/tally.db"`
	Debug   bool   `help:"Log debug output to stderr." env:"TALLY_DEBUG"`

	Init      cli.InitCmd      `cmd:"" help:"Initialize tally storage."`
	Migrate   cli.MigrateCmd   `cmd:"" help:"Run database migrations."`
	Validate  cli.ValidateCmd  `cmd:"" help:"Check stored records for inconsistencies."`
	Tui       cli.TuiCmd       `cmd:"" help:"Launch the interactive dashboard." default:"1"`
	Serve     cli.ServeCmd     `cmd:"" help:"Serve the read-mostly HTTP API."`
	Habit     cli.HabitCmd     `cmd:"" help:"Manage habits and completions."`
	Task      cli.TaskCmd      `cmd:"" help:"Manage tasks."`
	Goal      cli.GoalCmd      `cmd:"" help:"Manage goals, milestones and links."`
	Stats     cli.StatsCmd     `cmd:"" help:"Show the summary statistics."`
	Heatmap   cli.HeatmapCmd   `cmd:"" help:"Show the habit completion heatmap."`
	Analytics cli.AnalyticsCmd `cmd:"" help:"Show weekly completions, habit rates and the streak leaderboard."`
	Export    cli.ExportCmd    `cmd:"" help:"Export all records and derived views."`
	Backup    cli.BackupCmd    `cmd:"" help:"Manage data file backups."`
	Settings  cli.SettingsCmd  `cmd:"" help:"Manage application settings."`
	Keyring   cli.ConfigCmd    `cmd:"" name:"config" help:"Manage credentials stored in the OS keyring."`
}

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit, task and goal tracker with streaks and statistics"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	command := kctx.Command()
	serving := strings.HasPrefix(command, "serve")

	configPath := CLI.Config
	logDir := filepath.Dir(expandHome(constants.DefaultConfigPath))
	if !isPostgres(configPath) {
		configPath = expandHome(configPath)
		logDir = filepath.Dir(configPath)
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: logDir, JSON: serving, Stderr: serving}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	store, err := openStore(configPath)
	if err != nil {
		apperrors.Fatal(err)
	}
	defer store.Close()

	ctx := context.Background()
	appCtx := cli.NewContext(ctx, store, os.Stdout)

	// init creates the store and config only touches the keyring
	if !strings.HasPrefix(command, "init") && !strings.HasPrefix(command, "config") {
		if err := store.Load(ctx); err != nil {
			apperrors.Fatal(err)
		}
	}

	if err := kctx.Run(appCtx); err != nil {
		_ = store.Close()
		apperrors.Fatal(err)
	}
}

func openStore(config string) (storage.Provider, error) {
	if sqlstore.IsPostgresURL(config) {
		if sqlstore.HasEmbeddedCredentials(config) {
			return nil, fmt.Errorf("PostgreSQL connection strings with embedded credentials are not allowed; " +
				"store it with 'tally config set-connection', export " + constants.EnvDBConnection + ", or use a .pgpass file")
		}
		return sqlstore.NewPostgres(config), nil
	}
	if isPostgres(config) {
		conn := os.Getenv(constants.EnvDBConnection)
		if conn == "" {
			var err error
			if conn, err = keyring.GetConnectionString(); err != nil {
				return nil, fmt.Errorf("no PostgreSQL connection string in %s or the OS keyring: %w", constants.EnvDBConnection, err)
			}
		}
		return sqlstore.NewPostgres(conn), nil
	}
	if strings.EqualFold(filepath.Ext(config), ".json") {
		return storage.NewJSONStore(config), nil
	}
	return sqlstore.NewSQLite(config), nil
}

// isPostgres reports whether config names PostgreSQL, either as a URL or as the bare
// word "postgresql" which reads the connection string from the environment or keyring.
func isPostgres(config string) bool {
	return sqlstore.IsPostgresURL(config) || config == "postgresql" || config == "postgres"
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
