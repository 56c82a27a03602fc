package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/julianstephens/tally/internal/backup"
)

type BackupCmd struct {
	Create  BackupCreateCmd  `cmd:"" help:"Create a backup now."`
	List    BackupListCmd    `cmd:"" help:"List available backups." default:"1"`
	Restore BackupRestoreCmd `cmd:"" help:"Restore the data file from a backup."`
}

func (ctx *Context) backupManager() (*backup.Manager, error) {
	path := ctx.Store.GetConfigPath()
	if path == "postgresql" {
		return nil, errors.New("backups are not supported for PostgreSQL storage; use pg_dump instead")
	}
	return backup.NewManager(path), nil
}

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}
	path, err := mgr.Create(ctx.Ctx)
	if err != nil {
		return err
	}
	ctx.printf("Backup created: %s\n", path)
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		ctx.printf("No backups in %s\n", mgr.Dir())
		return nil
	}

	tw := ctx.newTable()
	tw.AppendHeader(table.Row{"Name", "Created", "Size"})
	for _, b := range backups {
		tw.AppendRow(table.Row{b.Name(), b.Timestamp.Format("2006-01-02 15:04:05"), fmt.Sprintf("%.1f KB", float64(b.Size)/1024)})
	}
	tw.Render()
	ctx.printf("%d backup(s) in %s\n", len(backups), mgr.Dir())
	return nil
}

type BackupRestoreCmd struct {
	Backup string `arg:"" help:"Backup file name or path."`
	Yes    bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}
	path := c.Backup
	if _, err := os.Stat(path); err != nil && filepath.Base(path) == path {
		path = filepath.Join(mgr.Dir(), path)
	}

	ok, err := ctx.confirm(c.Yes, fmt.Sprintf("Replace the current data with %s?", filepath.Base(path)))
	if err != nil || !ok {
		return err
	}

	// the data file is swapped underneath the store
	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close storage before restore: %w", err)
	}
	safety, err := mgr.Restore(ctx.Ctx, path)
	if err != nil {
		return err
	}
	if safety != "" {
		ctx.printf("Previous data saved to %s\n", safety)
	}
	ctx.printf("Restored from %s\n", path)
	return nil
}
