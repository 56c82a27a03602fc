package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/julianstephens/tally/internal/models"
)

func (s *Store) GetSettings(ctx context.Context) (models.Settings, error) {
	if err := s.ready(); err != nil {
		return models.Settings{}, err
	}

	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := s.db.SelectContext(ctx, &rows, "SELECT key, value FROM settings"); err != nil {
		return models.Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	data := make(map[string]string, len(rows))
	for _, r := range rows {
		data[r.Key] = r.Value
	}
	return models.MapToSettings(data)
}

func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	return s.withinTx(ctx, func(tx *sqlx.Tx) error {
		upsert := tx.Rebind(`
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`)
		for key, value := range models.SettingsToMap(settings) {
			if _, err := tx.ExecContext(ctx, upsert, key, value); err != nil {
				return fmt.Errorf("failed to save setting %s: %w", key, err)
			}
		}
		return nil
	})
}
