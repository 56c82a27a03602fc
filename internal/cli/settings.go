package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/julianstephens/tally/internal/constants"
)

type SettingsCmd struct {
	Show SettingsShowCmd `cmd:"" help:"Show current settings." default:"1"`
	Set  SettingsSetCmd  `cmd:"" help:"Change a setting."`
}

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx *Context) error {
	s, err := ctx.Tracker.Settings(ctx.Ctx)
	if err != nil {
		return err
	}
	tw := ctx.newTable()
	tw.AppendHeader(table.Row{"Key", "Value"})
	tw.AppendRows([]table.Row{
		{constants.SettingDisplayName, s.DisplayName},
		{constants.SettingTimezone, s.Timezone},
		{constants.SettingStreakPolicy, s.StreakPolicy},
		{constants.SettingHeatmapDays, s.HeatmapDays},
		{constants.SettingTrendWeeks, s.TrendWeeks},
	})
	tw.Render()
	return nil
}

type SettingsSetCmd struct {
	Key   string `arg:"" help:"Setting name." enum:"display_name,timezone,streak_policy,heatmap_days,trend_weeks"`
	Value string `arg:"" help:"New value."`
}

func (c *SettingsSetCmd) Run(ctx *Context) error {
	if _, err := ctx.Tracker.SetSetting(ctx.Ctx, c.Key, c.Value); err != nil {
		return err
	}
	ctx.printf("Set %s = %s\n", c.Key, c.Value)
	return nil
}
