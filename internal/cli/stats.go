package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/export"
	"github.com/julianstephens/tally/internal/stats"
	"github.com/julianstephens/tally/internal/tui/components/heatmap"
	"github.com/julianstephens/tally/internal/tui/components/statspanel"
)

type StatsCmd struct {
	Date string `help:"Reference day (YYYY-MM-DD), defaults to today."`
}

func (c *StatsCmd) Run(ctx *Context) error {
	today, err := ctx.today(c.Date)
	if err != nil {
		return err
	}
	d, err := ctx.Tracker.Dashboard(ctx.Ctx, today)
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s, %s", d.Settings.DisplayName, today)
	if !ctx.Plain {
		ctx.printf("%s\n", statspanel.Render(title, d.Stats))
		return nil
	}
	ctx.printf("%s\n", title)
	tw := ctx.newTable()
	for _, row := range statspanel.Rows(d.Stats) {
		tw.AppendRow(table.Row{row[0], row[1]})
	}
	tw.AppendRow(table.Row{"Productivity", fmt.Sprintf("%d", d.Stats.ProductivityScore)})
	tw.Render()
	return nil
}

type HeatmapCmd struct {
	Days int    `help:"Window length in days; 0 uses the heatmap_days setting."`
	Date string `help:"Last day of the window (YYYY-MM-DD), defaults to today."`
	List bool   `help:"Print one line per day instead of a strip."`
}

func (c *HeatmapCmd) Run(ctx *Context) error {
	if c.Days < 0 || c.Days > constants.MaxHeatmapDays {
		return fmt.Errorf("--days must be between 0 and %d", constants.MaxHeatmapDays)
	}
	today, err := ctx.today(c.Date)
	if err != nil {
		return err
	}
	days := c.Days
	if days == 0 {
		settings, err := ctx.Tracker.Settings(ctx.Ctx)
		if err != nil {
			return err
		}
		days = settings.HeatmapDays
	}
	habits, err := ctx.Store.GetAllHabits(ctx.Ctx)
	if err != nil {
		return err
	}
	cells, err := stats.Heatmap(habits, today, days)
	if err != nil {
		return err
	}

	if c.List {
		tw := ctx.newTable()
		tw.AppendHeader(table.Row{"Date", "Day", "Done", "Rate", ""})
		for _, cell := range cells {
			tw.AppendRow(table.Row{cell.Date, cell.Weekday, cell.CompletedHabits, fmt.Sprintf("%d%%", cell.CompletionRate), heatmap.Glyph(cell.Bucket)})
		}
		tw.Render()
		return nil
	}

	if len(cells) > 0 {
		ctx.printf("%s .. %s\n", cells[0].Date, cells[len(cells)-1].Date)
	}
	ctx.printf("%s\n%s\n", heatmap.Strip(cells, ctx.Plain), heatmap.Legend(ctx.Plain))
	return nil
}

type AnalyticsCmd struct {
	Date string `help:"Reference day (YYYY-MM-DD), defaults to today."`
}

func (c *AnalyticsCmd) Run(ctx *Context) error {
	today, err := ctx.today(c.Date)
	if err != nil {
		return err
	}
	d, err := ctx.Tracker.Dashboard(ctx.Ctx, today)
	if err != nil {
		return err
	}

	ctx.printf("Tasks completed per week\n")
	peak := 0
	for _, w := range d.Weekly {
		peak = max(peak, w.Completed)
	}
	tw := ctx.newTable()
	tw.AppendHeader(table.Row{"Week", "Done", ""})
	for _, w := range d.Weekly {
		tw.AppendRow(table.Row{w.Label, w.Completed, bar(w.Completed, peak, 20)})
	}
	tw.Render()

	ctx.printf("\nHabit completion, last %d days\n", d.Settings.HeatmapDays)
	tw = ctx.newTable()
	tw.AppendHeader(table.Row{"Habit", "Done", "Rate"})
	for _, r := range d.HabitRates {
		tw.AppendRow(table.Row{r.Name, r.Completions, fmt.Sprintf("%d%%", r.Rate)})
	}
	tw.Render()

	ctx.printf("\nStreak leaderboard\n")
	tw = ctx.newTable()
	tw.AppendHeader(table.Row{"#", "Habit", "Streak"})
	for i, e := range d.Leaderboard {
		tw.AppendRow(table.Row{i + 1, e.Name, e.Streak})
	}
	tw.Render()
	return nil
}

func bar(n, peak, width int) string {
	if peak == 0 {
		return ""
	}
	filled := n * width / peak
	out := make([]byte, filled)
	for i := range out {
		out[i] = '#'
	}
	return string(out)
}

type ExportCmd struct {
	Format string `help:"json or yaml." default:"json" enum:"json,yaml,yml"`
	Output string `short:"o" help:"Write to this file instead of stdout." type:"path"`
	Date   string `help:"Reference day (YYYY-MM-DD), defaults to today."`
}

func (c *ExportCmd) Run(ctx *Context) error {
	format, err := export.ParseFormat(c.Format)
	if err != nil {
		return err
	}
	today, err := ctx.today(c.Date)
	if err != nil {
		return err
	}
	d, err := ctx.Tracker.Dashboard(ctx.Ctx, today)
	if err != nil {
		return err
	}
	doc := export.FromDashboard(d, time.Now())

	if c.Output == "" {
		return export.Write(ctx.Out, doc, format)
	}
	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := export.Write(f, doc, format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	ctx.printf("Exported %d habit(s), %d task(s) and %d goal(s) to %s\n", len(doc.Habits), len(doc.Tasks), len(doc.Goals), c.Output)
	return nil
}
