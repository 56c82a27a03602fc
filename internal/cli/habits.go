package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/utils"
)

type HabitCmd struct {
	Add       HabitAddCmd       `cmd:"" help:"Add a new habit."`
	List      HabitListCmd      `cmd:"" help:"List habits with their streaks." default:"1"`
	Mark      HabitMarkCmd      `cmd:"" help:"Mark a habit complete for a day."`
	Unmark    HabitUnmarkCmd    `cmd:"" help:"Remove a completion."`
	Toggle    HabitToggleCmd    `cmd:"" help:"Flip a day's completion."`
	Log       HabitLogCmd       `cmd:"" help:"Show a habit's recent history."`
	Rename    HabitRenameCmd    `cmd:"" help:"Rename a habit."`
	Delete    HabitDeleteCmd    `cmd:"" help:"Delete a habit and its history."`
	Recompute HabitRecomputeCmd `cmd:"" help:"Recompute every cached streak for today."`
}

type HabitAddCmd struct {
	Name      string `arg:"" help:"Habit name."`
	Frequency string `help:"Free-form frequency label." default:"daily"`
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	h, err := ctx.Tracker.CreateHabit(ctx.Ctx, c.Name, c.Frequency)
	if err != nil {
		return err
	}
	ctx.printf("Added habit %q (%s)\n", h.Name, shortID(h.ID))
	return nil
}

type HabitListCmd struct {
	Date string `help:"Day whose completions are shown (YYYY-MM-DD), defaults to today."`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	today, err := ctx.today(c.Date)
	if err != nil {
		return err
	}
	habits, err := ctx.Tracker.Habits(ctx.Ctx, today)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ctx.printf("No habits yet. Add one with 'tally habit add <name>'.\n")
		return nil
	}

	tw := ctx.newTable()
	tw.AppendHeader(table.Row{"ID", "Name", "Frequency", "Streak", "Today", "Total"})
	for _, h := range habits {
		tw.AppendRow(table.Row{
			shortID(h.ID),
			h.Name,
			h.Frequency,
			h.Streak,
			check(h.CompletedOn(today)),
			len(h.CompletedDates),
		})
	}
	tw.Render()
	return nil
}

type HabitMarkCmd struct {
	Habit string `arg:"" help:"Habit ID, ID prefix or name."`
	Date  string `help:"Day to mark (YYYY-MM-DD), defaults to today."`
}

func (c *HabitMarkCmd) Run(ctx *Context) error {
	today, err := ctx.today("")
	if err != nil {
		return err
	}
	day := c.Date
	if day == "" {
		day = today
	}
	h, err := ctx.Tracker.ResolveHabit(ctx.Ctx, c.Habit)
	if err != nil {
		return err
	}
	h, err = ctx.Tracker.MarkComplete(ctx.Ctx, h.ID, day, today)
	if err != nil {
		return err
	}
	ctx.printf("Marked %q on %s. Streak: %d\n", h.Name, day, h.Streak)
	return nil
}

type HabitUnmarkCmd struct {
	Habit string `arg:"" help:"Habit ID, ID prefix or name."`
	Date  string `help:"Day to unmark (YYYY-MM-DD), defaults to today."`
}

func (c *HabitUnmarkCmd) Run(ctx *Context) error {
	today, err := ctx.today("")
	if err != nil {
		return err
	}
	day := c.Date
	if day == "" {
		day = today
	}
	h, err := ctx.Tracker.ResolveHabit(ctx.Ctx, c.Habit)
	if err != nil {
		return err
	}
	h, err = ctx.Tracker.UnmarkComplete(ctx.Ctx, h.ID, day, today)
	if err != nil {
		return err
	}
	ctx.printf("Unmarked %q on %s. Streak: %d\n", h.Name, day, h.Streak)
	return nil
}

type HabitToggleCmd struct {
	Habit string `arg:"" help:"Habit ID, ID prefix or name."`
	Date  string `help:"Day to toggle (YYYY-MM-DD), defaults to today."`
}

func (c *HabitToggleCmd) Run(ctx *Context) error {
	today, err := ctx.today("")
	if err != nil {
		return err
	}
	day := c.Date
	if day == "" {
		day = today
	}
	h, err := ctx.Tracker.ResolveHabit(ctx.Ctx, c.Habit)
	if err != nil {
		return err
	}
	h, marked, err := ctx.Tracker.ToggleCompletion(ctx.Ctx, h.ID, day, today)
	if err != nil {
		return err
	}
	verb := "Unmarked"
	if marked {
		verb = "Marked"
	}
	ctx.printf("%s %q on %s. Streak: %d\n", verb, h.Name, day, h.Streak)
	return nil
}

type HabitLogCmd struct {
	Habit string `arg:"" help:"Habit ID, ID prefix or name."`
	Days  int    `help:"Number of days to show." default:"14"`
}

func (c *HabitLogCmd) Run(ctx *Context) error {
	if c.Days <= 0 || c.Days > constants.MaxHeatmapDays {
		return fmt.Errorf("--days must be between 1 and %d", constants.MaxHeatmapDays)
	}
	today, err := ctx.today("")
	if err != nil {
		return err
	}
	h, err := ctx.Tracker.ResolveHabit(ctx.Ctx, c.Habit)
	if err != nil {
		return err
	}
	hist, err := ctx.Tracker.HabitHistory(ctx.Ctx, h.ID, today)
	if err != nil {
		return err
	}

	done := make(map[string]bool, len(hist.Logs))
	for _, l := range hist.Logs {
		if l.Completed {
			done[l.Date] = true
		}
	}

	ctx.printf("%s (streak %d, %d completion(s))\n", hist.Habit.Name, hist.Streak, len(done))
	var row strings.Builder
	for i := c.Days - 1; i >= 0; i-- {
		day, err := utils.AddDays(today, -i)
		if err != nil {
			return err
		}
		mark := "."
		if done[day] {
			mark = "x"
		}
		ctx.printf("  %s %s\n", day, mark)
		row.WriteString(mark)
	}
	ctx.printf("  %s\n", row.String())
	return nil
}

type HabitRenameCmd struct {
	Habit string `arg:"" help:"Habit ID, ID prefix or name."`
	Name  string `arg:"" help:"New name."`
}

func (c *HabitRenameCmd) Run(ctx *Context) error {
	h, err := ctx.Tracker.ResolveHabit(ctx.Ctx, c.Habit)
	if err != nil {
		return err
	}
	old := h.Name
	h, err = ctx.Tracker.RenameHabit(ctx.Ctx, h.ID, c.Name)
	if err != nil {
		return err
	}
	ctx.printf("Renamed %q to %q\n", old, h.Name)
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit ID, ID prefix or name."`
	Yes   bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	h, err := ctx.Tracker.ResolveHabit(ctx.Ctx, c.Habit)
	if err != nil {
		return err
	}
	ok, err := ctx.confirm(c.Yes, fmt.Sprintf("Delete %q and its %d completion(s)?", h.Name, len(h.CompletedDates)))
	if err != nil || !ok {
		return err
	}
	if err := ctx.Tracker.DeleteHabit(ctx.Ctx, h.ID); err != nil {
		return err
	}
	ctx.printf("Deleted habit %q\n", h.Name)
	return nil
}

type HabitRecomputeCmd struct{}

func (c *HabitRecomputeCmd) Run(ctx *Context) error {
	today, err := ctx.today("")
	if err != nil {
		return err
	}
	n, err := ctx.Tracker.RecomputeStreaks(ctx.Ctx, today)
	if err != nil {
		return err
	}
	ctx.printf("Recomputed streaks as of %s: %d changed\n", today, n)
	return nil
}
