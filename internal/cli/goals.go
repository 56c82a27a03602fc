package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/tracker"
	"github.com/julianstephens/tally/internal/validation"
)

type GoalCmd struct {
	Add       GoalAddCmd       `cmd:"" help:"Add a goal."`
	List      GoalListCmd      `cmd:"" help:"List goals." default:"1"`
	Show      GoalShowCmd      `cmd:"" help:"Show a goal with its milestones and links."`
	Edit      GoalEditCmd      `cmd:"" help:"Edit a goal's fields."`
	Progress  GoalProgressCmd  `cmd:"" help:"Set or nudge manual progress."`
	Milestone GoalMilestoneCmd `cmd:"" help:"Manage milestones."`
	Link      GoalLinkCmd      `cmd:"" help:"Link a task or habit."`
	Unlink    GoalUnlinkCmd    `cmd:"" help:"Remove a task or habit link."`
	Complete  GoalCompleteCmd  `cmd:"" help:"Toggle a goal between active and completed."`
	Delete    GoalDeleteCmd    `cmd:"" help:"Delete a goal."`
}

type GoalAddCmd struct {
	Title       string   `arg:"" help:"Goal title."`
	Description string   `help:"Longer description."`
	Start       string   `help:"Start date (YYYY-MM-DD)."`
	Target      string   `help:"Target date (YYYY-MM-DD)."`
	Milestone   []string `help:"Milestone text, repeatable."`
}

func (c *GoalAddCmd) Run(ctx *Context) error {
	g, err := ctx.Tracker.CreateGoal(ctx.Ctx, tracker.GoalInput{
		Title:       c.Title,
		Description: c.Description,
		StartDate:   c.Start,
		TargetDate:  c.Target,
		Milestones:  c.Milestone,
	})
	if err != nil {
		return err
	}
	ctx.printf("Added goal %q (%s)\n", g.Title, shortID(g.ID))
	return nil
}

type GoalListCmd struct{}

func (c *GoalListCmd) Run(ctx *Context) error {
	goals, err := ctx.Store.GetAllGoals(ctx.Ctx)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		ctx.printf("No goals yet. Add one with 'tally goal add <title>'.\n")
		return nil
	}

	tw := ctx.newTable()
	tw.AppendHeader(table.Row{"ID", "Title", "Status", "Progress", "Milestones", "Target", "Links"})
	for _, g := range goals {
		done := 0
		for _, m := range g.Milestones {
			if m.Completed {
				done++
			}
		}
		tw.AppendRow(table.Row{
			shortID(g.ID),
			g.Title,
			g.Status,
			fmt.Sprintf("%3d%% %s", g.Progress, progressBar(g.Progress, 10)),
			fmt.Sprintf("%d/%d", done, len(g.Milestones)),
			g.TargetDate,
			len(g.LinkedTaskIDs) + len(g.LinkedHabitIDs),
		})
	}
	tw.Render()
	return nil
}

func progressBar(progress, width int) string {
	filled := models.ClampProgress(progress) * width / constants.MaxProgress
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

type GoalShowCmd struct {
	Goal string `arg:"" help:"Goal ID, ID prefix or title."`
}

func (c *GoalShowCmd) Run(ctx *Context) error {
	g, err := ctx.Tracker.ResolveGoal(ctx.Ctx, c.Goal)
	if err != nil {
		return err
	}
	ctx.printf("%s (%s)\n", g.Title, g.Status)
	if g.Description != "" {
		ctx.printf("  %s\n", g.Description)
	}
	ctx.printf("  Progress: %d%% %s\n", g.Progress, progressBar(g.Progress, 20))
	if g.StartDate != "" || g.TargetDate != "" {
		ctx.printf("  Dates:    %s .. %s\n", g.StartDate, g.TargetDate)
	}
	for i, m := range g.Milestones {
		ctx.printf("  %d. %s %s\n", i+1, check(m.Completed), m.Text)
	}
	for _, id := range g.LinkedTaskIDs {
		title := "(missing)"
		if t, err := ctx.Store.GetTask(ctx.Ctx, id); err == nil {
			title = t.Title
		}
		ctx.printf("  task  %s %s\n", shortID(id), title)
	}
	for _, id := range g.LinkedHabitIDs {
		name := "(missing)"
		if h, err := ctx.Store.GetHabit(ctx.Ctx, id); err == nil {
			name = h.Name
		}
		ctx.printf("  habit %s %s\n", shortID(id), name)
	}
	return nil
}

type GoalEditCmd struct {
	Goal        string `arg:"" help:"Goal ID, ID prefix or title."`
	Title       string `help:"New title."`
	Description string `help:"New description."`
	Start       string `help:"New start date (YYYY-MM-DD)."`
	Target      string `help:"New target date (YYYY-MM-DD)."`
}

func (c *GoalEditCmd) Run(ctx *Context) error {
	var patch models.GoalPatch
	if c.Title != "" {
		patch.Title = &c.Title
	}
	if c.Description != "" {
		patch.Description = &c.Description
	}
	if c.Start != "" {
		patch.StartDate = &c.Start
	}
	if c.Target != "" {
		patch.TargetDate = &c.Target
	}

	g, err := ctx.Tracker.ResolveGoal(ctx.Ctx, c.Goal)
	if err != nil {
		return err
	}
	g, err = ctx.Tracker.UpdateGoal(ctx.Ctx, g.ID, patch)
	if err != nil {
		return err
	}
	ctx.printf("Updated goal %q\n", g.Title)
	return nil
}

type GoalProgressCmd struct {
	Goal string `arg:"" help:"Goal ID, ID prefix or title."`
	Set  int    `help:"Set progress to this value (0-100)." xor:"progress" default:"-1"`
	Inc  bool   `help:"Raise progress by one step." xor:"progress"`
	Dec  bool   `help:"Lower progress by one step." xor:"progress"`
}

func (c *GoalProgressCmd) Run(ctx *Context) error {
	g, err := ctx.Tracker.ResolveGoal(ctx.Ctx, c.Goal)
	if err != nil {
		return err
	}
	switch {
	case c.Set >= 0:
		g, err = ctx.Tracker.SetGoalProgress(ctx.Ctx, g.ID, c.Set)
	case c.Inc:
		g, err = ctx.Tracker.AdjustGoalProgress(ctx.Ctx, g.ID, constants.GoalProgressStep)
	case c.Dec:
		g, err = ctx.Tracker.AdjustGoalProgress(ctx.Ctx, g.ID, -constants.GoalProgressStep)
	default:
		return errors.New("one of --set, --inc or --dec is required")
	}
	if err != nil {
		return err
	}
	ctx.printf("%s: %d%% %s\n", g.Title, g.Progress, progressBar(g.Progress, 20))
	return nil
}

type GoalMilestoneCmd struct {
	Add    GoalMilestoneAddCmd    `cmd:"" help:"Append a milestone."`
	Toggle GoalMilestoneToggleCmd `cmd:"" help:"Flip a milestone's completion."`
	Remove GoalMilestoneRemoveCmd `cmd:"" help:"Remove a milestone."`
}

type GoalMilestoneAddCmd struct {
	Goal string `arg:"" help:"Goal ID, ID prefix or title."`
	Text string `arg:"" help:"Milestone text."`
}

func (c *GoalMilestoneAddCmd) Run(ctx *Context) error {
	g, err := ctx.Tracker.ResolveGoal(ctx.Ctx, c.Goal)
	if err != nil {
		return err
	}
	g, err = ctx.Tracker.AddMilestone(ctx.Ctx, g.ID, c.Text)
	if err != nil {
		return err
	}
	ctx.printf("Added milestone %d to %q. Progress: %d%%\n", len(g.Milestones), g.Title, g.Progress)
	return nil
}

type GoalMilestoneToggleCmd struct {
	Goal  string `arg:"" help:"Goal ID, ID prefix or title."`
	Index int    `arg:"" help:"Milestone number, starting at 1."`
}

func (c *GoalMilestoneToggleCmd) Run(ctx *Context) error {
	g, err := ctx.Tracker.ResolveGoal(ctx.Ctx, c.Goal)
	if err != nil {
		return err
	}
	g, err = ctx.Tracker.ToggleMilestone(ctx.Ctx, g.ID, c.Index-1)
	if err != nil {
		return err
	}
	m := g.Milestones[c.Index-1]
	ctx.printf("%s %s. Progress: %d%%\n", check(m.Completed), m.Text, g.Progress)
	return nil
}

type GoalMilestoneRemoveCmd struct {
	Goal  string `arg:"" help:"Goal ID, ID prefix or title."`
	Index int    `arg:"" help:"Milestone number, starting at 1."`
}

func (c *GoalMilestoneRemoveCmd) Run(ctx *Context) error {
	g, err := ctx.Tracker.ResolveGoal(ctx.Ctx, c.Goal)
	if err != nil {
		return err
	}
	g, err = ctx.Tracker.RemoveMilestone(ctx.Ctx, g.ID, c.Index-1)
	if err != nil {
		return err
	}
	ctx.printf("Removed milestone %d from %q. Progress: %d%%\n", c.Index, g.Title, g.Progress)
	return nil
}

type GoalLinkCmd struct {
	Goal  string `arg:"" help:"Goal ID, ID prefix or title."`
	Task  string `help:"Task to link." xor:"target"`
	Habit string `help:"Habit to link." xor:"target"`
}

func (c *GoalLinkCmd) Run(ctx *Context) error {
	return link(ctx, c.Goal, c.Task, c.Habit, true)
}

type GoalUnlinkCmd struct {
	Goal  string `arg:"" help:"Goal ID, ID prefix or title."`
	Task  string `help:"Task to unlink." xor:"target"`
	Habit string `help:"Habit to unlink." xor:"target"`
}

func (c *GoalUnlinkCmd) Run(ctx *Context) error {
	return link(ctx, c.Goal, c.Task, c.Habit, false)
}

func link(ctx *Context, goalRef, taskRef, habitRef string, on bool) error {
	g, err := ctx.Tracker.ResolveGoal(ctx.Ctx, goalRef)
	if err != nil {
		return err
	}

	var kind, label string
	switch {
	case taskRef != "":
		t, err := ctx.Tracker.ResolveTask(ctx.Ctx, taskRef)
		if err != nil {
			return err
		}
		kind, label = "task", t.Title
		if on {
			_, err = ctx.Tracker.LinkTask(ctx.Ctx, g.ID, t.ID)
		} else {
			_, err = ctx.Tracker.UnlinkTask(ctx.Ctx, g.ID, t.ID)
		}
		if err != nil {
			return err
		}
	case habitRef != "":
		h, err := ctx.Tracker.ResolveHabit(ctx.Ctx, habitRef)
		if err != nil {
			return err
		}
		kind, label = "habit", h.Name
		if on {
			_, err = ctx.Tracker.LinkHabit(ctx.Ctx, g.ID, h.ID)
		} else {
			_, err = ctx.Tracker.UnlinkHabit(ctx.Ctx, g.ID, h.ID)
		}
		if err != nil {
			return err
		}
	default:
		return validation.Invalidf("one of --task or --habit is required")
	}

	if on {
		ctx.printf("Linked %s %q to %q\n", kind, label, g.Title)
	} else {
		ctx.printf("Unlinked %s %q from %q\n", kind, label, g.Title)
	}
	return nil
}

type GoalCompleteCmd struct {
	Goal string `arg:"" help:"Goal ID, ID prefix or title."`
}

func (c *GoalCompleteCmd) Run(ctx *Context) error {
	g, err := ctx.Tracker.ResolveGoal(ctx.Ctx, c.Goal)
	if err != nil {
		return err
	}
	g, err = ctx.Tracker.ToggleGoalCompleted(ctx.Ctx, g.ID)
	if err != nil {
		return err
	}
	ctx.printf("Goal %q is now %s\n", g.Title, g.Status)
	return nil
}

type GoalDeleteCmd struct {
	Goal string `arg:"" help:"Goal ID, ID prefix or title."`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *GoalDeleteCmd) Run(ctx *Context) error {
	g, err := ctx.Tracker.ResolveGoal(ctx.Ctx, c.Goal)
	if err != nil {
		return err
	}
	ok, err := ctx.confirm(c.Yes, fmt.Sprintf("Delete goal %q?", g.Title))
	if err != nil || !ok {
		return err
	}
	if err := ctx.Tracker.DeleteGoal(ctx.Ctx, g.ID); err != nil {
		return err
	}
	ctx.printf("Deleted goal %q\n", g.Title)
	return nil
}
