package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/models"
	"github.com/julianstephens/tally/internal/validation"
)

type TaskCmd struct {
	Add    TaskAddCmd    `cmd:"" help:"Add a task."`
	List   TaskListCmd   `cmd:"" help:"List tasks." default:"1"`
	Done   TaskDoneCmd   `cmd:"" help:"Mark a task done."`
	Reopen TaskReopenCmd `cmd:"" help:"Move a done task back to pending."`
	Status TaskStatusCmd `cmd:"" help:"Set a task's status."`
	Edit   TaskEditCmd   `cmd:"" help:"Edit a task's fields."`
	Delete TaskDeleteCmd `cmd:"" help:"Delete a task."`
}

type TaskAddCmd struct {
	Title       string   `arg:"" help:"Task title."`
	Description string   `help:"Longer description."`
	Priority    string   `help:"low, medium or high." default:"medium"`
	Status      string   `help:"pending, in_progress or done." default:"pending"`
	Due         string   `help:"Due date (YYYY-MM-DD)."`
	Tag         []string `help:"Tag, repeatable."`
}

func (c *TaskAddCmd) Run(ctx *Context) error {
	t, err := ctx.Tracker.CreateTask(ctx.Ctx, validation.TaskInput{
		Title:       c.Title,
		Description: c.Description,
		Priority:    c.Priority,
		Status:      c.Status,
		DueDate:     c.Due,
		Tags:        c.Tag,
	})
	if err != nil {
		return err
	}
	ctx.printf("Added task %q (%s)\n", t.Title, shortID(t.ID))
	return nil
}

type TaskListCmd struct {
	Status string `help:"Only show tasks with this status."`
	All    bool   `help:"Include done tasks."`
}

func (c *TaskListCmd) Run(ctx *Context) error {
	var want constants.TaskStatus
	if c.Status != "" {
		s, err := models.ParseTaskStatus(c.Status)
		if err != nil {
			return validation.Invalidf("%v", err)
		}
		want = s
	}

	tasks, err := ctx.Store.GetAllTasks(ctx.Ctx)
	if err != nil {
		return err
	}
	today, err := ctx.today("")
	if err != nil {
		return err
	}

	tw := ctx.newTable()
	tw.AppendHeader(table.Row{"", "ID", "Title", "Priority", "Status", "Due", "Tags"})
	shown := 0
	for _, t := range tasks {
		if want != "" && t.Status != want {
			continue
		}
		if want == "" && !c.All && t.IsDone() {
			continue
		}
		due := t.DueDate
		if due != "" && !t.IsDone() && due < today {
			due += " (overdue)"
		}
		tw.AppendRow(table.Row{check(t.IsDone()), shortID(t.ID), t.Title, t.Priority, t.Status, due, strings.Join(t.Tags, ",")})
		shown++
	}
	if shown == 0 {
		ctx.printf("No tasks to show.\n")
		return nil
	}
	tw.Render()
	return nil
}

type TaskDoneCmd struct {
	Task string `arg:"" help:"Task ID, ID prefix or title."`
}

func (c *TaskDoneCmd) Run(ctx *Context) error {
	return setStatus(ctx, c.Task, string(constants.TaskStatusDone))
}

type TaskReopenCmd struct {
	Task string `arg:"" help:"Task ID, ID prefix or title."`
}

func (c *TaskReopenCmd) Run(ctx *Context) error {
	return setStatus(ctx, c.Task, string(constants.TaskStatusPending))
}

type TaskStatusCmd struct {
	Task   string `arg:"" help:"Task ID, ID prefix or title."`
	Status string `arg:"" help:"pending, in_progress or done."`
}

func (c *TaskStatusCmd) Run(ctx *Context) error {
	return setStatus(ctx, c.Task, c.Status)
}

func setStatus(ctx *Context, ref, status string) error {
	t, err := ctx.Tracker.ResolveTask(ctx.Ctx, ref)
	if err != nil {
		return err
	}
	t, err = ctx.Tracker.SetTaskStatus(ctx.Ctx, t.ID, status)
	if err != nil {
		return err
	}
	ctx.printf("Task %q is now %s\n", t.Title, t.Status)
	return nil
}

type TaskEditCmd struct {
	Task        string   `arg:"" help:"Task ID, ID prefix or title."`
	Title       string   `help:"New title."`
	Description string   `help:"New description."`
	Priority    string   `help:"New priority."`
	Due         string   `help:"New due date (YYYY-MM-DD)."`
	ClearDue    bool     `help:"Remove the due date."`
	Tag         []string `help:"Replace the tags, repeatable."`
}

func (c *TaskEditCmd) Run(ctx *Context) error {
	if c.ClearDue && c.Due != "" {
		return validation.Invalidf("--due and --clear-due are mutually exclusive")
	}

	var patch models.TaskPatch
	if c.Title != "" {
		patch.Title = &c.Title
	}
	if c.Description != "" {
		patch.Description = &c.Description
	}
	if c.Priority != "" {
		p := constants.Priority(c.Priority)
		patch.Priority = &p
	}
	if c.Due != "" {
		patch.DueDate = &c.Due
	}
	if c.ClearDue {
		empty := ""
		patch.DueDate = &empty
	}
	if len(c.Tag) > 0 {
		patch.Tags = &c.Tag
	}

	t, err := ctx.Tracker.ResolveTask(ctx.Ctx, c.Task)
	if err != nil {
		return err
	}
	t, err = ctx.Tracker.UpdateTask(ctx.Ctx, t.ID, patch)
	if err != nil {
		return err
	}
	ctx.printf("Updated task %q\n", t.Title)
	return nil
}

type TaskDeleteCmd struct {
	Task string `arg:"" help:"Task ID, ID prefix or title."`
	Yes  bool   `short:"y" help:"Skip the confirmation prompt."`
}

func (c *TaskDeleteCmd) Run(ctx *Context) error {
	t, err := ctx.Tracker.ResolveTask(ctx.Ctx, c.Task)
	if err != nil {
		return err
	}
	ok, err := ctx.confirm(c.Yes, fmt.Sprintf("Delete task %q?", t.Title))
	if err != nil || !ok {
		return err
	}
	if err := ctx.Tracker.DeleteTask(ctx.Ctx, t.ID); err != nil {
		return err
	}
	ctx.printf("Deleted task %q\n", t.Title)
	return nil
}
