// Package cli holds the kong command handlers. Every command receives a *Context.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"

	"github.com/julianstephens/tally/internal/storage"
	"github.com/julianstephens/tally/internal/tracker"
	"github.com/julianstephens/tally/internal/utils"
)

// ErrConfirmationRequired is returned when a destructive command needs a prompt but
// stdin is not a terminal.
var ErrConfirmationRequired = errors.New("confirmation required, pass --yes to skip the prompt")

type Context struct {
	Ctx     context.Context
	Store   storage.Provider
	Tracker *tracker.Service
	Out     io.Writer
	// Plain disables colours and box drawing, set when Out is not a terminal
	Plain bool
	// Confirm asks a yes/no question
	Confirm func(title string) (bool, error)
}

// NewContext wires a Context for store writing to out.
func NewContext(ctx context.Context, store storage.Provider, out io.Writer, opts ...tracker.Option) *Context {
	c := &Context{
		Ctx:     ctx,
		Store:   store,
		Tracker: tracker.New(store, opts...),
		Out:     out,
		Plain:   !IsTerminal(out),
	}
	if IsTerminal(os.Stdin) {
		c.Confirm = huhConfirm
	} else {
		c.Confirm = func(string) (bool, error) { return false, ErrConfirmationRequired }
	}
	return c
}

// IsTerminal reports whether v is a file attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func huhConfirm(title string) (bool, error) {
	var ok bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}

// confirm returns true without prompting when yes is set.
func (c *Context) confirm(yes bool, title string) (bool, error) {
	if yes {
		return true, nil
	}
	ok, err := c.Confirm(title)
	if err != nil {
		return false, err
	}
	if !ok {
		c.printf("Aborted.\n")
	}
	return ok, nil
}

// today returns date when given, otherwise today in the configured timezone.
func (c *Context) today(date string) (string, error) {
	if date != "" {
		if _, err := utils.ParseDay(date); err != nil {
			return "", err
		}
		return date, nil
	}
	today, _, err := c.Tracker.Today(c.Ctx)
	return today, err
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

// newTable returns a table writer mirrored to Out in the context's style.
func (c *Context) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(c.Out)
	if c.Plain {
		tw.SetStyle(table.StyleLight)
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateColumns = false
		tw.Style().Box.PaddingLeft = ""
		tw.Style().Box.PaddingRight = "  "
	} else {
		tw.SetStyle(table.StyleRounded)
	}
	return tw
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func check(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}
