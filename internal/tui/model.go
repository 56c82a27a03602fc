package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/tracker"
	"github.com/julianstephens/tally/internal/tui/components/habits"
)

type HabitFormModel struct {
	Name      string
	Frequency string
}

type Model struct {
	ctx           context.Context
	tracker       *tracker.Service
	state         constants.SessionState
	previousState constants.SessionState
	keys          KeyMap
	help          help.Model
	habitsModel   habits.Model
	dashboard     tracker.Dashboard
	form          *huh.Form
	habitForm     *HabitFormModel
	habitToDelete habits.DeleteHabitMsg
	statusLine    string
	quitting      bool
	width         int
	height        int
}

// dashboardMsg carries a freshly loaded dashboard.
type dashboardMsg struct {
	dashboard tracker.Dashboard
}

type errMsg struct {
	err error
}

func NewModel(ctx context.Context, t *tracker.Service) Model {
	return Model{
		ctx:         ctx,
		tracker:     t,
		state:       constants.StateHabits,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		habitsModel: habits.New(nil, "", 0, 0),
	}
}

func (m Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Tab, m.keys.Refresh, m.keys.Quit, m.keys.Help}
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Refresh, m.keys.Quit, m.keys.Help}
	var actions []key.Binding
	if m.state == constants.StateHabits {
		hk := habits.DefaultKeyMap()
		actions = []key.Binding{hk.Add, hk.Toggle, hk.Delete}
	}
	return [][]key.Binding{global, actions}
}

func (m Model) Init() tea.Cmd {
	return m.load()
}

// load recomputes today, refreshes cached streaks for it and loads the dashboard.
func (m Model) load() tea.Cmd {
	ctx, t := m.ctx, m.tracker
	return func() tea.Msg {
		today, _, err := t.Today(ctx)
		if err != nil {
			return errMsg{err}
		}
		if _, err := t.RecomputeStreaks(ctx, today); err != nil {
			return errMsg{err}
		}
		d, err := t.Dashboard(ctx, today)
		if err != nil {
			return errMsg{err}
		}
		return dashboardMsg{d}
	}
}

func (m Model) toggle(id string) tea.Cmd {
	ctx, t, today := m.ctx, m.tracker, m.dashboard.Today
	return func() tea.Msg {
		h, done, err := t.ToggleCompletion(ctx, id, today, today)
		if err != nil {
			return errMsg{err}
		}
		verb := "Unmarked"
		if done {
			verb = "Marked"
		}
		return statusMsg(fmt.Sprintf("%s %s for %s (streak %d)", verb, h.Name, today, h.Streak))
	}
}

func (m Model) createHabit(name, frequency string) tea.Cmd {
	ctx, t := m.ctx, m.tracker
	return func() tea.Msg {
		h, err := t.CreateHabit(ctx, name, frequency)
		if err != nil {
			return errMsg{err}
		}
		return statusMsg("Added habit " + h.Name)
	}
}

func (m Model) deleteHabit(id, name string) tea.Cmd {
	ctx, t := m.ctx, m.tracker
	return func() tea.Msg {
		if err := t.DeleteHabit(ctx, id); err != nil {
			return errMsg{err}
		}
		return statusMsg("Deleted habit " + name)
	}
}

// statusMsg reports a completed mutation; the dashboard is reloaded after it.
type statusMsg string
