package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/tui/components/habits"
)

var errEmptyName = errors.New("name is required")

const tabCount = 2

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.habitsModel.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case dashboardMsg:
		m.dashboard = msg.dashboard
		m.habitsModel.SetHabits(msg.dashboard.Habits, msg.dashboard.Today)
		return m, nil

	case statusMsg:
		m.statusLine = string(msg)
		return m, m.load()

	case errMsg:
		m.statusLine = "Error: " + msg.err.Error()
		return m, nil

	case habits.AddHabitMsg:
		m.habitForm = &HabitFormModel{Frequency: constants.DefaultFrequency}
		m.form = NewHabitForm(m.habitForm)
		m.previousState = m.state
		m.state = constants.StateAddHabit
		return m, m.form.Init()

	case habits.ToggleHabitMsg:
		return m, m.toggle(msg.ID)

	case habits.DeleteHabitMsg:
		m.habitToDelete = msg
		m.previousState = m.state
		m.state = constants.StateConfirmDelete
		return m, nil
	}

	switch m.state {
	case constants.StateAddHabit:
		return m.updateForm(msg)
	case constants.StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.statusLine = ""
			return m, m.load()
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		}
	}

	if m.state == constants.StateHabits {
		var cmd tea.Cmd
		m.habitsModel, cmd = m.habitsModel.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = m.previousState
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.state = m.previousState
		return m, tea.Batch(cmd, m.createHabit(m.habitForm.Name, m.habitForm.Frequency))
	case huh.StateAborted:
		m.state = m.previousState
	}
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Confirm):
		m.state = m.previousState
		return m, m.deleteHabit(m.habitToDelete.ID, m.habitToDelete.Name)
	case key.Matches(keyMsg, m.keys.Cancel):
		m.state = m.previousState
	}
	return m, nil
}
