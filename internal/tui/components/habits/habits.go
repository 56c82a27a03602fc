package habits

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/tally/internal/models"
)

type AddHabitMsg struct{}

type ToggleHabitMsg struct {
	ID string
}

type DeleteHabitMsg struct {
	ID   string
	Name string
}

type Item struct {
	Habit    models.Habit
	IsMarked bool
}

func (i Item) Title() string {
	if i.IsMarked {
		return "✓ " + i.Habit.Name
	}
	return "○ " + i.Habit.Name
}

func (i Item) Description() string {
	status := "not completed today"
	if i.IsMarked {
		status = "completed today"
	}
	return fmt.Sprintf("%s | streak %d | %s", i.Habit.Frequency, i.Habit.Streak, status)
}

func (i Item) FilterValue() string { return i.Habit.Name }

type KeyMap struct {
	Add    key.Binding
	Toggle key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "m"),
			key.WithHelp("space/m", "toggle today"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(habits []models.Habit, today string, width, height int) Model {
	l := list.New(items(habits, today), list.NewDefaultDelegate(), width, height)
	l.Title = "Habits"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Toggle, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Toggle, keys.Delete}
	}

	return Model{list: l, keys: keys}
}

func items(habits []models.Habit, today string) []list.Item {
	out := make([]list.Item, len(habits))
	for i, h := range habits {
		out[i] = Item{Habit: h, IsMarked: h.CompletedOn(today)}
	}
	return out
}

// SetHabits replaces the list contents, keeping the cursor where it was.
func (m *Model) SetHabits(habits []models.Habit, today string) {
	idx := m.list.Index()
	m.list.SetItems(items(habits, today))
	if idx < len(habits) {
		m.list.Select(idx)
	}
}

// Items returns the current list entries.
func (m Model) Items() []Item {
	out := make([]Item, 0, len(m.list.Items()))
	for _, it := range m.list.Items() {
		if i, ok := it.(Item); ok {
			out = append(out, i)
		}
	}
	return out
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddHabitMsg{} }
		case key.Matches(msg, m.keys.Toggle):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return ToggleHabitMsg{ID: i.Habit.ID} }
			}
		case key.Matches(msg, m.keys.Delete):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return DeleteHabitMsg{ID: i.Habit.ID, Name: i.Habit.Name} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No habits yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
