package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/tally/internal/constants"
	"github.com/julianstephens/tally/internal/tui/components/heatmap"
	"github.com/julianstephens/tally/internal/tui/components/statspanel"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateHabits:
		content = docStyle.Render(m.habitsModel.View())
	case constants.StateStats:
		content = m.viewStats()
	case constants.StateAddHabit:
		content = docStyle.Render(m.form.View())
	case constants.StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	parts := []string{m.viewTabs(), m.viewHeatmap(), content}
	if m.statusLine != "" {
		parts = append(parts, warningStyle.Render(m.statusLine))
	}
	parts = append(parts, m.help.View(m))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range []string{"Habits", "Stats"} {
		if m.state == constants.SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	tabs = append(tabs, inactiveTabStyle.Render(m.dashboard.Today))
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewHeatmap() string {
	if len(m.dashboard.Heatmap) == 0 {
		return ""
	}
	return docStyle.Render(fmt.Sprintf("%s  %s", heatmap.Strip(m.dashboard.Heatmap, false), heatmap.Legend(false)))
}

func (m Model) viewStats() string {
	title := fmt.Sprintf("%s · %s", m.dashboard.Settings.DisplayName, m.dashboard.Today)
	return docStyle.Render(statspanel.Render(title, m.dashboard.Stats))
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, max(m.height-6, 5),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete habit %q and its history?", m.habitToDelete.Name)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
