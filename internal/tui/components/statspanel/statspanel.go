package statspanel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/tally/internal/stats"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(24)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// Rows returns the panel's label/value pairs in display order.
func Rows(b stats.Bundle) [][2]string {
	return [][2]string{
		{"Habits done today", fmt.Sprintf("%d/%d", b.HabitsCompletedToday, b.ActiveHabits)},
		{"Consistency", fmt.Sprintf("%d%%", b.ConsistencyScore)},
		{"Average streak", fmt.Sprintf("%d", b.AvgStreak)},
		{"Tasks done", fmt.Sprintf("%d/%d", b.TasksDone, b.TotalTasks)},
		{"Completion rate", fmt.Sprintf("%d%%", b.CompletionRate)},
		{"Due today", fmt.Sprintf("%d", b.DueToday)},
		{"Done this week", fmt.Sprintf("%d", b.TasksCompletedThisWeek)},
		{"Goals on track", fmt.Sprintf("%d/%d", b.GoalsOnTrack, b.TotalGoals)},
		{"Active goals", fmt.Sprintf("%d", b.ActiveGoals)},
		{"Productivity", fmt.Sprintf("%d", b.ProductivityScore)},
	}
}

// Render draws the bundle as a bordered panel.
func Render(title string, b stats.Bundle) string {
	lines := []string{valueStyle.Render(title), ""}
	for _, row := range Rows(b) {
		lines = append(lines, labelStyle.Render(row[0])+valueStyle.Render(row[1]))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
