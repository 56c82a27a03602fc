package tui

import (
	"strings"

	"github.com/charmbracelet/huh"
)

// NewHabitForm builds the add-habit form bound to hf.
func NewHabitForm(hf *HabitFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&hf.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errEmptyName
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Frequency").
				Options(
					huh.NewOption("Daily", "daily"),
					huh.NewOption("Weekdays", "weekdays"),
					huh.NewOption("Weekly", "weekly"),
				).
				Value(&hf.Frequency),
		),
	).WithShowHelp(true)
}
