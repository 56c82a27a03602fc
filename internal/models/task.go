package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/tally/internal/constants"
)

type Task struct {
	ID          string               `json:"id" yaml:"id" db:"id"`
	Title       string               `json:"title" yaml:"title" db:"title"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty" db:"description"`
	Priority    constants.Priority   `json:"priority" yaml:"priority" db:"priority"`
	Status      constants.TaskStatus `json:"status" yaml:"status" db:"status"`
	DueDate     string               `json:"due_date,omitempty" yaml:"due_date,omitempty" db:"due_date"` // YYYY-MM-DD format
	Tags        []string             `json:"tags,omitempty" yaml:"tags,omitempty" db:"-"`
	CreatedAt   time.Time            `json:"created_at" yaml:"created_at" db:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" yaml:"updated_at" db:"updated_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty" yaml:"completed_at,omitempty" db:"completed_at"`
}

// TaskPatch holds the optional fields of a partial task update
type TaskPatch struct {
	Title       *string
	Description *string
	Priority    *constants.Priority
	DueDate     *string
	Tags        *[]string
}

// IsDone reports whether the task is in the done state.
func (t Task) IsDone() bool {
	return t.Status == constants.TaskStatusDone
}

// SetStatus moves the task to status, stamping CompletedAt on entry to done and
// clearing it on exit so that CompletedAt is set exactly when the task is done.
func (t *Task) SetStatus(status constants.TaskStatus, now time.Time) {
	switch {
	case status == constants.TaskStatusDone && t.CompletedAt == nil:
		ts := now
		t.CompletedAt = &ts
	case status != constants.TaskStatusDone:
		t.CompletedAt = nil
	}
	t.Status = status
	t.UpdatedAt = now
}

// Apply copies the set fields of p onto the task.
func (t *Task) Apply(p TaskPatch, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Tags != nil {
		t.Tags = NormalizeTags(*p.Tags)
	}
	t.UpdatedAt = now
}

// NormalizeTags trims, de-duplicates and sorts tags.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ParseTaskStatus maps the loosely-typed status spellings seen in imported data
// onto the canonical status.
func ParseTaskStatus(s string) (constants.TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "":
		return constants.TaskStatusPending, nil
	case "in progress", "in-progress", "in_progress":
		return constants.TaskStatusInProgress, nil
	case "done", "completed":
		return constants.TaskStatusDone, nil
	}
	return "", fmt.Errorf("unknown task status %q", s)
}

// ParsePriority lowercases and validates a priority. Empty means medium.
func ParsePriority(s string) (constants.Priority, error) {
	switch p := constants.Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case constants.PriorityLow, constants.PriorityMedium, constants.PriorityHigh:
		return p, nil
	case "":
		return constants.PriorityMedium, nil
	}
	return "", fmt.Errorf("unknown priority %q", s)
}
