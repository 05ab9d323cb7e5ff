// Package domain defines tasks, their workflow status and priority.
package domain

import (
	"strings"
	"time"

	"projecthub/backend/internal/platform/validation"
)

// Status is a task's workflow state.
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusInReview   Status = "IN_REVIEW"
	StatusDone       Status = "DONE"
	StatusBlocked    Status = "BLOCKED"
)

// Priority orders tasks by urgency.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var (
	statuses   = []Status{StatusTodo, StatusInProgress, StatusInReview, StatusDone, StatusBlocked}
	priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
)

// ParseStatus converts s (case-insensitive) to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range statuses {
		if st == known {
			return st, nil
		}
	}
	return "", validation.Errorf("status", "must be one of %s", joinStatuses())
}

// ParsePriority converts s (case-insensitive) to a Priority.
func ParsePriority(s string) (Priority, error) {
	pr := Priority(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range priorities {
		if pr == known {
			return pr, nil
		}
	}
	return "", validation.New("priority", "must be one of LOW, MEDIUM, HIGH, URGENT")
}

func joinStatuses() string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Task lives on a board and carries the board's organization. AssignedTo is empty when unassigned.
type Task struct {
	ID          string
	OrgID       string
	BoardID     string
	Title       string
	Description string
	Status      Status
	Priority    Priority
	AssignedTo  string
	CreatedBy   string
	DueDate     *time.Time
	Position    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the user-editable fields.
func (t *Task) Validate() error {
	if err := validation.Length("title", t.Title, 1, 255); err != nil {
		return err
	}
	if err := validation.Length("description", t.Description, 0, 10000); err != nil {
		return err
	}
	if t.Position < 0 {
		return validation.New("position", "must not be negative")
	}
	return nil
}

// Filter narrows a board's task listing. Empty fields match everything.
type Filter struct {
	Status     Status
	AssignedTo string
}
