// Package domain defines task comments.
package domain

import (
	"time"

	"projecthub/backend/internal/platform/validation"
)

// Comment is written by one user on one task and carries the task's organization.
type Comment struct {
	ID        string
	OrgID     string
	TaskID    string
	UserID    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the content.
func (c *Comment) Validate() error {
	return validation.Length("content", c.Content, 1, 10000)
}
