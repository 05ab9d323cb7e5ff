// Package domain defines boards, the columns of work inside a project.
package domain

import (
	"time"

	"projecthub/backend/internal/platform/validation"
)

// Board belongs to one project and carries that project's organization.
type Board struct {
	ID          string
	OrgID       string
	ProjectID   string
	Name        string
	Description string
	Position    int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the user-editable fields.
func (b *Board) Validate() error {
	if err := validation.Length("name", b.Name, 1, 255); err != nil {
		return err
	}
	if b.Position < 0 {
		return validation.New("position", "must not be negative")
	}
	return validation.Length("description", b.Description, 0, 5000)
}
