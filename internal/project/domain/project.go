// Package domain defines projects, the top-level work containers of an organization.
package domain

import (
	"errors"
	"time"

	"projecthub/backend/internal/platform/validation"
)

// ErrSlugTaken is returned when the organization already has a project with the slug.
var ErrSlugTaken = errors.New("project slug already exists in this organization")

// Project belongs to exactly one organization. Deleting a project deactivates it.
type Project struct {
	ID          string
	OrgID       string
	Name        string
	Slug        string
	Description string
	IsActive    bool
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the user-editable fields.
func (p *Project) Validate() error {
	if err := validation.Length("name", p.Name, 1, 255); err != nil {
		return err
	}
	if err := validation.Slug("slug", p.Slug); err != nil {
		return err
	}
	return validation.Length("description", p.Description, 0, 5000)
}
