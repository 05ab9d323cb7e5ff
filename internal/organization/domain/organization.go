package domain

import (
	"errors"
	"time"

	"projecthub/backend/internal/platform/validation"
)

// ErrSlugTaken is returned when another organization already uses the slug.
var ErrSlugTaken = errors.New("organization slug already taken")

// Org represents an organization/tenant.
type Org struct {
	ID        string
	Name      string
	Slug      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Org) Validate() error {
	if err := validation.Length("organization_name", o.Name, 1, 255); err != nil {
		return err
	}
	return ValidateSlug("organization_slug", o.Slug)
}

// ValidateSlug checks that slug is 1-100 lowercase letters, digits or dashes.
func ValidateSlug(field, slug string) error {
	return validation.Slug(field, slug)
}
