// Package domain defines the closed role vocabulary used inside an organization.
package domain

import (
	"errors"
	"strings"
	"time"
)

// ErrUnknownRole is returned when a role name is outside the vocabulary.
var ErrUnknownRole = errors.New("unknown role")

// Name is a role name. Only the constants below are valid.
type Name string

const (
	OrgAdmin       Name = "ORG_ADMIN"
	ProjectManager Name = "PROJECT_MANAGER"
	Member         Name = "MEMBER"
)

var descriptions = map[Name]string{
	OrgAdmin:       "Organization administrator",
	ProjectManager: "Project manager",
	Member:         "Member",
}

// Names returns every role name in privilege order, highest first.
func Names() []Name {
	return []Name{OrgAdmin, ProjectManager, Member}
}

// ParseName converts s (case-insensitive) to a Name.
func ParseName(s string) (Name, error) {
	n := Name(strings.ToUpper(strings.TrimSpace(s)))
	if !n.Valid() {
		return "", ErrUnknownRole
	}
	return n, nil
}

// Valid reports whether n is in the vocabulary.
func (n Name) Valid() bool {
	_, ok := descriptions[n]
	return ok
}

// Description is the human label stored with lazily created role rows.
func (n Name) Description() string {
	return descriptions[n]
}

func (n Name) String() string { return string(n) }

// Role is a persisted role row. Roles are global; they apply within one
// organization through a membership.
type Role struct {
	ID          string
	Name        Name
	Description string
	CreatedAt   time.Time
}
