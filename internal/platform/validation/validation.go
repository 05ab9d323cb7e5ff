// Package validation carries field-level input errors from services to transports.
package validation

import (
	"errors"
	"fmt"
	"regexp"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// Error is a rejected input field. Transports map it to 400.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// New returns a validation error for field.
func New(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// Errorf returns a validation error for field with a formatted message.
func Errorf(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// As reports whether err is (or wraps) a validation error and returns it.
func As(err error) (*Error, bool) {
	var v *Error
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// Length returns an error when the rune length of s is outside [min, max].
func Length(field, s string, min, max int) error {
	n := len([]rune(s))
	if n < min {
		if min == 1 {
			return New(field, "is required")
		}
		return Errorf(field, "must be at least %d characters", min)
	}
	if n > max {
		return Errorf(field, "must be at most %d characters", max)
	}
	return nil
}

// Slug returns an error unless s is 1-100 lowercase letters, digits or dashes.
func Slug(field, s string) error {
	if err := Length(field, s, 1, 100); err != nil {
		return err
	}
	if !slugPattern.MatchString(s) {
		return New(field, "must contain only lowercase letters, digits and dashes")
	}
	return nil
}
