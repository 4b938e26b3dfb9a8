package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("Invalid email or password.")
	ErrAccountDisabled    = errors.New("User account is disabled.")
	ErrInvalidToken       = errors.New("token is invalid or expired")
	ErrForbidden          = errors.New("You do not have permission to perform this action.")
	ErrTooManyAttempts    = errors.New("too many failed login attempts, try again later")

	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user with this email already exists.")
	ErrRoleNotFound = errors.New("role not found")
	ErrRoleExists   = errors.New("role with this name already exists.")
	ErrRoleInUse    = errors.New("role is assigned to one or more users and cannot be deleted")
)

// ValidationError reports per-field input problems. It maps to 400.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Add records a message for field and returns the receiver.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = msg
	return e
}

// Empty reports whether no field errors were recorded.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
