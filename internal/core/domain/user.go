package domain

import (
	"strings"
	"time"
)

// PasswordMinLength is the shortest plaintext password accepted on create/update.
const PasswordMinLength = 8

// User models an account that can log in and, depending on its role, manage
// other accounts. Email is the login identifier.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         *Role     `json:"role,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleName returns the assigned role's name, or "" when no role is assigned.
func (u *User) RoleName() string {
	if u == nil || u.Role == nil {
		return ""
	}
	return u.Role.Name
}

// RoleID returns the assigned role's id, or nil when no role is assigned.
func (u *User) RoleID() *int64 {
	if u == nil || u.Role == nil {
		return nil
	}
	id := u.Role.ID
	return &id
}

// NormalizeEmail trims surrounding whitespace and lower-cases the domain part,
// leaving the local part untouched.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// EmailKey is the case-insensitive lookup key for an email address.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
