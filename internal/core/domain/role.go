package domain

import "time"

// Role names known to the frontend. Only RoleSCMAdmin carries permissions in
// the default policy.
const (
	RoleSCMAdmin      = "SCM Admin"
	RoleSalesEngineer = "Sales Engineer"
	RoleSalesManager  = "Sales Manager"
	RoleManagement    = "Management"

	RoleNameMaxLength  = 50
	UserNameMaxLength  = 150
	UserEmailMaxLength = 254
)

// DefaultRoles are seeded on migrate so the frontend dropdowns resolve to
// existing rows.
var DefaultRoles = []string{
	RoleSalesEngineer,
	RoleSalesManager,
	RoleSCMAdmin,
	RoleManagement,
}

// Role is a named, unique tag attached to users.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
