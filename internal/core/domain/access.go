package domain

// Permission names a single gated operation.
type Permission string

const (
	PermUsersList   Permission = "users:list"
	PermUsersRead   Permission = "users:read"
	PermUsersCreate Permission = "users:create"
	PermUsersUpdate Permission = "users:update"
	PermUsersDelete Permission = "users:delete"

	PermRolesList   Permission = "roles:list"
	PermRolesRead   Permission = "roles:read"
	PermRolesCreate Permission = "roles:create"
	PermRolesUpdate Permission = "roles:update"
	PermRolesDelete Permission = "roles:delete"
)

// AdminPermissions is everything the management API exposes.
var AdminPermissions = []Permission{
	PermUsersList, PermUsersRead, PermUsersCreate, PermUsersUpdate, PermUsersDelete,
	PermRolesList, PermRolesRead, PermRolesCreate, PermRolesUpdate, PermRolesDelete,
}

// Principal is the authenticated caller, resolved once per request and passed
// explicitly to every service call.
type Principal struct {
	UserID      int64
	Email       string
	RoleName    string
	IsActive    bool
	IsSuperuser bool
}

// PrincipalOf builds the Principal for a loaded user.
func PrincipalOf(u *User) Principal {
	return Principal{
		UserID:      u.ID,
		Email:       u.Email,
		RoleName:    u.RoleName(),
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
	}
}

// Policy is an allow-list of permissions per role name. Role names are matched
// exactly (case-sensitive); a principal without a role matches nothing.
type Policy struct {
	grants map[string]map[Permission]struct{}
}

// NewPolicy returns an empty policy.
func NewPolicy() *Policy {
	return &Policy{grants: make(map[string]map[Permission]struct{})}
}

// DefaultPolicy grants the whole management surface to RoleSCMAdmin only.
func DefaultPolicy() *Policy {
	return NewPolicy().Grant(RoleSCMAdmin, AdminPermissions...)
}

// Grant adds perms to roleName and returns the receiver.
func (p *Policy) Grant(roleName string, perms ...Permission) *Policy {
	set, ok := p.grants[roleName]
	if !ok {
		set = make(map[Permission]struct{}, len(perms))
		p.grants[roleName] = set
	}
	for _, perm := range perms {
		set[perm] = struct{}{}
	}
	return p
}

// Allows reports whether roleName holds perm.
func (p *Policy) Allows(roleName string, perm Permission) bool {
	if roleName == "" {
		return false
	}
	_, ok := p.grants[roleName][perm]
	return ok
}

// Authorize returns ErrForbidden unless the principal's role holds perm.
func (p *Policy) Authorize(actor Principal, perm Permission) error {
	if !p.Allows(actor.RoleName, perm) {
		return ErrForbidden
	}
	return nil
}
