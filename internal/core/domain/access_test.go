package domain

import "testing"

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()

	for _, perm := range AdminPermissions {
		if !p.Allows(RoleSCMAdmin, perm) {
			t.Fatalf("expected %s to hold %s", RoleSCMAdmin, perm)
		}
	}

	others := []string{"", RoleSalesEngineer, RoleSalesManager, RoleManagement, "scm admin", "SCM Admin "}
	for _, role := range others {
		for _, perm := range AdminPermissions {
			if p.Allows(role, perm) {
				t.Fatalf("role %q must not hold %s", role, perm)
			}
		}
	}
}

func TestPolicy_Authorize(t *testing.T) {
	p := NewPolicy().Grant(RoleManagement, PermUsersList)

	if err := p.Authorize(Principal{RoleName: RoleManagement}, PermUsersList); err != nil {
		t.Fatalf("expected allowed, got %v", err)
	}
	if err := p.Authorize(Principal{RoleName: RoleManagement}, PermUsersDelete); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := p.Authorize(Principal{IsSuperuser: true}, PermUsersList); err != ErrForbidden {
		t.Fatalf("superuser flag alone must not grant access, got %v", err)
	}
}

func TestPrincipalOf(t *testing.T) {
	u := &User{ID: 5, Email: "x@example.com", IsActive: true, Role: &Role{ID: 2, Name: RoleSCMAdmin}}
	p := PrincipalOf(u)
	if p.UserID != 5 || p.RoleName != RoleSCMAdmin || !p.IsActive {
		t.Fatalf("unexpected principal: %+v", p)
	}

	p = PrincipalOf(&User{ID: 6})
	if p.RoleName != "" {
		t.Fatalf("expected empty role name, got %q", p.RoleName)
	}
}
