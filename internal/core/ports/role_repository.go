package ports

import (
	"context"

	"github.com/scmportal/accounts-api/internal/core/domain"
)

// RoleRepository defines persistence operations for roles.
type RoleRepository interface {
	// GetOrCreate returns the role named name, inserting it when absent. It is
	// an atomic upsert: concurrent callers with the same name observe one row.
	GetOrCreate(ctx context.Context, name string) (*domain.Role, error)
	// Create inserts r. A duplicate name yields domain.ErrRoleExists.
	Create(ctx context.Context, r *domain.Role) (*domain.Role, error)
	FindByID(ctx context.Context, id int64) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	Update(ctx context.Context, r *domain.Role) (*domain.Role, error)
	// Delete refuses with domain.ErrRoleInUse while any user references the role.
	Delete(ctx context.Context, id int64) error
}
