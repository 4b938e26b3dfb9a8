package ports

import (
	"context"

	"github.com/scmportal/accounts-api/internal/core/domain"
)

type CreateRoleInput struct {
	Name        string
	Description string
	IsActive    *bool
}

type UpdateRoleInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

type RoleService interface {
	List(ctx context.Context, actor domain.Principal) ([]*domain.Role, error)
	Get(ctx context.Context, actor domain.Principal, id int64) (*domain.Role, error)
	Create(ctx context.Context, actor domain.Principal, in CreateRoleInput) (*domain.Role, error)
	Update(ctx context.Context, actor domain.Principal, id int64, in UpdateRoleInput) (*domain.Role, error)
	Delete(ctx context.Context, actor domain.Principal, id int64) error
}
