package ports

import (
	"context"

	"github.com/scmportal/accounts-api/internal/core/domain"
)

// CreateUserInput carries the fields accepted when creating a user.
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
	IsActive *bool // nil = default true
}

// UpdateUserInput carries an update; nil fields are left unchanged. With
// Full set, Name and Email are required.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
	IsActive *bool
	Full     bool
}

// CreateSuperuserInput is the bootstrap path used by the CLI.
type CreateSuperuserInput struct {
	Name     string
	Email    string
	Password string
	Role     string // optional
}

type UserService interface {
	List(ctx context.Context, actor domain.Principal) ([]*domain.User, error)
	Get(ctx context.Context, actor domain.Principal, id int64) (*domain.User, error)
	Create(ctx context.Context, actor domain.Principal, in CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, actor domain.Principal, id int64, in UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, actor domain.Principal, id int64) error
	CreateSuperuser(ctx context.Context, in CreateSuperuserInput) (*domain.User, error)
}
