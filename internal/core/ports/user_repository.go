package ports

import (
	"context"

	"github.com/scmportal/accounts-api/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
// Returned users carry their Role (when assigned) fully populated.
type UserRepository interface {
	// Create inserts u and returns the stored row. A duplicate email yields
	// domain.ErrUserExists.
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// FindByEmail matches case-insensitively.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns all users, newest id first.
	List(ctx context.Context) ([]*domain.User, error)
	// Update overwrites every mutable column of u (matched by ID).
	Update(ctx context.Context, u *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
