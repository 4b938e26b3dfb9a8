package ports

import "context"

// Store groups the repositories of one storage backend.
type Store interface {
	Users() UserRepository
	Roles() RoleRepository
	// WithTx runs fn with repositories bound to a single unit of work. The
	// unit commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
