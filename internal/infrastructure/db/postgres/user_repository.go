package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/scmportal/accounts-api/internal/core/domain"
)

const selectUser = `
	SELECT u.id, u.email, u.name, u.password_hash, u.is_active, u.is_staff, u.is_superuser, u.created_at, u.updated_at,
	       r.id, r.name, r.description, r.is_active, r.created_at, r.updated_at
	FROM users u
	LEFT JOIN roles r ON r.id = u.role_id`

// UserRepository implements ports.UserRepository using PostgreSQL.
type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts u. The role, when set, must already exist.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		INSERT INTO users (email, name, password_hash, role_id, is_active, is_staff, is_superuser, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	out := *u
	err := r.db.QueryRow(ctx, query,
		u.Email,
		u.Name,
		u.PasswordHash,
		u.RoleID(),
		u.IsActive,
		u.IsStaff,
		u.IsSuperuser,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(&out.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		if isForeignKeyViolation(err) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &out, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.scanOne(ctx, selectUser+` WHERE u.id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanOne(ctx, selectUser+` WHERE lower(u.email) = lower($1)`, email)
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, selectUser+` ORDER BY u.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `
		UPDATE users
		SET email = $1, name = $2, password_hash = $3, role_id = $4,
		    is_active = $5, is_staff = $6, is_superuser = $7, updated_at = $8
		WHERE id = $9`

	ct, err := r.db.Exec(ctx, query,
		u.Email,
		u.Name,
		u.PasswordHash,
		u.RoleID(),
		u.IsActive,
		u.IsStaff,
		u.IsSuperuser,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		if isForeignKeyViolation(err) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, domain.ErrUserNotFound
	}

	out := *u
	return &out, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ct, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// scanUser reads one selectUser row. The role columns are NULL when the user
// has no role.
func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u          domain.User
		roleID     *int64
		roleName   *string
		roleDesc   *string
		roleActive *bool
		roleCreate *time.Time
		roleUpdate *time.Time
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.IsActive,
		&u.IsStaff,
		&u.IsSuperuser,
		&u.CreatedAt,
		&u.UpdatedAt,
		&roleID,
		&roleName,
		&roleDesc,
		&roleActive,
		&roleCreate,
		&roleUpdate,
	)
	if err != nil {
		return nil, err
	}
	if roleID != nil {
		u.Role = &domain.Role{ID: *roleID}
		if roleName != nil {
			u.Role.Name = *roleName
		}
		if roleDesc != nil {
			u.Role.Description = *roleDesc
		}
		if roleActive != nil {
			u.Role.IsActive = *roleActive
		}
		if roleCreate != nil {
			u.Role.CreatedAt = *roleCreate
		}
		if roleUpdate != nil {
			u.Role.UpdatedAt = *roleUpdate
		}
	}
	return &u, nil
}
