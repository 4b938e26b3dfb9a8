package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/scmportal/accounts-api/internal/core/domain"
	"github.com/scmportal/accounts-api/internal/core/ports"
)

type UserService struct {
	store  ports.Store
	policy *domain.Policy
	log    zerolog.Logger
}

func NewUserService(store ports.Store, policy *domain.Policy, log zerolog.Logger) *UserService {
	if policy == nil {
		policy = domain.DefaultPolicy()
	}
	return &UserService{store: store, policy: policy, log: log}
}

func (s *UserService) List(ctx context.Context, actor domain.Principal) ([]*domain.User, error) {
	if err := s.policy.Authorize(actor, domain.PermUsersList); err != nil {
		return nil, err
	}
	return s.store.Users().List(ctx)
}

func (s *UserService) Get(ctx context.Context, actor domain.Principal, id int64) (*domain.User, error) {
	if err := s.policy.Authorize(actor, domain.PermUsersRead); err != nil {
		return nil, err
	}
	return s.store.Users().FindByID(ctx, id)
}

// Create validates in, hashes the password and stores the user together with
// its (possibly new) role in one unit of work.
func (s *UserService) Create(ctx context.Context, actor domain.Principal, in ports.CreateUserInput) (*domain.User, error) {
	if err := s.policy.Authorize(actor, domain.PermUsersCreate); err != nil {
		return nil, err
	}

	var v fieldChecks
	v.name("name", in.Name, domain.UserNameMaxLength)
	v.email("email", in.Email)
	v.password("password", in.Password)
	v.name("role", in.Role, domain.RoleNameMaxLength)
	if err := v.err(); err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	created, err := s.create(ctx, &domain.User{
		Email:    domain.NormalizeEmail(in.Email),
		Name:     strings.TrimSpace(in.Name),
		IsActive: active,
	}, in.Password, strings.TrimSpace(in.Role))
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", created.ID).Int64("actor_id", actor.UserID).Str("role", created.RoleName()).Msg("user created")
	return created, nil
}

// CreateSuperuser bootstraps an administrator without an acting principal.
// Role is optional here.
func (s *UserService) CreateSuperuser(ctx context.Context, in ports.CreateSuperuserInput) (*domain.User, error) {
	var v fieldChecks
	v.name("name", in.Name, domain.UserNameMaxLength)
	v.email("email", in.Email)
	v.password("password", in.Password)
	if strings.TrimSpace(in.Role) != "" {
		v.maxLen("role", strings.TrimSpace(in.Role), domain.RoleNameMaxLength)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	created, err := s.create(ctx, &domain.User{
		Email:       domain.NormalizeEmail(in.Email),
		Name:        strings.TrimSpace(in.Name),
		IsActive:    true,
		IsStaff:     true,
		IsSuperuser: true,
	}, in.Password, strings.TrimSpace(in.Role))
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", created.ID).Str("email", created.Email).Msg("superuser created")
	return created, nil
}

func (s *UserService) create(ctx context.Context, u *domain.User, password, roleName string) (*domain.User, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u.PasswordHash = hash
	u.CreatedAt = now
	u.UpdatedAt = now

	var created *domain.User
	err = s.store.WithTx(ctx, func(tx ports.Store) error {
		if roleName != "" {
			role, err := tx.Roles().GetOrCreate(ctx, roleName)
			if err != nil {
				return err
			}
			u.Role = role
		}
		created, err = tx.Users().Create(ctx, u)
		return err
	})
	if err != nil {
		return nil, userConflict(err)
	}
	return created, nil
}

// Update applies the non-nil fields of in. A full update must carry name and
// email; password, role and is_active stay optional.
func (s *UserService) Update(ctx context.Context, actor domain.Principal, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	if err := s.policy.Authorize(actor, domain.PermUsersUpdate); err != nil {
		return nil, err
	}

	var v fieldChecks
	if in.Name != nil || in.Full {
		v.name("name", deref(in.Name), domain.UserNameMaxLength)
	}
	if in.Email != nil || in.Full {
		v.email("email", deref(in.Email))
	}
	if in.Password != nil {
		v.password("password", *in.Password)
	}
	if in.Role != nil {
		v.name("role", *in.Role, domain.RoleNameMaxLength)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	var hash string
	if in.Password != nil {
		h, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	var updated *domain.User
	err := s.store.WithTx(ctx, func(tx ports.Store) error {
		u, err := tx.Users().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Name != nil {
			u.Name = strings.TrimSpace(*in.Name)
		}
		if in.Email != nil {
			u.Email = domain.NormalizeEmail(*in.Email)
		}
		if in.IsActive != nil {
			u.IsActive = *in.IsActive
		}
		if hash != "" {
			u.PasswordHash = hash
		}
		if in.Role != nil {
			role, err := tx.Roles().GetOrCreate(ctx, strings.TrimSpace(*in.Role))
			if err != nil {
				return err
			}
			u.Role = role
		}
		u.UpdatedAt = time.Now().UTC()

		updated, err = tx.Users().Update(ctx, u)
		return err
	})
	if err != nil {
		return nil, userConflict(err)
	}

	s.log.Info().Int64("user_id", updated.ID).Int64("actor_id", actor.UserID).Msg("user updated")
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, actor domain.Principal, id int64) error {
	if err := s.policy.Authorize(actor, domain.PermUsersDelete); err != nil {
		return err
	}
	if err := s.store.Users().Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("user_id", id).Int64("actor_id", actor.UserID).Msg("user deleted")
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.NewValidationError("password", msgMaxLen(72))
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// userConflict reports a duplicate email as a field error on "email".
func userConflict(err error) error {
	if errors.Is(err, domain.ErrUserExists) {
		return domain.NewValidationError("email", domain.ErrUserExists.Error())
	}
	return err
}
