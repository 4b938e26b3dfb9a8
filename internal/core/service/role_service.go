package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/scmportal/accounts-api/internal/core/domain"
	"github.com/scmportal/accounts-api/internal/core/ports"
)

type RoleService struct {
	roles  ports.RoleRepository
	policy *domain.Policy
	log    zerolog.Logger
}

func NewRoleService(roles ports.RoleRepository, policy *domain.Policy, log zerolog.Logger) *RoleService {
	if policy == nil {
		policy = domain.DefaultPolicy()
	}
	return &RoleService{roles: roles, policy: policy, log: log}
}

func (s *RoleService) List(ctx context.Context, actor domain.Principal) ([]*domain.Role, error) {
	if err := s.policy.Authorize(actor, domain.PermRolesList); err != nil {
		return nil, err
	}
	return s.roles.List(ctx)
}

func (s *RoleService) Get(ctx context.Context, actor domain.Principal, id int64) (*domain.Role, error) {
	if err := s.policy.Authorize(actor, domain.PermRolesRead); err != nil {
		return nil, err
	}
	return s.roles.FindByID(ctx, id)
}

func (s *RoleService) Create(ctx context.Context, actor domain.Principal, in ports.CreateRoleInput) (*domain.Role, error) {
	if err := s.policy.Authorize(actor, domain.PermRolesCreate); err != nil {
		return nil, err
	}

	var v fieldChecks
	v.name("name", in.Name, domain.RoleNameMaxLength)
	if err := v.err(); err != nil {
		return nil, err
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	now := time.Now().UTC()
	created, err := s.roles.Create(ctx, &domain.Role{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		IsActive:    active,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, roleConflict(err)
	}

	s.log.Info().Int64("role_id", created.ID).Str("name", created.Name).Int64("actor_id", actor.UserID).Msg("role created")
	return created, nil
}

func (s *RoleService) Update(ctx context.Context, actor domain.Principal, id int64, in ports.UpdateRoleInput) (*domain.Role, error) {
	if err := s.policy.Authorize(actor, domain.PermRolesUpdate); err != nil {
		return nil, err
	}

	var v fieldChecks
	if in.Name != nil {
		v.name("name", *in.Name, domain.RoleNameMaxLength)
	}
	if err := v.err(); err != nil {
		return nil, err
	}

	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		role.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		role.Description = *in.Description
	}
	if in.IsActive != nil {
		role.IsActive = *in.IsActive
	}
	role.UpdatedAt = time.Now().UTC()

	updated, err := s.roles.Update(ctx, role)
	if err != nil {
		return nil, roleConflict(err)
	}
	s.log.Info().Int64("role_id", updated.ID).Int64("actor_id", actor.UserID).Msg("role updated")
	return updated, nil
}

// Delete removes a role. It fails with domain.ErrRoleInUse while any user
// still references it; nothing is changed in that case.
func (s *RoleService) Delete(ctx context.Context, actor domain.Principal, id int64) error {
	if err := s.policy.Authorize(actor, domain.PermRolesDelete); err != nil {
		return err
	}
	if err := s.roles.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("role_id", id).Int64("actor_id", actor.UserID).Msg("role deleted")
	return nil
}

func roleConflict(err error) error {
	if errors.Is(err, domain.ErrRoleExists) {
		return domain.NewValidationError("name", domain.ErrRoleExists.Error())
	}
	return err
}
