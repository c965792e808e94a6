package services

import (
	"context"
	"fmt"

	"github.com/taskflow/apiserver/internal/authz"
	"github.com/taskflow/apiserver/types"
)

// UserRepository defines the persistence operations for user administration.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	List(ctx context.Context) ([]types.User, error)
	UpdateRole(ctx context.Context, id, role string) (types.User, error)
	Delete(ctx context.Context, id string) error
}

// UserAdminService encapsulates admin operations over accounts.
type UserAdminService struct {
	repo   UserRepository
	events *EventPublisher
}

func NewUserAdminService(repo UserRepository, events *EventPublisher) *UserAdminService {
	return &UserAdminService{repo: repo, events: events}
}

// List returns all users. Admins and managers may list; the password hash is
// excluded by serialization, not by this method.
func (s *UserAdminService) List(ctx context.Context, identity types.Identity) ([]types.User, error) {
	if !authz.CanPerform(authz.Role(identity.Role), authz.ActionListUsers, authz.Context{}) {
		return nil, ErrForbidden
	}
	return s.repo.List(ctx)
}

// UpdateRole changes a user's role. Admin only.
func (s *UserAdminService) UpdateRole(ctx context.Context, identity types.Identity, id, role string) (types.User, error) {
	if !authz.CanPerform(authz.Role(identity.Role), authz.ActionEditUserRole, authz.Context{}) {
		return types.User{}, ErrForbidden
	}
	if !authz.ValidRole(role) {
		return types.User{}, fmt.Errorf("%w: invalid role %q", ErrInvalidInput, role)
	}
	return s.repo.UpdateRole(ctx, id, role)
}

// Delete removes a user. Admin only. The store cascades: managed projects
// (with their tasks and memberships) are deleted, task assignments nulled.
func (s *UserAdminService) Delete(ctx context.Context, identity types.Identity, id string) error {
	if !authz.CanPerform(authz.Role(identity.Role), authz.ActionDeleteUser, authz.Context{}) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.UserDeleted(ctx, id)
	return nil
}
