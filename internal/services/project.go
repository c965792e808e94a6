package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/taskflow/apiserver/internal/authz"
	"github.com/taskflow/apiserver/types"
)

// ProjectRepository defines persistence operations for projects.
type ProjectRepository interface {
	List(ctx context.Context) ([]types.Project, error)
	ListForMember(ctx context.Context, userID string) ([]types.Project, error)
	Get(ctx context.Context, id string) (types.Project, error)
	Create(ctx context.Context, project types.Project, memberIDs []string) (types.Project, error)
	Update(ctx context.Context, project types.Project, members *[]string) (types.Project, error)
	Delete(ctx context.Context, id string) error
}

// ProjectUpdate carries the partial-overwrite fields for updateProject.
// Nil fields are left unchanged; a non-nil Members list fully replaces the
// member set.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Members     *[]string
}

// ProjectService encapsulates project use-cases and enforces row-level
// visibility and mutation rules.
type ProjectService struct {
	repo   ProjectRepository
	events *EventPublisher
}

func NewProjectService(repo ProjectRepository, events *EventPublisher) *ProjectService {
	return &ProjectService{repo: repo, events: events}
}

// List returns projects visible to the caller, newest first. Admins and
// managers see everything; a user-role caller sees only projects where they
// appear in the member set.
func (s *ProjectService) List(ctx context.Context, identity types.Identity) ([]types.Project, error) {
	role := authz.Role(identity.Role)
	if authz.CanPerform(role, authz.ActionViewAllProjects, authz.Context{}) {
		return s.repo.List(ctx)
	}
	if authz.CanPerform(role, authz.ActionViewOwnProjects, authz.Context{}) {
		return s.repo.ListForMember(ctx, identity.UserID)
	}
	return nil, ErrForbidden
}

// Get returns a single project with manager, members, and nested tasks.
// A user-role caller may only read projects they are a member of.
func (s *ProjectService) Get(ctx context.Context, identity types.Identity, id string) (types.Project, error) {
	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Project{}, err
	}

	role := authz.Role(identity.Role)
	if authz.CanPerform(role, authz.ActionViewAllProjects, authz.Context{}) {
		return project, nil
	}
	if authz.CanPerform(role, authz.ActionViewOwnProjects, authz.Context{IsMember: isMember(project, identity.UserID)}) &&
		isMember(project, identity.UserID) {
		return project, nil
	}
	return types.Project{}, ErrForbidden
}

// Create makes the caller the project's manager and attaches the given
// members. An unknown member id fails the whole operation with a
// validation error.
func (s *ProjectService) Create(ctx context.Context, identity types.Identity, name, description string, memberIDs []string) (types.Project, error) {
	if !authz.CanPerform(authz.Role(identity.Role), authz.ActionCreateProject, authz.Context{}) {
		return types.Project{}, ErrForbidden
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return types.Project{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := validateIDs(memberIDs); err != nil {
		return types.Project{}, err
	}

	project, err := s.repo.Create(ctx, types.Project{
		Name:        name,
		Description: description,
		ManagerID:   identity.UserID,
	}, memberIDs)
	if err != nil {
		return types.Project{}, err
	}

	s.events.ProjectCreated(ctx, project)
	return project, nil
}

// Update applies a partial overwrite. A supplied member list replaces the
// member set; it is never merged.
func (s *ProjectService) Update(ctx context.Context, identity types.Identity, id string, fields ProjectUpdate) (types.Project, error) {
	if !authz.CanPerform(authz.Role(identity.Role), authz.ActionEditProject, authz.Context{}) {
		return types.Project{}, ErrForbidden
	}

	project, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Project{}, err
	}

	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return types.Project{}, fmt.Errorf("%w: name cannot be blank", ErrInvalidInput)
		}
		project.Name = name
	}
	if fields.Description != nil {
		project.Description = *fields.Description
	}
	if fields.Members != nil {
		if err := validateIDs(*fields.Members); err != nil {
			return types.Project{}, err
		}
	}

	updated, err := s.repo.Update(ctx, project, fields.Members)
	if err != nil {
		return types.Project{}, err
	}
	return updated, nil
}

// Delete removes the project and cascades deletion of its tasks.
func (s *ProjectService) Delete(ctx context.Context, identity types.Identity, id string) error {
	if !authz.CanPerform(authz.Role(identity.Role), authz.ActionDeleteProject, authz.Context{}) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.ProjectDeleted(ctx, id)
	return nil
}

func isMember(project types.Project, userID string) bool {
	for _, member := range project.Members {
		if member.ID == userID {
			return true
		}
	}
	return false
}

func validateIDs(ids []string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("%w: invalid user id %q", ErrInvalidInput, id)
		}
	}
	return nil
}
