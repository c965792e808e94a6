package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/apiserver/internal/authz"
	"github.com/taskflow/apiserver/internal/storage"
	"github.com/taskflow/apiserver/types"
)

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	List(ctx context.Context) ([]types.Task, error)
	ListForAssignee(ctx context.Context, userID string) ([]types.Task, error)
	Get(ctx context.Context, id string) (types.Task, error)
	Create(ctx context.Context, task types.Task) (types.Task, error)
	Update(ctx context.Context, task types.Task) (types.Task, error)
}

// TaskCreate carries the fields for createTask.
type TaskCreate struct {
	Title       string
	Description string
	Status      string
	DueDate     *time.Time
	ProjectID   string
	AssignedTo  *string
}

// TaskUpdate carries the partial-overwrite fields for updateTask. Nil
// fields are left unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
	DueDate     *time.Time
	AssignedTo  *string
}

// TaskService encapsulates task use-cases and enforces assignee-scoped
// mutation rules.
type TaskService struct {
	repo    TaskRepository
	storage *storage.Storage
	events  *EventPublisher
}

func NewTaskService(repo TaskRepository, attachments *storage.Storage, events *EventPublisher) *TaskService {
	return &TaskService{repo: repo, storage: attachments, events: events}
}

// List returns tasks visible to the caller: everything for admins and
// managers, only tasks assigned to self for a user-role caller.
func (s *TaskService) List(ctx context.Context, identity types.Identity) ([]types.Task, error) {
	role := authz.Role(identity.Role)
	if authz.CanPerform(role, authz.ActionViewAllTasks, authz.Context{}) {
		return s.repo.List(ctx)
	}
	if authz.CanPerform(role, authz.ActionViewOwnTasks, authz.Context{}) {
		return s.repo.ListForAssignee(ctx, identity.UserID)
	}
	return nil, ErrForbidden
}

// Create inserts a task. Status defaults to todo; the assignee is optional.
func (s *TaskService) Create(ctx context.Context, identity types.Identity, fields TaskCreate) (types.Task, error) {
	if !authz.CanPerform(authz.Role(identity.Role), authz.ActionCreateTask, authz.Context{}) {
		return types.Task{}, ErrForbidden
	}

	title := strings.TrimSpace(fields.Title)
	if title == "" {
		return types.Task{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	status := fields.Status
	if status == "" {
		status = types.TaskStatusTodo
	}
	if !types.ValidTaskStatus(status) {
		return types.Task{}, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, status)
	}
	if _, err := uuid.Parse(fields.ProjectID); err != nil {
		return types.Task{}, fmt.Errorf("%w: invalid project id", ErrInvalidInput)
	}
	if fields.AssignedTo != nil {
		if _, err := uuid.Parse(*fields.AssignedTo); err != nil {
			return types.Task{}, fmt.Errorf("%w: invalid assignee id", ErrInvalidInput)
		}
	}

	task, err := s.repo.Create(ctx, types.Task{
		Title:       title,
		Description: fields.Description,
		Status:      status,
		DueDate:     fields.DueDate,
		ProjectID:   fields.ProjectID,
		AssignedTo:  fields.AssignedTo,
	})
	if err != nil {
		return types.Task{}, err
	}

	s.events.TaskCreated(ctx, task)
	return task, nil
}

// Update applies a partial overwrite. A manager or admin may change any
// supplied field. A user-role caller must be the task's assignee, and only
// the status field is applied; any other supplied fields are silently
// dropped.
func (s *TaskService) Update(ctx context.Context, identity types.Identity, id string, fields TaskUpdate) (types.Task, error) {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Task{}, err
	}

	role := authz.Role(identity.Role)
	assignee := task.AssignedTo != nil && *task.AssignedTo == identity.UserID

	switch {
	case authz.CanPerform(role, authz.ActionEditTaskAnyField, authz.Context{}):
		if fields.Title != nil {
			title := strings.TrimSpace(*fields.Title)
			if title == "" {
				return types.Task{}, fmt.Errorf("%w: title cannot be blank", ErrInvalidInput)
			}
			task.Title = title
		}
		if fields.Description != nil {
			task.Description = *fields.Description
		}
		if fields.Status != nil {
			if !types.ValidTaskStatus(*fields.Status) {
				return types.Task{}, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *fields.Status)
			}
			task.Status = *fields.Status
		}
		if fields.DueDate != nil {
			task.DueDate = fields.DueDate
		}
		if fields.AssignedTo != nil {
			if _, err := uuid.Parse(*fields.AssignedTo); err != nil {
				return types.Task{}, fmt.Errorf("%w: invalid assignee id", ErrInvalidInput)
			}
			task.AssignedTo = fields.AssignedTo
		}
	case authz.CanPerform(role, authz.ActionEditTaskStatusOwn, authz.Context{IsAssignee: assignee}):
		if fields.Status != nil {
			if !types.ValidTaskStatus(*fields.Status) {
				return types.Task{}, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, *fields.Status)
			}
			task.Status = *fields.Status
		}
	default:
		return types.Task{}, ErrForbidden
	}

	updated, err := s.repo.Update(ctx, task)
	if err != nil {
		return types.Task{}, err
	}

	s.events.TaskUpdated(ctx, updated)
	return updated, nil
}

// Attach stores an uploaded file under the task's attachment prefix.
// Managers and admins may attach to any task, a user-role caller only to
// tasks assigned to them.
func (s *TaskService) Attach(ctx context.Context, identity types.Identity, taskID, filename string, r io.Reader, size int64, contentType string) error {
	if s.storage == nil {
		return fmt.Errorf("%w: attachments are not enabled", ErrInvalidInput)
	}

	task, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if !s.canTouchAttachments(identity, task) {
		return ErrForbidden
	}

	key, err := attachmentKey(task.ID, filename)
	if err != nil {
		return err
	}
	return s.storage.Put(ctx, key, r, size, contentType)
}

// OpenAttachment streams a previously uploaded file. Same visibility rules
// as Attach.
func (s *TaskService) OpenAttachment(ctx context.Context, identity types.Identity, taskID, filename string) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("%w: attachments are not enabled", ErrInvalidInput)
	}

	task, err := s.repo.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !s.canTouchAttachments(identity, task) {
		return nil, ErrForbidden
	}

	key, err := attachmentKey(task.ID, filename)
	if err != nil {
		return nil, err
	}
	return s.storage.Get(ctx, key)
}

func (s *TaskService) canTouchAttachments(identity types.Identity, task types.Task) bool {
	role := authz.Role(identity.Role)
	if authz.CanPerform(role, authz.ActionEditTaskAnyField, authz.Context{}) {
		return true
	}
	assignee := task.AssignedTo != nil && *task.AssignedTo == identity.UserID
	return authz.CanPerform(role, authz.ActionEditTaskStatusOwn, authz.Context{IsAssignee: assignee})
}

func attachmentKey(taskID, filename string) (string, error) {
	filename = path.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == ".." || filename == "/" {
		return "", fmt.Errorf("%w: invalid filename", ErrInvalidInput)
	}
	return "tasks/" + taskID + "/" + filename, nil
}
