package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/apiserver/types"
)

func strPtr(s string) *string { return &s }

func TestTaskCreateDefaultsStatus(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := NewTaskService(repo, nil, nil)

	task, err := svc.Create(context.Background(), managerIdentity(), TaskCreate{
		Title:     "Plan",
		ProjectID: uuid.NewString(),
	})
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusTodo, task.Status)
	assert.NotEmpty(t, task.ID)
	assert.Nil(t, task.AssignedTo)
}

func TestTaskCreateValidation(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := NewTaskService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, managerIdentity(), TaskCreate{ProjectID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrInvalidInput, "blank title")

	_, err = svc.Create(ctx, managerIdentity(), TaskCreate{
		Title: "x", ProjectID: uuid.NewString(), Status: "blocked",
	})
	assert.ErrorIs(t, err, ErrInvalidInput, "unknown status")

	_, err = svc.Create(ctx, managerIdentity(), TaskCreate{Title: "x", ProjectID: "not-a-uuid"})
	assert.ErrorIs(t, err, ErrInvalidInput, "bad project id")

	_, err = svc.Create(ctx, userIdentity(), TaskCreate{Title: "x", ProjectID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrForbidden, "user role cannot create tasks")
}

func TestTaskUpdateForbiddenForNonAssignee(t *testing.T) {
	other := uuid.NewString()
	task := types.Task{ID: uuid.NewString(), Title: "Plan", Status: types.TaskStatusTodo, AssignedTo: &other}
	repo := newFakeTaskRepo(task)
	svc := NewTaskService(repo, nil, nil)

	// Regardless of payload, a user who is not the assignee is rejected.
	payloads := []TaskUpdate{
		{},
		{Status: strPtr(types.TaskStatusDone)},
		{Title: strPtr("hijack"), Status: strPtr(types.TaskStatusDone)},
	}
	for _, payload := range payloads {
		_, err := svc.Update(context.Background(), userIdentity(), task.ID, payload)
		assert.ErrorIs(t, err, ErrForbidden)
	}
}

func TestTaskUpdateAssigneeStatusOnly(t *testing.T) {
	caller := userIdentity()
	due := time.Now().Add(24 * time.Hour)
	task := types.Task{
		ID:         uuid.NewString(),
		Title:      "Plan",
		Status:     types.TaskStatusTodo,
		AssignedTo: &caller.UserID,
	}
	repo := newFakeTaskRepo(task)
	svc := NewTaskService(repo, nil, nil)

	updated, err := svc.Update(context.Background(), caller, task.ID, TaskUpdate{
		Status:      strPtr(types.TaskStatusDone),
		Title:       strPtr("hijacked"),
		Description: strPtr("hijacked"),
		DueDate:     &due,
		AssignedTo:  strPtr(uuid.NewString()),
	})
	require.NoError(t, err)

	// Status applied; every other supplied field silently dropped.
	assert.Equal(t, types.TaskStatusDone, updated.Status)
	assert.Equal(t, "Plan", updated.Title)
	assert.Empty(t, updated.Description)
	assert.Nil(t, updated.DueDate)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, caller.UserID, *updated.AssignedTo)
}

func TestTaskUpdateManagerAnyField(t *testing.T) {
	assignee := uuid.NewString()
	task := types.Task{ID: uuid.NewString(), Title: "Plan", Status: types.TaskStatusTodo, AssignedTo: &assignee}
	repo := newFakeTaskRepo(task)
	svc := NewTaskService(repo, nil, nil)

	newAssignee := uuid.NewString()
	updated, err := svc.Update(context.Background(), managerIdentity(), task.ID, TaskUpdate{
		Title:      strPtr("Replan"),
		Status:     strPtr(types.TaskStatusInProgress),
		AssignedTo: &newAssignee,
	})
	require.NoError(t, err)
	assert.Equal(t, "Replan", updated.Title)
	assert.Equal(t, types.TaskStatusInProgress, updated.Status)
	assert.Equal(t, newAssignee, *updated.AssignedTo)
}

func TestTaskUpdatePartialLeavesOmittedFields(t *testing.T) {
	task := types.Task{ID: uuid.NewString(), Title: "Plan", Description: "desc", Status: types.TaskStatusTodo}
	repo := newFakeTaskRepo(task)
	svc := NewTaskService(repo, nil, nil)

	updated, err := svc.Update(context.Background(), adminIdentity(), task.ID, TaskUpdate{
		Status: strPtr(types.TaskStatusInProgress),
	})
	require.NoError(t, err)
	assert.Equal(t, "Plan", updated.Title)
	assert.Equal(t, "desc", updated.Description)
	assert.Equal(t, types.TaskStatusInProgress, updated.Status)
}

func TestTaskListScope(t *testing.T) {
	caller := userIdentity()
	other := uuid.NewString()
	repo := newFakeTaskRepo(
		types.Task{ID: uuid.NewString(), Title: "mine", AssignedTo: &caller.UserID},
		types.Task{ID: uuid.NewString(), Title: "theirs", AssignedTo: &other},
		types.Task{ID: uuid.NewString(), Title: "unassigned"},
	)
	svc := NewTaskService(repo, nil, nil)
	ctx := context.Background()

	all, err := svc.List(ctx, adminIdentity())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	all, err = svc.List(ctx, managerIdentity())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := svc.List(ctx, caller)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine", mine[0].Title)
}
