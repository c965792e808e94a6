package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/apiserver/internal/store"
	"github.com/taskflow/apiserver/types"
)

func TestUserListScope(t *testing.T) {
	repo := newFakeUserStore(
		types.User{ID: uuid.NewString(), Name: "Alice", Email: "alice@example.com", Role: "user"},
		types.User{ID: uuid.NewString(), Name: "Bob", Email: "bob@example.com", Role: "manager"},
	)
	svc := NewUserAdminService(repo, nil)
	ctx := context.Background()

	users, err := svc.List(ctx, adminIdentity())
	require.NoError(t, err)
	assert.Len(t, users, 2)

	// Managers get a read-only listing, for picking project members.
	users, err = svc.List(ctx, managerIdentity())
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = svc.List(ctx, userIdentity())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUserUpdateRole(t *testing.T) {
	target := types.User{ID: uuid.NewString(), Name: "Alice", Email: "alice@example.com", Role: "user"}
	repo := newFakeUserStore(target)
	svc := NewUserAdminService(repo, nil)
	ctx := context.Background()

	updated, err := svc.UpdateRole(ctx, adminIdentity(), target.ID, "manager")
	require.NoError(t, err)
	assert.Equal(t, "manager", updated.Role)

	_, err = svc.UpdateRole(ctx, adminIdentity(), target.ID, "owner")
	assert.ErrorIs(t, err, ErrInvalidInput, "unknown role rejected")

	_, err = svc.UpdateRole(ctx, managerIdentity(), target.ID, "admin")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateRole(ctx, adminIdentity(), uuid.NewString(), "manager")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUserDeleteAdminOnly(t *testing.T) {
	target := types.User{ID: uuid.NewString(), Name: "Alice", Email: "alice@example.com", Role: "user"}
	repo := newFakeUserStore(target)
	svc := NewUserAdminService(repo, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, userIdentity(), target.ID), ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, managerIdentity(), target.ID), ErrForbidden)

	require.NoError(t, svc.Delete(ctx, adminIdentity(), target.ID))
	assert.ErrorIs(t, svc.Delete(ctx, adminIdentity(), target.ID), store.ErrNotFound)
}
