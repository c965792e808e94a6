package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow/apiserver/internal/store"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService(users *fakeUserStore) *AuthService {
	return NewAuthService(users, "test-secret", time.Hour, bcrypt.MinCost)
}

func TestRegisterAdminOnly(t *testing.T) {
	users := newFakeUserStore()
	svc := newTestAuthService(users)
	ctx := context.Background()

	_, err := svc.Register(ctx, managerIdentity(), "Alice", "alice@example.com", "secret", "")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Register(ctx, userIdentity(), "Alice", "alice@example.com", "secret", "")
	assert.ErrorIs(t, err, ErrForbidden)

	created, err := svc.Register(ctx, adminIdentity(), "Alice", "alice@example.com", "secret", "")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "user", created.Role, "role defaults to user")
	assert.NotEqual(t, "secret", created.PasswordHash, "password is stored hashed")
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(newFakeUserStore())
	ctx := context.Background()
	admin := adminIdentity()

	_, err := svc.Register(ctx, admin, "", "alice@example.com", "secret", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Register(ctx, admin, "Alice", "", "secret", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Register(ctx, admin, "Alice", "alice@example.com", "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Register(ctx, admin, "Alice", "alice@example.com", "secret", "superuser")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(newFakeUserStore())
	ctx := context.Background()
	admin := adminIdentity()

	_, err := svc.Register(ctx, admin, "Alice", "alice@example.com", "secret", "")
	require.NoError(t, err)
	_, err = svc.Register(ctx, admin, "Other Alice", "alice@example.com", "secret", "")
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestAuthenticate(t *testing.T) {
	users := newFakeUserStore()
	svc := newTestAuthService(users)
	ctx := context.Background()

	created, err := svc.Register(ctx, adminIdentity(), "Alice", "alice@example.com", "secret", "manager")
	require.NoError(t, err)

	user, token, err := svc.Authenticate(ctx, "alice@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Authenticate(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Unknown email yields the same error as a bad password.
	_, _, err = svc.Authenticate(ctx, "nobody@example.com", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestAuthService(newFakeUserStore())

	token, err := svc.IssueToken("some-user-id", "manager")
	require.NoError(t, err)

	identity, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "some-user-id", identity.UserID)
	assert.Equal(t, "manager", identity.Role)
}

func TestTokenRejection(t *testing.T) {
	svc := newTestAuthService(newFakeUserStore())

	_, err := svc.ParseToken("not-a-token")
	assert.Error(t, err)

	token, err := svc.IssueToken("some-user-id", "manager")
	require.NoError(t, err)

	// Signed with a different secret.
	other := NewAuthService(newFakeUserStore(), "other-secret", time.Hour, bcrypt.MinCost)
	_, err = other.ParseToken(token)
	assert.Error(t, err)

	// Expired.
	expired := NewAuthService(newFakeUserStore(), "test-secret", -time.Hour, bcrypt.MinCost)
	stale, err := expired.IssueToken("some-user-id", "manager")
	require.NoError(t, err)
	_, err = svc.ParseToken(stale)
	assert.Error(t, err)

	// Valid signature, bogus role claim.
	bogus, err := svc.IssueToken("some-user-id", "superuser")
	require.NoError(t, err)
	_, err = svc.ParseToken(bogus)
	assert.Error(t, err)
}
