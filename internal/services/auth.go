package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taskflow/apiserver/internal/authz"
	"github.com/taskflow/apiserver/internal/store"
	"github.com/taskflow/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore defines the persistence operations the authentication
// service needs.
type CredentialStore interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// AuthService verifies credentials, issues and validates session tokens,
// and registers accounts.
type AuthService struct {
	users      CredentialStore
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
}

func NewAuthService(users CredentialStore, secret string, tokenTTL time.Duration, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcryptCost,
	}
}

// Authenticate verifies the email/password pair and, on success, returns the
// user together with a signed session token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (types.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, "", ErrInvalidCredentials
		}
		return types.User{}, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.ID, user.Role)
	if err != nil {
		return types.User{}, "", err
	}
	return user, token, nil
}

// Register creates a new account. Only admins may call it. The created
// account does not get a session token.
func (s *AuthService) Register(ctx context.Context, identity types.Identity, name, email, password, role string) (types.User, error) {
	if !authz.CanPerform(authz.Role(identity.Role), authz.ActionRegisterUser, authz.Context{}) {
		return types.User{}, ErrForbidden
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return types.User{}, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	if role == "" {
		role = string(authz.RoleUser)
	}
	if !authz.ValidRole(role) {
		return types.User{}, fmt.Errorf("%w: invalid role %q", ErrInvalidInput, role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return types.User{}, err
	}

	return s.users.Create(ctx, types.User{
		Name:         name,
		Email:        email,
		Role:         role,
		PasswordHash: string(hashed),
	})
}

// GetUser loads the user behind an identity.
func (s *AuthService) GetUser(ctx context.Context, id string) (types.User, error) {
	return s.users.GetByID(ctx, id)
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token binding user id and role.
func (s *AuthService) IssueToken(userID, role string) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken verifies signature and expiry and returns the embedded
// identity. It never trusts a token's claims without verification.
func (s *AuthService) ParseToken(tokenString string) (types.Identity, error) {
	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return types.Identity{}, err
	}
	if !token.Valid {
		return types.Identity{}, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" || !authz.ValidRole(claims.Role) {
		return types.Identity{}, errors.New("invalid claims")
	}
	return types.Identity{UserID: claims.Subject, Role: claims.Role}, nil
}
