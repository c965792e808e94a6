package services

import "errors"

// ErrForbidden is returned when the caller is authenticated but the policy
// denies the operation.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidCredentials is returned on a failed login.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrInvalidInput is returned for malformed or missing required input.
// Callers wrap it with detail: fmt.Errorf("%w: name is required", ErrInvalidInput).
var ErrInvalidInput = errors.New("invalid input")
