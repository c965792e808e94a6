package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when a user insert hits the unique email
// constraint.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrUnknownMember is returned when a project member list references a user
// id that does not exist.
var ErrUnknownMember = errors.New("unknown member id")

// ErrUnknownProject is returned when a task references a project id that
// does not exist.
var ErrUnknownProject = errors.New("unknown project id")

// ErrUnknownAssignee is returned when a task references an assignee id that
// does not exist.
var ErrUnknownAssignee = errors.New("unknown assignee id")
