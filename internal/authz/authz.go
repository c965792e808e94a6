// Package authz is the single authorization decision point. Every resource
// service consults CanPerform before reading or mutating state; no role
// check lives anywhere else.
package authz

// Role is the sole authorization axis in the system.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// ValidRole reports whether role is one of the three known roles.
func ValidRole(role string) bool {
	switch Role(role) {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// Action identifies an operation subject to authorization.
type Action string

const (
	ActionListUsers    Action = "list-users"
	ActionEditUserRole Action = "edit-user-role"
	ActionDeleteUser   Action = "delete-user"
	ActionRegisterUser Action = "register-user"

	ActionViewAllProjects Action = "view-all-projects"
	ActionViewOwnProjects Action = "view-own-projects"
	ActionCreateProject   Action = "create-project"
	ActionEditProject     Action = "edit-project"
	ActionDeleteProject   Action = "delete-project"

	ActionViewAllTasks      Action = "view-all-tasks"
	ActionViewOwnTasks      Action = "view-own-tasks"
	ActionCreateTask        Action = "create-task"
	ActionEditTaskAnyField  Action = "edit-task-any-field"
	ActionEditTaskStatusOwn Action = "edit-task-status-own"
)

// Context carries the per-resource facts the ownership-scoped actions need.
// The zero value means "no relationship to the resource".
type Context struct {
	// IsAssignee is true when the caller is the task's assignee.
	IsAssignee bool

	// IsMember is true when the caller appears in the project's member set.
	IsMember bool
}

// grants is the static role/action matrix. Actions absent from a role's set
// are denied; there is no implicit escalation between roles.
var grants = map[Role]map[Action]bool{
	RoleAdmin: {
		ActionListUsers:         true,
		ActionEditUserRole:      true,
		ActionDeleteUser:        true,
		ActionRegisterUser:      true,
		ActionViewAllProjects:   true,
		ActionViewOwnProjects:   true,
		ActionCreateProject:     true,
		ActionEditProject:       true,
		ActionDeleteProject:     true,
		ActionViewAllTasks:      true,
		ActionViewOwnTasks:      true,
		ActionCreateTask:        true,
		ActionEditTaskAnyField:  true,
		ActionEditTaskStatusOwn: true,
	},
	RoleManager: {
		ActionListUsers:         true,
		ActionViewAllProjects:   true,
		ActionViewOwnProjects:   true,
		ActionCreateProject:     true,
		ActionEditProject:       true,
		ActionDeleteProject:     true,
		ActionViewAllTasks:      true,
		ActionViewOwnTasks:      true,
		ActionCreateTask:        true,
		ActionEditTaskAnyField:  true,
		ActionEditTaskStatusOwn: true,
	},
	RoleUser: {
		ActionViewOwnProjects:   true,
		ActionViewOwnTasks:      true,
		ActionEditTaskStatusOwn: true,
	},
}

// CanPerform reports whether role may perform action against the resource
// described by ctx. It is a pure function over the grant table; the only
// context-sensitive rule is that a plain user's edit-task-status-own grant
// applies solely to tasks assigned to them.
func CanPerform(role Role, action Action, ctx Context) bool {
	if !grants[role][action] {
		return false
	}
	if role == RoleUser && action == ActionEditTaskStatusOwn && !ctx.IsAssignee {
		return false
	}
	return true
}
