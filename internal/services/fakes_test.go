package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskflow/apiserver/internal/store"
	"github.com/taskflow/apiserver/types"
)

// fakeUserStore implements CredentialStore and UserRepository in memory,
// mirroring the store's contract (sentinel errors, email uniqueness).
type fakeUserStore struct {
	users map[string]types.User
}

func newFakeUserStore(users ...types.User) *fakeUserStore {
	f := &fakeUserStore{users: make(map[string]types.User)}
	for _, user := range users {
		f.users[user.ID] = user
	}
	return f
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (types.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserStore) List(_ context.Context) ([]types.User, error) {
	users := make([]types.User, 0, len(f.users))
	for _, user := range f.users {
		users = append(users, user)
	}
	return users, nil
}

func (f *fakeUserStore) Create(_ context.Context, user types.User) (types.User, error) {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicateEmail
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserStore) UpdateRole(_ context.Context, id, role string) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	user.Role = role
	f.users[id] = user
	return user, nil
}

func (f *fakeUserStore) Delete(_ context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

// fakeProjectRepo implements ProjectRepository in memory. Member ids are
// validated against knownUsers, mirroring the store's transaction check.
type fakeProjectRepo struct {
	projects   map[string]types.Project
	members    map[string][]string
	knownUsers map[string]types.UserSummary
}

func newFakeProjectRepo(users ...types.User) *fakeProjectRepo {
	f := &fakeProjectRepo{
		projects:   make(map[string]types.Project),
		members:    make(map[string][]string),
		knownUsers: make(map[string]types.UserSummary),
	}
	for _, user := range users {
		f.knownUsers[user.ID] = user.Summary()
	}
	return f
}

func (f *fakeProjectRepo) List(_ context.Context) ([]types.Project, error) {
	projects := make([]types.Project, 0, len(f.projects))
	for id := range f.projects {
		projects = append(projects, f.withMembers(id))
	}
	return projects, nil
}

func (f *fakeProjectRepo) ListForMember(_ context.Context, userID string) ([]types.Project, error) {
	projects := make([]types.Project, 0)
	for id := range f.projects {
		for _, member := range f.members[id] {
			if member == userID {
				projects = append(projects, f.withMembers(id))
				break
			}
		}
	}
	return projects, nil
}

func (f *fakeProjectRepo) Get(_ context.Context, id string) (types.Project, error) {
	if _, ok := f.projects[id]; !ok {
		return types.Project{}, store.ErrNotFound
	}
	return f.withMembers(id), nil
}

func (f *fakeProjectRepo) Create(_ context.Context, project types.Project, memberIDs []string) (types.Project, error) {
	if err := f.checkMembers(memberIDs); err != nil {
		return types.Project{}, err
	}
	project.ID = uuid.NewString()
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt
	f.projects[project.ID] = project
	f.members[project.ID] = append([]string(nil), memberIDs...)
	return f.withMembers(project.ID), nil
}

func (f *fakeProjectRepo) Update(_ context.Context, project types.Project, members *[]string) (types.Project, error) {
	stored, ok := f.projects[project.ID]
	if !ok {
		return types.Project{}, store.ErrNotFound
	}
	stored.Name = project.Name
	stored.Description = project.Description
	f.projects[project.ID] = stored
	if members != nil {
		if err := f.checkMembers(*members); err != nil {
			return types.Project{}, err
		}
		f.members[project.ID] = append([]string(nil), *members...)
	}
	return f.withMembers(project.ID), nil
}

func (f *fakeProjectRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.projects[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.projects, id)
	delete(f.members, id)
	return nil
}

func (f *fakeProjectRepo) checkMembers(memberIDs []string) error {
	for _, id := range memberIDs {
		if _, ok := f.knownUsers[id]; !ok {
			return store.ErrUnknownMember
		}
	}
	return nil
}

func (f *fakeProjectRepo) withMembers(id string) types.Project {
	project := f.projects[id]
	project.Members = make([]types.UserSummary, 0, len(f.members[id]))
	for _, userID := range f.members[id] {
		project.Members = append(project.Members, f.knownUsers[userID])
	}
	return project
}

// fakeTaskRepo implements TaskRepository in memory.
type fakeTaskRepo struct {
	tasks map[string]types.Task
}

func newFakeTaskRepo(tasks ...types.Task) *fakeTaskRepo {
	f := &fakeTaskRepo{tasks: make(map[string]types.Task)}
	for _, task := range tasks {
		f.tasks[task.ID] = task
	}
	return f
}

func (f *fakeTaskRepo) List(_ context.Context) ([]types.Task, error) {
	tasks := make([]types.Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (f *fakeTaskRepo) ListForAssignee(_ context.Context, userID string) ([]types.Task, error) {
	tasks := make([]types.Task, 0)
	for _, task := range f.tasks {
		if task.AssignedTo != nil && *task.AssignedTo == userID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (f *fakeTaskRepo) Get(_ context.Context, id string) (types.Task, error) {
	task, ok := f.tasks[id]
	if !ok {
		return types.Task{}, store.ErrNotFound
	}
	return task, nil
}

func (f *fakeTaskRepo) Create(_ context.Context, task types.Task) (types.Task, error) {
	task.ID = uuid.NewString()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	f.tasks[task.ID] = task
	return task, nil
}

func (f *fakeTaskRepo) Update(_ context.Context, task types.Task) (types.Task, error) {
	if _, ok := f.tasks[task.ID]; !ok {
		return types.Task{}, store.ErrNotFound
	}
	f.tasks[task.ID] = task
	return task, nil
}

func adminIdentity() types.Identity   { return types.Identity{UserID: uuid.NewString(), Role: "admin"} }
func managerIdentity() types.Identity { return types.Identity{UserID: uuid.NewString(), Role: "manager"} }
func userIdentity() types.Identity    { return types.Identity{UserID: uuid.NewString(), Role: "user"} }
