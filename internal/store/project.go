package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/taskflow/apiserver/types"
)

// ProjectRepository handles persistence for projects and their member sets.
type ProjectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `
	p.id, p.name, p.description, p.manager_id, p.created_at, p.updated_at,
	m.id, m.name, m.email`

// List returns all projects, newest first, with manager and member
// summaries attached.
func (r *ProjectRepository) List(ctx context.Context) ([]types.Project, error) {
	const query = `
		SELECT` + projectColumns + `
		FROM projects p
		JOIN users m ON m.id = p.manager_id
		ORDER BY p.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectProjects(ctx, rows)
}

// ListForMember returns the projects the given user belongs to, newest first.
func (r *ProjectRepository) ListForMember(ctx context.Context, userID string) ([]types.Project, error) {
	const query = `
		SELECT` + projectColumns + `
		FROM projects p
		JOIN users m ON m.id = p.manager_id
		JOIN project_members pm ON pm.project_id = p.id
		WHERE pm.user_id = $1
		ORDER BY p.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collectProjects(ctx, rows)
}

// Get returns a single project with manager, members, and its tasks
// (each with the assignee's name).
func (r *ProjectRepository) Get(ctx context.Context, id string) (types.Project, error) {
	const query = `
		SELECT` + projectColumns + `
		FROM projects p
		JOIN users m ON m.id = p.manager_id
		WHERE p.id = $1`
	project, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return types.Project{}, err
	}

	membersByProject, err := r.loadMembers(ctx, []string{project.ID})
	if err != nil {
		return types.Project{}, err
	}
	project.Members = membersByProject[project.ID]
	if project.Members == nil {
		project.Members = []types.UserSummary{}
	}

	tasks, err := r.loadTasks(ctx, project.ID)
	if err != nil {
		return types.Project{}, err
	}
	project.Tasks = tasks

	return project, nil
}

// Create inserts the project and attaches the given members in a single
// transaction. An unknown member id aborts the whole insert.
func (r *ProjectRepository) Create(ctx context.Context, project types.Project, memberIDs []string) (types.Project, error) {
	now := time.Now()
	project.ID = uuid.NewString()
	project.CreatedAt = now
	project.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Project{}, err
	}
	defer tx.Rollback()

	const insert = `
		INSERT INTO projects (id, name, description, manager_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.ExecContext(ctx, insert,
		project.ID, project.Name, project.Description, project.ManagerID,
		project.CreatedAt, project.UpdatedAt,
	); err != nil {
		return types.Project{}, err
	}

	if err := replaceMembers(ctx, tx, project.ID, memberIDs); err != nil {
		return types.Project{}, err
	}

	if err := tx.Commit(); err != nil {
		return types.Project{}, err
	}

	return r.Get(ctx, project.ID)
}

// Update overwrites the project row and, when members is non-nil, fully
// replaces the member set in the same transaction.
func (r *ProjectRepository) Update(ctx context.Context, project types.Project, members *[]string) (types.Project, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Project{}, err
	}
	defer tx.Rollback()

	const update = `
		UPDATE projects
		SET name = $1,
			description = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := tx.ExecContext(ctx, update, project.Name, project.Description, time.Now(), project.ID)
	if err != nil {
		return types.Project{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Project{}, err
	}
	if affected == 0 {
		return types.Project{}, ErrNotFound
	}

	if members != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = $1`, project.ID); err != nil {
			return types.Project{}, err
		}
		if err := replaceMembers(ctx, tx, project.ID, *members); err != nil {
			return types.Project{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return types.Project{}, err
	}

	return r.Get(ctx, project.ID)
}

// Delete removes the project, its tasks, and its memberships in a single
// transaction.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = $1`, id); err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func replaceMembers(ctx context.Context, tx *sql.Tx, projectID string, memberIDs []string) error {
	memberIDs = dedupe(memberIDs)
	if len(memberIDs) == 0 {
		return nil
	}

	var known int
	const check = `SELECT COUNT(1) FROM users WHERE id = ANY($1::uuid[])`
	if err := tx.QueryRowContext(ctx, check, pq.Array(memberIDs)).Scan(&known); err != nil {
		return err
	}
	if known != len(memberIDs) {
		return ErrUnknownMember
	}

	const insert = `INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)`
	for _, userID := range memberIDs {
		if _, err := tx.ExecContext(ctx, insert, projectID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProjectRepository) collectProjects(ctx context.Context, rows *sql.Rows) ([]types.Project, error) {
	projects := make([]types.Project, 0)
	ids := make([]string, 0)
	for rows.Next() {
		project, err := scanProjectRows(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
		ids = append(ids, project.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	membersByProject, err := r.loadMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].Members = membersByProject[projects[i].ID]
		if projects[i].Members == nil {
			projects[i].Members = []types.UserSummary{}
		}
	}
	return projects, nil
}

func (r *ProjectRepository) loadMembers(ctx context.Context, projectIDs []string) (map[string][]types.UserSummary, error) {
	members := make(map[string][]types.UserSummary)
	if len(projectIDs) == 0 {
		return members, nil
	}

	const query = `
		SELECT pm.project_id, u.id, u.name, u.email
		FROM project_members pm
		JOIN users u ON u.id = pm.user_id
		WHERE pm.project_id = ANY($1::uuid[])
		ORDER BY u.name`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(projectIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var projectID string
		var member types.UserSummary
		if err := rows.Scan(&projectID, &member.ID, &member.Name, &member.Email); err != nil {
			return nil, err
		}
		members[projectID] = append(members[projectID], member)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *ProjectRepository) loadTasks(ctx context.Context, projectID string) ([]types.Task, error) {
	const query = `
		SELECT t.id, t.title, t.description, t.status, t.due_date, t.project_id,
			t.assigned_to, t.created_at, t.updated_at, a.id, a.name
		FROM tasks t
		LEFT JOIN users a ON a.id = t.assigned_to
		WHERE t.project_id = $1
		ORDER BY t.created_at`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]types.Task, 0)
	for rows.Next() {
		var task types.Task
		var assigneeID, assigneeName sql.NullString
		if err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.DueDate,
			&task.ProjectID,
			&task.AssignedTo,
			&task.CreatedAt,
			&task.UpdatedAt,
			&assigneeID,
			&assigneeName,
		); err != nil {
			return nil, err
		}
		if assigneeID.Valid {
			task.Assignee = &types.UserSummary{ID: assigneeID.String, Name: assigneeName.String}
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func scanProject(row *sql.Row) (types.Project, error) {
	var project types.Project
	var manager types.UserSummary
	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.ManagerID,
		&project.CreatedAt,
		&project.UpdatedAt,
		&manager.ID,
		&manager.Name,
		&manager.Email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Project{}, ErrNotFound
		}
		return types.Project{}, err
	}
	project.Manager = &manager
	return project, nil
}

func scanProjectRows(rows *sql.Rows) (types.Project, error) {
	var project types.Project
	var manager types.UserSummary
	if err := rows.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.ManagerID,
		&project.CreatedAt,
		&project.UpdatedAt,
		&manager.ID,
		&manager.Name,
		&manager.Email,
	); err != nil {
		return types.Project{}, err
	}
	project.Manager = &manager
	return project, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
