package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskflow/internal/errs"
	"taskflow/internal/models"
)

const projectColumns = `id, name, description, start_date, end_date, clerk_user_id, created_at, updated_at`

func scanProject(row *sql.Row) (models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.ClerkUserID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Project{}, errs.NotFoundf("project")
	}
	if err != nil {
		return models.Project{}, fmt.Errorf("scan project: %w", err)
	}
	return p, nil
}

// CreateProject persists a new project.
func (q *queries) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	if strings.TrimSpace(p.Name) == "" {
		return models.Project{}, errs.Validationf("project name must not be empty")
	}

	res, err := q.db.ExecContext(ctx, `INSERT INTO projects(name, description, start_date, end_date, clerk_user_id)
        VALUES(?, ?, ?, ?, ?)`, strings.TrimSpace(p.Name), p.Description, p.StartDate, p.EndDate, p.ClerkUserID)
	if err != nil {
		return models.Project{}, fmt.Errorf("insert project: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Project{}, fmt.Errorf("project id: %w", err)
	}
	return q.GetProject(ctx, id)
}

// GetProject fetches a single project by id.
func (q *queries) GetProject(ctx context.Context, id int64) (models.Project, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (q *queries) listProjects(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.StartDate, &p.EndDate, &p.ClerkUserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListManagedProjects returns the projects where the member holds the manager role.
func (q *queries) ListManagedProjects(ctx context.Context, teamMemberID int64) ([]models.Project, error) {
	return q.listProjects(ctx, `SELECT p.`+strings.ReplaceAll(projectColumns, ", ", ", p.")+`
        FROM projects p JOIN project_members pm ON pm.project_id = p.id
        WHERE pm.team_member_id = ? AND pm.role = ? ORDER BY p.created_at ASC`, teamMemberID, models.RoleManager)
}

// ListJoinedProjects returns the projects where the member participates in a
// non-manager role.
func (q *queries) ListJoinedProjects(ctx context.Context, teamMemberID int64) ([]models.Project, error) {
	return q.listProjects(ctx, `SELECT p.`+strings.ReplaceAll(projectColumns, ", ", ", p.")+`
        FROM projects p JOIN project_members pm ON pm.project_id = p.id
        WHERE pm.team_member_id = ? AND pm.role != ? ORDER BY p.created_at ASC`, teamMemberID, models.RoleManager)
}

// CreateColumn inserts a kanban column for a project.
func (q *queries) CreateColumn(ctx context.Context, c models.Column) (models.Column, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO columns(project_id, title, "order") VALUES(?, ?, ?)`,
		c.ProjectID, c.Title, c.Order)
	if err != nil {
		return models.Column{}, fmt.Errorf("insert column: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Column{}, fmt.Errorf("column id: %w", err)
	}
	return q.GetColumn(ctx, id)
}

// GetColumn fetches a column by id.
func (q *queries) GetColumn(ctx context.Context, id int64) (models.Column, error) {
	var c models.Column
	err := q.db.QueryRowContext(ctx, `SELECT id, project_id, title, "order", created_at, updated_at FROM columns WHERE id = ?`, id).
		Scan(&c.ID, &c.ProjectID, &c.Title, &c.Order, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Column{}, errs.NotFoundf("column")
	}
	if err != nil {
		return models.Column{}, fmt.Errorf("get column: %w", err)
	}
	return c, nil
}

// ListColumns returns a project's columns in board order.
func (q *queries) ListColumns(ctx context.Context, projectID int64) ([]models.Column, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, project_id, title, "order", created_at, updated_at
        FROM columns WHERE project_id = ? ORDER BY "order" ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	var columns []models.Column
	for rows.Next() {
		var c models.Column
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.Title, &c.Order, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// GetMembership returns the membership pivot for a team member in a project.
func (q *queries) GetMembership(ctx context.Context, projectID, teamMemberID int64) (models.Membership, error) {
	var m models.Membership
	err := q.db.QueryRowContext(ctx, `SELECT project_id, team_member_id, role, created_at
        FROM project_members WHERE project_id = ? AND team_member_id = ?`, projectID, teamMemberID).
		Scan(&m.ProjectID, &m.TeamMemberID, &m.Role, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Membership{}, errs.NotFoundf("membership")
	}
	if err != nil {
		return models.Membership{}, fmt.Errorf("get membership: %w", err)
	}
	return m, nil
}

// AttachMember adds a team member to a project, or updates the role in place
// when the membership already exists. One row per (project, member) pair.
func (q *queries) AttachMember(ctx context.Context, projectID, teamMemberID int64, role models.Role) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO project_members(project_id, team_member_id, role) VALUES(?, ?, ?)
        ON CONFLICT(project_id, team_member_id) DO UPDATE SET role = excluded.role`, projectID, teamMemberID, role)
	if err != nil {
		return fmt.Errorf("attach member: %w", err)
	}
	return nil
}

// ListMembers returns the team members of a project with their roles.
func (q *queries) ListMembers(ctx context.Context, projectID int64) ([]models.TeamMember, []models.Role, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT m.id, m.clerk_user_id, m.name, m.email, m.avatar, m.created_at, m.updated_at, pm.role
        FROM team_members m JOIN project_members pm ON pm.team_member_id = m.id
        WHERE pm.project_id = ? ORDER BY m.id`, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []models.TeamMember
	var roles []models.Role
	for rows.Next() {
		var m models.TeamMember
		var role models.Role
		if err := rows.Scan(&m.ID, &m.ClerkUserID, &m.Name, &m.Email, &m.Avatar, &m.CreatedAt, &m.UpdatedAt, &role); err != nil {
			return nil, nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
		roles = append(roles, role)
	}
	return members, roles, rows.Err()
}

const invitationColumns = `id, project_id, email, status, invitation_token, role, created_at, updated_at`

func scanInvitation(row *sql.Row) (models.InvitedMember, error) {
	var inv models.InvitedMember
	err := row.Scan(&inv.ID, &inv.ProjectID, &inv.Email, &inv.Status, &inv.InvitationToken, &inv.Role, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.InvitedMember{}, errs.NotFoundf("invitation")
	}
	if err != nil {
		return models.InvitedMember{}, fmt.Errorf("scan invitation: %w", err)
	}
	return inv, nil
}

// CreateInvitation inserts a pending invitation row.
func (q *queries) CreateInvitation(ctx context.Context, inv models.InvitedMember) (models.InvitedMember, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO invited_members(project_id, email, status, invitation_token, role)
        VALUES(?, ?, ?, ?, ?)`, inv.ProjectID, inv.Email, inv.Status, inv.InvitationToken, inv.Role)
	if err != nil {
		return models.InvitedMember{}, fmt.Errorf("insert invitation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.InvitedMember{}, fmt.Errorf("invitation id: %w", err)
	}
	row := q.db.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM invited_members WHERE id = ?`, id)
	return scanInvitation(row)
}

// GetInvitationByToken resolves an invitation from its single-use token.
func (q *queries) GetInvitationByToken(ctx context.Context, token string) (models.InvitedMember, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM invited_members WHERE invitation_token = ?`, token)
	return scanInvitation(row)
}

// GetPendingInvitation finds an open invitation for a project/email pair.
func (q *queries) GetPendingInvitation(ctx context.Context, projectID int64, email string) (models.InvitedMember, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+invitationColumns+` FROM invited_members
        WHERE project_id = ? AND email = ? AND status = ?`, projectID, email, models.InvitationPending)
	return scanInvitation(row)
}

// UpdateInvitation regenerates a pending invitation with a new role and token.
func (q *queries) UpdateInvitation(ctx context.Context, id int64, role models.Role, token string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE invited_members SET role = ?, invitation_token = ?, updated_at = CURRENT_TIMESTAMP
        WHERE id = ?`, role, token, id)
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.NotFoundf("invitation")
	}
	return nil
}

// MarkInvitationAccepted flips a pending invitation to accepted. The token is
// consumed at that point and any later lookup sees the accepted status.
func (q *queries) MarkInvitationAccepted(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `UPDATE invited_members SET status = ?, updated_at = CURRENT_TIMESTAMP
        WHERE id = ? AND status = ?`, models.InvitationAccepted, id, models.InvitationPending)
	if err != nil {
		return fmt.Errorf("accept invitation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errs.Conflictf("invitation already processed")
	}
	return nil
}
