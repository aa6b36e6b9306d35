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

const userColumns = `id, clerk_user_id, name, email, role, profile_picture_url, bio, job_title,
    company, location, phone, skills, website, linkedin, github, twitter, created_at, updated_at`

func scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.ClerkUserID, &u.Name, &u.Email, &u.Role, &u.ProfilePictureURL,
		&u.Bio, &u.JobTitle, &u.Company, &u.Location, &u.Phone, &u.Skills,
		&u.Website, &u.LinkedIn, &u.GitHub, &u.Twitter, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, errs.NotFoundf("user")
	}
	if err != nil {
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

// GetUserByClerkID fetches the user behind an external identity.
func (q *queries) GetUserByClerkID(ctx context.Context, clerkUserID string) (models.User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE clerk_user_id = ?`, clerkUserID)
	return scanUser(row)
}

// CreateUser inserts a new user record.
func (q *queries) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO users(clerk_user_id, name, email, role, profile_picture_url)
        VALUES(?, ?, ?, ?, ?)`, u.ClerkUserID, strings.TrimSpace(u.Name), u.Email, u.Role, u.ProfilePictureURL)
	if err != nil {
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("user id: %w", err)
	}
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// UpdateUser overwrites the mutable user fields.
func (q *queries) UpdateUser(ctx context.Context, u models.User) (models.User, error) {
	res, err := q.db.ExecContext(ctx, `UPDATE users SET name = ?, email = ?, profile_picture_url = ?,
        bio = ?, job_title = ?, company = ?, location = ?, phone = ?, skills = ?,
        website = ?, linkedin = ?, github = ?, twitter = ?, updated_at = CURRENT_TIMESTAMP
        WHERE clerk_user_id = ?`,
		strings.TrimSpace(u.Name), u.Email, u.ProfilePictureURL,
		u.Bio, u.JobTitle, u.Company, u.Location, u.Phone, u.Skills,
		u.Website, u.LinkedIn, u.GitHub, u.Twitter, u.ClerkUserID)
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.User{}, err
	}
	if affected == 0 {
		return models.User{}, errs.NotFoundf("user")
	}
	return q.GetUserByClerkID(ctx, u.ClerkUserID)
}

const teamMemberColumns = `id, clerk_user_id, name, email, avatar, created_at, updated_at`

func scanTeamMember(row *sql.Row) (models.TeamMember, error) {
	var m models.TeamMember
	err := row.Scan(&m.ID, &m.ClerkUserID, &m.Name, &m.Email, &m.Avatar, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TeamMember{}, errs.NotFoundf("team member")
	}
	if err != nil {
		return models.TeamMember{}, fmt.Errorf("scan team member: %w", err)
	}
	return m, nil
}

// GetTeamMemberByClerkID resolves the participation identity for an external id.
func (q *queries) GetTeamMemberByClerkID(ctx context.Context, clerkUserID string) (models.TeamMember, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+teamMemberColumns+` FROM team_members WHERE clerk_user_id = ?`, clerkUserID)
	return scanTeamMember(row)
}

// GetTeamMemberByEmail resolves a team member by email address.
func (q *queries) GetTeamMemberByEmail(ctx context.Context, email string) (models.TeamMember, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+teamMemberColumns+` FROM team_members WHERE email = ?`, email)
	return scanTeamMember(row)
}

// GetTeamMemberByID fetches a team member by primary key.
func (q *queries) GetTeamMemberByID(ctx context.Context, id int64) (models.TeamMember, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+teamMemberColumns+` FROM team_members WHERE id = ?`, id)
	return scanTeamMember(row)
}

// CreateTeamMember inserts a new team member record.
func (q *queries) CreateTeamMember(ctx context.Context, m models.TeamMember) (models.TeamMember, error) {
	res, err := q.db.ExecContext(ctx, `INSERT INTO team_members(clerk_user_id, name, email, avatar) VALUES(?, ?, ?, ?)`,
		m.ClerkUserID, strings.TrimSpace(m.Name), m.Email, m.Avatar)
	if err != nil {
		return models.TeamMember{}, fmt.Errorf("insert team member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.TeamMember{}, fmt.Errorf("team member id: %w", err)
	}
	return q.GetTeamMemberByID(ctx, id)
}

// UpdateTeamMember mirrors name/email changes onto the team member record.
func (q *queries) UpdateTeamMember(ctx context.Context, clerkUserID, name, email string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE team_members SET name = ?, email = ?, updated_at = CURRENT_TIMESTAMP
        WHERE clerk_user_id = ?`, strings.TrimSpace(name), email, clerkUserID)
	if err != nil {
		return fmt.Errorf("update team member: %w", err)
	}
	return nil
}
