// Package project owns project creation with its default board, invitation
// issuance and acceptance, and membership management.
package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskflow/internal/errs"
	"taskflow/internal/models"
	"taskflow/internal/permission"
	"taskflow/internal/storage/sqlite"
)

// Notifier delivers invitation notices. Delivery is best-effort: failures
// are logged by the caller and never roll back the durable invitation.
type Notifier interface {
	ProjectInvitation(ctx context.Context, project models.Project, email, joinLink string, role models.Role) error
}

// Service is the project/membership manager.
type Service struct {
	store       *sqlite.Store
	perm        *permission.Evaluator
	notifier    Notifier
	logger      *slog.Logger
	frontendURL string
	newToken    func() string
}

// NewService constructs the manager.
func NewService(store *sqlite.Store, perm *permission.Evaluator, notifier Notifier, logger *slog.Logger, frontendURL string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		perm:        perm,
		notifier:    notifier,
		logger:      logger,
		frontendURL: frontendURL,
		newToken:    NewToken,
	}
}

// WithTokenSource overrides invitation token generation, for tests.
func (s *Service) WithTokenSource(fn func() string) *Service {
	s.newToken = fn
	return s
}

// NewToken returns an opaque single-use invitation token: 64 hex characters
// from two random UUIDs.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// CreateInput carries the fields accepted at project creation.
type CreateInput struct {
	Name          string
	Description   string
	StartDate     time.Time
	EndDate       time.Time
	ClerkUserID   string
	InvitedEmails []string
}

// invitationNotice defers notification sends until after the transaction
// committed; the invite rows are the durable action.
type invitationNotice struct {
	email string
	token string
	role  models.Role
}

// Create makes a project, attaches the creator as manager, creates the four
// default columns and reconciles the invited emails, all in one transaction.
// Existing team members are attached directly with the member role; unknown
// emails get a pending tokenized invitation. Notifications go out after
// commit and never fail the operation.
func (s *Service) Create(ctx context.Context, in CreateInput) (models.Project, error) {
	if strings.TrimSpace(in.Name) == "" {
		return models.Project{}, errs.Validationf("name is required")
	}
	if in.ClerkUserID == "" {
		return models.Project{}, errs.Validationf("clerkUserId is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return models.Project{}, errs.Validationf("startDate and endDate are required")
	}

	creator, err := s.store.GetTeamMemberByClerkID(ctx, in.ClerkUserID)
	if err != nil {
		return models.Project{}, err
	}

	var created models.Project
	var notices []invitationNotice

	err = s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		created, err = tx.CreateProject(ctx, models.Project{
			Name:        in.Name,
			Description: in.Description,
			StartDate:   in.StartDate,
			EndDate:     in.EndDate,
			ClerkUserID: in.ClerkUserID,
		})
		if err != nil {
			return err
		}

		if err := tx.AttachMember(ctx, created.ID, creator.ID, models.RoleManager); err != nil {
			return err
		}

		for i, title := range models.DefaultColumnTitles {
			if _, err := tx.CreateColumn(ctx, models.Column{
				ProjectID: created.ID,
				Title:     title,
				Order:     int64(i),
			}); err != nil {
				return err
			}
		}

		for _, email := range in.InvitedEmails {
			existing, err := tx.GetTeamMemberByEmail(ctx, email)
			switch {
			case err == nil:
				if err := tx.AttachMember(ctx, created.ID, existing.ID, models.RoleMember); err != nil {
					return err
				}
				notices = append(notices, invitationNotice{email: email, role: models.RoleMember})
			case errors.Is(err, errs.ErrNotFound):
				token := s.newToken()
				if _, err := tx.CreateInvitation(ctx, models.InvitedMember{
					ProjectID:       created.ID,
					Email:           email,
					Status:          models.InvitationPending,
					InvitationToken: token,
					Role:            models.RoleMember,
				}); err != nil {
					return err
				}
				notices = append(notices, invitationNotice{email: email, token: token, role: models.RoleMember})
			default:
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Project{}, err
	}

	for _, n := range notices {
		s.sendInvitation(ctx, created, n)
	}

	return created, nil
}

// Invitation is one email/role pair in an invite batch.
type Invitation struct {
	Email string
	Role  models.Role
}

// InviteUsers processes a batch of invitations on behalf of a manager.
// Existing members get their role updated in place; existing team members
// outside the project are attached; unknown emails get a pending invitation,
// reusing an open one for the same project and email with a fresh token.
// Returns the number of invitations processed.
func (s *Service) InviteUsers(ctx context.Context, projectID int64, actorID string, invitations []Invitation) (int, error) {
	if actorID == "" {
		return 0, errs.ErrUnauthenticated
	}
	allowed, err := s.perm.Evaluate(ctx, projectID, actorID, models.RoleManager)
	if err != nil {
		return 0, err
	}
	if !allowed {
		return 0, errs.Deniedf("only managers can invite users")
	}

	proj, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return 0, err
	}

	for _, inv := range invitations {
		if strings.TrimSpace(inv.Email) == "" {
			return 0, errs.Validationf("invitation email is required")
		}
		if _, ok := models.ValidRoles[inv.Role]; !ok {
			return 0, errs.Validationf("unknown role %q", inv.Role)
		}
	}

	sent := 0
	for _, inv := range invitations {
		existing, err := s.store.GetTeamMemberByEmail(ctx, inv.Email)
		switch {
		case err == nil:
			// Attach or update role in place; one membership row per pair.
			if err := s.store.AttachMember(ctx, projectID, existing.ID, inv.Role); err != nil {
				return sent, err
			}
			s.sendInvitation(ctx, proj, invitationNotice{email: inv.Email, role: inv.Role})
		case errors.Is(err, errs.ErrNotFound):
			token := s.newToken()
			pending, err := s.store.GetPendingInvitation(ctx, projectID, inv.Email)
			switch {
			case err == nil:
				if err := s.store.UpdateInvitation(ctx, pending.ID, inv.Role, token); err != nil {
					return sent, err
				}
			case errors.Is(err, errs.ErrNotFound):
				if _, err := s.store.CreateInvitation(ctx, models.InvitedMember{
					ProjectID:       projectID,
					Email:           inv.Email,
					Status:          models.InvitationPending,
					InvitationToken: token,
					Role:            inv.Role,
				}); err != nil {
					return sent, err
				}
			default:
				return sent, err
			}
			s.sendInvitation(ctx, proj, invitationNotice{email: inv.Email, token: token, role: inv.Role})
		default:
			return sent, err
		}
		sent++
	}

	return sent, nil
}

// AcceptInvitation consumes a pending invitation token: the accepter's team
// member joins the project with the invitation's recorded role and the
// invitation flips to accepted. A consumed token fails as already processed,
// never silently succeeds.
func (s *Service) AcceptInvitation(ctx context.Context, token, clerkUserID string) (models.Project, models.Role, error) {
	if clerkUserID == "" {
		return models.Project{}, "", errs.ErrUnauthenticated
	}

	inv, err := s.store.GetInvitationByToken(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return models.Project{}, "", errs.NotFoundf("invalid invitation token")
		}
		return models.Project{}, "", err
	}
	if inv.Status != models.InvitationPending {
		return models.Project{}, "", errs.Conflictf("invitation already processed")
	}

	member, err := s.store.GetTeamMemberByClerkID(ctx, clerkUserID)
	if err != nil {
		return models.Project{}, "", err
	}
	proj, err := s.store.GetProject(ctx, inv.ProjectID)
	if err != nil {
		return models.Project{}, "", err
	}

	err = s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		if err := tx.AttachMember(ctx, proj.ID, member.ID, inv.Role); err != nil {
			return err
		}
		return tx.MarkInvitationAccepted(ctx, inv.ID)
	})
	if err != nil {
		return models.Project{}, "", err
	}

	return proj, inv.Role, nil
}

// UserProjects returns the actor's projects split into managed and joined.
func (s *Service) UserProjects(ctx context.Context, clerkUserID string) (managed, joined []models.Project, err error) {
	member, err := s.store.GetTeamMemberByClerkID(ctx, clerkUserID)
	if err != nil {
		return nil, nil, err
	}
	managed, err = s.store.ListManagedProjects(ctx, member.ID)
	if err != nil {
		return nil, nil, err
	}
	joined, err = s.store.ListJoinedProjects(ctx, member.ID)
	if err != nil {
		return nil, nil, err
	}
	return managed, joined, nil
}

// TaskDetail is a task with its children resolved.
type TaskDetail struct {
	models.Task
	Assignee    *models.TeamMember  `json:"assignee,omitempty"`
	Comments    []models.Comment    `json:"comments"`
	Attachments []models.Attachment `json:"attachments"`
}

// ColumnDetail is a column with its tasks.
type ColumnDetail struct {
	models.Column
	Tasks []TaskDetail `json:"tasks"`
}

// MemberDetail is a team member with their project role.
type MemberDetail struct {
	models.TeamMember
	Role models.Role `json:"role"`
}

// Detail is the full board view of a project.
type Detail struct {
	models.Project
	Columns     []ColumnDetail `json:"columns"`
	TeamMembers []MemberDetail `json:"team_members"`
}

// Get assembles a project with its columns, tasks, comments, attachments and
// members.
func (s *Service) Get(ctx context.Context, id int64) (Detail, error) {
	proj, err := s.store.GetProject(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	columns, err := s.store.ListColumns(ctx, id)
	if err != nil {
		return Detail{}, err
	}

	detail := Detail{Project: proj, Columns: make([]ColumnDetail, 0, len(columns))}
	for _, col := range columns {
		tasks, err := s.store.ListTasksByColumn(ctx, col.ID)
		if err != nil {
			return Detail{}, err
		}
		cd := ColumnDetail{Column: col, Tasks: make([]TaskDetail, 0, len(tasks))}
		for _, t := range tasks {
			td := TaskDetail{Task: t, Comments: []models.Comment{}, Attachments: []models.Attachment{}}
			if t.AssigneeID != nil {
				assignee, err := s.store.GetTeamMemberByID(ctx, *t.AssigneeID)
				if err == nil {
					td.Assignee = &assignee
				} else if !errors.Is(err, errs.ErrNotFound) {
					return Detail{}, err
				}
			}
			if td.Comments, err = s.store.ListComments(ctx, t.ID); err != nil {
				return Detail{}, err
			}
			if td.Attachments, err = s.store.ListAttachments(ctx, t.ID); err != nil {
				return Detail{}, err
			}
			cd.Tasks = append(cd.Tasks, td)
		}
		detail.Columns = append(detail.Columns, cd)
	}

	members, roles, err := s.store.ListMembers(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	for i, m := range members {
		detail.TeamMembers = append(detail.TeamMembers, MemberDetail{TeamMember: m, Role: roles[i]})
	}

	return detail, nil
}

// sendInvitation delivers one notice outside any transaction. Failures are
// logged and swallowed.
func (s *Service) sendInvitation(ctx context.Context, proj models.Project, n invitationNotice) {
	if s.notifier == nil {
		return
	}
	joinLink := fmt.Sprintf("%s/projects/%d", s.frontendURL, proj.ID)
	if n.token != "" {
		joinLink += "?token=" + n.token
	}
	if err := s.notifier.ProjectInvitation(ctx, proj, n.email, joinLink, n.role); err != nil {
		s.logger.Error("failed to send invitation",
			slog.String("email", n.email),
			slog.Int64("project_id", proj.ID),
			slog.String("error", err.Error()))
	}
}
