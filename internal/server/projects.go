package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskflow/internal/errs"
	"taskflow/internal/models"
	"taskflow/internal/project"
)

type projectRequest struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	StartDate      string   `json:"startDate"`
	EndDate        string   `json:"endDate"`
	InvitedMembers []string `json:"invitedMembers"`
}

// handleCreateProject creates a project with its default board and invites.
func (s *Server) handleCreateProject(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}

	var req projectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errs.Validationf("invalid request body: %v", err))
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		s.respondError(c, errs.Validationf("invalid startDate %q", req.StartDate))
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		s.respondError(c, errs.Validationf("invalid endDate %q", req.EndDate))
		return
	}

	created, err := s.svc.Projects.Create(c.Request.Context(), project.CreateInput{
		Name:          req.Name,
		Description:   req.Description,
		StartDate:     startDate,
		EndDate:       endDate,
		ClerkUserID:   actor,
		InvitedEmails: req.InvitedMembers,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"project": created})
}

// handleGetProject returns a project with its full board.
func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}
	detail, err := s.svc.Projects.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, detail)
}

// handleUserProjects lists a user's projects split by role.
func (s *Server) handleUserProjects(c *gin.Context) {
	clerkUserID := c.Param("clerkUserId")
	managed, joined, err := s.svc.Projects.UserProjects(c.Request.Context(), clerkUserID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"managerProjects": managed,
		"invitedProjects": joined,
	})
}

type inviteRequest struct {
	Invitations []struct {
		Email      string `json:"email"`
		Permission string `json:"permission"`
	} `json:"invitations"`
}

// handleInviteUsers processes a manager's invitation batch.
func (s *Server) handleInviteUsers(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errs.Validationf("invalid request body: %v", err))
		return
	}
	if len(req.Invitations) == 0 {
		s.respondError(c, errs.Validationf("invitations are required"))
		return
	}

	invitations := make([]project.Invitation, 0, len(req.Invitations))
	for _, inv := range req.Invitations {
		invitations = append(invitations, project.Invitation{
			Email: inv.Email,
			Role:  models.Role(inv.Permission),
		})
	}

	count, err := s.svc.Projects.InviteUsers(c.Request.Context(), id, actor, invitations)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "invitations sent", "count": count})
}

// handleAcceptInvitation consumes an invitation token for the actor.
func (s *Server) handleAcceptInvitation(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}
	token := c.Param("token")

	proj, role, err := s.svc.Projects.AcceptInvitation(c.Request.Context(), token, actor)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"project": proj, "role": role})
}

// handleProjectStats returns the aggregated board statistics.
func (s *Server) handleProjectStats(c *gin.Context) {
	actor, ok := s.identity(c)
	if !ok {
		return
	}
	id, ok := s.parseID(c, "id")
	if !ok {
		return
	}

	stats, err := s.svc.Reports.ProjectStats(c.Request.Context(), id, actor)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, stats)
}

// parseDate accepts RFC 3339 timestamps and plain dates.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
