package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskflow/internal/errs"
	"taskflow/internal/user"
)

type userRequest struct {
	ClerkUserID       string `json:"clerkUserId"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	ProfilePictureURL string `json:"profilePictureUrl"`
}

// handleCreateOrUpdateUser upserts the account pushed on sign-in.
func (s *Server) handleCreateOrUpdateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errs.Validationf("invalid request body: %v", err))
		return
	}

	u, err := s.svc.Users.CreateOrUpdate(c.Request.Context(), user.CreateOrUpdateInput{
		ClerkUserID:       req.ClerkUserID,
		Name:              req.Name,
		Email:             req.Email,
		ProfilePictureURL: req.ProfilePictureURL,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": u, "role": u.Role})
}

// handleGetUser returns the user behind an external identity.
func (s *Server) handleGetUser(c *gin.Context) {
	u, err := s.svc.Users.GetByClerkID(c.Request.Context(), c.Param("clerkUserId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": u, "role": u.Role})
}

type profileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`
	JobTitle *string `json:"jobTitle"`
	Company  *string `json:"company"`
	Location *string `json:"location"`
	Phone    *string `json:"phone"`
	Skills   *string `json:"skills"`
	Website  *string `json:"website"`
	LinkedIn *string `json:"linkedin"`
	GitHub   *string `json:"github"`
	Twitter  *string `json:"twitter"`
}

// handleUpdateProfile applies a partial profile update.
func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errs.Validationf("invalid request body: %v", err))
		return
	}

	u, err := s.svc.Users.UpdateProfile(c.Request.Context(), c.Param("clerkUserId"), user.ProfileInput{
		Name:     req.Name,
		Email:    req.Email,
		Bio:      req.Bio,
		JobTitle: req.JobTitle,
		Company:  req.Company,
		Location: req.Location,
		Phone:    req.Phone,
		Skills:   req.Skills,
		Website:  req.Website,
		LinkedIn: req.LinkedIn,
		GitHub:   req.GitHub,
		Twitter:  req.Twitter,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"user": u})
}
