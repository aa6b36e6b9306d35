// Package user reconciles account records with their 1:1 team member
// identity keyed by the external (Clerk) id.
package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"taskflow/internal/errs"
	"taskflow/internal/models"
	"taskflow/internal/storage/sqlite"
)

// Service owns user profile CRUD and team-member reconciliation.
type Service struct {
	store      *sqlite.Store
	logger     *slog.Logger
	adminEmail string
}

// NewService constructs the user service. adminEmail, when non-empty, marks
// that account as application admin at creation.
func NewService(store *sqlite.Store, logger *slog.Logger, adminEmail string) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, adminEmail: adminEmail}
}

// CreateOrUpdateInput carries the identity payload pushed on sign-in.
type CreateOrUpdateInput struct {
	ClerkUserID       string
	Name              string
	Email             string
	ProfilePictureURL string
}

// CreateOrUpdate upserts the user for an external identity. First sight also
// creates the team member record; both inserts share one transaction so an
// account never exists without its participation identity.
func (s *Service) CreateOrUpdate(ctx context.Context, in CreateOrUpdateInput) (models.User, error) {
	if in.ClerkUserID == "" {
		return models.User{}, errs.Validationf("clerkUserId is required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return models.User{}, errs.Validationf("name is required")
	}
	if in.Email == "" {
		return models.User{}, errs.Validationf("email is required")
	}

	existing, err := s.store.GetUserByClerkID(ctx, in.ClerkUserID)
	if err == nil {
		existing.Name = in.Name
		existing.Email = in.Email
		existing.ProfilePictureURL = in.ProfilePictureURL
		return s.store.UpdateUser(ctx, existing)
	}
	if !errors.Is(err, errs.ErrNotFound) {
		return models.User{}, err
	}

	role := "user"
	if s.adminEmail != "" && in.Email == s.adminEmail {
		role = "admin"
	}

	var created models.User
	err = s.store.WithTx(ctx, func(tx *sqlite.Tx) error {
		created, err = tx.CreateUser(ctx, models.User{
			ClerkUserID:       in.ClerkUserID,
			Name:              in.Name,
			Email:             in.Email,
			Role:              role,
			ProfilePictureURL: in.ProfilePictureURL,
		})
		if err != nil {
			return err
		}
		_, err = tx.CreateTeamMember(ctx, models.TeamMember{
			ClerkUserID: in.ClerkUserID,
			Name:        in.Name,
			Email:       in.Email,
			Avatar:      in.ProfilePictureURL,
		})
		return err
	})
	if err != nil {
		return models.User{}, err
	}
	return created, nil
}

// GetByClerkID returns the user behind an external identity.
func (s *Service) GetByClerkID(ctx context.Context, clerkUserID string) (models.User, error) {
	return s.store.GetUserByClerkID(ctx, clerkUserID)
}

// ProfileInput carries optional profile fields; nil fields keep their
// current values.
type ProfileInput struct {
	Name     *string
	Email    *string
	Bio      *string
	JobTitle *string
	Company  *string
	Location *string
	Phone    *string
	Skills   *string
	Website  *string
	LinkedIn *string
	GitHub   *string
	Twitter  *string
}

// UpdateProfile applies a partial profile update and mirrors name/email onto
// the team member record.
func (s *Service) UpdateProfile(ctx context.Context, clerkUserID string, in ProfileInput) (models.User, error) {
	u, err := s.store.GetUserByClerkID(ctx, clerkUserID)
	if err != nil {
		return models.User{}, err
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil && *in.Email != "" {
		u.Email = *in.Email
	}
	setIf := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setIf(&u.Bio, in.Bio)
	setIf(&u.JobTitle, in.JobTitle)
	setIf(&u.Company, in.Company)
	setIf(&u.Location, in.Location)
	setIf(&u.Phone, in.Phone)
	setIf(&u.Skills, in.Skills)
	setIf(&u.Website, in.Website)
	setIf(&u.LinkedIn, in.LinkedIn)
	setIf(&u.GitHub, in.GitHub)
	setIf(&u.Twitter, in.Twitter)

	updated, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		return models.User{}, err
	}

	if err := s.store.UpdateTeamMember(ctx, clerkUserID, updated.Name, updated.Email); err != nil {
		return models.User{}, err
	}
	return updated, nil
}
