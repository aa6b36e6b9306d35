// Package notify is the best-effort notification sink and its pull-based
// read side. Write failures are logged and swallowed; they never escalate
// into the operation that triggered them.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"taskflow/internal/errs"
	"taskflow/internal/models"
	"taskflow/internal/storage/sqlite"
)

// listLimit caps a notification page.
const listLimit = 20

// Mailer delivers invitation emails. The default implementation only logs;
// real delivery is an external collaborator.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes the would-be email to the log.
type LogMailer struct {
	Logger *slog.Logger
}

// Send logs the message instead of delivering it.
func (m LogMailer) Send(_ context.Context, to, subject, body string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("invitation email",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.String("body", body))
	return nil
}

// Service writes and reads notifications.
type Service struct {
	store  *sqlite.Store
	mailer Mailer
	logger *slog.Logger
}

// NewService constructs the notification service.
func NewService(store *sqlite.Store, mailer Mailer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if mailer == nil {
		mailer = LogMailer{Logger: logger}
	}
	return &Service{store: store, mailer: mailer, logger: logger}
}

// ProjectInvitation sends the invite email and, when the address belongs to
// a known team member, records an in-app notification. Both halves are
// best-effort.
func (s *Service) ProjectInvitation(ctx context.Context, project models.Project, email, joinLink string, role models.Role) error {
	subject := fmt.Sprintf("Invitation au projet %s", project.Name)
	body := fmt.Sprintf("Vous avez été invité à rejoindre le projet %q en tant que %s.\nRejoindre: %s",
		project.Name, role, joinLink)
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		s.logger.Error("invitation email failed",
			slog.String("email", email),
			slog.String("error", err.Error()))
	}

	member, err := s.store.GetTeamMemberByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, errs.ErrNotFound) {
			s.logger.Error("notification recipient lookup failed", slog.String("error", err.Error()))
		}
		return nil
	}

	data, _ := json.Marshal(map[string]any{
		"project_id": project.ID,
		"role":       role,
		"join_link":  joinLink,
	})
	_, err = s.store.CreateNotification(ctx, models.Notification{
		UserID:  member.ID,
		Type:    "project_invitation",
		Title:   subject,
		Message: fmt.Sprintf("Vous avez été invité à rejoindre le projet %q", project.Name),
		Data:    string(data),
	})
	if err != nil {
		s.logger.Error("notification write failed", slog.String("error", err.Error()))
	}
	return nil
}

// List returns the caller's notifications, unread first then newest first,
// with the unread count. An identity without a team member record gets an
// empty list, not an error.
func (s *Service) List(ctx context.Context, clerkUserID string) ([]models.Notification, int, error) {
	member, err := s.store.GetTeamMemberByClerkID(ctx, clerkUserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return []models.Notification{}, 0, nil
		}
		return nil, 0, err
	}

	notifications, err := s.store.ListNotifications(ctx, member.ID, listLimit)
	if err != nil {
		return nil, 0, err
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	unread, err := s.store.CountUnreadNotifications(ctx, member.ID)
	if err != nil {
		return nil, 0, err
	}
	return notifications, unread, nil
}

// MarkRead marks one of the caller's notifications as read.
func (s *Service) MarkRead(ctx context.Context, id int64, clerkUserID string) error {
	member, err := s.store.GetTeamMemberByClerkID(ctx, clerkUserID)
	if err != nil {
		return err
	}
	return s.store.MarkNotificationRead(ctx, id, member.ID)
}

// MarkAllRead marks every unread notification of the caller as read.
func (s *Service) MarkAllRead(ctx context.Context, clerkUserID string) error {
	member, err := s.store.GetTeamMemberByClerkID(ctx, clerkUserID)
	if err != nil {
		return err
	}
	return s.store.MarkAllNotificationsRead(ctx, member.ID)
}
