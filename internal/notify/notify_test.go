package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/models"
	"taskflow/internal/storage/sqlite"
)

type fakeMailer struct {
	to  []string
	err error
}

func (m *fakeMailer) Send(_ context.Context, to, _, _ string) error {
	m.to = append(m.to, to)
	return m.err
}

func newService(t *testing.T, mailer Mailer) (*Service, *sqlite.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlite.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, mailer, logger), store
}

func seedMember(t *testing.T, store *sqlite.Store, clerkID, email string) models.TeamMember {
	t.Helper()
	m, err := store.CreateTeamMember(context.Background(), models.TeamMember{
		ClerkUserID: clerkID,
		Name:        "Membre",
		Email:       email,
	})
	require.NoError(t, err)
	return m
}

func testProject() models.Project {
	return models.Project{
		ID:        42,
		Name:      "Projet pilote",
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestProjectInvitationRecordsNotification(t *testing.T) {
	mailer := &fakeMailer{}
	svc, store := newService(t, mailer)
	ctx := context.Background()

	member := seedMember(t, store, "clerk_dest", "dest@example.com")

	err := svc.ProjectInvitation(ctx, testProject(), "dest@example.com", "https://app/projects/42", models.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, []string{"dest@example.com"}, mailer.to)

	list, err := store.ListNotifications(ctx, member.ID, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "project_invitation", list[0].Type)
	assert.Contains(t, list[0].Data, `"project_id":42`)
}

func TestProjectInvitationUnknownEmailOnlyMails(t *testing.T) {
	mailer := &fakeMailer{}
	svc, _ := newService(t, mailer)

	err := svc.ProjectInvitation(context.Background(), testProject(), "inconnu@example.com", "https://app/projects/42?token=abc", models.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, []string{"inconnu@example.com"}, mailer.to)
}

func TestProjectInvitationSwallowsMailerFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc, store := newService(t, mailer)
	ctx := context.Background()

	member := seedMember(t, store, "clerk_dest", "dest@example.com")

	err := svc.ProjectInvitation(ctx, testProject(), "dest@example.com", "https://app/projects/42", models.RoleObserver)
	require.NoError(t, err)

	// The in-app notification still lands even when the email did not.
	list, err := store.ListNotifications(ctx, member.ID, 20)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestListUnknownIdentityIsEmpty(t *testing.T) {
	svc, _ := newService(t, &fakeMailer{})

	list, unread, err := svc.List(context.Background(), "clerk_ghost")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, unread)
}

func TestMarkReadAndMarkAllRead(t *testing.T) {
	svc, store := newService(t, &fakeMailer{})
	ctx := context.Background()

	member := seedMember(t, store, "clerk_lect", "lect@example.com")
	for i := 0; i < 3; i++ {
		_, err := store.CreateNotification(ctx, models.Notification{UserID: member.ID, Type: "project_invitation"})
		require.NoError(t, err)
	}

	list, unread, err := svc.List(ctx, member.ClerkUserID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 3, unread)

	require.NoError(t, svc.MarkRead(ctx, list[0].ID, member.ClerkUserID))
	_, unread, err = svc.List(ctx, member.ClerkUserID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	require.NoError(t, svc.MarkAllRead(ctx, member.ClerkUserID))
	_, unread, err = svc.List(ctx, member.ClerkUserID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
