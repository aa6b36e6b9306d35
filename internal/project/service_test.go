package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/errs"
	"taskflow/internal/models"
	"taskflow/internal/permission"
	"taskflow/internal/storage/sqlite"
)

type sentNotice struct {
	email    string
	joinLink string
	role     models.Role
}

// fakeNotifier records invitation notices and can be made to fail.
type fakeNotifier struct {
	sent []sentNotice
	err  error
}

func (f *fakeNotifier) ProjectInvitation(_ context.Context, _ models.Project, email, joinLink string, role models.Role) error {
	f.sent = append(f.sent, sentNotice{email: email, joinLink: joinLink, role: role})
	return f.err
}

type fixture struct {
	store    *sqlite.Store
	svc      *Service
	notifier *fakeNotifier
	manager  models.TeamMember
	member   models.TeamMember
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlite.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{store: store, notifier: &fakeNotifier{}}
	f.manager = mustMember(t, store, "clerk_manager", "Marie", "marie@example.com")
	f.member = mustMember(t, store, "clerk_member", "Paul", "paul@example.com")

	tokens := 0
	f.svc = NewService(store, permission.New(store), f.notifier, logger, "https://app.example.com").
		WithTokenSource(func() string {
			tokens++
			return fmt.Sprintf("token-%04d", tokens)
		})
	return f
}

func mustMember(t *testing.T, store *sqlite.Store, clerkID, name, email string) models.TeamMember {
	t.Helper()
	m, err := store.CreateTeamMember(context.Background(), models.TeamMember{
		ClerkUserID: clerkID,
		Name:        name,
		Email:       email,
	})
	require.NoError(t, err)
	return m
}

func mustCreateProject(t *testing.T, f *fixture, emails ...string) models.Project {
	t.Helper()
	created, err := f.svc.Create(context.Background(), CreateInput{
		Name:          "Lancement produit",
		StartDate:     time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
		ClerkUserID:   f.manager.ClerkUserID,
		InvitedEmails: emails,
	})
	require.NoError(t, err)
	return created
}

func TestCreateSeedsDefaultBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := mustCreateProject(t, f)

	columns, err := f.store.ListColumns(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, columns, len(models.DefaultColumnTitles))
	for i, col := range columns {
		assert.Equal(t, models.DefaultColumnTitles[i], col.Title)
		assert.EqualValues(t, i, col.Order)
	}

	membership, err := f.store.GetMembership(ctx, created.ID, f.manager.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, membership.Role)
}

func TestCreateReconcilesInvitedEmails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := mustCreateProject(t, f, f.member.Email, "nouveau@example.com")

	// The known email is attached as a member right away.
	membership, err := f.store.GetMembership(ctx, created.ID, f.member.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, membership.Role)

	// The unknown email gets a pending tokenized invitation.
	pending, err := f.store.GetPendingInvitation(ctx, created.ID, "nouveau@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.InvitationPending, pending.Status)
	assert.Equal(t, "token-0001", pending.InvitationToken)
	assert.Equal(t, models.RoleMember, pending.Role)

	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, f.member.Email, f.notifier.sent[0].email)
	assert.NotContains(t, f.notifier.sent[0].joinLink, "token=")
	assert.Equal(t, "nouveau@example.com", f.notifier.sent[1].email)
	assert.Contains(t, f.notifier.sent[1].joinLink, "token=token-0001")
}

func TestCreateSurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")

	created := mustCreateProject(t, f, "nouveau@example.com")

	// The invitation row is durable even though delivery failed.
	pending, err := f.store.GetPendingInvitation(context.Background(), created.ID, "nouveau@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.InvitationPending, pending.Status)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{ClerkUserID: f.manager.ClerkUserID})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.svc.Create(ctx, CreateInput{
		Name:        "Sans dates",
		ClerkUserID: f.manager.ClerkUserID,
	})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.svc.Create(ctx, CreateInput{
		Name:        "Créateur inconnu",
		StartDate:   time.Now(),
		EndDate:     time.Now(),
		ClerkUserID: "clerk_ghost",
	})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestInviteUsersManagerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := mustCreateProject(t, f, f.member.Email)

	_, err := f.svc.InviteUsers(ctx, created.ID, f.member.ClerkUserID, []Invitation{
		{Email: "autre@example.com", Role: models.RoleMember},
	})
	require.ErrorIs(t, err, errs.ErrPermissionDenied)

	_, err = f.svc.InviteUsers(ctx, created.ID, "", []Invitation{
		{Email: "autre@example.com", Role: models.RoleMember},
	})
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestInviteUsersUpdatesRoleInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := mustCreateProject(t, f, f.member.Email)

	sent, err := f.svc.InviteUsers(ctx, created.ID, f.manager.ClerkUserID, []Invitation{
		{Email: f.member.Email, Role: models.RoleObserver},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	membership, err := f.store.GetMembership(ctx, created.ID, f.member.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleObserver, membership.Role)

	// Still a single membership row for the pair.
	members, _, err := f.store.ListMembers(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestInviteUsersReusesPendingInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := mustCreateProject(t, f)

	_, err := f.svc.InviteUsers(ctx, created.ID, f.manager.ClerkUserID, []Invitation{
		{Email: "nouveau@example.com", Role: models.RoleMember},
	})
	require.NoError(t, err)

	first, err := f.store.GetPendingInvitation(ctx, created.ID, "nouveau@example.com")
	require.NoError(t, err)

	_, err = f.svc.InviteUsers(ctx, created.ID, f.manager.ClerkUserID, []Invitation{
		{Email: "nouveau@example.com", Role: models.RoleManager},
	})
	require.NoError(t, err)

	second, err := f.store.GetPendingInvitation(ctx, created.ID, "nouveau@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.NotEqual(t, first.InvitationToken, second.InvitationToken)
	assert.Equal(t, models.RoleManager, second.Role)
}

func TestInviteUsersRejectsUnknownRole(t *testing.T) {
	f := newFixture(t)

	created := mustCreateProject(t, f)

	_, err := f.svc.InviteUsers(context.Background(), created.ID, f.manager.ClerkUserID, []Invitation{
		{Email: "nouveau@example.com", Role: "admin"},
	})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestAcceptInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := mustCreateProject(t, f)
	_, err := f.svc.InviteUsers(ctx, created.ID, f.manager.ClerkUserID, []Invitation{
		{Email: "invite@example.com", Role: models.RoleObserver},
	})
	require.NoError(t, err)

	pending, err := f.store.GetPendingInvitation(ctx, created.ID, "invite@example.com")
	require.NoError(t, err)

	// The invited person signs up, then redeems the token.
	invited := mustMember(t, f.store, "clerk_invited", "Inès", "invite@example.com")

	proj, role, err := f.svc.AcceptInvitation(ctx, pending.InvitationToken, invited.ClerkUserID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, proj.ID)
	assert.Equal(t, models.RoleObserver, role)

	membership, err := f.store.GetMembership(ctx, created.ID, invited.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleObserver, membership.Role)

	// A consumed token never silently succeeds.
	_, _, err = f.svc.AcceptInvitation(ctx, pending.InvitationToken, invited.ClerkUserID)
	require.ErrorIs(t, err, errs.ErrConflict)

	_, _, err = f.svc.AcceptInvitation(ctx, "no-such-token", invited.ClerkUserID)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserProjectsSplit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	managedProj := mustCreateProject(t, f, f.member.Email)

	managed, joined, err := f.svc.UserProjects(ctx, f.manager.ClerkUserID)
	require.NoError(t, err)
	require.Len(t, managed, 1)
	assert.Equal(t, managedProj.ID, managed[0].ID)
	assert.Empty(t, joined)

	managed, joined, err = f.svc.UserProjects(ctx, f.member.ClerkUserID)
	require.NoError(t, err)
	assert.Empty(t, managed)
	require.Len(t, joined, 1)
	assert.Equal(t, managedProj.ID, joined[0].ID)
}

func TestGetAssemblesBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := mustCreateProject(t, f, f.member.Email)

	columns, err := f.store.ListColumns(ctx, created.ID)
	require.NoError(t, err)

	taskRow, err := f.store.CreateTask(ctx, models.Task{
		ColumnID:   columns[0].ID,
		Title:      "Préparer le backlog",
		Status:     models.StatusTodo,
		Priority:   models.PriorityMedium,
		AssigneeID: &f.member.ID,
		CreatorID:  f.manager.ClerkUserID,
	})
	require.NoError(t, err)
	_, err = f.store.CreateComment(ctx, models.Comment{TaskID: taskRow.ID, AuthorID: f.member.ID, Text: "Vu"})
	require.NoError(t, err)

	detail, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, detail.Columns, len(models.DefaultColumnTitles))
	require.Len(t, detail.Columns[0].Tasks, 1)

	got := detail.Columns[0].Tasks[0]
	assert.Equal(t, "Préparer le backlog", got.Title)
	require.NotNil(t, got.Assignee)
	assert.Equal(t, f.member.ID, got.Assignee.ID)
	require.Len(t, got.Comments, 1)

	assert.Len(t, detail.TeamMembers, 2)
}
