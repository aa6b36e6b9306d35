package user

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/errs"
	"taskflow/internal/storage/sqlite"
)

func newService(t *testing.T, adminEmail string) (*Service, *sqlite.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := sqlite.Open(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store, logger, adminEmail), store
}

func TestCreateOrUpdateCreatesBothRecords(t *testing.T) {
	svc, store := newService(t, "")
	ctx := context.Background()

	created, err := svc.CreateOrUpdate(ctx, CreateOrUpdateInput{
		ClerkUserID:       "clerk_new",
		Name:              "Nina",
		Email:             "nina@example.com",
		ProfilePictureURL: "https://img.example.com/nina.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "user", created.Role)

	// The team member identity exists as soon as the account does.
	member, err := store.GetTeamMemberByClerkID(ctx, "clerk_new")
	require.NoError(t, err)
	assert.Equal(t, "Nina", member.Name)
	assert.Equal(t, "nina@example.com", member.Email)
	assert.Equal(t, "https://img.example.com/nina.png", member.Avatar)
}

func TestCreateOrUpdateGrantsAdminRole(t *testing.T) {
	svc, _ := newService(t, "boss@example.com")

	created, err := svc.CreateOrUpdate(context.Background(), CreateOrUpdateInput{
		ClerkUserID: "clerk_boss",
		Name:        "Boss",
		Email:       "boss@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin", created.Role)
}

func TestCreateOrUpdateIsIdempotent(t *testing.T) {
	svc, _ := newService(t, "")
	ctx := context.Background()

	first, err := svc.CreateOrUpdate(ctx, CreateOrUpdateInput{
		ClerkUserID: "clerk_same",
		Name:        "Avant",
		Email:       "avant@example.com",
	})
	require.NoError(t, err)

	second, err := svc.CreateOrUpdate(ctx, CreateOrUpdateInput{
		ClerkUserID: "clerk_same",
		Name:        "Après",
		Email:       "apres@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Après", second.Name)
	assert.Equal(t, "apres@example.com", second.Email)
}

func TestCreateOrUpdateValidation(t *testing.T) {
	svc, _ := newService(t, "")
	ctx := context.Background()

	_, err := svc.CreateOrUpdate(ctx, CreateOrUpdateInput{Name: "Sans ID", Email: "x@example.com"})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.CreateOrUpdate(ctx, CreateOrUpdateInput{ClerkUserID: "clerk_x", Email: "x@example.com"})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.CreateOrUpdate(ctx, CreateOrUpdateInput{ClerkUserID: "clerk_x", Name: "X"})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestUpdateProfileMirrorsTeamMember(t *testing.T) {
	svc, store := newService(t, "")
	ctx := context.Background()

	_, err := svc.CreateOrUpdate(ctx, CreateOrUpdateInput{
		ClerkUserID: "clerk_profil",
		Name:        "Ancien Nom",
		Email:       "ancien@example.com",
	})
	require.NoError(t, err)

	name := "Nouveau Nom"
	bio := "Développeuse backend"
	updated, err := svc.UpdateProfile(ctx, "clerk_profil", ProfileInput{
		Name: &name,
		Bio:  &bio,
	})
	require.NoError(t, err)
	assert.Equal(t, "Nouveau Nom", updated.Name)
	assert.Equal(t, "Développeuse backend", updated.Bio)
	assert.Equal(t, "ancien@example.com", updated.Email)

	member, err := store.GetTeamMemberByClerkID(ctx, "clerk_profil")
	require.NoError(t, err)
	assert.Equal(t, "Nouveau Nom", member.Name)
	assert.Equal(t, "ancien@example.com", member.Email)
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	svc, _ := newService(t, "")

	_, err := svc.UpdateProfile(context.Background(), "clerk_ghost", ProfileInput{})
	require.ErrorIs(t, err, errs.ErrNotFound)
}
