package permission

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/errs"
	"taskflow/internal/models"
)

// fakeMembershipSource backs the evaluator with in-memory maps.
type fakeMembershipSource struct {
	members     map[string]models.TeamMember
	memberships map[int64]map[int64]models.Role
}

func (f *fakeMembershipSource) GetTeamMemberByClerkID(_ context.Context, clerkUserID string) (models.TeamMember, error) {
	m, ok := f.members[clerkUserID]
	if !ok {
		return models.TeamMember{}, errs.NotFoundf("team member")
	}
	return m, nil
}

func (f *fakeMembershipSource) GetMembership(_ context.Context, projectID, teamMemberID int64) (models.Membership, error) {
	role, ok := f.memberships[projectID][teamMemberID]
	if !ok {
		return models.Membership{}, errs.NotFoundf("membership")
	}
	return models.Membership{ProjectID: projectID, TeamMemberID: teamMemberID, Role: role}, nil
}

func newFakeSource() *fakeMembershipSource {
	return &fakeMembershipSource{
		members: map[string]models.TeamMember{
			"clerk_manager":  {ID: 1, ClerkUserID: "clerk_manager"},
			"clerk_member":   {ID: 2, ClerkUserID: "clerk_member"},
			"clerk_observer": {ID: 3, ClerkUserID: "clerk_observer"},
			"clerk_outsider": {ID: 4, ClerkUserID: "clerk_outsider"},
		},
		memberships: map[int64]map[int64]models.Role{
			10: {
				1: models.RoleManager,
				2: models.RoleMember,
				3: models.RoleObserver,
			},
		},
	}
}

func TestRoleAllows(t *testing.T) {
	tests := []struct {
		name     string
		actual   models.Role
		required models.Role
		want     bool
	}{
		{"manager passes manager check", models.RoleManager, models.RoleManager, true},
		{"manager passes member check", models.RoleManager, models.RoleMember, true},
		{"manager passes observer check", models.RoleManager, models.RoleObserver, true},
		{"member fails manager check", models.RoleMember, models.RoleManager, false},
		{"member passes member check", models.RoleMember, models.RoleMember, true},
		{"member passes observer check", models.RoleMember, models.RoleObserver, true},
		{"observer fails manager check", models.RoleObserver, models.RoleManager, false},
		{"observer fails member check", models.RoleObserver, models.RoleMember, false},
		{"observer passes observer check", models.RoleObserver, models.RoleObserver, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleAllows(tt.actual, tt.required))
		})
	}
}

func TestEvaluate(t *testing.T) {
	e := New(newFakeSource())
	ctx := context.Background()

	tests := []struct {
		name     string
		actor    string
		required models.Role
		want     bool
	}{
		{"manager allowed for manager", "clerk_manager", models.RoleManager, true},
		{"member denied for manager", "clerk_member", models.RoleManager, false},
		{"member allowed for member", "clerk_member", models.RoleMember, true},
		{"observer denied for member", "clerk_observer", models.RoleMember, false},
		{"observer allowed for observer", "clerk_observer", models.RoleObserver, true},
		{"non-member denied", "clerk_outsider", models.RoleObserver, false},
		{"unknown identity denied", "clerk_ghost", models.RoleObserver, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Evaluate(ctx, 10, tt.actor, tt.required)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateTaskOwnership(t *testing.T) {
	e := New(newFakeSource())
	ctx := context.Background()

	memberID := int64(2)
	ownTask := models.Task{ID: 100, CreatorID: "clerk_member"}
	assignedTask := models.Task{ID: 101, CreatorID: "clerk_manager", AssigneeID: &memberID}
	otherTask := models.Task{ID: 102, CreatorID: "clerk_manager"}

	tests := []struct {
		name  string
		actor string
		task  models.Task
		want  bool
	}{
		{"member may act on own task", "clerk_member", ownTask, true},
		{"member may act on assigned task", "clerk_member", assignedTask, true},
		{"member denied on unrelated task", "clerk_member", otherTask, false},
		{"manager bypasses ownership", "clerk_manager", otherTask, true},
		{"observer denied even as creator", "clerk_observer", models.Task{ID: 103, CreatorID: "clerk_observer"}, false},
		{"outsider denied", "clerk_outsider", ownTask, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.EvaluateTask(ctx, 10, tt.task, tt.actor)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
