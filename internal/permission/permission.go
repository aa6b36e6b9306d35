// Package permission implements the project role policy: "at-least, with
// manager short-circuit". A manager passes every check; below that, a
// required role of manager denies, a required role of member admits exactly
// members, and a required role of observer admits any membership.
//
// The member-required branch reads as "exactly member" rather than "member
// or above", but the manager short-circuit always fires first, so the
// effective policy is the plain hierarchy manager > member > observer. The
// evaluation order is kept as-is; collapsing it into a rank comparison would
// be a behavior-preserving rewrite, but the explicit branches document what
// each role is admitted to.
package permission

import (
	"context"
	"errors"

	"taskflow/internal/errs"
	"taskflow/internal/models"
)

// MembershipSource resolves actors and their project memberships.
type MembershipSource interface {
	GetTeamMemberByClerkID(ctx context.Context, clerkUserID string) (models.TeamMember, error)
	GetMembership(ctx context.Context, projectID, teamMemberID int64) (models.Membership, error)
}

// Evaluator answers allow/deny questions. It has no side effects; the only
// I/O is the membership lookup.
type Evaluator struct {
	store MembershipSource
}

// New constructs an Evaluator over the given membership source.
func New(store MembershipSource) *Evaluator {
	return &Evaluator{store: store}
}

// RoleAllows reports whether an actor holding actual satisfies a check
// requiring required.
func RoleAllows(actual, required models.Role) bool {
	if actual == models.RoleManager {
		return true
	}
	if required == models.RoleManager {
		return false
	}
	if required == models.RoleMember {
		return actual == models.RoleMember
	}
	if required == models.RoleObserver {
		switch actual {
		case models.RoleObserver, models.RoleMember, models.RoleManager:
			return true
		}
	}
	return false
}

// Evaluate reports whether the actor holds at least the required role on the
// project. Unknown actors and non-members are denied, not errored.
func (e *Evaluator) Evaluate(ctx context.Context, projectID int64, clerkUserID string, required models.Role) (bool, error) {
	membership, _, err := e.resolve(ctx, projectID, clerkUserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return RoleAllows(membership.Role, required), nil
}

// EvaluateTask reports whether the actor may mutate the given task. On top
// of project membership: a manager always may, an observer never may, and a
// member may only when they created the task or are assigned to it.
func (e *Evaluator) EvaluateTask(ctx context.Context, projectID int64, task models.Task, clerkUserID string) (bool, error) {
	membership, member, err := e.resolve(ctx, projectID, clerkUserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	switch membership.Role {
	case models.RoleManager:
		return true, nil
	case models.RoleMember:
		if task.CreatorID == clerkUserID {
			return true, nil
		}
		return task.AssigneeID != nil && *task.AssigneeID == member.ID, nil
	default:
		return false, nil
	}
}

func (e *Evaluator) resolve(ctx context.Context, projectID int64, clerkUserID string) (models.Membership, models.TeamMember, error) {
	member, err := e.store.GetTeamMemberByClerkID(ctx, clerkUserID)
	if err != nil {
		return models.Membership{}, models.TeamMember{}, err
	}
	membership, err := e.store.GetMembership(ctx, projectID, member.ID)
	if err != nil {
		return models.Membership{}, models.TeamMember{}, err
	}
	return membership, member, nil
}
