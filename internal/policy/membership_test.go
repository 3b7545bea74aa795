package policy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

func athleteMembership(gymID int64) policy.MembershipView {
	return policy.MembershipView{
		UserID:      7,
		GymID:       gymID,
		Role:        policy.GymRoleAthlete,
		Status:      policy.MembershipActive,
		Permissions: policy.NewPermissionSet(),
	}
}

func statusChange(target policy.MembershipView, status policy.MembershipStatus) policy.MembershipChange {
	return policy.MembershipChange{
		Role:        target.Role,
		Status:      status,
		Permissions: target.Permissions,
	}
}

func TestMembershipUpdateCrossTenantDenied(t *testing.T) {
	engine := policy.NewEngine(nil)
	target := athleteMembership(100)

	owner := member(5, 200, policy.GymRoleOwner)
	err := engine.AuthorizeMembershipUpdate(context.Background(), owner, target, statusChange(target, policy.MembershipBanned))
	require.ErrorIs(t, err, policy.ErrCrossTenant)
	require.ErrorIs(t, err, shared.ErrAccessDenied)
}

func TestMembershipUpdateAdminTargetProtected(t *testing.T) {
	engine := policy.NewEngine(nil)
	target := athleteMembership(100)
	target.UserIsAdmin = true

	// Full tenant-admin standing over gym 100 does not reach a platform admin.
	owner := member(5, 100, policy.GymRoleOwner)
	err := engine.AuthorizeMembershipUpdate(context.Background(), owner, target, statusChange(target, policy.MembershipBanned))
	require.ErrorIs(t, err, policy.ErrAdminTarget)

	// Another platform admin may.
	err = engine.AuthorizeMembershipUpdate(context.Background(), admin(), target, statusChange(target, policy.MembershipBanned))
	require.NoError(t, err)
}

func TestMembershipUpdateTenantAdminFullControl(t *testing.T) {
	engine := policy.NewEngine(nil)
	target := athleteMembership(100)

	change := policy.MembershipChange{
		Role:        policy.GymRoleCoach,
		Status:      policy.MembershipActive,
		Permissions: policy.NewPermissionSet(policy.PermWodWrite),
	}

	err := engine.AuthorizeMembershipUpdate(context.Background(), member(5, 100, policy.GymRoleOwner), target, change)
	require.NoError(t, err)

	err = engine.AuthorizeMembershipUpdate(context.Background(), member(5, 100, policy.GymRoleProgrammer), target, change)
	require.NoError(t, err)
}

func TestMembershipUpdateCoachStatusOnly(t *testing.T) {
	engine := policy.NewEngine(nil)
	ctx := context.Background()
	target := athleteMembership(100)
	coach := member(5, 100, policy.GymRoleCoach, policy.PermManageMemberships)

	// Pure status change succeeds.
	err := engine.AuthorizeMembershipUpdate(ctx, coach, target, statusChange(target, policy.MembershipActive))
	require.NoError(t, err)

	// The identical call additionally changing the role is denied even
	// though the status portion alone would have been valid.
	roleChange := statusChange(target, policy.MembershipActive)
	roleChange.Role = policy.GymRoleCoach
	err = engine.AuthorizeMembershipUpdate(ctx, coach, target, roleChange)
	require.ErrorIs(t, err, policy.ErrCoachStatusOnly)

	// Touching the delegated permission set is equally denied.
	permChange := statusChange(target, policy.MembershipActive)
	permChange.Permissions = policy.NewPermissionSet(policy.PermScoreVerify)
	err = engine.AuthorizeMembershipUpdate(ctx, coach, target, permChange)
	require.ErrorIs(t, err, policy.ErrCoachStatusOnly)
}

func TestMembershipUpdateCoachHierarchy(t *testing.T) {
	engine := policy.NewEngine(nil)
	ctx := context.Background()
	coach := member(5, 100, policy.GymRoleCoach, policy.PermManageMemberships)

	for _, role := range []policy.GymRole{policy.GymRoleCoach, policy.GymRoleOwner, policy.GymRoleProgrammer} {
		target := athleteMembership(100)
		target.Role = role
		err := engine.AuthorizeMembershipUpdate(ctx, coach, target, statusChange(target, policy.MembershipBanned))
		require.ErrorIs(t, err, policy.ErrCoachHierarchy, "coach must not manage %s", role)
	}
}

func TestMembershipUpdateCoachRequiresManagePermission(t *testing.T) {
	engine := policy.NewEngine(nil)
	target := athleteMembership(100)

	coach := member(5, 100, policy.GymRoleCoach, policy.PermWodWrite)
	err := engine.AuthorizeMembershipUpdate(context.Background(), coach, target, statusChange(target, policy.MembershipBanned))
	require.ErrorIs(t, err, policy.ErrNoStanding)
}

func TestMembershipUpdateAthleteDenied(t *testing.T) {
	engine := policy.NewEngine(nil)
	target := athleteMembership(100)

	err := engine.AuthorizeMembershipUpdate(context.Background(), member(5, 100, policy.GymRoleAthlete), target, statusChange(target, policy.MembershipBanned))
	require.ErrorIs(t, err, policy.ErrNoStanding)
}

func TestMembershipUpdateAdminIgnoresTenant(t *testing.T) {
	engine := policy.NewEngine(nil)
	target := athleteMembership(100)

	change := policy.MembershipChange{
		Role:        policy.GymRoleOwner,
		Status:      policy.MembershipActive,
		Permissions: policy.NewPermissionSet(),
	}
	err := engine.AuthorizeMembershipUpdate(context.Background(), admin(), target, change)
	require.NoError(t, err)
}
