package policy

import (
	"context"
	"fmt"

	"github.com/antares-fit/antares/internal/shared"
)

// Membership-update denial reasons. All wrap shared.ErrAccessDenied so the
// HTTP layer maps them to 403 while keeping the specific reason in the
// message.
var (
	ErrCrossTenant     = fmt.Errorf("%w: membership belongs to another gym", shared.ErrAccessDenied)
	ErrAdminTarget     = fmt.Errorf("%w: target user is a platform admin", shared.ErrAccessDenied)
	ErrCoachHierarchy  = fmt.Errorf("%w: coaches may only manage athletes", shared.ErrAccessDenied)
	ErrCoachStatusOnly = fmt.Errorf("%w: coaches may only change membership status", shared.ErrAccessDenied)
	ErrNoStanding      = fmt.Errorf("%w: insufficient standing for membership update", shared.ErrAccessDenied)
)

// MembershipView is the current state of the membership under mutation,
// joined with the target user's global role for tamper protection.
type MembershipView struct {
	UserID      int64
	GymID       int64
	Role        GymRole
	Status      MembershipStatus
	Permissions PermissionSet
	UserIsAdmin bool
}

// MembershipChange is the proposed new state of a membership.
type MembershipChange struct {
	Role        GymRole
	Status      MembershipStatus
	Permissions PermissionSet
}

// AuthorizeMembershipUpdate decides whether the principal may apply the
// proposed change to the target membership. Membership mutation is more
// constrained than generic resource modification because it can escalate
// privilege, so denials carry explicit reasons instead of a bare false.
//
// Rules, in order: tenant isolation for non-admins; admin-target tamper
// protection; coach restrictions (memberships.manage permission required,
// athlete targets only, status changes only); owner, programmer, and
// platform admin get the full update.
func (e *Engine) AuthorizeMembershipUpdate(ctx context.Context, p Principal, target MembershipView, change MembershipChange) error {
	if !p.IsAdmin() && p.GymID != target.GymID {
		return ErrCrossTenant
	}
	if target.UserIsAdmin && !p.IsAdmin() {
		return ErrAdminTarget
	}
	if p.IsAdmin() || p.IsTenantAdmin(target.GymID) {
		return nil
	}
	if p.GymRole != GymRoleCoach {
		return ErrNoStanding
	}
	ok, err := e.checker.HasPermission(ctx, p, target.GymID, PermManageMemberships)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoStanding
	}
	if target.Role != GymRoleAthlete {
		return ErrCoachHierarchy
	}
	// Even a correct status change is rejected when the same request also
	// touches role or permissions.
	if change.Role != target.Role {
		return ErrCoachStatusOnly
	}
	if !change.Permissions.Equal(target.Permissions) {
		return ErrCoachStatusOnly
	}
	return nil
}
