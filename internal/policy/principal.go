package policy

// GlobalRole is the platform-wide role of a user account.
type GlobalRole string

const (
	// GlobalRoleRegular is the default role for every account.
	GlobalRoleRegular GlobalRole = "regular"
	// GlobalRoleAdmin overrides every authorization decision.
	GlobalRoleAdmin GlobalRole = "admin"
)

// GymRole is a user's role within a single gym.
type GymRole string

const (
	// GymRoleAthlete is an ordinary member with read-only access.
	GymRoleAthlete GymRole = "athlete"
	// GymRoleCoach is delegated staff gated by explicit permissions.
	GymRoleCoach GymRole = "coach"
	// GymRoleOwner has implicit full access within the gym.
	GymRoleOwner GymRole = "owner"
	// GymRoleProgrammer has implicit full access within the gym.
	GymRoleProgrammer GymRole = "programmer"
)

// MembershipStatus is the lifecycle state of a user-gym membership.
type MembershipStatus string

const (
	MembershipPending MembershipStatus = "pending"
	MembershipActive  MembershipStatus = "active"
	MembershipBanned  MembershipStatus = "banned"
)

// Principal is the authenticated actor a decision is evaluated for.
// It is built once per request from verified session data and the actor's
// active membership, and is never mutated by the engine.
type Principal struct {
	UserID      int64
	GymID       int64 // 0 when no gym context applies
	GlobalRole  GlobalRole
	GymRole     GymRole
	Permissions PermissionSet
}

// IsAdmin reports whether the principal is a platform administrator.
func (p Principal) IsAdmin() bool {
	return p.GlobalRole == GlobalRoleAdmin
}

// IsTenantAdmin reports whether the principal has implicit full access
// within the given gym. Requires an exact tenant match.
func (p Principal) IsTenantAdmin(gymID int64) bool {
	if gymID == 0 || p.GymID != gymID {
		return false
	}
	return p.GymRole == GymRoleOwner || p.GymRole == GymRoleProgrammer
}

// IsCoach reports whether the principal is delegated staff of the given gym.
func (p Principal) IsCoach(gymID int64) bool {
	return gymID != 0 && p.GymID == gymID && p.GymRole == GymRoleCoach
}
