package memberships

import (
	"time"

	"github.com/antares-fit/antares/internal/policy"
)

// Membership joins a user to a gym. Exactly one row exists per
// (user, gym) pair.
type Membership struct {
	ID          int64
	UserID      int64
	GymID       int64
	Role        policy.GymRole
	Status      policy.MembershipStatus
	Permissions policy.PermissionSet
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
