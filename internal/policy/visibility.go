package policy

// Visibility classifies who may see a resource by default.
type Visibility string

const (
	// VisibilityPublic resources are readable by anyone.
	VisibilityPublic Visibility = "public"
	// VisibilityGymScoped resources belong to a single gym.
	VisibilityGymScoped Visibility = "gym"
	// VisibilityPersonal resources belong to a single user.
	VisibilityPersonal Visibility = "personal"
)

// VisibilityContext is the minimal ownership projection of a resource the
// engine needs for a decision. Repositories fetch it by resource id.
type VisibilityContext struct {
	GymID         int64 // owning gym, 0 when none
	AuthorID      int64 // owning user, 0 when none
	Public        bool
	AuthorIsAdmin bool // owning user holds the platform admin role
}

// Visibility derives the three-way classification. The public flag wins,
// then gym ownership, then personal ownership.
func (v VisibilityContext) Visibility() Visibility {
	switch {
	case v.Public:
		return VisibilityPublic
	case v.GymID != 0:
		return VisibilityGymScoped
	default:
		return VisibilityPersonal
	}
}
