package policy

import (
	"sort"
	"strings"
)

// Permission is a fine-grained capability delegated to coach-tier principals.
type Permission string

const (
	// PermUnknown is the sentinel for unresolvable permission names.
	// It never satisfies any check.
	PermUnknown Permission = ""

	PermManageMemberships Permission = "memberships.manage"
	PermWodWrite          Permission = "wod.write"
	PermScoreWrite        Permission = "score.write"
	PermScoreVerify       Permission = "score.verify"
	PermManageSettings    Permission = "gym.settings"
)

// KnownPermissions lists every permission the platform understands.
func KnownPermissions() []Permission {
	return []Permission{
		PermManageMemberships,
		PermWodWrite,
		PermScoreWrite,
		PermScoreVerify,
		PermManageSettings,
	}
}

// permissionAliases maps legacy upper-snake identifiers still present in
// stored membership rows and older API clients.
var permissionAliases = map[string]Permission{
	"manage_memberships": PermManageMemberships,
	"wod_write":          PermWodWrite,
	"score_write":        PermScoreWrite,
	"score_verify":       PermScoreVerify,
	"manage_settings":    PermManageSettings,
}

// PermissionFromString resolves a free-form permission name. Unknown input
// yields PermUnknown rather than an error so that a typo or a
// forward-incompatible name degrades to denial instead of failing the
// decision path.
func PermissionFromString(name string) Permission {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return PermUnknown
	}
	for _, p := range KnownPermissions() {
		if string(p) == name {
			return p
		}
	}
	if p, ok := permissionAliases[name]; ok {
		return p
	}
	return PermUnknown
}

// PermissionSet is a set of delegated permissions.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permissions, ignoring
// PermUnknown entries.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		if p == PermUnknown {
			continue
		}
		set[p] = struct{}{}
	}
	return set
}

// ParsePermissionSet resolves stored permission names into a set. Names that
// do not resolve are dropped.
func ParsePermissionSet(names []string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, name := range names {
		if p := PermissionFromString(name); p != PermUnknown {
			set[p] = struct{}{}
		}
	}
	return set
}

// Has reports whether the permission is in the set. PermUnknown is never
// satisfiable.
func (s PermissionSet) Has(p Permission) bool {
	if p == PermUnknown {
		return false
	}
	_, ok := s[p]
	return ok
}

// Equal reports whether both sets contain exactly the same permissions.
func (s PermissionSet) Equal(other PermissionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for p := range s {
		if _, ok := other[p]; !ok {
			return false
		}
	}
	return true
}

// Names returns the sorted permission names, for storage and API payloads.
func (s PermissionSet) Names() []string {
	names := make([]string, 0, len(s))
	for p := range s {
		names = append(names, string(p))
	}
	sort.Strings(names)
	return names
}
