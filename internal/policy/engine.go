package policy

import (
	"context"
	"fmt"
)

// Kind identifies the class of resource a decision applies to.
type Kind string

const (
	KindWorkout Kind = "workout"
	KindScore   Kind = "score"
)

// ResourceAccessor fetches the ownership projection of a resource by id.
// Implementations return shared.ErrNotFound when the resource is absent;
// the engine propagates that error unchanged so callers can map it to 404
// instead of mistaking it for a denial.
type ResourceAccessor interface {
	VisibilityContext(ctx context.Context, id int64) (VisibilityContext, error)
}

// PermissionChecker evaluates a delegated permission for a principal within
// a gym. It is only consulted for coach-tier principals, and only after the
// tenant-isolation check has passed.
type PermissionChecker interface {
	HasPermission(ctx context.Context, p Principal, gymID int64, perm Permission) (bool, error)
}

// PrincipalPermissions is the default checker: it trusts the delegated set
// carried by the principal, which upstream resolution copied from the
// actor's active membership.
type PrincipalPermissions struct{}

// HasPermission reports whether the principal carries the permission for the
// gym it is operating under.
func (PrincipalPermissions) HasPermission(_ context.Context, p Principal, gymID int64, perm Permission) (bool, error) {
	if gymID == 0 || p.GymID != gymID {
		return false, nil
	}
	return p.Permissions.Has(perm), nil
}

// DecisionHook observes every decision the engine makes, for metrics.
type DecisionHook func(kind Kind, op string, allowed bool)

// CreateRequest carries the ownership a caller wants a new resource to have.
// GymID and AuthorID are mutually exclusive.
type CreateRequest struct {
	GymID    int64
	AuthorID int64
}

type kindEntry struct {
	accessor  ResourceAccessor
	writePerm Permission
}

// Engine evaluates tiered multi-tenant authorization decisions. It is
// stateless per call and safe for concurrent use.
type Engine struct {
	kinds   map[Kind]kindEntry
	checker PermissionChecker
	hook    DecisionHook
}

// NewEngine constructs an Engine. A nil checker falls back to
// PrincipalPermissions.
func NewEngine(checker PermissionChecker) *Engine {
	if checker == nil {
		checker = PrincipalPermissions{}
	}
	return &Engine{
		kinds:   make(map[Kind]kindEntry),
		checker: checker,
	}
}

// RegisterKind wires a resource kind to its accessor and the permission a
// coach needs to write resources of that kind.
func (e *Engine) RegisterKind(kind Kind, accessor ResourceAccessor, writePerm Permission) {
	e.kinds[kind] = kindEntry{accessor: accessor, writePerm: writePerm}
}

// SetDecisionHook installs an observer invoked after every decision.
func (e *Engine) SetDecisionHook(hook DecisionHook) {
	e.hook = hook
}

// CanRead reports whether the principal may view the identified resource.
// Platform admins are allowed before the resource is even looked up; for
// everyone else a missing resource propagates shared.ErrNotFound.
func (e *Engine) CanRead(ctx context.Context, kind Kind, id int64, p Principal) (bool, error) {
	allowed, err := e.canRead(ctx, kind, id, p)
	e.observe(kind, "read", allowed, err)
	return allowed, err
}

func (e *Engine) canRead(ctx context.Context, kind Kind, id int64, p Principal) (bool, error) {
	if p.IsAdmin() {
		return true, nil
	}
	vc, err := e.lookup(ctx, kind, id)
	if err != nil {
		return false, err
	}
	switch vc.Visibility() {
	case VisibilityPublic:
		return true, nil
	case VisibilityGymScoped:
		return p.GymID == vc.GymID, nil
	default:
		return p.UserID == vc.AuthorID, nil
	}
}

// CanCreate reports whether the principal may create a resource with the
// ownership the request implies. For gym-targeted requests the tenant check
// runs before any role or permission evaluation: a wrong-tenant owner is
// denied without the permission checker ever being consulted.
func (e *Engine) CanCreate(ctx context.Context, kind Kind, req CreateRequest, p Principal) (bool, error) {
	allowed, err := e.canCreate(ctx, kind, req, p)
	e.observe(kind, "create", allowed, err)
	return allowed, err
}

func (e *Engine) canCreate(ctx context.Context, kind Kind, req CreateRequest, p Principal) (bool, error) {
	if p.IsAdmin() {
		return true, nil
	}
	switch {
	case req.GymID != 0:
		if p.GymID != req.GymID {
			return false, nil
		}
		return e.gymWriteStanding(ctx, kind, req.GymID, p)
	case req.AuthorID != 0:
		return p.UserID == req.AuthorID, nil
	default:
		return false, nil
	}
}

// CanModify reports whether the principal may mutate an existing resource.
// Public readability never implies write access: mutation of a public
// resource still requires authorship or tenant-admin standing over the
// owning gym. Resources owned by a platform admin may only be mutated by
// another platform admin.
func (e *Engine) CanModify(ctx context.Context, kind Kind, id int64, p Principal) (bool, error) {
	allowed, err := e.canModify(ctx, kind, id, p)
	e.observe(kind, "modify", allowed, err)
	return allowed, err
}

func (e *Engine) canModify(ctx context.Context, kind Kind, id int64, p Principal) (bool, error) {
	if p.IsAdmin() {
		return true, nil
	}
	vc, err := e.lookup(ctx, kind, id)
	if err != nil {
		return false, err
	}
	if vc.AuthorIsAdmin {
		return false, nil
	}
	switch vc.Visibility() {
	case VisibilityPersonal:
		return p.UserID == vc.AuthorID, nil
	case VisibilityGymScoped:
		if p.GymID != vc.GymID {
			return false, nil
		}
		return e.gymWriteStanding(ctx, kind, vc.GymID, p)
	default:
		// Public readability never widens write access: only the author or
		// a tenant admin of the owning gym may mutate, delegated coach
		// permissions do not count here.
		if vc.AuthorID != 0 && p.UserID == vc.AuthorID {
			return true, nil
		}
		if vc.GymID == 0 || p.GymID != vc.GymID {
			return false, nil
		}
		return p.IsTenantAdmin(vc.GymID), nil
	}
}

// CanManageGym reports whether the principal may change gym settings.
func (e *Engine) CanManageGym(ctx context.Context, gymID int64, p Principal) (bool, error) {
	allowed, err := e.canManageGym(ctx, gymID, p)
	e.observe("gym", "manage", allowed, err)
	return allowed, err
}

func (e *Engine) canManageGym(ctx context.Context, gymID int64, p Principal) (bool, error) {
	if p.IsAdmin() {
		return true, nil
	}
	if gymID == 0 || p.GymID != gymID {
		return false, nil
	}
	if p.IsTenantAdmin(gymID) {
		return true, nil
	}
	if p.GymRole == GymRoleCoach {
		return e.checker.HasPermission(ctx, p, gymID, PermManageSettings)
	}
	return false, nil
}

// gymWriteStanding resolves the role tier for a write inside a gym the
// tenant check already matched: owner and programmer pass implicitly, a
// coach needs the kind's write permission, everyone else is denied. An
// unresolved write permission denies without consulting the checker.
func (e *Engine) gymWriteStanding(ctx context.Context, kind Kind, gymID int64, p Principal) (bool, error) {
	if p.IsTenantAdmin(gymID) {
		return true, nil
	}
	if p.GymRole != GymRoleCoach {
		return false, nil
	}
	perm := e.kinds[kind].writePerm
	if perm == PermUnknown {
		return false, nil
	}
	return e.checker.HasPermission(ctx, p, gymID, perm)
}

func (e *Engine) lookup(ctx context.Context, kind Kind, id int64) (VisibilityContext, error) {
	entry, ok := e.kinds[kind]
	if !ok || entry.accessor == nil {
		return VisibilityContext{}, fmt.Errorf("policy: unregistered resource kind %q", kind)
	}
	vc, err := entry.accessor.VisibilityContext(ctx, id)
	if err != nil {
		return VisibilityContext{}, err
	}
	return vc, nil
}

func (e *Engine) observe(kind Kind, op string, allowed bool, err error) {
	if e.hook == nil || err != nil {
		return
	}
	e.hook(kind, op, allowed)
}
