package memberships

import (
	"context"
	"fmt"
	"strconv"

	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

// RepositoryPort defines data access for memberships.
type RepositoryPort interface {
	GetByID(ctx context.Context, id int64) (Membership, error)
	Find(ctx context.Context, userID, gymID int64) (Membership, bool, error)
	Create(ctx context.Context, m Membership) (Membership, error)
	Update(ctx context.Context, id int64, role policy.GymRole, status policy.MembershipStatus, perms policy.PermissionSet) (Membership, error)
	Delete(ctx context.Context, id int64) error
	ListByGym(ctx context.Context, gymID int64) ([]Membership, error)
}

// UserRoleSource exposes a user's platform role for admin-target protection.
type UserRoleSource interface {
	GlobalRole(ctx context.Context, userID int64) (policy.GlobalRole, error)
}

// EnrollmentGate tells whether a gym admits new members without approval.
type EnrollmentGate interface {
	OpenEnrollment(ctx context.Context, gymID int64) (bool, error)
}

// UpdatePolicy authorizes membership mutation.
type UpdatePolicy interface {
	AuthorizeMembershipUpdate(ctx context.Context, p policy.Principal, target policy.MembershipView, change policy.MembershipChange) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates enrollment and membership administration.
type Service struct {
	repo   RepositoryPort
	users  UserRoleSource
	gate   EnrollmentGate
	policy UpdatePolicy
	audit  AuditPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, users UserRoleSource, gate EnrollmentGate, updatePolicy UpdatePolicy, audit AuditPort) *Service {
	return &Service{repo: repo, users: users, gate: gate, policy: updatePolicy, audit: audit}
}

// Enroll joins the principal to a gym as an athlete. Gyms with open
// enrollment admit immediately; others leave the membership pending until a
// gym administrator approves it.
func (s *Service) Enroll(ctx context.Context, p policy.Principal, gymID int64) (Membership, error) {
	status := policy.MembershipPending
	if s.gate != nil {
		open, err := s.gate.OpenEnrollment(ctx, gymID)
		if err != nil {
			return Membership{}, err
		}
		if open {
			status = policy.MembershipActive
		}
	}
	created, err := s.repo.Create(ctx, Membership{
		UserID:      p.UserID,
		GymID:       gymID,
		Role:        policy.GymRoleAthlete,
		Status:      status,
		Permissions: policy.NewPermissionSet(),
	})
	if err != nil {
		return Membership{}, err
	}
	s.recordAudit(ctx, p, "membership.enroll", created, nil)
	return created, nil
}

// UpdateInput carries the proposed membership mutation. Nil fields keep the
// current value, so the policy engine sees the full proposed state and can
// reject a combined change even when part of it is valid.
type UpdateInput struct {
	Role        *policy.GymRole
	Status      *policy.MembershipStatus
	Permissions policy.PermissionSet // nil keeps current
}

// Update mutates a membership after the tiered policy check. The target is
// fetched first: a missing membership propagates NotFound, never a denial.
func (s *Service) Update(ctx context.Context, p policy.Principal, membershipID int64, input UpdateInput) (Membership, error) {
	target, err := s.repo.GetByID(ctx, membershipID)
	if err != nil {
		return Membership{}, err
	}

	targetRole, err := s.users.GlobalRole(ctx, target.UserID)
	if err != nil {
		return Membership{}, err
	}

	proposed := policy.MembershipChange{
		Role:        target.Role,
		Status:      target.Status,
		Permissions: target.Permissions,
	}
	if input.Role != nil {
		proposed.Role = *input.Role
	}
	if input.Status != nil {
		proposed.Status = *input.Status
	}
	if input.Permissions != nil {
		proposed.Permissions = input.Permissions
	}

	view := policy.MembershipView{
		UserID:      target.UserID,
		GymID:       target.GymID,
		Role:        target.Role,
		Status:      target.Status,
		Permissions: target.Permissions,
		UserIsAdmin: targetRole == policy.GlobalRoleAdmin,
	}
	if err := s.policy.AuthorizeMembershipUpdate(ctx, p, view, proposed); err != nil {
		return Membership{}, err
	}

	updated, err := s.repo.Update(ctx, membershipID, proposed.Role, proposed.Status, proposed.Permissions)
	if err != nil {
		return Membership{}, err
	}
	s.recordAudit(ctx, p, "membership.update", updated, map[string]any{
		"role":   string(proposed.Role),
		"status": string(proposed.Status),
	})
	return updated, nil
}

// Leave removes the principal's own membership.
func (s *Service) Leave(ctx context.Context, p policy.Principal, membershipID int64) error {
	target, err := s.repo.GetByID(ctx, membershipID)
	if err != nil {
		return err
	}
	if target.UserID != p.UserID {
		return fmt.Errorf("%w: members may only remove their own membership", shared.ErrAccessDenied)
	}
	if err := s.repo.Delete(ctx, membershipID); err != nil {
		return err
	}
	s.recordAudit(ctx, p, "membership.leave", target, nil)
	return nil
}

// ListByGym returns a gym's memberships. Requires standing in that gym.
func (s *Service) ListByGym(ctx context.Context, p policy.Principal, gymID int64) ([]Membership, error) {
	if !p.IsAdmin() && p.GymID != gymID {
		return nil, fmt.Errorf("%w: roster belongs to another gym", shared.ErrAccessDenied)
	}
	return s.repo.ListByGym(ctx, gymID)
}

// Get returns one membership. The owner, gym staff, and admins may read it.
func (s *Service) Get(ctx context.Context, p policy.Principal, membershipID int64) (Membership, error) {
	m, err := s.repo.GetByID(ctx, membershipID)
	if err != nil {
		return Membership{}, err
	}
	if p.IsAdmin() || m.UserID == p.UserID || p.GymID == m.GymID {
		return m, nil
	}
	return Membership{}, fmt.Errorf("%w: membership belongs to another gym", shared.ErrAccessDenied)
}

func (s *Service) recordAudit(ctx context.Context, p policy.Principal, action string, m Membership, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:    p.UserID,
		GymID:      m.GymID,
		Action:     action,
		Resource:   "membership",
		ResourceID: strconv.FormatInt(m.ID, 10),
		Meta:       meta,
	})
}
