package users

import (
	"context"
	"fmt"
	"strconv"

	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

// RepositoryPort defines data access methods for accounts.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetGlobalRole(ctx context.Context, id int64, role policy.GlobalRole) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles account management. Every operation here is platform
// scoped, so the only standing that counts is the global admin role.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// ListUsers returns all accounts. Admin only.
func (s *Service) ListUsers(ctx context.Context, p policy.Principal) ([]User, error) {
	if !p.IsAdmin() {
		return nil, fmt.Errorf("%w: account listing requires platform admin", shared.ErrAccessDenied)
	}
	return s.repo.ListUsers(ctx)
}

// GetUser returns one account. Users may read their own; admins any.
func (s *Service) GetUser(ctx context.Context, p policy.Principal, id int64) (User, error) {
	if !p.IsAdmin() && p.UserID != id {
		return User{}, fmt.Errorf("%w: cannot read another user's account", shared.ErrAccessDenied)
	}
	return s.repo.GetUser(ctx, id)
}

// SetActive activates or deactivates an account. Admin only.
func (s *Service) SetActive(ctx context.Context, p policy.Principal, id int64, active bool) error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: account activation requires platform admin", shared.ErrAccessDenied)
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.recordAudit(ctx, p, "user.set_active", id, map[string]any{"active": active})
	return nil
}

// SetGlobalRole promotes or demotes an account's platform role. Admin only.
func (s *Service) SetGlobalRole(ctx context.Context, p policy.Principal, id int64, role policy.GlobalRole) error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: role change requires platform admin", shared.ErrAccessDenied)
	}
	if role != policy.GlobalRoleRegular && role != policy.GlobalRoleAdmin {
		return fmt.Errorf("users: unknown global role %q", role)
	}
	if err := s.repo.SetGlobalRole(ctx, id, role); err != nil {
		return err
	}
	s.recordAudit(ctx, p, "user.set_global_role", id, map[string]any{"role": string(role)})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, p policy.Principal, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:    p.UserID,
		Action:     action,
		Resource:   "user",
		ResourceID: strconv.FormatInt(userID, 10),
		Meta:       meta,
	})
}
