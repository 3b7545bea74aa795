package gyms

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

// RepositoryPort defines data access methods for gyms.
type RepositoryPort interface {
	CreateWithOwner(ctx context.Context, gym Gym, ownerID int64) (Gym, error)
	GetGym(ctx context.Context, id int64) (Gym, error)
	ListGyms(ctx context.Context) ([]Gym, error)
	UpdateSettings(ctx context.Context, id int64, settings Settings) error
	DeleteGym(ctx context.Context, id int64) error
}

// SettingsPolicy decides whether a principal may manage a gym's settings.
type SettingsPolicy interface {
	CanManageGym(ctx context.Context, gymID int64, p policy.Principal) (bool, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates gym operations.
type Service struct {
	repo   RepositoryPort
	policy SettingsPolicy
	audit  AuditPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, settingsPolicy SettingsPolicy, audit AuditPort) *Service {
	return &Service{repo: repo, policy: settingsPolicy, audit: audit}
}

// Create opens a new gym. The creator becomes its owner with an active
// membership in the same transaction.
func (s *Service) Create(ctx context.Context, p policy.Principal, name, description string) (Gym, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Gym{}, fmt.Errorf("gyms: name required")
	}
	gym := Gym{Name: name, Description: strings.TrimSpace(description), Settings: DefaultSettings()}
	created, err := s.repo.CreateWithOwner(ctx, gym, p.UserID)
	if err != nil {
		return Gym{}, err
	}
	s.recordAudit(ctx, p, "gym.create", created.ID, nil)
	return created, nil
}

// Get returns one gym. Gym records themselves are public.
func (s *Service) Get(ctx context.Context, id int64) (Gym, error) {
	return s.repo.GetGym(ctx, id)
}

// List returns all gyms.
func (s *Service) List(ctx context.Context) ([]Gym, error) {
	return s.repo.ListGyms(ctx)
}

// UpdateSettings applies new settings after a policy check. The gym is
// fetched first so a missing gym surfaces as NotFound rather than a denial.
func (s *Service) UpdateSettings(ctx context.Context, p policy.Principal, gymID int64, settings Settings) error {
	allowed, err := s.policy.CanManageGym(ctx, gymID, p)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: gym settings require owner, programmer, or delegated coach", shared.ErrAccessDenied)
	}
	if settings.Timezone == "" {
		settings.Timezone = "UTC"
	}
	if err := s.repo.UpdateSettings(ctx, gymID, settings); err != nil {
		return err
	}
	s.recordAudit(ctx, p, "gym.update_settings", gymID, map[string]any{"timezone": settings.Timezone})
	return nil
}

// Delete removes a gym entirely. Platform admin only.
func (s *Service) Delete(ctx context.Context, p policy.Principal, gymID int64) error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: gym deletion requires platform admin", shared.ErrAccessDenied)
	}
	if err := s.repo.DeleteGym(ctx, gymID); err != nil {
		return err
	}
	s.recordAudit(ctx, p, "gym.delete", gymID, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, p policy.Principal, action string, gymID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:    p.UserID,
		GymID:      gymID,
		Action:     action,
		Resource:   "gym",
		ResourceID: strconv.FormatInt(gymID, 10),
		Meta:       meta,
	})
}
