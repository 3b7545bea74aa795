package catalog

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

// RepositoryPort defines data access for the catalog.
type RepositoryPort interface {
	CreateMovement(ctx context.Context, m Movement) (Movement, error)
	GetMovement(ctx context.Context, id int64) (Movement, error)
	ListMovements(ctx context.Context) ([]Movement, error)
	DeleteMovement(ctx context.Context, id int64) error
	CreateMuscle(ctx context.Context, m Muscle) (Muscle, error)
	ListMuscles(ctx context.Context) ([]Muscle, error)
}

// Service manages the shared movement and muscle reference catalog.
// Reads are public; writes are reserved for platform admins because the
// catalog is a cross-tenant shared resource.
type Service struct {
	repo  RepositoryPort
	caser cases.Caser
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, caser: cases.Title(language.English)}
}

// CreateMovement adds a movement to the catalog. Admin only.
func (s *Service) CreateMovement(ctx context.Context, p policy.Principal, m Movement) (Movement, error) {
	if !p.IsAdmin() {
		return Movement{}, fmt.Errorf("%w: catalog writes require platform admin", shared.ErrAccessDenied)
	}
	m.Name = s.CanonicalName(m.Name)
	if m.Name == "" {
		return Movement{}, fmt.Errorf("catalog: movement name required")
	}
	switch m.Modality {
	case ModalityGymnastics, ModalityWeightlifting, ModalityMonostructural:
	default:
		return Movement{}, fmt.Errorf("catalog: unknown modality %q", m.Modality)
	}
	return s.repo.CreateMovement(ctx, m)
}

// GetMovement returns one movement. Public.
func (s *Service) GetMovement(ctx context.Context, id int64) (Movement, error) {
	return s.repo.GetMovement(ctx, id)
}

// ListMovements returns the whole catalog. Public.
func (s *Service) ListMovements(ctx context.Context) ([]Movement, error) {
	return s.repo.ListMovements(ctx)
}

// DeleteMovement removes a movement. Admin only.
func (s *Service) DeleteMovement(ctx context.Context, p policy.Principal, id int64) error {
	if !p.IsAdmin() {
		return fmt.Errorf("%w: catalog writes require platform admin", shared.ErrAccessDenied)
	}
	return s.repo.DeleteMovement(ctx, id)
}

// CreateMuscle adds a muscle reference entry. Admin only.
func (s *Service) CreateMuscle(ctx context.Context, p policy.Principal, m Muscle) (Muscle, error) {
	if !p.IsAdmin() {
		return Muscle{}, fmt.Errorf("%w: catalog writes require platform admin", shared.ErrAccessDenied)
	}
	m.Name = s.CanonicalName(m.Name)
	if m.Name == "" {
		return Muscle{}, fmt.Errorf("catalog: muscle name required")
	}
	m.BodyPart = strings.ToLower(strings.TrimSpace(m.BodyPart))
	return s.repo.CreateMuscle(ctx, m)
}

// ListMuscles returns all muscle entries. Public.
func (s *Service) ListMuscles(ctx context.Context) ([]Muscle, error) {
	return s.repo.ListMuscles(ctx)
}

// CanonicalName normalizes catalog names so "back squat", "Back  Squat",
// and "BACK SQUAT" all converge on one entry.
func (s *Service) CanonicalName(name string) string {
	return s.caser.String(strings.Join(strings.Fields(name), " "))
}
