package workouts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

// RepositoryPort defines data access for workouts.
type RepositoryPort interface {
	Create(ctx context.Context, w Workout) (Workout, error)
	Get(ctx context.Context, id int64) (Workout, error)
	Update(ctx context.Context, w Workout) (Workout, error)
	Delete(ctx context.Context, id int64) error
	ListVisible(ctx context.Context, p policy.Principal, page shared.Pagination) ([]Workout, error)
}

// DecisionPort is the slice of the policy engine workouts consume.
type DecisionPort interface {
	CanRead(ctx context.Context, kind policy.Kind, id int64, p policy.Principal) (bool, error)
	CanCreate(ctx context.Context, kind policy.Kind, req policy.CreateRequest, p policy.Principal) (bool, error)
	CanModify(ctx context.Context, kind policy.Kind, id int64, p policy.Principal) (bool, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates workout CRUD behind the policy engine.
type Service struct {
	repo  RepositoryPort
	authz DecisionPort
	audit AuditPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, authz DecisionPort, audit AuditPort) *Service {
	return &Service{repo: repo, authz: authz, audit: audit}
}

// CreateInput carries a new workout. A zero GymID makes the workout personal
// to the author; Public opens it to everyone.
type CreateInput struct {
	Title       string
	Description string
	Scheme      Scheme
	Public      bool
	GymID       int64
	MovementIDs []int64
}

// Create persists a workout after the tiered create check. The author is
// always the acting principal; gym-scoped workouts additionally require
// write standing inside that gym.
func (s *Service) Create(ctx context.Context, p policy.Principal, input CreateInput) (Workout, error) {
	req := policy.CreateRequest{GymID: input.GymID}
	if input.GymID == 0 {
		req.AuthorID = p.UserID
	}
	allowed, err := s.authz.CanCreate(ctx, policy.KindWorkout, req, p)
	if err != nil {
		return Workout{}, err
	}
	if !allowed {
		return Workout{}, fmt.Errorf("%w: no standing to program workouts here", shared.ErrAccessDenied)
	}
	created, err := s.repo.Create(ctx, Workout{
		Title:       input.Title,
		Description: input.Description,
		Scheme:      input.Scheme,
		Public:      input.Public,
		GymID:       input.GymID,
		AuthorID:    p.UserID,
		MovementIDs: input.MovementIDs,
	})
	if err != nil {
		return Workout{}, err
	}
	s.recordAudit(ctx, p, "workout.create", created)
	return created, nil
}

// Get returns one workout. A missing workout propagates NotFound from the
// readability check before any denial is considered.
func (s *Service) Get(ctx context.Context, p policy.Principal, id int64) (Workout, error) {
	allowed, err := s.authz.CanRead(ctx, policy.KindWorkout, id, p)
	if err != nil {
		return Workout{}, err
	}
	if !allowed {
		return Workout{}, fmt.Errorf("%w: workout is not visible to you", shared.ErrAccessDenied)
	}
	return s.repo.Get(ctx, id)
}

// UpdateInput carries the mutable workout fields. Nil fields keep current
// values.
type UpdateInput struct {
	Title       *string
	Description *string
	Scheme      *Scheme
	Public      *bool
	MovementIDs []int64 // nil keeps current
}

// Update mutates a workout after the modify check.
func (s *Service) Update(ctx context.Context, p policy.Principal, id int64, input UpdateInput) (Workout, error) {
	allowed, err := s.authz.CanModify(ctx, policy.KindWorkout, id, p)
	if err != nil {
		return Workout{}, err
	}
	if !allowed {
		return Workout{}, fmt.Errorf("%w: workout belongs to someone else", shared.ErrAccessDenied)
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Workout{}, err
	}
	if input.Title != nil {
		current.Title = *input.Title
	}
	if input.Description != nil {
		current.Description = *input.Description
	}
	if input.Scheme != nil {
		current.Scheme = *input.Scheme
	}
	if input.Public != nil {
		current.Public = *input.Public
	}
	if input.MovementIDs != nil {
		current.MovementIDs = input.MovementIDs
	}
	updated, err := s.repo.Update(ctx, current)
	if err != nil {
		return Workout{}, err
	}
	s.recordAudit(ctx, p, "workout.update", updated)
	return updated, nil
}

// Delete removes a workout after the modify check.
func (s *Service) Delete(ctx context.Context, p policy.Principal, id int64) error {
	allowed, err := s.authz.CanModify(ctx, policy.KindWorkout, id, p)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: workout belongs to someone else", shared.ErrAccessDenied)
	}
	workout, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, p, "workout.delete", workout)
	return nil
}

// List returns the workouts readable by the principal.
func (s *Service) List(ctx context.Context, p policy.Principal, page shared.Pagination) ([]Workout, error) {
	return s.repo.ListVisible(ctx, p, page)
}

func (s *Service) recordAudit(ctx context.Context, p policy.Principal, action string, w Workout) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:    p.UserID,
		GymID:      w.GymID,
		Action:     action,
		Resource:   "workout",
		ResourceID: strconv.FormatInt(w.ID, 10),
	})
}
