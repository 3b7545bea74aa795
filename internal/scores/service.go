package scores

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

// RepositoryPort defines data access for scores.
type RepositoryPort interface {
	Create(ctx context.Context, s Score) (Score, error)
	Get(ctx context.Context, id int64) (Score, error)
	Update(ctx context.Context, id int64, value float64, notes string) (Score, error)
	Delete(ctx context.Context, id int64) error
	SetVerified(ctx context.Context, id int64, verified bool) (Score, error)
	ListByWorkout(ctx context.Context, workoutID int64, page shared.Pagination) ([]Score, error)
	ListByAuthor(ctx context.Context, authorID int64, page shared.Pagination) ([]Score, error)
	RecomputeRecords(ctx context.Context, userID, workoutID int64) error
}

// DecisionPort is the slice of the policy engine scores consume.
type DecisionPort interface {
	CanRead(ctx context.Context, kind policy.Kind, id int64, p policy.Principal) (bool, error)
	CanCreate(ctx context.Context, kind policy.Kind, req policy.CreateRequest, p policy.Principal) (bool, error)
	CanModify(ctx context.Context, kind policy.Kind, id int64, p policy.Principal) (bool, error)
}

// WorkoutSource exposes the ownership projection of the workout a score is
// submitted against, so the score can inherit its visibility.
type WorkoutSource interface {
	VisibilityContext(ctx context.Context, id int64) (policy.VisibilityContext, error)
}

// IdempotencyPort guards retried submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, scope string) error
}

// RecomputeEnqueuer schedules an asynchronous personal-record recompute for a
// (user, workout) pair.
type RecomputeEnqueuer interface {
	EnqueueRecordRecompute(ctx context.Context, userID, workoutID int64) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates score submission, verification, and record keeping.
type Service struct {
	repo        RepositoryPort
	authz       DecisionPort
	workouts    WorkoutSource
	idempotency IdempotencyPort
	recompute   RecomputeEnqueuer
	audit       AuditPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, authz DecisionPort, workouts WorkoutSource, idempotency IdempotencyPort, recompute RecomputeEnqueuer, audit AuditPort) *Service {
	return &Service{repo: repo, authz: authz, workouts: workouts, idempotency: idempotency, recompute: recompute, audit: audit}
}

// SubmitInput carries a new score submission.
type SubmitInput struct {
	WorkoutID      int64
	Value          float64
	Notes          string
	PerformedAt    time.Time
	IdempotencyKey string
}

// Submit records a score against a workout. The workout must be readable by
// the submitter; the score itself is always authored by the acting principal
// and inherits the workout's gym and public flags. A duplicate idempotency
// key is rejected before any row is written.
func (s *Service) Submit(ctx context.Context, p policy.Principal, input SubmitInput) (Score, error) {
	readable, err := s.authz.CanRead(ctx, policy.KindWorkout, input.WorkoutID, p)
	if err != nil {
		return Score{}, err
	}
	if !readable {
		return Score{}, fmt.Errorf("%w: workout is not visible to you", shared.ErrAccessDenied)
	}
	allowed, err := s.authz.CanCreate(ctx, policy.KindScore, policy.CreateRequest{AuthorID: p.UserID}, p)
	if err != nil {
		return Score{}, err
	}
	if !allowed {
		return Score{}, fmt.Errorf("%w: scores may only be submitted for yourself", shared.ErrAccessDenied)
	}

	workout, err := s.workouts.VisibilityContext(ctx, input.WorkoutID)
	if err != nil {
		return Score{}, err
	}

	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "scores.submit"); err != nil {
			return Score{}, err
		}
	}

	performedAt := input.PerformedAt
	if performedAt.IsZero() {
		performedAt = time.Now()
	}
	created, err := s.repo.Create(ctx, Score{
		WorkoutID:   input.WorkoutID,
		AuthorID:    p.UserID,
		GymID:       workout.GymID,
		Public:      workout.Public,
		Value:       input.Value,
		Notes:       input.Notes,
		PerformedAt: performedAt,
	})
	if err != nil {
		return Score{}, err
	}
	s.enqueueRecompute(ctx, created)
	s.recordAudit(ctx, p, "score.submit", created, nil)
	return created, nil
}

// Get returns one score behind the readability check.
func (s *Service) Get(ctx context.Context, p policy.Principal, id int64) (Score, error) {
	allowed, err := s.authz.CanRead(ctx, policy.KindScore, id, p)
	if err != nil {
		return Score{}, err
	}
	if !allowed {
		return Score{}, fmt.Errorf("%w: score is not visible to you", shared.ErrAccessDenied)
	}
	return s.repo.Get(ctx, id)
}

// Update corrects a score's value or notes. Updating clears verification and
// triggers a record recompute.
func (s *Service) Update(ctx context.Context, p policy.Principal, id int64, value float64, notes string) (Score, error) {
	allowed, err := s.authz.CanModify(ctx, policy.KindScore, id, p)
	if err != nil {
		return Score{}, err
	}
	if !allowed {
		return Score{}, fmt.Errorf("%w: score belongs to someone else", shared.ErrAccessDenied)
	}
	updated, err := s.repo.Update(ctx, id, value, notes)
	if err != nil {
		return Score{}, err
	}
	s.enqueueRecompute(ctx, updated)
	s.recordAudit(ctx, p, "score.update", updated, nil)
	return updated, nil
}

// Delete removes a score and schedules a recompute so a deleted record
// passes its flag to the runner-up.
func (s *Service) Delete(ctx context.Context, p policy.Principal, id int64) error {
	allowed, err := s.authz.CanModify(ctx, policy.KindScore, id, p)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: score belongs to someone else", shared.ErrAccessDenied)
	}
	score, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.enqueueRecompute(ctx, score)
	s.recordAudit(ctx, p, "score.delete", score, nil)
	return nil
}

// Verify flips a score's verification flag. Verification is a staff action:
// it requires tenant-admin standing over the score's gym or a coach holding
// the verify permission there. Personal scores outside any gym can only be
// verified by a platform admin.
func (s *Service) Verify(ctx context.Context, p policy.Principal, id int64, verified bool) (Score, error) {
	score, err := s.repo.Get(ctx, id)
	if err != nil {
		return Score{}, err
	}
	if !s.canVerify(p, score) {
		return Score{}, fmt.Errorf("%w: no verification standing for this score", shared.ErrAccessDenied)
	}
	updated, err := s.repo.SetVerified(ctx, id, verified)
	if err != nil {
		return Score{}, err
	}
	s.recordAudit(ctx, p, "score.verify", updated, map[string]any{"verified": verified})
	return updated, nil
}

func (s *Service) canVerify(p policy.Principal, score Score) bool {
	if p.IsAdmin() {
		return true
	}
	if score.GymID == 0 {
		return false
	}
	if p.IsTenantAdmin(score.GymID) {
		return true
	}
	return p.IsCoach(score.GymID) && p.Permissions.Has(policy.PermScoreVerify)
}

// ListByWorkout returns a workout's scores. The workout itself must be
// readable; individual rows are then shown as the leaderboard.
func (s *Service) ListByWorkout(ctx context.Context, p policy.Principal, workoutID int64, page shared.Pagination) ([]Score, error) {
	allowed, err := s.authz.CanRead(ctx, policy.KindWorkout, workoutID, p)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: workout is not visible to you", shared.ErrAccessDenied)
	}
	return s.listLeaderboard(ctx, workoutID, page)
}

// ListOwn returns the principal's own scores.
func (s *Service) ListOwn(ctx context.Context, p policy.Principal, page shared.Pagination) ([]Score, error) {
	return s.repo.ListByAuthor(ctx, p.UserID, page)
}

// RecomputeRecords re-elects the single record for a (user, workout) pair.
// The worker calls this from the recompute task.
func (s *Service) RecomputeRecords(ctx context.Context, userID, workoutID int64) error {
	err := s.repo.RecomputeRecords(ctx, userID, workoutID)
	if errors.Is(err, shared.ErrNotFound) {
		// The workout was deleted while the task sat in the queue.
		return nil
	}
	return err
}

func (s *Service) enqueueRecompute(ctx context.Context, score Score) {
	if s.recompute == nil {
		return
	}
	_ = s.recompute.EnqueueRecordRecompute(ctx, score.AuthorID, score.WorkoutID)
}

func (s *Service) recordAudit(ctx context.Context, p policy.Principal, action string, score Score, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:    p.UserID,
		GymID:      score.GymID,
		Action:     action,
		Resource:   "score",
		ResourceID: strconv.FormatInt(score.ID, 10),
		Meta:       meta,
	})
}
