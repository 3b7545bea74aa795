package scores

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

type fakeWorkout struct {
	gymID  int64
	public bool
	scheme string
}

type memoryStore struct {
	nextID   int64
	scores   map[int64]Score
	workouts map[int64]fakeWorkout
}

func newMemoryStore() *memoryStore {
	return &memoryStore{nextID: 1, scores: map[int64]Score{}, workouts: map[int64]fakeWorkout{}}
}

func (m *memoryStore) Create(_ context.Context, s Score) (Score, error) {
	s.ID = m.nextID
	m.nextID++
	m.scores[s.ID] = s
	return s, nil
}

func (m *memoryStore) Get(_ context.Context, id int64) (Score, error) {
	s, ok := m.scores[id]
	if !ok {
		return Score{}, shared.ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) Update(_ context.Context, id int64, value float64, notes string) (Score, error) {
	s, ok := m.scores[id]
	if !ok {
		return Score{}, shared.ErrNotFound
	}
	s.Value = value
	s.Notes = notes
	s.Verified = false
	m.scores[id] = s
	return s, nil
}

func (m *memoryStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.scores[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.scores, id)
	return nil
}

func (m *memoryStore) SetVerified(_ context.Context, id int64, verified bool) (Score, error) {
	s, ok := m.scores[id]
	if !ok {
		return Score{}, shared.ErrNotFound
	}
	s.Verified = verified
	m.scores[id] = s
	return s, nil
}

func (m *memoryStore) ListByWorkout(_ context.Context, workoutID int64, _ shared.Pagination) ([]Score, error) {
	var out []Score
	for _, s := range m.scores {
		if s.WorkoutID == workoutID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryStore) ListByAuthor(_ context.Context, authorID int64, _ shared.Pagination) ([]Score, error) {
	var out []Score
	for _, s := range m.scores {
		if s.AuthorID == authorID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memoryStore) RecomputeRecords(_ context.Context, userID, workoutID int64) error {
	w, ok := m.workouts[workoutID]
	if !ok {
		return shared.ErrNotFound
	}
	var candidates []Score
	for id, s := range m.scores {
		if s.AuthorID == userID && s.WorkoutID == workoutID {
			s.IsRecord = false
			m.scores[id] = s
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if w.scheme == "for_time" {
			return candidates[i].Value < candidates[j].Value
		}
		return candidates[i].Value > candidates[j].Value
	})
	winner := m.scores[candidates[0].ID]
	winner.IsRecord = true
	m.scores[winner.ID] = winner
	return nil
}

// VisibilityContext for scores, used through the engine.
func (m *memoryStore) VisibilityContext(_ context.Context, id int64) (policy.VisibilityContext, error) {
	s, ok := m.scores[id]
	if !ok {
		return policy.VisibilityContext{}, shared.ErrNotFound
	}
	return policy.VisibilityContext{GymID: s.GymID, AuthorID: s.AuthorID, Public: s.Public}, nil
}

type workoutSourceFake struct {
	store *memoryStore
}

func (f workoutSourceFake) VisibilityContext(_ context.Context, id int64) (policy.VisibilityContext, error) {
	w, ok := f.store.workouts[id]
	if !ok {
		return policy.VisibilityContext{}, shared.ErrNotFound
	}
	return policy.VisibilityContext{GymID: w.gymID, Public: w.public, AuthorID: 1}, nil
}

type idempotencyFake struct {
	seen map[string]bool
}

func (f *idempotencyFake) CheckAndInsert(_ context.Context, key, scope string) error {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	full := scope + ":" + key
	if f.seen[full] {
		return shared.ErrIdempotencyConflict
	}
	f.seen[full] = true
	return nil
}

type recomputeRecorder struct {
	svc   *Service
	calls int
}

func (r *recomputeRecorder) EnqueueRecordRecompute(ctx context.Context, userID, workoutID int64) error {
	r.calls++
	// Tests run the task inline instead of through a queue.
	return r.svc.RecomputeRecords(ctx, userID, workoutID)
}

func newFixture() (*Service, *memoryStore, *recomputeRecorder) {
	store := newMemoryStore()
	engine := policy.NewEngine(nil)
	engine.RegisterKind(policy.KindScore, store, policy.PermScoreWrite)
	engine.RegisterKind(policy.KindWorkout, workoutSourceFake{store: store}, policy.PermWodWrite)
	recorder := &recomputeRecorder{}
	svc := NewService(store, engine, workoutSourceFake{store: store}, &idempotencyFake{}, recorder, nil)
	recorder.svc = svc
	return svc, store, recorder
}

func athlete(userID, gymID int64) policy.Principal {
	return policy.Principal{UserID: userID, GymID: gymID, GymRole: policy.GymRoleAthlete}
}

func coach(userID, gymID int64, perms ...policy.Permission) policy.Principal {
	return policy.Principal{
		UserID:      userID,
		GymID:       gymID,
		GymRole:     policy.GymRoleCoach,
		Permissions: policy.NewPermissionSet(perms...),
	}
}

func TestSubmitInheritsWorkoutVisibility(t *testing.T) {
	svc, store, _ := newFixture()
	store.workouts[10] = fakeWorkout{gymID: 100, public: false, scheme: "for_time"}

	score, err := svc.Submit(context.Background(), athlete(7, 100), SubmitInput{WorkoutID: 10, Value: 300})
	require.NoError(t, err)
	require.Equal(t, int64(7), score.AuthorID)
	require.Equal(t, int64(100), score.GymID)
	require.False(t, score.Public)
}

func TestSubmitRequiresReadableWorkout(t *testing.T) {
	svc, store, _ := newFixture()
	store.workouts[10] = fakeWorkout{gymID: 100, scheme: "for_time"}

	_, err := svc.Submit(context.Background(), athlete(7, 200), SubmitInput{WorkoutID: 10, Value: 300})
	require.ErrorIs(t, err, shared.ErrAccessDenied)

	_, err = svc.Submit(context.Background(), athlete(7, 100), SubmitInput{WorkoutID: 404, Value: 300})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSubmitDuplicateIdempotencyKeyRejected(t *testing.T) {
	svc, store, _ := newFixture()
	store.workouts[10] = fakeWorkout{gymID: 100, scheme: "for_time"}

	input := SubmitInput{WorkoutID: 10, Value: 300, IdempotencyKey: "req-1"}
	_, err := svc.Submit(context.Background(), athlete(7, 100), input)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), athlete(7, 100), input)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
}

func TestRecomputeElectsSingleWinner(t *testing.T) {
	svc, store, recorder := newFixture()
	store.workouts[10] = fakeWorkout{gymID: 100, scheme: "for_time"}

	p := athlete(7, 100)
	first, err := svc.Submit(context.Background(), p, SubmitInput{WorkoutID: 10, Value: 310})
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), p, SubmitInput{WorkoutID: 10, Value: 295})
	require.NoError(t, err)
	require.Equal(t, 2, recorder.calls)

	require.False(t, store.scores[first.ID].IsRecord)
	require.True(t, store.scores[second.ID].IsRecord)

	var records int
	for _, s := range store.scores {
		if s.IsRecord {
			records++
		}
	}
	require.Equal(t, 1, records)
}

func TestDeleteRecordPromotesRunnerUp(t *testing.T) {
	svc, store, _ := newFixture()
	store.workouts[10] = fakeWorkout{gymID: 100, scheme: "max_load"}

	p := athlete(7, 100)
	slower, err := svc.Submit(context.Background(), p, SubmitInput{WorkoutID: 10, Value: 100})
	require.NoError(t, err)
	best, err := svc.Submit(context.Background(), p, SubmitInput{WorkoutID: 10, Value: 120})
	require.NoError(t, err)
	require.True(t, store.scores[best.ID].IsRecord)

	require.NoError(t, svc.Delete(context.Background(), p, best.ID))
	require.True(t, store.scores[slower.ID].IsRecord)
}

func TestUpdateClearsVerificationAndRecomputes(t *testing.T) {
	svc, store, _ := newFixture()
	store.workouts[10] = fakeWorkout{gymID: 100, scheme: "amrap"}

	p := athlete(7, 100)
	score, err := svc.Submit(context.Background(), p, SubmitInput{WorkoutID: 10, Value: 15})
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), coach(3, 100, policy.PermScoreVerify), score.ID, true)
	require.NoError(t, err)
	require.True(t, store.scores[score.ID].Verified)

	updated, err := svc.Update(context.Background(), p, score.ID, 18, "recount")
	require.NoError(t, err)
	require.False(t, updated.Verified)
	require.True(t, store.scores[score.ID].IsRecord)
}

func TestVerifyRequiresStanding(t *testing.T) {
	svc, store, _ := newFixture()
	store.workouts[10] = fakeWorkout{gymID: 100, scheme: "for_time"}

	p := athlete(7, 100)
	score, err := svc.Submit(context.Background(), p, SubmitInput{WorkoutID: 10, Value: 300})
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), p, score.ID, true)
	require.ErrorIs(t, err, shared.ErrAccessDenied)

	_, err = svc.Verify(context.Background(), coach(3, 100), score.ID, true)
	require.ErrorIs(t, err, shared.ErrAccessDenied)

	_, err = svc.Verify(context.Background(), coach(3, 200, policy.PermScoreVerify), score.ID, true)
	require.ErrorIs(t, err, shared.ErrAccessDenied)

	_, err = svc.Verify(context.Background(), coach(3, 100, policy.PermScoreVerify), score.ID, true)
	require.NoError(t, err)
}

func TestScoreVisibilityFollowsGym(t *testing.T) {
	svc, store, _ := newFixture()
	store.workouts[10] = fakeWorkout{gymID: 100, scheme: "for_time"}

	score, err := svc.Submit(context.Background(), athlete(7, 100), SubmitInput{WorkoutID: 10, Value: 300, PerformedAt: time.Now()})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), athlete(9, 100), score.ID)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), athlete(9, 200), score.ID)
	require.ErrorIs(t, err, shared.ErrAccessDenied)
}
