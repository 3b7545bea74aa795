package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

type memoryCatalog struct {
	nextID    int64
	movements map[int64]Movement
	muscles   map[int64]Muscle
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{nextID: 1, movements: map[int64]Movement{}, muscles: map[int64]Muscle{}}
}

func (m *memoryCatalog) CreateMovement(_ context.Context, mv Movement) (Movement, error) {
	for _, existing := range m.movements {
		if existing.Name == mv.Name {
			return Movement{}, shared.ErrDuplicate
		}
	}
	mv.ID = m.nextID
	m.nextID++
	m.movements[mv.ID] = mv
	return mv, nil
}

func (m *memoryCatalog) GetMovement(_ context.Context, id int64) (Movement, error) {
	mv, ok := m.movements[id]
	if !ok {
		return Movement{}, shared.ErrNotFound
	}
	return mv, nil
}

func (m *memoryCatalog) ListMovements(_ context.Context) ([]Movement, error) {
	out := make([]Movement, 0, len(m.movements))
	for _, mv := range m.movements {
		out = append(out, mv)
	}
	return out, nil
}

func (m *memoryCatalog) DeleteMovement(_ context.Context, id int64) error {
	if _, ok := m.movements[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.movements, id)
	return nil
}

func (m *memoryCatalog) CreateMuscle(_ context.Context, mu Muscle) (Muscle, error) {
	mu.ID = m.nextID
	m.nextID++
	m.muscles[mu.ID] = mu
	return mu, nil
}

func (m *memoryCatalog) ListMuscles(_ context.Context) ([]Muscle, error) {
	out := make([]Muscle, 0, len(m.muscles))
	for _, mu := range m.muscles {
		out = append(out, mu)
	}
	return out, nil
}

func adminPrincipal() policy.Principal {
	return policy.Principal{UserID: 1, GlobalRole: policy.GlobalRoleAdmin}
}

func memberPrincipal() policy.Principal {
	return policy.Principal{UserID: 2, GlobalRole: policy.GlobalRoleRegular}
}

func TestCreateMovementRequiresAdmin(t *testing.T) {
	svc := NewService(newMemoryCatalog())

	_, err := svc.CreateMovement(context.Background(), memberPrincipal(), Movement{Name: "back squat", Modality: ModalityWeightlifting})
	require.ErrorIs(t, err, shared.ErrAccessDenied)

	mv, err := svc.CreateMovement(context.Background(), adminPrincipal(), Movement{Name: "back squat", Modality: ModalityWeightlifting})
	require.NoError(t, err)
	require.NotZero(t, mv.ID)
}

func TestCreateMovementCanonicalizesName(t *testing.T) {
	repo := newMemoryCatalog()
	svc := NewService(repo)

	mv, err := svc.CreateMovement(context.Background(), adminPrincipal(), Movement{Name: "  back   SQUAT ", Modality: ModalityWeightlifting})
	require.NoError(t, err)
	require.Equal(t, "Back Squat", mv.Name)

	_, err = svc.CreateMovement(context.Background(), adminPrincipal(), Movement{Name: "BACK squat", Modality: ModalityWeightlifting})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateMovementRejectsUnknownModality(t *testing.T) {
	svc := NewService(newMemoryCatalog())

	_, err := svc.CreateMovement(context.Background(), adminPrincipal(), Movement{Name: "rowing", Modality: Modality("cardio")})
	require.Error(t, err)
	require.False(t, errors.Is(err, shared.ErrAccessDenied))
}

func TestDeleteMovementRequiresAdmin(t *testing.T) {
	repo := newMemoryCatalog()
	svc := NewService(repo)

	mv, err := svc.CreateMovement(context.Background(), adminPrincipal(), Movement{Name: "deadlift", Modality: ModalityWeightlifting})
	require.NoError(t, err)

	err = svc.DeleteMovement(context.Background(), memberPrincipal(), mv.ID)
	require.ErrorIs(t, err, shared.ErrAccessDenied)

	require.NoError(t, svc.DeleteMovement(context.Background(), adminPrincipal(), mv.ID))
	_, err = svc.GetMovement(context.Background(), mv.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateMuscleNormalizesBodyPart(t *testing.T) {
	svc := NewService(newMemoryCatalog())

	mu, err := svc.CreateMuscle(context.Background(), adminPrincipal(), Muscle{Name: "gluteus maximus", BodyPart: " Legs "})
	require.NoError(t, err)
	require.Equal(t, "Gluteus Maximus", mu.Name)
	require.Equal(t, "legs", mu.BodyPart)
}

func TestReadsAreOpen(t *testing.T) {
	repo := newMemoryCatalog()
	svc := NewService(repo)

	_, err := svc.CreateMovement(context.Background(), adminPrincipal(), Movement{Name: "pull up", Modality: ModalityGymnastics})
	require.NoError(t, err)

	list, err := svc.ListMovements(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
}
