package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/antares-fit/antares/internal/auth"
	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
	_ "github.com/antares-fit/antares/testing"
)

type stubRepo struct {
	account *auth.Account
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	if s.account == nil || s.account.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.account, nil
}

func (s *stubRepo) GetAccount(ctx context.Context, id int64) (*auth.Account, error) {
	if s.account == nil || s.account.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.account, nil
}

func (s *stubRepo) CreateAccount(ctx context.Context, email, name, passwordHash string) (*auth.Account, error) {
	if s.account != nil && s.account.Email == email {
		return nil, shared.ErrDuplicate
	}
	s.account = &auth.Account{ID: 1, Email: email, Name: name, PasswordHash: passwordHash, GlobalRole: policy.GlobalRoleRegular, IsActive: true}
	return s.account, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

type stubGymSource struct {
	contexts map[int64]auth.GymContext
}

func (s *stubGymSource) ActiveGymContext(ctx context.Context, userID, gymID int64) (auth.GymContext, bool, error) {
	gc, ok := s.contexts[gymID]
	return gc, ok, nil
}

func (s *stubGymSource) DefaultGymContext(ctx context.Context, userID int64) (auth.GymContext, bool, error) {
	var lowest int64
	for id := range s.contexts {
		if lowest == 0 || id < lowest {
			lowest = id
		}
	}
	if lowest == 0 {
		return auth.GymContext{}, false, nil
	}
	return s.contexts[lowest], true, nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(hash)
}

func activeAccount(t *testing.T) *auth.Account {
	t.Helper()
	return &auth.Account{
		ID:           7,
		Email:        "coach@box.test",
		Name:         "Coach",
		PasswordHash: hashPassword(t, "correct-horse"),
		GlobalRole:   policy.GlobalRoleRegular,
		IsActive:     true,
	}
}

func TestAuthenticate(t *testing.T) {
	svc := auth.NewService(&stubRepo{account: activeAccount(t)}, nil)

	account, err := svc.Authenticate(context.Background(), "  Coach@Box.Test ", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, int64(7), account.ID)
}

func TestAuthenticateFailsUniformly(t *testing.T) {
	inactive := activeAccount(t)
	inactive.IsActive = false

	cases := []struct {
		name     string
		repo     *stubRepo
		email    string
		password string
	}{
		{"wrong password", &stubRepo{account: activeAccount(t)}, "coach@box.test", "nope"},
		{"unknown account", &stubRepo{}, "ghost@box.test", "correct-horse"},
		{"inactive account", &stubRepo{account: inactive}, "coach@box.test", "correct-horse"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := auth.NewService(tc.repo, nil)
			_, err := svc.Authenticate(context.Background(), tc.email, tc.password)
			require.ErrorIs(t, err, shared.ErrInvalidCredentials)
		})
	}
}

func TestResolvePrincipalWithGymStanding(t *testing.T) {
	gyms := &stubGymSource{contexts: map[int64]auth.GymContext{
		100: {GymID: 100, Role: policy.GymRoleCoach, Permissions: policy.NewPermissionSet(policy.PermWodWrite)},
	}}
	svc := auth.NewService(&stubRepo{account: activeAccount(t)}, gyms)

	p, err := svc.ResolvePrincipal(context.Background(), 7, 100)
	require.NoError(t, err)
	require.Equal(t, int64(100), p.GymID)
	require.Equal(t, policy.GymRoleCoach, p.GymRole)
	require.True(t, p.Permissions.Has(policy.PermWodWrite))
}

func TestResolvePrincipalWithoutMembership(t *testing.T) {
	gyms := &stubGymSource{contexts: map[int64]auth.GymContext{
		100: {GymID: 100, Role: policy.GymRoleCoach},
	}}
	svc := auth.NewService(&stubRepo{account: activeAccount(t)}, gyms)

	p, err := svc.ResolvePrincipal(context.Background(), 7, 999)
	require.NoError(t, err)
	require.Zero(t, p.GymID)
	require.Empty(t, p.GymRole)
	require.False(t, p.Permissions.Has(policy.PermWodWrite))
}

func TestResolvePrincipalDefaultsToEarliestMembership(t *testing.T) {
	gyms := &stubGymSource{contexts: map[int64]auth.GymContext{
		100: {GymID: 100, Role: policy.GymRoleAthlete},
		200: {GymID: 200, Role: policy.GymRoleOwner},
	}}
	svc := auth.NewService(&stubRepo{account: activeAccount(t)}, gyms)

	p, err := svc.ResolvePrincipal(context.Background(), 7, 0)
	require.NoError(t, err)
	require.Equal(t, int64(100), p.GymID)
	require.Equal(t, policy.GymRoleAthlete, p.GymRole)
}

func TestResolvePrincipalInactiveAccount(t *testing.T) {
	inactive := activeAccount(t)
	inactive.IsActive = false
	svc := auth.NewService(&stubRepo{account: inactive}, nil)

	_, err := svc.ResolvePrincipal(context.Background(), 7, 0)
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
