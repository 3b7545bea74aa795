package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

type memoryRepo struct {
	users map[int64]User
}

func newMemoryRepo(users ...User) *memoryRepo {
	r := &memoryRepo{users: make(map[int64]User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memoryRepo) ListUsers(_ context.Context) ([]User, error) {
	var list []User
	for _, u := range r.users {
		list = append(list, u)
	}
	return list, nil
}

func (r *memoryRepo) GetUser(_ context.Context, id int64) (User, error) {
	u, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryRepo) SetActive(_ context.Context, id int64, active bool) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	r.users[id] = u
	return nil
}

func (r *memoryRepo) SetGlobalRole(_ context.Context, id int64, role policy.GlobalRole) error {
	u, ok := r.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.GlobalRole = role
	r.users[id] = u
	return nil
}

var (
	adminP   = policy.Principal{UserID: 1, GlobalRole: policy.GlobalRoleAdmin}
	regularP = policy.Principal{UserID: 7, GlobalRole: policy.GlobalRoleRegular}
)

func TestListUsersAdminOnly(t *testing.T) {
	svc := NewService(newMemoryRepo(User{ID: 7}, User{ID: 8}), nil)
	ctx := context.Background()

	_, err := svc.ListUsers(ctx, regularP)
	require.ErrorIs(t, err, shared.ErrAccessDenied)

	list, err := svc.ListUsers(ctx, adminP)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestGetUserSelfOrAdmin(t *testing.T) {
	svc := NewService(newMemoryRepo(User{ID: 7}, User{ID: 8}), nil)
	ctx := context.Background()

	_, err := svc.GetUser(ctx, regularP, 7)
	require.NoError(t, err)

	_, err = svc.GetUser(ctx, regularP, 8)
	require.ErrorIs(t, err, shared.ErrAccessDenied)

	_, err = svc.GetUser(ctx, adminP, 8)
	require.NoError(t, err)
}

func TestSetActive(t *testing.T) {
	repo := newMemoryRepo(User{ID: 7, IsActive: true})
	svc := NewService(repo, nil)
	ctx := context.Background()

	require.ErrorIs(t, svc.SetActive(ctx, regularP, 7, false), shared.ErrAccessDenied)

	require.NoError(t, svc.SetActive(ctx, adminP, 7, false))
	require.False(t, repo.users[7].IsActive)
}

func TestSetGlobalRole(t *testing.T) {
	repo := newMemoryRepo(User{ID: 7, GlobalRole: policy.GlobalRoleRegular})
	svc := NewService(repo, nil)
	ctx := context.Background()

	require.ErrorIs(t, svc.SetGlobalRole(ctx, regularP, 7, policy.GlobalRoleAdmin), shared.ErrAccessDenied)

	require.Error(t, svc.SetGlobalRole(ctx, adminP, 7, policy.GlobalRole("superuser")))

	require.NoError(t, svc.SetGlobalRole(ctx, adminP, 7, policy.GlobalRoleAdmin))
	require.Equal(t, policy.GlobalRoleAdmin, repo.users[7].GlobalRole)
}
