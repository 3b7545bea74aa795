package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

// GymContextSource resolves a user's standing inside a gym from their
// active membership. Pending and banned memberships confer nothing.
type GymContextSource interface {
	ActiveGymContext(ctx context.Context, userID, gymID int64) (GymContext, bool, error)
	DefaultGymContext(ctx context.Context, userID int64) (GymContext, bool, error)
}

// Service wraps authentication and principal resolution.
type Service struct {
	repo Repository
	gyms GymContextSource
}

// NewService constructs a new Service.
func NewService(repo Repository, gyms GymContextSource) *Service {
	return &Service{repo: repo, gyms: gyms}
}

// Authenticate validates email/password credentials. Unknown accounts,
// inactive accounts, and wrong passwords all fail identically.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return account, nil
}

// Signup registers a new account.
func (s *Service) Signup(ctx context.Context, email, name, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return nil, errors.New("auth: email and name required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateAccount(ctx, email, name, string(hash))
}

// ResolvePrincipal builds the immutable per-request principal from the
// authenticated user and the requested gym context. A gymID of 0 falls back
// to the user's default (earliest active) membership; a gym in which the
// user holds no active membership yields a principal without gym standing.
func (s *Service) ResolvePrincipal(ctx context.Context, userID, gymID int64) (policy.Principal, error) {
	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return policy.Principal{}, err
	}
	if !account.IsActive {
		return policy.Principal{}, shared.ErrInvalidCredentials
	}

	p := policy.Principal{
		UserID:      account.ID,
		GlobalRole:  account.GlobalRole,
		Permissions: policy.NewPermissionSet(),
	}

	if s.gyms == nil {
		return p, nil
	}

	var gymCtx GymContext
	var ok bool
	if gymID != 0 {
		gymCtx, ok, err = s.gyms.ActiveGymContext(ctx, userID, gymID)
	} else {
		gymCtx, ok, err = s.gyms.DefaultGymContext(ctx, userID)
	}
	if err != nil {
		return policy.Principal{}, err
	}
	if ok {
		p.GymID = gymCtx.GymID
		p.GymRole = gymCtx.Role
		if gymCtx.Permissions != nil {
			p.Permissions = gymCtx.Permissions
		}
	}
	return p, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
