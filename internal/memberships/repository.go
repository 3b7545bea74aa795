package memberships

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antares-fit/antares/internal/auth"
	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

// Repository provides PostgreSQL backed persistence for memberships. It also
// serves as the principal-resolution source for the auth service.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const membershipColumns = `id, user_id, gym_id, gym_role, status, permissions, created_at, updated_at`

// GetByID fetches one membership.
func (r *Repository) GetByID(ctx context.Context, id int64) (Membership, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE id = $1`, id)
	m, err := scanMembership(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, shared.ErrNotFound
		}
		return Membership{}, err
	}
	return m, nil
}

// Find returns the membership for a (user, gym) pair, if any.
func (r *Repository) Find(ctx context.Context, userID, gymID int64) (Membership, bool, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 AND gym_id = $2`, userID, gymID)
	m, err := scanMembership(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, false, nil
		}
		return Membership{}, false, err
	}
	return m, true, nil
}

// Create inserts a new membership. A second enrollment into the same gym
// surfaces as shared.ErrDuplicate via the (user_id, gym_id) unique index.
func (r *Repository) Create(ctx context.Context, m Membership) (Membership, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO memberships (user_id, gym_id, gym_role, status, permissions, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 RETURNING `+membershipColumns,
		m.UserID, m.GymID, string(m.Role), string(m.Status), m.Permissions.Names())
	created, err := scanMembership(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Membership{}, shared.ErrDuplicate
		}
		return Membership{}, err
	}
	return created, nil
}

// Update replaces role, status, and permissions.
func (r *Repository) Update(ctx context.Context, id int64, role policy.GymRole, status policy.MembershipStatus, perms policy.PermissionSet) (Membership, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE memberships SET gym_role = $2, status = $3, permissions = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+membershipColumns,
		id, string(role), string(status), perms.Names())
	m, err := scanMembership(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, shared.ErrNotFound
		}
		return Membership{}, err
	}
	return m, nil
}

// Delete removes a membership row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM memberships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListByGym returns all memberships of a gym ordered by join date.
func (r *Repository) ListByGym(ctx context.Context, gymID int64) ([]Membership, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE gym_id = $1 ORDER BY created_at`, gymID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// ActiveGymContext implements auth.GymContextSource for a specific gym.
func (r *Repository) ActiveGymContext(ctx context.Context, userID, gymID int64) (auth.GymContext, bool, error) {
	m, ok, err := r.Find(ctx, userID, gymID)
	if err != nil || !ok || m.Status != policy.MembershipActive {
		return auth.GymContext{}, false, err
	}
	return auth.GymContext{GymID: m.GymID, Role: m.Role, Permissions: m.Permissions}, true, nil
}

// DefaultGymContext implements auth.GymContextSource: the earliest active
// membership is treated as the user's home gym.
func (r *Repository) DefaultGymContext(ctx context.Context, userID int64) (auth.GymContext, bool, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships
		 WHERE user_id = $1 AND status = 'active'
		 ORDER BY created_at LIMIT 1`, userID)
	m, err := scanMembership(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.GymContext{}, false, nil
		}
		return auth.GymContext{}, false, err
	}
	return auth.GymContext{GymID: m.GymID, Role: m.Role, Permissions: m.Permissions}, true, nil
}

func scanMembership(row pgx.Row) (Membership, error) {
	var m Membership
	var role, status string
	var permNames []string
	if err := row.Scan(&m.ID, &m.UserID, &m.GymID, &role, &status, &permNames, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return Membership{}, err
	}
	m.Role = policy.GymRole(role)
	m.Status = policy.MembershipStatus(status)
	m.Permissions = policy.ParsePermissionSet(permNames)
	return m, nil
}
