package gyms

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antares-fit/antares/internal/platform/db"
	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

// Repository provides PostgreSQL backed persistence for gyms.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateWithOwner inserts the gym and the creator's owner membership in one
// transaction so a gym can never exist without an owner.
func (r *Repository) CreateWithOwner(ctx context.Context, gym Gym, ownerID int64) (Gym, error) {
	var created Gym
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		settingsJSON, err := json.Marshal(gym.Settings)
		if err != nil {
			return err
		}
		row := tx.QueryRow(ctx,
			`INSERT INTO gyms (name, description, settings, created_at, updated_at)
			 VALUES ($1, $2, $3, NOW(), NOW())
			 RETURNING id, name, description, settings, created_at, updated_at`,
			gym.Name, gym.Description, settingsJSON)
		created, err = scanGym(row)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO memberships (user_id, gym_id, gym_role, status, permissions, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, '{}', NOW(), NOW())`,
			ownerID, created.ID, string(policy.GymRoleOwner), string(policy.MembershipActive))
		return err
	})
	if err != nil {
		return Gym{}, err
	}
	return created, nil
}

// GetGym fetches one gym.
func (r *Repository) GetGym(ctx context.Context, id int64) (Gym, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, description, settings, created_at, updated_at FROM gyms WHERE id = $1`, id)
	gym, err := scanGym(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Gym{}, shared.ErrNotFound
		}
		return Gym{}, err
	}
	return gym, nil
}

// ListGyms returns all gyms ordered by name.
func (r *Repository) ListGyms(ctx context.Context) ([]Gym, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, settings, created_at, updated_at FROM gyms ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Gym
	for rows.Next() {
		gym, err := scanGym(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, gym)
	}
	return list, rows.Err()
}

// UpdateSettings replaces the settings document.
func (r *Repository) UpdateSettings(ctx context.Context, id int64, settings Settings) error {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE gyms SET settings = $2, updated_at = NOW() WHERE id = $1`, id, settingsJSON)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// OpenEnrollment reports whether the gym admits new members without
// approval. Implements the enrollment gate of the memberships service.
func (r *Repository) OpenEnrollment(ctx context.Context, gymID int64) (bool, error) {
	gym, err := r.GetGym(ctx, gymID)
	if err != nil {
		return false, err
	}
	return gym.Settings.OpenEnrollment, nil
}

// DeleteGym removes a gym and, via FK cascade, its memberships.
func (r *Repository) DeleteGym(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM gyms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanGym(row pgx.Row) (Gym, error) {
	var gym Gym
	var settingsJSON []byte
	if err := row.Scan(&gym.ID, &gym.Name, &gym.Description, &settingsJSON, &gym.CreatedAt, &gym.UpdatedAt); err != nil {
		return Gym{}, err
	}
	if len(settingsJSON) > 0 {
		if err := json.Unmarshal(settingsJSON, &gym.Settings); err != nil {
			return Gym{}, err
		}
	}
	return gym, nil
}
