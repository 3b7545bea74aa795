package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antares-fit/antares/internal/platform/db"
	"github.com/antares-fit/antares/internal/shared"
)

// Repository provides PostgreSQL backed persistence for the catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateMovement inserts a movement and its muscle links in one transaction.
func (r *Repository) CreateMovement(ctx context.Context, m Movement) (Movement, error) {
	var created Movement
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO movements (name, description, modality, created_at, updated_at)
			 VALUES ($1, $2, $3, NOW(), NOW())
			 RETURNING id, name, description, modality, created_at, updated_at`,
			m.Name, m.Description, string(m.Modality))
		var modality string
		if err := row.Scan(&created.ID, &created.Name, &created.Description, &modality, &created.CreatedAt, &created.UpdatedAt); err != nil {
			return err
		}
		created.Modality = Modality(modality)
		for _, muscleID := range m.MuscleIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO movement_muscles (movement_id, muscle_id) VALUES ($1, $2)`,
				created.ID, muscleID); err != nil {
				return err
			}
		}
		created.MuscleIDs = m.MuscleIDs
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Movement{}, shared.ErrDuplicate
		}
		return Movement{}, err
	}
	return created, nil
}

// GetMovement fetches a movement with its muscle links.
func (r *Repository) GetMovement(ctx context.Context, id int64) (Movement, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, description, modality, created_at, updated_at FROM movements WHERE id = $1`, id)
	var m Movement
	var modality string
	if err := row.Scan(&m.ID, &m.Name, &m.Description, &modality, &m.CreatedAt, &m.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Movement{}, shared.ErrNotFound
		}
		return Movement{}, err
	}
	m.Modality = Modality(modality)

	rows, err := r.pool.Query(ctx, `SELECT muscle_id FROM movement_muscles WHERE movement_id = $1 ORDER BY muscle_id`, id)
	if err != nil {
		return Movement{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var muscleID int64
		if err := rows.Scan(&muscleID); err != nil {
			return Movement{}, err
		}
		m.MuscleIDs = append(m.MuscleIDs, muscleID)
	}
	return m, rows.Err()
}

// ListMovements returns all movements ordered by name.
func (r *Repository) ListMovements(ctx context.Context) ([]Movement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, modality, created_at, updated_at FROM movements ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Movement
	for rows.Next() {
		var m Movement
		var modality string
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &modality, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.Modality = Modality(modality)
		list = append(list, m)
	}
	return list, rows.Err()
}

// DeleteMovement removes a movement and its links.
func (r *Repository) DeleteMovement(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM movements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CreateMuscle inserts a muscle reference entry.
func (r *Repository) CreateMuscle(ctx context.Context, m Muscle) (Muscle, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO muscles (name, body_part) VALUES ($1, $2) RETURNING id, name, body_part`,
		m.Name, m.BodyPart)
	var created Muscle
	if err := row.Scan(&created.ID, &created.Name, &created.BodyPart); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Muscle{}, shared.ErrDuplicate
		}
		return Muscle{}, err
	}
	return created, nil
}

// ListMuscles returns all muscles ordered by name.
func (r *Repository) ListMuscles(ctx context.Context) ([]Muscle, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, body_part FROM muscles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Muscle
	for rows.Next() {
		var m Muscle
		if err := rows.Scan(&m.ID, &m.Name, &m.BodyPart); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
