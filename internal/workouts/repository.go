package workouts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

// Repository provides PostgreSQL backed persistence for workouts. It also
// serves as the workout resource accessor for the policy engine.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const workoutColumns = `id, title, description, scheme, public, COALESCE(gym_id, 0), author_id, created_at, updated_at`

// Create inserts a workout and its movement links in one transaction.
func (r *Repository) Create(ctx context.Context, w Workout) (Workout, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Workout{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`INSERT INTO workouts (title, description, scheme, public, gym_id, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, 0), $6, NOW(), NOW())
		 RETURNING `+workoutColumns,
		w.Title, w.Description, string(w.Scheme), w.Public, w.GymID, w.AuthorID)
	created, err := scanWorkout(row)
	if err != nil {
		return Workout{}, err
	}
	for _, movementID := range w.MovementIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO workout_movements (workout_id, movement_id) VALUES ($1, $2)`,
			created.ID, movementID); err != nil {
			return Workout{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Workout{}, err
	}
	created.MovementIDs = w.MovementIDs
	return created, nil
}

// Get fetches one workout with its movement links.
func (r *Repository) Get(ctx context.Context, id int64) (Workout, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+workoutColumns+` FROM workouts WHERE id = $1`, id)
	w, err := scanWorkout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workout{}, shared.ErrNotFound
		}
		return Workout{}, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT movement_id FROM workout_movements WHERE workout_id = $1 ORDER BY movement_id`, id)
	if err != nil {
		return Workout{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var movementID int64
		if err := rows.Scan(&movementID); err != nil {
			return Workout{}, err
		}
		w.MovementIDs = append(w.MovementIDs, movementID)
	}
	return w, rows.Err()
}

// Update replaces the mutable fields of a workout.
func (r *Repository) Update(ctx context.Context, w Workout) (Workout, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Workout{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`UPDATE workouts SET title = $2, description = $3, scheme = $4, public = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+workoutColumns,
		w.ID, w.Title, w.Description, string(w.Scheme), w.Public)
	updated, err := scanWorkout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workout{}, shared.ErrNotFound
		}
		return Workout{}, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM workout_movements WHERE workout_id = $1`, w.ID); err != nil {
		return Workout{}, err
	}
	for _, movementID := range w.MovementIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO workout_movements (workout_id, movement_id) VALUES ($1, $2)`,
			w.ID, movementID); err != nil {
			return Workout{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Workout{}, err
	}
	updated.MovementIDs = w.MovementIDs
	return updated, nil
}

// Delete removes a workout.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workouts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListVisible returns the workouts a principal may read: public ones, the
// ones scoped to their gym, and their own. Admins see everything.
func (r *Repository) ListVisible(ctx context.Context, p policy.Principal, page shared.Pagination) ([]Workout, error) {
	query := `SELECT ` + workoutColumns + ` FROM workouts
		 WHERE public OR gym_id = $1 OR author_id = $2
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	args := []any{p.GymID, p.UserID, page.PerPage, page.Offset()}
	if p.IsAdmin() {
		query = `SELECT ` + workoutColumns + ` FROM workouts ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = []any{page.PerPage, page.Offset()}
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

// VisibilityContext implements policy.ResourceAccessor. The join on users
// exposes whether the author is a platform admin, which the engine needs for
// its tamper-protection rule.
func (r *Repository) VisibilityContext(ctx context.Context, id int64) (policy.VisibilityContext, error) {
	var vc policy.VisibilityContext
	var authorRole string
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(w.gym_id, 0), w.author_id, w.public, u.global_role
		 FROM workouts w JOIN users u ON u.id = w.author_id
		 WHERE w.id = $1`, id).
		Scan(&vc.GymID, &vc.AuthorID, &vc.Public, &authorRole)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return policy.VisibilityContext{}, shared.ErrNotFound
		}
		return policy.VisibilityContext{}, err
	}
	vc.AuthorIsAdmin = policy.GlobalRole(authorRole) == policy.GlobalRoleAdmin
	return vc, nil
}

func scanWorkout(row pgx.Row) (Workout, error) {
	var w Workout
	var scheme string
	if err := row.Scan(&w.ID, &w.Title, &w.Description, &scheme, &w.Public, &w.GymID, &w.AuthorID, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return Workout{}, err
	}
	w.Scheme = Scheme(scheme)
	return w, nil
}
