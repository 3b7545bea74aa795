package scores

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antares-fit/antares/internal/platform/db"
	"github.com/antares-fit/antares/internal/policy"
	"github.com/antares-fit/antares/internal/shared"
)

// Repository provides PostgreSQL backed persistence for scores. It also
// serves as the score resource accessor for the policy engine.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const scoreColumns = `id, workout_id, author_id, COALESCE(gym_id, 0), public, value, notes, verified, is_record, performed_at, created_at, updated_at`

// Create inserts a score. New scores are unverified and not records until the
// recompute pass runs.
func (r *Repository) Create(ctx context.Context, s Score) (Score, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO scores (workout_id, author_id, gym_id, public, value, notes, performed_at, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, 0), $4, $5, $6, $7, NOW(), NOW())
		 RETURNING `+scoreColumns,
		s.WorkoutID, s.AuthorID, s.GymID, s.Public, s.Value, s.Notes, s.PerformedAt)
	return scanScore(row)
}

// Get fetches one score.
func (r *Repository) Get(ctx context.Context, id int64) (Score, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+scoreColumns+` FROM scores WHERE id = $1`, id)
	s, err := scanScore(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Score{}, shared.ErrNotFound
		}
		return Score{}, err
	}
	return s, nil
}

// Update replaces value and notes. A corrected value clears the verified flag
// until a coach re-verifies it.
func (r *Repository) Update(ctx context.Context, id int64, value float64, notes string) (Score, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE scores SET value = $2, notes = $3, verified = FALSE, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+scoreColumns,
		id, value, notes)
	s, err := scanScore(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Score{}, shared.ErrNotFound
		}
		return Score{}, err
	}
	return s, nil
}

// Delete removes a score.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM scores WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetVerified flips the verification flag.
func (r *Repository) SetVerified(ctx context.Context, id int64, verified bool) (Score, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE scores SET verified = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+scoreColumns,
		id, verified)
	s, err := scanScore(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Score{}, shared.ErrNotFound
		}
		return Score{}, err
	}
	return s, nil
}

// ListByWorkout returns all scores for a workout, best first by submission.
func (r *Repository) ListByWorkout(ctx context.Context, workoutID int64, page shared.Pagination) ([]Score, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+scoreColumns+` FROM scores WHERE workout_id = $1
		 ORDER BY performed_at DESC LIMIT $2 OFFSET $3`,
		workoutID, page.PerPage, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScores(rows)
}

// ListByAuthor returns one athlete's scores.
func (r *Repository) ListByAuthor(ctx context.Context, authorID int64, page shared.Pagination) ([]Score, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+scoreColumns+` FROM scores WHERE author_id = $1
		 ORDER BY performed_at DESC LIMIT $2 OFFSET $3`,
		authorID, page.PerPage, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectScores(rows)
}

// RecomputeRecords rewrites the is-record flags for one (user, workout) pair.
// The whole ranking is recomputed inside a serializable transaction: clearing
// and re-electing the single winner atomically means two concurrent
// submissions can never both end up flagged.
func (r *Repository) RecomputeRecords(ctx context.Context, userID, workoutID int64) error {
	return db.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		var scheme string
		err := tx.QueryRow(ctx, `SELECT scheme FROM workouts WHERE id = $1`, workoutID).Scan(&scheme)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrNotFound
			}
			return err
		}
		// Lower is better only when racing the clock.
		order := `value DESC`
		if scheme == "for_time" {
			order = `value ASC`
		}
		if _, err := tx.Exec(ctx,
			`UPDATE scores SET is_record = FALSE WHERE author_id = $1 AND workout_id = $2`,
			userID, workoutID); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE scores SET is_record = TRUE
			 WHERE id = (
			   SELECT id FROM scores
			   WHERE author_id = $1 AND workout_id = $2
			   ORDER BY `+order+`, performed_at ASC, id ASC
			   LIMIT 1
			 )`,
			userID, workoutID)
		return err
	})
}

// VisibilityContext implements policy.ResourceAccessor for scores.
func (r *Repository) VisibilityContext(ctx context.Context, id int64) (policy.VisibilityContext, error) {
	var vc policy.VisibilityContext
	var authorRole string
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(s.gym_id, 0), s.author_id, s.public, u.global_role
		 FROM scores s JOIN users u ON u.id = s.author_id
		 WHERE s.id = $1`, id).
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

func collectScores(rows pgx.Rows) ([]Score, error) {
	var list []Score
	for rows.Next() {
		s, err := scanScore(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanScore(row pgx.Row) (Score, error) {
	var s Score
	if err := row.Scan(&s.ID, &s.WorkoutID, &s.AuthorID, &s.GymID, &s.Public, &s.Value, &s.Notes,
		&s.Verified, &s.IsRecord, &s.PerformedAt, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return Score{}, err
	}
	return s, nil
}
