package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/antares-fit/antares/internal/jobs"
)

const (
	// TaskRecordsIntegrity scans for (user, workout) pairs whose record
	// flags drifted from the single-winner invariant.
	TaskRecordsIntegrity = "records:integrity"
)

// RecordsIntegrityPayload carries scheduling metadata.
type RecordsIntegrityPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewRecordsIntegrityTask constructs the cron task.
func NewRecordsIntegrityTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(RecordsIntegrityPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecordsIntegrity, body, asynq.Queue(QueueDefault)), nil
}

// RecordsIntegrityJob finds pairs with zero or multiple record flags and
// schedules a recompute for each of them.
type RecordsIntegrityJob struct {
	Pool    *pgxpool.Pool
	Client  *Client
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRecordsIntegrityJob initialises the integrity scan handler.
func NewRecordsIntegrityJob(pool *pgxpool.Pool, client *Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *RecordsIntegrityJob {
	return &RecordsIntegrityJob{Pool: pool, Client: client, Logger: logger, Metrics: metrics}
}

// Handle executes the integrity scan.
func (j *RecordsIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("records integrity: handler not configured")
	}
	var payload RecordsIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskRecordsIntegrity)
	return tracker.End(j.scan(ctx))
}

func (j *RecordsIntegrityJob) scan(ctx context.Context) error {
	rows, err := j.Pool.Query(ctx,
		`SELECT author_id, workout_id, COUNT(*) FILTER (WHERE is_record) AS records
		 FROM scores
		 GROUP BY author_id, workout_id
		 HAVING COUNT(*) FILTER (WHERE is_record) <> 1`)
	if err != nil {
		return err
	}
	defer rows.Close()

	type pair struct {
		userID    int64
		workoutID int64
		records   int64
	}
	var drifted []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.userID, &p.workoutID, &p.records); err != nil {
			return err
		}
		drifted = append(drifted, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range drifted {
		severity := "missing_record"
		if p.records > 1 {
			severity = "duplicate_record"
		}
		j.Metrics.AddAnomalies(severity, 1)
		if j.Logger != nil {
			j.Logger.Warn("record integrity drift",
				slog.Int64("user_id", p.userID),
				slog.Int64("workout_id", p.workoutID),
				slog.Int64("records", p.records))
		}
		if j.Client != nil {
			if _, err := j.Client.EnqueueRecordRecompute(ctx, p.userID, p.workoutID); err != nil {
				return err
			}
		}
	}
	return nil
}
