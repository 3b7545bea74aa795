package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	jobmetrics "github.com/antares-fit/antares/internal/jobs"
	"github.com/antares-fit/antares/internal/shared"
)

const (
	// TaskRecordsRecompute re-elects the personal record for one
	// (user, workout) pair.
	TaskRecordsRecompute = "records:recompute"

	recomputeLockTTL = 30 * time.Second
)

// RecordsRecomputePayload identifies the ranking to rebuild.
type RecordsRecomputePayload struct {
	UserID    int64 `json:"user_id"`
	WorkoutID int64 `json:"workout_id"`
}

// NewRecordsRecomputeTask constructs an Asynq task for a record recompute.
func NewRecordsRecomputeTask(userID, workoutID int64) (*asynq.Task, error) {
	body, err := json.Marshal(RecordsRecomputePayload{UserID: userID, WorkoutID: workoutID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecordsRecompute, body, asynq.Queue(QueueDefault)), nil
}

// RecordRecomputer rebuilds the is-record flags for a (user, workout) pair.
type RecordRecomputer interface {
	RecomputeRecords(ctx context.Context, userID, workoutID int64) error
}

// RecordsRecomputeJob runs record recomputation behind a per-pair redis lock
// so overlapping deliveries of the same pair retry instead of racing.
type RecordsRecomputeJob struct {
	Recomputer RecordRecomputer
	Redis      *redis.Client
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewRecordsRecomputeJob initialises the recompute handler.
func NewRecordsRecomputeJob(recomputer RecordRecomputer, rdb *redis.Client, logger *slog.Logger, metrics *jobmetrics.Metrics) *RecordsRecomputeJob {
	return &RecordsRecomputeJob{Recomputer: recomputer, Redis: rdb, Logger: logger, Metrics: metrics}
}

// Handle executes the recompute for the payload's pair.
func (j *RecordsRecomputeJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Recomputer == nil {
		return errors.New("records recompute: handler not configured")
	}
	var payload RecordsRecomputePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.UserID == 0 || payload.WorkoutID == 0 {
		return asynq.SkipRetry
	}

	tracker := j.Metrics.Track(TaskRecordsRecompute)
	err := tracker.End(j.recompute(ctx, payload))
	if err != nil && j.Logger != nil {
		j.Logger.Warn("records recompute failed",
			slog.Int64("user_id", payload.UserID),
			slog.Int64("workout_id", payload.WorkoutID),
			slog.Any("error", err))
	}
	return err
}

func (j *RecordsRecomputeJob) recompute(ctx context.Context, payload RecordsRecomputePayload) error {
	if j.Redis != nil {
		key := shared.RecordLockKey(payload.UserID, payload.WorkoutID)
		locked, err := j.Redis.SetNX(ctx, key, "1", recomputeLockTTL).Result()
		if err != nil {
			return err
		}
		if !locked {
			// Another worker holds the pair; asynq will redeliver.
			return errors.New("records recompute: pair is locked")
		}
		defer j.Redis.Del(context.WithoutCancel(ctx), key)
	}
	return j.Recomputer.RecomputeRecords(ctx, payload.UserID, payload.WorkoutID)
}
