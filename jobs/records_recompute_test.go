package jobs

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/antares-fit/antares/internal/shared"
)

type recomputePair struct {
	userID    int64
	workoutID int64
}

type recomputeSpy struct {
	calls []recomputePair
}

func (s *recomputeSpy) RecomputeRecords(_ context.Context, userID, workoutID int64) error {
	s.calls = append(s.calls, recomputePair{userID: userID, workoutID: workoutID})
	return nil
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestRecordsRecomputeHandle(t *testing.T) {
	spy := &recomputeSpy{}
	job := NewRecordsRecomputeJob(spy, newRedisClient(t), nil, nil)

	task, err := NewRecordsRecomputeTask(7, 10)
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []recomputePair{{userID: 7, workoutID: 10}}, spy.calls)
}

func TestRecordsRecomputeRejectsMalformedPayload(t *testing.T) {
	spy := &recomputeSpy{}
	job := NewRecordsRecomputeJob(spy, newRedisClient(t), nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskRecordsRecompute, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, spy.calls)
}

func TestRecordsRecomputeHeldLockDefersWork(t *testing.T) {
	spy := &recomputeSpy{}
	rdb := newRedisClient(t)
	job := NewRecordsRecomputeJob(spy, rdb, nil, nil)

	require.NoError(t, rdb.Set(context.Background(), shared.RecordLockKey(7, 10), "1", 0).Err())

	task, err := NewRecordsRecomputeTask(7, 10)
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	require.Empty(t, spy.calls)
}
