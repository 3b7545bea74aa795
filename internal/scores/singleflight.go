package scores

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/antares-fit/antares/internal/shared"
)

var leaderboardGroup singleflight.Group

// listLeaderboard collapses concurrent identical leaderboard reads into a
// single repository query. The rows do not depend on the caller once the
// workout readability check has passed, so sharing the result is safe.
func (s *Service) listLeaderboard(ctx context.Context, workoutID int64, page shared.Pagination) ([]Score, error) {
	key := fmt.Sprintf("%d:%d:%d", workoutID, page.Page, page.PerPage)
	ch := leaderboardGroup.DoChan(key, func() (interface{}, error) {
		return s.repo.ListByWorkout(context.WithoutCancel(ctx), workoutID, page)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Score), nil
	}
}
