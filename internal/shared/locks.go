package shared

import "fmt"

// RecordLockKey builds the redis key guarding personal-record recomputation
// for one (user, workout) pair.
func RecordLockKey(userID, workoutID int64) string {
	return fmt.Sprintf("records:user:%d:wod:%d:lock", userID, workoutID)
}
