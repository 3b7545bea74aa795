package workouts

import "time"

// Scheme declares how a workout is scored.
type Scheme string

const (
	SchemeForTime Scheme = "for_time"
	SchemeAMRAP   Scheme = "amrap"
	SchemeMaxLoad Scheme = "max_load"
)

// Workout is a programmed piece of training. Ownership is expressed by
// AuthorID plus an optional GymID; a zero GymID means the workout is
// personal to its author unless Public is set.
type Workout struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Scheme      Scheme    `json:"scheme"`
	Public      bool      `json:"public"`
	GymID       int64     `json:"gym_id,omitempty"`
	AuthorID    int64     `json:"author_id"`
	MovementIDs []int64   `json:"movement_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
