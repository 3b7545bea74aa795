package scores

import "time"

// Score is one athlete's result for a workout. Every score belongs to its
// author; GymID and Public are copied from the workout at submission time so
// the score inherits the workout's visibility without a join on every read.
type Score struct {
	ID          int64     `json:"id"`
	WorkoutID   int64     `json:"workout_id"`
	AuthorID    int64     `json:"author_id"`
	GymID       int64     `json:"gym_id,omitempty"`
	Public      bool      `json:"public"`
	Value       float64   `json:"value"`
	Notes       string    `json:"notes,omitempty"`
	Verified    bool      `json:"verified"`
	IsRecord    bool      `json:"is_record"`
	PerformedAt time.Time `json:"performed_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
