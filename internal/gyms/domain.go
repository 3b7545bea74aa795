package gyms

import "time"

// Gym is the unit of multi-tenant isolation.
type Gym struct {
	ID          int64
	Name        string
	Description string
	Settings    Settings
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Settings holds per-gym configuration mutated via the settings policy.
type Settings struct {
	Timezone       string `json:"timezone"`
	PublicWorkouts bool   `json:"public_workouts"`
	OpenEnrollment bool   `json:"open_enrollment"`
}

// DefaultSettings returns the settings a new gym starts with.
func DefaultSettings() Settings {
	return Settings{Timezone: "UTC", OpenEnrollment: true}
}
