package users

import (
	"time"

	"github.com/antares-fit/antares/internal/policy"
)

// User represents a platform account.
type User struct {
	ID         int64
	Email      string
	Name       string
	GlobalRole policy.GlobalRole
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
