package auth

import (
	"time"

	"github.com/antares-fit/antares/internal/policy"
)

// Account represents a credentialed user record.
type Account struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	GlobalRole   policy.GlobalRole
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GymContext is the per-gym standing a principal operates under, copied
// from the actor's active membership at resolution time.
type GymContext struct {
	GymID       int64
	Role        policy.GymRole
	Permissions policy.PermissionSet
}
