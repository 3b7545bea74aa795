package shared

import "errors"

var (
	// ErrNotFound indicates the target resource or membership does not
	// exist. Authorization code propagates it unchanged so callers can
	// answer 404 instead of 403.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied indicates an authorization decision denied the
	// operation for a specific reason.
	ErrAccessDenied = errors.New("access denied")
	// ErrDuplicate indicates a uniqueness conflict, e.g. enrolling twice
	// in the same gym.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when the CSRF token is missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
