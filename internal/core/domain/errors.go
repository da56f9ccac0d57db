package domain

import "errors"

var (
	ErrAccountNotFound        = errors.New("account not found")
	ErrAccountExists          = errors.New("account already exists")
	ErrProfileNotFound        = errors.New("laboratory profile not found")
	ErrSubscriptionNotFound   = errors.New("subscription profile not found")
	ErrEmployeeNotFound       = errors.New("employee not found")
	ErrRolePermissionNotFound = errors.New("role permission not found")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("access forbidden")
)

// Session and impersonation lifecycle errors.
var (
	ErrNoActiveSession       = errors.New("no active session")
	ErrNoAdminSession        = errors.New("no saved administrator session")
	ErrImpersonationActive   = errors.New("an impersonation session is already active in this session")
	ErrImpersonationNotFound = errors.New("impersonation session not found")
	ErrSelfImpersonation     = errors.New("cannot impersonate yourself")

	// ErrImpersonationConflict is returned when the issuer already holds an
	// active session for the administrator. Callers may retry once after
	// local state has been purged.
	ErrImpersonationConflict = errors.New("you already have an active impersonation session")
)

// ImpersonationConflictError carries the id of the session that blocks a
// new impersonation. It matches ErrImpersonationConflict with errors.Is.
type ImpersonationConflictError struct {
	SessionID string
}

func (e *ImpersonationConflictError) Error() string {
	return ErrImpersonationConflict.Error()
}

func (e *ImpersonationConflictError) Unwrap() error {
	return ErrImpersonationConflict
}
