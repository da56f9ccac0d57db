package ports

import (
	"context"
	"time"

	"github.com/labdesk/identity/internal/core/domain"
)

// SessionStore is the session-scoped storage backing sign-in and
// impersonation. Every key is namespaced by a session scope id.
// Getters return (nil, nil) when the key is absent.
type SessionStore interface {
	GetActive(ctx context.Context, scope string) (*domain.AuthSession, error)
	PutActive(ctx context.Context, scope string, session *domain.AuthSession) error
	DeleteActive(ctx context.Context, scope string) error

	GetAdmin(ctx context.Context, scope string) (*domain.AuthSession, error)
	PutAdmin(ctx context.Context, scope string, session *domain.AuthSession) error
	DeleteAdmin(ctx context.Context, scope string) error

	GetImpersonation(ctx context.Context, scope string) (*domain.ImpersonationSession, error)
	PutImpersonation(ctx context.Context, scope string, session *domain.ImpersonationSession) error
	DeleteImpersonation(ctx context.Context, scope string) error
}

// RevocationList records impersonation session ids that were ended before
// their tokens expired.
type RevocationList interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

// ImpersonationRecordRepository stores issuer-side impersonation records.
type ImpersonationRecordRepository interface {
	// FindOpenByAdmin returns domain.ErrImpersonationNotFound unless the
	// admin has a record that is neither ended nor expired at now.
	FindOpenByAdmin(ctx context.Context, adminUserID string, now time.Time) (*domain.ImpersonationRecord, error)
	FindByID(ctx context.Context, sessionID string) (*domain.ImpersonationRecord, error)
	// Create inserts record atomically with respect to other open records
	// of the same admin: it fails with domain.ErrImpersonationConflict when
	// one that has not been ended exists.
	Create(ctx context.Context, record *domain.ImpersonationRecord) error
	MarkEnded(ctx context.Context, sessionID string, endedAt time.Time) error
	// CloseExpired ends the admin's records that expired at or before now.
	CloseExpired(ctx context.Context, adminUserID string, now time.Time) error
}
