package ports

import (
	"context"
	"time"

	"github.com/labdesk/identity/internal/core/domain"
)

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(account *domain.Account) (*domain.TokenPair, error)
	IssueImpersonation(target, admin *domain.Account, sessionID string, expiresAt time.Time) (*domain.TokenPair, error)
	Verify(accessToken string) (*domain.TokenClaims, error)
}

// ImpersonationGateway calls the remote impersonation functions.
type ImpersonationGateway interface {
	Impersonate(ctx context.Context, adminAccessToken, targetUserID string) (*domain.ImpersonationGrant, error)
	EndImpersonation(ctx context.Context, adminAccessToken, sessionID string) error
}

// IdentityResolver derives the effective identity of a signed-in account.
// Resolve never fails; lookup faults degrade the result.
type IdentityResolver interface {
	Resolve(ctx context.Context, account *domain.Account) *domain.Identity
}

// SessionView is what a session scope currently acts as.
type SessionView struct {
	Identity      *domain.Identity
	Role          string
	Impersonation *domain.ImpersonationSession
}

// AuthService owns registration, sign-in, session loading, sign-out and profile edits.
type AuthService interface {
	Register(ctx context.Context, email, password, role string) (*domain.Account, error)
	SignIn(ctx context.Context, scope, email, password string) (*SessionView, error)
	Session(ctx context.Context, scope string) (*SessionView, error)
	SignOut(ctx context.Context, scope string) error
	// Discard drops every record of scope.
	Discard(ctx context.Context, scope string) error
	UpdateProfile(ctx context.Context, scope string, patch domain.ProfilePatch) (*SessionView, error)
}

// ImpersonationService drives the impersonation state machine of a scope.
type ImpersonationService interface {
	Start(ctx context.Context, scope, targetUserID string) (*domain.ImpersonationSession, error)
	End(ctx context.Context, scope string) error
	// Expire ends the scope's impersonation locally when it is no longer
	// active at now. It reports whether a record was purged.
	Expire(ctx context.Context, scope string, now time.Time) (bool, error)
}

// ImpersonationIssuer is the server side of the impersonation functions.
type ImpersonationIssuer interface {
	Issue(ctx context.Context, admin *domain.TokenClaims, targetUserID string) (*domain.ImpersonationGrant, error)
	Revoke(ctx context.Context, admin *domain.TokenClaims, sessionID string) error
}

// AuditSink accepts audit events for asynchronous persistence.
type AuditSink interface {
	Record(event domain.AuditEvent)
}
