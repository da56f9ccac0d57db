package domain

import "time"

// SessionUser is the identity summary stored alongside a token pair.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthSession is a credential set held in session-scoped storage. The same
// shape is used for the active session and the saved administrator session.
type AuthSession struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         SessionUser `json:"user"`
}

// TokenPair is an issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// TokenClaims is the verified content of an access token.
type TokenClaims struct {
	AccountID string
	Email     string
	Role      string
	// ImpersonatorID and ImpersonationSessionID are set on tokens issued by
	// the impersonation endpoint.
	ImpersonatorID         string
	ImpersonationSessionID string
	ExpiresAt              time.Time
}

// ImpersonationSession is the client-side record of an active delegation.
type ImpersonationSession struct {
	SessionID    string    `json:"sessionId"`
	AdminUserID  string    `json:"adminUserId"`
	AdminEmail   string    `json:"adminEmail"`
	TargetUserID string    `json:"targetUserId"`
	TargetEmail  string    `json:"targetEmail"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Active reports whether the session is still honoured at now.
func (s *ImpersonationSession) Active(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}

// ImpersonationGrant is the issuer's answer to an impersonation request.
type ImpersonationGrant struct {
	SessionID    string
	AdminUser    SessionUser
	TargetUser   SessionUser
	ExpiresAt    time.Time
	AccessToken  string
	RefreshToken string
}

// ImpersonationRecord is the issuer-side record of a delegation.
type ImpersonationRecord struct {
	SessionID    string
	AdminUserID  string
	TargetUserID string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	EndedAt      *time.Time
}

// Open reports whether the record still blocks new sessions for its admin.
func (r *ImpersonationRecord) Open(now time.Time) bool {
	return r != nil && r.EndedAt == nil && now.Before(r.ExpiresAt)
}

// AuditAction names an impersonation lifecycle event.
type AuditAction string

const (
	AuditImpersonationStarted  AuditAction = "impersonation_started"
	AuditImpersonationEnded    AuditAction = "impersonation_ended"
	AuditImpersonationExpired  AuditAction = "impersonation_expired"
	AuditImpersonationConflict AuditAction = "impersonation_conflict"
)

// AuditEvent is an entry of the impersonation audit trail.
type AuditEvent struct {
	Action       AuditAction
	SessionID    string
	AdminUserID  string
	TargetUserID string
	Scope        string
	OccurredAt   time.Time
}
