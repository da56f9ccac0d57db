package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/labdesk/identity/internal/api/metrics"
	"github.com/labdesk/identity/internal/core/domain"
	"github.com/labdesk/identity/internal/core/ports"
)

// ImpersonationService drives the NONE → ACTIVE → NONE lifecycle of a
// session scope. Only this service and AuthService write the scope's
// credential keys.
type ImpersonationService struct {
	store   ports.SessionStore
	gateway ports.ImpersonationGateway
	tokens  ports.TokenIssuer
	audit   ports.AuditSink
	now     func() time.Time
	log     zerolog.Logger
}

func NewImpersonationService(
	store ports.SessionStore,
	gateway ports.ImpersonationGateway,
	tokens ports.TokenIssuer,
	audit ports.AuditSink,
	log zerolog.Logger,
) *ImpersonationService {
	return &ImpersonationService{
		store:   store,
		gateway: gateway,
		tokens:  tokens,
		audit:   audit,
		now:     time.Now,
		log:     log,
	}
}

// Start saves the administrator's credentials, exchanges them for an
// impersonation token pair bound to targetUserID and makes that pair the
// scope's active session.
func (s *ImpersonationService) Start(ctx context.Context, scope, targetUserID string) (*domain.ImpersonationSession, error) {
	if targetUserID == "" {
		return nil, domain.ErrAccountNotFound
	}

	admin, err := s.store.GetActive(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("start impersonation: %w", err)
	}
	if admin == nil {
		return nil, domain.ErrNoActiveSession
	}

	claims, err := s.tokens.Verify(admin.AccessToken)
	if err != nil {
		return nil, err
	}
	if claims.ImpersonationSessionID != "" {
		return nil, domain.ErrImpersonationActive
	}
	if claims.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	existing, err := s.store.GetImpersonation(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("start impersonation: %w", err)
	}
	if existing.Active(s.now()) {
		return nil, domain.ErrImpersonationActive
	}
	var staleID string
	if existing != nil {
		// Expired leftover while the admin's own token is active.
		staleID = existing.SessionID
		if err := s.purge(ctx, scope); err != nil {
			return nil, fmt.Errorf("start impersonation: %w", err)
		}
	}

	if err := s.store.PutAdmin(ctx, scope, admin); err != nil {
		return nil, fmt.Errorf("start impersonation: save admin session: %w", err)
	}

	grant, err := s.gateway.Impersonate(ctx, admin.AccessToken, targetUserID)
	if err != nil {
		return nil, s.failStart(ctx, scope, admin, claims, targetUserID, staleID, err)
	}

	session := &domain.ImpersonationSession{
		SessionID:    grant.SessionID,
		AdminUserID:  grant.AdminUser.ID,
		AdminEmail:   grant.AdminUser.Email,
		TargetUserID: grant.TargetUser.ID,
		TargetEmail:  grant.TargetUser.Email,
		ExpiresAt:    grant.ExpiresAt,
	}
	impersonated := &domain.AuthSession{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		User:         grant.TargetUser,
	}

	if err := s.store.PutImpersonation(ctx, scope, session); err != nil {
		s.rollback(ctx, scope, admin)
		return nil, fmt.Errorf("start impersonation: store record: %w", err)
	}
	if err := s.store.PutActive(ctx, scope, impersonated); err != nil {
		s.rollback(ctx, scope, admin)
		return nil, fmt.Errorf("start impersonation: store session: %w", err)
	}

	metrics.ImpersonationTransitionsTotal.WithLabelValues("started").Inc()
	s.record(domain.AuditImpersonationStarted, scope, session.SessionID, session.AdminUserID, session.TargetUserID)
	s.log.Info().
		Str("scope", scope).
		Str("session_id", session.SessionID).
		Str("admin_id", session.AdminUserID).
		Str("target_id", session.TargetUserID).
		Time("expires_at", session.ExpiresAt).
		Msg("impersonation started")

	return session, nil
}

// failStart undoes the admin save after a failed exchange. A conflict also
// purges stale local state. The blocking server session is ended only when
// it is the one this scope recorded as staleID; any other belongs to the
// admin's impersonation in another scope and stays open.
func (s *ImpersonationService) failStart(ctx context.Context, scope string, admin *domain.AuthSession, claims *domain.TokenClaims, targetUserID, staleID string, cause error) error {
	if !errors.Is(cause, domain.ErrImpersonationConflict) {
		if err := s.store.DeleteAdmin(ctx, scope); err != nil {
			s.log.Warn().Err(err).Str("scope", scope).Msg("failed to discard saved admin session")
		}
		metrics.ImpersonationTransitionsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("start impersonation: %w", cause)
	}

	if err := s.purge(ctx, scope); err != nil {
		s.log.Warn().Err(err).Str("scope", scope).Msg("failed to purge stale impersonation state")
	}

	var conflict *domain.ImpersonationConflictError
	if errors.As(cause, &conflict) && conflict.SessionID != "" {
		switch {
		case conflict.SessionID == staleID:
			if err := s.gateway.EndImpersonation(ctx, admin.AccessToken, conflict.SessionID); err != nil {
				s.log.Warn().Err(err).Str("session_id", conflict.SessionID).Msg("failed to end stale impersonation session")
			}
		default:
			s.log.Warn().
				Str("scope", scope).
				Str("session_id", conflict.SessionID).
				Msg("impersonation blocked by a session this scope does not own")
		}
	}

	metrics.ImpersonationTransitionsTotal.WithLabelValues("conflict").Inc()
	s.record(domain.AuditImpersonationConflict, scope, sessionIDOf(conflict), claims.AccountID, targetUserID)
	return fmt.Errorf("start impersonation: %w", cause)
}

// End restores the saved administrator session and invalidates the
// impersonation session on the server.
func (s *ImpersonationService) End(ctx context.Context, scope string) error {
	admin, err := s.store.GetAdmin(ctx, scope)
	if err != nil {
		return fmt.Errorf("end impersonation: %w", err)
	}
	if admin == nil {
		return domain.ErrNoAdminSession
	}

	session, err := s.store.GetImpersonation(ctx, scope)
	if err != nil {
		return fmt.Errorf("end impersonation: %w", err)
	}

	if session != nil {
		if err := s.gateway.EndImpersonation(ctx, admin.AccessToken, session.SessionID); err != nil {
			s.log.Warn().Err(err).Str("session_id", session.SessionID).Msg("server-side impersonation end failed")
		}
	}

	if err := s.restore(ctx, scope, admin); err != nil {
		return fmt.Errorf("end impersonation: %w", err)
	}

	metrics.ImpersonationTransitionsTotal.WithLabelValues("ended").Inc()
	if session != nil {
		s.record(domain.AuditImpersonationEnded, scope, session.SessionID, session.AdminUserID, session.TargetUserID)
	}
	s.log.Info().Str("scope", scope).Str("admin_id", admin.User.ID).Msg("impersonation ended")
	return nil
}

// Expire ends the scope's impersonation locally once now >= expiresAt.
func (s *ImpersonationService) Expire(ctx context.Context, scope string, now time.Time) (bool, error) {
	session, err := s.store.GetImpersonation(ctx, scope)
	if err != nil {
		return false, fmt.Errorf("check impersonation expiry: %w", err)
	}
	if session == nil || session.Active(now) {
		return false, nil
	}

	admin, err := s.store.GetAdmin(ctx, scope)
	if err != nil {
		return false, fmt.Errorf("check impersonation expiry: %w", err)
	}

	if admin != nil {
		err = s.restore(ctx, scope, admin)
	} else {
		// Nothing to drop back to: the impersonated tokens must not survive.
		err = s.purgeAll(ctx, scope)
	}
	if err != nil {
		return false, fmt.Errorf("expire impersonation: %w", err)
	}

	metrics.ImpersonationTransitionsTotal.WithLabelValues("expired").Inc()
	s.record(domain.AuditImpersonationExpired, scope, session.SessionID, session.AdminUserID, session.TargetUserID)
	s.log.Info().Str("scope", scope).Str("session_id", session.SessionID).Msg("impersonation expired")
	return true, nil
}

func (s *ImpersonationService) restore(ctx context.Context, scope string, admin *domain.AuthSession) error {
	if err := s.store.PutActive(ctx, scope, admin); err != nil {
		return fmt.Errorf("restore admin session: %w", err)
	}
	return s.purge(ctx, scope)
}

func (s *ImpersonationService) rollback(ctx context.Context, scope string, admin *domain.AuthSession) {
	if err := s.restore(ctx, scope, admin); err != nil {
		s.log.Error().Err(err).Str("scope", scope).Msg("failed to roll back impersonation start")
	}
}

// purge removes the impersonation record and the saved admin session.
func (s *ImpersonationService) purge(ctx context.Context, scope string) error {
	if err := s.store.DeleteImpersonation(ctx, scope); err != nil {
		return fmt.Errorf("purge impersonation: %w", err)
	}
	if err := s.store.DeleteAdmin(ctx, scope); err != nil {
		return fmt.Errorf("purge admin session: %w", err)
	}
	return nil
}

func (s *ImpersonationService) purgeAll(ctx context.Context, scope string) error {
	if err := s.store.DeleteActive(ctx, scope); err != nil {
		return fmt.Errorf("purge active session: %w", err)
	}
	return s.purge(ctx, scope)
}

func (s *ImpersonationService) record(action domain.AuditAction, scope, sessionID, adminID, targetID string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuditEvent{
		Action:       action,
		SessionID:    sessionID,
		AdminUserID:  adminID,
		TargetUserID: targetID,
		Scope:        scope,
		OccurredAt:   s.now().UTC(),
	})
}

func sessionIDOf(c *domain.ImpersonationConflictError) string {
	if c == nil {
		return ""
	}
	return c.SessionID
}
