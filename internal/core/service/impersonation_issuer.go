package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/labdesk/identity/internal/core/domain"
	"github.com/labdesk/identity/internal/core/ports"
)

const defaultImpersonationTTL = time.Hour

// ImpersonationIssuer backs the impersonate-user and end-impersonation
// functions. An administrator holds at most one open session at a time.
type ImpersonationIssuer struct {
	accounts    ports.AccountRepository
	records     ports.ImpersonationRecordRepository
	revocations ports.RevocationList
	tokens      ports.TokenIssuer
	ttl         time.Duration
	now         func() time.Time
	log         zerolog.Logger
}

func NewImpersonationIssuer(
	accounts ports.AccountRepository,
	records ports.ImpersonationRecordRepository,
	revocations ports.RevocationList,
	tokens ports.TokenIssuer,
	ttl time.Duration,
	log zerolog.Logger,
) *ImpersonationIssuer {
	if ttl <= 0 {
		ttl = defaultImpersonationTTL
	}
	return &ImpersonationIssuer{
		accounts:    accounts,
		records:     records,
		revocations: revocations,
		tokens:      tokens,
		ttl:         ttl,
		now:         time.Now,
		log:         log,
	}
}

// Issue opens an impersonation session for targetUserID.
func (s *ImpersonationIssuer) Issue(ctx context.Context, admin *domain.TokenClaims, targetUserID string) (*domain.ImpersonationGrant, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	if targetUserID == admin.AccountID {
		return nil, domain.ErrSelfImpersonation
	}

	now := s.now().UTC()

	open, err := s.records.FindOpenByAdmin(ctx, admin.AccountID, now)
	switch {
	case err == nil:
		return nil, &domain.ImpersonationConflictError{SessionID: open.SessionID}
	case !errors.Is(err, domain.ErrImpersonationNotFound):
		return nil, fmt.Errorf("issue impersonation: %w", err)
	}

	adminAccount, err := s.accounts.FindByID(ctx, admin.AccountID)
	if err != nil {
		return nil, fmt.Errorf("issue impersonation: admin: %w", err)
	}
	target, err := s.accounts.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("issue impersonation: target: %w", err)
	}

	// Expired records that were never ended would otherwise hold the
	// admin's open slot.
	if err := s.records.CloseExpired(ctx, adminAccount.ID, now); err != nil {
		return nil, fmt.Errorf("issue impersonation: close expired: %w", err)
	}

	record := &domain.ImpersonationRecord{
		SessionID:    uuid.NewString(),
		AdminUserID:  adminAccount.ID,
		TargetUserID: target.ID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
	}
	if err := s.records.Create(ctx, record); err != nil {
		if errors.Is(err, domain.ErrImpersonationConflict) {
			return nil, s.conflict(ctx, adminAccount.ID, now)
		}
		return nil, fmt.Errorf("issue impersonation: %w", err)
	}

	pair, err := s.tokens.IssueImpersonation(target, adminAccount, record.SessionID, record.ExpiresAt)
	if err != nil {
		if endErr := s.records.MarkEnded(ctx, record.SessionID, now); endErr != nil {
			s.log.Warn().Err(endErr).Str("session_id", record.SessionID).Msg("failed to close unusable impersonation record")
		}
		return nil, fmt.Errorf("issue impersonation: %w", err)
	}

	s.log.Info().
		Str("session_id", record.SessionID).
		Str("admin_id", adminAccount.ID).
		Str("target_id", target.ID).
		Msg("impersonation session issued")

	return &domain.ImpersonationGrant{
		SessionID:    record.SessionID,
		AdminUser:    domain.SessionUser{ID: adminAccount.ID, Email: adminAccount.Email},
		TargetUser:   domain.SessionUser{ID: target.ID, Email: target.Email},
		ExpiresAt:    record.ExpiresAt,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// conflict names the record that won a concurrent Create.
func (s *ImpersonationIssuer) conflict(ctx context.Context, adminID string, now time.Time) error {
	open, err := s.records.FindOpenByAdmin(ctx, adminID, now)
	if err != nil {
		s.log.Warn().Err(err).Str("admin_id", adminID).Msg("open impersonation session not found after conflict")
		return &domain.ImpersonationConflictError{}
	}
	return &domain.ImpersonationConflictError{SessionID: open.SessionID}
}

// Revoke ends sessionID and blocks its tokens until they expire. Ending an
// already ended session is a no-op.
func (s *ImpersonationIssuer) Revoke(ctx context.Context, admin *domain.TokenClaims, sessionID string) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}

	record, err := s.records.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("revoke impersonation: %w", err)
	}
	if record.AdminUserID != admin.AccountID {
		return domain.ErrForbidden
	}
	if record.EndedAt != nil {
		return nil
	}

	now := s.now().UTC()
	if err := s.records.MarkEnded(ctx, sessionID, now); err != nil {
		return fmt.Errorf("revoke impersonation: %w", err)
	}
	if record.ExpiresAt.After(now) {
		if err := s.revocations.Revoke(ctx, sessionID, record.ExpiresAt); err != nil {
			return fmt.Errorf("revoke impersonation: %w", err)
		}
	}

	s.log.Info().Str("session_id", sessionID).Str("admin_id", admin.AccountID).Msg("impersonation session revoked")
	return nil
}

// requireAdmin rejects non-admin callers and impersonation tokens, so that
// impersonation cannot be chained.
func requireAdmin(claims *domain.TokenClaims) error {
	if claims == nil || claims.AccountID == "" {
		return domain.ErrUnauthorized
	}
	if claims.Role != domain.RoleAdmin || claims.ImpersonationSessionID != "" {
		return domain.ErrForbidden
	}
	return nil
}
