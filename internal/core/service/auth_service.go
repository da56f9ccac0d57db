package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/labdesk/identity/internal/api/metrics"
	"github.com/labdesk/identity/internal/core/domain"
	"github.com/labdesk/identity/internal/core/ports"
)

// AuthService implements registration, sign-in, session loading, sign-out
// and profile edits for a session scope.
type AuthService struct {
	accounts      ports.AccountRepository
	profiles      ports.ProfileRepository
	store         ports.SessionStore
	tokens        ports.TokenIssuer
	revocations   ports.RevocationList
	resolver      ports.IdentityResolver
	impersonation ports.ImpersonationService
	now           func() time.Time
	log           zerolog.Logger
}

// AuthDeps groups the collaborators of AuthService.
type AuthDeps struct {
	Accounts      ports.AccountRepository
	Profiles      ports.ProfileRepository
	Store         ports.SessionStore
	Tokens        ports.TokenIssuer
	Revocations   ports.RevocationList
	Resolver      ports.IdentityResolver
	Impersonation ports.ImpersonationService
}

func NewAuthService(deps AuthDeps, log zerolog.Logger) *AuthService {
	return &AuthService{
		accounts:      deps.Accounts,
		profiles:      deps.Profiles,
		store:         deps.Store,
		tokens:        deps.Tokens,
		revocations:   deps.Revocations,
		resolver:      deps.Resolver,
		impersonation: deps.Impersonation,
		now:           time.Now,
		log:           log,
	}
}

// Register creates an account with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, email, password, role string) (*domain.Account, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" || role == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	account := &domain.Account{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.accounts.Create(ctx, account)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SignIn verifies credentials and makes the issued token pair the scope's
// active session. Any impersonation state left in the scope is discarded.
func (s *AuthService) SignIn(ctx context.Context, scope, email, password string) (*ports.SessionView, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		metrics.SignInsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		metrics.SignInsTotal.WithLabelValues("failure").Inc()
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		metrics.SignInsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	if err := s.store.DeleteImpersonation(ctx, scope); err != nil {
		return nil, fmt.Errorf("sign in: purge impersonation: %w", err)
	}
	if err := s.store.DeleteAdmin(ctx, scope); err != nil {
		return nil, fmt.Errorf("sign in: purge admin session: %w", err)
	}
	if err := s.store.PutActive(ctx, scope, &domain.AuthSession{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         domain.SessionUser{ID: account.ID, Email: account.Email},
	}); err != nil {
		return nil, fmt.Errorf("sign in: store session: %w", err)
	}

	metrics.SignInsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("account_id", account.ID).Str("scope", scope).Msg("signed in")

	return &ports.SessionView{
		Identity: s.resolver.Resolve(ctx, account),
		Role:     account.Role,
	}, nil
}

// Session loads the scope: an expired impersonation is ended first, then
// the active token is verified and the identity resolved.
func (s *AuthService) Session(ctx context.Context, scope string) (*ports.SessionView, error) {
	if _, err := s.impersonation.Expire(ctx, scope, s.now()); err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	active, err := s.store.GetActive(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if active == nil {
		return nil, domain.ErrNoActiveSession
	}

	claims, err := s.tokens.Verify(active.AccessToken)
	if err != nil {
		return nil, err
	}

	if claims.ImpersonationSessionID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, claims.ImpersonationSessionID)
		if err != nil {
			return nil, fmt.Errorf("load session: revocation check: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("load session: %w: impersonation session revoked", domain.ErrUnauthorized)
		}
	}

	account, err := s.accounts.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, fmt.Errorf("load session: %w: account no longer exists", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	view := &ports.SessionView{
		Identity: s.resolver.Resolve(ctx, account),
		Role:     account.Role,
	}

	imp, err := s.store.GetImpersonation(ctx, scope)
	if err != nil {
		s.log.Warn().Err(err).Str("scope", scope).Msg("failed to read impersonation record")
	} else if imp.Active(s.now()) {
		view.Impersonation = imp
	}

	return view, nil
}

// SignOut clears the scope. While impersonating, it ends the impersonation
// instead so the administrator drops back to their own session.
func (s *AuthService) SignOut(ctx context.Context, scope string) error {
	imp, err := s.store.GetImpersonation(ctx, scope)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if imp != nil {
		return s.impersonation.End(ctx, scope)
	}

	if err := s.store.DeleteActive(ctx, scope); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if err := s.store.DeleteAdmin(ctx, scope); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}

	s.log.Info().Str("scope", scope).Msg("signed out")
	return nil
}

// Discard drops the active, saved admin and impersonation records of scope.
// An impersonation still recorded there is ended first so the server
// revokes its tokens.
func (s *AuthService) Discard(ctx context.Context, scope string) error {
	imp, err := s.store.GetImpersonation(ctx, scope)
	if err != nil {
		return fmt.Errorf("discard scope: %w", err)
	}
	if imp != nil {
		if err := s.impersonation.End(ctx, scope); err != nil && !errors.Is(err, domain.ErrNoAdminSession) {
			s.log.Warn().Err(err).Str("scope", scope).Msg("failed to end impersonation of discarded scope")
		}
	}

	if err := s.store.DeleteActive(ctx, scope); err != nil {
		return fmt.Errorf("discard scope: %w", err)
	}
	if err := s.store.DeleteAdmin(ctx, scope); err != nil {
		return fmt.Errorf("discard scope: %w", err)
	}
	if err := s.store.DeleteImpersonation(ctx, scope); err != nil {
		return fmt.Errorf("discard scope: %w", err)
	}

	s.log.Info().Str("scope", scope).Msg("session scope discarded")
	return nil
}

// UpdateProfile edits the laboratory profile the session is scoped to and
// reloads the session. Employees cannot edit their employer's profile.
func (s *AuthService) UpdateProfile(ctx context.Context, scope string, patch domain.ProfilePatch) (*ports.SessionView, error) {
	view, err := s.Session(ctx, scope)
	if err != nil {
		return nil, err
	}
	if view.Identity.Capabilities.IsEmployee() {
		return nil, domain.ErrForbidden
	}

	profileID := view.Identity.ScopingID
	profile, err := s.profiles.FindByID(ctx, profileID)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		profile = &domain.LaboratoryProfile{ID: profileID}
	case err != nil:
		return nil, fmt.Errorf("update profile: %w", err)
	}

	patch.Apply(profile)
	profile.UpdatedAt = s.now().UTC()

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.log.Info().Str("profile_id", profileID).Msg("laboratory profile updated")
	return s.Session(ctx, scope)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
