package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/labdesk/identity/internal/core/domain"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenIssuer      = "labdesk-identity"
)

// sessionClaims is the JWT payload of every token the service signs.
type sessionClaims struct {
	Email                  string `json:"email"`
	Role                   string `json:"role"`
	TokenType              string `json:"token_type"`
	ImpersonatorID         string `json:"impersonator_id,omitempty"`
	ImpersonationSessionID string `json:"impersonation_session_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 token pairs.
type JWTIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewJWTIssuer(secret string, accessTTL, refreshTTL time.Duration) *JWTIssuer {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Issue signs a regular token pair for account.
func (j *JWTIssuer) Issue(account *domain.Account) (*domain.TokenPair, error) {
	now := j.now().UTC()
	return j.sign(sessionClaims{Email: account.Email, Role: account.Role}, account.ID, now, now.Add(j.accessTTL), now.Add(j.refreshTTL))
}

// IssueImpersonation signs a pair acting as target on behalf of admin. Both
// tokens expire with the impersonation session.
func (j *JWTIssuer) IssueImpersonation(target, admin *domain.Account, sessionID string, expiresAt time.Time) (*domain.TokenPair, error) {
	now := j.now().UTC()
	base := sessionClaims{
		Email:                  target.Email,
		Role:                   target.Role,
		ImpersonatorID:         admin.ID,
		ImpersonationSessionID: sessionID,
	}
	return j.sign(base, target.ID, now, expiresAt, expiresAt)
}

func (j *JWTIssuer) sign(base sessionClaims, subject string, now, accessExp, refreshExp time.Time) (*domain.TokenPair, error) {
	access := base
	access.TokenType = tokenTypeAccess
	access.RegisteredClaims = registered(subject, now, accessExp)

	refresh := base
	refresh.TokenType = tokenTypeRefresh
	refresh.RegisteredClaims = registered(subject, now, refreshExp)

	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(j.secret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(j.secret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    accessExp,
	}, nil
}

func registered(subject string, now, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
}

// Verify parses an access token. Any failure is reported as
// domain.ErrUnauthorized.
func (j *JWTIssuer) Verify(accessToken string) (*domain.TokenClaims, error) {
	var claims sessionClaims
	tkn, err := jwt.ParseWithClaims(accessToken, &claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return j.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(j.now))
	if err != nil || !tkn.Valid {
		return nil, fmt.Errorf("verify token: %w", errors.Join(domain.ErrUnauthorized, err))
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, fmt.Errorf("verify token: %w: not an access token", domain.ErrUnauthorized)
	}

	out := &domain.TokenClaims{
		AccountID:              claims.Subject,
		Email:                  claims.Email,
		Role:                   claims.Role,
		ImpersonatorID:         claims.ImpersonatorID,
		ImpersonationSessionID: claims.ImpersonationSessionID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
