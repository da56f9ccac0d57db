package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/labdesk/identity/internal/core/domain"
)

func TestJWTIssuer_IssueAndVerify(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour, 24*time.Hour)
	account := &domain.Account{ID: "acc-1", Email: "carol@example.com", Role: domain.RoleAdmin}

	pair, err := issuer.Issue(account)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.AccessToken == pair.RefreshToken {
		t.Fatalf("unexpected token pair: %+v", pair)
	}

	claims, err := issuer.Verify(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.AccountID != "acc-1" || claims.Email != "carol@example.com" || claims.Role != domain.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ImpersonationSessionID != "" {
		t.Fatalf("regular token must not carry an impersonation session")
	}
}

func TestJWTIssuer_RefreshTokenRejectedAsAccess(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour, 24*time.Hour)
	pair, _ := issuer.Issue(&domain.Account{ID: "acc-1", Role: domain.RoleUser})

	if _, err := issuer.Verify(pair.RefreshToken); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestJWTIssuer_Impersonation(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour, 24*time.Hour)
	target := &domain.Account{ID: "target", Email: "t@example.com", Role: domain.RoleUser}
	admin := &domain.Account{ID: "admin", Email: "a@example.com", Role: domain.RoleAdmin}
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)

	pair, err := issuer.IssueImpersonation(target, admin, "sess-1", exp)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := issuer.Verify(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.AccountID != "target" || claims.ImpersonatorID != "admin" || claims.ImpersonationSessionID != "sess-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Equal(exp) {
		t.Fatalf("expected expiry %v, got %v", exp, claims.ExpiresAt)
	}
}

func TestJWTIssuer_Rejects(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour, time.Hour)

	other := NewJWTIssuer("other-secret", time.Hour, time.Hour)
	foreign, _ := other.Issue(&domain.Account{ID: "x"})

	expiredIssuer := NewJWTIssuer("secret", time.Hour, time.Hour)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredIssuer.Issue(&domain.Account{ID: "x"})

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "x", "token_type": "access", "iss": tokenIssuer})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign.AccessToken,
		"expired":      expired.AccessToken,
		"none alg":     unsigned,
		"empty string": "",
	} {
		if _, err := issuer.Verify(tok); !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("%s: expected ErrUnauthorized, got %v", name, err)
		}
	}
}
