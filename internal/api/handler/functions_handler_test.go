package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labdesk/identity/internal/api/middleware"
	"github.com/labdesk/identity/internal/core/domain"
)

var functionsAdmin = &domain.TokenClaims{AccountID: "admin-1", Email: "admin@labdesk.example", Role: domain.RoleAdmin}

func TestFunctionsHandler_ImpersonateUser(t *testing.T) {
	exp := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	handler := NewFunctionsHandler(&stubIssuer{
		issueFn: func(_ context.Context, admin *domain.TokenClaims, targetID string) (*domain.ImpersonationGrant, error) {
			if admin.AccountID != "admin-1" || targetID != "owner-1" {
				t.Fatalf("unexpected call admin=%s target=%s", admin.AccountID, targetID)
			}
			return &domain.ImpersonationGrant{
				SessionID:    "imp-1",
				AdminUser:    domain.SessionUser{ID: "admin-1", Email: "admin@labdesk.example"},
				TargetUser:   domain.SessionUser{ID: "owner-1", Email: "owner@lab.example"},
				ExpiresAt:    exp,
				AccessToken:  "access",
				RefreshToken: "refresh",
			}, nil
		},
	})

	c, rec := newContext(http.MethodPost, "/functions/impersonate-user", `{"targetUserId":"owner-1"}`)
	c.Set(middleware.ClaimsKey, functionsAdmin)

	if err := handler.ImpersonateUser(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["success"] != true || resp["sessionId"] != "imp-1" || resp["accessToken"] != "access" {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
	if resp["expiresAt"] != "2026-01-02T15:04:05Z" {
		t.Fatalf("unexpected expiresAt: %v", resp["expiresAt"])
	}
	target := resp["targetUser"].(map[string]any)
	if target["id"] != "owner-1" || target["email"] != "owner@lab.example" {
		t.Fatalf("unexpected targetUser: %v", target)
	}
}

func TestFunctionsHandler_RequiresClaims(t *testing.T) {
	handler := NewFunctionsHandler(&stubIssuer{})

	c, _ := newContext(http.MethodPost, "/functions/impersonate-user", `{"targetUserId":"owner-1"}`)
	assertHTTPError(t, handler.ImpersonateUser(c), http.StatusUnauthorized)

	c, _ = newContext(http.MethodPost, "/functions/end-impersonation", `{"sessionId":"imp-1"}`)
	assertHTTPError(t, handler.EndImpersonation(c), http.StatusUnauthorized)
}

func TestFunctionsHandler_ImpersonateUser_Conflict(t *testing.T) {
	handler := NewFunctionsHandler(&stubIssuer{
		issueFn: func(context.Context, *domain.TokenClaims, string) (*domain.ImpersonationGrant, error) {
			return nil, &domain.ImpersonationConflictError{SessionID: "imp-open"}
		},
	})

	c, _ := newContext(http.MethodPost, "/functions/impersonate-user", `{"targetUserId":"owner-1"}`)
	c.Set(middleware.ClaimsKey, functionsAdmin)

	if err := handler.ImpersonateUser(c); !errors.Is(err, domain.ErrImpersonationConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestFunctionsHandler_EndImpersonation(t *testing.T) {
	var revoked string
	handler := NewFunctionsHandler(&stubIssuer{
		revokeFn: func(_ context.Context, _ *domain.TokenClaims, sessionID string) error {
			revoked = sessionID
			return nil
		},
	})

	c, rec := newContext(http.MethodPost, "/functions/end-impersonation", `{"sessionId":"imp-1"}`)
	c.Set(middleware.ClaimsKey, functionsAdmin)

	if err := handler.EndImpersonation(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if revoked != "imp-1" {
		t.Fatalf("expected imp-1 revoked, got %q", revoked)
	}
	if rec.Code != http.StatusOK || !json.Valid(rec.Body.Bytes()) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}

	c, _ = newContext(http.MethodPost, "/functions/end-impersonation", `{}`)
	c.Set(middleware.ClaimsKey, functionsAdmin)
	assertHTTPError(t, handler.EndImpersonation(c), http.StatusBadRequest)
}
