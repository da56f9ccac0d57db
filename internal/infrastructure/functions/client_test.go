package functions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labdesk/identity/internal/core/domain"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", Timeout: time.Second})
}

func TestClient_Impersonate(t *testing.T) {
	expires := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/functions/impersonate-user" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer admin-token" {
			t.Errorf("unexpected authorization %q", got)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["targetUserId"] != "target-1" {
			t.Errorf("unexpected body %v", body)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":      true,
			"sessionId":    "imp-1",
			"adminUser":    map[string]string{"id": "admin-1", "email": "admin@example.com"},
			"targetUser":   map[string]string{"id": "target-1", "email": "t@example.com"},
			"expiresAt":    expires,
			"accessToken":  "imp-access",
			"refreshToken": "imp-refresh",
		})
	})

	grant, err := client.Impersonate(context.Background(), "admin-token", "target-1")
	if err != nil {
		t.Fatalf("impersonate: %v", err)
	}
	if grant.SessionID != "imp-1" || grant.AccessToken != "imp-access" || grant.TargetUser.Email != "t@example.com" {
		t.Fatalf("unexpected grant: %+v", grant)
	}
	if !grant.ExpiresAt.Equal(expires) {
		t.Fatalf("expected expiry %v, got %v", expires, grant.ExpiresAt)
	}
}

func TestClient_Impersonate_Conflict(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"You already have an active impersonation session","sessionId":"open-1"}`))
	})

	_, err := client.Impersonate(context.Background(), "admin-token", "target-1")
	if !errors.Is(err, domain.ErrImpersonationConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	var conflict *domain.ImpersonationConflictError
	if !errors.As(err, &conflict) || conflict.SessionID != "open-1" {
		t.Fatalf("expected blocking session id, got %+v", conflict)
	}
}

func TestClient_Impersonate_ConflictSignalOn200(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"you already have an active impersonation session"}`))
	})

	if _, err := client.Impersonate(context.Background(), "admin-token", "target-1"); !errors.Is(err, domain.ErrImpersonationConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestClient_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrForbidden},
		{http.StatusNotFound, domain.ErrAccountNotFound},
	}
	for _, tc := range cases {
		client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":"nope"}`))
		})
		if _, err := client.Impersonate(context.Background(), "tok", "target"); !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}

	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if _, err := client.Impersonate(context.Background(), "tok", "target"); err == nil {
		t.Fatalf("expected error for 502")
	}
}

func TestClient_EndImpersonation(t *testing.T) {
	var got map[string]string
	client := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/functions/end-impersonation" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	if err := client.EndImpersonation(context.Background(), "admin-token", "imp-1"); err != nil {
		t.Fatalf("end: %v", err)
	}
	if got["sessionId"] != "imp-1" {
		t.Fatalf("unexpected body %v", got)
	}
}

func TestClient_EndImpersonation_NotFound(t *testing.T) {
	client := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"impersonation session not found"}`))
	})

	if err := client.EndImpersonation(context.Background(), "admin-token", "gone"); !errors.Is(err, domain.ErrImpersonationNotFound) {
		t.Fatalf("expected ErrImpersonationNotFound, got %v", err)
	}
}
