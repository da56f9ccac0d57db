package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labdesk/identity/internal/api/middleware"
	"github.com/labdesk/identity/internal/core/domain"
	"github.com/labdesk/identity/internal/core/ports"
)

const testScope = "5f0c8e1a-2b3d-4c5e-8f9a-0b1c2d3e4f5a"

type stubAuthService struct {
	registerFn func(ctx context.Context, email, password, role string) (*domain.Account, error)
	signInFn   func(ctx context.Context, scope, email, password string) (*ports.SessionView, error)
	sessionFn  func(ctx context.Context, scope string) (*ports.SessionView, error)
	signOutFn  func(ctx context.Context, scope string) error
	discardFn  func(ctx context.Context, scope string) error
	updateFn   func(ctx context.Context, scope string, patch domain.ProfilePatch) (*ports.SessionView, error)
}

func (s *stubAuthService) Register(ctx context.Context, email, password, role string) (*domain.Account, error) {
	return s.registerFn(ctx, email, password, role)
}

func (s *stubAuthService) SignIn(ctx context.Context, scope, email, password string) (*ports.SessionView, error) {
	return s.signInFn(ctx, scope, email, password)
}

func (s *stubAuthService) Session(ctx context.Context, scope string) (*ports.SessionView, error) {
	return s.sessionFn(ctx, scope)
}

func (s *stubAuthService) SignOut(ctx context.Context, scope string) error {
	return s.signOutFn(ctx, scope)
}

func (s *stubAuthService) Discard(ctx context.Context, scope string) error {
	return s.discardFn(ctx, scope)
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, scope string, patch domain.ProfilePatch) (*ports.SessionView, error) {
	return s.updateFn(ctx, scope, patch)
}

type stubImpersonationService struct {
	startFn func(ctx context.Context, scope, targetID string) (*domain.ImpersonationSession, error)
	endFn   func(ctx context.Context, scope string) error
}

func (s *stubImpersonationService) Start(ctx context.Context, scope, targetID string) (*domain.ImpersonationSession, error) {
	return s.startFn(ctx, scope, targetID)
}

func (s *stubImpersonationService) End(ctx context.Context, scope string) error {
	return s.endFn(ctx, scope)
}

func (s *stubImpersonationService) Expire(context.Context, string, time.Time) (bool, error) {
	return false, nil
}

type stubIssuer struct {
	issueFn  func(ctx context.Context, admin *domain.TokenClaims, targetID string) (*domain.ImpersonationGrant, error)
	revokeFn func(ctx context.Context, admin *domain.TokenClaims, sessionID string) error
}

func (s *stubIssuer) Issue(ctx context.Context, admin *domain.TokenClaims, targetID string) (*domain.ImpersonationGrant, error) {
	return s.issueFn(ctx, admin, targetID)
}

func (s *stubIssuer) Revoke(ctx context.Context, admin *domain.TokenClaims, sessionID string) error {
	return s.revokeFn(ctx, admin, sessionID)
}

func ownerView() *ports.SessionView {
	return &ports.SessionView{
		Role: domain.RoleUser,
		Identity: &domain.Identity{
			AccountID:    "owner-1",
			Email:        "owner@lab.example",
			ScopingID:    "owner-1",
			Laboratory:   &domain.LaboratoryProfile{ID: "owner-1", CompanyName: "Lab"},
			Capabilities: domain.OwnerCapabilities("owner-1"),
		},
	}
}

// newContext builds an echo context with the validator installed and the
// session scope set as SessionScope would.
func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ScopeKey, testScope)
	return c, rec
}

func assertHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != code {
		t.Fatalf("expected HTTP %d error, got %v", code, err)
	}
}
