// Package functions calls the remote impersonation functions over HTTP.
package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labdesk/identity/internal/core/domain"
)

const (
	impersonatePath    = "/functions/impersonate-user"
	endImpersonatePath = "/functions/end-impersonation"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20

	conflictSignal = "already have an active impersonation session"
)

// Config captures the remote functions endpoint.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.ImpersonationGateway.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type impersonateRequest struct {
	TargetUserID string `json:"targetUserId"`
}

type endRequest struct {
	SessionID string `json:"sessionId"`
}

type userPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// response is the union of every function reply.
type response struct {
	Success      bool        `json:"success"`
	Error        string      `json:"error,omitempty"`
	SessionID    string      `json:"sessionId,omitempty"`
	AdminUser    userPayload `json:"adminUser"`
	TargetUser   userPayload `json:"targetUser"`
	ExpiresAt    time.Time   `json:"expiresAt"`
	AccessToken  string      `json:"accessToken,omitempty"`
	RefreshToken string      `json:"refreshToken,omitempty"`
}

// Impersonate exchanges the administrator's bearer token for a token pair
// of targetUserID.
func (c *Client) Impersonate(ctx context.Context, adminAccessToken, targetUserID string) (*domain.ImpersonationGrant, error) {
	var res response
	if err := c.call(ctx, impersonatePath, adminAccessToken, impersonateRequest{TargetUserID: targetUserID}, &res); err != nil {
		return nil, err
	}
	if res.SessionID == "" || res.AccessToken == "" {
		return nil, errors.New("impersonate-user: incomplete response")
	}

	return &domain.ImpersonationGrant{
		SessionID:    res.SessionID,
		AdminUser:    domain.SessionUser{ID: res.AdminUser.ID, Email: res.AdminUser.Email},
		TargetUser:   domain.SessionUser{ID: res.TargetUser.ID, Email: res.TargetUser.Email},
		ExpiresAt:    res.ExpiresAt,
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}, nil
}

// EndImpersonation invalidates sessionID on the server.
func (c *Client) EndImpersonation(ctx context.Context, adminAccessToken, sessionID string) error {
	var res response
	return c.call(ctx, endImpersonatePath, adminAccessToken, endRequest{SessionID: sessionID}, &res)
}

func (c *Client) call(ctx context.Context, path, bearer string, body any, out *response) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", path, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("%s: decode response: %w", path, err)
		}
	}

	if resp.StatusCode >= 300 || !out.Success {
		return classify(path, resp.StatusCode, out)
	}
	return nil
}

// classify maps a failed reply onto the domain error taxonomy.
func classify(path string, status int, res *response) error {
	msg := res.Error
	if msg == "" {
		msg = http.StatusText(status)
	}

	if strings.Contains(strings.ToLower(msg), conflictSignal) {
		return &domain.ImpersonationConflictError{SessionID: res.SessionID}
	}

	var sentinel error
	switch status {
	case http.StatusUnauthorized:
		sentinel = domain.ErrUnauthorized
	case http.StatusForbidden:
		sentinel = domain.ErrForbidden
	case http.StatusNotFound:
		if path == endImpersonatePath {
			sentinel = domain.ErrImpersonationNotFound
		} else {
			sentinel = domain.ErrAccountNotFound
		}
	default:
		return fmt.Errorf("%s: status %d: %s", path, status, msg)
	}
	return fmt.Errorf("%s: %w: %s", path, sentinel, msg)
}
