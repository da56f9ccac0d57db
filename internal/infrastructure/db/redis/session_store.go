package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/labdesk/identity/internal/core/domain"
)

const defaultSessionTTL = 7 * 24 * time.Hour

const (
	keyActive        = "auth_session"
	keyAdmin         = "admin_session"
	keyImpersonation = "impersonation_session"
)

// SessionStore keeps the credential records of each session scope.
// Key format: session:<scope>:<name>
//
// Every key lives for the session TTL and is refreshed on write. The
// impersonation record is not bound to its expiresAt so an expired
// record can still be detected and rolled back on load.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) GetActive(ctx context.Context, scope string) (*domain.AuthSession, error) {
	var out domain.AuthSession
	return getJSON(ctx, s, scope, keyActive, &out)
}

func (s *SessionStore) PutActive(ctx context.Context, scope string, session *domain.AuthSession) error {
	return s.put(ctx, scope, keyActive, session)
}

func (s *SessionStore) DeleteActive(ctx context.Context, scope string) error {
	return s.del(ctx, scope, keyActive)
}

func (s *SessionStore) GetAdmin(ctx context.Context, scope string) (*domain.AuthSession, error) {
	var out domain.AuthSession
	return getJSON(ctx, s, scope, keyAdmin, &out)
}

func (s *SessionStore) PutAdmin(ctx context.Context, scope string, session *domain.AuthSession) error {
	return s.put(ctx, scope, keyAdmin, session)
}

func (s *SessionStore) DeleteAdmin(ctx context.Context, scope string) error {
	return s.del(ctx, scope, keyAdmin)
}

func (s *SessionStore) GetImpersonation(ctx context.Context, scope string) (*domain.ImpersonationSession, error) {
	var out domain.ImpersonationSession
	return getJSON(ctx, s, scope, keyImpersonation, &out)
}

func (s *SessionStore) PutImpersonation(ctx context.Context, scope string, session *domain.ImpersonationSession) error {
	return s.put(ctx, scope, keyImpersonation, session)
}

func (s *SessionStore) DeleteImpersonation(ctx context.Context, scope string) error {
	return s.del(ctx, scope, keyImpersonation)
}

// getJSON decodes the key into out. A missing key yields (nil, nil); an
// undecodable value is deleted and treated as missing.
func getJSON[T any](ctx context.Context, s *SessionStore, scope, name string, out *T) (*T, error) {
	key := s.key(scope, name)
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session store get %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		_ = s.client.Del(ctx, key).Err()
		return nil, nil
	}
	return out, nil
}

func (s *SessionStore) put(ctx context.Context, scope, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session store encode %s: %w", name, err)
	}
	if err := s.client.Set(ctx, s.key(scope, name), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("session store put %s: %w", name, err)
	}
	return nil
}

func (s *SessionStore) del(ctx context.Context, scope, name string) error {
	if err := s.client.Del(ctx, s.key(scope, name)).Err(); err != nil {
		return fmt.Errorf("session store delete %s: %w", name, err)
	}
	return nil
}

func (s *SessionStore) key(scope, name string) string {
	return fmt.Sprintf("session:%s:%s", scope, name)
}
