package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labdesk/identity/internal/core/domain"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestConnect(t *testing.T) {
	mr, _ := setupTestRedis(t)

	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	_, err = Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 100 * time.Millisecond})
	assert.Error(t, err)
}

func TestSessionStore_RoundTrip(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	active := &domain.AuthSession{
		AccessToken:  "access",
		RefreshToken: "refresh",
		User:         domain.SessionUser{ID: "u1", Email: "u1@example.com"},
	}
	require.NoError(t, store.PutActive(ctx, "s1", active))

	got, err := store.GetActive(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, active, got)

	assert.True(t, mr.Exists("session:s1:auth_session"))
	assert.Equal(t, time.Hour, mr.TTL("session:s1:auth_session"))

	other, err := store.GetActive(ctx, "s2")
	require.NoError(t, err)
	assert.Nil(t, other, "scopes must be isolated")

	require.NoError(t, store.DeleteActive(ctx, "s1"))
	got, err = store.GetActive(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStore_AdminAndImpersonation(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	admin := &domain.AuthSession{AccessToken: "admin-access", RefreshToken: "admin-refresh", User: domain.SessionUser{ID: "admin"}}
	require.NoError(t, store.PutAdmin(ctx, "s1", admin))

	expires := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	imp := &domain.ImpersonationSession{
		SessionID:    "imp-1",
		AdminUserID:  "admin",
		AdminEmail:   "admin@example.com",
		TargetUserID: "target",
		TargetEmail:  "target@example.com",
		ExpiresAt:    expires,
	}
	require.NoError(t, store.PutImpersonation(ctx, "s1", imp))

	// The record outlives its expiresAt so expiry can be detected on load.
	assert.Equal(t, time.Hour, mr.TTL("session:s1:impersonation_session"))

	raw, err := mr.Get("session:s1:impersonation_session")
	require.NoError(t, err)
	assert.Contains(t, raw, `"sessionId":"imp-1"`)
	assert.Contains(t, raw, `"expiresAt":"2026-03-01T12:00:00Z"`)

	gotAdmin, err := store.GetAdmin(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, admin, gotAdmin)

	gotImp, err := store.GetImpersonation(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, gotImp)
	assert.Equal(t, "imp-1", gotImp.SessionID)
	assert.True(t, gotImp.ExpiresAt.Equal(expires))

	require.NoError(t, store.DeleteImpersonation(ctx, "s1"))
	require.NoError(t, store.DeleteAdmin(ctx, "s1"))
	assert.False(t, mr.Exists("session:s1:impersonation_session"))
	assert.False(t, mr.Exists("session:s1:admin_session"))
}

func TestSessionStore_CorruptValueTreatedAsMissing(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)

	require.NoError(t, mr.Set("session:s1:impersonation_session", "{not json"))

	got, err := store.GetImpersonation(context.Background(), "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("session:s1:impersonation_session"))
}

func TestSessionStore_Unavailable(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	mr.Close()

	_, err := store.GetActive(context.Background(), "s1")
	assert.Error(t, err)
}

func TestRevocationList(t *testing.T) {
	mr, client := setupTestRedis(t)
	list := NewRevocationList(client)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	list.now = func() time.Time { return now }
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "imp-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "imp-1", now.Add(30*time.Minute)))
	revoked, err = list.IsRevoked(ctx, "imp-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, 30*time.Minute, mr.TTL("revoked_impersonation:imp-1"))

	require.NoError(t, list.Revoke(ctx, "imp-2", now.Add(-time.Minute)))
	assert.Equal(t, time.Second, mr.TTL("revoked_impersonation:imp-2"))

	mr.FastForward(31 * time.Minute)
	revoked, err = list.IsRevoked(ctx, "imp-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
