package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList blocks the tokens of ended impersonation sessions backed
// by Redis. Key format: revoked_impersonation:<session_id>
type RevocationList struct {
	client *redis.Client
	now    func() time.Time
}

// NewRevocationList creates a RevocationList wrapping the given Redis client.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client, now: time.Now}
}

// IsRevoked reports whether the session was ended before its tokens expired.
func (r *RevocationList) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

// Revoke records the session until the given time, at least one second.
func (r *RevocationList) Revoke(ctx context.Context, sessionID string, until time.Time) error {
	ttl := until.Sub(r.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return r.client.Set(ctx, r.key(sessionID), "1", ttl).Err()
}

func (r *RevocationList) key(sessionID string) string {
	return fmt.Sprintf("revoked_impersonation:%s", sessionID)
}
