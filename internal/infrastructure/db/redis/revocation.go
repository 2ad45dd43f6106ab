package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "revoked:"

// RevocationList remembers logged-out session tokens until they would have
// expired anyway.
// Key format: revoked:<token id>
type RevocationList struct {
	client redis.Cmdable
}

// NewRevocationList wraps any redis.Cmdable (client, cluster or pipeline).
func NewRevocationList(client redis.Cmdable) *RevocationList {
	return &RevocationList{client: client}
}

// Revoke marks tokenID as revoked for ttl. Non-positive ttls are ignored
// since the token is already expired.
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked.
func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := l.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func revokedKey(tokenID string) string {
	return revokedPrefix + tokenID
}
