package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sbilibin2017/gw-notes/internal/logger"
)

// SessionRepository keeps the ids of logged out sessions in Redis until
// their tokens would have expired anyway.
type SessionRepository struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{client: client}
}

func revokedKey(sessionID string) string {
	return fmt.Sprintf("session:revoked:%s", sessionID)
}

// Revoke marks the session as logged out for ttl.
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := revokedKey(sessionID)
	err := r.client.Set(ctx, key, "1", ttl).Err()

	logger.FromContext(ctx).Infow(
		"revoke session",
		"key", key,
		"ttl", ttl,
		"error", err,
	)

	return err
}

// IsRevoked reports whether the session was logged out.
func (r *SessionRepository) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	key := revokedKey(sessionID)
	err := r.client.Get(ctx, key).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.FromContext(ctx).Errorw("failed to check revoked session", "key", key, "error", err)
		return false, err
	}
	return true, nil
}
