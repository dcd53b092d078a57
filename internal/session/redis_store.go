package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore persists sessions and flash queues in Redis with a rolling TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// getSessionKey generates the Redis key for a session record
func getSessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// getFlashKey generates the Redis key for a session's flash queue
func getFlashKey(sessionID, category string) string {
	return fmt.Sprintf("flash:%s:%s", sessionID, category)
}

// Save writes the full session record and resets its TTL.
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	key := getSessionKey(s.ID)

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id":      s.UserID.String(),
		"is_logged_in": strconv.FormatBool(s.IsLoggedIn),
		"created_at":   s.CreatedAt.Unix(),
	})
	pipe.Expire(ctx, key, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Get loads a session record. Expired records simply vanish via TTL.
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.HGetAll(ctx, getSessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if len(data) == 0 {
		return nil, ErrNotFound
	}

	userID, err := uuid.Parse(data["user_id"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse session user id: %w", err)
	}

	isLoggedIn, _ := strconv.ParseBool(data["is_logged_in"])
	createdAtUnix, _ := strconv.ParseInt(data["created_at"], 10, 64)

	return &Session{
		ID:         id,
		UserID:     userID,
		IsLoggedIn: isLoggedIn,
		CreatedAt:  time.Unix(createdAtUnix, 0),
	}, nil
}

// Delete removes a session record. Deleting a missing record is not an error.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, getSessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Touch refreshes the idle TTL of a session.
func (r *RedisStore) Touch(ctx context.Context, id string) error {
	if err := r.client.Expire(ctx, getSessionKey(id), r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

// Push appends a flash message to the session's category queue. The queue
// TTL is bounded by the session TTL so orphaned queues disappear.
func (r *RedisStore) Push(ctx context.Context, sessionID, category, message string) error {
	key := getFlashKey(sessionID, category)

	pipe := r.client.Pipeline()
	pipe.RPush(ctx, key, message)
	pipe.Expire(ctx, key, r.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push flash message: %w", err)
	}

	return nil
}

// Drain returns all queued messages for a category and clears them in the
// same transaction, so a message is read exactly once.
func (r *RedisStore) Drain(ctx context.Context, sessionID, category string) ([]string, error) {
	key := getFlashKey(sessionID, category)

	pipe := r.client.TxPipeline()
	lrange := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to drain flash messages: %w", err)
	}

	return lrange.Val(), nil
}
