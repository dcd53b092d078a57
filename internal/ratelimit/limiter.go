package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ipWindow      = 15 * time.Minute
	ipLimit       = 10
	emailCooldown = 2 * time.Minute
)

// Limiter implements fixed-window per-IP rate limits plus a per-email
// cooldown, both backed by Redis so limits hold across instances.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// getIPKey generates the Redis key for an IP's request counter
func getIPKey(ip, purpose string) string {
	return fmt.Sprintf("ratelimit:ip:%s:%s", purpose, ip)
}

// getEmailCooldownKey generates the Redis key for an email cooldown marker
func getEmailCooldownKey(email string) string {
	return fmt.Sprintf("ratelimit:email:%s", email)
}

// CheckIPRateLimitWithPurpose reports whether the IP has exceeded its window
// for the given purpose (login, signup, reset).
func (l *Limiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	count, err := l.client.Get(ctx, getIPKey(ip, purpose)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check IP rate limit: %w", err)
	}

	return count >= ipLimit, nil
}

// RecordIPRequestWithPurpose counts a request against the IP's window.
func (l *Limiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	key := getIPKey(ip, purpose)

	pipe := l.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ipWindow)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record IP request: %w", err)
	}

	return nil
}

// CheckEmailCooldown reports whether the email is still on cooldown.
func (l *Limiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	exists, err := l.client.Exists(ctx, getEmailCooldownKey(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check email cooldown: %w", err)
	}
	return exists > 0, nil
}

// SetEmailCooldown starts the cooldown window for an email.
func (l *Limiter) SetEmailCooldown(ctx context.Context, email string) error {
	if err := l.client.Set(ctx, getEmailCooldownKey(email), "1", emailCooldown).Err(); err != nil {
		return fmt.Errorf("failed to set email cooldown: %w", err)
	}
	return nil
}
