package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const loginKeyPrefix = "admin_login_fail:"

// LoginLimiter counts failed logins per client in Redis. A nil Client
// disables throttling.
type LoginLimiter struct {
	Client      *redis.Client
	MaxAttempts int
	Window      time.Duration
}

func NewLoginLimiter(client *redis.Client, maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{Client: client, MaxAttempts: maxAttempts, Window: window}
}

func (l *LoginLimiter) enabled() bool {
	return l != nil && l.Client != nil && l.MaxAttempts > 0
}

// Allowed reports whether key may try again and, if not, how long until the
// window expires.
func (l *LoginLimiter) Allowed(ctx context.Context, key string) (bool, time.Duration, error) {
	if !l.enabled() {
		return true, 0, nil
	}
	count, err := l.Client.Get(ctx, loginKeyPrefix+key).Int()
	if err == redis.Nil {
		return true, 0, nil
	}
	if err != nil {
		return true, 0, fmt.Errorf("read login attempts: %w", err)
	}
	if count < l.MaxAttempts {
		return true, 0, nil
	}
	ttl, err := l.Client.TTL(ctx, loginKeyPrefix+key).Result()
	if err != nil {
		return false, l.Window, nil
	}
	return false, ttl, nil
}

// Fail records a failed attempt. The window starts at the first failure.
func (l *LoginLimiter) Fail(ctx context.Context, key string) error {
	if !l.enabled() {
		return nil
	}
	k := loginKeyPrefix + key
	count, err := l.Client.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("count login failure: %w", err)
	}
	if count == 1 {
		if err := l.Client.Expire(ctx, k, l.Window).Err(); err != nil {
			return fmt.Errorf("set login window: %w", err)
		}
	}
	return nil
}

func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	if !l.enabled() {
		return nil
	}
	return l.Client.Del(ctx, loginKeyPrefix+key).Err()
}
