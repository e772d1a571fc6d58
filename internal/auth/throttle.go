package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Throttle limits login attempts per username.
type Throttle interface {
	// Acquire counts one attempt and returns ErrTooManyAttempts when the
	// window's budget is already spent.
	Acquire(ctx context.Context, username string) error
	// Reset clears the window after a successful login.
	Reset(ctx context.Context, username string) error
}

// LoginThrottle is a fixed-window attempt counter kept in Redis. The
// window starts at the first attempt and the counter expires with it.
// Each attempt is counted before credentials are checked, so concurrent
// logins cannot overshoot maxAttempts.
type LoginThrottle struct {
	redis       *redis.Client
	maxAttempts int64
	window      time.Duration
}

// NewLoginThrottle creates a throttle allowing maxAttempts attempts per window.
func NewLoginThrottle(client *redis.Client, maxAttempts int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{
		redis:       client,
		maxAttempts: int64(maxAttempts),
		window:      window,
	}
}

func (l *LoginThrottle) key(username string) string {
	return "inkwell:login:" + username
}

// Acquire increments the counter and compares the new value.
func (l *LoginThrottle) Acquire(ctx context.Context, username string) error {
	key := l.key(username)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("counting login attempt: %w", err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("setting login window: %w", err)
		}
	}
	if count > l.maxAttempts {
		return ErrTooManyAttempts
	}
	return nil
}

// Attempts returns the attempts counted in the current window.
func (l *LoginThrottle) Attempts(ctx context.Context, username string) (int64, error) {
	count, err := l.redis.Get(ctx, l.key(username)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading login attempts: %w", err)
	}
	return count, nil
}

// Reset clears the counter after a successful login.
func (l *LoginThrottle) Reset(ctx context.Context, username string) error {
	if err := l.redis.Del(ctx, l.key(username)).Err(); err != nil {
		return fmt.Errorf("clearing login attempts: %w", err)
	}
	return nil
}
