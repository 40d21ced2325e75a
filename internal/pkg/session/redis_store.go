// internal/pkg/session/redis_store.go
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	maxLoginAttempts    = 5
	loginWindow         = 15 * time.Minute
	maxPasswordResets   = 3
	passwordResetWindow = time.Hour
	maxSubmissions      = 10
	submissionWindow    = 10 * time.Minute
)

type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// allow counts a hit on key and reports whether it is within limit for the
// window that started with the first hit.
func (r *RateLimiter) allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, window)
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= limit, remaining, nil
}

// CheckLoginAttempt allows 5 attempts per 15 minutes per ip and email.
func (r *RateLimiter) CheckLoginAttempt(ctx context.Context, ip, email string) (bool, int64, error) {
	return r.allow(ctx, loginKey(ip, email), maxLoginAttempts, loginWindow)
}

// ResetLoginAttempts resets the login attempt counter
func (r *RateLimiter) ResetLoginAttempts(ctx context.Context, ip, email string) error {
	return r.client.Del(ctx, loginKey(ip, email)).Err()
}

// CheckPasswordResetAttempt allows 3 reset emails per hour per address.
func (r *RateLimiter) CheckPasswordResetAttempt(ctx context.Context, email string) (bool, error) {
	ok, _, err := r.allow(ctx, "ratelimit:password_reset:"+strings.ToLower(email), maxPasswordResets, passwordResetWindow)
	return ok, err
}

// CheckSubmissionAttempt throttles public form submissions per client ip.
func (r *RateLimiter) CheckSubmissionAttempt(ctx context.Context, ip, form string) (bool, error) {
	ok, _, err := r.allow(ctx, fmt.Sprintf("ratelimit:submit:%s:%s", form, ip), maxSubmissions, submissionWindow)
	return ok, err
}

func loginKey(ip, email string) string {
	return fmt.Sprintf("ratelimit:login:%s:%s", ip, strings.ToLower(email))
}
