package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/teampulse/auth-service/internal/domain/auth"
)

// ErrUnavailable indicates the cache backend is unreachable. Login
// throttling is a security control, so callers must treat this as a
// dependency failure rather than skipping the check.
var ErrUnavailable = errors.New("lockout cache unavailable")

type LockoutConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	AttemptWindow time.Duration `mapstructure:"attempt_window"`
	LockoutTTL    time.Duration `mapstructure:"lockout_ttl"`
}

var _ auth.LockoutCache = (*LockoutRepo)(nil)

// LockoutRepo tracks failed login attempts per email and temporary deny
// flags per email/user, all with self-expiring keys.
type LockoutRepo struct {
	client goredis.UniversalClient
	cfg    LockoutConfig
}

func NewLockoutRepo(client goredis.UniversalClient, cfg LockoutConfig) *LockoutRepo {
	return &LockoutRepo{client: client, cfg: cfg}
}

func attemptsKey(email string) string { return "login_attempts:" + email }
func emailLockKey(email string) string { return "blacklist:user:email:" + email }
func userLockKey(userID string) string { return "blacklist:user:" + userID }

// RecordFailedAttempt increments the per-email failure counter and flips
// the email blacklist flag once the threshold is crossed. The window TTL
// is set only on the first failure, so the counter lapses as one unit.
func (r *LockoutRepo) RecordFailedAttempt(ctx context.Context, email string) error {
	count, err := r.client.Incr(ctx, attemptsKey(email)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, attemptsKey(email), r.cfg.AttemptWindow).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if count >= int64(r.cfg.MaxAttempts) {
		if err := r.client.Set(ctx, emailLockKey(email), "1", r.cfg.LockoutTTL).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	return nil
}

func (r *LockoutRepo) ClearAttempts(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, attemptsKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *LockoutRepo) IsEmailLocked(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, emailLockKey(email))
}

func (r *LockoutRepo) IsUserBlacklisted(ctx context.Context, userID string) (bool, error) {
	return r.exists(ctx, userLockKey(userID))
}

// BlacklistUser sets the per-user deny flag directly. Called on refresh
// token reuse detection, bypassing the attempt counter.
func (r *LockoutRepo) BlacklistUser(ctx context.Context, userID string, ttl time.Duration) error {
	if err := r.client.Set(ctx, userLockKey(userID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *LockoutRepo) exists(ctx context.Context, key string) (bool, error) {
	_, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return true, nil
}
