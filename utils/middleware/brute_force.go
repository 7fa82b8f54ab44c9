package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/devcamper-api/utils/logger"
)

// AttemptStore is the subset of utils/cache.RedisCache the lockout needs
type AttemptStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// attemptWindow is how long failed attempts are remembered
const attemptWindow = 15 * time.Minute

// BruteForceProtection applies progressive lockouts per IP. A nil
// *BruteForceProtection allows everything.
type BruteForceProtection struct {
	store AttemptStore
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(store AttemptStore) *BruteForceProtection {
	return &BruteForceProtection{store: store}
}

func attemptKey(ip string) string { return fmt.Sprintf("brute_force:attempts:%s", ip) }
func lockKey(ip string) string    { return fmt.Sprintf("brute_force:lock:%s", ip) }

// Guard rejects requests from locked out IPs
func (b *BruteForceProtection) Guard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if b == nil {
			return c.Next()
		}
		key := lockKey(c.IP())

		locked, err := b.store.Exists(c.UserContext(), key)
		if err != nil {
			// Don't block legitimate users due to cache issues
			logger.Warningf("brute force check failed: %v", err)
			return c.Next()
		}
		if !locked {
			return c.Next()
		}

		retryAfter := 60
		if ttl, err := b.store.TTL(c.UserContext(), key); err == nil && ttl > 0 {
			retryAfter = int(ttl.Seconds())
		}

		c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retryAfter))
		return fiber.NewError(fiber.StatusTooManyRequests,
			fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
	}
}

// lockDuration returns the lockout for the given number of failures
func lockDuration(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	default:
		return 0
	}
}

// RecordFailure counts a failed login and locks the IP once over a threshold
func (b *BruteForceProtection) RecordFailure(ctx context.Context, ip string) {
	if b == nil {
		return
	}

	attempts, err := b.store.Increment(ctx, attemptKey(ip))
	if err != nil {
		logger.Warningf("failed to record login attempt: %v", err)
		return
	}
	if attempts == 1 {
		if err := b.store.Expire(ctx, attemptKey(ip), attemptWindow); err != nil {
			logger.Warningf("failed to expire login attempts: %v", err)
		}
	}

	if d := lockDuration(attempts); d > 0 {
		if err := b.store.Set(ctx, lockKey(ip), "locked", d); err != nil {
			logger.Warningf("failed to lock %s: %v", ip, err)
		}
	}
}

// RecordSuccess clears failed attempts and any lock for the IP
func (b *BruteForceProtection) RecordSuccess(ctx context.Context, ip string) {
	if b == nil {
		return
	}
	if err := b.store.Delete(ctx, attemptKey(ip), lockKey(ip)); err != nil {
		logger.Warningf("failed to clear login attempts: %v", err)
	}
}
