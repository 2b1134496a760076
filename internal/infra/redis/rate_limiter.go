package redis

import (
	"context"
	"time"
)

// AttemptQuota is the state of a donation's confirm budget after one
// counted attempt.
type AttemptQuota struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// RateLimiter caps confirm attempts per donation in a fixed window that
// starts at the first attempt.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow counts one attempt against key. A counter found without an expiry
// gets the window armed again so it cannot block the donation forever.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (AttemptQuota, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return AttemptQuota{}, err
	}

	resetIn := window
	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return AttemptQuota{}, err
		}
	} else if ttl, err := r.client.TTL(ctx, key); err == nil {
		if ttl < 0 {
			_ = r.client.Expire(ctx, key, window)
		} else {
			resetIn = ttl
		}
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return AttemptQuota{Allowed: count <= int64(limit), Remaining: remaining, ResetIn: resetIn}, nil
}

func DonationAttemptKey(donationID string) string {
	return "rate_limit:pickup_confirm:" + donationID
}
