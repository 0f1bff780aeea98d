package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Window is one fixed-window limit.
type Window struct {
	Limit  int
	Period time.Duration
}

// Result reports the outcome of a check against the tightest window.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter counts requests per identifier in fixed Redis windows.
type Limiter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewLimiter creates a limiter storing counters under prefix.
func NewLimiter(client *redis.Client, prefix string) *Limiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &Limiter{client: client, prefix: prefix, now: time.Now}
}

// Allow increments the counters for identifier in every window and reports
// whether all of them are still within their limit. Windows with a
// non-positive limit are ignored.
func (l *Limiter) Allow(ctx context.Context, identifier string, windows ...Window) (Result, error) {
	now := l.now()
	result := Result{Allowed: true, Remaining: -1}

	for _, w := range windows {
		if w.Limit <= 0 || w.Period <= 0 {
			continue
		}
		bucket := now.UnixNano() / int64(w.Period)
		key := fmt.Sprintf("%s:%s:%d:%d", l.prefix, identifier, int64(w.Period/time.Second), bucket)

		pipe := l.client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, w.Period)
		if _, err := pipe.Exec(ctx); err != nil {
			return Result{}, fmt.Errorf("rate limit %s: %w", identifier, err)
		}

		count := int(incr.Val())
		remaining := w.Limit - count
		if remaining < 0 {
			remaining = 0
		}
		if result.Remaining < 0 || remaining < result.Remaining {
			result.Limit = w.Limit
			result.Remaining = remaining
			result.ResetAt = time.Unix(0, (bucket+1)*int64(w.Period))
		}
		if count > w.Limit {
			result.Allowed = false
		}
	}

	if result.Remaining < 0 {
		result.Remaining = 0
	}
	return result, nil
}
