// Package ratelimit bounds how often a client may call an endpoint, using
// fixed windows counted in Redis so every server instance shares the limit.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule allows Limit calls per Window for one client.
type Rule struct {
	Name   string
	Limit  int64
	Window time.Duration
}

// Decision is the verdict for a single call.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter counts calls per (rule, client) in fixed windows kept in Redis.
// The first call in a window creates the counter and arms its expiry; the
// window therefore starts at that call, not on a wall-clock boundary.
type Limiter struct {
	client redis.Cmdable
}

// NewLimiter returns a Limiter over client. Any redis.Cmdable works, so a
// cluster or ring client can be passed as well as a plain *redis.Client.
func NewLimiter(client redis.Cmdable) *Limiter {
	return &Limiter{client: client}
}

func windowKey(rule Rule, client string) string {
	return fmt.Sprintf("ratelimit:%s:%s", rule.Name, client)
}

// Allow counts one call by client against rule.
func (l *Limiter) Allow(ctx context.Context, rule Rule, client string) (Decision, error) {
	if rule.Limit <= 0 || rule.Window <= 0 {
		return Decision{Allowed: true}, nil
	}
	key := windowKey(rule, client)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("count call: %w", err)
	}
	if count == 1 {
		if err := l.client.PExpire(ctx, key, rule.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("start window: %w", err)
		}
	}

	if count <= rule.Limit {
		return Decision{Allowed: true, Remaining: rule.Limit - count}, nil
	}

	ttl, err := l.client.PTTL(ctx, key).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("read window: %w", err)
	}
	if ttl < 0 {
		// the window lost its expiry; restart it rather than block forever
		if err := l.client.PExpire(ctx, key, rule.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("restart window: %w", err)
		}
		ttl = rule.Window
	}
	return Decision{Allowed: false, RetryAfter: ttl}, nil
}
