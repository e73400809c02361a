// Package ratelimit implements fixed-window request limits backed by Redis.
//
// Limits fail open: when Redis is unavailable (or not configured) requests
// are let through and the failure is logged.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited      = errors.New("rate limited")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Rule is one named limit: at most Max hits per Window for a key.
type Rule struct {
	Name    string
	Max     int
	Window  time.Duration
	Message string
	// FailuresOnly counts only requests answered with status >= 400.
	FailuresOnly bool
}

// Result is the counter state after a check.
type Result struct {
	Count     int
	Remaining int
	Reset     time.Duration
}

type Limiter struct {
	redis  redis.UniversalClient
	prefix string
}

func NewLimiter(client redis.UniversalClient, prefix string) *Limiter {
	if prefix == "" {
		prefix = "rl"
	}
	return &Limiter{redis: client, prefix: prefix}
}

func (l *Limiter) key(rule Rule, subject string) string {
	return fmt.Sprintf("%s:%s:%s", l.prefix, rule.Name, subject)
}

// Hit increments the counter for subject and returns ErrRateLimited once the
// count exceeds rule.Max. The window starts on the first hit. Creating the key
// with its expiry and incrementing it happen in one MULTI block, so a counter
// can never be left without a TTL.
func (l *Limiter) Hit(ctx context.Context, rule Rule, subject string) (Result, error) {
	key := l.key(rule, subject)

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SetNX(ctx, key, 0, rule.Window)
		incr = pipe.Incr(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	count := int(incr.Val())
	reset := rule.Window
	if ttl := pttl.Val(); ttl > 0 {
		reset = ttl
	}
	res := Result{Count: count, Remaining: max(rule.Max-count, 0), Reset: reset}
	if count > rule.Max {
		return res, ErrRateLimited
	}
	return res, nil
}

// Peek reports the current count without incrementing it, returning
// ErrRateLimited if the limit is already reached.
func (l *Limiter) Peek(ctx context.Context, rule Rule, subject string) (Result, error) {
	key := l.key(rule, subject)

	count, err := l.redis.Get(ctx, key).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Result{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	res := l.result(ctx, rule, key, count)
	if count >= rule.Max {
		return res, ErrRateLimited
	}
	return res, nil
}

func (l *Limiter) result(ctx context.Context, rule Rule, key string, count int) Result {
	reset := rule.Window
	if ttl, err := l.redis.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		reset = ttl
	}
	return Result{
		Count:     count,
		Remaining: max(rule.Max-count, 0),
		Reset:     reset,
	}
}
