// Package ratelimit paces outbound REST calls so the connector stays inside
// the exchange's documented request quotas. It wraps Uber's token bucket
// limiter behind a small interface that supports context-aware waiting and
// runtime adjustment of the configured rate.
//
// The REST client in pkg/rest takes a RateLimiter and calls Wait before every
// request; the streaming side does not rate limit (heartbeats are already
// periodic by construction).
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/ratelimit"
)

// Rate describes how many operations are allowed within an interval, for
// example {Limit: 120, Interval: time.Minute}.
type Rate struct {
	Limit    int
	Interval time.Duration
}

// perSecond converts the rate to whole operations per second, the unit the
// underlying bucket works in. Rates below 1/s round up to 1.
func (r Rate) perSecond() int {
	rps := int(float64(r.Limit) / r.Interval.Seconds())
	if rps < 1 {
		return 1
	}
	return rps
}

func (r Rate) valid() bool {
	return r.Limit > 0 && r.Interval > 0
}

// RateLimiter controls the pace of operations. Wait blocks until an
// operation is permitted or the context is cancelled.
type RateLimiter interface {
	Wait(ctx context.Context) error

	// SetLimit replaces the current rate. Returns an error if the rate is
	// non-positive.
	SetLimit(limit Rate) error
}

type tokenBucket struct {
	limiter ratelimit.Limiter
}

// NewTokenBucketLimiter creates a RateLimiter with the given rate. An
// invalid rate falls back to one operation per second.
func NewTokenBucketLimiter(rate Rate) RateLimiter {
	if !rate.valid() {
		rate = Rate{Limit: 1, Interval: time.Second}
	}
	return &tokenBucket{limiter: ratelimit.New(rate.perSecond())}
}

func (b *tokenBucket) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	b.limiter.Take()
	return nil
}

func (b *tokenBucket) SetLimit(rate Rate) error {
	if !rate.valid() {
		return fmt.Errorf("invalid rate limit: %+v", rate)
	}
	// ratelimit.Limiter has no reconfiguration; swap in a fresh bucket.
	b.limiter = ratelimit.New(rate.perSecond())
	return nil
}
