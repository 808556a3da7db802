package safety

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket shared by every request to one provider.
type RateLimiter struct {
	capacity   float64
	tokens     float64
	perSecond  float64
	lastRefill time.Time
	mutex      sync.Mutex
	name       string
	now        func() time.Time
}

// NewRateLimiter allows perSecond requests on average with bursts of up to
// burst requests. burst < 1 is treated as 1 and perSecond <= 0 never blocks.
func NewRateLimiter(name string, perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		capacity:  float64(burst),
		tokens:    float64(burst),
		perSecond: perSecond,
		name:      name,
		now:       time.Now,
	}
	rl.lastRefill = rl.now()
	return rl
}

// Allow takes a token if one is available.
func (rl *RateLimiter) Allow() bool {
	_, ok := rl.reserve()
	return ok
}

// Wait blocks until a token is available or ctx ends.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait, ok := rl.reserve()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve takes a token, or reports how long until one is refilled.
func (rl *RateLimiter) reserve() (time.Duration, bool) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if rl.perSecond <= 0 {
		return 0, true
	}
	rl.refill()
	if rl.tokens >= 1 {
		rl.tokens--
		return 0, true
	}
	missing := 1 - rl.tokens
	return time.Duration(missing / rl.perSecond * float64(time.Second)), false
}

func (rl *RateLimiter) refill() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	rl.tokens += elapsed * rl.perSecond
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
	rl.lastRefill = now
}

// RateLimiterStats holds statistics about a rate limiter
type RateLimiterStats struct {
	Name      string
	Capacity  int
	Tokens    float64
	PerSecond float64
}

func (rl *RateLimiter) GetStats() RateLimiterStats {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	rl.refill()
	return RateLimiterStats{
		Name:      rl.name,
		Capacity:  int(rl.capacity),
		Tokens:    rl.tokens,
		PerSecond: rl.perSecond,
	}
}
