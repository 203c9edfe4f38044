package auth

import (
	"sync"
	"time"
)

/*
RateLimiter is a token bucket: capacity tokens, refilled continuously at the
configured rate.
*/
type RateLimiter struct {
	mu       sync.Mutex
	rate     float64 // tokens per second
	capacity float64
	tokens   float64
	last     time.Time
}

// NewRateLimiter allows rate operations per interval.
func NewRateLimiter(rate int64, interval time.Duration) *RateLimiter {
	if rate <= 0 || interval <= 0 {
		panic("rate and interval must be positive")
	}

	return &RateLimiter{
		rate:     float64(rate) / interval.Seconds(),
		capacity: float64(rate),
		tokens:   float64(rate),
		last:     time.Now(),
	}
}

// Allow consumes a token if one is available.
func (limiter *RateLimiter) Allow() bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	limiter.refill()

	if limiter.tokens < 1.0 {
		return false
	}

	limiter.tokens--
	return true
}

// WaitTime returns how long until the next token becomes available.
func (limiter *RateLimiter) WaitTime() time.Duration {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	limiter.refill()

	if limiter.tokens >= 1.0 {
		return 0
	}

	seconds := (1.0 - limiter.tokens) / limiter.rate
	return time.Duration(seconds * float64(time.Second))
}

// Reset restores the bucket to full capacity.
func (limiter *RateLimiter) Reset() {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	limiter.tokens = limiter.capacity
	limiter.last = time.Now()
}

func (limiter *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(limiter.last).Seconds()
	limiter.last = now

	limiter.tokens = min(limiter.capacity, limiter.tokens+elapsed*limiter.rate)
}
