package signaling

import (
	"sync"
	"time"
)

// rateLimiter is a token bucket that refills continuously.
type rateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// newRateLimiter returns nil when refillRate is not positive, which
// disables limiting.
func newRateLimiter(maxTokens, refillRate int) *rateLimiter {
	if refillRate <= 0 {
		return nil
	}
	if maxTokens <= 0 {
		maxTokens = refillRate
	}
	return &rateLimiter{
		tokens:     float64(maxTokens),
		maxTokens:  float64(maxTokens),
		refillRate: float64(refillRate),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if elapsed := now.Sub(r.lastRefill); elapsed > 0 {
		r.tokens = min(r.maxTokens, r.tokens+elapsed.Seconds()*r.refillRate)
		r.lastRefill = now
	}

	if r.tokens >= 1 {
		r.tokens--
		return true
	}
	return false
}
