// ABOUTME: Per-identity rate limiting of challenge requests
// ABOUTME: One token bucket per public key, created on first use

package authserver

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterRegistry manages a rate limiter for each identity.
type limiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// newLimiterRegistry returns nil when perSecond is not positive, which
// disables limiting.
func newLimiterRegistry(perSecond float64, burst int) *limiterRegistry {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &limiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// allow reports whether identity may make another request at now.
func (r *limiterRegistry) allow(identity string, now time.Time) bool {
	if r == nil {
		return true
	}
	return r.getOrCreate(identity).AllowN(now, 1)
}

func (r *limiterRegistry) getOrCreate(identity string) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[identity]
	r.mu.RUnlock()

	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := r.limiters[identity]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(r.limit, r.burst)
	r.limiters[identity] = limiter
	return limiter
}
