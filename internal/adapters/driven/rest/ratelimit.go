package rest

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HeaderRetryAfter is the retry-after header (seconds).
const HeaderRetryAfter = "Retry-After"

// RateLimiter throttles outgoing requests with a token bucket and honours
// Retry-After from 429 responses.
type RateLimiter struct {
	bucket *rate.Limiter

	mu         sync.Mutex
	blockedTil time.Time
}

// NewRateLimiter allows perSecond requests per second with a burst of the
// same size. perSecond <= 0 disables throttling.
func NewRateLimiter(perSecond float64) *RateLimiter {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = max(1, int(perSecond))
	}
	return &RateLimiter{bucket: rate.NewLimiter(limit, burst)}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	until := r.blockedTil
	r.mu.Unlock()

	if d := time.Until(until); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return r.bucket.Wait(ctx)
}

// Observe records a Retry-After from a 429 response.
func (r *RateLimiter) Observe(resp *http.Response) {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return
	}
	secs, err := strconv.Atoi(resp.Header.Get(HeaderRetryAfter))
	if err != nil || secs <= 0 {
		return
	}
	r.mu.Lock()
	r.blockedTil = time.Now().Add(time.Duration(secs) * time.Second)
	r.mu.Unlock()
}
