package http

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedClients caps the number of tracked limiter keys to prevent
// memory exhaustion from rotating source addresses.
const maxTrackedClients = 4096

// RateLimiter applies a per-client token bucket.
// rpm <= 0 disables limiting.
type RateLimiter struct {
	rpm   int
	burst int

	mu      sync.Mutex
	clients map[string]*rate.Limiter
}

// NewRateLimiter creates a limiter allowing rpm requests per minute per
// client with the given burst.
func NewRateLimiter(rpm, burst int) *RateLimiter {
	return &RateLimiter{
		rpm:     rpm,
		burst:   burst,
		clients: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether the client identified by key may proceed.
func (r *RateLimiter) Allow(key string) bool {
	if r.rpm <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lim, ok := r.clients[key]
	if !ok {
		if len(r.clients) >= maxTrackedClients {
			for k := range r.clients {
				delete(r.clients, k)
				break
			}
		}
		lim = rate.NewLimiter(rate.Limit(float64(r.rpm)/60.0), r.burst)
		r.clients[key] = lim
	}
	return lim.Allow()
}
