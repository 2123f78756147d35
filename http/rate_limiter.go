package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterCleanupThreshold = 1 * time.Hour
	cleanupInterval         = 30 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client.
type RateLimiter struct {
	mu          sync.Mutex
	limit       rate.Limit
	burst       int
	clients     map[string]*clientLimiter
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewRateLimiter allows each client capacity requests per window, refilled
// continuously.
func NewRateLimiter(capacity int, window time.Duration) *RateLimiter {
	if capacity < 1 {
		capacity = 1
	}
	rl := &RateLimiter{
		limit:       rate.Every(window / time.Duration(capacity)),
		burst:       capacity,
		clients:     make(map[string]*clientLimiter),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (r *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup()
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *RateLimiter) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for client, cl := range r.clients {
		if now.Sub(cl.lastSeen) > limiterCleanupThreshold {
			delete(r.clients, client)
		}
	}
}

func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCleanup) })
}

func (r *RateLimiter) Allow(client string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cl, exists := r.clients[client]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[client] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}
