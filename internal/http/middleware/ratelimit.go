package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nordprofil/quote-ai/internal/config"
)

type windowCounter struct {
	windowStart time.Time
	count       int
}

// RateLimiter applies a fixed-window request limit per client IP.
type RateLimiter struct {
	limit  int
	window time.Duration

	mu        sync.Mutex
	counters  map[string]*windowCounter
	now       func() time.Time
	lastSweep time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limit:    cfg.Requests,
		window:   time.Duration(cfg.WindowS) * time.Second,
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

// Allow reports whether another request from the client fits in the current
// window.
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)
	counter, ok := rl.counters[clientID]
	if !ok || now.Sub(counter.windowStart) >= rl.window {
		rl.counters[clientID] = &windowCounter{windowStart: now, count: 1}
		return true
	}
	if counter.count >= rl.limit {
		return false
	}
	counter.count++
	return true
}

// sweep drops counters whose window has lapsed, at most once per window, so
// the map does not grow with the number of distinct clients ever seen. Caller
// holds the lock.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.window {
		return
	}
	rl.lastSweep = now
	for clientID, counter := range rl.counters {
		if now.Sub(counter.windowStart) >= rl.window {
			delete(rl.counters, clientID)
		}
	}
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
