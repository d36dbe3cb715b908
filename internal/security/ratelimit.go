package security

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter implements a per-client fixed-window limiter, keyed by IP.
// Used on the auth and public acceptance endpoints.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*windowState
	limit   int           // requests per window
	window  time.Duration // window length
}

type windowState struct {
	remaining   int
	windowStart time.Time
}

// NewRateLimiter creates a rate limiter allowing limit requests per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*windowState),
		limit:   limit,
		window:  window,
	}
	go rl.evictStale()
	return rl
}

// Allow checks if a request from the given client key should be allowed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	state, ok := rl.clients[key]
	if !ok || now.Sub(state.windowStart) >= rl.window {
		rl.clients[key] = &windowState{remaining: rl.limit - 1, windowStart: now}
		return true
	}

	if state.remaining > 0 {
		state.remaining--
		return true
	}
	return false
}

// evictStale drops client entries whose window is long past
func (rl *RateLimiter) evictStale() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, state := range rl.clients {
			if now.Sub(state.windowStart) > rl.window*2 {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// GetClientIP extracts the client IP from the request
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
