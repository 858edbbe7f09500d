package ratelimit

import (
	"sync"
	"time"
)

// PerKeyLimiterConfig configures a PerKeyLimiter instance.
type PerKeyLimiterConfig struct {
	MaxTokens     float64       // Maximum tokens per key (burst capacity)
	RefillRate    float64       // Tokens refilled per second
	CleanupPeriod time.Duration // How often to clean up inactive limiters
}

// PerKeyLimiter tracks rate limits per key (session ID). Each key gets its
// own token bucket; buckets that sit at full capacity are collected
// periodically.
type PerKeyLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
	config   PerKeyLimiterConfig
	onDrop   func()
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewPerKeyLimiter creates a new per-key rate limiter and starts its
// cleanup loop. Callers must Stop it when done.
func NewPerKeyLimiter(cfg PerKeyLimiterConfig) *PerKeyLimiter {
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = 5 * time.Minute
	}
	pkl := &PerKeyLimiter{
		limiters: make(map[string]*Limiter),
		config:   cfg,
		stopCh:   make(chan struct{}),
	}

	go pkl.cleanupLoop()

	return pkl
}

// OnDrop sets a callback invoked whenever a request is rejected.
func (pkl *PerKeyLimiter) OnDrop(fn func()) {
	pkl.onDrop = fn
}

// Allow checks if a request for the given key is allowed.
// Returns true if allowed (token consumed), false if rate limit exceeded.
// An empty key is never limited.
func (pkl *PerKeyLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}

	pkl.mu.RLock()
	limiter, exists := pkl.limiters[key]
	pkl.mu.RUnlock()

	if !exists {
		pkl.mu.Lock()
		// Double-check after acquiring write lock
		limiter, exists = pkl.limiters[key]
		if !exists {
			limiter = New(pkl.config.MaxTokens, pkl.config.RefillRate)
			pkl.limiters[key] = limiter
		}
		pkl.mu.Unlock()
	}

	allowed := limiter.Allow()
	if !allowed && pkl.onDrop != nil {
		pkl.onDrop()
	}
	return allowed
}

// ActiveCount returns the number of live per-key limiters.
func (pkl *PerKeyLimiter) ActiveCount() int {
	pkl.mu.RLock()
	defer pkl.mu.RUnlock()
	return len(pkl.limiters)
}

// Forget drops the limiter for the given key, if any.
// Called when the owning session is collected.
func (pkl *PerKeyLimiter) Forget(key string) {
	pkl.mu.Lock()
	delete(pkl.limiters, key)
	pkl.mu.Unlock()
}

// Stop terminates the cleanup loop.
func (pkl *PerKeyLimiter) Stop() {
	pkl.stopOnce.Do(func() { close(pkl.stopCh) })
}

func (pkl *PerKeyLimiter) cleanupLoop() {
	ticker := time.NewTicker(pkl.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-pkl.stopCh:
			return
		case <-ticker.C:
			pkl.cleanup()
		}
	}
}

// cleanup removes limiters whose buckets are back at full capacity,
// meaning the key has been idle for at least a full refill cycle.
func (pkl *PerKeyLimiter) cleanup() {
	pkl.mu.Lock()
	defer pkl.mu.Unlock()

	for key, limiter := range pkl.limiters {
		if limiter.IsFull() {
			delete(pkl.limiters, key)
		}
	}
}
