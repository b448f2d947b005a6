package ratelimit

import (
	"sync"
	"time"
)

// entry holds one client's window state plus its last access time for
// cleanup.
type entry struct {
	count       int
	windowStart time.Time
	lastSeen    time.Time
}

// MemoryLimiter is an in-memory fixed-window rate limiter. Each unique key
// gets its own counter; when a window's duration has elapsed the counter
// resets and the window restarts at the current instant. A background
// goroutine periodically evicts entries not accessed within 2x the cleanup
// interval. State is process-local and lost on restart, which is acceptable
// for best-effort limiting.
type MemoryLimiter struct {
	limit           int
	window          time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	done    chan struct{}
	closed  bool
}

// NewMemoryLimiter creates a limiter allowing limit requests per window per
// key. It starts a background goroutine for eviction.
func NewMemoryLimiter(limit int, window, cleanupInterval time.Duration) *MemoryLimiter {
	m := &MemoryLimiter{
		limit:           limit,
		window:          window,
		cleanupInterval: cleanupInterval,
		now:             time.Now,
		entries:         make(map[string]*entry),
		done:            make(chan struct{}),
	}
	go m.cleanup()
	return m
}

// Allow checks whether a request from the given key should be allowed.
func (m *MemoryLimiter) Allow(key string) (bool, Info) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	e, exists := m.entries[key]
	if !exists {
		e = &entry{windowStart: now}
		m.entries[key] = e
	}

	if now.Sub(e.windowStart) >= m.window {
		e.count = 0
		e.windowStart = now
	}

	e.count++
	e.lastSeen = now

	allowed := e.count <= m.limit

	remaining := m.limit - e.count
	if remaining < 0 {
		remaining = 0
	}

	info := Info{
		Limit:     m.limit,
		Remaining: remaining,
		ResetAt:   e.windowStart.Add(m.window),
	}
	if !allowed {
		info.RetryAfter = m.window - now.Sub(e.windowStart)
	}

	return allowed, info
}

// Close stops the background cleanup goroutine.
func (m *MemoryLimiter) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
}

// cleanup periodically evicts stale entries.
func (m *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictStale()
		}
	}
}

// evictStale removes entries not accessed within 2x the cleanup interval.
func (m *MemoryLimiter) evictStale() {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-2 * m.cleanupInterval)
	for key, e := range m.entries {
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, key)
		}
	}
}
