// Package ratelimit provides fixed-window rate limiting for HTTP requests.
// Limits apply hierarchically: each route has its own window and limit, and
// every request must additionally pass the global per-minute, per-hour and
// per-day gates. The first failing gate wins and determines the reported
// retry delay.
package ratelimit

import "time"

// Limiter is the rate limiting contract. Implementations must be safe for
// concurrent use.
type Limiter interface {
	// Allow checks whether a request identified by key should be allowed
	// and returns window state for populating response headers.
	Allow(key string) (allowed bool, info Info)

	// Close stops background goroutines and releases resources.
	Close()
}

// Info contains window state for response headers.
type Info struct {
	Limit      int           // Maximum requests per window
	Remaining  int           // Requests left in the current window
	ResetAt    time.Time     // When the current window rolls over
	RetryAfter time.Duration // Time until the window rolls over (meaningful only when denied)
}
