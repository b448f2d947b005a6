package ratelimit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"updaterelay/internal/models"
)

// Gate pairs a limiter with a scope label for logging.
type Gate struct {
	Scope   string
	Limiter Limiter
}

// Chain is an ordered set of gates a request must pass. The first gate is
// the route-specific one and supplies the X-RateLimit-* headers; the rest
// are the global gates.
type Chain struct {
	gates []Gate
}

// NewChain builds a gate chain. Gates are checked in order and the first
// denial short-circuits.
func NewChain(gates ...Gate) *Chain {
	return &Chain{gates: gates}
}

// Wrap applies the chain to a handler, keyed by client IP. Denial writes a
// 429 with the standard error envelope before any other component runs.
func (c *Chain) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := getClientIP(r)

		for i, gate := range c.gates {
			allowed, info := gate.Limiter.Allow(key)

			// Route-scope headers are always present so well-behaved
			// clients can pace themselves.
			if i == 0 {
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
				w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetAt.Unix()))
			}

			if !allowed {
				retryAfterSecs := int(info.RetryAfter.Seconds()) + 1
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSecs))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(models.NewErrorResponse("Rate limit exceeded", ""))

				slog.Warn("Rate limit exceeded",
					"key", key,
					"scope", gate.Scope,
					"limit", info.Limit,
					"retry_after", retryAfterSecs,
				)
				return
			}
		}

		next(w, r)
	}
}

// getClientIP extracts the client IP from the request, checking proxy
// headers first.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}
