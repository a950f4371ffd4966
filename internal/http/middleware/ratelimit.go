// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the token-bucket rate limiter that sits in front of the
// roadmap API. Voting and commenting are cheap to spam, so every request is
// charged against a per-identity bucket: authenticated callers get a bucket
// per user id, anonymous callers one per client IP. Buckets live in process
// memory and idle ones are swept out during lookups, so the limiter needs no
// external store.
//
// Replays of an already-completed request (detected by IdempotencyValidator)
// skip the limiter entirely: retrying a comment POST with the same
// Idempotency-Key must not burn tokens.
//
// The limiter is process-local. Behind a load balancer each replica enforces
// its own budget; that is acceptable for abuse control, which is all this is.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc maps a request to the identity whose bucket it drains.
// Keys must be stable for the lifetime of a request.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys buckets by the authenticated user when the auth layer
// stored one under "userID", and by client IP otherwise. The prefixes keep
// the two namespaces from colliding (a user literally named "203.0.113.7"
// must not share a bucket with that address).
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("userID"); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// bucket pairs a limiter with the last time its owner was seen, so idle
// entries can be swept.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per identity.
//
// The map is guarded by a mutex; sweeping happens inline during lookups once
// enough requests have passed, which keeps memory bounded without a
// background goroutine. Safe for concurrent use.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	keyFn   keyFunc
	mu      sync.Mutex
	buckets map[string]*bucket

	idleTTL    time.Duration
	sinceSweep uint64
}

// NewRateLimiter builds a limiter replenishing rps tokens per second with the
// given burst capacity. A burst below 1 is coerced to 1 so a fresh bucket can
// always admit at least one request. Install it with Handler().
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		idleTTL: 10 * time.Minute,
	}
}

// bucketFor returns the limiter for key, creating it on first sight.
//
// The sweep runs before the requested key is touched: otherwise fetching a
// long-idle bucket would refresh its lastSeen and exempt it from the very
// sweep that should drop it.
func (rl *RateLimiter) bucketFor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	rl.sinceSweep++
	if rl.sinceSweep >= 5000 {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.sinceSweep = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		lim := b.limiter
		rl.mu.Unlock()
		return lim
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	rl.mu.Unlock()
	return lim
}

// IsRateBypass reports whether IdempotencyValidator flagged this request as a
// replay of completed work. Handler() serves such requests without charging a
// token.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass) // set by IdempotencyValidator
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns the enforcing middleware.
//
// A request either passes (replay bypass, or its bucket has a token) or is
// rejected with 429 and the standard error envelope:
//
//	HTTP/1.1 429 Too Many Requests
//	{
//	  "success":    false,
//	  "request_id": "<uuid>",
//	  "code":       "too_many_requests",
//	  "message":    "rate limit exceeded"
//	}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		lim := rl.bucketFor(rl.keyFn(c))
		if lim.Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success":    false,
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
