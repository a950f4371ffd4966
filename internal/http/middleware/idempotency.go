// Idempotency-Key handling for the unsafe endpoints (comment creation,
// upvote toggles). Clients retrying a POST send the same key; the middleware
// validates the header, stashes the key in the Gin context, and, when the
// lookup says the operation already completed, flags the request as a replay
// so the handler can serve the stored outcome and the rate limiter can wave
// it through.
//
// Persistence stays out of this file: the repo layer supplies a lookup
// function, keeping the middleware at transport concerns only.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client's retry
// key. The value must be stable across retries of one semantic operation.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys for idempotency state; read through the accessors below.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // true when a stored result exists
	ctxKeyRateBypass = "rate.bypass" // true to skip rate limiting
)

// GetIdempotencyKey returns the validated key IdempotencyValidator stored
// for this request. Handlers use this instead of re-reading the header.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request repeats an operation that already
// completed for the same (user, item, key). Handlers then return the
// persisted result instead of redoing the work.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions tunes header validation. TTL expiry is the lookup's
// responsibility, not the middleware's.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. Nil selects a conservative
	// token pattern: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a successful, unexpired record exists
// for (userID, itemID, key) as of now. Errors mean the lookup itself failed
// and must not block the request.
type IdempotencyLookup func(ctx context.Context, userID, itemID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator checks the Idempotency-Key header when present,
// rejects malformed keys with a 400, and consults the lookup to flag
// replays. Requests without the header pass through untouched.
//
// The middleware never serves a cached payload itself; it only marks the
// context (IsReplay, rate bypass) and leaves the response to the handler.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			uid := userIDFromCtx(c)
			itemID := c.Param("id") // POST /roadmap/:id/comments and /upvote
			now := time.Now().UTC()

			if exists, _ := lookup(c.Request.Context(), uid, itemID, key, now); exists {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}

// userIDFromCtx mirrors the handlers' identity resolution: the auth
// middleware's "userID" context value, else the demo fallback.
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return "demo-user"
}
