// Request correlation, access logging, and panic recovery for the roadmap
// API.
//
// Every request gets an X-Request-ID (reused from the client when present),
// one structured access-log line, and a request-scoped zerolog.Logger that
// handlers fetch with LoggerFrom to tag their own entries with the same
// correlation id. Panics become the standard JSON error envelope instead of
// a dropped connection.
//
// Wire RequestID first, then a logger (Logger here, or RedactingLogger when
// PII scrubbing is wanted), then Recovery, so a panic is still logged with
// its request id.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// Gin context key for the correlation id.
	requestIDKey = "requestID"
	// Header the id is read from and echoed back on.
	requestIDHeader = "X-Request-ID"
	// Raw query strings longer than this are cut in logs. Board list URLs
	// with many filters stay well under it.
	maxQueryLogLength = 2048
)

// RequestID reuses the caller's X-Request-ID or mints a UUIDv4, stores it in
// the Gin context under "requestID", and sets it on the response. Must run
// before anything that logs or builds error envelopes.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger emits one access-log line per request (method, route, client IP,
// user agent, sizes, status, latency) and parks a request-scoped logger in
// the context under "logger" for handlers to pick up via LoggerFrom.
//
// Level follows the outcome: error when Gin collected errors or the status
// is 5xx, warn for 4xx, info otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid, _ := c.Get(requestIDKey)
		uid, _ := c.Get("userID")
		// Log the route pattern, falling back to the raw path on 404s.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		l := log.With().
			Str("request_id", asString(rid)).
			Str("user_id", asString(uid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("referer", c.Request.Referer()).
			Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
			Int64("bytes_in", c.Request.ContentLength). // -1 when unknown
			Logger()

		c.Set("logger", &l)

		c.Next()

		ev := l.With().
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Int("bytes_out", c.Writer.Size()).
			Logger()

		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			ev.Error().Str("errors", c.Errors.String()).Msg("request")
		case status >= 500:
			ev.Error().Msg("request")
		case status >= 400:
			ev.Warn().Msg("request")
		default:
			ev.Info().Msg("request")
		}
	}
}

// Recovery turns a panic into a logged stack trace plus the API's JSON error
// envelope:
//
//	{"success": false, "request_id": "...", "code": "internal_error", "message": "internal server error"}
//
// When the handler already wrote part of a response, only the status can be
// forced to 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(requestIDKey)
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", asString(rid)).
					Msg("panic recovered")

				if !c.Writer.Written() {
					c.Header("Content-Type", "application/json")
					c.Header(requestIDHeader, asString(rid))
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"success":    false,
						"request_id": asString(rid),
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the logger Logger() attached to this request, or a
// field-less fallback so callers never need a nil check.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get("logger"); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// asString reads a context value as a string, "" for anything else.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate cuts s to max bytes plus an ellipsis. max <= 0 disables the cut.
// Byte-level slicing can split a rune, which is fine for log output.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
