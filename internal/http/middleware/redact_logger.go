// RedactingLogger is the request logger for the roadmap API. Board requests
// routinely carry user identifiers in the path, emails in query strings
// (e.g. moderation lookups), and auth material in headers, none of which
// belongs in log storage. The middleware scrubs those before emitting a
// structured zerolog line per request.
//
// It never logs request or response bodies. Pattern-based redaction covers
// emails, phone numbers, and UUID-shaped identifiers in the query string and
// header values; a small set of headers (Authorization, Cookie, Set-Cookie,
// plus anything in RedactOptions.MaskHeaders) is masked wholesale.
//
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders: []string{"X-User-ID"},
//	}))
//
// Scrubbing is best-effort: clients should still keep PII out of query
// strings where they can.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Precompiled once; ReplaceAllString on these is cheap enough to run on the
// hot path for every request.
var (
	redactUUID  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	redactEmail = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits-only so the loose phone shape cannot eat the hex segments of a
	// UUID. Matches "+1 212-555-1212", "212 555 1212", "(212) 555-1212".
	redactPhone = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// Always masked, regardless of RedactOptions.
var sensitiveHeaders = []string{"authorization", "cookie", "set-cookie"}

// RedactOptions lists extra header names whose values are replaced with
// "[REDACTED]" in logs. Names are matched case-insensitively and merged
// with the built-in sensitive set.
type RedactOptions struct {
	MaskHeaders []string
}

// scrub applies the pattern redactions in a fixed order: UUIDs first (phone
// is the loosest pattern and would otherwise chew on UUID digit runs), then
// emails, then phones.
func scrub(s string) string {
	if s == "" {
		return s
	}
	out := redactUUID.ReplaceAllString(s, "[REDACTED:id]")
	out = redactEmail.ReplaceAllString(out, "[REDACTED:email]")
	return redactPhone.ReplaceAllString(out, "[REDACTED:phone]")
}

// RedactingLogger logs one structured line per request: method, route
// pattern, scrubbed query, status, response size, latency, request id, and
// scrubbed headers. Level tracks the status class: info for success, warn
// for 4xx, error for 5xx.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := make(map[string]struct{}, len(sensitiveHeaders)+len(opts.MaskHeaders))
	for _, h := range sensitiveHeaders {
		masked[h] = struct{}{}
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		// Prefer the route pattern ("/roadmap/:id") over the raw path so
		// path parameters never reach the logs unscrubbed.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := scrub(c.Request.URL.RawQuery)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = scrub(strings.Join(vv, ", "))
		}

		c.Next()

		status := c.Writer.Status()

		// The id RequestID() assigned lives on the response; fall back to
		// the inbound header when the middleware order put us first.
		reqID := c.Writer.Header().Get("X-Request-ID")
		if reqID == "" {
			reqID = c.GetHeader("X-Request-ID")
		}

		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}

		ev.
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
