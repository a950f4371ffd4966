// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file adds the security headers every roadmap API response carries.
// The API serves JSON to a browser-based board, so the baseline is the
// browser-facing set (nosniff, frame denial, referrer suppression); HSTS is
// opt-in because local and proxy-terminated deployments often speak plain
// HTTP on the last hop, where the header would do harm.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions selects which optional header groups SecurityHeaders emits.
//
// EnableHSTS must only be turned on when the whole path to the app is HTTPS,
// proxy hop included; the header is skipped for plain-HTTP requests either
// way. HSTSMaxAge defaults to 180 days when unset. NoStore adds the
// anti-caching trio for sensitive responses. EnablePolicy adds the browser
// feature policies, which non-browser clients simply ignore.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	NoStore      bool
	EnablePolicy bool
}

// SecurityHeaders returns a middleware stamping the hardening headers onto
// every response.
//
// Always: X-Content-Type-Options: nosniff, X-Frame-Options: DENY,
// Referrer-Policy: no-referrer. The optional groups follow SecurityOptions.
// When an upstream middleware already set X-Request-ID, it is appended to
// Access-Control-Expose-Headers so browser clients can read it for support
// requests.
//
// No Content-Security-Policy is emitted here: the API returns JSON only, and
// a CSP belongs wherever the HTML is served.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		// never advertise HSTS on a plain-HTTP request
		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security",
				"max-age="+strconv.Itoa(maxAge)+"; includeSubDomains; preload")
		}

		if rid := h.Get("X-Request-ID"); rid != "" {
			// append without clobbering headers exposed by CORS
			const hdr = "Access-Control-Expose-Headers"
			cur := h.Get(hdr)
			if cur == "" {
				h.Set(hdr, "X-Request-ID")
			} else if !strings.Contains(cur, "X-Request-ID") {
				h.Set(hdr, cur+", X-Request-ID")
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether the request arrived over TLS, directly or via a
// proxy that set X-Forwarded-Proto.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
