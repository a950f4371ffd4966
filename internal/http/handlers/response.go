// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints:
// a single JSON envelope for success and failure, and helpers that keep every
// handler writing the same shape. The envelope carries a boolean success flag
// so clients can branch without inspecting status codes, a human-readable
// message, and the payload under "data".
//
// Conventions:
//   - All error responses carry a stable machine-readable `code`
//     (see errors.go constants) plus the request correlation ID.
//   - `fail()` centralizes error formatting and logs 5xx responses with
//     request context; `failInternal()` hides unexpected causes behind a
//     generic message.
//   - `ok()` keeps success responses uniform; every endpoint, including
//     deletes, answers with the envelope.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "success": false,
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "roadmap item not found"
//	}
//
// Example success response:
//
//	HTTP/1.1 201 Created
//	{ "success": true, "message": "comment created", "data": { ... } }
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ideapulse/go-roadmap-backend/internal/http/middleware"
)

// APIResponse is the envelope returned by every endpoint.
//
// Success responses set Success=true and put the payload in Data. Error
// responses set Success=false, a stable Code, and echo the X-Request-ID
// header so clients can correlate with server logs.
type APIResponse struct {
	Success bool `json:"success"`
	// Human-readable message, safe to show to users
	Message string `json:"message,omitempty" example:"comment created"`
	// Stable, machine-readable code on errors (see errors.go constants)
	Code string `json:"code,omitempty" example:"not_found"`
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Payload on success
	Data any `json:"data,omitempty"`
}

// fail aborts the request with a structured error envelope.
//
// Server errors (>=500) are logged using the request-scoped logger from
// middleware.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := APIResponse{
		Success:   false,
		Message:   msg,
		Code:      code,
		RequestID: reqID,
	}

	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success envelope with the given status, message, and payload.
func ok(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, APIResponse{Success: true, Message: msg, Data: data})
}

// failInternal answers an unexpected failure with a generic 500 envelope.
// The underlying cause is logged with the request context and never sent to
// the caller.
func failInternal(c *gin.Context, code string, err error) {
	lg := middleware.LoggerFrom(c)
	lg.Error().
		Err(err).
		Str("code", code).
		Msg("internal error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, APIResponse{
		Success:   false,
		Message:   "internal server error",
		Code:      code,
		RequestID: c.Writer.Header().Get("X-Request-ID"),
	})
}
