// Comment HTTP handlers.
//
// This file exposes REST endpoints for threaded comments:
//   - POST   /roadmap/{id}/comments   (create a comment or reply)
//   - GET    /roadmap/{id}/comments   (nested comment tree, ETag support)
//   - PUT    /comments/{id}           (edit own comment)
//   - DELETE /comments/{id}           (soft-delete own comment)
//
// Handlers are transport-thin:
//   - validate & normalize inputs (content shape and length at the edge)
//   - delegate to application services (CommentService)
//   - implement conditional responses (ETag) and idempotency semantics
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (user, item, key), the handler returns the recorded
// comment and sets `Idempotency-Replayed: true`.
package handlers

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ideapulse/go-roadmap-backend/internal/http/middleware"
	"github.com/ideapulse/go-roadmap-backend/internal/repo"
	"github.com/ideapulse/go-roadmap-backend/internal/services"
)

//
// DTOs
//

// PostCommentRequest is the JSON payload for creating a comment or reply.
//
// Content is normalized by the handler (line endings and excessive blank
// lines) before being passed to the service layer. The service also enforces
// a maximum rune count, which can be configured in CommentService.
type PostCommentRequest struct {
	// Content is the comment body. It must be non-empty.
	Content string `json:"content" binding:"required,min=1" example:"This would save our support team hours every week."`
	// ParentCommentID makes this a reply to an existing comment on the item.
	ParentCommentID *string `json:"parent_comment_id,omitempty" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
}

// UpdateCommentRequest is the JSON payload for editing a comment.
type UpdateCommentRequest struct {
	// Content is the replacement body (1–1000 chars).
	Content string `json:"content" binding:"required,min=1,max=1000" example:"Edited: still a great idea."`
}

//
// Helpers
//

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text for consistent downstream behavior:
//   - converts CRLF/CR to LF,
//   - collapses runs of 3+ LFs to exactly two (paragraph separation),
//   - trims surrounding whitespace.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// discoverMaxContentRunes inspects the concrete CommentService for a
// configured content-length limit. If unavailable, it returns a conservative
// fallback.
func discoverMaxContentRunes(svc CommentService) int {
	const fallback = 1000
	if cs, ok := svc.(*services.CommentService); ok {
		if cs.MaxContentRunes > 0 {
			return cs.MaxContentRunes
		}
	}
	return fallback
}

// middlewareGetIdempotencyKey extracts an idempotency key if an upstream
// validator stored one in the Gin context.
func middlewareGetIdempotencyKey(c *gin.Context) (string, bool) {
	return middleware.GetIdempotencyKey(c)
}

//
// Handlers
//

// PostComment godoc
// @ID          postComment
// @Summary     Comment on a roadmap item
// @Description Creates a top-level comment, or a reply when parent_comment_id is set.
// @Description Replies may nest at most two levels below a top-level comment.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Comments
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Item ID (UUID)"         format(uuid)
// @Param       body             body    handlers.PostCommentRequest  true  "Comment payload"
//
// @Success     201  {object}  handlers.APIResponse  "Created comment"
// @Failure     400  {object}  handlers.APIResponse  "Bad request or reply depth exceeded"
// @Failure     404  {object}  handlers.APIResponse  "Item or parent comment not found"
// @Failure     500  {object}  handlers.APIResponse  "Internal error"
// @Router      /roadmap/{id}/comments [post]
func (h *Handlers) PostComment(c *gin.Context) {
	ctx := c.Request.Context()
	itemID := c.Param("id")

	if _, err := uuid.Parse(itemID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item id must be a UUID")
		return
	}

	var req PostCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}
	if req.ParentCommentID != nil && *req.ParentCommentID != "" {
		if _, err := uuid.Parse(*req.ParentCommentID); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "parent_comment_id must be a UUID")
			return
		}
	}

	// Sanitize + early size cap to fail fast at the edge.
	content := sanitizeContent(req.Content)
	maxRunes := discoverMaxContentRunes(h.commentSvc)
	if maxRunes > 0 && utf8.RuneCountInString(content) > maxRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("content too long: max %d runes", maxRunes))
		return
	}
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path) – read validated key if present.
	idemKey, _ := middlewareGetIdempotencyKey(c)
	if idemKey != "" {
		if svc, okSvc := h.commentSvc.(*services.CommentService); okSvc && svc.DB != nil {
			if rec, err := repo.GetIdempotency(ctx, svc.DB, currentUser, itemID, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := repo.GetComment(ctx, svc.DB, rec.CommentID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusCreated, "comment created", prev)
					return
				}
			}
		}
	}

	// Normal processing (service has a second guard for length).
	cm, err := h.commentSvc.Add(ctx, currentUser, itemID, req.ParentCommentID, content)
	if err != nil {
		switch err {
		case services.ErrItemNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "roadmap item not found")
		case services.ErrParentNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "parent comment not found")
		case services.ErrMaxDepth:
			fail(c, http.StatusBadRequest, ErrCodeMaxDepth, "maximum reply depth reached")
		case services.ErrContentTooLong:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("content too long: max %d runes", maxRunes))
		case services.ErrEmptyContent:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		default:
			failInternal(c, ErrCodeCreateFailed, err)
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if svc, okSvc := h.commentSvc.(*services.CommentService); okSvc && svc.DB != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, itemID, idemKey, cm.ID, http.StatusCreated, ttl)
		}
	}

	ok(c, http.StatusCreated, "comment created", cm)
}

// ListComments godoc
// @ID          listComments
// @Summary     List comments for a roadmap item
// @Description Returns the nested comment tree: top-level comments newest first,
// @Description replies oldest first. Deleted comments with live replies appear as
// @Description placeholders; deleted comments without live replies are omitted.
// @Tags        Comments
// @Produce     json
//
// @Param       id             path    string  true  "Item ID (UUID)"  format(uuid)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.APIResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.APIResponse "Bad request"
// @Failure     404  {object} handlers.APIResponse "Item not found"
// @Failure     500  {object} handlers.APIResponse "Internal error"
// @Router      /roadmap/{id}/comments [get]
func (h *Handlers) ListComments(c *gin.Context) {
	ctx := c.Request.Context()
	itemID := c.Param("id")

	if _, err := uuid.Parse(itemID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item id must be a UUID")
		return
	}

	// ETag pre-check (best effort). Stats count every row including deleted
	// ones, so soft deletes invalidate cached trees.
	var db *gorm.DB
	if svc, okSvc := h.commentSvc.(*services.CommentService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ItemCommentsStats(ctx, db, itemID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"comments:%s:%d:%d"`, itemID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	tree, err := h.commentSvc.List(ctx, itemID)
	if err != nil {
		failInternal(c, ErrCodeListFailed, err)
		return
	}
	ok(c, http.StatusOK, "", tree)
}

// UpdateComment godoc
// @ID          updateComment
// @Summary     Edit a comment
// @Description Replaces the content of a comment owned by the current user.
// @Tags        Comments
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Comment ID (UUID)"      format(uuid)
// @Param       body       body    handlers.UpdateCommentRequest  true  "New content"
//
// @Success     200  {object} handlers.APIResponse
// @Failure     400  {object} handlers.APIResponse "Bad request"
// @Failure     404  {object} handlers.APIResponse "Comment not found"
// @Failure     500  {object} handlers.APIResponse "Internal error"
// @Router      /comments/{id} [put]
func (h *Handlers) UpdateComment(c *gin.Context) {
	commentID := c.Param("id")
	if _, err := uuid.Parse(commentID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "comment id must be a UUID")
		return
	}

	var req UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required (1–1000 chars)")
		return
	}

	cm, err := h.commentSvc.Edit(c.Request.Context(), userID(c), commentID, sanitizeContent(req.Content))
	if err != nil {
		switch err {
		case services.ErrCommentNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "comment not found")
		case services.ErrEmptyContent:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		case services.ErrContentTooLong:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content too long")
		default:
			failInternal(c, ErrCodeInternal, err)
		}
		return
	}
	ok(c, http.StatusOK, "comment updated", cm)
}

// DeleteComment godoc
// @ID          deleteComment
// @Summary     Delete a comment
// @Description Soft-deletes a comment owned by the current user. Replies remain.
// @Tags        Comments
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Comment ID (UUID)"      format(uuid)
//
// @Success     200  {object} handlers.APIResponse "Deletion confirmation"
// @Failure     400  {object} handlers.APIResponse "Bad request"
// @Failure     404  {object} handlers.APIResponse "Comment not found"
// @Failure     500  {object} handlers.APIResponse "Internal error"
// @Router      /comments/{id} [delete]
func (h *Handlers) DeleteComment(c *gin.Context) {
	commentID := c.Param("id")
	if _, err := uuid.Parse(commentID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "comment id must be a UUID")
		return
	}

	if err := h.commentSvc.Remove(c.Request.Context(), userID(c), commentID); err != nil {
		switch err {
		case services.ErrCommentNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "comment not found")
		default:
			failInternal(c, ErrCodeInternal, err)
		}
		return
	}
	ok(c, http.StatusOK, "comment deleted", nil)
}
