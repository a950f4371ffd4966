// Upvote HTTP handlers.
//
// This file exposes REST endpoints for vote toggling and vote reads:
//   - POST /roadmap/{id}/upvote    (toggle the caller's vote)
//   - GET  /roadmap/{id}/upvotes   (authoritative vote count)
//   - GET  /users/{id}/upvotes     (items a user has voted on)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ideapulse/go-roadmap-backend/internal/services"
)

// UpvoteCountResponse reports the vote count for one item.
type UpvoteCountResponse struct {
	ItemID  string `json:"item_id"`
	Upvotes int64  `json:"upvotes"`
}

// ToggleUpvote godoc
// @ID          toggleUpvote
// @Summary     Toggle a vote on a roadmap item
// @Description Records the caller's vote on first call, withdraws it on the next.
// @Description Returns the caller's vote state and the item's vote total.
// @Tags        Upvotes
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Item ID (UUID)"         format(uuid)
//
// @Success     200  {object} handlers.APIResponse
// @Failure     400  {object} handlers.APIResponse "Bad request"
// @Failure     404  {object} handlers.APIResponse "Item not found"
// @Failure     500  {object} handlers.APIResponse "Internal error"
// @Router      /roadmap/{id}/upvote [post]
func (h *Handlers) ToggleUpvote(c *gin.Context) {
	itemID := c.Param("id")
	if _, err := uuid.Parse(itemID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item id must be a UUID")
		return
	}

	res, err := h.upvoteSvc.Toggle(c.Request.Context(), userID(c), itemID)
	if err != nil {
		switch err {
		case services.ErrItemNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "roadmap item not found")
		default:
			failInternal(c, ErrCodeToggleFailed, err)
		}
		return
	}

	msg := "upvote removed"
	if res.Upvoted {
		msg = "upvote recorded"
	}
	ok(c, http.StatusOK, msg, res)
}

// GetItemUpvotes godoc
// @ID          getItemUpvotes
// @Summary     Vote count for a roadmap item
// @Description Returns the authoritative vote count, derived from vote rows.
// @Tags        Upvotes
// @Produce     json
//
// @Param       id  path  string  true  "Item ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.APIResponse
// @Failure     400  {object} handlers.APIResponse "Bad request"
// @Failure     404  {object} handlers.APIResponse "Item not found"
// @Failure     500  {object} handlers.APIResponse "Internal error"
// @Router      /roadmap/{id}/upvotes [get]
func (h *Handlers) GetItemUpvotes(c *gin.Context) {
	itemID := c.Param("id")
	if _, err := uuid.Parse(itemID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item id must be a UUID")
		return
	}

	n, err := h.upvoteSvc.CountForItem(c.Request.Context(), itemID)
	if err != nil {
		switch err {
		case services.ErrItemNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "roadmap item not found")
		default:
			failInternal(c, ErrCodeInternal, err)
		}
		return
	}
	ok(c, http.StatusOK, "", UpvoteCountResponse{ItemID: itemID, Upvotes: n})
}

// GetUserUpvotes godoc
// @ID          getUserUpvotes
// @Summary     Items a user has voted on
// @Description Returns the roadmap items the given user has voted on, most recent first.
// @Tags        Upvotes
// @Produce     json
//
// @Param       id  path  string  true  "User ID"
//
// @Success     200  {object} handlers.APIResponse
// @Failure     400  {object} handlers.APIResponse "Bad request"
// @Failure     500  {object} handlers.APIResponse "Internal error"
// @Router      /users/{id}/upvotes [get]
func (h *Handlers) GetUserUpvotes(c *gin.Context) {
	// User ids are opaque strings ("demo-user", header identities), so only
	// presence is checked; an unknown id simply yields an empty list.
	uid := c.Param("id")
	if uid == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id required")
		return
	}

	list, err := h.upvoteSvc.ListForUser(c.Request.Context(), uid)
	if err != nil {
		failInternal(c, ErrCodeListFailed, err)
		return
	}
	ok(c, http.StatusOK, "", list)
}
