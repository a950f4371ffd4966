// Roadmap item HTTP handlers.
//
// This file exposes REST endpoints for roadmap items:
//   - POST /roadmap        (create)
//   - GET  /roadmap        (list: filters, sort, pagination, ETag support)
//   - GET  /roadmap/{id}   (fetch one)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ideapulse/go-roadmap-backend/internal/domain"
	"github.com/ideapulse/go-roadmap-backend/internal/repo"
	"github.com/ideapulse/go-roadmap-backend/internal/services"
	"github.com/ideapulse/go-roadmap-backend/internal/sysutil"
	"github.com/ideapulse/go-roadmap-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ItemService defines roadmap item operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ItemService interface {
	// Create validates and persists a new roadmap item owned by userID.
	Create(ctx context.Context, userID string, in services.CreateItemInput) (*domain.RoadmapItem, error)
	// Get returns a single item with its author profile.
	Get(ctx context.Context, id string) (*domain.RoadmapItem, error)
	// List returns a page of items matching the filters.
	List(ctx context.Context, in services.ListItemsInput) (*services.ItemList, error)
}

// CommentService defines threaded comment operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type CommentService interface {
	// Add creates a top-level comment or a reply on an item.
	Add(ctx context.Context, userID, itemID string, parentID *string, content string) (*domain.Comment, error)
	// Edit replaces the content of a comment owned by userID.
	Edit(ctx context.Context, userID, commentID, content string) (*domain.Comment, error)
	// Remove soft-deletes a comment owned by userID.
	Remove(ctx context.Context, userID, commentID string) error
	// List assembles the nested comment tree for an item.
	List(ctx context.Context, itemID string) ([]*services.CommentNode, error)
}

// UpvoteService defines vote toggling and vote read operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type UpvoteService interface {
	// Toggle flips userID's vote on an item and reports the new state.
	Toggle(ctx context.Context, userID, itemID string) (*services.ToggleResult, error)
	// CountForItem returns the authoritative vote count for an item.
	CountForItem(ctx context.Context, itemID string) (int64, error)
	// ListForUser returns the items a user has voted on.
	ListForUser(ctx context.Context, userID string) ([]domain.UpvoteSummary, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for roadmap items, comments, and upvotes.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	itemSvc    ItemService
	commentSvc CommentService
	upvoteSvc  UpvoteService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(itemSvc ItemService, commentSvc CommentService, upvoteSvc UpvoteService) *Handlers {
	return &Handlers{itemSvc: itemSvc, commentSvc: commentSvc, upvoteSvc: upvoteSvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		return sysutil.FirstNonEmpty(strings.TrimSpace(c.GetHeader("X-User-ID")), "demo-user")
	}
	return "demo-user"
}

//
// DTOs
//

// CreateItemRequest is the JSON payload for creating a roadmap item.
type CreateItemRequest struct {
	// Title is the short item headline (1–100 chars).
	Title string `json:"title" binding:"required,min=1,max=100" example:"Dark mode"`
	// Description explains the proposal (1–1000 chars).
	Description string `json:"description" binding:"required,min=1,max=1000" example:"Add a dark color scheme across the app"`
	// Category is one of: feature, enhancement, bugfix, other.
	Category string `json:"category" binding:"required" example:"feature"`
	// Status optionally overrides the default under_review.
	Status string `json:"status" example:"planned"`
	// Priority optionally sets the planning priority (1–5, default 3).
	Priority int `json:"priority" example:"3"`
	// TargetRelease optionally names the release the item is slated for.
	TargetRelease string `json:"target_release" example:"2025-Q4"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListItemsResponse wraps a page of items and pagination information.
type ListItemsResponse struct {
	Items      []domain.RoadmapItem `json:"items"`
	Pagination Pagination           `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

//
// Handlers
//

// CreateItem godoc
// @ID          createItem
// @Summary     Create a roadmap item
// @Description Creates a roadmap item owned by the current user and returns it.
// @Tags        Roadmap
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateItemRequest  true  "Create item payload"
//
// @Success     201  {object}  handlers.APIResponse
// @Failure     400  {object}  handlers.APIResponse  "Bad request"
// @Failure     500  {object}  handlers.APIResponse  "Internal error"
// @Router      /roadmap [post]
func (h *Handlers) CreateItem(c *gin.Context) {
	var req CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title, description and category are required")
		return
	}

	it, err := h.itemSvc.Create(c.Request.Context(), userID(c), services.CreateItemInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Status:        req.Status,
		Priority:      req.Priority,
		TargetRelease: req.TargetRelease,
	})
	if err != nil {
		switch err {
		case services.ErrInvalidTitle, services.ErrInvalidDescription,
			services.ErrInvalidCategory, services.ErrInvalidStatus,
			services.ErrInvalidPriority:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			failInternal(c, ErrCodeCreateFailed, err)
		}
		return
	}
	ok(c, http.StatusCreated, "roadmap item created", it)
}

// ListItems godoc
// @ID          listItems
// @Summary     List roadmap items
// @Description Returns a page of roadmap items with optional status/category filters
// @Description and sort order. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Roadmap
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       status         query   string  false "Status filter (or 'all')"    Enums(under_review, planned, in_progress, completed, rejected, all)
// @Param       category       query   string  false "Category filter (or 'all')"  Enums(feature, enhancement, bugfix, other, all)
// @Param       sort           query   string  false "Sort order"                  Enums(newest, oldest, most_upvotes, least_upvotes)
// @Param       page           query   int     false "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"              minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.APIResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.APIResponse "Bad request"
// @Failure     500  {object} handlers.APIResponse "Internal error"
// @Router      /roadmap [get]
func (h *Handlers) ListItems(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.itemSvc.(*services.ItemService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ItemsStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"items:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	list, err := h.itemSvc.List(ctx, services.ListItemsInput{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
		Page:     page,
		Limit:    pageSize,
	})
	if err != nil {
		switch err {
		case services.ErrInvalidStatus, services.ErrInvalidCategory:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			failInternal(c, ErrCodeListFailed, err)
		}
		return
	}

	totalPages := int((list.Total + int64(list.Limit) - 1) / int64(list.Limit))
	resp := ListItemsResponse{
		Items: list.Items,
		Pagination: Pagination{
			Page:       list.Page,
			PageSize:   list.Limit,
			Total:      list.Total,
			TotalPages: totalPages,
			HasNext:    list.Page < totalPages,
		},
	}
	ok(c, http.StatusOK, "", resp)
}

// GetItem godoc
// @ID          getItem
// @Summary     Fetch a roadmap item
// @Description Returns a single roadmap item with its author profile.
// @Tags        Roadmap
// @Produce     json
//
// @Param       id  path  string  true  "Item ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.APIResponse
// @Failure     400  {object} handlers.APIResponse "Bad request"
// @Failure     404  {object} handlers.APIResponse "Item not found"
// @Failure     500  {object} handlers.APIResponse "Internal error"
// @Router      /roadmap/{id} [get]
func (h *Handlers) GetItem(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "item id must be a UUID")
		return
	}

	it, err := h.itemSvc.Get(c.Request.Context(), id)
	if err != nil {
		switch err {
		case services.ErrItemNotFound:
			fail(c, http.StatusNotFound, ErrCodeNotFound, "roadmap item not found")
		default:
			failInternal(c, ErrCodeInternal, err)
		}
		return
	}
	ok(c, http.StatusOK, "", it)
}
