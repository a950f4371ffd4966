// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Comment
// model.
//
// The repository follows a "thin" approach: it performs persistence and simple
// query composition, leaving business rules (depth bounds, counter recompute,
// ownership policy) to the services package.
//
// Error semantics:
//   - When a comment is not found, functions return gorm.ErrRecordNotFound.
//   - GetOwnedComment intentionally uses a single combined predicate
//     (id + user + not deleted) so "missing" and "not yours" are
//     indistinguishable to callers.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ideapulse/go-roadmap-backend/internal/domain"
)

// CreateComment inserts a comment row. Depth and parent linkage are computed
// by the service layer; this function persists them verbatim.
func CreateComment(ctx context.Context, db *gorm.DB, c *domain.Comment) error {
	now := time.Now().UTC()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now
	c.UpdatedAt = now
	return db.WithContext(ctx).Create(c).Error
}

// GetComment fetches a comment by ID regardless of deletion state, with the
// author profile preloaded. Returns ErrNotFound if the row does not exist.
func GetComment(ctx context.Context, db *gorm.DB, id string) (*domain.Comment, error) {
	var c domain.Comment
	err := db.WithContext(ctx).
		Preload("User").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetLiveComment fetches a non-deleted comment by ID. Used for parent lookups
// during reply creation (a reply to a deleted comment is treated as a reply
// to a missing one).
func GetLiveComment(ctx context.Context, db *gorm.DB, id string) (*domain.Comment, error) {
	var c domain.Comment
	err := db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOwnedComment fetches a non-deleted comment by ID that belongs to userID.
// A missing comment and a comment owned by someone else produce the same
// ErrNotFound, deliberately: read paths must not leak existence.
func GetOwnedComment(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Comment, error) {
	var c domain.Comment
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND is_deleted = ?", id, userID, false).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCommentContent replaces the comment's content and refreshes its
// updated_at. Depth and parent linkage are never altered. Returns ErrNotFound
// when no row matches.
func UpdateCommentContent(ctx context.Context, db *gorm.DB, id, content string) error {
	res := db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"content":    content,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkCommentDeleted flags a comment as soft-deleted. The row, its id, and
// its tree linkage are retained; children are neither removed nor reparented.
func MarkCommentDeleted(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_deleted": true,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountActiveComments returns the live count of non-deleted comments (all
// depths) referencing the item. This recount is the source of truth for the
// item's denormalized comment counter.
func CountActiveComments(ctx context.Context, db *gorm.DB, itemID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("roadmap_item_id = ? AND is_deleted = ?", itemID, false).
		Count(&n).Error
	return n, err
}

// ListTopLevelComments returns all top-level comments for an item ordered
// newest-first, authors preloaded. Soft-deleted rows are included: the
// service layer decides whether a deleted root is pruned or rendered as a
// placeholder above live replies.
func ListTopLevelComments(ctx context.Context, db *gorm.DB, itemID string) ([]domain.Comment, error) {
	var out []domain.Comment
	err := db.WithContext(ctx).
		Preload("User").
		Where("roadmap_item_id = ? AND parent_comment_id IS NULL", itemID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// ListReplies returns the direct children of all parentIDs in one query,
// ordered oldest-first (chronological reading order), authors preloaded.
// Soft-deleted rows are included for the same reason as above.
func ListReplies(ctx context.Context, db *gorm.DB, parentIDs []string) ([]domain.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var out []domain.Comment
	err := db.WithContext(ctx).
		Preload("User").
		Where("parent_comment_id IN ?", parentIDs).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
