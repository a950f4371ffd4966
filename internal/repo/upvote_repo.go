// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Upvote
// model.
//
// Error semantics:
//   - A duplicate upvote for the same (user_id, roadmap_item_id) pair relies
//     on the database unique constraint and is returned as ErrDuplicateVote.
//     The service layer treats that as "vote already exists" so a racing
//     second toggle never double-counts.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ideapulse/go-roadmap-backend/internal/domain"
)

// ErrDuplicateVote indicates that an upvote row already exists for the given
// (user, item) pair.
var ErrDuplicateVote = errors.New("upvote already exists")

// GetUpvote returns the upvote row for (userID, itemID), or ErrNotFound.
func GetUpvote(ctx context.Context, db *gorm.DB, userID, itemID string) (*domain.Upvote, error) {
	var v domain.Upvote
	err := db.WithContext(ctx).
		Where("user_id = ? AND roadmap_item_id = ?", userID, itemID).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreateUpvote inserts an upvote row for (userID, itemID). The compound
// unique index turns a concurrent duplicate insert into ErrDuplicateVote
// instead of a silent double-insert.
func CreateUpvote(ctx context.Context, db *gorm.DB, userID, itemID string) (*domain.Upvote, error) {
	v := &domain.Upvote{
		ID:            uuid.NewString(),
		UserID:        userID,
		RoadmapItemID: itemID,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(v).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateVote
		}
		return nil, err
	}
	return v, nil
}

// DeleteUpvote hard-deletes the row for (userID, itemID). Returns ErrNotFound
// when no row matched, so a racing double-delete surfaces instead of silently
// decrementing twice.
func DeleteUpvote(ctx context.Context, db *gorm.DB, userID, itemID string) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND roadmap_item_id = ?", userID, itemID).
		Delete(&domain.Upvote{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountUpvotesForItem returns the live number of upvote rows for an item.
// Read paths that do not trust the denormalized counter use this.
func CountUpvotesForItem(ctx context.Context, db *gorm.DB, itemID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Upvote{}).
		Where("roadmap_item_id = ?", itemID).
		Count(&n).Error
	return n, err
}

// ListUpvotesForUser returns the items a user has upvoted, newest vote first,
// reduced to summary rows via a join with roadmap_items.
func ListUpvotesForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.UpvoteSummary, error) {
	var out []domain.UpvoteSummary
	err := db.WithContext(ctx).
		Model(&domain.Upvote{}).
		Select("roadmap_items.id AS item_id, roadmap_items.title, roadmap_items.category, roadmap_items.status, upvotes.created_at AS voted_at").
		Joins("JOIN roadmap_items ON roadmap_items.id = upvotes.roadmap_item_id").
		Where("upvotes.user_id = ?", userID).
		Order("upvotes.created_at DESC").
		Scan(&out).Error
	return out, err
}

// isUniqueViolation detects unique-constraint violations across drivers that
// may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
