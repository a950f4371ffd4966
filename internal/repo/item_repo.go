// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the RoadmapItem
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an item is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Counter writes:
//   - SetCommentCount overwrites the denormalized comment counter with a
//     recounted value (recount is authoritative for comments).
//   - AddUpvotes shifts the denormalized upvote counter by a delta using a
//     single UPDATE with an SQL expression, so concurrent toggles on
//     different (user,item) pairs never lose increments.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ideapulse/go-roadmap-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ItemFilter restricts ListItems to items matching the given fields.
// Empty values (or the "all" sentinel, normalized by the service layer)
// disable the corresponding filter.
type ItemFilter struct {
	Status   string
	Category string
}

// Sort orders accepted by ListItems.
const (
	SortNewest       = "newest"
	SortOldest       = "oldest"
	SortMostUpvotes  = "most_upvotes"
	SortLeastUpvotes = "least_upvotes"
)

// CreateItem inserts a new roadmap item owned by userID. The item ID is a
// randomly generated UUID, counters start at zero, and CreatedAt is set to UTC.
func CreateItem(ctx context.Context, db *gorm.DB, userID string, in domain.RoadmapItem) (*domain.RoadmapItem, error) {
	now := time.Now().UTC()
	it := &domain.RoadmapItem{
		ID:            uuid.NewString(),
		Title:         in.Title,
		Description:   in.Description,
		Category:      in.Category,
		Status:        in.Status,
		CreatedByID:   userID,
		TargetRelease: in.TargetRelease,
		Priority:      in.Priority,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.WithContext(ctx).Create(it).Error; err != nil {
		return nil, err
	}
	return it, nil
}

// GetItem fetches a single item by ID with its creator profile preloaded.
// If the record does not exist, it returns ErrNotFound.
func GetItem(ctx context.Context, db *gorm.DB, id string) (*domain.RoadmapItem, error) {
	var it domain.RoadmapItem
	err := db.WithContext(ctx).
		Preload("CreatedBy").
		Where("id = ?", id).
		First(&it).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// ItemExists reports whether an item row with the given ID exists. It avoids
// loading the full row on hot mutation paths (comment create, vote toggle).
func ItemExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.RoadmapItem{}).
		Where("id = ?", id).
		Count(&n).Error
	return n > 0, err
}

// ListItems returns a page of items matching the filter in the given sort
// order, with creator profiles preloaded. The caller computes offset/limit;
// limit <= 0 disables paging.
func ListItems(ctx context.Context, db *gorm.DB, f ItemFilter, sort string, offset, limit int) ([]domain.RoadmapItem, error) {
	q := db.WithContext(ctx).Preload("CreatedBy")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}

	switch sort {
	case SortOldest:
		q = q.Order("created_at ASC, id ASC")
	case SortMostUpvotes:
		// Cached counter, not a live recount; ties break on recency.
		q = q.Order("upvotes DESC, created_at DESC")
	case SortLeastUpvotes:
		q = q.Order("upvotes ASC, created_at DESC")
	default: // SortNewest
		q = q.Order("created_at DESC, id DESC")
	}

	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var out []domain.RoadmapItem
	err := q.Find(&out).Error
	return out, err
}

// CountItems returns the total number of items matching the filter,
// for pagination metadata.
func CountItems(ctx context.Context, db *gorm.DB, f ItemFilter) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.RoadmapItem{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// SetCommentCount overwrites the item's denormalized comment counter with a
// recounted value. If no rows are affected (item missing), it returns
// ErrNotFound so the caller can roll back the surrounding transaction.
func SetCommentCount(ctx context.Context, db *gorm.DB, itemID string, count int64) error {
	res := db.WithContext(ctx).
		Model(&domain.RoadmapItem{}).
		Where("id = ?", itemID).
		UpdateColumn("comment_count", count)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddUpvotes shifts the item's denormalized upvote counter by delta (+1/-1)
// atomically. Returns ErrNotFound when the item row is missing.
func AddUpvotes(ctx context.Context, db *gorm.DB, itemID string, delta int) error {
	res := db.WithContext(ctx).
		Model(&domain.RoadmapItem{}).
		Where("id = ?", itemID).
		UpdateColumn("upvotes", gorm.Expr("upvotes + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
