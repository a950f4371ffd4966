// Package services – ItemService
//
// This file implements the ItemService, the catalogue side of the roadmap:
// creating items with validated fields and sensible defaults, fetching a
// single item with its author, and listing the board with filters, sort
// orders, and pagination.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/ideapulse/go-roadmap-backend/internal/domain"
	"github.com/ideapulse/go-roadmap-backend/internal/repo"
)

const (
	maxTitleRunes       = 100
	maxDescriptionRunes = 1000
)

// CreateItemInput carries the caller-supplied fields for a new roadmap item.
// Status and Priority are optional; zero values take the defaults
// (under_review, 3).
type CreateItemInput struct {
	Title         string
	Description   string
	Category      string
	Status        string
	Priority      int
	TargetRelease string
}

// ListItemsInput carries the listing filters. Empty or "all" filter values
// match everything; an unrecognized sort falls back to newest-first. Page is
// 1-based.
type ListItemsInput struct {
	Status   string
	Category string
	Sort     string
	Page     int
	Limit    int
}

// ItemList is a page of roadmap items plus the total match count, so clients
// can render pagination.
type ItemList struct {
	Items []domain.RoadmapItem `json:"items"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

// ItemService implements the roadmap item use-cases.
type ItemService struct {
	DB *gorm.DB
}

// NewItemService constructs an ItemService.
func NewItemService(db *gorm.DB) *ItemService {
	return &ItemService{DB: db}
}

// Create validates and persists a new roadmap item owned by userID.
//
// Validation: title 1..100 runes, description 1..1000 runes, category one of
// the known set, status (when given) one of the known set, priority (when
// given) 1..5. Missing status defaults to under_review, missing priority
// to 3. Counters start at zero.
func (s *ItemService) Create(ctx context.Context, userID string, in CreateItemInput) (*domain.RoadmapItem, error) {
	title := norm.NFC.String(strings.TrimSpace(in.Title))
	if title == "" || utf8.RuneCountInString(title) > maxTitleRunes {
		return nil, ErrInvalidTitle
	}
	desc := norm.NFC.String(strings.TrimSpace(in.Description))
	if desc == "" || utf8.RuneCountInString(desc) > maxDescriptionRunes {
		return nil, ErrInvalidDescription
	}
	if !domain.ValidCategory(in.Category) {
		return nil, ErrInvalidCategory
	}
	status := in.Status
	if status == "" {
		status = domain.StatusUnderReview
	} else if !domain.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	priority := in.Priority
	if priority == 0 {
		priority = 3
	}
	if priority < 1 || priority > 5 {
		return nil, ErrInvalidPriority
	}

	it, err := repo.CreateItem(ctx, s.DB, userID, domain.RoadmapItem{
		Title:         title,
		Description:   desc,
		Category:      in.Category,
		Status:        status,
		TargetRelease: strings.TrimSpace(in.TargetRelease),
		Priority:      priority,
	})
	if err != nil {
		return nil, err
	}
	if u, err := repo.GetUser(ctx, s.DB, userID); err == nil {
		it.CreatedBy = u
	}
	return it, nil
}

// Get returns a single roadmap item with its author profile, or
// ErrItemNotFound.
func (s *ItemService) Get(ctx context.Context, id string) (*domain.RoadmapItem, error) {
	it, err := repo.GetItem(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return it, nil
}

// List returns a page of roadmap items matching the filters.
//
// Filters with value "all" (case-insensitive) are treated as absent, so
// clients can always send the filter keys. A filter naming an unknown status
// or category is rejected rather than silently matching nothing.
func (s *ItemService) List(ctx context.Context, in ListItemsInput) (*ItemList, error) {
	f := repo.ItemFilter{
		Status:   normalizeFilter(in.Status),
		Category: normalizeFilter(in.Category),
	}
	if f.Status != "" && !domain.ValidStatus(f.Status) {
		return nil, ErrInvalidStatus
	}
	if f.Category != "" && !domain.ValidCategory(f.Category) {
		return nil, ErrInvalidCategory
	}

	sort := in.Sort
	switch sort {
	case repo.SortNewest, repo.SortOldest, repo.SortMostUpvotes, repo.SortLeastUpvotes:
	default:
		sort = repo.SortNewest
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total, err := repo.CountItems(ctx, s.DB, f)
	if err != nil {
		return nil, err
	}
	items, err := repo.ListItems(ctx, s.DB, f, sort, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return &ItemList{Items: items, Total: total, Page: page, Limit: limit}, nil
}

func normalizeFilter(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if v == "all" {
		return ""
	}
	return v
}
