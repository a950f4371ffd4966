package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ideapulse/go-roadmap-backend/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCreateItem_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	it, err := CreateItem(context.Background(), db, "u1", domain.RoadmapItem{Title: "t"})
	if err == nil || it != nil {
		t.Fatalf("expected error creating without table, got item=%v err=%v", it, err)
	}
}

func TestCreateItem_Success_PersistsAndSetsFields(t *testing.T) {
	db := newRepoDB(t, &domain.RoadmapItem{})

	start := time.Now().UTC().Add(-time.Minute)
	it, err := CreateItem(context.Background(), db, "u1", domain.RoadmapItem{
		Title:       "Dark mode",
		Description: "please",
		Category:    domain.CategoryFeature,
		Status:      domain.StatusUnderReview,
		Priority:    3,
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if it.ID == "" || it.CreatedByID != "u1" || it.Title != "Dark mode" {
		t.Fatalf("unexpected item fields: %+v", it)
	}
	if it.Upvotes != 0 || it.CommentCount != 0 {
		t.Fatalf("counters must start at zero: %+v", it)
	}
	if it.CreatedAt.Before(start) {
		t.Fatalf("CreatedAt seems unset/really old: %v", it.CreatedAt)
	}
	// round-trip
	var got domain.RoadmapItem
	if err := db.First(&got, "id = ?", it.ID).Error; err != nil {
		t.Fatalf("load created item: %v", err)
	}
	if got.Category != domain.CategoryFeature || got.Priority != 3 {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestGetItem_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.RoadmapItem{})
	it, err := GetItem(context.Background(), db, "nope")
	if it != nil || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got item=%v err=%v", it, err)
	}
}

func TestGetItem_PreloadsCreator(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.RoadmapItem{})
	ctx := context.Background()

	u, err := CreateUser(ctx, db, "Ann", "ann", "ann@example.com", "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	it, err := CreateItem(ctx, db, u.ID, domain.RoadmapItem{
		Title: "t", Description: "d",
		Category: domain.CategoryOther, Status: domain.StatusPlanned, Priority: 1,
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	got, err := GetItem(ctx, db, it.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.CreatedBy == nil || got.CreatedBy.Username != "ann" {
		t.Fatalf("expected creator preloaded, got %+v", got.CreatedBy)
	}
}

func TestItemExists(t *testing.T) {
	db := newRepoDB(t, &domain.RoadmapItem{})
	ctx := context.Background()

	ok, err := ItemExists(ctx, db, "missing")
	if err != nil || ok {
		t.Fatalf("expected false for missing item, got ok=%v err=%v", ok, err)
	}

	it, err := CreateItem(ctx, db, "u1", domain.RoadmapItem{
		Title: "t", Description: "d",
		Category: domain.CategoryOther, Status: domain.StatusPlanned, Priority: 1,
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	ok, err = ItemExists(ctx, db, it.ID)
	if err != nil || !ok {
		t.Fatalf("expected true for existing item, got ok=%v err=%v", ok, err)
	}
}

func seedItems(t *testing.T, db *gorm.DB) {
	t.Helper()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	rows := []domain.RoadmapItem{
		{ID: "i1", Title: "A", Description: "d", Category: domain.CategoryFeature,
			Status: domain.StatusPlanned, Priority: 3, Upvotes: 2, CreatedAt: base, UpdatedAt: base},
		{ID: "i2", Title: "B", Description: "d", Category: domain.CategoryBugfix,
			Status: domain.StatusPlanned, Priority: 3, Upvotes: 9, CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
		{ID: "i3", Title: "C", Description: "d", Category: domain.CategoryFeature,
			Status: domain.StatusCompleted, Priority: 3, Upvotes: 5, CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(2 * time.Hour)},
	}
	for _, r := range rows {
		if err := db.Create(&r).Error; err != nil {
			t.Fatalf("seed %s: %v", r.ID, err)
		}
	}
}

func TestListItems_FiltersSortsAndPages(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.RoadmapItem{})
	seedItems(t, db)
	ctx := context.Background()

	// newest-first default
	all, err := ListItems(ctx, db, ItemFilter{}, SortNewest, 0, 0)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(all) != 3 || all[0].ID != "i3" || all[2].ID != "i1" {
		t.Fatalf("newest order wrong: %+v", all)
	}

	// most upvotes
	top, err := ListItems(ctx, db, ItemFilter{}, SortMostUpvotes, 0, 0)
	if err != nil {
		t.Fatalf("ListItems most_upvotes: %v", err)
	}
	if top[0].ID != "i2" || top[1].ID != "i3" || top[2].ID != "i1" {
		t.Fatalf("upvote order wrong: %+v", top)
	}

	// combined filter
	got, err := ListItems(ctx, db, ItemFilter{Status: domain.StatusPlanned, Category: domain.CategoryFeature}, SortNewest, 0, 0)
	if err != nil {
		t.Fatalf("ListItems filtered: %v", err)
	}
	if len(got) != 1 || got[0].ID != "i1" {
		t.Fatalf("filter mismatch: %+v", got)
	}

	// offset/limit
	page, err := ListItems(ctx, db, ItemFilter{}, SortOldest, 2, 2)
	if err != nil {
		t.Fatalf("ListItems paged: %v", err)
	}
	if len(page) != 1 || page[0].ID != "i3" {
		t.Fatalf("page mismatch: %+v", page)
	}
}

func TestCountItems(t *testing.T) {
	db := newRepoDB(t, &domain.RoadmapItem{})
	seedItems(t, db)
	ctx := context.Background()

	total, err := CountItems(ctx, db, ItemFilter{})
	if err != nil || total != 3 {
		t.Fatalf("CountItems all: total=%d err=%v", total, err)
	}
	planned, err := CountItems(ctx, db, ItemFilter{Status: domain.StatusPlanned})
	if err != nil || planned != 2 {
		t.Fatalf("CountItems planned: total=%d err=%v", planned, err)
	}
}

func TestSetCommentCount_And_AddUpvotes(t *testing.T) {
	db := newRepoDB(t, &domain.RoadmapItem{})
	seedItems(t, db)
	ctx := context.Background()

	if err := SetCommentCount(ctx, db, "i1", 7); err != nil {
		t.Fatalf("SetCommentCount: %v", err)
	}
	if err := AddUpvotes(ctx, db, "i1", 1); err != nil {
		t.Fatalf("AddUpvotes +1: %v", err)
	}
	if err := AddUpvotes(ctx, db, "i1", -1); err != nil {
		t.Fatalf("AddUpvotes -1: %v", err)
	}

	var got domain.RoadmapItem
	if err := db.First(&got, "id = ?", "i1").Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.CommentCount != 7 || got.Upvotes != 2 {
		t.Fatalf("counters wrong: %+v", got)
	}

	// missing item rows affected = 0
	if err := SetCommentCount(ctx, db, "missing", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetCommentCount missing: %v", err)
	}
	if err := AddUpvotes(ctx, db, "missing", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AddUpvotes missing: %v", err)
	}
}
