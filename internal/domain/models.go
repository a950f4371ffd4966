// Package domain defines the persistence models for roadmap items, comments,
// upvotes, and user profiles. These types are mapped with GORM and form the
// core data layer of the roadmap application.
package domain

import "time"

// RoadmapItem categories.
const (
	CategoryFeature     = "feature"
	CategoryEnhancement = "enhancement"
	CategoryBugfix      = "bugfix"
	CategoryOther       = "other"
)

// RoadmapItem statuses.
const (
	StatusUnderReview = "under_review"
	StatusPlanned     = "planned"
	StatusInProgress  = "in_progress"
	StatusCompleted   = "completed"
	StatusRejected    = "rejected"
)

// MaxCommentDepth is the deepest nesting level a comment may have.
// Depth 0 is a top-level comment, so the tree is at most three levels.
const MaxCommentDepth = 2

// ValidCategory reports whether s is one of the known item categories.
func ValidCategory(s string) bool {
	switch s {
	case CategoryFeature, CategoryEnhancement, CategoryBugfix, CategoryOther:
		return true
	}
	return false
}

// ValidStatus reports whether s is one of the known item statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusUnderReview, StatusPlanned, StatusInProgress, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// User holds the public profile fields used to populate comment and item
// author displays. Credential material (password hashes, tokens) is owned by
// the auth service and never stored here.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name / Username: display identity.
//   - Email: contact address shown on public profiles.
//   - Photo: optional avatar URL.
type User struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(100);not null"`
	Username  string    `json:"username"   gorm:"type:varchar(64);uniqueIndex"`
	Email     string    `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex"`
	Photo     string    `json:"photo,omitempty" gorm:"type:varchar(512)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// RoadmapItem represents a roadmap proposal subject to voting and discussion.
//
// Upvotes and CommentCount are denormalized caches: they must always equal
// the count of live Upvote/Comment rows referencing the item. They are
// maintained exclusively by the services layer (comment recount, vote
// increment) and are never the source of truth.
type RoadmapItem struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	Title         string    `json:"title"          gorm:"type:varchar(100);not null"`
	Description   string    `json:"description"    gorm:"type:varchar(1000);not null"`
	Category      string    `json:"category"       gorm:"type:varchar(32);not null;index"`
	Status        string    `json:"status"         gorm:"type:varchar(32);not null;index"`
	CreatedByID   string    `json:"created_by_id"  gorm:"type:char(36);not null;index"`
	TargetRelease string    `json:"target_release,omitempty" gorm:"type:varchar(100)"`
	Priority      int       `json:"priority"       gorm:"not null;default:3;check:priority BETWEEN 1 AND 5"`
	Upvotes       int       `json:"upvotes"        gorm:"not null;default:0"`
	CommentCount  int       `json:"comment_count"  gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"     gorm:"index"`
	UpdatedAt     time.Time `json:"updated_at"`

	// CreatedBy is the author profile, populated on read paths.
	CreatedBy *User `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for RoadmapItem.
func (RoadmapItem) TableName() string { return "roadmap_items" }

// Comment is a single contribution in an item's threaded discussion.
//
// Comments form a bounded tree: ParentCommentID is nil for top-level
// comments, and Depth is always the parent's depth plus one, capped at
// MaxCommentDepth. Replies are resolved through the parent_comment_id index
// rather than embedded, so the tree is an arena of rows linked by ids.
//
// Soft deletion: IsDeleted hides a comment from read paths and counts while
// retaining its row so child linkage survives. Children are neither deleted
// nor reparented.
type Comment struct {
	ID              string    `json:"id"                gorm:"type:char(36);primaryKey"`
	Content         string    `json:"content"           gorm:"type:varchar(1000);not null"`
	RoadmapItemID   string    `json:"roadmap_item_id"   gorm:"type:char(36);not null;index:idx_item_comments,priority:1"`
	UserID          string    `json:"user_id"           gorm:"type:char(36);not null;index"`
	ParentCommentID *string   `json:"parent_comment_id,omitempty" gorm:"type:char(36);index"`
	Depth           int       `json:"depth"             gorm:"not null;default:0;check:depth BETWEEN 0 AND 2"`
	IsDeleted       bool      `json:"is_deleted"        gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"created_at"        gorm:"index:idx_item_comments,priority:2"`
	UpdatedAt       time.Time `json:"updated_at"`

	// User is the author profile, populated on read paths.
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	// RoadmapItem is the discussed proposal. Comment rows are cascade-deleted
	// only if the item row itself is removed.
	RoadmapItem RoadmapItem `json:"-" gorm:"foreignKey:RoadmapItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string { return "comments" }

// Upvote records that a user has upvoted a roadmap item. A user can hold at
// most one upvote per item (enforced by unique index); repeating the action
// removes the row again ("toggle" semantics), so upvotes are hard-deleted.
type Upvote struct {
	ID            string    `json:"id"              gorm:"type:char(36);primaryKey"`
	UserID        string    `json:"user_id"         gorm:"type:char(36);not null;index;uniqueIndex:ux_upvote_user_item"`
	RoadmapItemID string    `json:"roadmap_item_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_upvote_user_item"`
	CreatedAt     time.Time `json:"created_at"`

	// RoadmapItem is the voted proposal. Upvote rows are cascade-deleted if
	// the item row is removed.
	RoadmapItem RoadmapItem `json:"-" gorm:"foreignKey:RoadmapItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Upvote.
func (Upvote) TableName() string { return "upvotes" }

// UpvoteSummary is the reduced row returned when listing a user's upvotes:
// the voted item's identity fields plus the time the vote was cast.
type UpvoteSummary struct {
	ItemID   string    `json:"item_id"`
	Title    string    `json:"title"`
	Category string    `json:"category"`
	Status   string    `json:"status"`
	VotedAt  time.Time `json:"voted_at"`
}
