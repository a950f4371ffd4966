// Package services – CommentService
//
// This file implements the CommentService, which manages the threaded
// discussion under each roadmap item: creating top-level comments and replies
// with a bounded nesting depth, editing and soft-deleting comments with
// ownership checks, and assembling the nested reply tree for display.
//
// Every mutation keeps the item's denormalized comment counter consistent by
// recounting live comments inside the same transaction, so callers never
// observe a comment mutation whose count has not been applied.
//
// Service-level errors (e.g., ErrItemNotFound, ErrMaxDepth,
// ErrCommentNotFound) are returned for predictable cases so handlers can map
// them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/ideapulse/go-roadmap-backend/internal/domain"
	"github.com/ideapulse/go-roadmap-backend/internal/observability"
	"github.com/ideapulse/go-roadmap-backend/internal/repo"
)

// CommentNode is a comment plus its nested replies, as served to clients.
// Replies are ordered oldest-first at every level; the tree is at most three
// levels deep. A soft-deleted comment that still has live descendants is kept
// as a placeholder: its content is blanked and its author omitted.
type CommentNode struct {
	domain.Comment
	Replies []*CommentNode `json:"replies"`
}

// CommentService implements the use-cases around threaded comments. It
// validates content, enforces the depth bound, maintains the per-item comment
// counter, and populates author profiles on read paths.
type CommentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// MaxContentRunes caps comment bodies by rune length.
	MaxContentRunes int
}

// NewCommentService constructs a CommentService with the default content cap.
func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{DB: db, MaxContentRunes: 1000}
}

// Add creates a top-level comment (parentID nil) or a reply on behalf of
// userID.
//
// Semantics and validation:
//   - content is trimmed and NFC-normalized; empty content yields
//     ErrEmptyContent, over-long content ErrContentTooLong.
//   - itemID must reference an existing item; otherwise ErrItemNotFound.
//   - When parentID is set, the parent must be a live comment on the same
//     item (ErrParentNotFound otherwise) and the computed depth
//     (parent.Depth+1) must not exceed the cap (ErrMaxDepth).
//
// Concurrency & atomicity:
//   - The insert and the comment-counter recount run inside one transaction,
//     so the counter is durably consistent before the call returns.
//
// On success, the created comment is returned with its author's public
// profile populated.
func (s *CommentService) Add(ctx context.Context, userID, itemID string, parentID *string, content string) (*domain.Comment, error) {
	content, err := s.normalize(content)
	if err != nil {
		return nil, err
	}

	var created *domain.Comment
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := repo.ItemExists(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrItemNotFound
		}

		depth := 0
		if parentID != nil && *parentID != "" {
			parent, err := repo.GetLiveComment(ctx, tx, *parentID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrParentNotFound
				}
				return err
			}
			// A reply always lives on its parent's item.
			if parent.RoadmapItemID != itemID {
				return ErrParentNotFound
			}
			depth = parent.Depth + 1
			if depth > domain.MaxCommentDepth {
				return ErrMaxDepth
			}
		}

		c := &domain.Comment{
			Content:       content,
			RoadmapItemID: itemID,
			UserID:        userID,
			Depth:         depth,
		}
		if parentID != nil && *parentID != "" {
			c.ParentCommentID = parentID
		}
		if err := repo.CreateComment(ctx, tx, c); err != nil {
			return err
		}
		if err := s.recount(ctx, tx, itemID); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.CommentsCreated.Inc()

	if u, err := repo.GetUser(ctx, s.DB, userID); err == nil {
		created.User = u
	}
	return created, nil
}

// Edit replaces the content of a comment owned by userID. Depth and parent
// linkage are never altered; updated_at is refreshed.
//
// A missing, deleted, or foreign-owned comment all yield ErrCommentNotFound.
func (s *CommentService) Edit(ctx context.Context, userID, commentID, content string) (*domain.Comment, error) {
	content, err := s.normalize(content)
	if err != nil {
		return nil, err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repo.GetOwnedComment(ctx, tx, commentID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}
		return repo.UpdateCommentContent(ctx, tx, commentID, content)
	})
	if err != nil {
		return nil, err
	}

	return repo.GetComment(ctx, s.DB, commentID)
}

// Remove soft-deletes a comment owned by userID and refreshes the item's
// comment counter in the same transaction. Children remain attached and stay
// independently visible or hidden based on their own deletion flag.
//
// A missing, deleted, or foreign-owned comment all yield ErrCommentNotFound.
func (s *CommentService) Remove(ctx context.Context, userID, commentID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := repo.GetOwnedComment(ctx, tx, commentID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCommentNotFound
			}
			return err
		}
		if err := repo.MarkCommentDeleted(ctx, tx, commentID); err != nil {
			return err
		}
		return s.recount(ctx, tx, c.RoadmapItemID)
	})
	if err != nil {
		return err
	}

	observability.CommentsDeleted.Inc()
	return nil
}

// List assembles the comment tree for an item: top-level comments newest
// first, each with its replies populated oldest-first through at most
// two additional levels (matching the three-level cap).
//
// Deleted-comment policy: a soft-deleted comment with at least one live
// descendant is kept as a placeholder (blank content, no author) so live
// replies stay reachable; deleted comments without live descendants are
// pruned entirely.
func (s *CommentService) List(ctx context.Context, itemID string) ([]*CommentNode, error) {
	roots, err := repo.ListTopLevelComments(ctx, s.DB, itemID)
	if err != nil {
		return nil, err
	}

	level := make([]*CommentNode, 0, len(roots))
	top := make([]*CommentNode, 0, len(roots))
	for i := range roots {
		n := &CommentNode{Comment: roots[i], Replies: []*CommentNode{}}
		top = append(top, n)
		level = append(level, n)
	}

	// Walk down a fixed number of levels; the depth bound guarantees no rows
	// exist beyond it, and the explicit cap guarantees termination even if
	// the data were inconsistent.
	for d := 0; d < domain.MaxCommentDepth && len(level) > 0; d++ {
		ids := make([]string, 0, len(level))
		byID := make(map[string]*CommentNode, len(level))
		for _, n := range level {
			ids = append(ids, n.ID)
			byID[n.ID] = n
		}

		children, err := repo.ListReplies(ctx, s.DB, ids)
		if err != nil {
			return nil, err
		}

		next := make([]*CommentNode, 0, len(children))
		for i := range children {
			c := children[i]
			parent, ok := byID[*c.ParentCommentID]
			if !ok {
				continue
			}
			n := &CommentNode{Comment: c, Replies: []*CommentNode{}}
			parent.Replies = append(parent.Replies, n)
			next = append(next, n)
		}
		level = next
	}

	out := make([]*CommentNode, 0, len(top))
	for _, n := range top {
		if pruned := pruneDeleted(n); pruned != nil {
			out = append(out, pruned)
		}
	}
	return out, nil
}

// pruneDeleted applies the deleted-comment policy to a subtree. It returns
// nil when the whole subtree should disappear from listings.
func pruneDeleted(n *CommentNode) *CommentNode {
	kept := make([]*CommentNode, 0, len(n.Replies))
	for _, r := range n.Replies {
		if p := pruneDeleted(r); p != nil {
			kept = append(kept, p)
		}
	}
	n.Replies = kept

	if n.IsDeleted {
		if len(kept) == 0 {
			return nil
		}
		// Placeholder: structure survives, content and author do not.
		n.Content = ""
		n.User = nil
	}
	return n
}

// recount recomputes the live comment count for an item and writes it onto
// the item row. Must run inside the mutating transaction.
func (s *CommentService) recount(ctx context.Context, tx *gorm.DB, itemID string) error {
	n, err := repo.CountActiveComments(ctx, tx, itemID)
	if err != nil {
		return err
	}
	return repo.SetCommentCount(ctx, tx, itemID, n)
}

// normalize trims and NFC-normalizes a comment body and enforces length
// bounds.
func (s *CommentService) normalize(content string) (string, error) {
	content = norm.NFC.String(strings.TrimSpace(content))
	if content == "" {
		return "", ErrEmptyContent
	}
	max := s.MaxContentRunes
	if max <= 0 {
		max = 1000
	}
	if utf8.RuneCountInString(content) > max {
		return "", ErrContentTooLong
	}
	return content, nil
}
