// Package services – UpvoteService
//
// This file implements the UpvoteService, the toggle machinery behind the
// one-vote-per-user rule: a user's first call on an item records the vote and
// bumps the denormalized counter, the next call withdraws it, and concurrent
// duplicate attempts collapse onto the unique (user, item) constraint without
// ever double-counting.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ideapulse/go-roadmap-backend/internal/domain"
	"github.com/ideapulse/go-roadmap-backend/internal/observability"
	"github.com/ideapulse/go-roadmap-backend/internal/repo"
)

// ToggleResult reports the outcome of a vote toggle: the caller's vote state
// after the call and the item's resulting vote total.
type ToggleResult struct {
	Upvoted bool `json:"upvoted"`
	Upvotes int  `json:"upvotes"`
}

// UpvoteService implements vote toggling and the related read paths.
type UpvoteService struct {
	DB *gorm.DB
}

// NewUpvoteService constructs an UpvoteService.
func NewUpvoteService(db *gorm.DB) *UpvoteService {
	return &UpvoteService{DB: db}
}

// Toggle flips userID's vote on itemID and returns the new state.
//
// Semantics:
//   - No existing vote: one is recorded and the item counter is incremented.
//   - Existing vote: it is removed and the counter decremented.
//   - ErrItemNotFound when the item does not exist.
//
// Concurrency:
//   - Two concurrent "vote" calls race on the unique (user, item) index; the
//     loser observes the duplicate and reports upvoted=true without a second
//     increment. Symmetrically, a lost delete race reports upvoted=false
//     without a second decrement. The counter therefore moves exactly once
//     per state change.
func (s *UpvoteService) Toggle(ctx context.Context, userID, itemID string) (*ToggleResult, error) {
	var res ToggleResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := repo.ItemExists(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrItemNotFound
		}

		_, err = repo.GetUpvote(ctx, tx, userID, itemID)
		switch {
		case err == nil:
			if err := repo.DeleteUpvote(ctx, tx, userID, itemID); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					// Another request withdrew the vote first.
					res.Upvoted = false
					return s.loadTotal(ctx, tx, itemID, &res)
				}
				return err
			}
			if err := repo.AddUpvotes(ctx, tx, itemID, -1); err != nil {
				return err
			}
			res.Upvoted = false

		case errors.Is(err, gorm.ErrRecordNotFound):
			if _, err := repo.CreateUpvote(ctx, tx, userID, itemID); err != nil {
				if errors.Is(err, repo.ErrDuplicateVote) {
					// Another request recorded the vote first.
					res.Upvoted = true
					return s.loadTotal(ctx, tx, itemID, &res)
				}
				return err
			}
			if err := repo.AddUpvotes(ctx, tx, itemID, 1); err != nil {
				return err
			}
			res.Upvoted = true

		default:
			return err
		}

		return s.loadTotal(ctx, tx, itemID, &res)
	})
	if err != nil {
		return nil, err
	}

	if res.Upvoted {
		observability.UpvoteToggles.WithLabelValues("up").Inc()
	} else {
		observability.UpvoteToggles.WithLabelValues("down").Inc()
	}
	return &res, nil
}

// CountForItem returns the authoritative vote count for an item, derived from
// the vote rows rather than the denormalized column. ErrItemNotFound when the
// item does not exist.
func (s *UpvoteService) CountForItem(ctx context.Context, itemID string) (int64, error) {
	exists, err := repo.ItemExists(ctx, s.DB, itemID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrItemNotFound
	}
	return repo.CountUpvotesForItem(ctx, s.DB, itemID)
}

// ListForUser returns the items a user has voted on, most recent vote first.
func (s *UpvoteService) ListForUser(ctx context.Context, userID string) ([]domain.UpvoteSummary, error) {
	return repo.ListUpvotesForUser(ctx, s.DB, userID)
}

// loadTotal refreshes res.Upvotes from the item row inside the transaction.
func (s *UpvoteService) loadTotal(ctx context.Context, tx *gorm.DB, itemID string, res *ToggleResult) error {
	it, err := repo.GetItem(ctx, tx, itemID)
	if err != nil {
		return err
	}
	res.Upvotes = it.Upvotes
	return nil
}
