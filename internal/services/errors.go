// Package services defines the business logic for roadmap items, comments,
// and upvotes. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Item-related errors.
var (
	// ErrItemNotFound indicates that the referenced roadmap item does not exist.
	ErrItemNotFound = errors.New("roadmap item not found")

	// ErrInvalidTitle is returned when an item title is empty or exceeds the
	// maximum length.
	ErrInvalidTitle = errors.New("title must be 1-100 characters")

	// ErrInvalidDescription is returned when an item description is empty or
	// exceeds the maximum length.
	ErrInvalidDescription = errors.New("description must be 1-1000 characters")

	// ErrInvalidCategory is returned when a category value is outside the
	// allowed enum.
	ErrInvalidCategory = errors.New("unknown category")

	// ErrInvalidStatus is returned when a status value is outside the
	// allowed enum.
	ErrInvalidStatus = errors.New("unknown status")

	// ErrInvalidPriority is returned when a priority is outside 1-5.
	ErrInvalidPriority = errors.New("priority must be between 1 and 5")
)

// Comment-related errors.
var (
	// ErrCommentNotFound indicates that the requested comment does not exist,
	// is deleted, or is not owned by the current user. The three cases are
	// deliberately indistinguishable so responses never leak existence.
	ErrCommentNotFound = errors.New("comment not found or no permission")

	// ErrParentNotFound indicates that the referenced parent comment does not
	// exist (or is deleted, or belongs to a different item).
	ErrParentNotFound = errors.New("parent comment not found")

	// ErrMaxDepth is returned when a reply would exceed the depth cap
	// (three levels: root, reply, reply-to-reply).
	ErrMaxDepth = errors.New("maximum reply depth reached")

	// ErrEmptyContent is returned when a comment body is empty after trimming.
	ErrEmptyContent = errors.New("content is empty")

	// ErrContentTooLong is returned when a comment body exceeds the maximum
	// configured rune length.
	ErrContentTooLong = errors.New("content too long")
)
