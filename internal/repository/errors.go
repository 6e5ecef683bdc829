package repository

import "errors"

// Error taxonomy surfaced to collaborators. Raw driver errors are caught at
// this layer and translated; they never leak upward.
var (
	// ErrDuplicateEntry reports an insert that violates a uniqueness rule,
	// e.g. the same pair submitted twice by one user.
	ErrDuplicateEntry = errors.New("entry already exists")

	// ErrInvalidReference reports a lesson or category id that does not
	// exist or belongs to a different user. Rejected before any write.
	ErrInvalidReference = errors.New("invalid lesson or category reference")

	// ErrNotFound reports an operation on an entity that does not exist or
	// is not owned by the asserting caller.
	ErrNotFound = errors.New("not found")
)
