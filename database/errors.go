// microboard/database/errors.go
package database

import "errors"

// Sentinel errors for the store's result outcomes. Callers distinguish these
// with errors.Is; anything else is a storage-level failure that propagates
// unretried.
var (
	// ErrNotFound means the referenced post, board or account does not exist
	// (or is soft-deleted and the caller did not ask for deleted rows).
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness constraint was violated. For post
	// numbering this indicates an internal invariant violation, not a
	// retryable condition.
	ErrConflict = errors.New("conflict")

	// ErrValidation means a caller-supplied parameter was out of range.
	ErrValidation = errors.New("invalid parameter")
)
