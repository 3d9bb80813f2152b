package store

import "errors"

var (
	// ErrConflict is returned when a batch targets an occupied key, repeats a key,
	// updates a missing key, or carries a stale ETag without force.
	ErrConflict = errors.New("tablemock: conflict")

	// ErrTableNotFound is returned when Update addresses a table that does not exist.
	ErrTableNotFound = errors.New("tablemock: table not found")

	// ErrInvalidETag is returned by ParseETag for text that was not produced by ETag.String.
	ErrInvalidETag = errors.New("tablemock: invalid etag")
)
