package errors

import "errors"

var (
	ErrNotFound = errors.New("price record not found")

	// ErrVersionConflict means another writer updated or created the record first.
	ErrVersionConflict = errors.New("price record version conflict")
)
