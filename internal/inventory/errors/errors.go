package errors

import "errors"

var (
	ErrNotFound = errors.New("inventory item not found")
)
