package errors

import "errors"

var (
	ErrNotFound = errors.New("price freeze not found")

	// ErrAlreadyFrozen means the user already holds an active freeze on the item.
	ErrAlreadyFrozen = errors.New("an active freeze already exists for this user and item")

	ErrFreezeExpired = errors.New("price freeze has expired")
	ErrAlreadyUsed   = errors.New("price freeze has already been used")

	// ErrStateChanged means the stored freeze left the expected state before the update.
	ErrStateChanged = errors.New("price freeze state changed concurrently")
)
