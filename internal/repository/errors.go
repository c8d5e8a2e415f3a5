package repository

import "errors"

var (
	// ErrNotFound is returned when no row matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when the users.email unique constraint rejects a write.
	ErrDuplicateEmail = errors.New("email already exists")
)
