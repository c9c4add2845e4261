package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrStaleStatus is returned by a conditional status write when the
	// record's observed status no longer matches the expected pre-state.
	ErrStaleStatus = errors.New("status changed since read")
)
