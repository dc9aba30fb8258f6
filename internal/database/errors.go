package database

import "errors"

var (
	// ErrConflict is returned when an insert loses a race against a
	// concurrent insert of the same unique key. Callers retry the whole
	// read-modify-write sequence.
	ErrConflict = errors.New("unique constraint conflict")

	// ErrNotFound is returned by updates that address a row which does not exist.
	ErrNotFound = errors.New("record not found")
)
