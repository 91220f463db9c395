package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert collides with the unique
// email or nickname index.
var ErrDuplicate = errors.New("duplicate record")
