package storage

import "errors"

// ErrNotFound is returned when a requested record does not exist.
// Callers test for it with errors.Is.
var ErrNotFound = errors.New("record not found")
