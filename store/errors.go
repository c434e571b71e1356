package store

import "errors"

// Predefined errors for the store layer.
var (
	// ErrNotFound indicates that no value exists for the requested key.
	ErrNotFound = errors.New("key not found")
)
