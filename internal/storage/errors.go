package storage

import "errors"

// Common storage errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidOrder = errors.New("invalid sort order")
	ErrInvalidPage  = errors.New("invalid page")
)
