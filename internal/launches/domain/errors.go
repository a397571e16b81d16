package domain

import "errors"

// Errors returned by the launch repository and query validation
var (
	ErrLaunchNotFound       = errors.New("launch not found")
	ErrInvalidSortOption    = errors.New("invalid sort option")
	ErrInvalidSuccessFilter = errors.New("invalid success filter")
	ErrInvalidPageSize      = errors.New("invalid page size")
	ErrInvalidPage          = errors.New("invalid page")
	ErrTooManyOrConditions  = errors.New("too many $or conditions")
)
