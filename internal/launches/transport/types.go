package transport

import (
	"github.com/pendergraft/launchcache/internal/launches/domain"
)

// LaunchResponse is a launch plus its derived status
type LaunchResponse struct {
	domain.Launch
	Status string `json:"status"`
}

// DetailResponse adds the day counters shown on the detail view
type DetailResponse struct {
	LaunchResponse
	DaysSince int `json:"daysSince"`
	DaysUntil int `json:"daysUntil"`
}

// ListResponse is one page of launches
type ListResponse struct {
	Launches    []LaunchResponse  `json:"launches"`
	TotalCount  int               `json:"totalCount"`
	CurrentPage int               `json:"currentPage"`
	TotalPages  int               `json:"totalPages"`
	HasNextPage bool              `json:"hasNextPage"`
	HasPrevPage bool              `json:"hasPrevPage"`
	PageSize    int               `json:"pageSize"`
	Sort        domain.SortOption `json:"sort"`
	Filter      string            `json:"filter"`
}

// YearsResponse lists the years with launches, newest first
type YearsResponse struct {
	Years []int `json:"years"`
}

func toResponse(l domain.Launch) LaunchResponse {
	return LaunchResponse{Launch: l, Status: l.Status()}
}
