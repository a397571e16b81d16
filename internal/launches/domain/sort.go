package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pendergraft/launchcache/internal/storage"
)

// SortOption is the closed set of launch orderings
type SortOption string

const (
	SortDateAsc  SortOption = "date_asc"
	SortDateDesc SortOption = "date_desc"
	SortNameAsc  SortOption = "name_asc"
	SortNameDesc SortOption = "name_desc"

	DefaultSortOption = SortDateAsc
)

// SortOptions lists every option
var SortOptions = []SortOption{SortDateAsc, SortDateDesc, SortNameAsc, SortNameDesc}

// ParseSortOption accepts the raw option values; empty selects the default
func ParseSortOption(s string) (SortOption, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultSortOption, nil
	}
	opt := SortOption(s)
	if !slices.Contains(SortOptions, opt) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSortOption, s)
	}
	return opt, nil
}

// DisplayName is the human label of the option
func (s SortOption) DisplayName() string {
	switch s {
	case SortDateDesc:
		return "Date (Newest First)"
	case SortNameAsc:
		return "Name (A to Z)"
	case SortNameDesc:
		return "Name (Z to A)"
	default:
		return "Date (Oldest First)"
	}
}

// APISort is the remote sort parameter pair
func (s SortOption) APISort() map[string]string {
	switch s {
	case SortDateDesc:
		return map[string]string{"date_utc": "desc"}
	case SortNameAsc:
		return map[string]string{"name": "asc"}
	case SortNameDesc:
		return map[string]string{"name": "desc"}
	default:
		return map[string]string{"date_utc": "asc"}
	}
}

// LocalOrder is the store ORDER BY that matches APISort
func (s SortOption) LocalOrder() storage.LaunchOrder {
	for field, dir := range s.APISort() {
		return storage.LaunchOrder{Field: field, Descending: dir == "desc"}
	}
	return storage.LaunchOrder{Field: "date_utc"}
}
