package domain

import (
	"fmt"
	"log/slog"
	"slices"
)

// Query limits
const (
	MinQueryYear      = 1957
	MaxQueryYear      = 2050
	MaxPageSize       = 100
	MaxOrConditions   = 20
	yearsQueryLimit   = 2000
	DefaultPageSize   = 20
	yearRegexTemplate = "^%d-"
)

// DateQuery matches date_utc against a pattern
type DateQuery struct {
	Regex string `json:"$regex"`
}

// QueryFilter is a predicate tree in the remote query language.
// Fields within one node are ANDed; Or branches are ORed
type QueryFilter struct {
	Success *bool         `json:"success,omitempty"`
	DateUTC *DateQuery    `json:"date_utc,omitempty"`
	Or      []QueryFilter `json:"$or,omitempty"`
}

// QueryOptions are the remote paging and projection options
type QueryOptions struct {
	Limit  int               `json:"limit"`
	Page   int               `json:"page"`
	Sort   map[string]string `json:"sort,omitempty"`
	Select map[string]int    `json:"select,omitempty"`
}

// LaunchQuery is the body of the remote launch query endpoint
type LaunchQuery struct {
	Query   *QueryFilter `json:"query,omitempty"`
	Options QueryOptions `json:"options"`
}

// BuildQuery turns a filter into a predicate tree. It never fails; years
// outside MinQueryYear..MaxQueryYear are dropped and logged
func BuildQuery(filter Filter, logger *slog.Logger) *QueryFilter {
	var years []int
	for _, y := range filter.Years {
		if y < MinQueryYear || y > MaxQueryYear {
			if logger != nil {
				logger.Warn("dropping out-of-range year from launch filter", "year", y)
			}
			continue
		}
		years = append(years, y)
	}
	slices.Sort(years)
	years = slices.Compact(years)

	success := filter.Success.Value()

	switch {
	case len(years) == 0 && success == nil:
		return nil
	case len(years) == 0:
		return &QueryFilter{Success: success}
	}

	branches := make([]QueryFilter, 0, len(years))
	for _, y := range years {
		branches = append(branches, QueryFilter{
			Success: success,
			DateUTC: &DateQuery{Regex: fmt.Sprintf(yearRegexTemplate, y)},
		})
	}
	return &QueryFilter{Or: branches}
}

// NewLaunchQuery builds the query for one page of launches
func NewLaunchQuery(filter Filter, sort SortOption, page, pageSize int, logger *slog.Logger) LaunchQuery {
	return LaunchQuery{
		Query: BuildQuery(filter, logger),
		Options: QueryOptions{
			Limit: pageSize,
			Page:  page,
			Sort:  sort.APISort(),
		},
	}
}

// YearsQuery requests only date_utc across as many launches as the
// remote allows in one page
func YearsQuery() LaunchQuery {
	return LaunchQuery{
		Options: QueryOptions{
			Limit:  yearsQueryLimit,
			Page:   1,
			Sort:   map[string]string{"date_utc": "desc"},
			Select: map[string]int{"date_utc": 1},
		},
	}
}

// Validate checks paging bounds and the OR branch count
func (q LaunchQuery) Validate() error {
	if q.Options.Limit < 1 || q.Options.Limit > MaxPageSize {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrInvalidPageSize, q.Options.Limit, MaxPageSize)
	}
	if q.Options.Page < 1 {
		return fmt.Errorf("%w: %d (must be >= 1)", ErrInvalidPage, q.Options.Page)
	}
	if q.Query != nil {
		return q.Query.validate()
	}
	return nil
}

func (f QueryFilter) validate() error {
	if f.Or == nil {
		return nil
	}
	if len(f.Or) == 0 || len(f.Or) > MaxOrConditions {
		return fmt.Errorf("%w: %d (must be 1..%d)", ErrTooManyOrConditions, len(f.Or), MaxOrConditions)
	}
	for _, branch := range f.Or {
		if err := branch.validate(); err != nil {
			return err
		}
	}
	return nil
}

func sortedYearsDesc(set map[int]struct{}) []int {
	years := make([]int, 0, len(set))
	for y := range set {
		years = append(years, y)
	}
	slices.SortFunc(years, func(a, b int) int { return b - a })
	return years
}
