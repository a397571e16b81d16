package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// SuccessFilter is the three-way success selector
type SuccessFilter string

const (
	SuccessAll        SuccessFilter = "all"
	SuccessSuccessful SuccessFilter = "successful"
	SuccessFailed     SuccessFilter = "failed"
)

// ParseSuccessFilter accepts "", "all", "successful" and "failed"
func ParseSuccessFilter(s string) (SuccessFilter, error) {
	switch SuccessFilter(strings.ToLower(strings.TrimSpace(s))) {
	case "", SuccessAll:
		return SuccessAll, nil
	case SuccessSuccessful:
		return SuccessSuccessful, nil
	case SuccessFailed:
		return SuccessFailed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSuccessFilter, s)
	}
}

// Value returns the success predicate, or nil for SuccessAll
func (s SuccessFilter) Value() *bool {
	switch s {
	case SuccessSuccessful:
		v := true
		return &v
	case SuccessFailed:
		v := false
		return &v
	default:
		return nil
	}
}

// Filter narrows a launch listing by year and outcome
type Filter struct {
	Years   []int         `json:"years" validate:"omitempty,dive,gte=1900,lte=2100"`
	Success SuccessFilter `json:"successStatus" validate:"omitempty,oneof=all successful failed"`
}

// IsActive reports whether the filter deviates from the empty default
func (f Filter) IsActive() bool {
	return len(f.Years) > 0 || f.Success.Value() != nil
}

// Normalized returns the filter with years deduplicated and sorted ascending
func (f Filter) Normalized() Filter {
	out := Filter{Success: f.Success}
	if out.Success == "" {
		out.Success = SuccessAll
	}
	if len(f.Years) > 0 {
		out.Years = slices.Clone(f.Years)
		slices.Sort(out.Years)
		out.Years = slices.Compact(out.Years)
	}
	return out
}

// String describes the filter for display
func (f Filter) String() string {
	if !f.IsActive() {
		return "All Launches"
	}

	n := f.Normalized()
	var parts []string
	switch {
	case len(n.Years) == 0:
	case len(n.Years) <= 3:
		years := make([]string, len(n.Years))
		for i, y := range n.Years {
			years[i] = strconv.Itoa(y)
		}
		parts = append(parts, strings.Join(years, ", "))
	default:
		parts = append(parts, fmt.Sprintf("%d years", len(n.Years)))
	}

	switch n.Success {
	case SuccessSuccessful:
		parts = append(parts, "Successful")
	case SuccessFailed:
		parts = append(parts, "Failed")
	}

	return strings.Join(parts, " • ")
}
