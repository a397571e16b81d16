// Package domain contains the launch cache policy and query building.
package domain

import (
	"strings"
	"time"
)

// Launch is one launch as served to callers
type Launch struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Details      *string `json:"details,omitempty"`
	Upcoming     bool    `json:"upcoming"`
	Success      *bool   `json:"success"`
	DateUTC      string  `json:"dateUtc"`
	DateUnix     int64   `json:"dateUnix"`
	RocketID     string  `json:"rocket"`
	FlightNumber int     `json:"flightNumber"`
	Cores        []Core  `json:"cores"`
	Links        Links   `json:"links"`
}

// Core is a booster core flown on a launch
type Core struct {
	Core           *string `json:"core,omitempty"`
	Flight         *int    `json:"flight,omitempty"`
	Reused         *bool   `json:"reused,omitempty"`
	LandingAttempt *bool   `json:"landingAttempt,omitempty"`
	LandingSuccess *bool   `json:"landingSuccess,omitempty"`
}

// Links are the media links of a launch
type Links struct {
	PatchSmall *string `json:"patchSmall,omitempty"`
	PatchLarge *string `json:"patchLarge,omitempty"`
	Webcast    *string `json:"webcast,omitempty"`
	Wikipedia  *string `json:"wikipedia,omitempty"`
	Article    *string `json:"article,omitempty"`
}

// Status values returned by Launch.Status
const (
	StatusUpcoming = "upcoming"
	StatusSuccess  = "success"
	StatusFailed   = "failed"
	StatusUnknown  = "unknown"
)

// Status summarises the outcome of the launch
func (l Launch) Status() string {
	switch {
	case l.Upcoming:
		return StatusUpcoming
	case l.Success == nil:
		return StatusUnknown
	case *l.Success:
		return StatusSuccess
	default:
		return StatusFailed
	}
}

// Time parses DateUTC, falling back to DateUnix
func (l Launch) Time() (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, l.DateUTC); err == nil {
		return t.UTC(), true
	}
	if l.DateUnix > 0 {
		return time.Unix(l.DateUnix, 0).UTC(), true
	}
	return time.Time{}, false
}

// Year extracts the launch year, tolerating malformed dates
func (l Launch) Year() (int, bool) {
	if t, ok := l.Time(); ok {
		return t.Year(), true
	}
	return yearPrefix(l.DateUTC)
}

// DaysSince returns whole days elapsed since the launch, or 0 for future launches
func (l Launch) DaysSince(now time.Time) int {
	t, ok := l.Time()
	if !ok || t.After(now) {
		return 0
	}
	return int(now.Sub(t).Hours() / 24)
}

// DaysUntil returns whole days until the launch, or 0 for past launches
func (l Launch) DaysUntil(now time.Time) int {
	t, ok := l.Time()
	if !ok || !t.After(now) {
		return 0
	}
	return int(t.Sub(now).Hours() / 24)
}

// Page is one page of launches plus pagination metadata
type Page struct {
	Launches    []Launch `json:"launches"`
	TotalCount  int      `json:"totalCount"`
	CurrentPage int      `json:"currentPage"`
	TotalPages  int      `json:"totalPages"`
	HasNextPage bool     `json:"hasNextPage"`
	HasPrevPage bool     `json:"hasPrevPage"`
	PageSize    int      `json:"pageSize"`
}

func yearPrefix(date string) (int, bool) {
	if len(date) < 4 {
		return 0, false
	}
	year := 0
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return 0, false
		}
		year = year*10 + int(r-'0')
	}
	return year, true
}

// YearsFromDates returns the distinct years found in ISO-8601 date strings,
// newest first. Unparseable dates are skipped
func YearsFromDates(dates []string) []int {
	seen := make(map[int]struct{})
	for _, d := range dates {
		t, err := time.Parse(time.RFC3339, strings.TrimSpace(d))
		if err != nil {
			continue
		}
		seen[t.UTC().Year()] = struct{}{}
	}
	return sortedYearsDesc(seen)
}
