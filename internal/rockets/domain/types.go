// Package domain contains the rocket cache policy.
package domain

import (
	"errors"
	"fmt"

	"github.com/pendergraft/launchcache/internal/storage"
)

// ErrRocketNotFound is returned when a rocket is neither cached nor fetchable
var ErrRocketNotFound = errors.New("rocket not found")

// UnknownRocketName is shown for rocket ids that could not be resolved
const UnknownRocketName = "Unknown Rocket"

// Rocket is a launch vehicle
type Rocket struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Active         bool     `json:"active"`
	CostPerLaunch  *int64   `json:"costPerLaunch,omitempty"`
	SuccessRatePct int      `json:"successRatePct"`
	FlickrImages   []string `json:"flickrImages"`
	Wikipedia      string   `json:"wikipedia"`
}

// CostDisplay formats the cost per launch, e.g. "$50.0M"
func (r Rocket) CostDisplay() string {
	if r.CostPerLaunch == nil {
		return "N/A"
	}
	cost := float64(*r.CostPerLaunch)
	switch {
	case cost >= 1e9:
		return fmt.Sprintf("$%.1fB", cost/1e9)
	case cost >= 1e6:
		return fmt.Sprintf("$%.1fM", cost/1e6)
	default:
		return fmt.Sprintf("$%d", *r.CostPerLaunch)
	}
}

// SuccessRateDisplay formats the success rate, e.g. "98%"
func (r Rocket) SuccessRateDisplay() string {
	return fmt.Sprintf("%d%%", r.SuccessRatePct)
}

func toRecord(r Rocket) storage.Rocket {
	return storage.Rocket{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		Active:         r.Active,
		CostPerLaunch:  r.CostPerLaunch,
		SuccessRatePct: r.SuccessRatePct,
		FlickrImages:   r.FlickrImages,
		Wikipedia:      r.Wikipedia,
	}
}

func fromRecord(r storage.Rocket) Rocket {
	return Rocket{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		Active:         r.Active,
		CostPerLaunch:  r.CostPerLaunch,
		SuccessRatePct: r.SuccessRatePct,
		FlickrImages:   r.FlickrImages,
		Wikipedia:      r.Wikipedia,
	}
}

func toRecords(rockets []Rocket) []storage.Rocket {
	out := make([]storage.Rocket, len(rockets))
	for i, r := range rockets {
		out[i] = toRecord(r)
	}
	return out
}
