package transport

import "github.com/pendergraft/launchcache/internal/rockets/domain"

// NamesResponse maps rocket ids to names
type NamesResponse struct {
	Names map[string]string `json:"names"`
}

// RocketResponse is a rocket plus its display strings
type RocketResponse struct {
	domain.Rocket
	CostDisplay        string `json:"costDisplay"`
	SuccessRateDisplay string `json:"successRateDisplay"`
}
