package spacex

import (
	"time"

	companydomain "github.com/pendergraft/launchcache/internal/company/domain"
	launchdomain "github.com/pendergraft/launchcache/internal/launches/domain"
	rocketdomain "github.com/pendergraft/launchcache/internal/rockets/domain"
)

// Wire shapes of the SpaceX API. Field names are snake_case on the wire.

type launchDTO struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Details      *string        `json:"details"`
	Upcoming     bool           `json:"upcoming"`
	Success      *bool          `json:"success"`
	DateUTC      string         `json:"date_utc"`
	DateUnix     int64          `json:"date_unix"`
	Links        launchLinksDTO `json:"links"`
	Rocket       string         `json:"rocket"`
	FlightNumber int            `json:"flight_number"`
	Cores        []launchCore   `json:"cores"`
}

type launchLinksDTO struct {
	Patch struct {
		Small *string `json:"small"`
		Large *string `json:"large"`
	} `json:"patch"`
	Webcast   *string `json:"webcast"`
	Wikipedia *string `json:"wikipedia"`
	Article   *string `json:"article"`
}

type launchCore struct {
	Core           *string `json:"core"`
	Flight         *int    `json:"flight"`
	Reused         *bool   `json:"reused"`
	LandingAttempt *bool   `json:"landing_attempt"`
	LandingSuccess *bool   `json:"landing_success"`
}

type paginatedLaunchesDTO struct {
	Docs        []launchDTO `json:"docs"`
	TotalDocs   int         `json:"totalDocs"`
	Limit       int         `json:"limit"`
	Page        int         `json:"page"`
	TotalPages  int         `json:"totalPages"`
	HasNextPage bool        `json:"hasNextPage"`
	HasPrevPage bool        `json:"hasPrevPage"`
}

type rocketDTO struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Active         bool     `json:"active"`
	CostPerLaunch  *int64   `json:"cost_per_launch"`
	SuccessRatePct int      `json:"success_rate_pct"`
	FlickrImages   []string `json:"flickr_images"`
	Wikipedia      string   `json:"wikipedia"`
}

type companyDTO struct {
	Name         string `json:"name"`
	Founder      string `json:"founder"`
	Founded      int    `json:"founded"`
	Employees    int    `json:"employees"`
	CEO          string `json:"ceo"`
	Valuation    int64  `json:"valuation"`
	Headquarters struct {
		Address string `json:"address"`
		City    string `json:"city"`
		State   string `json:"state"`
	} `json:"headquarters"`
	Links struct {
		Website     string `json:"website"`
		Flickr      string `json:"flickr"`
		Twitter     string `json:"twitter"`
		ElonTwitter string `json:"elon_twitter"`
	} `json:"links"`
	Summary string `json:"summary"`
}

func (d launchDTO) toDomain() launchdomain.Launch {
	l := launchdomain.Launch{
		ID:           d.ID,
		Name:         d.Name,
		Details:      d.Details,
		Upcoming:     d.Upcoming,
		Success:      d.Success,
		DateUTC:      d.DateUTC,
		DateUnix:     d.DateUnix,
		RocketID:     d.Rocket,
		FlightNumber: d.FlightNumber,
		Links: launchdomain.Links{
			PatchSmall: d.Links.Patch.Small,
			PatchLarge: d.Links.Patch.Large,
			Webcast:    d.Links.Webcast,
			Wikipedia:  d.Links.Wikipedia,
			Article:    d.Links.Article,
		},
		Cores: make([]launchdomain.Core, 0, len(d.Cores)),
	}
	// date_unix is derived from date_utc upstream; trust the string.
	if t, err := time.Parse(time.RFC3339, d.DateUTC); err == nil {
		l.DateUnix = t.Unix()
	}
	for _, c := range d.Cores {
		l.Cores = append(l.Cores, launchdomain.Core{
			Core:           c.Core,
			Flight:         c.Flight,
			Reused:         c.Reused,
			LandingAttempt: c.LandingAttempt,
			LandingSuccess: c.LandingSuccess,
		})
	}
	return l
}

func (d paginatedLaunchesDTO) toDomain() *launchdomain.Page {
	launches := make([]launchdomain.Launch, 0, len(d.Docs))
	for _, doc := range d.Docs {
		launches = append(launches, doc.toDomain())
	}
	return &launchdomain.Page{
		Launches:    launches,
		TotalCount:  d.TotalDocs,
		CurrentPage: d.Page,
		TotalPages:  d.TotalPages,
		HasNextPage: d.HasNextPage,
		HasPrevPage: d.HasPrevPage,
		PageSize:    d.Limit,
	}
}

func (d rocketDTO) toDomain() rocketdomain.Rocket {
	images := d.FlickrImages
	if images == nil {
		images = []string{}
	}
	return rocketdomain.Rocket{
		ID:             d.ID,
		Name:           d.Name,
		Description:    d.Description,
		Active:         d.Active,
		CostPerLaunch:  d.CostPerLaunch,
		SuccessRatePct: d.SuccessRatePct,
		FlickrImages:   images,
		Wikipedia:      d.Wikipedia,
	}
}

func (d companyDTO) toDomain() *companydomain.Company {
	return &companydomain.Company{
		Name:      d.Name,
		Founder:   d.Founder,
		Founded:   d.Founded,
		Employees: d.Employees,
		CEO:       d.CEO,
		Valuation: d.Valuation,
		Headquarters: companydomain.Headquarters{
			Address: d.Headquarters.Address,
			City:    d.Headquarters.City,
			State:   d.Headquarters.State,
		},
		Links: companydomain.Links{
			Website:     d.Links.Website,
			Flickr:      d.Links.Flickr,
			Twitter:     d.Links.Twitter,
			ElonTwitter: d.Links.ElonTwitter,
		},
		Summary: d.Summary,
	}
}
