// Package domain contains the company cache policy.
package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pendergraft/launchcache/internal/storage"
)

// Company is the singleton company record
type Company struct {
	Name         string       `json:"name"`
	Founder      string       `json:"founder"`
	Founded      int          `json:"founded"`
	Employees    int          `json:"employees"`
	CEO          string       `json:"ceo"`
	Valuation    int64        `json:"valuation"`
	Headquarters Headquarters `json:"headquarters"`
	Links        Links        `json:"links"`
	Summary      string       `json:"summary"`
}

// Headquarters is the company address
type Headquarters struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

// Links are the company's web links
type Links struct {
	Website     string `json:"website"`
	Flickr      string `json:"flickr,omitempty"`
	Twitter     string `json:"twitter"`
	ElonTwitter string `json:"elonTwitter,omitempty"`
}

// ValuationDisplay abbreviates the valuation, e.g. "$74.0B"
func (c Company) ValuationDisplay() string {
	v := float64(c.Valuation)
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.1fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	default:
		return "$" + groupThousands(c.Valuation)
	}
}

// Description is the one-paragraph company blurb
func (c Company) Description() string {
	return fmt.Sprintf("%s was founded by %s in %d. It has now %s employees, headquarters in %s, and a valuation of %s.",
		c.Name, c.Founder, c.Founded, groupThousands(int64(c.Employees)), c.Headquarters.State, c.ValuationDisplay())
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func toRecord(c Company) *storage.Company {
	return &storage.Company{
		Name:      c.Name,
		Founder:   c.Founder,
		Founded:   c.Founded,
		Employees: c.Employees,
		CEO:       c.CEO,
		Valuation: c.Valuation,
		Headquarters: storage.Headquarters{
			Address: c.Headquarters.Address,
			City:    c.Headquarters.City,
			State:   c.Headquarters.State,
		},
		Links: storage.CompanyLinks{
			Website:     c.Links.Website,
			Flickr:      c.Links.Flickr,
			Twitter:     c.Links.Twitter,
			ElonTwitter: c.Links.ElonTwitter,
		},
		Summary: c.Summary,
	}
}

func fromRecord(r *storage.Company) *Company {
	return &Company{
		Name:      r.Name,
		Founder:   r.Founder,
		Founded:   r.Founded,
		Employees: r.Employees,
		CEO:       r.CEO,
		Valuation: r.Valuation,
		Headquarters: Headquarters{
			Address: r.Headquarters.Address,
			City:    r.Headquarters.City,
			State:   r.Headquarters.State,
		},
		Links: Links{
			Website:     r.Links.Website,
			Flickr:      r.Links.Flickr,
			Twitter:     r.Links.Twitter,
			ElonTwitter: r.Links.ElonTwitter,
		},
		Summary: r.Summary,
	}
}
