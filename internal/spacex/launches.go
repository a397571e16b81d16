package spacex

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/pendergraft/launchcache/internal/launches/domain"
)

// FetchLaunches runs one launch query and returns the requested page
func (c *Client) FetchLaunches(ctx context.Context, query domain.LaunchQuery) (*domain.Page, error) {
	body, err := c.send(ctx, request{
		endpoint: "launches_query",
		method:   http.MethodPost,
		path:     "/" + c.versions.Launches + "/launches/query",
		body:     query,
	})
	if err != nil {
		return nil, err
	}

	var dto paginatedLaunchesDTO
	if err := c.decode("launches_query", body, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}

// FetchAvailableYears asks for the date of every launch and returns the
// distinct years, newest first
func (c *Client) FetchAvailableYears(ctx context.Context) ([]int, error) {
	query := domain.YearsQuery()
	// The upstream accepts page sizes the local validator rejects. Send anyway.
	if err := query.Validate(); err != nil {
		c.logger.Warn("launch years query fails local validation", "error", err)
	}

	body, err := c.send(ctx, request{
		endpoint: "launches_years",
		method:   http.MethodPost,
		path:     "/" + c.versions.Launches + "/launches/query",
		body:     query,
	})
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, decodeError("launches_years", errInvalidJSON)
	}
	docs := gjson.GetBytes(body, "docs")
	if !docs.IsArray() {
		return nil, decodeError("launches_years", errMissingDocs)
	}

	var dates []string
	for _, d := range gjson.GetBytes(body, "docs.#.date_utc").Array() {
		dates = append(dates, d.String())
	}
	years := domain.YearsFromDates(dates)
	c.logger.Debug("parsed launch years", "launches", len(docs.Array()), "dates", len(dates), "years", len(years))
	return years, nil
}
