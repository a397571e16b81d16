package spacex

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pendergraft/launchcache/internal/rockets/domain"
)

// FetchAllRockets lists every rocket
func (c *Client) FetchAllRockets(ctx context.Context) ([]domain.Rocket, error) {
	body, err := c.send(ctx, request{
		endpoint: "rockets",
		method:   http.MethodGet,
		path:     "/" + c.versions.Rockets + "/rockets",
	})
	if err != nil {
		return nil, err
	}

	var dtos []rocketDTO
	if err := c.decode("rockets", body, &dtos); err != nil {
		return nil, err
	}
	rockets := make([]domain.Rocket, 0, len(dtos))
	for _, d := range dtos {
		rockets = append(rockets, d.toDomain())
	}
	return rockets, nil
}

// FetchRocket gets one rocket by id
func (c *Client) FetchRocket(ctx context.Context, id string) (*domain.Rocket, error) {
	body, err := c.send(ctx, request{
		endpoint: "rocket",
		method:   http.MethodGet,
		path:     "/" + c.versions.Rockets + "/rockets/" + url.PathEscape(id),
	})
	if err != nil {
		return nil, err
	}

	var dto rocketDTO
	if err := c.decode("rocket", body, &dto); err != nil {
		return nil, err
	}
	r := dto.toDomain()
	return &r, nil
}
