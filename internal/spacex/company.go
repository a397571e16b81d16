package spacex

import (
	"context"
	"net/http"

	"github.com/pendergraft/launchcache/internal/company/domain"
)

// FetchCompanyInfo gets the company record. bypassCache asks intermediaries
// for a fresh copy
func (c *Client) FetchCompanyInfo(ctx context.Context, bypassCache bool) (*domain.Company, error) {
	body, err := c.send(ctx, request{
		endpoint:    "company",
		method:      http.MethodGet,
		path:        "/" + c.versions.Company + "/company",
		bypassCache: bypassCache,
	})
	if err != nil {
		return nil, err
	}

	var dto companyDTO
	if err := c.decode("company", body, &dto); err != nil {
		return nil, err
	}
	return dto.toDomain(), nil
}
