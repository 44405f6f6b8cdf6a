package upstream

import (
	"context"
	"net/http"

	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/pkg/errors"
)

// ListCompanies lists every tenant visible to the admin.
func (c *Client) ListCompanies(ctx context.Context) (List[models.Company], error) {
	const fallback = "Failed to fetch companies"
	env, err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/companies",
		path:     "/companies",
		fallback: fallback,
	})
	if err != nil {
		return List[models.Company]{}, err
	}

	companies, err := normalizeAll(env.list("companies"), normalizeCompany)
	if err != nil {
		return List[models.Company]{}, errors.Transport(err, fallback)
	}
	return List[models.Company]{Items: companies, Total: env.total(len(companies))}, nil
}

// CreateCompany creates a tenant.
func (c *Client) CreateCompany(ctx context.Context, req CreateCompanyRequest) (models.Company, error) {
	const fallback = "Failed to create company"
	env, err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/companies",
		path:     "/companies",
		body:     req,
		fallback: fallback,
	})
	if err != nil {
		return models.Company{}, err
	}
	return optionalRecord(env, "company", fallback, normalizeCompany)
}
