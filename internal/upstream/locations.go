package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/pkg/errors"
)

// ListLocations lists geofences, optionally scoped to a company.
func (c *Client) ListLocations(ctx context.Context, companyID string) (List[models.Location], error) {
	const fallback = "Failed to fetch locations"
	query := url.Values{}
	if id := strings.TrimSpace(companyID); id != "" {
		query.Set("companyId", id)
	}

	env, err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/locations",
		path:     "/locations",
		query:    query,
		fallback: fallback,
	})
	if err != nil {
		return List[models.Location]{}, err
	}

	locations, err := normalizeAll(env.list("locations"), normalizeLocation)
	if err != nil {
		return List[models.Location]{}, errors.Transport(err, fallback)
	}
	return List[models.Location]{Items: locations, Total: env.total(len(locations))}, nil
}

// CreateLocation defines a geofence.
func (c *Client) CreateLocation(ctx context.Context, req CreateLocationRequest) (models.Location, error) {
	const fallback = "Failed to create location"
	env, err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/locations",
		path:     "/locations",
		body:     req,
		fallback: fallback,
	})
	if err != nil {
		return models.Location{}, err
	}
	return optionalRecord(env, "location", fallback, normalizeLocation)
}

// DeleteLocation removes a geofence. The platform takes the id in the body.
func (c *Client) DeleteLocation(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/locations/delete",
		path:     "/locations/delete",
		body:     map[string]string{"id": id},
		fallback: "Failed to delete location",
	})
	return err
}
