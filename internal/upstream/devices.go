package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/pkg/errors"
)

// ListDevices lists devices, optionally scoped to a company.
func (c *Client) ListDevices(ctx context.Context, companyID string) (List[models.Device], error) {
	const fallback = "Failed to load devices"
	query := url.Values{}
	if id := strings.TrimSpace(companyID); id != "" {
		query.Set("companyId", id)
	}

	env, err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/device",
		path:     "/device",
		query:    query,
		fallback: fallback,
	})
	if err != nil {
		return List[models.Device]{}, err
	}

	devices, err := normalizeAll(env.list("devices"), normalizeDevice)
	if err != nil {
		return List[models.Device]{}, errors.Transport(err, fallback)
	}
	return List[models.Device]{Items: devices, Total: env.total(len(devices))}, nil
}

// RegisterDevice registers a handset.
func (c *Client) RegisterDevice(ctx context.Context, req RegisterDeviceRequest) (models.Device, error) {
	const fallback = "Failed to register device"
	env, err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/device/register",
		path:     "/device/register",
		body:     req,
		fallback: fallback,
	})
	if err != nil {
		return models.Device{}, err
	}
	return optionalRecord(env, "device", fallback, normalizeDevice)
}

// DeleteDevice removes a device.
func (c *Client) DeleteDevice(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{
		method:   http.MethodDelete,
		route:    "/device/:id",
		path:     "/device" + pathID(id),
		fallback: "Failed to delete device",
	})
	return err
}
