package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/pkg/errors"
)

// ListUsers returns users matching query (companyId, role).
func (c *Client) ListUsers(ctx context.Context, query url.Values) (List[models.User], error) {
	const fallback = "Failed to fetch users"
	env, err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/users",
		path:     "/users",
		query:    query,
		fallback: fallback,
	})
	if err != nil {
		return List[models.User]{}, err
	}

	users, err := normalizeAll(env.list("users"), normalizeUser)
	if err != nil {
		return List[models.User]{}, errors.Transport(err, fallback)
	}
	return List[models.User]{Items: users, Total: env.total(len(users))}, nil
}

// CreateUser creates an employee, or an administrator through /users/create-admin.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (models.User, error) {
	const fallback = "Failed to create user"
	path := "/users"
	if req.Role == models.RoleAdmin {
		path = "/users/create-admin"
		req.CompanyID = ""
		req.AssignedDeviceID = ""
		req.AllocatedLocationID = ""
	}

	env, err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    path,
		path:     path,
		body:     req,
		fallback: fallback,
	})
	if err != nil {
		return models.User{}, err
	}
	return optionalRecord(env, "user", fallback, normalizeUser)
}

// UpdateUser sends the non-empty fields of req.
func (c *Client) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (models.User, error) {
	const fallback = "Failed to update user"
	env, err := c.do(ctx, call{
		method:   http.MethodPut,
		route:    "/users/:id",
		path:     "/users" + pathID(id),
		body:     req,
		fallback: fallback,
	})
	if err != nil {
		return models.User{}, err
	}
	return optionalRecord(env, "user", fallback, normalizeUser)
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{
		method:   http.MethodDelete,
		route:    "/users/:id",
		path:     "/users" + pathID(id),
		fallback: "Failed to delete user",
	})
	return err
}

// AssignDevice binds a device to a user.
func (c *Client) AssignDevice(ctx context.Context, req AssignDeviceRequest) error {
	_, err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/admin/assign-device",
		path:     "/admin/assign-device",
		body:     req,
		fallback: "Failed to assign device",
	})
	return err
}

// AvailableDevices lists a company's devices not yet assigned to anyone.
func (c *Client) AvailableDevices(ctx context.Context, companyID string) ([]models.Device, error) {
	const fallback = "Failed to fetch available devices"
	env, err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/users/available-devices/:companyId",
		path:     "/users/available-devices" + pathID(companyID),
		fallback: fallback,
	})
	if err != nil {
		return nil, err
	}

	devices, err := normalizeAll(env.list("devices"), normalizeDevice)
	if err != nil {
		return nil, errors.Transport(err, fallback)
	}
	return devices, nil
}

// optionalRecord normalises the object under key, or returns the zero record when the
// platform answered with a bare {ok:true}.
func optionalRecord[T any](env envelope, key, fallback string, fn func(any) (T, error)) (T, error) {
	var zero T
	obj, ok := env[key].(map[string]any)
	if !ok {
		return zero, nil
	}
	record, err := fn(obj)
	if err != nil {
		return zero, errors.Transport(err, fallback)
	}
	return record, nil
}
