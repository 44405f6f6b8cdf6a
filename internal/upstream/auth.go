package upstream

import (
	"context"
	"net/http"

	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/pkg/errors"
)

// Login authenticates and returns the new session id.
func (c *Client) Login(ctx context.Context, req LoginRequest) (string, error) {
	env, err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/auth/login",
		path:     "/auth/login",
		body:     req,
		fallback: "Login failed",
	})
	if err != nil {
		return "", err
	}

	sessionID := env.str("sessionId")
	if sessionID == "" {
		if obj := env.object("session"); obj != nil {
			sessionID, _ = obj["sessionId"].(string)
		}
	}
	if sessionID == "" {
		return "", errors.Server("", "Login failed", http.StatusBadGateway)
	}
	return sessionID, nil
}

// VerifySession resolves a session id to its user.
func (c *Client) VerifySession(ctx context.Context, sessionID string) (models.User, error) {
	const fallback = "Session verification failed"
	env, err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/auth/verify-session",
		path:     "/auth/verify-session",
		body:     map[string]string{"sessionId": sessionID},
		fallback: fallback,
	})
	if err != nil {
		return models.User{}, err
	}

	raw := env.object("user")
	if raw == nil {
		return models.User{}, errors.Server("", fallback, http.StatusUnauthorized)
	}
	user, err := normalizeUser(raw)
	if err != nil {
		return models.User{}, errors.Transport(err, fallback)
	}
	return user, nil
}

// Logout invalidates a session on the platform.
func (c *Client) Logout(ctx context.Context, req LogoutRequest) error {
	_, err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/auth/logout",
		path:     "/auth/logout",
		body:     req,
		fallback: "Logout failed",
	})
	return err
}
