package upstream

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/pkg/errors"
)

// ListSessions fetches one page of attendance sessions. query carries the filter
// fields plus skip/limit.
func (c *Client) ListSessions(ctx context.Context, query url.Values) (List[models.Session], error) {
	const fallback = "Failed to fetch sessions"
	env, err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/sessions",
		path:     "/sessions",
		query:    query,
		fallback: fallback,
	})
	if err != nil {
		return List[models.Session]{}, err
	}

	sessions, err := normalizeAll(env.list("sessions"), normalizeSession)
	if err != nil {
		return List[models.Session]{}, errors.Transport(err, fallback)
	}
	for _, session := range sessions {
		if !session.Consistent() {
			c.log.Warn("session status disagrees with logout time",
				zap.String("session", session.ID),
				zap.String("status", string(session.Status)),
				zap.Bool("has_logout", session.LogoutAt != nil),
			)
		}
	}
	return List[models.Session]{Items: sessions, Total: env.total(len(sessions))}, nil
}

// ResolveSession clears the suspect flag of a session.
func (c *Client) ResolveSession(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/sessions/:id/resolve",
		path:     "/sessions" + pathID(id) + "/resolve",
		fallback: "Failed to resolve session",
	})
	return err
}

// ForceLogout ends an active session on behalf of the employee.
func (c *Client) ForceLogout(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/sessions/:id/force-logout",
		path:     "/sessions" + pathID(id) + "/force-logout",
		fallback: "Failed to force logout",
	})
	return err
}

// DeleteSession removes a session record.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	_, err := c.do(ctx, call{
		method:   http.MethodDelete,
		route:    "/sessions/:id",
		path:     "/sessions" + pathID(id),
		fallback: "Failed to delete session",
	})
	return err
}

// ExportSessions streams the platform's CSV export into w.
func (c *Client) ExportSessions(ctx context.Context, req ExportRequest, w io.Writer) (int64, error) {
	query := url.Values{}
	query.Set("companyId", req.CompanyID)
	if req.From != "" {
		query.Set("from", req.From)
	}
	if req.To != "" {
		query.Set("to", req.To)
	}

	return c.stream(ctx, call{
		method:   http.MethodGet,
		route:    "/export",
		path:     "/export",
		query:    query,
		fallback: "Failed to export sessions",
	}, w)
}
