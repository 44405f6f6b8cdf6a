package upstream

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/charlesng35/fenceadmin/internal/models"
	"github.com/charlesng35/fenceadmin/pkg/errors"
)

func (r ReportRequest) values() url.Values {
	query := url.Values{}
	query.Set("userId", r.UserID)
	query.Set("type", string(r.Type))
	query.Set("date", r.Date)
	return query
}

// WorkReport fetches a user's aggregated working time for a period.
func (c *Client) WorkReport(ctx context.Context, req ReportRequest) (models.WorkReport, error) {
	const fallback = "Failed to fetch user work report"
	env, err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/user-work-report",
		path:     "/user-work-report",
		query:    req.values(),
		fallback: fallback,
	})
	if err != nil {
		return models.WorkReport{}, err
	}

	// The report is either nested or spread over the envelope itself.
	var payload any = map[string]any(env)
	if nested, ok := env["report"].(map[string]any); ok {
		payload = nested
	}
	report, err := normalizeReport(payload)
	if err != nil {
		return models.WorkReport{}, errors.Transport(err, fallback)
	}
	return report, nil
}

// ExportWorkReport streams the CSV rendition of a work report into w.
func (c *Client) ExportWorkReport(ctx context.Context, req ReportRequest, w io.Writer) (int64, error) {
	return c.stream(ctx, call{
		method:   http.MethodGet,
		route:    "/user-work-report/export",
		path:     "/user-work-report/export",
		query:    req.values(),
		fallback: "Failed to export report",
	}, w)
}
