package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/charlesng35/fenceadmin/pkg/errors"
	"github.com/charlesng35/fenceadmin/pkg/logger"
	"github.com/charlesng35/fenceadmin/pkg/metrics"
)

const (
	defaultTimeout = 30 * time.Second

	// SessionHeader carries the admin session id on authenticated calls.
	SessionHeader = "X-Session-Id"
)

// SessionSource supplies the current admin session id, empty when signed out.
type SessionSource interface {
	SessionID() string
}

// Config describes how to reach the platform API.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables limiting
	Burst     int
	UserAgent string
}

// Client talks JSON to the attendance platform and turns its envelopes into
// canonical records.
type Client struct {
	base      *url.URL
	http      *http.Client
	limiter   *rate.Limiter
	session   SessionSource
	userAgent string
	log       *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithSessionSource attaches the session id provider.
func WithSessionSource(src SessionSource) Option {
	return func(c *Client) {
		c.session = src
	}
}

// WithLogger overrides the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("upstream: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("upstream: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("upstream: unsupported scheme %q", base.Scheme)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		base:      base,
		http:      &http.Client{Timeout: timeout},
		userAgent: strings.TrimSpace(cfg.UserAgent),
		log:       logger.WithModule("upstream"),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if client.userAgent == "" {
		client.userAgent = "fenceadmin"
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// call describes one API request. route is the templated path used as the metrics label.
type call struct {
	method   string
	route    string
	path     string
	query    url.Values
	body     any
	fallback string
}

func (c *Client) send(ctx context.Context, cl call) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Transport(err, cl.fallback)
		}
	}

	target := *c.base
	target.Path = strings.TrimRight(c.base.Path, "/") + cl.path
	if len(cl.query) > 0 {
		target.RawQuery = cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return nil, errors.Wrap(err, cl.fallback)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, cl.fallback)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if id := c.session.SessionID(); id != "" {
			req.Header.Set(SessionHeader, id)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.UpstreamLatency.WithLabelValues(cl.method, cl.route).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(cl.method, cl.route, "transport").Inc()
		c.log.Debug("platform request failed",
			zap.String("method", cl.method),
			zap.String("route", cl.route),
			zap.Error(err),
		)
		return nil, errors.Transport(err, cl.fallback)
	}
	return resp, nil
}

// do performs cl and returns the decoded envelope of a successful answer.
func (c *Client) do(ctx context.Context, cl call) (envelope, error) {
	resp, err := c.send(ctx, cl)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	env, decodeErr := decodeEnvelope(resp.Body)
	if err := c.check(cl, resp.StatusCode, env); err != nil {
		return nil, err
	}
	if decodeErr != nil {
		metrics.UpstreamRequests.WithLabelValues(cl.method, cl.route, "transport").Inc()
		return nil, errors.Transport(decodeErr, cl.fallback)
	}

	metrics.UpstreamRequests.WithLabelValues(cl.method, cl.route, "ok").Inc()
	return env, nil
}

// stream copies a successful non-JSON body (CSV exports) into w.
func (c *Client) stream(ctx context.Context, cl call, w io.Writer) (int64, error) {
	resp, err := c.send(ctx, cl)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		env, _ := decodeEnvelope(resp.Body)
		return 0, c.check(cl, resp.StatusCode, env)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(cl.method, cl.route, "transport").Inc()
		return n, errors.Transport(err, cl.fallback)
	}
	metrics.UpstreamRequests.WithLabelValues(cl.method, cl.route, "ok").Inc()
	return n, nil
}

func (c *Client) check(cl call, status int, env envelope) error {
	if status < http.StatusBadRequest && (env == nil || env.ok()) {
		return nil
	}

	metrics.UpstreamRequests.WithLabelValues(cl.method, cl.route, "rejected").Inc()
	message := ""
	if env != nil {
		message = env.message()
	}
	c.log.Debug("platform rejected request",
		zap.String("method", cl.method),
		zap.String("route", cl.route),
		zap.Int("status", status),
		zap.String("message", message),
	)
	return errors.Server(message, cl.fallback, status)
}

func pathID(id string) string {
	return "/" + url.PathEscape(strings.TrimSpace(id))
}
