package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charlesng35/fenceadmin/internal/database"
	"github.com/charlesng35/fenceadmin/internal/upstream"
)

const (
	defaultPageSize        = 50
	defaultRefreshInterval = 30 * time.Second
	defaultUpstreamTimeout = 30 * time.Second
)

// ConnectionConfig converts DatabaseConfig into database.Open parameters. Host based
// settings apply only to the driver they belong to.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver:          c.Driver,
		Path:            c.Path,
		DSN:             c.DSN,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ApplicationName: c.ApplicationName,
		ConnectTimeout:  c.ConnectTimeout,
	}

	var host DBAuthConfig
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case "postgres", "postgresql":
		host = c.Postgres
	case "mysql", "mariadb":
		host = c.MySQL
	default:
		return cfg
	}

	cfg.Host = host.Host
	cfg.Port = host.Port
	cfg.User = host.Username
	cfg.Password = host.Password
	cfg.Name = host.Database
	cfg.Options = host.Options
	return cfg
}

// ClientConfig converts UpstreamConfig into upstream.Client parameters.
func (c UpstreamConfig) ClientConfig() upstream.Config {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultUpstreamTimeout
	}

	return upstream.Config{
		BaseURL:   strings.TrimSpace(c.BaseURL),
		Timeout:   timeout,
		RateLimit: c.RateLimit,
		Burst:     c.Burst,
		UserAgent: c.UserAgent,
	}
}

// EffectivePageSize returns the sessions page size, defaulting to 50.
func (c ViewsConfig) EffectivePageSize() int {
	if c.PageSize <= 0 {
		return defaultPageSize
	}
	return c.PageSize
}

// EffectiveRefreshInterval returns the auto refresh period, defaulting to 30s.
func (c ViewsConfig) EffectiveRefreshInterval() time.Duration {
	if c.RefreshInterval <= 0 {
		return defaultRefreshInterval
	}
	return c.RefreshInterval
}

// Location resolves the display timezone. Empty and "Local" mean the host zone.
func (c ViewsConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("config: views.timezone: %w", err)
	}
	return loc, nil
}
