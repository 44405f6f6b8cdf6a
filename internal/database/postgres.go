package database

import (
	"errors"
	"net"
	"net/url"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func openPostgres(cfg Config) (*gorm.DB, error) {
	dsn, err := buildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

// buildPostgresDSN renders a postgres:// URL. The console names itself through
// application_name and asks for TLS when the server offers it; Options override both.
func buildPostgresDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("postgres state database requires user and database name")
	}

	host, port := hostPort(cfg, "localhost", 5432)
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + cfg.Name,
		User:   url.User(cfg.User),
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}

	query := url.Values{}
	query.Set("application_name", cfg.applicationName())
	query.Set("sslmode", "prefer")
	if seconds := int(cfg.ConnectTimeout.Seconds()); seconds > 0 {
		query.Set("connect_timeout", strconv.Itoa(seconds))
	}
	for key, value := range cfg.Options {
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()

	return u.String(), nil
}
