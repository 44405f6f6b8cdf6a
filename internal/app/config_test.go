package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig("testdata")
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "json", cfg.Server.LogFormat)
	require.Equal(t, "console-token", cfg.Server.AccessToken)
	require.Equal(t, 5, cfg.Server.LoginLimit.Requests)
	require.Equal(t, 2*time.Minute, cfg.Server.LoginLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, map[string]string{"sslmode": "require"}, cfg.Database.Postgres.Options)
	require.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	require.Equal(t, "fenceadmin", cfg.Database.ApplicationName)

	conn := cfg.Database.ConnectionConfig()
	require.Equal(t, "console", conn.User)
	require.Equal(t, 5433, conn.Port)
	require.Equal(t, "require", conn.Options["sslmode"])

	require.Equal(t, "https://attendance.example.com/api", cfg.Upstream.BaseURL)
	require.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	require.Equal(t, 4.0, cfg.Upstream.RateLimit)
	require.Equal(t, 8, cfg.Upstream.Burst)

	require.Equal(t, 25, cfg.Views.PageSize)
	require.Equal(t, time.Minute, cfg.Views.RefreshInterval)
	require.False(t, cfg.Views.AutoRefresh)

	require.Equal(t, "console_session", cfg.State.StorageKey)
	require.Equal(t, "correct horse", cfg.State.Passphrase)
	require.True(t, cfg.State.Seal)

	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, 14, cfg.Maintenance.JournalRetentionDays)
	require.Equal(t, "0 3 * * *", cfg.Maintenance.JournalSchedule)
	require.Equal(t, "@hourly", cfg.Maintenance.CacheSchedule)

	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	require.Equal(t, 50, cfg.Views.PageSize)
	require.Equal(t, 30*time.Second, cfg.Views.RefreshInterval)
	require.Equal(t, "bams_session", cfg.State.StorageKey)
}

func TestHostedDatabaseDefaults(t *testing.T) {
	t.Setenv("FENCEADMIN_DATABASE_DRIVER", "postgres")
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	pg := cfg.Database.ConnectionConfig()
	require.Equal(t, "postgres", pg.Driver)
	require.Equal(t, "localhost", pg.Host)
	require.Equal(t, 5432, pg.Port)
	require.Equal(t, "fenceadmin", pg.Name)
	require.Equal(t, "fenceadmin", pg.User)
	require.Equal(t, "fenceadmin", pg.ApplicationName)
	require.Equal(t, 10*time.Second, pg.ConnectTimeout)

	cfg.Database.Driver = "mysql"
	my := cfg.Database.ConnectionConfig()
	require.Equal(t, "127.0.0.1", my.Host)
	require.Equal(t, 3306, my.Port)
	require.Equal(t, "fenceadmin", my.Name)
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("FENCEADMIN_UPSTREAM_BASE_URL", "http://platform.internal/api")
	t.Setenv("FENCEADMIN_VIEWS_PAGE_SIZE", "10")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "http://platform.internal/api", cfg.Upstream.BaseURL)
	require.Equal(t, 10, cfg.Views.PageSize)
}

func TestConnectionConfigPicksDriverCredentials(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   "mysql",
		MySQL:    DBAuthConfig{Host: "mysql.local", Port: 3306, Database: "fa", Username: "u", Password: "p"},
		Postgres: DBAuthConfig{Host: "pg.local"},
	}

	conn := cfg.ConnectionConfig()
	require.Equal(t, "mysql.local", conn.Host)
	require.Equal(t, 3306, conn.Port)
	require.Equal(t, "fa", conn.Name)
	require.Equal(t, "u", conn.User)

	sqlite := DatabaseConfig{Driver: "sqlite", Path: "./data/x.sqlite", Postgres: DBAuthConfig{Host: "pg.local"}}.ConnectionConfig()
	require.Empty(t, sqlite.Host)
	require.Equal(t, "./data/x.sqlite", sqlite.Path)
}

func TestViewsConfigHelpers(t *testing.T) {
	var views ViewsConfig
	require.Equal(t, 50, views.EffectivePageSize())
	require.Equal(t, 30*time.Second, views.EffectiveRefreshInterval())

	loc, err := views.Location()
	require.NoError(t, err)
	require.Equal(t, time.Local, loc)

	views.Timezone = "UTC"
	loc, err = views.Location()
	require.NoError(t, err)
	require.Equal(t, "UTC", loc.String())

	views.Timezone = "Mars/Olympus"
	_, err = views.Location()
	require.Error(t, err)
}

func TestClientConfigDefaultsTimeout(t *testing.T) {
	cfg := UpstreamConfig{BaseURL: " http://x/api "}.ClientConfig()
	require.Equal(t, "http://x/api", cfg.BaseURL)
	require.Equal(t, 30*time.Second, cfg.Timeout)
}
