package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration shared by the console server and fencectl.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Upstream    UpstreamConfig    `mapstructure:"upstream"`
	Views       ViewsConfig       `mapstructure:"views"`
	State       StateConfig       `mapstructure:"state"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring"`
}

// ServerConfig configures the console HTTP server.
type ServerConfig struct {
	Port        int             `mapstructure:"port"`
	LogLevel    string          `mapstructure:"log_level"`
	LogFormat   string          `mapstructure:"log_format"`
	AccessToken string          `mapstructure:"access_token"`
	LoginLimit  RateLimitConfig `mapstructure:"login_limit"`
}

// RateLimitConfig bounds requests per client within a window.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// DatabaseConfig describes the local state database.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	DSN             string        `mapstructure:"dsn"`
	ApplicationName string        `mapstructure:"application_name"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	Postgres        DBAuthConfig  `mapstructure:"postgres"`
	MySQL           DBAuthConfig  `mapstructure:"mysql"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DBAuthConfig represents host based database parameters. Options are appended to the
// DSN and win over the console's own connection parameters.
type DBAuthConfig struct {
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	Database string            `mapstructure:"database"`
	Username string            `mapstructure:"username"`
	Password string            `mapstructure:"password"`
	Options  map[string]string `mapstructure:"options"`
}

// UpstreamConfig describes the attendance platform API.
type UpstreamConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
	UserAgent string        `mapstructure:"user_agent"`
}

// ViewsConfig tunes the list views.
type ViewsConfig struct {
	PageSize        int           `mapstructure:"page_size"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	AutoRefresh     bool          `mapstructure:"auto_refresh"`
	Timezone        string        `mapstructure:"timezone"`
}

// StateConfig controls how the admin session is persisted locally.
type StateConfig struct {
	StorageKey    string `mapstructure:"storage_key"`
	EncryptionKey string `mapstructure:"encryption_key"`
	Passphrase    string `mapstructure:"passphrase"`
	Seal          bool   `mapstructure:"seal"`
}

// MaintenanceConfig schedules housekeeping of the local state database.
type MaintenanceConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	JournalRetentionDays int    `mapstructure:"journal_retention_days"`
	JournalSchedule      string `mapstructure:"journal_schedule"`
	CacheSchedule        string `mapstructure:"cache_schedule"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("FENCEADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.access_token", "")
	v.SetDefault("server.login_limit.requests", 10)
	v.SetDefault("server.login_limit.window", "1m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/fenceadmin.sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.application_name", "fenceadmin")
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "fenceadmin")
	v.SetDefault("database.postgres.username", "fenceadmin")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.mysql.host", "127.0.0.1")
	v.SetDefault("database.mysql.port", 3306)
	v.SetDefault("database.mysql.database", "fenceadmin")
	v.SetDefault("database.mysql.username", "fenceadmin")
	v.SetDefault("database.mysql.password", "")

	v.SetDefault("upstream.base_url", "http://localhost:3000/api")
	v.SetDefault("upstream.timeout", "30s")
	v.SetDefault("upstream.rate_limit", 10)
	v.SetDefault("upstream.burst", 20)
	v.SetDefault("upstream.user_agent", "fenceadmin")

	v.SetDefault("views.page_size", 50)
	v.SetDefault("views.refresh_interval", "30s")
	v.SetDefault("views.auto_refresh", false)
	v.SetDefault("views.timezone", "Local")

	v.SetDefault("state.storage_key", "bams_session")
	v.SetDefault("state.encryption_key", "")
	v.SetDefault("state.passphrase", "")
	v.SetDefault("state.seal", true)

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.journal_retention_days", 30)
	v.SetDefault("maintenance.journal_schedule", "@daily")
	v.SetDefault("maintenance.cache_schedule", "@hourly")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
