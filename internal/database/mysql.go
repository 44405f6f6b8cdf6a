package database

import (
	"errors"
	"net"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func openMySQL(cfg Config) (*gorm.DB, error) {
	dsn, err := buildMySQLDSN(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(mysql.Open(dsn), gormConfig())
}

// buildMySQLDSN renders a go-sql-driver DSN. Timestamps are read and written in UTC and
// the console reports itself through the program_name connection attribute.
func buildMySQLDSN(cfg Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.User == "" || cfg.Name == "" {
		return "", errors.New("mysql state database requires user and database name")
	}

	host, port := hostPort(cfg, "127.0.0.1", 3306)
	dsn := gomysql.NewConfig()
	dsn.User = cfg.User
	dsn.Passwd = cfg.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	dsn.DBName = cfg.Name
	dsn.ParseTime = true
	dsn.Loc = time.UTC
	dsn.Collation = "utf8mb4_unicode_ci"
	dsn.ConnectionAttributes = "program_name:" + cfg.applicationName()
	if cfg.ConnectTimeout > 0 {
		dsn.Timeout = cfg.ConnectTimeout
	}
	if len(cfg.Options) > 0 {
		dsn.Params = make(map[string]string, len(cfg.Options))
		for key, value := range cfg.Options {
			dsn.Params[key] = value
		}
	}

	return dsn.FormatDSN(), nil
}
