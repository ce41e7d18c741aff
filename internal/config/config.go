package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gookit/validate"

	"github.com/voyagen/mythvault/internal/protocol"
)

// ErrMissingDatabase is returned when neither a database URL nor a host is configured.
var ErrMissingDatabase = errors.New("database host or DATABASE_URL is required")

// Config holds application configuration.
type Config struct {
	Database        Database `yaml:"database"`
	Cache           Cache    `yaml:"cache"`
	Server          Server   `yaml:"server"`
	Log             Log      `yaml:"log"`
	ProtocolVersion int      `yaml:"protocol_version"`
}

// Database holds the credentials of the PVR database. URL, when set, takes
// precedence over the discrete fields.
type Database struct {
	URL            string        `yaml:"url"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port" validate:"required|min:1|max:65535"`
	Name           string        `yaml:"name" validate:"required"`
	User           string        `yaml:"user" validate:"required"`
	Password       string        `yaml:"password"`
	SSLMode        string        `yaml:"sslmode" validate:"in:disable,allow,prefer,require,verify-ca,verify-full"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
	MaxConns       int32         `yaml:"max_conns" validate:"min:0"`
}

// Cache selects the lookup cache. Backend is one of none, memory or redis.
type Cache struct {
	Backend       string        `yaml:"backend" validate:"in:none,memory,redis"`
	RedisURL      string        `yaml:"redis_url"`
	SizeMB        int           `yaml:"size_mb" validate:"min:0"`
	TTL           time.Duration `yaml:"ttl"`
	FlushSchedule string        `yaml:"flush_schedule"`
}

// Server holds HTTP API settings.
type Server struct {
	Port      string `yaml:"port"`
	RateLimit int    `yaml:"rate_limit" validate:"min:0"` // requests per minute per IP, 0 disables
}

// Log holds logging settings.
type Log struct {
	Level      string `yaml:"level" validate:"in:trace,debug,info,warn,error"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a Config with every optional field populated.
func Default() *Config {
	return &Config{
		Database: Database{
			Port:           5432,
			Name:           "mythconverg",
			User:           "mythtv",
			SSLMode:        "disable",
			ConnectTimeout: 5 * time.Second,
			QueryTimeout:   30 * time.Second,
		},
		Cache: Cache{
			Backend: "none",
			SizeMB:  32,
			TTL:     2 * time.Minute,
		},
		Server: Server{
			Port:      "8080",
			RateLimit: 600,
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		ProtocolVersion: 56,
	}
}

// Load builds config from environment variables.
// If no database is configured, Load first applies .env.local and .env from the
// current directory and the executable's directory.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" && os.Getenv("MYTHVAULT_DB_HOST") == "" {
		loadEnvFiles()
	}
	c := Default()
	c.Database.URL = os.Getenv("DATABASE_URL")
	c.Database.Host = os.Getenv("MYTHVAULT_DB_HOST")
	setInt(&c.Database.Port, "MYTHVAULT_DB_PORT")
	setString(&c.Database.Name, "MYTHVAULT_DB_NAME")
	setString(&c.Database.User, "MYTHVAULT_DB_USER")
	c.Database.Password = os.Getenv("MYTHVAULT_DB_PASSWORD")
	setString(&c.Database.SSLMode, "MYTHVAULT_DB_SSLMODE")
	setDuration(&c.Database.QueryTimeout, "MYTHVAULT_DB_QUERY_TIMEOUT")

	setString(&c.Cache.Backend, "MYTHVAULT_CACHE")
	setString(&c.Cache.RedisURL, "REDIS_URL")
	setInt(&c.Cache.SizeMB, "MYTHVAULT_CACHE_SIZE_MB")
	setDuration(&c.Cache.TTL, "MYTHVAULT_CACHE_TTL")
	setString(&c.Cache.FlushSchedule, "MYTHVAULT_CACHE_FLUSH")
	if c.Cache.RedisURL != "" && os.Getenv("MYTHVAULT_CACHE") == "" {
		c.Cache.Backend = "redis"
	}

	setString(&c.Server.Port, "SERVER_PORT")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")
	setInt(&c.ProtocolVersion, "MYTHVAULT_PROTOCOL")

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Database.URL == "" && c.Database.Host == "" {
		return ErrMissingDatabase
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisURL == "" {
		return errors.New("config: cache backend redis requires redis_url")
	}
	if _, err := protocol.Lookup(c.ProtocolVersion); err != nil {
		return fmt.Errorf("config: protocol_version: %w", err)
	}
	for _, section := range []any{&c.Database, &c.Cache, &c.Server, &c.Log} {
		v := validate.Struct(section)
		if !v.Validate() {
			return fmt.Errorf("config: %w", v.Errors)
		}
	}
	return nil
}

// DSN returns a postgres connection URL for tools that take one (migrations).
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	if d.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(d.ConnectTimeout.Seconds())))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func setString(dst *string, key string) {
	if s := os.Getenv(key); s != "" {
		*dst = s
	}
}

func setInt(dst *int, key string) {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			*dst = d
		}
	}
}
