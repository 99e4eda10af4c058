package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultPlatformEndpoint = "https://devoptics.devoptics-dev.beescloud.com"
	DefaultAppID            = "24"
	DefaultConfigAccount    = "acme-issues"
	DefaultPrivateKeyPath   = "sdm-app-private-key.pem"
	DefaultRequestTimeout   = 10 * time.Second
)

type ServerConfig struct {
	Addr              string        `koanf:"addr" mapstructure:"addr"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" mapstructure:"level"`
	Format string `koanf:"format" mapstructure:"format"`
}

type PlatformConfig struct {
	Endpoint           string        `koanf:"endpoint" mapstructure:"endpoint"`
	AppID              string        `koanf:"app_id" mapstructure:"app_id"`
	ConfigAccount      string        `koanf:"config_account" mapstructure:"config_account"`
	PrivateKeyPath     string        `koanf:"private_key_path" mapstructure:"private_key_path"`
	PrivateKeyPassword string        `koanf:"private_key_password" mapstructure:"private_key_password"`
	RequestTimeout     time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
}

type BackendConfig struct {
	Endpoint string `koanf:"endpoint" mapstructure:"endpoint"`
}

type WebhookConfig struct {
	Path   string `koanf:"path" mapstructure:"path"`
	Secret string `koanf:"secret" mapstructure:"secret"`
}

type DatabaseConfig struct {
	Enabled     bool          `koanf:"enabled" mapstructure:"enabled"`
	Driver      string        `koanf:"driver" mapstructure:"driver"`
	DSN         string        `koanf:"dsn" mapstructure:"dsn"`
	Debug       bool          `koanf:"debug" mapstructure:"debug"`
	PingTimeout time.Duration `koanf:"ping_timeout" mapstructure:"ping_timeout"`

	// MigrationsDir replaces the embedded SQL when set.
	MigrationsDir string `koanf:"migrations_dir" mapstructure:"migrations_dir"`
}

type CacheConfig struct {
	TTL time.Duration `koanf:"ttl" mapstructure:"ttl"`
}

type Config struct {
	ServiceName string         `koanf:"service_name" mapstructure:"service_name"`
	Environment string         `koanf:"environment" mapstructure:"environment"`
	Server      ServerConfig   `koanf:"server" mapstructure:"server"`
	Logging     LoggingConfig  `koanf:"logging" mapstructure:"logging"`
	Platform    PlatformConfig `koanf:"platform" mapstructure:"platform"`
	Backend     BackendConfig  `koanf:"backend" mapstructure:"backend"`
	Webhook     WebhookConfig  `koanf:"webhook" mapstructure:"webhook"`
	Database    DatabaseConfig `koanf:"database" mapstructure:"database"`
	Cache       CacheConfig    `koanf:"cache" mapstructure:"cache"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "acme-github-issues",
		Environment: "development",
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Platform: PlatformConfig{
			Endpoint:       DefaultPlatformEndpoint,
			AppID:          DefaultAppID,
			ConfigAccount:  DefaultConfigAccount,
			PrivateKeyPath: DefaultPrivateKeyPath,
			RequestTimeout: DefaultRequestTimeout,
		},
		Webhook: WebhookConfig{
			Path: "/webhook",
		},
		Database: DatabaseConfig{
			Driver:      "postgres",
			PingTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			TTL: time.Minute,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if err := validateEndpoint("platform.endpoint", c.Platform.Endpoint); err != nil {
		return err
	}
	if strings.TrimSpace(c.Backend.Endpoint) != "" {
		if err := validateEndpoint("backend.endpoint", c.Backend.Endpoint); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Platform.AppID) == "" {
		return fmt.Errorf("core: platform.app_id is required")
	}
	if strings.TrimSpace(c.Platform.ConfigAccount) == "" {
		return fmt.Errorf("core: platform.config_account is required")
	}
	if c.Platform.RequestTimeout < 0 {
		return fmt.Errorf("core: platform.request_timeout must not be negative")
	}
	if path := strings.TrimSpace(c.Webhook.Path); path != "" && !strings.HasPrefix(path, "/") {
		return fmt.Errorf("core: webhook.path must start with /")
	}
	if c.Database.Enabled {
		switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
		case "postgres", "sqlite3":
		default:
			return fmt.Errorf("core: database.driver %q is not supported", c.Database.Driver)
		}
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("core: database.dsn is required when the database is enabled")
		}
	}
	return nil
}

// BackendEndpoint falls back to the platform endpoint when no backend is configured.
func (c Config) BackendEndpoint() string {
	if endpoint := strings.TrimSpace(c.Backend.Endpoint); endpoint != "" {
		return strings.TrimSuffix(endpoint, "/")
	}
	return strings.TrimSuffix(strings.TrimSpace(c.Platform.Endpoint), "/")
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func validateEndpoint(field string, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("core: %s is required", field)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("core: %s is invalid: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("core: %s must use http or https", field)
	}
	if parsed.Host == "" {
		return fmt.Errorf("core: %s host is required", field)
	}
	return nil
}
