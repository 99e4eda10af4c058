package core

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate: %v", err)
	}
	if cfg.Platform.AppID != "24" {
		t.Fatalf("expected default app id 24, got %q", cfg.Platform.AppID)
	}
	if cfg.Platform.ConfigAccount != "acme-issues" {
		t.Fatalf("expected default config account, got %q", cfg.Platform.ConfigAccount)
	}
	if cfg.BackendEndpoint() != DefaultPlatformEndpoint {
		t.Fatalf("expected backend to fall back to platform endpoint, got %q", cfg.BackendEndpoint())
	}
}

func TestConfigValidate_RejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "endpoint_scheme", mutate: func(c *Config) { c.Platform.Endpoint = "ftp://x" }, want: "platform.endpoint"},
		{name: "app_id", mutate: func(c *Config) { c.Platform.AppID = " " }, want: "app_id"},
		{name: "webhook_path", mutate: func(c *Config) { c.Webhook.Path = "webhook" }, want: "webhook.path"},
		{name: "database_dsn", mutate: func(c *Config) { c.Database.Enabled = true }, want: "database.dsn"},
		{name: "database_driver", mutate: func(c *Config) {
			c.Database.Enabled = true
			c.Database.Driver = "mysql"
			c.Database.DSN = "x"
		}, want: "database.driver"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestEnvConfigLoader_MapsPrefixedVariables(t *testing.T) {
	env := map[string]string{
		"ACME_PLATFORM_ENDPOINT":       "https://platform.example",
		"ACME_APP_ID":                  "42",
		"ACME_REQUEST_TIMEOUT":         "3s",
		"ACME_DATABASE_ENABLED":        "true",
		"ACME_DATABASE_DRIVER":         "sqlite3",
		"ACME_DATABASE_DSN":            "file::memory:",
		"ACME_DATABASE_MIGRATIONS_DIR": "/srv/migrations",
		"OTHER_APP_ID":                 "ignored",
	}
	loader := EnvConfigLoader{
		Prefix: "ACME",
		Lookup: func(key string) (string, bool) {
			value, ok := env[key]
			return value, ok
		},
	}

	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	platform, ok := raw["platform"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested platform map, got %#v", raw["platform"])
	}
	if platform["app_id"] != "42" {
		t.Fatalf("expected app_id 42, got %#v", platform["app_id"])
	}
	if platform["request_timeout"] != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %#v", platform["request_timeout"])
	}
	database := raw["database"].(map[string]any)
	if database["enabled"] != true {
		t.Fatalf("expected database enabled, got %#v", database["enabled"])
	}
	if database["migrations_dir"] != "/srv/migrations" {
		t.Fatalf("expected migrations dir, got %#v", database["migrations_dir"])
	}
}

func TestEnvConfigLoader_RejectsMalformedValues(t *testing.T) {
	loader := EnvConfigLoader{
		Prefix: "ACME_",
		Lookup: func(key string) (string, bool) {
			if key == "ACME_REQUEST_TIMEOUT" {
				return "soon", true
			}
			return "", false
		},
	}
	if _, err := loader.LoadRaw(context.Background()); err == nil {
		t.Fatalf("expected malformed duration to fail")
	}
}

func TestLoadConfig_LayersDefaultsLoadedAndRuntime(t *testing.T) {
	loader := StaticRawConfigLoader{Values: map[string]any{
		"platform": map[string]any{
			"endpoint": "https://platform.example",
			"app_id":   "42",
		},
	}}
	runtime := Config{ServiceName: "issues-runtime"}

	cfg, err := LoadConfig(context.Background(), loader, runtime)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Platform.Endpoint != "https://platform.example" {
		t.Fatalf("expected loaded endpoint, got %q", cfg.Platform.Endpoint)
	}
	if cfg.Platform.AppID != "42" {
		t.Fatalf("expected loaded app id, got %q", cfg.Platform.AppID)
	}
	if cfg.ServiceName != "issues-runtime" {
		t.Fatalf("expected runtime service name to win, got %q", cfg.ServiceName)
	}
	if cfg.Platform.ConfigAccount != DefaultConfigAccount {
		t.Fatalf("expected default config account, got %q", cfg.Platform.ConfigAccount)
	}
}

func TestCfgxConfigProvider_ValidatesLoadedConfig(t *testing.T) {
	provider := NewCfgxConfigProvider(StaticRawConfigLoader{Values: map[string]any{
		"platform": map[string]any{"endpoint": "not a url"},
	}})
	if _, err := provider.Load(context.Background(), DefaultConfig()); err == nil {
		t.Fatalf("expected invalid endpoint to be rejected")
	}
}
