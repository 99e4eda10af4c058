package core

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// LoadConfig runs the defaults > raw loader > runtime overrides pipeline.
func LoadConfig(ctx context.Context, loader RawConfigLoader, runtime Config) (Config, error) {
	defaults := DefaultConfig()
	loaded, err := NewCfgxConfigProvider(loader).Load(ctx, defaults)
	if err != nil {
		return Config{}, err
	}
	return GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
}

type StaticRawConfigLoader struct {
	Values map[string]any
}

func (l StaticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type envBinding struct {
	name string
	path []string
	kind string
}

var envBindings = []envBinding{
	{name: "SERVICE_NAME", path: []string{"service_name"}, kind: "string"},
	{name: "ENVIRONMENT", path: []string{"environment"}, kind: "string"},
	{name: "SERVER_ADDR", path: []string{"server", "addr"}, kind: "string"},
	{name: "SERVER_READ_HEADER_TIMEOUT", path: []string{"server", "read_header_timeout"}, kind: "duration"},
	{name: "SERVER_SHUTDOWN_TIMEOUT", path: []string{"server", "shutdown_timeout"}, kind: "duration"},
	{name: "LOG_LEVEL", path: []string{"logging", "level"}, kind: "string"},
	{name: "LOG_FORMAT", path: []string{"logging", "format"}, kind: "string"},
	{name: "PLATFORM_ENDPOINT", path: []string{"platform", "endpoint"}, kind: "string"},
	{name: "APP_ID", path: []string{"platform", "app_id"}, kind: "string"},
	{name: "CONFIG_ACCOUNT", path: []string{"platform", "config_account"}, kind: "string"},
	{name: "PRIVATE_KEY_PATH", path: []string{"platform", "private_key_path"}, kind: "string"},
	{name: "PRIVATE_KEY_PASSWORD", path: []string{"platform", "private_key_password"}, kind: "string"},
	{name: "REQUEST_TIMEOUT", path: []string{"platform", "request_timeout"}, kind: "duration"},
	{name: "BACKEND_ENDPOINT", path: []string{"backend", "endpoint"}, kind: "string"},
	{name: "WEBHOOK_PATH", path: []string{"webhook", "path"}, kind: "string"},
	{name: "WEBHOOK_SECRET", path: []string{"webhook", "secret"}, kind: "string"},
	{name: "DATABASE_ENABLED", path: []string{"database", "enabled"}, kind: "bool"},
	{name: "DATABASE_DRIVER", path: []string{"database", "driver"}, kind: "string"},
	{name: "DATABASE_DSN", path: []string{"database", "dsn"}, kind: "string"},
	{name: "DATABASE_DEBUG", path: []string{"database", "debug"}, kind: "bool"},
	{name: "DATABASE_PING_TIMEOUT", path: []string{"database", "ping_timeout"}, kind: "duration"},
	{name: "DATABASE_MIGRATIONS_DIR", path: []string{"database", "migrations_dir"}, kind: "string"},
	{name: "CACHE_TTL", path: []string{"cache", "ttl"}, kind: "duration"},
}

// EnvConfigLoader maps PREFIX_* environment variables onto the nested raw config tree.
type EnvConfigLoader struct {
	Prefix string
	Lookup func(key string) (string, bool)
}

func NewEnvConfigLoader(prefix string) EnvConfigLoader {
	return EnvConfigLoader{Prefix: prefix, Lookup: os.LookupEnv}
}

func (l EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	prefix := strings.TrimSpace(l.Prefix)
	if prefix != "" && !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}

	raw := map[string]any{}
	for _, binding := range envBindings {
		key := strings.ToUpper(prefix + binding.name)
		value, ok := lookup(key)
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		parsed, err := parseEnvValue(binding.kind, strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("core: env %s: %w", key, err)
		}
		setPath(raw, binding.path, parsed)
	}
	return raw, nil
}

func parseEnvValue(kind string, value string) (any, error) {
	switch kind {
	case "duration":
		return time.ParseDuration(value)
	case "bool":
		return strconv.ParseBool(value)
	default:
		return value, nil
	}
}

func setPath(root map[string]any, path []string, value any) {
	current := root
	for i, segment := range path {
		if i == len(path)-1 {
			current[segment] = value
			return
		}
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[segment] = next
		}
		current = next
	}
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	putString := func(path []string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			setPath(layer, path, value)
		}
	}
	putDuration := func(path []string, value time.Duration) {
		if includeZero || value != 0 {
			setPath(layer, path, value)
		}
	}
	putBool := func(path []string, value bool) {
		if includeZero || value {
			setPath(layer, path, value)
		}
	}

	putString([]string{"service_name"}, cfg.ServiceName)
	putString([]string{"environment"}, cfg.Environment)
	putString([]string{"server", "addr"}, cfg.Server.Addr)
	putDuration([]string{"server", "read_header_timeout"}, cfg.Server.ReadHeaderTimeout)
	putDuration([]string{"server", "shutdown_timeout"}, cfg.Server.ShutdownTimeout)
	putString([]string{"logging", "level"}, cfg.Logging.Level)
	putString([]string{"logging", "format"}, cfg.Logging.Format)
	putString([]string{"platform", "endpoint"}, cfg.Platform.Endpoint)
	putString([]string{"platform", "app_id"}, cfg.Platform.AppID)
	putString([]string{"platform", "config_account"}, cfg.Platform.ConfigAccount)
	putString([]string{"platform", "private_key_path"}, cfg.Platform.PrivateKeyPath)
	putString([]string{"platform", "private_key_password"}, cfg.Platform.PrivateKeyPassword)
	putDuration([]string{"platform", "request_timeout"}, cfg.Platform.RequestTimeout)
	putString([]string{"backend", "endpoint"}, cfg.Backend.Endpoint)
	putString([]string{"webhook", "path"}, cfg.Webhook.Path)
	putString([]string{"webhook", "secret"}, cfg.Webhook.Secret)
	putBool([]string{"database", "enabled"}, cfg.Database.Enabled)
	putString([]string{"database", "driver"}, cfg.Database.Driver)
	putString([]string{"database", "dsn"}, cfg.Database.DSN)
	putBool([]string{"database", "debug"}, cfg.Database.Debug)
	putDuration([]string{"database", "ping_timeout"}, cfg.Database.PingTimeout)
	putString([]string{"database", "migrations_dir"}, cfg.Database.MigrationsDir)
	putDuration([]string{"cache", "ttl"}, cfg.Cache.TTL)
	return layer
}
