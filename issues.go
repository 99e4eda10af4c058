// Package issues wires the GitHub issue reconciler: token management, account
// resolution, the reconcile engine, webhook processing and its HTTP surface.
package issues

import (
	"context"

	"github.com/markawm/acme-github-issues/core"
)

type Config = core.Config

type Logger = core.Logger

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// LoadConfig reads ACME_* environment variables over the defaults.
func LoadConfig(ctx context.Context) (Config, error) {
	return core.LoadConfig(ctx, core.NewEnvConfigLoader("ACME"), Config{})
}
