package accounts

import (
	"context"
	_ "embed"
	"strings"
	"sync"
	"time"

	"github.com/markawm/acme-github-issues/backend"
	"github.com/markawm/acme-github-issues/core"
)

const ConfigOperationName = "getConfigs"

//go:embed queries/config.graphql
var configQuery string

// GraphQLExecutor is satisfied by backend.Client.
type GraphQLExecutor interface {
	Execute(ctx context.Context, account string, token string, op backend.Operation) (backend.Response, error)
}

type ResolverConfig struct {
	AppID          string
	ConfigAccount  string
	Tokens         core.AccountTokenSource
	Backend        GraphQLExecutor
	Logger         core.Logger
	LoggerProvider core.LoggerProvider
}

// Resolver maps GitHub installation ids to platform accounts. The upstream config is
// fetched once per process; a response carrying errors memoizes an empty result.
type Resolver struct {
	appID         string
	configAccount string
	tokens        core.AccountTokenSource
	backend       GraphQLExecutor
	logger        core.Logger

	mu            sync.Mutex
	loaded        bool
	installations core.AccountInstallations
}

func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Tokens == nil {
		return nil, core.NewDependencyError("accounts: token source is required")
	}
	if cfg.Backend == nil {
		return nil, core.NewDependencyError("accounts: backend is required")
	}
	appID := strings.TrimSpace(cfg.AppID)
	if appID == "" {
		appID = core.DefaultAppID
	}
	configAccount := strings.TrimSpace(cfg.ConfigAccount)
	if configAccount == "" {
		configAccount = core.DefaultConfigAccount
	}
	return &Resolver{
		appID:         appID,
		configAccount: configAccount,
		tokens:        cfg.Tokens,
		backend:       cfg.Backend,
		logger:        core.ResolveLogger("accounts", cfg.LoggerProvider, cfg.Logger),
	}, nil
}

type configsData struct {
	Configs struct {
		Nodes []configNode `json:"nodes"`
	} `json:"configs"`
}

type configNode struct {
	Account string `json:"account"`
	Config  struct {
		GithubAccounts []core.AccountConfig `json:"githubAccounts"`
	} `json:"config"`
}

// Installations returns the memoized account map, fetching it on first use. Token and
// transport failures are returned without memoizing so a later call can try again.
func (r *Resolver) Installations(ctx context.Context) (core.AccountInstallations, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded {
		return r.installations, nil
	}

	installations, err := r.fetch(ctx)
	if err != nil {
		if !core.IsConfigFetchError(err) {
			return core.AccountInstallations{}, err
		}
		core.LogWithLevel(ctx, r.logger, "error", "error fetching config", map[string]any{
			"account": r.configAccount,
			"error":   err.Error(),
		})
		installations = core.AccountInstallations{Accounts: map[string][]core.AccountConfig{}}
	}
	r.installations = installations
	r.loaded = true
	return installations, nil
}

// Resolve returns the GitHub account configured for installationID.
func (r *Resolver) Resolve(ctx context.Context, installationID int64) (string, bool, error) {
	installations, err := r.Installations(ctx)
	if err != nil {
		return "", false, err
	}
	match, ok := installations.Find(installationID)
	if !ok {
		return "", false, nil
	}
	return match.Account, true, nil
}

func (r *Resolver) fetch(ctx context.Context) (installations core.AccountInstallations, err error) {
	startedAt := time.Now().UTC()
	defer func() {
		core.ObserveOperation(ctx, r.logger, startedAt, "config_fetch", err, map[string]any{
			"account":  r.configAccount,
			"accounts": installations.Len(),
		})
	}()

	token, err := r.tokens.AccountToken(ctx, r.configAccount)
	if err != nil {
		return core.AccountInstallations{}, err
	}
	res, err := r.backend.Execute(ctx, r.configAccount, token, backend.Operation{
		Name:      ConfigOperationName,
		Query:     configQuery,
		Variables: map[string]any{"appId": r.appID},
	})
	if err != nil {
		return core.AccountInstallations{}, err
	}
	if res.HasErrors() {
		return core.AccountInstallations{}, core.NewConfigFetchError(r.configAccount, res.ErrorMessages())
	}

	var data configsData
	if err := res.DecodeData(&data); err != nil {
		return core.AccountInstallations{}, err
	}

	installations = core.AccountInstallations{Accounts: map[string][]core.AccountConfig{}}
	for _, node := range data.Configs.Nodes {
		if _, seen := installations.Accounts[node.Account]; !seen {
			installations.Order = append(installations.Order, node.Account)
		}
		// a repeated account replaces the earlier entry, keeping its original position
		installations.Accounts[node.Account] = append([]core.AccountConfig(nil), node.Config.GithubAccounts...)
	}
	return installations, nil
}
