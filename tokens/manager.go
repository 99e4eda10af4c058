package tokens

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/markawm/acme-github-issues/auth"
	"github.com/markawm/acme-github-issues/core"
	"github.com/markawm/acme-github-issues/transport"
)

const (
	appSlotPrefix     = "app/"
	accountSlotPrefix = "account/"
)

// AssertionMinter is satisfied by auth.AppSigner.
type AssertionMinter interface {
	AppID() string
	Mint(ctx context.Context) (core.SignedAssertion, error)
}

type ManagerConfig struct {
	PlatformEndpoint string
	Signer           AssertionMinter
	Transport        core.TransportAdapter
	Cache            *Cache
	Logger           core.Logger
	LoggerProvider   core.LoggerProvider
	Now              func() time.Time
	RequestTimeout   time.Duration
}

// Manager hands out the app assertion and per-account installation tokens,
// refreshing a slot once it is within core.TokenRefreshBuffer of expiry.
type Manager struct {
	platformEndpoint string
	signer           AssertionMinter
	transport        core.TransportAdapter
	cache            *Cache
	logger           core.Logger
	now              func() time.Time
	requestTimeout   time.Duration
}

func NewManager(cfg ManagerConfig) (*Manager, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.PlatformEndpoint), "/")
	if endpoint == "" {
		return nil, core.NewDependencyError("tokens: platform endpoint is required")
	}
	if cfg.Signer == nil {
		return nil, core.NewDependencyError("tokens: signer is required")
	}
	adapter := cfg.Transport
	if adapter == nil {
		adapter = transport.NewRESTAdapter(nil)
	}
	cache := cfg.Cache
	if cache == nil {
		cache = NewCache()
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = core.DefaultRequestTimeout
	}
	return &Manager{
		platformEndpoint: endpoint,
		signer:           cfg.Signer,
		transport:        adapter,
		cache:            cache,
		logger:           core.ResolveLogger("tokens", cfg.LoggerProvider, cfg.Logger),
		now:              now,
		requestTimeout:   timeout,
	}, nil
}

func (m *Manager) Cache() *Cache {
	return m.cache
}

// AppToken returns the cached app assertion or mints a new one.
func (m *Manager) AppToken(ctx context.Context) (string, error) {
	slot := appSlotPrefix + m.signer.AppID()
	now := m.now()
	if cached, ok := m.cache.Get(slot); ok && cached.Usable(now) {
		return cached.Token, nil
	}

	assertion, err := m.signer.Mint(ctx)
	if err != nil {
		core.LogWithLevel(ctx, m.logger, "error", "app token mint failed", map[string]any{"error": err.Error()})
		return "", err
	}
	m.cache.Put(slot, assertion.Cached())
	return assertion.Token, nil
}

// AccountToken returns the cached installation token for account or exchanges the
// app assertion for a fresh one. Failed exchanges leave the slot untouched.
func (m *Manager) AccountToken(ctx context.Context, account string) (token string, err error) {
	account = strings.TrimSpace(account)
	if account == "" {
		return "", core.NewValidationError("tokens: account is required")
	}
	slot := accountSlotPrefix + account
	now := m.now()
	if cached, ok := m.cache.Get(slot); ok && cached.Usable(now) {
		core.LogWithLevel(ctx, m.logger, "debug", "using cached account token", map[string]any{
			"account":    account,
			"expires_at": cached.ExpiresAt,
		})
		return cached.Token, nil
	}

	startedAt := time.Now().UTC()
	defer func() {
		core.ObserveOperation(ctx, m.logger, startedAt, "account_token_exchange", err, map[string]any{"account": account})
	}()

	appToken, err := m.AppToken(ctx)
	if err != nil {
		return "", err
	}

	response, err := m.transport.Do(ctx, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     m.exchangeURL(account),
		Headers: transport.BearerHeaders(appToken),
		Timeout: m.requestTimeout,
	})
	if err != nil {
		return "", err
	}
	if response.StatusCode/100 != 2 {
		return "", core.NewTokenExchangeError(account, response.StatusCode)
	}

	assertion := auth.NewSignedAssertion(string(response.Body), m.now())
	m.cache.Put(slot, assertion.Cached())
	return assertion.Token, nil
}

func (m *Manager) exchangeURL(account string) string {
	return fmt.Sprintf("%s/platform/api/app/installations/%s/accessToken", m.platformEndpoint, url.PathEscape(account))
}

var _ core.AccountTokenSource = (*Manager)(nil)
