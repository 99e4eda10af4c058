package issues

import (
	"context"
	"crypto/ecdsa"
	"net/http"
	"time"

	"github.com/markawm/acme-github-issues/accounts"
	"github.com/markawm/acme-github-issues/auth"
	"github.com/markawm/acme-github-issues/backend"
	"github.com/markawm/acme-github-issues/command"
	"github.com/markawm/acme-github-issues/core"
	"github.com/markawm/acme-github-issues/internal/http/handler"
	"github.com/markawm/acme-github-issues/internal/http/router"
	"github.com/markawm/acme-github-issues/reconcile"
	"github.com/markawm/acme-github-issues/tokens"
	"github.com/markawm/acme-github-issues/transport"
	"github.com/markawm/acme-github-issues/webhooks"
)

// DeliveryLog stores and lists processed deliveries. The sqlstore package provides one.
type DeliveryLog interface {
	webhooks.DeliveryRecorder
	ListByKey(ctx context.Context, key string) ([]webhooks.DeliveryRecord, error)
}

type Option func(*appOptions)

type appOptions struct {
	logger      core.Logger
	httpClient  transport.HTTPDoer
	privateKey  *ecdsa.PrivateKey
	deliveryLog DeliveryLog
	now         func() time.Time
}

func WithLogger(logger core.Logger) Option {
	return func(o *appOptions) { o.logger = logger }
}

// WithHTTPClient sets the client used for platform and backend calls.
func WithHTTPClient(client transport.HTTPDoer) Option {
	return func(o *appOptions) { o.httpClient = client }
}

// WithPrivateKey skips loading platform.private_key_path.
func WithPrivateKey(key *ecdsa.PrivateKey) Option {
	return func(o *appOptions) { o.privateKey = key }
}

func WithDeliveryLog(log DeliveryLog) Option {
	return func(o *appOptions) { o.deliveryLog = log }
}

func WithClock(now func() time.Time) Option {
	return func(o *appOptions) { o.now = now }
}

// App owns every long-lived piece of state: the token cache and the account resolver
// live here, not in package variables.
type App struct {
	cfg         Config
	logger      core.Logger
	tokens      *tokens.Manager
	resolver    *accounts.Resolver
	engine      *reconcile.Engine
	dispatch    *command.DispatchReconciler
	processor   *webhooks.Processor
	deliveryLog DeliveryLog
	handler     http.Handler
}

func New(cfg Config, opts ...Option) (*App, error) {
	options := appOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	now := options.now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	logger := core.ResolveLogger("issues", nil, options.logger)
	provider, _ := options.logger.(core.LoggerProvider)

	key := options.privateKey
	if key == nil {
		loaded, err := auth.LoadPrivateKeyFile(cfg.Platform.PrivateKeyPath, cfg.Platform.PrivateKeyPassword)
		if err != nil {
			return nil, err
		}
		key = loaded
	}

	signer := auth.NewAppSigner(auth.AppSignerConfig{
		AppID:      cfg.Platform.AppID,
		PrivateKey: key,
		Now:        now,
	})
	manager, err := tokens.NewManager(tokens.ManagerConfig{
		PlatformEndpoint: cfg.Platform.Endpoint,
		Signer:           signer,
		Transport:        transport.NewRESTAdapter(options.httpClient),
		Cache:            tokens.NewCache(),
		Logger:           options.logger,
		LoggerProvider:   provider,
		Now:              now,
		RequestTimeout:   cfg.Platform.RequestTimeout,
	})
	if err != nil {
		return nil, err
	}
	client, err := backend.NewClient(backend.ClientConfig{
		Endpoint:       cfg.BackendEndpoint(),
		HTTPClient:     options.httpClient,
		RequestTimeout: cfg.Platform.RequestTimeout,
		Logger:         options.logger,
		LoggerProvider: provider,
	})
	if err != nil {
		return nil, err
	}
	resolver, err := accounts.NewResolver(accounts.ResolverConfig{
		AppID:          cfg.Platform.AppID,
		ConfigAccount:  cfg.Platform.ConfigAccount,
		Tokens:         manager,
		Backend:        client,
		Logger:         options.logger,
		LoggerProvider: provider,
	})
	if err != nil {
		return nil, err
	}
	engine, err := reconcile.NewEngine(reconcile.EngineConfig{
		Resolver:       resolver,
		Tokens:         manager,
		Backend:        client,
		Logger:         options.logger,
		LoggerProvider: provider,
	})
	if err != nil {
		return nil, err
	}
	dispatch, err := command.NewDispatchReconciler(command.NewReconcileIssueCommand(engine))
	if err != nil {
		return nil, err
	}

	processor := webhooks.NewProcessor(webhooks.NewHMACVerifier(cfg.Webhook.Secret), nil, dispatch)
	processor.Logger = core.ResolveLogger("webhooks", provider, options.logger)
	processor.Now = now
	if options.deliveryLog != nil {
		processor.Recorder = options.deliveryLog
	}

	app := &App{
		cfg:         cfg,
		logger:      logger,
		tokens:      manager,
		resolver:    resolver,
		engine:      engine,
		dispatch:    dispatch,
		processor:   processor,
		deliveryLog: options.deliveryLog,
	}
	app.handler = app.buildHandler()
	return app, nil
}

func (a *App) buildHandler() http.Handler {
	var reader handler.DeliveryReader
	if a.deliveryLog != nil {
		reader = a.deliveryLog
	}
	return router.New(router.Handlers{
		Webhook:    handler.NewWebhookHandler(a.processor, a.logger),
		Deliveries: handler.NewDeliveryHandler(reader),
	}, router.RouterConfig{
		WebhookPath: a.cfg.Webhook.Path,
		Logger:      a.logger,
	})
}

func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Config() Config { return a.cfg }

func (a *App) Processor() *webhooks.Processor { return a.processor }

func (a *App) Engine() *reconcile.Engine { return a.engine }

func (a *App) Tokens() *tokens.Manager { return a.tokens }

func (a *App) Resolver() *accounts.Resolver { return a.resolver }

// Close detaches the app from the command dispatcher.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.dispatch.Close()
}
