package reconcile

import (
	"context"
	_ "embed"
	"time"

	"github.com/markawm/acme-github-issues/backend"
	"github.com/markawm/acme-github-issues/core"
)

const (
	CreateOperationName = "AddGitHubIssues"
	LookupOperationName = "GetGitHubIssues"
	UpdateOperationName = "UpdateGitHubIssues"
)

var (
	//go:embed queries/create.graphql
	createMutation string
	//go:embed queries/lookup.graphql
	lookupQuery string
	//go:embed queries/update.graphql
	updateMutation string
)

type Status string

const (
	StatusCreated      Status = "created"
	StatusUpdated      Status = "updated"
	StatusUpdateFailed Status = "update_failed"
	StatusUnresolved   Status = "unresolved"
	StatusDropped      Status = "dropped"
)

// Outcome is the terminal state of one reconciliation.
type Outcome struct {
	Status   Status
	Key      string
	Account  string
	EntityID string
	Errors   []string
}

// Err reports backend-side failures as a BackendMutationError; nil for created, updated and dropped.
func (o Outcome) Err() error {
	switch o.Status {
	case StatusUpdateFailed:
		return core.NewBackendMutationError(UpdateOperationName, o.Key, o.Errors)
	case StatusUnresolved:
		return core.NewBackendMutationError(CreateOperationName, o.Key, o.Errors)
	default:
		return nil
	}
}

type AccountResolver interface {
	Resolve(ctx context.Context, installationID int64) (string, bool, error)
}

type GraphQLExecutor interface {
	Execute(ctx context.Context, account string, token string, op backend.Operation) (backend.Response, error)
}

type EngineConfig struct {
	Resolver       AccountResolver
	Tokens         core.AccountTokenSource
	Backend        GraphQLExecutor
	Logger         core.Logger
	LoggerProvider core.LoggerProvider
}

// Engine applies create-then-update reconciliation keyed by IdempotencyKey.
type Engine struct {
	resolver AccountResolver
	tokens   core.AccountTokenSource
	backend  GraphQLExecutor
	logger   core.Logger
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Resolver == nil {
		return nil, core.NewDependencyError("reconcile: account resolver is required")
	}
	if cfg.Tokens == nil {
		return nil, core.NewDependencyError("reconcile: token source is required")
	}
	if cfg.Backend == nil {
		return nil, core.NewDependencyError("reconcile: backend is required")
	}
	return &Engine{
		resolver: cfg.Resolver,
		tokens:   cfg.Tokens,
		backend:  cfg.Backend,
		logger:   core.ResolveLogger("reconcile", cfg.LoggerProvider, cfg.Logger),
	}, nil
}

type lookupData struct {
	GitHubIssues struct {
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	} `json:"gitHubIssues"`
}

// Reconcile never retries. Resolver, token and transport failures are returned; backend
// GraphQL errors end in an Outcome status instead.
func (e *Engine) Reconcile(ctx context.Context, event IssueEvent) (outcome Outcome, err error) {
	if err := event.Validate(); err != nil {
		return Outcome{}, err
	}
	key := event.Key()
	installationID := event.Installation.ID
	startedAt := time.Now().UTC()
	defer func() {
		fields := map[string]any{
			"key":             key,
			"installation_id": installationID,
			"account":         outcome.Account,
			"outcome":         string(outcome.Status),
		}
		if outcomeErr := outcome.Err(); outcomeErr != nil && err == nil {
			fields["backend_errors"] = outcome.Errors
		}
		core.ObserveOperation(ctx, e.logger, startedAt, "reconcile_issue", err, fields)
	}()

	account, ok, err := e.resolver.Resolve(ctx, installationID)
	if err != nil {
		return Outcome{Key: key}, err
	}
	if !ok {
		core.LogWithLevel(ctx, e.logger, "warn", "no account found for installation", map[string]any{
			"installation_id": installationID,
			"key":             key,
		})
		return Outcome{Status: StatusDropped, Key: key}, nil
	}
	outcome = Outcome{Key: key, Account: account}

	data := MapIssue(event)
	token, err := e.tokens.AccountToken(ctx, account)
	if err != nil {
		return outcome, err
	}

	created, err := e.backend.Execute(ctx, account, token, backend.Operation{
		Name:      CreateOperationName,
		Query:     createMutation,
		Variables: map[string]any{"key": key, "data": data},
	})
	if err != nil {
		return outcome, err
	}
	if !created.HasErrors() {
		outcome.Status = StatusCreated
		return outcome, nil
	}

	id, err := e.lookup(ctx, account, token, key)
	if err != nil {
		return outcome, err
	}
	if id == "" {
		outcome.Status = StatusUnresolved
		outcome.Errors = created.ErrorMessages()
		core.LogWithLevel(ctx, e.logger, "error", "unable to create entity", map[string]any{
			"key":    key,
			"errors": outcome.Errors,
		})
		return outcome, nil
	}

	outcome.EntityID = id
	updated, err := e.backend.Execute(ctx, account, token, backend.Operation{
		Name:      UpdateOperationName,
		Query:     updateMutation,
		Variables: map[string]any{"id": id, "data": data},
	})
	if err != nil {
		return outcome, err
	}
	if updated.HasErrors() {
		outcome.Status = StatusUpdateFailed
		outcome.Errors = updated.ErrorMessages()
		core.LogWithLevel(ctx, e.logger, "error", "unable to update entity", map[string]any{
			"id":     id,
			"key":    key,
			"errors": outcome.Errors,
		})
		return outcome, nil
	}
	outcome.Status = StatusUpdated
	return outcome, nil
}

// lookup returns the first node id for key, or "" when the query errors or matches nothing.
func (e *Engine) lookup(ctx context.Context, account string, token string, key string) (string, error) {
	res, err := e.backend.Execute(ctx, account, token, backend.Operation{
		Name:      LookupOperationName,
		Query:     lookupQuery,
		Variables: map[string]any{"key": key},
	})
	if err != nil {
		return "", err
	}
	if res.HasErrors() {
		return "", nil
	}
	var data lookupData
	if err := res.DecodeData(&data); err != nil {
		return "", err
	}
	if len(data.GitHubIssues.Nodes) == 0 {
		return "", nil
	}
	return data.GitHubIssues.Nodes[0].ID, nil
}
