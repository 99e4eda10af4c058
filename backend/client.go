package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/markawm/acme-github-issues/core"
	"github.com/markawm/acme-github-issues/transport"
)

// Operation is one GraphQL document plus the variables for a single call.
type Operation struct {
	Name      string
	Query     string
	Variables map[string]any
}

type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Response is the {data, errors} envelope returned by the backend.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

func (r Response) HasErrors() bool {
	return len(r.Errors) > 0
}

func (r Response) ErrorMessages() []string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Errors))
	for _, item := range r.Errors {
		out = append(out, item.Message)
	}
	return out
}

// DecodeData unmarshals the data member into target. A null or absent data member leaves target untouched.
func (r Response) DecodeData(target any) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, target); err != nil {
		return core.NewTransportError(err, "backend: decode graphql data", nil)
	}
	return nil
}

type ClientConfig struct {
	Endpoint       string
	HTTPClient     transport.HTTPDoer
	RequestTimeout time.Duration
	Logger         core.Logger
	LoggerProvider core.LoggerProvider
}

// Client posts GraphQL operations to {endpoint}/a/{account}/graphql on behalf of an account.
type Client struct {
	endpoint string
	adapter  *transport.GraphQLAdapter
	timeout  time.Duration
	logger   core.Logger
}

func NewClient(cfg ClientConfig) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, core.NewDependencyError("backend: endpoint is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = core.DefaultRequestTimeout
	}
	return &Client{
		endpoint: endpoint,
		adapter:  transport.NewGraphQLAdapter(cfg.HTTPClient),
		timeout:  timeout,
		logger:   core.ResolveLogger("backend", cfg.LoggerProvider, cfg.Logger),
	}, nil
}

func (c *Client) AccountEndpoint(account string) string {
	return fmt.Sprintf("%s/a/%s/graphql", c.endpoint, url.PathEscape(account))
}

// Execute returns the decoded envelope. GraphQL errors are data for the caller; only
// transport failures, non-2xx statuses and non-JSON bodies are returned as errors.
func (c *Client) Execute(ctx context.Context, account string, token string, op Operation) (Response, error) {
	if strings.TrimSpace(op.Query) == "" {
		return Response{}, core.NewValidationError("backend: operation query is required")
	}
	endpoint := c.AccountEndpoint(account)

	res, err := c.adapter.Post(ctx, transport.GraphQLRequest{
		Endpoint: endpoint,
		Headers:  transport.BearerHeaders(token),
		Payload: transport.GraphQLPayload{
			Query:         op.Query,
			OperationName: op.Name,
			Variables:     op.Variables,
		},
		Timeout: c.timeout,
	})
	if err != nil {
		return Response{}, err
	}

	metadata := map[string]any{
		"account":        account,
		"operation_name": op.Name,
		"status_code":    res.StatusCode,
	}
	if res.StatusCode/100 != 2 {
		return Response{}, core.NewTransportError(
			nil,
			fmt.Sprintf("backend: %s returned status %d", op.Name, res.StatusCode),
			metadata,
		)
	}

	var envelope Response
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		return Response{}, core.NewTransportError(err, "backend: response is not json", metadata)
	}

	core.LogWithLevel(ctx, c.logger, "debug", "graphql operation executed", map[string]any{
		"account":        account,
		"operation_name": op.Name,
		"errors":         len(envelope.Errors),
		"duration_ms":    res.Metadata["duration_ms"],
	})
	return envelope, nil
}
