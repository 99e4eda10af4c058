package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/markawm/acme-github-issues/core"
)

const KindGraphQL = "graphql"

// GraphQLPayload is the JSON body of a GraphQL POST.
type GraphQLPayload struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type GraphQLRequest struct {
	Endpoint string
	Headers  map[string]string
	Payload  GraphQLPayload
	Timeout  time.Duration
}

// GraphQLAdapter posts GraphQL payloads over a RESTAdapter. It does not read the
// data/errors envelope; callers decode the body themselves.
type GraphQLAdapter struct {
	rest *RESTAdapter
}

func NewGraphQLAdapter(client HTTPDoer) *GraphQLAdapter {
	return &GraphQLAdapter{rest: NewRESTAdapter(client)}
}

func (a *GraphQLAdapter) Post(ctx context.Context, req GraphQLRequest) (core.TransportResponse, error) {
	if a == nil || a.rest == nil {
		return core.TransportResponse{}, internalError("transport: graphql adapter is not configured", map[string]any{"adapter": KindGraphQL})
	}
	endpoint := strings.TrimSpace(req.Endpoint)
	if endpoint == "" {
		return core.TransportResponse{}, badInputError(nil, "transport: graphql endpoint is required", map[string]any{"adapter": KindGraphQL})
	}
	payload := req.Payload
	payload.Query = strings.TrimSpace(payload.Query)
	payload.OperationName = strings.TrimSpace(payload.OperationName)
	if payload.Query == "" {
		return core.TransportResponse{}, badInputError(nil, "transport: graphql query is required", map[string]any{
			"adapter":  KindGraphQL,
			"endpoint": endpoint,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return core.TransportResponse{}, badInputError(err, "transport: encode graphql payload", map[string]any{
			"adapter":        KindGraphQL,
			"operation_name": payload.OperationName,
		})
	}

	headers := make(map[string]string, len(req.Headers)+2)
	headers["Content-Type"] = "application/json"
	headers["Accept"] = "application/json"
	for key, value := range req.Headers {
		headers[key] = value
	}

	res, err := a.rest.Do(ctx, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     endpoint,
		Headers: headers,
		Body:    body,
		Timeout: req.Timeout,
	})
	if err != nil {
		return core.TransportResponse{}, err
	}
	res.Metadata["kind"] = KindGraphQL
	if payload.OperationName != "" {
		res.Metadata["operation_name"] = payload.OperationName
	}
	return res, nil
}
