package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/markawm/acme-github-issues/core"
)

const (
	KindREST = "rest"

	userAgent = "acme-github-issues"

	// DefaultResponseBodyLimit caps every response body read by the adapters.
	DefaultResponseBodyLimit int64 = 10 << 20

	fallbackClientTimeout = 30 * time.Second
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTAdapter performs a single HTTP exchange. Any status code comes back as a
// response; errors mean the exchange itself did not complete.
type RESTAdapter struct {
	Client               HTTPDoer
	MaxResponseBodyBytes int64
}

func NewRESTAdapter(client HTTPDoer) *RESTAdapter {
	if client == nil {
		client = &http.Client{Timeout: fallbackClientTimeout}
	}
	return &RESTAdapter{Client: client, MaxResponseBodyBytes: DefaultResponseBodyLimit}
}

func (*RESTAdapter) Kind() string { return KindREST }

func (a *RESTAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, internalError("transport: rest adapter has no http client", map[string]any{"adapter": KindREST})
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := newHTTPRequest(ctx, req)
	if err != nil {
		return core.TransportResponse{}, err
	}
	fields := map[string]any{"adapter": KindREST, "method": httpReq.Method, "url": httpReq.URL.Redacted()}

	startedAt := time.Now()
	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, externalError(err, "transport: http request failed", fields)
	}
	defer httpRes.Body.Close()

	limit := a.bodyLimit(req.MaxResponseBodyBytes)
	body, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	fields["status_code"] = httpRes.StatusCode
	if err != nil {
		return core.TransportResponse{}, externalError(err, "transport: read response body", fields)
	}
	if int64(len(body)) > limit {
		fields["response_limit_b"] = limit
		return core.TransportResponse{}, externalError(nil, fmt.Sprintf("transport: response body exceeds %d bytes", limit), fields)
	}

	headers := make(map[string]string, len(httpRes.Header))
	for key, values := range httpRes.Header {
		headers[key] = strings.Join(values, ",")
	}
	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Headers:    headers,
		Body:       body,
		Metadata: map[string]any{
			"kind":        KindREST,
			"duration_ms": time.Since(startedAt).Milliseconds(),
		},
	}, nil
}

func (a *RESTAdapter) bodyLimit(requested int64) int64 {
	switch {
	case requested > 0:
		return requested
	case a.MaxResponseBodyBytes > 0:
		return a.MaxResponseBodyBytes
	default:
		return DefaultResponseBodyLimit
	}
}

func newHTTPRequest(ctx context.Context, req core.TransportRequest) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return nil, badInputError(err, "transport: invalid request url", map[string]any{"adapter": KindREST})
	}
	if !target.IsAbs() || target.Host == "" {
		return nil, badInputError(nil, "transport: request url must be absolute", map[string]any{"adapter": KindREST, "url": req.URL})
	}
	if len(req.Query) > 0 {
		values := target.Query()
		for key, value := range req.Query {
			if key = strings.TrimSpace(key); key != "" {
				values.Set(key, strings.TrimSpace(value))
			}
		}
		target.RawQuery = values.Encode()
	}

	var body io.Reader = http.NoBody
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, badInputError(err, "transport: build http request", map[string]any{"adapter": KindREST, "method": method})
	}
	httpReq.Header.Set("User-Agent", userAgent)
	for key, value := range req.Headers {
		if key = strings.TrimSpace(key); key != "" {
			httpReq.Header.Set(key, strings.TrimSpace(value))
		}
	}
	return httpReq, nil
}

// BearerHeaders returns the Authorization header for a bearer token.
func BearerHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + strings.TrimSpace(token)}
}

var _ core.TransportAdapter = (*RESTAdapter)(nil)
