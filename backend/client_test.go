package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/markawm/acme-github-issues/core"
)

func TestClient_ExecuteDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/a/acme-gh/graphql" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer account-token" {
			t.Errorf("unexpected authorization %q", r.Header.Get("Authorization"))
		}
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["operationName"] != "GetGitHubIssues" {
			t.Errorf("unexpected operation name %#v", payload["operationName"])
		}
		_, _ = w.Write([]byte(`{"data":{"gitHubIssues":{"nodes":[{"id":"X1"}]}},"errors":[{"message":"partial"}]}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{Endpoint: server.URL + "/", HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	res, err := client.Execute(context.Background(), "acme-gh", "account-token", Operation{
		Name:      "GetGitHubIssues",
		Query:     "query GetGitHubIssues($key: String!) { x }",
		Variables: map[string]any{"key": "7:I1"},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.HasErrors() || res.ErrorMessages()[0] != "partial" {
		t.Fatalf("expected graphql errors in envelope, got %#v", res.Errors)
	}

	var data struct {
		GitHubIssues struct {
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"gitHubIssues"`
	}
	if err := res.DecodeData(&data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.GitHubIssues.Nodes) != 1 || data.GitHubIssues.Nodes[0].ID != "X1" {
		t.Fatalf("unexpected data %#v", data)
	}
}

func TestClient_NonSuccessAndNonJSONAreTransportErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"html": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		},
	}
	for name, handler := range cases {
		server := httptest.NewServer(handler)
		client, err := NewClient(ClientConfig{Endpoint: server.URL, HTTPClient: server.Client()})
		if err != nil {
			t.Fatalf("%s: new client: %v", name, err)
		}
		_, err = client.Execute(context.Background(), "acme-gh", "token", Operation{Name: "AddGitHubIssues", Query: "mutation { x }"})
		server.Close()
		if !core.IsTransportError(err) {
			t.Fatalf("%s: expected transport error, got %v", name, err)
		}
	}
}

func TestResponse_DecodeNullData(t *testing.T) {
	var target map[string]any
	if err := (Response{Data: json.RawMessage("null")}).DecodeData(&target); err != nil {
		t.Fatalf("decode null: %v", err)
	}
	if target != nil {
		t.Fatalf("expected target untouched")
	}
}

func TestNewClient_RequiresEndpoint(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatalf("expected endpoint error")
	}
}
