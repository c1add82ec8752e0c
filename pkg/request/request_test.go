package request

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockdeck/mockdeck/pkg/env"
)

// staticEnvSource serves a fixed active environment.
type staticEnvSource struct {
	active *env.Environment
}

func (s *staticEnvSource) Active(_ context.Context) *env.Environment {
	return s.active
}

func testResolver(active *env.Environment) *env.Resolver {
	return env.NewResolver(&staticEnvSource{active: active})
}

func TestBuild_ResolvesURLHeadersBody(t *testing.T) {
	resolver := testResolver(&env.Environment{
		ID:   "env-1",
		Name: "Development",
		Variables: []env.Variable{
			{Key: "baseUrl", Value: "http://api.test"},
			{Key: "authHeader", Value: "X-Api-Key"},
			{Key: "token", Value: "secret123"},
		},
	})

	def := &Definition{
		Method: "POST",
		URL:    "{{baseUrl}}/users",
		Headers: map[string]string{
			"{{authHeader}}": "{{token}}",
			"Accept":         "application/json",
		},
		Body: `{"token":"{{token}}"}`,
	}

	req, err := Build(context.Background(), def, resolver, "", "")
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "http://api.test/users", req.URL.String())
	assert.Equal(t, "secret123", req.Header.Get("X-Api-Key"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"secret123"}`, string(body))
}

func TestBuild_UnknownTokenKeptVerbatim(t *testing.T) {
	resolver := testResolver(&env.Environment{
		ID:        "env-1",
		Name:      "Development",
		Variables: []env.Variable{{Key: "known", Value: "yes"}},
	})

	def := &Definition{URL: "http://api.test/{{known}}/{{unknown}}"}
	req, err := Build(context.Background(), def, resolver, "", "")
	require.NoError(t, err)

	assert.Equal(t, "/yes/{{unknown}}", req.URL.Path)
}

func TestBuild_NilResolver(t *testing.T) {
	def := &Definition{
		URL:  "http://api.test/items",
		Body: "{{untouched}}",
	}

	req, err := Build(context.Background(), def, nil, "", "")
	require.NoError(t, err)

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "{{untouched}}", string(body))
}

func TestBuild_DefaultsToGet(t *testing.T) {
	req, err := Build(context.Background(), &Definition{URL: "http://api.test/"}, nil, "", "")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, req.Method)
	assert.Nil(t, req.Body)
}

func TestBuild_LowercaseMethodNormalized(t *testing.T) {
	req, err := Build(context.Background(), &Definition{Method: "delete", URL: "http://api.test/x"}, nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, req.Method)
}

func TestBuild_InvalidMethod(t *testing.T) {
	_, err := Build(context.Background(), &Definition{Method: "FETCH", URL: "http://api.test/"}, nil, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid HTTP method")
}

func TestBuild_MissingURL(t *testing.T) {
	_, err := Build(context.Background(), &Definition{Method: "GET"}, nil, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
}

func TestBuild_NilDefinition(t *testing.T) {
	_, err := Build(context.Background(), nil, nil, "", "")
	require.Error(t, err)
}

func TestBuild_JSONBodySniffsContentType(t *testing.T) {
	req, err := Build(context.Background(), &Definition{
		Method: "POST",
		URL:    "http://api.test/users",
		Body:   `  {"name":"alice"}`,
	}, nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}

func TestBuild_ExplicitContentTypePreserved(t *testing.T) {
	req, err := Build(context.Background(), &Definition{
		Method:  "POST",
		URL:     "http://api.test/users",
		Headers: map[string]string{"content-type": "text/csv"},
		Body:    `{"looks":"like json"}`,
	}, nil, "", "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", req.Header.Get("Content-Type"))
}

func TestBuild_PlainBodyGetsNoContentType(t *testing.T) {
	req, err := Build(context.Background(), &Definition{
		Method: "POST",
		URL:    "http://api.test/notes",
		Body:   "plain text note",
	}, nil, "", "")
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get("Content-Type"))
}

func TestBuild_ServiceScopedVariableWins(t *testing.T) {
	enabled := true
	resolver := testResolver(&env.Environment{
		ID:        "env-1",
		Name:      "Development",
		Variables: []env.Variable{{Key: "token", Value: "global-token"}},
		Overrides: []env.Override{
			{
				Scope:    env.ScopeService,
				TargetID: "svc-1",
				Variables: []env.Variable{
					{Key: "token", Value: "svc-token", Enabled: &enabled},
				},
			},
		},
	})

	def := &Definition{URL: "http://api.test/", Headers: map[string]string{"Authorization": "{{token}}"}}

	req, err := Build(context.Background(), def, resolver, "svc-1", "")
	require.NoError(t, err)
	assert.Equal(t, "svc-token", req.Header.Get("Authorization"))

	req, err = Build(context.Background(), def, resolver, "svc-other", "")
	require.NoError(t, err)
	assert.Equal(t, "global-token", req.Header.Get("Authorization"))
}

func TestDispatcher_Send(t *testing.T) {
	var gotMethod, gotPath, gotAuth, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("X-Request-Id", "req-42")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"u1"}`))
	}))
	defer server.Close()

	d := NewDispatcher(nil, Options{})
	result, err := d.Send(context.Background(), &Definition{
		Method:  "POST",
		URL:     server.URL + "/users",
		Headers: map[string]string{"Authorization": "Bearer abc"},
		Body:    `{"name":"alice"}`,
	}, "", "")
	require.NoError(t, err)

	assert.Equal(t, "POST", gotMethod)
	assert.Equal(t, "/users", gotPath)
	assert.Equal(t, "Bearer abc", gotAuth)
	assert.JSONEq(t, `{"name":"alice"}`, gotBody)

	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Contains(t, result.Status, "201")
	assert.Equal(t, "req-42", result.Headers["X-Request-Id"])
	assert.JSONEq(t, `{"id":"u1"}`, result.Body)
	assert.Equal(t, len(result.Body), result.BodySize)
	assert.GreaterOrEqual(t, result.DurationMs, int64(0))
}

func TestDispatcher_SendResolvesVariables(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" && r.Header.Get("X-Api-Key") == "secret123" {
			_, _ = w.Write([]byte("pong"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	resolver := testResolver(&env.Environment{
		ID:   "env-1",
		Name: "Development",
		Variables: []env.Variable{
			{Key: "baseUrl", Value: server.URL},
			{Key: "apiKey", Value: "secret123"},
		},
	})

	d := NewDispatcher(resolver, Options{})
	result, err := d.Send(context.Background(), &Definition{
		URL:     "{{baseUrl}}/ping",
		Headers: map[string]string{"X-Api-Key": "{{apiKey}}"},
	}, "", "")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "pong", result.Body)
}

func TestDispatcher_SendConnectionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	d := NewDispatcher(nil, Options{Timeout: time.Second})
	_, err := d.Send(context.Background(), &Definition{URL: deadURL + "/x"}, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending GET")
}

func TestDispatcher_SendInvalidDefinition(t *testing.T) {
	d := NewDispatcher(nil, Options{})
	_, err := d.Send(context.Background(), &Definition{}, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required")
}

func TestDispatcher_MultiValueHeadersJoined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("X-Multi", "a")
		w.Header().Add("X-Multi", "b")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewDispatcher(nil, Options{})
	result, err := d.Send(context.Background(), &Definition{URL: server.URL}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "a, b", result.Headers["X-Multi"])
}
