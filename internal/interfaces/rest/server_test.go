package rest_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/catalog"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/server"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/upstream"
	"github.com/FreePeak/db-mcp-gateway/internal/interfaces/rest"
	"github.com/FreePeak/db-mcp-gateway/internal/usecases"
	"github.com/FreePeak/db-mcp-gateway/internal/usecases/dbtools"
)

const gatewaySecret = "gw-secret"

// newGateway stands up the full HTTP surface over a stub management API.
func newGateway(t *testing.T, api http.HandlerFunc) *httptest.Server {
	t.Helper()

	upstreamSrv := httptest.NewServer(api)
	t.Cleanup(upstreamSrv.Close)

	reg := dbtools.NewRegistry(upstream.NewClient(upstreamSrv.URL, "api-key"))
	cat, err := catalog.New(reg.Tools(), reg.Resources())
	require.NoError(t, err)

	service := usecases.NewGatewayService(usecases.GatewayConfig{
		Name:    "db-mcp-gateway",
		Version: "1.0.0",
		Catalog: cat,
	})

	gw := rest.NewServer(service, server.NewSessionRegistry(), gatewaySecret, ":0", nil)
	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func okAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"projects":[{"id":"proj-1"}]}`))
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, token, body string) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var decoded map[string]interface{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func errorKind(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "expected error body, got %v", body)
	kind, _ := errObj["kind"].(string)
	return kind
}

func TestBannerNeedsNoCredential(t *testing.T) {
	srv := newGateway(t, okAPI)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "db-mcp-gateway")
}

func TestMissingCredentialIsRejected(t *testing.T) {
	srv := newGateway(t, okAPI)

	resp, body := doRequest(t, srv, http.MethodGet, "/api/tools", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "missing_credential", errorKind(t, body))
}

func TestInvalidCredentialIsRejected(t *testing.T) {
	srv := newGateway(t, okAPI)

	resp, body := doRequest(t, srv, http.MethodGet, "/api/tools", "wrong", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "invalid_credential", errorKind(t, body))
}

func TestStatusEndpoint(t *testing.T) {
	srv := newGateway(t, okAPI)

	resp, body := doRequest(t, srv, http.MethodGet, "/api/status", gatewaySecret, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "db-mcp-gateway", body["name"])
}

func TestToolListIncludesSchemas(t *testing.T) {
	srv := newGateway(t, okAPI)

	resp, body := doRequest(t, srv, http.MethodGet, "/api/tools", gatewaySecret, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	tools, ok := body["tools"].([]interface{})
	require.True(t, ok)
	assert.Len(t, tools, 10)

	first, ok := tools[0].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, first, "inputSchema")
}

func TestExecuteSuccessPassesResultThrough(t *testing.T) {
	srv := newGateway(t, okAPI)

	resp, body := doRequest(t, srv, http.MethodPost, "/api/tools/list_projects/execute", gatewaySecret, "{}")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	result, ok := body["result"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, result, "projects")
}

func TestExecuteUnknownTool(t *testing.T) {
	srv := newGateway(t, okAPI)

	resp, body := doRequest(t, srv, http.MethodPost, "/api/tools/nope/execute", gatewaySecret, "{}")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "unknown_tool", errorKind(t, body))
}

func TestExecuteInvalidInputNamesField(t *testing.T) {
	srv := newGateway(t, okAPI)

	resp, body := doRequest(t, srv, http.MethodPost, "/api/tools/run_sql/execute", gatewaySecret, `{"sql":123,"project_id":"proj-1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_input", errorKind(t, body))

	errObj := body["error"].(map[string]interface{})
	violations, ok := errObj["violations"].([]interface{})
	require.True(t, ok)
	require.Len(t, violations, 1)
	violation := violations[0].(map[string]interface{})
	assert.Equal(t, "sql", violation["field"])
}

func TestExecuteHandlerErrorSurfacesUpstreamFailure(t *testing.T) {
	srv := newGateway(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusPaymentRequired)
	})

	resp, body := doRequest(t, srv, http.MethodPost, "/api/tools/list_projects/execute", gatewaySecret, "{}")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "handler_error", errorKind(t, body))

	errObj := body["error"].(map[string]interface{})
	message, _ := errObj["message"].(string)
	assert.Contains(t, message, "quota exceeded")
}

func TestUnroutablePath(t *testing.T) {
	srv := newGateway(t, okAPI)

	resp, body := doRequest(t, srv, http.MethodGet, "/nope", gatewaySecret, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "route_not_found", errorKind(t, body))
}

func TestPreflightSkipsAuth(t *testing.T) {
	srv := newGateway(t, okAPI)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/tools", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Access-Control-Allow-Methods"))
}
