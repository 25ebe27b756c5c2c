package upstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/upstream"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	auth   string
	body   []byte
}

func newRecordingServer(t *testing.T, status int, response string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	recorded := &recordedRequest{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorded.method = r.Method
		recorded.path = r.URL.Path
		recorded.query = r.URL.RawQuery
		recorded.auth = r.Header.Get("Authorization")
		recorded.body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(ts.Close)

	return ts, recorded
}

func TestListProjectsSendsBearerCredential(t *testing.T) {
	ts, recorded := newRecordingServer(t, http.StatusOK, `{"projects":[{"id":"p1"}]}`)
	client := upstream.NewClient(ts.URL, "api-key")

	result, err := client.ListProjects(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, recorded.method)
	assert.Equal(t, "/projects", recorded.path)
	assert.Equal(t, "Bearer api-key", recorded.auth)
	assert.JSONEq(t, `{"projects":[{"id":"p1"}]}`, string(result))
}

func TestRunSQLPostsStatement(t *testing.T) {
	ts, recorded := newRecordingServer(t, http.StatusOK, `{"rows":[]}`)
	client := upstream.NewClient(ts.URL, "api-key")

	_, err := client.RunSQL(context.Background(), "p1", "br-main", "SELECT 1")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, recorded.method)
	assert.Equal(t, "/projects/p1/query", recorded.path)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(recorded.body, &payload))
	assert.Equal(t, "SELECT 1", payload["sql"])
	assert.Equal(t, "br-main", payload["branch_id"])
}

func TestRunSQLOmitsEmptyBranch(t *testing.T) {
	ts, recorded := newRecordingServer(t, http.StatusOK, `{"rows":[]}`)
	client := upstream.NewClient(ts.URL, "api-key")

	_, err := client.RunSQL(context.Background(), "p1", "", "SELECT 1")
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(recorded.body, &payload))
	_, hasBranch := payload["branch_id"]
	assert.False(t, hasBranch)
}

func TestConnectionURIQueryParameters(t *testing.T) {
	ts, recorded := newRecordingServer(t, http.StatusOK, `{"uri":"postgres://"}`)
	client := upstream.NewClient(ts.URL, "api-key")

	_, err := client.ConnectionURI(context.Background(), "p1", "br-1", "appdb", "reader")
	require.NoError(t, err)

	assert.Equal(t, "/projects/p1/connection_uri", recorded.path)
	assert.Contains(t, recorded.query, "branch_id=br-1")
	assert.Contains(t, recorded.query, "database_name=appdb")
	assert.Contains(t, recorded.query, "role_name=reader")
}

func TestUpstreamFailureSurfacesVerbatim(t *testing.T) {
	ts, _ := newRecordingServer(t, http.StatusInternalServerError, `{"message":"storage unavailable"}`)
	client := upstream.NewClient(ts.URL, "api-key")

	_, err := client.ListProjects(context.Background())
	require.Error(t, err)

	var apiErr *upstream.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Contains(t, apiErr.Error(), "storage unavailable")
}
