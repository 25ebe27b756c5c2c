// Package upstream implements the client for the DBCloud management API.
// Every method is pass-through glue: requests are forwarded, responses
// and failures are surfaced verbatim, and nothing is retried or cached.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// APIError reports a non-2xx response from the management API.
type APIError struct {
	StatusCode int
	Body       string
}

// Error returns the error message.
func (e *APIError) Error() string {
	return fmt.Sprintf("management API returned %d: %s", e.StatusCode, e.Body)
}

// bearerTransport is an http.RoundTripper that adds the API key as a
// bearer credential to every outgoing request.
type bearerTransport struct {
	base   http.RoundTripper
	apiKey string
}

// RoundTrip implements http.RoundTripper.
func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+t.apiKey)
	cloned.Header.Set("Accept", "application/json")
	return t.base.RoundTrip(cloned)
}

// Client is an HTTP client for the DBCloud management API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a management API client authenticated with apiKey.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Transport: &bearerTransport{
				base:   http.DefaultTransport,
				apiKey: apiKey,
			},
		},
	}
}

// BaseURL returns the configured management API endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if len(data) == 0 {
		return json.RawMessage(`{}`), nil
	}
	return json.RawMessage(data), nil
}

// ListProjects returns all projects in the account.
func (c *Client) ListProjects(ctx context.Context) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/projects", nil)
}

// GetProject returns one project by ID.
func (c *Client) GetProject(ctx context.Context, projectID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID), nil)
}

// CreateProject creates a project. An empty name lets the API pick one.
func (c *Client) CreateProject(ctx context.Context, name string) (json.RawMessage, error) {
	project := map[string]interface{}{}
	if name != "" {
		project["name"] = name
	}
	return c.do(ctx, http.MethodPost, "/projects", map[string]interface{}{"project": project})
}

// DeleteProject deletes a project by ID.
func (c *Client) DeleteProject(ctx context.Context, projectID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(projectID), nil)
}

// ListBranches returns the branches of a project.
func (c *Client) ListBranches(ctx context.Context, projectID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/branches", nil)
}

// CreateBranch creates a branch in a project. An empty name lets the API pick one.
func (c *Client) CreateBranch(ctx context.Context, projectID, name string) (json.RawMessage, error) {
	branch := map[string]interface{}{}
	if name != "" {
		branch["name"] = name
	}
	return c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/branches", map[string]interface{}{"branch": branch})
}

// DeleteBranch deletes a branch by ID.
func (c *Client) DeleteBranch(ctx context.Context, projectID, branchID string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(projectID)+"/branches/"+url.PathEscape(branchID), nil)
}

// RunSQL executes a single SQL statement against a project's database.
// branchID is optional; the API uses the default branch when it is empty.
func (c *Client) RunSQL(ctx context.Context, projectID, branchID, sql string) (json.RawMessage, error) {
	payload := map[string]interface{}{"sql": sql}
	if branchID != "" {
		payload["branch_id"] = branchID
	}
	return c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/query", payload)
}

// RunSQLTransaction executes a list of SQL statements in one transaction.
func (c *Client) RunSQLTransaction(ctx context.Context, projectID, branchID string, statements []string) (json.RawMessage, error) {
	payload := map[string]interface{}{"sql_statements": statements}
	if branchID != "" {
		payload["branch_id"] = branchID
	}
	return c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/transaction", payload)
}

// ConnectionURI returns a connection string for a project database.
// branchID, database and role are optional filters.
func (c *Client) ConnectionURI(ctx context.Context, projectID, branchID, database, role string) (json.RawMessage, error) {
	query := url.Values{}
	if branchID != "" {
		query.Set("branch_id", branchID)
	}
	if database != "" {
		query.Set("database_name", database)
	}
	if role != "" {
		query.Set("role_name", role)
	}

	path := "/projects/" + url.PathEscape(projectID) + "/connection_uri"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	return c.do(ctx, http.MethodGet, path, nil)
}
