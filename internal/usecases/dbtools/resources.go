package dbtools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/FreePeak/db-mcp-gateway/internal/domain"
)

const docsText = `# DBCloud MCP Gateway

This gateway exposes DBCloud project management and SQL execution as MCP
tools.

## Tools

- list_projects: list all projects in the account
- describe_project: project details plus its branches
- create_project / delete_project
- create_branch / delete_branch
- run_sql: execute one SQL statement
- run_sql_transaction: execute several statements atomically
- describe_table_schema: column listing for a table
- get_connection_string: connection URI for a database

## Calling a tool

Streaming clients send JSON-RPC frames to the announced endpoint:

{
  "jsonrpc": "2.0",
  "id": 1,
  "method": "tools/call",
  "params": {
    "name": "run_sql",
    "arguments": {"project_id": "proj-1", "sql": "SELECT 1"}
  }
}

Synchronous clients POST the arguments object directly to
/api/tools/{name}/execute.
`

// Resources returns the complete ordered resource list.
func (r *Registry) Resources() []*domain.Resource {
	return []*domain.Resource{
		{
			URI:         "dbgateway://docs",
			Name:        "docs",
			Description: "Usage notes for the gateway's tools",
			MIMEType:    "text/markdown",
			Handler: func(ctx context.Context) (*domain.ResourceContents, error) {
				return &domain.ResourceContents{
					URI:      "dbgateway://docs",
					MIMEType: "text/markdown",
					Text:     docsText,
				}, nil
			},
		},
		{
			URI:         "dbgateway://status",
			Name:        "status",
			Description: "Runtime summary of the gateway",
			MIMEType:    "application/json",
			Handler: func(ctx context.Context) (*domain.ResourceContents, error) {
				summary, err := json.Marshal(map[string]interface{}{
					"status":   "ok",
					"upstream": r.api.BaseURL(),
					"time":     time.Now().UTC().Format(time.RFC3339),
				})
				if err != nil {
					return nil, err
				}
				return &domain.ResourceContents{
					URI:      "dbgateway://status",
					MIMEType: "application/json",
					Text:     string(summary),
				}, nil
			},
		},
	}
}
