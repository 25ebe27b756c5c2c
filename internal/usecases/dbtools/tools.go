// Package dbtools builds the gateway's fixed tool and resource catalog
// over the DBCloud management API client. Handlers are pass-through
// glue; upstream failures surface verbatim.
package dbtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/FreePeak/db-mcp-gateway/internal/domain"
	"github.com/FreePeak/db-mcp-gateway/internal/infrastructure/upstream"
)

// Registry produces the fixed definition lists for catalog construction.
type Registry struct {
	api *upstream.Client
}

// NewRegistry creates a registry over one management API client.
func NewRegistry(api *upstream.Client) *Registry {
	return &Registry{api: api}
}

// Tools returns the complete ordered tool list.
func (r *Registry) Tools() []*domain.Tool {
	return []*domain.Tool{
		r.listProjects(),
		r.describeProject(),
		r.createProject(),
		r.deleteProject(),
		r.createBranch(),
		r.deleteBranch(),
		r.runSQL(),
		r.runSQLTransaction(),
		r.describeTableSchema(),
		r.getConnectionString(),
	}
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// stringArg reads a validated string argument. Optional arguments that
// were not supplied come back empty.
func stringArg(args map[string]interface{}, key string) string {
	value, _ := args[key].(string)
	return value
}

func stringSliceArg(args map[string]interface{}, key string) []string {
	raw, _ := args[key].([]interface{})
	values := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			values = append(values, s)
		}
	}
	return values
}

func (r *Registry) listProjects() *domain.Tool {
	return &domain.Tool{
		Name:        "list_projects",
		Description: "List all projects in the DBCloud account",
		InputSchema: objectSchema(map[string]interface{}{}),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return r.api.ListProjects(ctx)
		},
	}
}

func (r *Registry) describeProject() *domain.Tool {
	return &domain.Tool{
		Name:        "describe_project",
		Description: "Describe a project, including its branches",
		InputSchema: objectSchema(map[string]interface{}{
			"project_id": stringProperty("ID of the project to describe"),
		}, "project_id"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			projectID := stringArg(args, "project_id")

			project, err := r.api.GetProject(ctx, projectID)
			if err != nil {
				return nil, err
			}
			branches, err := r.api.ListBranches(ctx, projectID)
			if err != nil {
				return nil, err
			}

			return map[string]interface{}{
				"project":  project,
				"branches": branches,
			}, nil
		},
	}
}

func (r *Registry) createProject() *domain.Tool {
	return &domain.Tool{
		Name:        "create_project",
		Description: "Create a new project",
		InputSchema: objectSchema(map[string]interface{}{
			"name": stringProperty("Optional name for the new project"),
		}),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return r.api.CreateProject(ctx, stringArg(args, "name"))
		},
	}
}

func (r *Registry) deleteProject() *domain.Tool {
	return &domain.Tool{
		Name:        "delete_project",
		Description: "Delete a project and all of its data",
		InputSchema: objectSchema(map[string]interface{}{
			"project_id": stringProperty("ID of the project to delete"),
		}, "project_id"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return r.api.DeleteProject(ctx, stringArg(args, "project_id"))
		},
	}
}

func (r *Registry) createBranch() *domain.Tool {
	return &domain.Tool{
		Name:        "create_branch",
		Description: "Create a branch in a project",
		InputSchema: objectSchema(map[string]interface{}{
			"project_id":  stringProperty("ID of the project"),
			"branch_name": stringProperty("Optional name for the new branch"),
		}, "project_id"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return r.api.CreateBranch(ctx, stringArg(args, "project_id"), stringArg(args, "branch_name"))
		},
	}
}

func (r *Registry) deleteBranch() *domain.Tool {
	return &domain.Tool{
		Name:        "delete_branch",
		Description: "Delete a branch from a project",
		InputSchema: objectSchema(map[string]interface{}{
			"project_id": stringProperty("ID of the project"),
			"branch_id":  stringProperty("ID of the branch to delete"),
		}, "project_id", "branch_id"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return r.api.DeleteBranch(ctx, stringArg(args, "project_id"), stringArg(args, "branch_id"))
		},
	}
}

func (r *Registry) runSQL() *domain.Tool {
	return &domain.Tool{
		Name:        "run_sql",
		Description: "Execute a single SQL statement against a project database",
		InputSchema: objectSchema(map[string]interface{}{
			"sql":        stringProperty("The SQL statement to execute"),
			"project_id": stringProperty("ID of the project"),
			"branch_id":  stringProperty("Optional branch ID; defaults to the project's default branch"),
		}, "sql", "project_id"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return r.api.RunSQL(ctx, stringArg(args, "project_id"), stringArg(args, "branch_id"), stringArg(args, "sql"))
		},
	}
}

func (r *Registry) runSQLTransaction() *domain.Tool {
	return &domain.Tool{
		Name:        "run_sql_transaction",
		Description: "Execute a list of SQL statements in a single transaction",
		InputSchema: objectSchema(map[string]interface{}{
			"sql_statements": map[string]interface{}{
				"type":        "array",
				"description": "The SQL statements to execute, in order",
				"items":       map[string]interface{}{"type": "string"},
			},
			"project_id": stringProperty("ID of the project"),
			"branch_id":  stringProperty("Optional branch ID; defaults to the project's default branch"),
		}, "sql_statements", "project_id"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			statements := stringSliceArg(args, "sql_statements")
			return r.api.RunSQLTransaction(ctx, stringArg(args, "project_id"), stringArg(args, "branch_id"), statements)
		},
	}
}

func (r *Registry) describeTableSchema() *domain.Tool {
	return &domain.Tool{
		Name:        "describe_table_schema",
		Description: "Describe the columns of a table in a project database",
		InputSchema: objectSchema(map[string]interface{}{
			"table_name": stringProperty("Name of the table to describe"),
			"project_id": stringProperty("ID of the project"),
			"branch_id":  stringProperty("Optional branch ID; defaults to the project's default branch"),
		}, "table_name", "project_id"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			table := strings.ReplaceAll(stringArg(args, "table_name"), "'", "''")
			query := fmt.Sprintf(
				"SELECT column_name, data_type, is_nullable, column_default FROM information_schema.columns WHERE table_name = '%s' ORDER BY ordinal_position",
				table,
			)
			return r.api.RunSQL(ctx, stringArg(args, "project_id"), stringArg(args, "branch_id"), query)
		},
	}
}

func (r *Registry) getConnectionString() *domain.Tool {
	return &domain.Tool{
		Name:        "get_connection_string",
		Description: "Get a connection string for a project database",
		InputSchema: objectSchema(map[string]interface{}{
			"project_id":    stringProperty("ID of the project"),
			"branch_id":     stringProperty("Optional branch ID"),
			"database_name": stringProperty("Optional database name"),
			"role_name":     stringProperty("Optional role name"),
		}, "project_id"),
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return r.api.ConnectionURI(ctx,
				stringArg(args, "project_id"),
				stringArg(args, "branch_id"),
				stringArg(args, "database_name"),
				stringArg(args, "role_name"))
		},
	}
}
