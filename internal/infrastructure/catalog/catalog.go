// Package catalog implements the gateway's immutable tool and resource registry.
package catalog

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/FreePeak/db-mcp-gateway/internal/domain"
)

// Catalog is the registry of tool and resource definitions. It is built
// once at process start and never mutated afterwards.
type Catalog struct {
	tools     map[string]*domain.Tool
	schemas   map[string]*gojsonschema.Schema
	resources map[string]*domain.Resource
	toolOrder []string
	resOrder  []string
}

// New builds a catalog from fixed lists of definitions. Construction
// fails on a duplicate name, a missing handler, or an input schema that
// does not compile.
func New(tools []*domain.Tool, resources []*domain.Resource) (*Catalog, error) {
	c := &Catalog{
		tools:     make(map[string]*domain.Tool, len(tools)),
		schemas:   make(map[string]*gojsonschema.Schema, len(tools)),
		resources: make(map[string]*domain.Resource, len(resources)),
	}

	for _, tool := range tools {
		if tool.Name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if tool.Handler == nil {
			return nil, fmt.Errorf("tool %q has no handler bound", tool.Name)
		}
		if _, exists := c.tools[tool.Name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", tool.Name)
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(tool.InputSchema))
		if err != nil {
			return nil, fmt.Errorf("compiling input schema for tool %q: %w", tool.Name, err)
		}

		c.tools[tool.Name] = tool
		c.schemas[tool.Name] = schema
		c.toolOrder = append(c.toolOrder, tool.Name)
	}

	for _, resource := range resources {
		if resource.URI == "" {
			return nil, fmt.Errorf("resource with empty URI")
		}
		if resource.Handler == nil {
			return nil, fmt.Errorf("resource %q has no handler bound", resource.URI)
		}
		if _, exists := c.resources[resource.URI]; exists {
			return nil, fmt.Errorf("duplicate resource URI %q", resource.URI)
		}

		c.resources[resource.URI] = resource
		c.resOrder = append(c.resOrder, resource.URI)
	}

	return c, nil
}

// Tool looks up a tool definition by name.
func (c *Catalog) Tool(name string) (*domain.Tool, bool) {
	tool, ok := c.tools[name]
	return tool, ok
}

// Tools enumerates all tool definitions in registration order.
func (c *Catalog) Tools() []*domain.Tool {
	tools := make([]*domain.Tool, 0, len(c.toolOrder))
	for _, name := range c.toolOrder {
		tools = append(tools, c.tools[name])
	}
	return tools
}

// Resource looks up a resource definition by URI.
func (c *Catalog) Resource(uri string) (*domain.Resource, bool) {
	resource, ok := c.resources[uri]
	return resource, ok
}

// Resources enumerates all resource definitions in registration order.
func (c *Catalog) Resources() []*domain.Resource {
	resources := make([]*domain.Resource, 0, len(c.resOrder))
	for _, uri := range c.resOrder {
		resources = append(resources, c.resources[uri])
	}
	return resources
}

// ValidateInput checks args against the named tool's compiled schema and
// returns one violation per failing field. An empty slice means valid.
func (c *Catalog) ValidateInput(name string, args map[string]interface{}) ([]domain.FieldViolation, error) {
	schema, ok := c.schemas[name]
	if !ok {
		return nil, fmt.Errorf("no schema for tool %q", name)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return nil, err
	}

	if result.Valid() {
		return nil, nil
	}

	violations := make([]domain.FieldViolation, 0, len(result.Errors()))
	for _, resultError := range result.Errors() {
		violations = append(violations, domain.FieldViolation{
			Field:   violationField(resultError),
			Message: resultError.Description(),
		})
	}
	return violations, nil
}

// violationField resolves the field path of a schema violation. Required
// violations report the parent object as their context, so the missing
// property name comes from the error details instead.
func violationField(resultError gojsonschema.ResultError) string {
	if resultError.Type() == "required" {
		if property, ok := resultError.Details()["property"].(string); ok {
			if field := resultError.Field(); field != "" && field != "(root)" {
				return field + "." + property
			}
			return property
		}
	}
	return resultError.Field()
}
